// Package scheme loads occupation classification schemes (code plus title)
// used as lookup sets by the lookup-values check.
package scheme

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"occubench/internal/dataset"
)

const (
	DefaultCodeColumn  = "ISCO 08 Code"
	DefaultTitleColumn = "Title EN"
)

type Options struct {
	// Sheet selects the worksheet of a spreadsheet; empty means the first.
	Sheet string

	// CodeColumn holds the codes (default DefaultCodeColumn).
	CodeColumn string

	// TitleColumn holds the labels (default DefaultTitleColumn). A scheme
	// without this column loads with empty titles.
	TitleColumn string

	// RawColumns are exempt from NA substitution. The code column always is,
	// so a code such as "NA" survives loading.
	RawColumns []string
}

func (o Options) withDefaults() Options {
	if o.CodeColumn == "" {
		o.CodeColumn = DefaultCodeColumn
	}
	if o.TitleColumn == "" {
		o.TitleColumn = DefaultTitleColumn
	}
	return o
}

func (o Options) loadOptions() dataset.LoadOptions {
	raw := append([]string{o.CodeColumn}, o.RawColumns...)
	return dataset.LoadOptions{
		StringColumns: []string{o.CodeColumn, o.TitleColumn},
		RawColumns:    raw,
	}
}

// ReferenceSet is the set of permissible codes of a scheme with their
// titles. It is read-only once loaded.
type ReferenceSet struct {
	titles map[string]string
	order  []string
}

func NewReferenceSet() *ReferenceSet {
	return &ReferenceSet{titles: make(map[string]string)}
}

// Add records code with title. Re-adding a code keeps its first position and
// the first non-empty title.
func (s *ReferenceSet) Add(code, title string) {
	if existing, ok := s.titles[code]; ok {
		if existing == "" {
			s.titles[code] = title
		}
		return
	}
	s.titles[code] = title
	s.order = append(s.order, code)
}

func (s *ReferenceSet) Contains(code string) bool {
	if s == nil {
		return false
	}
	_, ok := s.titles[code]
	return ok
}

func (s *ReferenceSet) Title(code string) (string, bool) {
	if s == nil {
		return "", false
	}
	t, ok := s.titles[code]
	return t, ok
}

func (s *ReferenceSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// Codes returns the codes in load order.
func (s *ReferenceSet) Codes() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.order...)
}

// SortedCodes returns the codes in lexical order.
func (s *ReferenceSet) SortedCodes() []string {
	out := s.Codes()
	sort.Strings(out)
	return out
}

// FromRows builds a ReferenceSet from a loaded table. Rows with a missing or
// blank code are skipped.
func FromRows(rows *dataset.RowSet, opts Options) (*ReferenceSet, error) {
	opts = opts.withDefaults()
	codes, err := rows.Column(opts.CodeColumn)
	if err != nil {
		return nil, fmt.Errorf("code column: %w", err)
	}
	var titles []dataset.Value
	if rows.Has(opts.TitleColumn) {
		titles, _ = rows.Column(opts.TitleColumn)
	}

	set := NewReferenceSet()
	for i, c := range codes {
		code := strings.TrimSpace(c.String())
		if c.IsMissing() || code == "" {
			continue
		}
		title := ""
		if titles != nil && !titles[i].IsMissing() {
			title = strings.TrimSpace(titles[i].String())
		}
		set.Add(code, title)
	}
	return set, nil
}

// Load picks the reader by file extension: .xlsx and .xlsm are read as
// spreadsheets, anything else as CSV.
func Load(path string, opts Options) (*ReferenceSet, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return LoadXLSX(path, opts)
	default:
		return LoadCSV(path, opts)
	}
}

func LoadCSV(path string, opts Options) (*ReferenceSet, error) {
	opts = opts.withDefaults()
	rows, err := dataset.LoadCSV(path, opts.loadOptions())
	if err != nil {
		return nil, err
	}
	set, err := FromRows(rows, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return set, nil
}

// WriteCSV writes the set as a two-column code,title CSV in load order.
func WriteCSV(w io.Writer, set *ReferenceSet) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"code", "title"}); err != nil {
		return err
	}
	for _, code := range set.Codes() {
		title, _ := set.Title(code)
		if err := cw.Write([]string{code, title}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
