package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// DefaultNAValues are the cell texts read as missing unless a column is
// declared raw.
var DefaultNAValues = []string{
	"", "#N/A", "#N/A N/A", "#NA", "-1.#IND", "-1.#QNAN", "-NaN", "-nan",
	"1.#IND", "1.#QNAN", "<NA>", "N/A", "NA", "NULL", "NaN", "None",
	"n/a", "nan", "null",
}

type LoadOptions struct {
	// StringColumns are never coerced to numbers. Code-like fields such as
	// "0110" must be declared here or they lose their leading zeros.
	StringColumns []string

	// AllStrings declares every column a string column.
	AllStrings bool

	// RawColumns keep their text as-is: no NA substitution, so an empty cell
	// is the empty string and "NA" is a code, not a missing value.
	RawColumns []string

	// NAValues overrides DefaultNAValues when non-nil.
	NAValues []string

	// Comma is the field delimiter (default ',').
	Comma rune
}

// LoadCSV reads a delimited file with a header row.
func LoadCSV(path string, opts LoadOptions) (*RowSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	rs, err := ReadCSV(f, opts)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return rs, nil
}

// ReadCSV reads delimited data with a header row from r.
func ReadCSV(r io.Reader, opts LoadOptions) (*RowSet, error) {
	cr := csv.NewReader(r)
	if opts.Comma != 0 {
		cr.Comma = opts.Comma
	}

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty file: missing header row")
		}
		return nil, fmt.Errorf("header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	return FromRecords(header, records, opts)
}

// FromRecords builds a RowSet from raw text cells, applying NA substitution
// and per-column type inference. A column becomes integer when every
// non-missing cell parses as an integer, float when every non-missing cell
// parses as a number, and string otherwise.
//
// Blank header cells are named "Unnamed: <index>" and repeated names get
// ".1", ".2", ... suffixes, so only the columns a caller looks up need
// distinct names.
func FromRecords(header []string, records [][]string, opts LoadOptions) (*RowSet, error) {
	header = uniqueHeader(header)
	rs, err := New(header)
	if err != nil {
		return nil, err
	}

	naValues := opts.NAValues
	if naValues == nil {
		naValues = DefaultNAValues
	}
	na := toSet(naValues)
	stringCols := toSet(opts.StringColumns)
	rawCols := toSet(opts.RawColumns)

	for i, rec := range records {
		if len(rec) != len(header) {
			return nil, fmt.Errorf("record %d has %d fields, header has %d", i+1, len(rec), len(header))
		}
	}

	columns := make([][]Value, len(header))
	for pos, name := range header {
		_, raw := rawCols[name]
		_, isString := stringCols[name]
		columns[pos] = parseColumn(records, pos, raw, opts.AllStrings || isString, na)
	}

	rs.rows = make([][]Value, len(records))
	for i := range records {
		row := make([]Value, len(header))
		for pos := range header {
			row[pos] = columns[pos][i]
		}
		rs.rows[i] = row
	}
	return rs, nil
}

func parseColumn(records [][]string, pos int, raw, asString bool, na map[string]struct{}) []Value {
	out := make([]Value, len(records))
	missing := make([]bool, len(records))
	for i, rec := range records {
		cell := rec[pos]
		if !raw {
			if _, isNA := na[cell]; isNA {
				missing[i] = true
			}
		}
	}

	kind := KindString
	if !asString {
		kind = inferKind(records, pos, missing)
	}

	for i, rec := range records {
		if missing[i] {
			out[i] = Missing()
			continue
		}
		cell := rec[pos]
		switch kind {
		case KindInt:
			n, _ := strconv.ParseInt(strings.TrimSpace(cell), 10, 64)
			out[i] = Int(n)
		case KindFloat:
			f, _ := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			out[i] = Float(f)
		default:
			out[i] = Str(cell)
		}
	}
	return out
}

func inferKind(records [][]string, pos int, missing []bool) Kind {
	allInt, allFloat, seen := true, true, false
	for i, rec := range records {
		if missing[i] {
			continue
		}
		seen = true
		cell := strings.TrimSpace(rec[pos])
		if _, err := strconv.ParseInt(cell, 10, 64); err != nil {
			allInt = false
		}
		if _, err := strconv.ParseFloat(cell, 64); err != nil {
			allFloat = false
			break
		}
	}
	switch {
	case !seen:
		return KindFloat
	case allInt:
		return KindInt
	case allFloat:
		return KindFloat
	default:
		return KindString
	}
}

// WriteCSV writes rs as a delimited file with a header row. Missing values
// are written as empty cells.
func WriteCSV(w io.Writer, rs *RowSet) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(rs.header); err != nil {
		return err
	}
	rec := make([]string, len(rs.header))
	for _, row := range rs.rows {
		for pos, v := range row {
			if v.IsMissing() {
				rec[pos] = ""
				continue
			}
			rec[pos] = v.String()
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func uniqueHeader(header []string) []string {
	out := make([]string, len(header))
	taken := make(map[string]bool, len(header))
	for i, h := range header {
		if strings.TrimSpace(h) == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		out[i] = h
	}
	for _, h := range out {
		taken[h] = true
	}
	seen := make(map[string]int, len(header))
	for i, h := range out {
		n := seen[h]
		seen[h] = n + 1
		if n == 0 {
			continue
		}
		name := fmt.Sprintf("%s.%d", h, n)
		for taken[name] {
			n++
			name = fmt.Sprintf("%s.%d", h, n)
		}
		seen[h] = n + 1
		taken[name] = true
		out[i] = name
	}
	return out
}

func toSet(values []string) map[string]struct{} {
	out := make(map[string]struct{}, len(values))
	for _, v := range values {
		out[v] = struct{}{}
	}
	return out
}
