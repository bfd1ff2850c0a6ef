package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"occubench/internal/checks"

	"github.com/goccy/go-yaml"
)

// ChecklistVersion is the only checklist format version understood.
const ChecklistVersion = 1

// Checklist is the YAML document that drives `check` and `run`.
//
//	version: 1
//	data:
//	  string_columns: [isco_code]
//	scheme:
//	  source: github:owner/repo/isco08.xlsx@main
//	checks:
//	  - kind: required-columns
//	    columns: [ID, job_title, isco_code]
//	    on_fail: error
//	  - kind: lookup-values
//	    column: isco_code
type Checklist struct {
	Version int            `yaml:"version"`
	Data    ChecklistData  `yaml:"data"`
	Scheme  SchemeSettings `yaml:"scheme"`
	Checks  []CheckEntry   `yaml:"checks"`
}

type ChecklistData struct {
	StringColumns []string `yaml:"string_columns"`
	IDColumn      string   `yaml:"id_column"`
}

type SchemeSettings struct {
	Source      string `yaml:"source"`
	Sheet       string `yaml:"sheet"`
	CodeColumn  string `yaml:"code_column"`
	TitleColumn string `yaml:"title_column"`
}

// CheckEntry is one check invocation. Which fields apply depends on Kind;
// see `occubench checks show <kind>`.
type CheckEntry struct {
	Kind       string   `yaml:"kind"`
	Column     string   `yaml:"column"`
	Columns    []string `yaml:"columns"`
	AllowExtra bool     `yaml:"allow_extra"`
	MaxLength  *int     `yaml:"max_length"`
	Values     []any    `yaml:"values"`
	OnFail     string   `yaml:"on_fail"`
}

// LoadChecklist reads and normalises a checklist file.
func LoadChecklist(path string) (Checklist, error) {
	trimmedPath := strings.TrimSpace(path)
	if trimmedPath == "" {
		return Checklist{}, fmt.Errorf("checklist path is required")
	}

	content, err := os.ReadFile(trimmedPath)
	if err != nil {
		return Checklist{}, fmt.Errorf("read checklist: %w", err)
	}
	return ParseChecklist(content)
}

// ParseChecklist decodes a checklist document. Unknown keys are rejected so
// that a misspelt option does not silently fall back to its default.
func ParseChecklist(content []byte) (Checklist, error) {
	var checklist Checklist
	if err := yaml.UnmarshalWithOptions(content, &checklist, yaml.Strict()); err != nil {
		return Checklist{}, fmt.Errorf("parse checklist: %w", err)
	}
	checklist.normalize()
	if err := checklist.validate(); err != nil {
		return Checklist{}, err
	}
	return checklist, nil
}

func (c *Checklist) normalize() {
	if c.Version == 0 {
		c.Version = ChecklistVersion
	}
	c.Data.StringColumns = splitCommaList(c.Data.StringColumns)
	c.Data.IDColumn = strings.TrimSpace(c.Data.IDColumn)
	c.Scheme.Source = strings.TrimSpace(c.Scheme.Source)
	c.Scheme.Sheet = strings.TrimSpace(c.Scheme.Sheet)
	c.Scheme.CodeColumn = strings.TrimSpace(c.Scheme.CodeColumn)
	c.Scheme.TitleColumn = strings.TrimSpace(c.Scheme.TitleColumn)
	for i := range c.Checks {
		e := &c.Checks[i]
		e.Kind = normalizeEnumValue(e.Kind)
		e.Column = strings.TrimSpace(e.Column)
		e.Columns = splitCommaList(e.Columns)
		e.OnFail = normalizeEnumValue(e.OnFail)
	}
}

func (c *Checklist) validate() error {
	if c.Version != ChecklistVersion {
		return fmt.Errorf("unsupported checklist version %d (must be %d)", c.Version, ChecklistVersion)
	}
	if len(c.Checks) == 0 {
		return fmt.Errorf("checklist has no checks")
	}
	for i, e := range c.Checks {
		if e.Kind == "" {
			return fmt.Errorf("checks[%d]: kind is required", i)
		}
		if _, err := checks.ParseOnFail(e.OnFail); err != nil {
			return fmt.Errorf("checks[%d] (%s): %w", i, e.Kind, err)
		}
		if _, err := e.values(); err != nil {
			return fmt.Errorf("checks[%d] (%s): %w", i, e.Kind, err)
		}
	}
	return nil
}

// StringColumns returns the columns that must be read as text: the declared
// ones plus every column a lookup-values or allowed-values check compares
// against string sets.
func (c Checklist) StringColumns() []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(col string) {
		if col == "" {
			return
		}
		if _, dup := seen[col]; dup {
			return
		}
		seen[col] = struct{}{}
		out = append(out, col)
	}
	for _, col := range c.Data.StringColumns {
		add(col)
	}
	for _, e := range c.Checks {
		if e.Kind == checks.KindLookupValues || e.Kind == checks.KindAllowedValues {
			add(e.Column)
		}
	}
	return out
}

// NeedsScheme reports whether any entry compares against the reference
// scheme.
func (c Checklist) NeedsScheme() bool {
	for _, e := range c.Checks {
		if e.Kind == checks.KindLookupValues {
			return true
		}
	}
	return false
}

// Params converts the entry to check parameters. codes is passed through
// for lookup-values entries.
func (e CheckEntry) Params(codes checks.CodeSet) (checks.Params, error) {
	onFail, err := checks.ParseOnFail(e.OnFail)
	if err != nil {
		return checks.Params{}, err
	}
	values, err := e.values()
	if err != nil {
		return checks.Params{}, err
	}
	return checks.Params{
		Column:     e.Column,
		Columns:    e.Columns,
		AllowExtra: e.AllowExtra,
		MaxLength:  e.MaxLength,
		Values:     values,
		Codes:      codes,
		OnFail:     onFail,
	}, nil
}

// Target names what the entry inspects, for plans and logs.
func (e CheckEntry) Target() string {
	if e.Column != "" {
		return e.Column
	}
	return strings.Join(e.Columns, ", ")
}

// values renders scalar YAML values as the text they would have in a CSV
// cell, so `values: [1, 2]` matches the cells "1" and "2".
func (e CheckEntry) values() ([]string, error) {
	if len(e.Values) == 0 {
		return nil, nil
	}
	out := make([]string, 0, len(e.Values))
	for i, raw := range e.Values {
		switch v := raw.(type) {
		case string:
			out = append(out, v)
		case bool:
			out = append(out, strconv.FormatBool(v))
		case int:
			out = append(out, strconv.Itoa(v))
		case int64:
			out = append(out, strconv.FormatInt(v, 10))
		case uint64:
			out = append(out, strconv.FormatUint(v, 10))
		case float64:
			out = append(out, strconv.FormatFloat(v, 'f', -1, 64))
		default:
			return nil, fmt.Errorf("values[%d]: expected a scalar, got %T", i, raw)
		}
	}
	return out, nil
}
