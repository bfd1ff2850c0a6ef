package tableschema

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"occubench/internal/dataset"

	"github.com/kaptinlin/jsonschema"
)

// DefaultLimitErrors caps the number of errors collected per file.
const DefaultLimitErrors = 1000

type Options struct {
	// LimitErrors stops validation after this many errors (default
	// DefaultLimitErrors).
	LimitErrors int
}

type fieldCheck struct {
	field  Field
	pos    int
	schema *jsonschema.Schema
}

// ValidateFile validates the delimited file at path against s.
func ValidateFile(s *Schema, path string, opts Options) (*Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	rep, err := Validate(s, f, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	rep.Path = path
	return rep, nil
}

// Validate reads delimited data with a header row from r and checks it
// against s. Read and schema-compilation failures are returned as errors;
// data problems are collected in the Report.
func Validate(s *Schema, r io.Reader, opts Options) (*Report, error) {
	if s == nil {
		return nil, fmt.Errorf("nil schema")
	}
	if opts.LimitErrors <= 0 {
		opts.LimitErrors = DefaultLimitErrors
	}

	rows, err := dataset.ReadCSV(r, dataset.LoadOptions{AllStrings: true, NAValues: s.MissingValues})
	if err != nil {
		return nil, fmt.Errorf("read data: %w", err)
	}

	rep := &Report{Fields: len(s.Fields), Rows: rows.Len(), limit: opts.LimitErrors}
	checks, err := bindFields(s, rows.Header(), rep)
	if err != nil {
		return nil, err
	}

	unique := make(map[string]map[string]int)
	for _, fc := range checks {
		if fc.field.Constraints.Unique {
			unique[fc.field.Name] = make(map[string]int)
		}
	}
	var pkSeen map[string]int
	pkPositions, pkComplete := primaryKeyPositions(s, rows.Header())
	if pkComplete && len(pkPositions) > 0 {
		pkSeen = make(map[string]int)
	}

	header := rows.Header()
	for i := 0; i < rows.Len() && !rep.Truncated; i++ {
		rowNumber := i + 2
		for _, fc := range checks {
			cell, _ := rows.Value(i, header[fc.pos])
			checkCell(fc, cell, rowNumber, unique[fc.field.Name], rep)
		}
		if pkSeen != nil {
			checkPrimaryKey(rows, i, rowNumber, header, pkPositions, pkSeen, s.PrimaryKey, rep)
		}
	}
	return rep, nil
}

// bindFields matches schema fields to header columns by name, reporting
// label errors for missing, extra and misplaced columns.
func bindFields(s *Schema, header []string, rep *Report) ([]fieldCheck, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[h] = i
	}
	declared := make(map[string]struct{}, len(s.Fields))

	var checks []fieldCheck
	for i, f := range s.Fields {
		declared[f.Name] = struct{}{}
		pos, ok := index[f.Name]
		if !ok {
			rep.add(Error{Type: ErrMissingLabel, Field: f.Name, Message: fmt.Sprintf("column %q is declared but not present", f.Name)})
			continue
		}
		if pos != i {
			rep.add(Error{Type: ErrIncorrectLabel, Field: f.Name, Message: fmt.Sprintf("column %q is at position %d, declared at %d", f.Name, pos+1, i+1)})
		}
		js, err := fieldSchema(f)
		if err != nil {
			return nil, err
		}
		compiled, err := compile(js)
		if err != nil {
			return nil, fmt.Errorf("field %q: compile constraints: %w", f.Name, err)
		}
		checks = append(checks, fieldCheck{field: f, pos: pos, schema: compiled})
	}
	for _, h := range header {
		if _, ok := declared[h]; !ok {
			rep.add(Error{Type: ErrExtraLabel, Field: h, Message: fmt.Sprintf("column %q is not declared", h)})
		}
	}
	return checks, nil
}

func primaryKeyPositions(s *Schema, header []string) ([]int, bool) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[h] = i
	}
	out := make([]int, 0, len(s.PrimaryKey))
	for _, k := range s.PrimaryKey {
		pos, ok := index[k]
		if !ok {
			return nil, false
		}
		out = append(out, pos)
	}
	return out, true
}

func checkCell(fc fieldCheck, cell dataset.Value, rowNumber int, seen map[string]int, rep *Report) {
	f := fc.field
	if cell.IsMissing() {
		if f.Constraints.Required {
			rep.add(Error{Type: ErrConstraint, Row: rowNumber, Field: f.Name, Message: "constraint \"required\" failed: value is missing"})
		}
		return
	}

	text, _ := cell.AsString()
	value, err := cast(f, text)
	if err != nil {
		rep.add(Error{Type: ErrType, Row: rowNumber, Field: f.Name, Message: fmt.Sprintf("value %q is not of type %q", text, f.Type)})
		return
	}

	// NaN and infinities have no JSON form.
	data, err := json.Marshal(value)
	if err != nil {
		rep.add(Error{Type: ErrType, Row: rowNumber, Field: f.Name, Message: fmt.Sprintf("value %q is not of type %q", text, f.Type)})
		return
	}
	if result := fc.schema.ValidateJSON(data); !result.IsValid() {
		rep.add(Error{Type: ErrConstraint, Row: rowNumber, Field: f.Name, Message: fmt.Sprintf("value %q: %s", text, formatErrors(result))})
		return
	}

	if seen != nil {
		key := string(data)
		if first, dup := seen[key]; dup {
			rep.add(Error{Type: ErrUnique, Row: rowNumber, Field: f.Name, Message: fmt.Sprintf("value %q duplicates row %d", text, first)})
			return
		}
		seen[key] = rowNumber
	}
}

func checkPrimaryKey(rows *dataset.RowSet, i, rowNumber int, header []string, positions []int, seen map[string]int, names Keys, rep *Report) {
	parts := make([]string, len(positions))
	for j, pos := range positions {
		v, _ := rows.Value(i, header[pos])
		if v.IsMissing() {
			return
		}
		parts[j] = v.String()
	}
	key := strings.Join(parts, "\x1f")
	if first, dup := seen[key]; dup {
		rep.add(Error{
			Type:    ErrPrimaryKey,
			Row:     rowNumber,
			Field:   strings.Join(names, ","),
			Message: fmt.Sprintf("primary key (%s) duplicates row %d", strings.Join(parts, ", "), first),
		})
		return
	}
	seen[key] = rowNumber
}

// cast converts cell text to the JSON value of the field type.
func cast(f Field, text string) (any, error) {
	switch f.Type {
	case TypeInteger:
		return strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	case TypeNumber:
		return strconv.ParseFloat(strings.TrimSpace(text), 64)
	case TypeBoolean:
		for _, t := range f.TrueValues {
			if text == t {
				return true, nil
			}
		}
		for _, v := range f.FalseValues {
			if text == v {
				return false, nil
			}
		}
		return nil, fmt.Errorf("not a boolean")
	case TypeDate:
		layout := "2006-01-02"
		if f.Format != "" && f.Format != "default" && f.Format != "any" {
			layout = strftimeLayout(f.Format)
		}
		d, err := time.Parse(layout, text)
		if err != nil {
			return nil, err
		}
		return d.Format("2006-01-02"), nil
	default:
		return text, nil
	}
}

// strftimeLayout translates the common strftime directives of Table Schema
// date formats into a Go layout.
func strftimeLayout(format string) string {
	r := strings.NewReplacer("%Y", "2006", "%m", "01", "%d", "02", "%y", "06", "%b", "Jan", "%B", "January")
	return r.Replace(format)
}

// fieldSchema builds the JSON Schema a cast cell value must satisfy.
func fieldSchema(f Field) ([]byte, error) {
	m := map[string]any{}
	switch f.Type {
	case TypeInteger:
		m["type"] = "integer"
	case TypeNumber:
		m["type"] = "number"
	case TypeBoolean:
		m["type"] = "boolean"
	case TypeDate:
		m["type"] = "string"
		m["format"] = "date"
	default:
		m["type"] = "string"
	}

	c := f.Constraints
	if c.MinLength != nil {
		m["minLength"] = *c.MinLength
	}
	if c.MaxLength != nil {
		m["maxLength"] = *c.MaxLength
	}
	if c.Minimum != nil {
		m["minimum"] = *c.Minimum
	}
	if c.Maximum != nil {
		m["maximum"] = *c.Maximum
	}
	if c.Pattern != "" {
		m["pattern"] = "^(?:" + c.Pattern + ")$"
	}
	if len(c.Enum) > 0 {
		m["enum"] = c.Enum
	}

	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("field %q: %w", f.Name, err)
	}
	return data, nil
}
