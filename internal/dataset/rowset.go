// Package dataset holds the in-memory tabular data the harness validates,
// codes, and scores: an ordered header plus ordered records of typed cells.
package dataset

import (
	"errors"
	"fmt"
)

// ErrUnknownColumn is returned when a column name is not in the header.
var ErrUnknownColumn = errors.New("unknown column")

// RowSet is an ordered collection of records sharing one header. Every
// record holds exactly one Value per header field.
type RowSet struct {
	header []string
	index  map[string]int
	rows   [][]Value
}

// New returns an empty RowSet with the given header. Header names must be
// unique.
func New(header []string) (*RowSet, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		if _, dup := idx[h]; dup {
			return nil, fmt.Errorf("duplicate column %q", h)
		}
		idx[h] = i
	}
	return &RowSet{
		header: append([]string(nil), header...),
		index:  idx,
	}, nil
}

// MustNew is New for fixed headers known to be valid.
func MustNew(header ...string) *RowSet {
	rs, err := New(header)
	if err != nil {
		panic(err)
	}
	return rs
}

// Append adds a record. The number of values must match the header.
func (r *RowSet) Append(values ...Value) error {
	if len(values) != len(r.header) {
		return fmt.Errorf("record has %d values, header has %d columns", len(values), len(r.header))
	}
	r.rows = append(r.rows, append([]Value(nil), values...))
	return nil
}

// Header returns a copy of the column names in order.
func (r *RowSet) Header() []string {
	return append([]string(nil), r.header...)
}

// Len returns the number of records.
func (r *RowSet) Len() int { return len(r.rows) }

// Has reports whether the header contains column.
func (r *RowSet) Has(column string) bool {
	_, ok := r.index[column]
	return ok
}

// Column returns a copy of all values of one column in record order.
func (r *RowSet) Column(column string) ([]Value, error) {
	pos, ok := r.index[column]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, column)
	}
	out := make([]Value, len(r.rows))
	for i, row := range r.rows {
		out[i] = row[pos]
	}
	return out, nil
}

// Value returns a single cell.
func (r *RowSet) Value(row int, column string) (Value, error) {
	pos, ok := r.index[column]
	if !ok {
		return Value{}, fmt.Errorf("%w: %q", ErrUnknownColumn, column)
	}
	if row < 0 || row >= len(r.rows) {
		return Value{}, fmt.Errorf("row %d out of range [0,%d)", row, len(r.rows))
	}
	return r.rows[row][pos], nil
}

// Record returns record i keyed by column name.
func (r *RowSet) Record(i int) map[string]Value {
	out := make(map[string]Value, len(r.header))
	for pos, h := range r.header {
		out[h] = r.rows[i][pos]
	}
	return out
}

// WithColumn returns a copy of r with one column appended (or replaced when
// it already exists). len(values) must equal r.Len().
func (r *RowSet) WithColumn(column string, values []Value) (*RowSet, error) {
	if len(values) != len(r.rows) {
		return nil, fmt.Errorf("column %q has %d values, row set has %d records", column, len(values), len(r.rows))
	}
	header := r.Header()
	pos, exists := r.index[column]
	if !exists {
		header = append(header, column)
	}
	out, err := New(header)
	if err != nil {
		return nil, err
	}
	for i, row := range r.rows {
		rec := append([]Value(nil), row...)
		if exists {
			rec[pos] = values[i]
		} else {
			rec = append(rec, values[i])
		}
		out.rows = append(out.rows, rec)
	}
	return out, nil
}
