package tableschema

import (
	"fmt"
	"sort"
	"strings"
)

// Error types.
const (
	ErrMissingLabel   = "missing-label"
	ErrExtraLabel     = "extra-label"
	ErrIncorrectLabel = "incorrect-label"
	ErrType           = "type-error"
	ErrConstraint     = "constraint-error"
	ErrUnique         = "unique-error"
	ErrPrimaryKey     = "primary-key"
)

// Error is one validation problem. Row is the 1-based line number in the
// file (the header is row 1); it is 0 for header errors.
type Error struct {
	Type    string `json:"type"`
	Row     int    `json:"row,omitempty"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (e Error) String() string {
	switch {
	case e.Row > 0 && e.Field != "":
		return fmt.Sprintf("[row %d, field %s] %s: %s", e.Row, e.Field, e.Type, e.Message)
	case e.Row > 0:
		return fmt.Sprintf("[row %d] %s: %s", e.Row, e.Type, e.Message)
	default:
		return fmt.Sprintf("[header] %s: %s", e.Type, e.Message)
	}
}

type Report struct {
	Path      string  `json:"path,omitempty"`
	Fields    int     `json:"fields"`
	Rows      int     `json:"rows"`
	Errors    []Error `json:"errors"`
	Truncated bool    `json:"truncated,omitempty"`

	limit int
}

func (r *Report) add(e Error) {
	if r.Truncated {
		return
	}
	if r.limit > 0 && len(r.Errors) >= r.limit {
		r.Truncated = true
		return
	}
	r.Errors = append(r.Errors, e)
}

func (r *Report) Valid() bool {
	return len(r.Errors) == 0
}

// Counts returns the number of errors per type.
func (r *Report) Counts() map[string]int {
	out := make(map[string]int)
	for _, e := range r.Errors {
		out[e.Type]++
	}
	return out
}

func (r *Report) String() string {
	var b strings.Builder
	name := r.Path
	if name == "" {
		name = "<data>"
	}

	status := "valid"
	if !r.Valid() {
		status = "invalid"
	}
	fmt.Fprintf(&b, "%s: %s (%d fields, %d rows", status, name, r.Fields, r.Rows)
	if !r.Valid() {
		fmt.Fprintf(&b, ", %d errors", len(r.Errors))
	}
	b.WriteString(")\n")
	if r.Valid() {
		return b.String()
	}

	counts := r.Counts()
	types := make([]string, 0, len(counts))
	for t := range counts {
		types = append(types, t)
	}
	sort.Strings(types)
	b.WriteString("\nSummary\n")
	for _, t := range types {
		fmt.Fprintf(&b, "  %-18s %d\n", t, counts[t])
	}

	b.WriteString("\nErrors\n")
	for _, e := range r.Errors {
		fmt.Fprintf(&b, "  %s\n", e)
	}
	if r.Truncated {
		fmt.Fprintf(&b, "  ... stopped after %d errors\n", r.limit)
	}
	return b.String()
}
