package checks

import (
	"fmt"
	"strings"

	"occubench/internal/dataset"
)

// maxListedValues bounds how many distinct offending values a message
// spells out.
const maxListedValues = 20

// distinctValues collects values in first-seen order without repeats.
type distinctValues struct {
	seen   map[string]struct{}
	values []dataset.Value
}

func (d *distinctValues) add(v dataset.Value) {
	if d.seen == nil {
		d.seen = make(map[string]struct{})
	}
	k := v.Key()
	if _, ok := d.seen[k]; ok {
		return
	}
	d.seen[k] = struct{}{}
	d.values = append(d.values, v)
}

func (d *distinctValues) len() int { return len(d.values) }

// String renders the values as a list: strings quoted, numbers bare,
// missing as nan.
func (d *distinctValues) String() string {
	shown := d.values
	if len(shown) > maxListedValues {
		shown = shown[:maxListedValues]
	}
	parts := make([]string, 0, len(shown)+1)
	for _, v := range shown {
		parts = append(parts, formatValue(v))
	}
	if rest := len(d.values) - len(shown); rest > 0 {
		parts = append(parts, fmt.Sprintf("... (+%d more)", rest))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func formatValue(v dataset.Value) string {
	if s, ok := v.AsString(); ok {
		return "'" + strings.ReplaceAll(s, "'", `\'`) + "'"
	}
	return v.String()
}
