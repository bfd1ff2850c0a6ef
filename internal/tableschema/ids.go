package tableschema

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"occubench/internal/dataset"
)

// DefaultIDColumn is the record identifier column of benchmark files.
const DefaultIDColumn = "ID"

// IDSummary describes the identifier column of a row set.
type IDSummary struct {
	// Unique is true when no two rows share an identifier. Missing values
	// count as one shared identifier.
	Unique bool `json:"unique"`

	// Sequential is true when the identifiers, sorted, are exactly 1..N for
	// N rows. A missing or non-integer identifier breaks the sequence.
	Sequential bool `json:"sequential"`
}

func CheckIDs(rows *dataset.RowSet, column string) (IDSummary, error) {
	values, err := rows.Column(column)
	if err != nil {
		return IDSummary{}, err
	}

	seen := make(map[string]struct{}, len(values))
	ids := make([]int64, 0, len(values))
	integral := true
	for _, v := range values {
		seen[v.Key()] = struct{}{}
		if v.IsMissing() {
			continue
		}
		n, ok := toInt(v)
		if !ok {
			integral = false
			continue
		}
		ids = append(ids, n)
	}

	sum := IDSummary{Unique: len(seen) == len(values)}
	if !integral || len(ids) != len(values) {
		return sum, nil
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	sum.Sequential = true
	for i, n := range ids {
		if n != int64(i+1) {
			sum.Sequential = false
			break
		}
	}
	return sum, nil
}

// toInt truncates floats toward zero and parses integer text.
func toInt(v dataset.Value) (int64, bool) {
	if n, ok := v.AsInt(); ok {
		return n, true
	}
	if f, ok := v.AsFloat(); ok && !math.IsInf(f, 0) {
		return int64(f), true
	}
	if s, ok := v.AsString(); ok {
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		return n, err == nil
	}
	return 0, false
}

// Lines renders the summary as the two status lines of the validate command.
func (s IDSummary) Lines() []string {
	unique := "Duplicate IDs found."
	if s.Unique {
		unique = "All IDs are unique."
	}
	seq := "IDs are not sequential."
	if s.Sequential {
		seq = "IDs are sequential."
	}
	return []string{unique, seq}
}

func (s IDSummary) String() string {
	return fmt.Sprintf("%s\n%s", s.Lines()[0], s.Lines()[1])
}
