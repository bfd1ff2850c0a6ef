// Package checks implements the benchmark data checklist: a fixed catalogue
// of column and value checks run against one row set, each appending a
// pass/fail Result to an ordered Report.
//
// Every check takes an OnFail value. With Continue a failing check only
// records its result; with Abort it also returns a *ValidationError and the
// Validator halts, so checks sequenced after it neither run nor append.
package checks

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"occubench/internal/dataset"
)

// Result names. Column-scoped checks append " - <column>" unless the
// column is missing.
const (
	TitleRequiredColumns = "Required Columns"
	TitleTextLength      = "Text Length"
	TitleMissingValues   = "Missing Values"
	TitleUniqueIntegers  = "Unique Integers"
	TitleLookupValues    = "Lookup Values"
	TitleAllowedValues   = "Allowed Values"
)

// MaxLookupCodeLength is the longest code lookup-values accepts.
const MaxLookupCodeLength = 4

// CodeSet is a read-only set of permissible codes.
type CodeSet interface {
	Contains(code string) bool
}

// Set is a CodeSet backed by a map.
type Set map[string]struct{}

func NewSet(values ...string) Set {
	s := make(Set, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

func (s Set) Contains(code string) bool {
	_, ok := s[code]
	return ok
}

// Validator runs checks against one row set. It is not safe for concurrent
// use; give each caller its own Validator.
type Validator struct {
	rows    *dataset.RowSet
	results []Result
	halted  *ValidationError
}

func NewValidator(rows *dataset.RowSet) *Validator {
	if rows == nil {
		rows = dataset.MustNew()
	}
	return &Validator{rows: rows}
}

// Halted returns the error that stopped the run, or nil.
func (v *Validator) Halted() error {
	if v.halted == nil {
		return nil
	}
	return v.halted
}

// Report returns the results recorded so far, in invocation order.
func (v *Validator) Report() Report {
	return Report{results: append([]Result(nil), v.results...)}
}

func (v *Validator) record(r Result, onFail OnFail) error {
	v.results = append(v.results, r)
	if onFail == Abort && !r.Success {
		v.halted = &ValidationError{Check: r.Check, Message: r.Message}
		return v.halted
	}
	return nil
}

// column returns the values of a column. When the column is absent it
// records the missing-column failure and returns ok=false with the error
// record produced.
func (v *Validator) column(title, column string, onFail OnFail) ([]dataset.Value, bool, error) {
	values, err := v.rows.Column(column)
	if err != nil {
		return nil, false, v.record(FailResult(title, column, fmt.Sprintf("Column '%s' missing", column)), onFail)
	}
	return values, true, nil
}

// CheckColumns verifies that every required column is present and, unless
// allowExtra is set, that no other column is.
func (v *Validator) CheckColumns(required []string, allowExtra bool, onFail OnFail) error {
	if v.halted != nil {
		return v.halted
	}

	present := make(map[string]struct{})
	for _, h := range v.rows.Header() {
		present[h] = struct{}{}
	}
	wanted := make(map[string]struct{}, len(required))
	for _, c := range required {
		wanted[c] = struct{}{}
	}

	var missing, extra []string
	for c := range wanted {
		if _, ok := present[c]; !ok {
			missing = append(missing, c)
		}
	}
	if !allowExtra {
		for c := range present {
			if _, ok := wanted[c]; !ok {
				extra = append(extra, c)
			}
		}
	}
	sort.Strings(missing)
	sort.Strings(extra)

	var parts []string
	if len(missing) > 0 {
		parts = append(parts, "Missing columns: "+strings.Join(missing, ", "))
	}
	if len(extra) > 0 {
		parts = append(parts, "Unexpected columns: "+strings.Join(extra, ", "))
	}
	if len(parts) > 0 {
		return v.record(FailResult(TitleRequiredColumns, "", strings.Join(parts, " | ")), onFail)
	}
	return v.record(PassResult(TitleRequiredColumns, ""), onFail)
}

// CheckTextLength fails when any non-missing value of column renders longer
// than maxLength characters.
func (v *Validator) CheckTextLength(column string, maxLength int, onFail OnFail) error {
	if v.halted != nil {
		return v.halted
	}
	values, ok, err := v.column(TitleTextLength, column, onFail)
	if !ok {
		return err
	}

	tooLong := 0
	for _, val := range values {
		if val.IsMissing() {
			continue
		}
		if utf8.RuneCountInString(val.String()) > maxLength {
			tooLong++
		}
	}

	name := scoped(TitleTextLength, column)
	if tooLong > 0 {
		return v.record(FailResult(name, column, fmt.Sprintf("%d values exceed max length %d", tooLong, maxLength)), onFail)
	}
	return v.record(PassResult(name, column), onFail)
}

// CheckMissingValues fails when column has any missing value.
func (v *Validator) CheckMissingValues(column string, onFail OnFail) error {
	if v.halted != nil {
		return v.halted
	}
	values, ok, err := v.column(TitleMissingValues, column, onFail)
	if !ok {
		return err
	}

	missing := 0
	for _, val := range values {
		if val.IsMissing() {
			missing++
		}
	}

	name := scoped(TitleMissingValues, column)
	if missing > 0 {
		return v.record(FailResult(name, column, fmt.Sprintf("%d missing values", missing)), onFail)
	}
	return v.record(PassResult(name, column), onFail)
}

// CheckUniqueIntegers fails when any value of column is not integer-typed or
// when any value repeats. Integer-typed means the loader stored the cell as
// an integer; numeric strings and floats do not qualify.
func (v *Validator) CheckUniqueIntegers(column string, onFail OnFail) error {
	if v.halted != nil {
		return v.halted
	}
	values, ok, err := v.column(TitleUniqueIntegers, column, onFail)
	if !ok {
		return err
	}

	nonInteger := false
	duplicate := false
	seen := make(map[string]struct{}, len(values))
	for _, val := range values {
		if val.Kind() != dataset.KindInt {
			nonInteger = true
		}
		k := val.Key()
		if _, dup := seen[k]; dup {
			duplicate = true
		}
		seen[k] = struct{}{}
	}

	var parts []string
	if nonInteger {
		parts = append(parts, "Non-integer values found")
	}
	if duplicate {
		parts = append(parts, "Duplicate values found")
	}

	name := scoped(TitleUniqueIntegers, column)
	if len(parts) > 0 {
		return v.record(FailResult(name, column, strings.Join(parts, "; ")), onFail)
	}
	return v.record(PassResult(name, column), onFail)
}

// CheckLookupValues fails when any value of column is not a string of at
// most MaxLookupCodeLength characters, or is not a member of codes. Both
// violation classes are reported independently.
func (v *Validator) CheckLookupValues(column string, codes CodeSet, onFail OnFail) error {
	if v.halted != nil {
		return v.halted
	}
	values, ok, err := v.column(TitleLookupValues, column, onFail)
	if !ok {
		return err
	}

	badLength := false
	var invalid distinctValues
	for _, val := range values {
		s, isString := val.AsString()
		if !isString || utf8.RuneCountInString(s) > MaxLookupCodeLength {
			badLength = true
		}
		if !isString || codes == nil || !codes.Contains(s) {
			invalid.add(val)
		}
	}

	var parts []string
	if badLength {
		parts = append(parts, "Invalid digit length or non-integer values")
	}
	if invalid.len() > 0 {
		parts = append(parts, "Invalid lookup values: "+invalid.String())
	}

	name := scoped(TitleLookupValues, column)
	if len(parts) > 0 {
		return v.record(FailResult(name, column, strings.Join(parts, "; ")), onFail)
	}
	return v.record(PassResult(name, column), onFail)
}

// CheckAllowedValues fails when any non-missing value of column is not in
// allowed.
func (v *Validator) CheckAllowedValues(column string, allowed []string, onFail OnFail) error {
	if v.halted != nil {
		return v.halted
	}
	values, ok, err := v.column(TitleAllowedValues, column, onFail)
	if !ok {
		return err
	}

	set := NewSet(allowed...)
	var invalid distinctValues
	for _, val := range values {
		if val.IsMissing() {
			continue
		}
		s, isString := val.AsString()
		if !isString || !set.Contains(s) {
			invalid.add(val)
		}
	}

	name := scoped(TitleAllowedValues, column)
	if invalid.len() > 0 {
		return v.record(FailResult(name, column, "Invalid values: "+invalid.String()), onFail)
	}
	return v.record(PassResult(name, column), onFail)
}

func scoped(title, column string) string {
	return title + " - " + column
}
