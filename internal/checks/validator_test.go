package checks

import (
	"errors"
	"strings"
	"testing"

	"occubench/internal/dataset"

	"github.com/google/go-cmp/cmp"
)

func newRows(t *testing.T, header []string, rows ...[]dataset.Value) *dataset.RowSet {
	t.Helper()
	rs, err := dataset.New(header)
	if err != nil {
		t.Fatalf("dataset.New: %v", err)
	}
	for _, r := range rows {
		if err := rs.Append(r...); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	return rs
}

func lastResult(t *testing.T, v *Validator) Result {
	t.Helper()
	res := v.Report().Results()
	if len(res) == 0 {
		t.Fatal("expected at least one result")
	}
	return res[len(res)-1]
}

func TestCheckColumns(t *testing.T) {
	rows := newRows(t, []string{"ID", "job_title", "notes"})

	tests := []struct {
		name        string
		required    []string
		allowExtra  bool
		wantSuccess bool
		wantMessage string
	}{
		{
			name:        "exact match",
			required:    []string{"notes", "ID", "job_title"},
			wantSuccess: true,
			wantMessage: "OK",
		},
		{
			name:        "missing and unexpected",
			required:    []string{"ID", "job_title", "isco_code", "coder"},
			wantSuccess: false,
			wantMessage: "Missing columns: coder, isco_code | Unexpected columns: notes",
		},
		{
			name:        "extra allowed",
			required:    []string{"ID", "job_title"},
			allowExtra:  true,
			wantSuccess: true,
			wantMessage: "OK",
		},
		{
			name:        "extra not allowed",
			required:    []string{"ID", "job_title"},
			wantSuccess: false,
			wantMessage: "Unexpected columns: notes",
		},
		{
			name:        "missing with extra allowed",
			required:    []string{"ID", "isco_code"},
			allowExtra:  true,
			wantSuccess: false,
			wantMessage: "Missing columns: isco_code",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewValidator(rows)
			if err := v.CheckColumns(tt.required, tt.allowExtra, Continue); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got := lastResult(t, v)
			if got.Check != TitleRequiredColumns {
				t.Errorf("expected check %q, got %q", TitleRequiredColumns, got.Check)
			}
			if got.Success != tt.wantSuccess {
				t.Errorf("expected success %v, got %v", tt.wantSuccess, got.Success)
			}
			if got.Message != tt.wantMessage {
				t.Errorf("expected message %q, got %q", tt.wantMessage, got.Message)
			}
		})
	}
}

func TestCheckTextLength(t *testing.T) {
	rows := newRows(t, []string{"title", "n"},
		[]dataset.Value{dataset.Str("Baker"), dataset.Int(12345)},
		[]dataset.Value{dataset.Str("Lorry driver"), dataset.Int(1)},
		[]dataset.Value{dataset.Missing(), dataset.Int(12)},
		[]dataset.Value{dataset.Str("Bäckerin"), dataset.Int(7)},
	)

	tests := []struct {
		name        string
		column      string
		max         int
		wantSuccess bool
		wantMessage string
	}{
		{"all within", "title", 12, true, "OK"},
		{"one too long", "title", 8, false, "1 values exceed max length 8"},
		{"counts runes not bytes", "title", 8, false, "1 values exceed max length 8"},
		{"two too long", "title", 5, false, "2 values exceed max length 5"},
		{"numbers measured as text", "n", 2, false, "1 values exceed max length 2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewValidator(rows)
			if err := v.CheckTextLength(tt.column, tt.max, Continue); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got := lastResult(t, v)
			if got.Check != "Text Length - "+tt.column {
				t.Errorf("unexpected check name %q", got.Check)
			}
			if got.Success != tt.wantSuccess || got.Message != tt.wantMessage {
				t.Errorf("expected (%v, %q), got (%v, %q)", tt.wantSuccess, tt.wantMessage, got.Success, got.Message)
			}
		})
	}
}

func TestCheckMissingValues(t *testing.T) {
	rows := newRows(t, []string{"a", "b"},
		[]dataset.Value{dataset.Str("x"), dataset.Missing()},
		[]dataset.Value{dataset.Str("y"), dataset.Missing()},
	)

	v := NewValidator(rows)
	_ = v.CheckMissingValues("a", Continue)
	_ = v.CheckMissingValues("b", Continue)

	want := []Result{
		{Check: "Missing Values - a", Column: "a", Success: true, Message: "OK"},
		{Check: "Missing Values - b", Column: "b", Success: false, Message: "2 missing values"},
	}
	if diff := cmp.Diff(want, v.Report().Results()); diff != "" {
		t.Errorf("results mismatch (-want +got):\n%s", diff)
	}
}

func TestCheckUniqueIntegers(t *testing.T) {
	tests := []struct {
		name        string
		values      []dataset.Value
		wantSuccess bool
		wantMessage string
	}{
		{
			name:        "unique integers",
			values:      []dataset.Value{dataset.Int(1), dataset.Int(2), dataset.Int(3)},
			wantSuccess: true,
			wantMessage: "OK",
		},
		{
			name:        "duplicate",
			values:      []dataset.Value{dataset.Int(1), dataset.Int(1), dataset.Int(3)},
			wantMessage: "Duplicate values found",
		},
		{
			name:        "non-integer",
			values:      []dataset.Value{dataset.Int(1), dataset.Str("2"), dataset.Int(3)},
			wantMessage: "Non-integer values found",
		},
		{
			name:        "duplicate and non-integer",
			values:      []dataset.Value{dataset.Int(1), dataset.Int(1), dataset.Str("x")},
			wantMessage: "Non-integer values found; Duplicate values found",
		},
		{
			name:        "float is not an integer",
			values:      []dataset.Value{dataset.Float(1), dataset.Int(2)},
			wantMessage: "Non-integer values found",
		},
		{
			name:        "repeated missing counts as duplicate",
			values:      []dataset.Value{dataset.Missing(), dataset.Missing()},
			wantMessage: "Non-integer values found; Duplicate values found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rows [][]dataset.Value
			for _, val := range tt.values {
				rows = append(rows, []dataset.Value{val})
			}
			v := NewValidator(newRows(t, []string{"ID"}, rows...))
			if err := v.CheckUniqueIntegers("ID", Continue); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got := lastResult(t, v)
			if got.Success != tt.wantSuccess || got.Message != tt.wantMessage {
				t.Errorf("expected (%v, %q), got (%v, %q)", tt.wantSuccess, tt.wantMessage, got.Success, got.Message)
			}
		})
	}
}

func TestCheckLookupValues(t *testing.T) {
	codes := NewSet("0110", "2211", "7512")

	tests := []struct {
		name        string
		values      []dataset.Value
		wantSuccess bool
		wantMessage string
	}{
		{
			name:        "all valid",
			values:      []dataset.Value{dataset.Str("0110"), dataset.Str("2211")},
			wantSuccess: true,
			wantMessage: "OK",
		},
		{
			name:        "too long and not in scheme",
			values:      []dataset.Value{dataset.Str("22110"), dataset.Str("9999"), dataset.Str("0110"), dataset.Str("9999")},
			wantMessage: "Invalid digit length or non-integer values; Invalid lookup values: ['22110', '9999']",
		},
		{
			name:        "short but unknown",
			values:      []dataset.Value{dataset.Str("12")},
			wantMessage: "Invalid lookup values: ['12']",
		},
		{
			name:        "integer typed code",
			values:      []dataset.Value{dataset.Int(2211)},
			wantMessage: "Invalid digit length or non-integer values; Invalid lookup values: [2211]",
		},
		{
			name:        "missing code",
			values:      []dataset.Value{dataset.Str("7512"), dataset.Missing()},
			wantMessage: "Invalid digit length or non-integer values; Invalid lookup values: [nan]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rows [][]dataset.Value
			for _, val := range tt.values {
				rows = append(rows, []dataset.Value{val})
			}
			v := NewValidator(newRows(t, []string{"isco_code"}, rows...))
			if err := v.CheckLookupValues("isco_code", codes, Continue); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got := lastResult(t, v)
			if got.Success != tt.wantSuccess || got.Message != tt.wantMessage {
				t.Errorf("expected (%v, %q), got (%v, %q)", tt.wantSuccess, tt.wantMessage, got.Success, got.Message)
			}
		})
	}
}

func TestCheckLookupValues_TruncatesLongLists(t *testing.T) {
	var rows [][]dataset.Value
	for i := 0; i < maxListedValues+5; i++ {
		rows = append(rows, []dataset.Value{dataset.Int(int64(i))})
	}
	v := NewValidator(newRows(t, []string{"code"}, rows...))
	_ = v.CheckLookupValues("code", NewSet(), Continue)

	got := lastResult(t, v)
	if !strings.Contains(got.Message, "... (+5 more)]") {
		t.Errorf("expected truncated listing, got %q", got.Message)
	}
}

func TestCheckAllowedValues(t *testing.T) {
	rows := newRows(t, []string{"source"},
		[]dataset.Value{dataset.Str("survey")},
		[]dataset.Value{dataset.Missing()},
		[]dataset.Value{dataset.Str("register")},
		[]dataset.Value{dataset.Str("web")},
		[]dataset.Value{dataset.Str("register")},
	)

	v := NewValidator(rows)
	_ = v.CheckAllowedValues("source", []string{"survey", "register", "web"}, Continue)
	_ = v.CheckAllowedValues("source", []string{"survey"}, Continue)

	want := []Result{
		{Check: "Allowed Values - source", Column: "source", Success: true, Message: "OK"},
		{Check: "Allowed Values - source", Column: "source", Success: false, Message: "Invalid values: ['register', 'web']"},
	}
	if diff := cmp.Diff(want, v.Report().Results()); diff != "" {
		t.Errorf("results mismatch (-want +got):\n%s", diff)
	}
}

func TestMissingColumnShortCircuits(t *testing.T) {
	v := NewValidator(newRows(t, []string{"ID"}, []dataset.Value{dataset.Int(1)}))

	_ = v.CheckTextLength("title", 10, Continue)
	_ = v.CheckMissingValues("title", Continue)
	_ = v.CheckUniqueIntegers("title", Continue)
	_ = v.CheckLookupValues("title", NewSet(), Continue)
	_ = v.CheckAllowedValues("title", []string{"x"}, Continue)

	want := []string{TitleTextLength, TitleMissingValues, TitleUniqueIntegers, TitleLookupValues, TitleAllowedValues}
	results := v.Report().Results()
	if len(results) != len(want) {
		t.Fatalf("expected %d results, got %d", len(want), len(results))
	}
	for i, res := range results {
		if res.Check != want[i] {
			t.Errorf("result %d: expected check %q, got %q", i, want[i], res.Check)
		}
		if res.Success {
			t.Errorf("result %d: expected failure", i)
		}
		if res.Message != "Column 'title' missing" {
			t.Errorf("result %d: unexpected message %q", i, res.Message)
		}
	}
}

func TestAbortHaltsRun(t *testing.T) {
	rows := newRows(t, []string{"ID", "title"},
		[]dataset.Value{dataset.Int(1), dataset.Missing()},
	)
	v := NewValidator(rows)

	if err := v.CheckUniqueIntegers("ID", Abort); err != nil {
		t.Fatalf("passing check with Abort must not fail: %v", err)
	}

	err := v.CheckMissingValues("title", Abort)
	if err == nil {
		t.Fatal("expected validation error")
	}
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if ve.Check != "Missing Values - title" || ve.Message != "1 missing values" {
		t.Errorf("unexpected error contents: %+v", ve)
	}
	if !errors.Is(err, ErrValidationFailed) {
		t.Error("expected errors.Is(err, ErrValidationFailed)")
	}
	if err.Error() != "Validation failed: Missing Values - title - 1 missing values" {
		t.Errorf("unexpected error text %q", err.Error())
	}

	// Later checks neither run nor append.
	if err := v.CheckTextLength("title", 1, Continue); err != ve {
		t.Errorf("expected the halting error, got %v", err)
	}
	if v.Report().Len() != 2 {
		t.Errorf("expected 2 results after abort, got %d", v.Report().Len())
	}
	if v.Halted() == nil {
		t.Error("expected Halted() to report the error")
	}
}

func TestAbortOnMissingColumn(t *testing.T) {
	v := NewValidator(newRows(t, []string{"ID"}))
	err := v.CheckAllowedValues("source", []string{"a"}, Abort)
	if err == nil || err.Error() != "Validation failed: Allowed Values - Column 'source' missing" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestContinueNeverReturnsError(t *testing.T) {
	v := NewValidator(newRows(t, []string{"ID"}, []dataset.Value{dataset.Missing()}))
	if err := v.CheckMissingValues("ID", Continue); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Halted() != nil {
		t.Error("Continue must not halt the validator")
	}
}
