package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"occubench/internal/checks"
	"occubench/internal/scheme"
)

const benchmarkChecklist = `version: 1
data:
  string_columns: [prediction_1]
scheme:
  source: github:acme/schemes/isco08.xlsx@v1
  sheet: ISCO-08
checks:
  - kind: required-columns
    columns: [ID, job_title, isco_code, coded_by]
    on_fail: error
  - kind: text-length
    column: job_title
    max_length: 120
  - kind: lookup-values
    column: isco_code
    on_fail: WARN
  - kind: Allowed-Values
    column: coded_by
    values: [human, model, 3, 1.5, true]
`

func TestParseChecklist(t *testing.T) {
	c, err := ParseChecklist([]byte(benchmarkChecklist))
	if err != nil {
		t.Fatalf("ParseChecklist returned error: %v", err)
	}

	if c.Version != 1 || len(c.Checks) != 4 {
		t.Fatalf("unexpected checklist: %+v", c)
	}
	if c.Scheme.Source != "github:acme/schemes/isco08.xlsx@v1" || c.Scheme.Sheet != "ISCO-08" {
		t.Fatalf("unexpected scheme settings: %+v", c.Scheme)
	}
	if c.Checks[3].Kind != checks.KindAllowedValues {
		t.Fatalf("expected kind to normalize to %q, got %q", checks.KindAllowedValues, c.Checks[3].Kind)
	}
	if !c.NeedsScheme() {
		t.Fatalf("expected NeedsScheme to be true")
	}

	want := []string{"prediction_1", "isco_code", "coded_by"}
	if got := c.StringColumns(); !reflect.DeepEqual(got, want) {
		t.Fatalf("StringColumns mismatch: got %v want %v", got, want)
	}
}

func TestCheckEntry_Params(t *testing.T) {
	c, err := ParseChecklist([]byte(benchmarkChecklist))
	if err != nil {
		t.Fatalf("ParseChecklist returned error: %v", err)
	}

	p, err := c.Checks[0].Params(nil)
	if err != nil {
		t.Fatalf("Params returned error: %v", err)
	}
	if p.OnFail != checks.Abort || !reflect.DeepEqual(p.Columns, []string{"ID", "job_title", "isco_code", "coded_by"}) {
		t.Fatalf("unexpected params: %+v", p)
	}

	p, err = c.Checks[1].Params(nil)
	if err != nil {
		t.Fatalf("Params returned error: %v", err)
	}
	if p.MaxLength == nil || *p.MaxLength != 120 {
		t.Fatalf("expected max_length 120, got %v", p.MaxLength)
	}

	zero, err := ParseChecklist([]byte("checks:\n  - kind: text-length\n    column: t\n    max_length: 0\n"))
	if err != nil {
		t.Fatalf("ParseChecklist returned error: %v", err)
	}
	if p, _ := zero.Checks[0].Params(nil); p.MaxLength == nil || *p.MaxLength != 0 {
		t.Fatalf("expected explicit max_length 0 to be kept, got %v", p.MaxLength)
	}

	codes := scheme.NewReferenceSet()
	codes.Add("2221", "Nursing professionals")
	p, err = c.Checks[2].Params(codes)
	if err != nil {
		t.Fatalf("Params returned error: %v", err)
	}
	if p.OnFail != checks.Continue || p.Codes == nil || !p.Codes.Contains("2221") {
		t.Fatalf("unexpected params: %+v", p)
	}

	p, err = c.Checks[3].Params(nil)
	if err != nil {
		t.Fatalf("Params returned error: %v", err)
	}
	if want := []string{"human", "model", "3", "1.5", "true"}; !reflect.DeepEqual(p.Values, want) {
		t.Fatalf("Values mismatch: got %v want %v", p.Values, want)
	}

	if got := c.Checks[0].Target(); got != "ID, job_title, isco_code, coded_by" {
		t.Fatalf("Target() = %q", got)
	}
}

func TestParseChecklist_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{name: "empty", doc: "", want: "no checks"},
		{name: "version", doc: "version: 2\nchecks:\n  - kind: missing-values\n", want: "unsupported checklist version"},
		{name: "missing_kind", doc: "checks:\n  - column: ID\n", want: "kind is required"},
		{name: "on_fail", doc: "checks:\n  - kind: missing-values\n    on_fail: explode\n", want: "on_fail"},
		{name: "nested_value", doc: "checks:\n  - kind: allowed-values\n    values: [[a]]\n", want: "expected a scalar"},
		{name: "unknown_key", doc: "checks:\n  - kind: missing-values\n    colum: ID\n", want: "parse checklist"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseChecklist([]byte(tt.doc))
			if err == nil {
				t.Fatalf("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error %q does not contain %q", err, tt.want)
			}
		})
	}
}

func TestLoadChecklist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checks.yaml")
	if err := os.WriteFile(path, []byte(benchmarkChecklist), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadChecklist(path); err != nil {
		t.Fatalf("LoadChecklist returned error: %v", err)
	}
	if _, err := LoadChecklist(path + ".missing"); err == nil {
		t.Fatalf("expected error for missing file")
	}
	if _, err := LoadChecklist("  "); err == nil {
		t.Fatalf("expected error for empty path")
	}
}
