package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"occubench/internal/checks"
	"occubench/internal/coder"
	"occubench/internal/config"
	"occubench/internal/dataset"
	"occubench/internal/fetcher"
	"occubench/internal/score"

	"github.com/fatih/color"
	"github.com/google/go-cmp/cmp"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

const benchmarkCSV = `ID,job_title,isco_code,coded_by
1,Nurse,2221,human
2,Baker,7512,model
3,Cook,5120,human
`

const schemeCSV = `code,title
2221,Nursing professionals
7512,"Bakers, pastry-cooks and confectionery makers"
5120,Cooks
`

const cleanChecklist = `version: 1
scheme:
  source: scheme.csv
  code_column: code
  title_column: title
checks:
  - kind: required-columns
    columns: [ID, job_title, isco_code, coded_by]
    on_fail: error
  - kind: missing-values
    column: job_title
  - kind: unique-integers
    column: ID
  - kind: text-length
    column: job_title
    max_length: 50
  - kind: lookup-values
    column: isco_code
  - kind: allowed-values
    column: coded_by
    values: [human, model]
`

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile(%s): %v", name, err)
	}
	return path
}

// fixture writes data, scheme and checklist into a temp dir and returns a
// config pointing at them.
func fixture(t *testing.T, data, checklist string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "scheme.csv", schemeCSV)
	cfg := config.New()
	cfg.Data.Path = writeFile(t, dir, "bench.csv", data)
	cfg.Checks.Checklist = writeFile(t, dir, "checks.yaml", checklist)
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	return cfg
}

func TestCheck_Clean(t *testing.T) {
	cfg := fixture(t, benchmarkCSV, cleanChecklist)
	var stdout, stderr bytes.Buffer
	r := New(WithOutput(&stdout, &stderr))

	outcome := r.Check(context.Background(), cfg)
	if outcome.ExitCode != ExitOK || outcome.Err != nil {
		t.Fatalf("expected clean run, got exit %d err %v\nstderr:\n%s", outcome.ExitCode, outcome.Err, stderr.String())
	}
	if !outcome.Report.OK() || outcome.Report.Len() != 6 {
		t.Fatalf("unexpected report: %+v", outcome.Report.Results())
	}
	if outcome.Rows == nil || outcome.Rows.Len() != 3 {
		t.Fatalf("expected loaded rows in outcome")
	}

	want := strings.Join([]string{
		"[PASS] Required Columns",
		"[PASS] Missing Values - job_title",
		"[PASS] Unique Integers - ID",
		"[PASS] Text Length - job_title",
		"[PASS] Lookup Values - isco_code",
		"[PASS] Allowed Values - coded_by",
	}, "\n") + "\n"
	if diff := cmp.Diff(want, stdout.String()); diff != "" {
		t.Errorf("console output mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(stderr.String(), "Running 6 checks...") {
		t.Errorf("expected progress on stderr, got:\n%s", stderr.String())
	}
}

func TestCheck_FailuresWriteSinks(t *testing.T) {
	data := benchmarkCSV + "3,,9999,robot\n"
	cfg := fixture(t, data, cleanChecklist)
	cfg.Output.NoConsole = true
	cfg.Output.Out = filepath.Join(t.TempDir(), "results.json")
	cfg.Output.Report = filepath.Join(t.TempDir(), "report.md")
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	var stdout, stderr bytes.Buffer
	outcome := New(WithOutput(&stdout, &stderr)).Check(context.Background(), cfg)
	if outcome.ExitCode != ExitFailures {
		t.Fatalf("expected exit %d, got %d (err %v)", ExitFailures, outcome.ExitCode, outcome.Err)
	}
	if stdout.Len() != 0 || stderr.Len() != 0 {
		t.Errorf("expected no console output, got stdout %q stderr %q", stdout.String(), stderr.String())
	}

	var failed []string
	for _, r := range outcome.Report.Failed() {
		failed = append(failed, r.Check+": "+r.Message)
	}
	want := []string{
		"Missing Values - job_title: 1 missing values",
		"Unique Integers - ID: Duplicate values found",
		"Lookup Values - isco_code: Invalid lookup values: ['9999']",
		"Allowed Values - coded_by: Invalid values: ['robot']",
	}
	if diff := cmp.Diff(want, failed); diff != "" {
		t.Errorf("failed checks mismatch (-want +got):\n%s", diff)
	}

	b, err := os.ReadFile(cfg.Output.Out)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	var results []checks.Result
	if err := json.Unmarshal(b, &results); err != nil {
		t.Fatalf("Unmarshal: %v\n%s", err, b)
	}
	if diff := cmp.Diff(outcome.Report.Results(), results); diff != "" {
		t.Errorf("file sink mismatch (-report +file):\n%s", diff)
	}

	md, err := os.ReadFile(cfg.Output.Report)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	for _, s := range []string{"(4 rows)", "- **Failed**: 4", "- **Exit code**: 1"} {
		if !strings.Contains(string(md), s) {
			t.Errorf("report missing %q:\n%s", s, md)
		}
	}
}

func TestCheck_AbortHaltsRun(t *testing.T) {
	data := "ID,job_title\n1,Nurse\n"
	cfg := fixture(t, data, cleanChecklist)
	cfg.Output.ConsoleFormat = "ndjson"

	var stdout, stderr bytes.Buffer
	outcome := New(WithOutput(&stdout, &stderr)).Check(context.Background(), cfg)
	if outcome.ExitCode != ExitFatal {
		t.Fatalf("expected exit %d, got %d", ExitFatal, outcome.ExitCode)
	}
	var verr *checks.ValidationError
	if !errors.As(outcome.Err, &verr) || verr.Check != checks.TitleRequiredColumns {
		t.Fatalf("expected Required Columns validation error, got %v", outcome.Err)
	}
	if outcome.Report.Len() != 1 {
		t.Fatalf("expected the run to stop after one check, got %d results", outcome.Report.Len())
	}
	if !strings.Contains(stderr.String(), "Halted: Validation failed: Required Columns - Missing columns: coded_by, isco_code") {
		t.Errorf("unexpected stderr:\n%s", stderr.String())
	}

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected run.started, one result and run.finished; got:\n%s", stdout.String())
	}
	type event struct {
		Type     string `json:"type"`
		RunID    string `json:"run_id"`
		ExitCode int    `json:"exit_code"`
		Error    string `json:"error"`
	}
	var first, last event
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if err := json.Unmarshal([]byte(lines[2]), &last); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if last.Type != "run.finished" || last.ExitCode != ExitFatal || last.Error == "" {
		t.Errorf("unexpected run.finished event: %+v", last)
	}
	if first.RunID == "" || first.RunID != last.RunID {
		t.Errorf("expected one run_id on both lifecycle events, got %q and %q", first.RunID, last.RunID)
	}
}

func TestCheck_FatalInputs(t *testing.T) {
	tests := []struct {
		name      string
		checklist string
		mutate    func(cfg *config.Config)
		want      string
	}{
		{
			name:      "missing data",
			checklist: cleanChecklist,
			mutate:    func(cfg *config.Config) { cfg.Data.Path += ".missing" },
			want:      "loading data",
		},
		{
			name:      "unknown kind",
			checklist: "checks:\n  - kind: spelling\n    column: job_title\n",
			want:      "planning checks",
		},
		{
			name:      "bad params",
			checklist: "checks:\n  - kind: text-length\n    column: job_title\n",
			want:      "max_length is required",
		},
		{
			name:      "missing scheme file",
			checklist: strings.Replace(cleanChecklist, "source: scheme.csv", "source: nowhere.csv", 1),
			want:      "loading scheme",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := fixture(t, benchmarkCSV, tt.checklist)
			if tt.mutate != nil {
				tt.mutate(cfg)
			}
			var stdout, stderr bytes.Buffer
			outcome := New(WithOutput(&stdout, &stderr)).Check(context.Background(), cfg)
			if outcome.ExitCode != ExitFatal {
				t.Fatalf("expected exit %d, got %d", ExitFatal, outcome.ExitCode)
			}
			if outcome.Err == nil || !strings.Contains(outcome.Err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, outcome.Err)
			}
			if errors.Is(outcome.Err, checks.ErrValidationFailed) {
				t.Fatalf("input errors must not look like validation failures: %v", outcome.Err)
			}
		})
	}
}

func TestCheck_DryRun(t *testing.T) {
	cfg := fixture(t, benchmarkCSV, cleanChecklist)
	cfg.Data.Path = ""
	cfg.Checks.DryRun = true
	cfg.Checks.Selector = "lookup-values,missing-values"

	var stdout, stderr bytes.Buffer
	outcome := New(WithOutput(&stdout, &stderr)).Check(context.Background(), cfg)
	if outcome.ExitCode != ExitOK || outcome.Rows != nil {
		t.Fatalf("unexpected dry-run outcome: %+v", outcome)
	}

	want := "Checklist: " + cfg.Checks.Checklist + "\n" +
		"Scheme: scheme.csv\n" +
		"String columns: isco_code, coded_by\n" +
		"Checks:\n" +
		"  1. missing-values [job_title] on_fail=warn\n" +
		"  2. lookup-values [isco_code] on_fail=warn\n"
	if diff := cmp.Diff(want, stdout.String()); diff != "" {
		t.Errorf("plan mismatch (-want +got):\n%s", diff)
	}
}

func TestCheck_RemoteScheme(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/isco08.csv" {
			http.NotFound(w, r)
			return
		}
		_, _ = io.WriteString(w, schemeCSV)
	}))
	defer server.Close()

	checklist := strings.Replace(cleanChecklist, "source: scheme.csv", "source: "+server.URL+"/isco08.csv", 1)
	cfg := fixture(t, benchmarkCSV, checklist)
	cfg.Output.NoConsole = true

	f := fetcher.NewFetcher(t.TempDir(), fetcher.WithHTTPClient(server.Client()))
	outcome := New(WithFetcher(f), WithOutput(io.Discard, io.Discard)).Check(context.Background(), cfg)
	if outcome.ExitCode != ExitOK {
		t.Fatalf("expected clean run, got exit %d err %v", outcome.ExitCode, outcome.Err)
	}
}

func TestPipeline(t *testing.T) {
	cfg := fixture(t, benchmarkCSV, cleanChecklist)
	cfg.Output.NoConsole = true
	cfg.Score.Truth = "isco_code"
	cfg.Coding.Rate = 1000
	cfg.Coding.TopN = 2
	cfg.Coding.Out = filepath.Join(t.TempDir(), "out", "coded.csv")

	predictions := map[string][]string{
		"Nurse": {"2221", "3221"},
		"Baker": {"9999", "7512"},
		"Cook":  {"1111"},
	}
	c := coder.CoderFunc(func(_ context.Context, job coder.Job) ([]string, error) {
		return predictions[job.Title], nil
	})

	var stdout bytes.Buffer
	code := New(WithOutput(&stdout, io.Discard)).Pipeline(context.Background(), cfg, c)
	if code != ExitOK {
		t.Fatalf("expected exit %d, got %d", ExitOK, code)
	}
	if diff := cmp.Diff("primary-match: 1\nany-match: 2\n", stdout.String()); diff != "" {
		t.Errorf("scores mismatch (-want +got):\n%s", diff)
	}

	coded, err := dataset.LoadCSV(cfg.Coding.Out, dataset.LoadOptions{AllStrings: true})
	if err != nil {
		t.Fatalf("LoadCSV: %v", err)
	}
	if diff := cmp.Diff([]string{"ID", "job_title", "isco_code", "coded_by", "prediction_1", "prediction_2"}, coded.Header()); diff != "" {
		t.Errorf("header mismatch (-want +got):\n%s", diff)
	}
	v, err := coded.Value(1, "prediction_2")
	if err != nil || v.String() != "7512" {
		t.Errorf("prediction_2 of row 2 = %v (err %v)", v, err)
	}
}

func TestPipeline_HaltsOnFailedChecks(t *testing.T) {
	cfg := fixture(t, benchmarkCSV+"4,Cook,9999,human\n", cleanChecklist)
	cfg.Output.NoConsole = true
	cfg.Coding.Out = filepath.Join(t.TempDir(), "coded.csv")

	called := false
	c := coder.CoderFunc(func(context.Context, coder.Job) ([]string, error) {
		called = true
		return nil, nil
	})

	var stderr bytes.Buffer
	code := New(WithOutput(io.Discard, &stderr)).Pipeline(context.Background(), cfg, c)
	if code != ExitFailures {
		t.Fatalf("expected exit %d, got %d", ExitFailures, code)
	}
	if called {
		t.Error("coder must not run when checks failed")
	}
	if _, err := os.Stat(cfg.Coding.Out); !os.IsNotExist(err) {
		t.Errorf("expected no predictions file, stat err = %v", err)
	}
	if !strings.Contains(stderr.String(), "not coding") {
		t.Errorf("unexpected stderr:\n%s", stderr.String())
	}
}

func TestWriteScores(t *testing.T) {
	s := score.Scores{Mode: score.Proportion, Rows: 3, PrimaryMatch: 1.0 / 3, AnyMatch: 2.0 / 3}

	var text bytes.Buffer
	if err := WriteScores(&text, s, "text"); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff("primary-match: 0.3333\nany-match: 0.6667\n", text.String()); diff != "" {
		t.Errorf("text mismatch (-want +got):\n%s", diff)
	}

	var js bytes.Buffer
	if err := WriteScores(&js, score.Scores{Mode: score.Absolute, PrimaryMatch: 4, AnyMatch: 7}, "json"); err != nil {
		t.Fatal(err)
	}
	var got map[string]float64
	if err := json.Unmarshal(js.Bytes(), &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if diff := cmp.Diff(map[string]float64{"primary-match": 4, "any-match": 7}, got); diff != "" {
		t.Errorf("json mismatch (-want +got):\n%s", diff)
	}
}
