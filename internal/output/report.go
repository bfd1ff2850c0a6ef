package output

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"occubench/internal/checks"
)

type ReportSink struct {
	path         string
	file         *os.File
	mu           sync.Mutex
	results      []checks.Result
	runID        string
	data         string
	checklist    string
	rows         int
	exitCode     int
	haveExitCode bool
	runErr       string
}

func NewReportSink(path string) (*ReportSink, error) {
	if path == "" {
		return nil, fmt.Errorf("report path required")
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create report file: %w", err)
	}

	return &ReportSink{
		path: path,
		file: f,
	}, nil
}

func (s *ReportSink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch t := v.(type) {
	case checks.Result:
		s.results = append(s.results, t)
	case Event:
		switch t.Type {
		case EventRunStarted:
			s.runID = t.RunID
			s.data = t.Data
			s.checklist = t.Checklist
			s.rows = t.Rows
		case EventRunFinished:
			s.exitCode = t.ExitCode
			s.haveExitCode = true
			s.runErr = t.Error
		}
	}
	return nil
}

func (s *ReportSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	writeErr := func(err error) error {
		_ = s.file.Close()
		return err
	}

	report := checks.NewReport(s.results...)
	failed := report.Failed()
	kinds := computeKindStats(s.results)

	var b strings.Builder
	b.WriteString("# occubench Validation Report\n\n")

	// --- Summary ---
	b.WriteString("## Summary\n\n")
	if s.runID != "" {
		b.WriteString(fmt.Sprintf("- **Run ID**: `%s`\n", s.runID))
	}
	if s.data != "" {
		b.WriteString(fmt.Sprintf("- **Data**: `%s` (%d rows)\n", s.data, s.rows))
	}
	if s.checklist != "" {
		b.WriteString(fmt.Sprintf("- **Checklist**: `%s`\n", s.checklist))
	}
	b.WriteString(fmt.Sprintf("- **Checks run**: %d\n", report.Len()))
	b.WriteString(fmt.Sprintf("- **Passed**: %d\n", report.Len()-len(failed)))
	b.WriteString(fmt.Sprintf("- **Failed**: %d\n", len(failed)))
	if s.haveExitCode {
		b.WriteString(fmt.Sprintf("- **Exit code**: %d\n", s.exitCode))
	}
	b.WriteString("\n")

	b.WriteString("**Verdict**: ")
	switch {
	case s.runErr != "":
		b.WriteString(fmt.Sprintf("run halted: %s\n\n", s.runErr))
	case report.OK():
		b.WriteString("every check passed; the records are ready for coding.\n\n")
	default:
		b.WriteString("fix the failed checks before coding or scoring these records.\n\n")
	}

	// --- Failures by check kind ---
	b.WriteString("## Failures by Check\n\n")
	if len(kinds) == 0 {
		b.WriteString("No findings.\n\n")
	} else {
		b.WriteString("| Check | Failed | Columns |\n")
		b.WriteString("| --- | ---: | --- |\n")
		for _, ks := range kinds {
			b.WriteString(fmt.Sprintf("| %s | %d | %s |\n", ks.Title, ks.Failed, formatList(ks.Columns, 5)))
		}
		b.WriteString("\n")
	}

	// --- Failed checks ---
	b.WriteString("## Failed checks\n\n")
	if len(failed) == 0 {
		b.WriteString("- None\n\n")
	} else {
		for _, r := range failed {
			b.WriteString(fmt.Sprintf("- **%s**: %s\n", r.Check, r.Message))
		}
		b.WriteString("\n")
	}

	// --- All results, in invocation order ---
	b.WriteString("## Checks evaluated\n\n")
	if report.Len() == 0 {
		b.WriteString("- None\n\n")
	} else {
		b.WriteString("| # | Check | Status | Message |\n")
		b.WriteString("| ---: | --- | --- | --- |\n")
		for i, r := range report.Results() {
			b.WriteString(fmt.Sprintf("| %d | %s | %s | %s |\n", i+1, escapeCell(r.Check), r.Status(), escapeCell(r.Message)))
		}
		b.WriteString("\n")
	}

	// --- Reproduce ---
	if cmd := rerunCommand(s.data, s.checklist); cmd != "" {
		b.WriteString("## Reproduce\n\n")
		b.WriteString("```sh\n" + cmd + "\n```\n")
	}

	if _, err := s.file.WriteString(b.String()); err != nil {
		return writeErr(err)
	}
	return s.file.Close()
}
