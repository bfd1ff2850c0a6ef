// Package runner executes a checklist against a benchmark file and streams
// the results to the configured output sinks.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"occubench/internal/checks"
	"occubench/internal/config"
	"occubench/internal/dataset"
	"occubench/internal/fetcher"
	"occubench/internal/logging"
	"occubench/internal/output"
	"occubench/internal/scheme"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Exit code contract:
// 0 = clean run, every check passed
// 1 = failed checks recorded
// 3 = fatal error (bad input, bad checklist) or a run halted by on_fail: error
const (
	ExitOK       = 0
	ExitFailures = 1
	ExitFatal    = 3
)

func exitCodeForRun(fatal, failed bool) int {
	if fatal {
		return ExitFatal
	}
	if failed {
		return ExitFailures
	}
	return ExitOK
}

type Runner struct {
	fetcher *fetcher.Fetcher
	logger  *zap.Logger
	stdout  io.Writer
	stderr  io.Writer
}

type Option func(*Runner)

func WithFetcher(f *fetcher.Fetcher) Option {
	return func(r *Runner) { r.fetcher = f }
}

func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// WithOutput redirects the console sinks and progress messages.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(r *Runner) {
		r.stdout = stdout
		r.stderr = stderr
	}
}

func New(opts ...Option) *Runner {
	r := &Runner{}
	for _, apply := range opts {
		if apply != nil {
			apply(r)
		}
	}
	r.logger = logging.OrNop(r.logger)
	if r.fetcher == nil {
		// Local scheme files only.
		r.fetcher = fetcher.NewFetcher("", fetcher.WithLogger(r.logger))
	}
	if r.stdout == nil {
		r.stdout = os.Stdout
	}
	if r.stderr == nil {
		r.stderr = os.Stderr
	}
	return r
}

// Outcome is what a checklist run produced. Rows is the loaded benchmark,
// nil when loading failed or for a dry run.
type Outcome struct {
	Report   checks.Report
	Rows     *dataset.RowSet
	ExitCode int
	Err      error
}

func (r *Runner) progress(cfg *config.Config, format string, args ...any) {
	if cfg.Output.NoConsole {
		return
	}
	fmt.Fprintf(r.stderr, format+"\n", args...)
}

func (r *Runner) fatal(what string, err error) Outcome {
	fmt.Fprintf(r.stderr, "Error %s: %v\n", what, err)
	return Outcome{ExitCode: exitCodeForRun(true, false), Err: fmt.Errorf("%s: %w", what, err)}
}

// Check loads the checklist, the benchmark and, when a lookup-values check
// is planned, the reference scheme, then runs the planned checks in order.
// extraStringColumns are read as text in addition to the checklist's.
func (r *Runner) Check(ctx context.Context, cfg *config.Config, extraStringColumns ...string) Outcome {
	r.progress(cfg, "Loading checklist...")
	cl, err := config.LoadChecklist(cfg.Checks.Checklist)
	if err != nil {
		return r.fatal("loading checklist", err)
	}

	plan, err := BuildPlan(cfg, cfg.Checks.Checklist, cl)
	if err != nil {
		return r.fatal("planning checks", err)
	}
	plan.StringColumns = mergeColumns(plan.StringColumns, extraStringColumns)

	if cfg.Checks.DryRun {
		if err := plan.Print(r.stdout); err != nil {
			return r.fatal("printing plan", err)
		}
		return Outcome{ExitCode: ExitOK}
	}

	r.progress(cfg, "Loading data...")
	rows, err := dataset.LoadCSV(cfg.Data.Path, dataset.LoadOptions{StringColumns: plan.StringColumns})
	if err != nil {
		return r.fatal("loading data", err)
	}
	r.logger.Debug("data loaded", zap.String("path", cfg.Data.Path), zap.Int("rows", rows.Len()), zap.Strings("columns", rows.Header()))

	var codes checks.CodeSet
	if plan.NeedsScheme() {
		r.progress(cfg, "Loading scheme...")
		set, err := r.LoadScheme(ctx, plan.Scheme, plan.SchemeBaseDir)
		if err != nil {
			return r.fatal("loading scheme", err)
		}
		codes = set
	}

	outMgr, err := setupOutputManager(cfg, r.stdout)
	if err != nil {
		return r.fatal("creating output sinks", err)
	}
	defer outMgr.Close()

	runID := uuid.New().String()
	r.progress(cfg, "Running %d checks...", len(plan.Steps))
	r.logger.Debug("run started", zap.String("run_id", runID))
	_ = outMgr.Start(output.Event{
		RunID:     runID,
		Data:      cfg.Data.Path,
		Checklist: cfg.Checks.Checklist,
		Rows:      rows.Len(),
		Checks:    len(plan.Steps),
	})

	report, runErr := r.runSteps(ctx, plan, rows, codes, outMgr)

	code := exitCodeForRun(runErr != nil, !report.OK())
	if runErr != nil {
		var halted *checks.ValidationError
		if errors.As(runErr, &halted) {
			fmt.Fprintf(r.stderr, "Halted: %v\n", runErr)
		} else {
			fmt.Fprintf(r.stderr, "Error running checks: %v\n", runErr)
		}
	}
	_ = outMgr.Finish(code, runErr)

	return Outcome{Report: report, Rows: rows, ExitCode: code, Err: runErr}
}

// runSteps invokes each planned check and forwards every new result to the
// sinks as soon as it is recorded. It stops at the first error: a
// *checks.ValidationError from an aborting check, or bad parameters.
func (r *Runner) runSteps(ctx context.Context, plan *Plan, rows *dataset.RowSet, codes checks.CodeSet, outMgr *output.Manager) (checks.Report, error) {
	v := checks.NewValidator(rows)
	written := 0
	flush := func() {
		results := v.Report().Results()
		for _, res := range results[written:] {
			_ = outMgr.Result(res)
		}
		written = len(results)
	}

	for _, step := range plan.Steps {
		if err := ctx.Err(); err != nil {
			return v.Report(), err
		}
		params, err := step.Entry.Params(codes)
		if err != nil {
			return v.Report(), fmt.Errorf("checks[%d] (%s): %w", step.Index, step.Kind.ID(), err)
		}

		runErr := step.Kind.Run(v, params)
		flush()
		r.logger.Debug("check finished", zap.Int("index", step.Index), zap.String("kind", step.Kind.ID()), zap.String("target", step.Entry.Target()))
		if runErr != nil {
			var verr *checks.ValidationError
			if errors.As(runErr, &verr) {
				return v.Report(), runErr
			}
			return v.Report(), fmt.Errorf("checks[%d]: %w", step.Index, runErr)
		}
	}
	return v.Report(), nil
}

// LoadScheme fetches the scheme source if it is remote and loads it. A
// relative file source is resolved against baseDir when baseDir is set.
func (r *Runner) LoadScheme(ctx context.Context, settings config.SchemeSettings, baseDir string) (*scheme.ReferenceSet, error) {
	src, err := fetcher.ParseSource(settings.Source)
	if err != nil {
		return nil, err
	}
	if src.Scheme == fetcher.SchemeFile && baseDir != "" && !filepath.IsAbs(src.Path) {
		src.Path = filepath.Join(baseDir, src.Path)
	}

	path, err := r.fetcher.Fetch(ctx, src)
	if err != nil {
		return nil, err
	}
	set, err := scheme.Load(path, scheme.Options{
		Sheet:       settings.Sheet,
		CodeColumn:  settings.CodeColumn,
		TitleColumn: settings.TitleColumn,
	})
	if err != nil {
		return nil, err
	}
	r.logger.Debug("scheme loaded", zap.String("source", src.String()), zap.String("path", path), zap.Int("codes", set.Len()))
	return set, nil
}

func setupOutputManager(cfg *config.Config, stdout io.Writer) (*output.Manager, error) {
	var sinks []output.Sink
	fail := func(err error) (*output.Manager, error) {
		for _, s := range sinks {
			_ = s.Close()
		}
		return nil, err
	}

	if !cfg.Output.NoConsole {
		sinks = append(sinks, output.NewConsoleSink(stdout, cfg.Output.ConsoleFormat, cfg.Output.ConsoleFilterStatus))
	}
	for _, emit := range cfg.Output.Emit {
		es, err := output.NewEmitSink(stdout, emit)
		if err != nil {
			return fail(err)
		}
		sinks = append(sinks, es)
	}
	if cfg.Output.Out != "" {
		fs, err := output.NewFileSink(cfg.Output.Out, cfg.Output.OutFormat)
		if err != nil {
			return fail(err)
		}
		sinks = append(sinks, fs)
	}
	if cfg.Output.Report != "" {
		rs, err := output.NewReportSink(cfg.Output.Report)
		if err != nil {
			return fail(err)
		}
		sinks = append(sinks, rs)
	}

	mgr, err := output.NewManager(sinks...)
	if err != nil {
		return fail(err)
	}
	return mgr, nil
}
