package flags

// Package flags defines canonical CLI flag names shared across the CLI and runner.
// Keeping these as constants helps avoid drift between Cobra flag wiring and other
// code paths that need to reference flags (e.g. the rerun command printed in
// the Markdown report).
// IMPORTANT: These are flag *names* without leading dashes.
// Example usage:
//
//	cmd.Flags().StringVar(&cfg.Data.Path, flags.FlagData, "", "...")
//	arg := "--" + flags.FlagData
const (
	// Data
	FlagData          = "data"
	FlagStringColumns = "string-columns"
	FlagIDColumn      = "id-column"

	// Checks
	FlagChecklist = "checklist"
	FlagChecks    = "checks"
	FlagDryRun    = "dry-run"

	// Scheme
	FlagScheme      = "scheme"
	FlagSchemeSheet = "scheme-sheet"
	FlagCodeColumn  = "code-column"
	FlagTitleColumn = "title-column"
	FlagCacheDir    = "cache-dir"
	FlagRefresh     = "refresh"

	// Score
	FlagTruth      = "truth"
	FlagPred       = "pred"
	FlagProportion = "proportion"
	FlagFormat     = "format"

	// Coding
	FlagModel                = "model"
	FlagBaseURL              = "base-url"
	FlagTopN                 = "top-n"
	FlagRate                 = "rate"
	FlagJobTitleColumn       = "job-title-column"
	FlagJobDescriptionColumn = "job-description-column"
	FlagJobIndustryColumn    = "job-industry-column"
	FlagKeepGoing            = "keep-going"
	FlagPredictions          = "predictions"

	// Output
	FlagConsoleFormat       = "console-format"
	FlagConsoleFilterStatus = "console-filter-status"
	FlagReport              = "report"
	FlagOut                 = "out"
	FlagOutFormat           = "out-format"
	FlagEmit                = "emit"
	FlagNoConsole           = "no-console"

	// Runtime
	FlagTimeout = "timeout"
	FlagVerbose = "verbose"
)
