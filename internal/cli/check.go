package cli

import (
	"os"

	"occubench/internal/flags"
	"occubench/internal/runner"

	"github.com/spf13/cobra"
)

const checkHelpTemplate = `{{with (or .Long .Short)}}{{. | trimTrailingWhitespaces}}

{{end}}Usage:
  {{.UseLine}}

{{if .HasAvailableLocalFlags}}Flags:
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}

{{end}}{{if .HasAvailableInheritedFlags}}Global Flags:
{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}

{{end}}Environment:
	Schemes hosted on GitHub (github:owner/repo/path[@ref]) are downloaded
	through the GitHub API. A token is optional for public repositories.

	Sources (in order):
	1) GITHUB_TOKEN environment variable
	2) GitHub CLI (gh) authentication via gh auth token (if gh is installed and logged in)

	Downloads are cached under the per-user cache directory unless --cache-dir
	is set; --refresh downloads them again.

{{if .HasAvailableSubCommands}}Available Commands:
{{range .Commands}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}

{{end}}{{if .HasHelpSubCommands}}Additional help topics:
{{range .Commands}}{{if .IsAdditionalHelpTopicCommand}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}

{{end}}{{if .HasAvailableSubCommands}}Use "{{.CommandPath}} [command] --help" for more information about a command.
{{end}}`

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run a checklist against a benchmark CSV",
	Long: `Run the checks of a YAML checklist, in file order, against a benchmark CSV.

Each check records a PASS or FAIL result. A check with on_fail: error stops
the run at its first failure; every other check lets the run go on.

Output:
	Console output is controlled by --console-format (default: text).
	Structured outputs can be written via:
	- --out / --out-format: write an aggregate JSON array or NDJSON stream to a file
	- --emit: write an additional structured stream to stdout (json or ndjson)
	- --report: write a Markdown report
	- --no-console: suppress the console sink (use with --emit/--out for machine output)

	NDJSON mode emits one JSON object per line. Objects are lifecycle Events with a
	"type" field (run.started, check.result, run.finished).

Exit codes:
	0 = clean run, every check passed
	1 = failed checks recorded
	3 = fatal error (bad input or checklist) or a run halted by on_fail: error

Examples:
	occubench check --data bench.csv --checklist checks.yaml

	# Override the checklist's scheme with a GitHub-hosted workbook
	occubench check --data bench.csv --checklist checks.yaml \
		--scheme github:acme/schemes/isco08.xlsx@v1

	# Print the plan without loading data
	occubench check --checklist checks.yaml --dry-run

	# AI Agent: stream machine-readable events to stdout
	occubench check --data bench.csv --checklist checks.yaml --no-console --emit ndjson
`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 && cmd.Flags().NFlag() == 0 {
			_ = cmd.Help()
			return
		}
		validateOrExit(cfg.RequireCheckInputs)

		logger := newLogger()
		defer func() { _ = logger.Sync() }()
		ctx, cancel := commandContext()
		defer cancel()

		f, err := newFetcher(ctx, logger)
		if err != nil {
			exitFatal("%v", err)
		}
		r := runner.New(runner.WithFetcher(f), runner.WithLogger(logger))
		outcome := r.Check(ctx, cfg)
		cancel()
		os.Exit(outcome.ExitCode)
	},
}

func addDataFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&cfg.Data.Path, flags.FlagData, "", "Benchmark CSV to read")
	cmd.Flags().StringSliceVar(&cfg.Data.StringColumns, flags.FlagStringColumns, nil, "Columns read as text, never as numbers (repeatable; comma-separated accepted)")
}

func addChecklistFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&cfg.Checks.Checklist, flags.FlagChecklist, "", "YAML checklist to run")
	cmd.Flags().StringVar(&cfg.Checks.Selector, flags.FlagChecks, "", "Only run these check kinds (comma-separated; empty = every checklist entry)")
	cmd.Flags().BoolVar(&cfg.Checks.DryRun, flags.FlagDryRun, false, "Print the resolved plan without loading data")
}

func addSchemeFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&cfg.Scheme.Source, flags.FlagScheme, "", "Reference scheme: a local path, an http(s) URL or github:owner/repo/path[@ref] (overrides the checklist)")
	cmd.Flags().StringVar(&cfg.Scheme.Sheet, flags.FlagSchemeSheet, "", "Worksheet of an xlsx scheme (default: first sheet)")
	cmd.Flags().StringVar(&cfg.Scheme.CodeColumn, flags.FlagCodeColumn, "", "Scheme column holding the codes")
	cmd.Flags().StringVar(&cfg.Scheme.TitleColumn, flags.FlagTitleColumn, "", "Scheme column holding the titles")
	cmd.Flags().StringVar(&cfg.Scheme.CacheDir, flags.FlagCacheDir, "", "Directory for downloaded schemes (default: per-user cache)")
	cmd.Flags().BoolVar(&cfg.Scheme.Refresh, flags.FlagRefresh, false, "Download remote schemes again even when cached")
}

func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&cfg.Output.ConsoleFormat, flags.FlagConsoleFormat, "text", "Console output format: text|json|ndjson (default: text)")
	cmd.Flags().StringSliceVar(&cfg.Output.ConsoleFilterStatus, flags.FlagConsoleFilterStatus, nil, "Filter console output by status (PASS, FAIL). Comma-separated.")
	cmd.Flags().StringVar(&cfg.Output.Report, flags.FlagReport, "", "Write a Markdown report to this path")
	cmd.Flags().StringVar(&cfg.Output.Out, flags.FlagOut, "", "Write structured output to this path")
	cmd.Flags().StringVar(&cfg.Output.OutFormat, flags.FlagOutFormat, "", "Structured output format for --out: json|ndjson (default: inferred from file extension)")
	cmd.Flags().StringSliceVar(&cfg.Output.Emit, flags.FlagEmit, nil, "Emit additional structured stream to stdout: json|ndjson (repeatable; comma-separated accepted)")
	cmd.Flags().BoolVar(&cfg.Output.NoConsole, flags.FlagNoConsole, false, "Suppress console output (use with --emit/--out/--report)")
}

func addTimeoutFlag(cmd *cobra.Command) {
	cmd.Flags().DurationVar(&cfg.Runtime.Timeout, flags.FlagTimeout, cfg.Runtime.Timeout, "Global timeout (default: 30m)")
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.SetHelpTemplate(checkHelpTemplate)

	// MAINTAINER NOTE: If you add/change/remove any check-affecting flags here,
	// keep the report reproducibility command generator in sync:
	// internal/output/report_helpers.go:rerunCommand.
	addDataFlags(checkCmd)
	addChecklistFlags(checkCmd)
	addSchemeFlags(checkCmd)
	addOutputFlags(checkCmd)
	addTimeoutFlag(checkCmd)
}
