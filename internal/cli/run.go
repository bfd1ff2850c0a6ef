package cli

import (
	"os"

	"occubench/internal/flags"
	"occubench/internal/runner"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Check, code and score a benchmark in one pass",
	Long: `Run the checklist against the benchmark and, only when every check passed,
code the records with the LLM, write them to --predictions and, when --truth
is set, score prediction_1..N against it.

A failed check halts the pipeline before any coder call is made.

Exit codes:
	0 = checks passed, records coded (and scored)
	1 = failed checks recorded; nothing was coded
	3 = fatal error, a run halted by on_fail: error, or a failed coder call

Examples:
	export OPENAI_API_KEY="<your_key>"
	occubench run --data bench.csv --checklist checks.yaml \
		--predictions coded.csv --truth isco_code --proportion
`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if cmd.Flags().NFlag() == 0 {
			_ = cmd.Help()
			return
		}
		validateOrExit(func() error {
			if err := cfg.RequireCheckInputs(); err != nil {
				return err
			}
			if cfg.Checks.DryRun {
				return nil
			}
			return cfg.RequireCodeInputs()
		})

		logger := newLogger()
		defer func() { _ = logger.Sync() }()
		ctx, cancel := commandContext()
		defer cancel()

		f, err := newFetcher(ctx, logger)
		if err != nil {
			exitFatal("%v", err)
		}
		c, err := newCoder(logger)
		if err != nil && !cfg.Checks.DryRun {
			exitFatal("%v", err)
		}

		r := runner.New(runner.WithFetcher(f), runner.WithLogger(logger))
		code := r.Pipeline(ctx, cfg, c)
		cancel()
		os.Exit(code)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.SetHelpTemplate(checkHelpTemplate)

	addDataFlags(runCmd)
	addChecklistFlags(runCmd)
	addSchemeFlags(runCmd)
	addOutputFlags(runCmd)
	addCodingFlags(runCmd)
	runCmd.Flags().StringVar(&cfg.Coding.Out, flags.FlagPredictions, "", "CSV to write the coded records to")
	addScoreFlags(runCmd)
	addTimeoutFlag(runCmd)
}
