package cli

import (
	"occubench/internal/dataset"
	"occubench/internal/flags"
	"occubench/internal/runner"
	"occubench/internal/score"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Count how often predictions match the manual codes",
	Long: `Compare a ground-truth column against one or more prediction columns.

primary-match counts records whose truth equals the first --pred column;
any-match counts records whose truth equals at least one of them. Missing
values never match. Truth and prediction columns are compared as text.

Exit codes:
	0 = scores printed
	3 = fatal error (unreadable file, unknown column)

Examples:
	occubench score --data coded.csv --truth isco_code --pred prediction_1,prediction_2,prediction_3
	occubench score --data coded.csv --truth isco_code --pred prediction_1 --proportion --format json
`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if cmd.Flags().NFlag() == 0 {
			_ = cmd.Help()
			return
		}
		validateOrExit(cfg.RequireScoreInputs)
		logger := newLogger()
		defer func() { _ = logger.Sync() }()

		columns := append([]string{cfg.Score.Truth}, cfg.Score.Predictions...)
		rows, err := dataset.LoadCSV(cfg.Data.Path, dataset.LoadOptions{
			StringColumns: append(columns, cfg.Data.StringColumns...),
		})
		if err != nil {
			exitFatal("loading data: %v", err)
		}

		mode := score.Absolute
		if cfg.Score.Proportion {
			mode = score.Proportion
		}
		scores, err := score.CountMatches(rows, cfg.Score.Truth, cfg.Score.Predictions, mode)
		if err != nil {
			exitFatal("scoring predictions: %v", err)
		}
		logger.Debug("scored", zap.Int("rows", scores.Rows), zap.String("mode", string(scores.Mode)))

		if err := runner.WriteScores(cmd.OutOrStdout(), scores, cfg.Score.Format); err != nil {
			exitFatal("writing scores: %v", err)
		}
	},
}

func addScoreFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&cfg.Score.Truth, flags.FlagTruth, "", "Ground-truth code column")
	cmd.Flags().BoolVar(&cfg.Score.Proportion, flags.FlagProportion, false, "Report the share of records instead of counts")
	cmd.Flags().StringVar(&cfg.Score.Format, flags.FlagFormat, "text", "Score output format: text|json (default: text)")
}

func init() {
	rootCmd.AddCommand(scoreCmd)
	addDataFlags(scoreCmd)
	addScoreFlags(scoreCmd)
	scoreCmd.Flags().StringSliceVar(&cfg.Score.Predictions, flags.FlagPred, nil, "Prediction columns, primary first (repeatable; comma-separated accepted)")
}
