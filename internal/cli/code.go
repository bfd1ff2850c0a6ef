package cli

import (
	"os"

	"occubench/internal/coder"
	"occubench/internal/dataset"
	"occubench/internal/flags"
	"occubench/internal/runner"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// openAIKeyEnv holds the key for the OpenAI-compatible endpoint.
const openAIKeyEnv = "OPENAI_API_KEY"

var codeCmd = &cobra.Command{
	Use:   "code",
	Short: "Predict occupation codes for every record with an LLM",
	Long: `Ask an OpenAI-compatible chat model for ranked four-digit occupation codes
for each record and write the records, with prediction_1..N appended, to --out.

Calls are made one record at a time, paced by --rate. Records without any job
text are skipped. A failed call stops the run unless --keep-going is set.

Environment:
	OPENAI_API_KEY must hold the API key of the endpoint.

Exit codes:
	0 = every record coded and written
	3 = fatal error (missing key, unreadable data, failed call)

Examples:
	export OPENAI_API_KEY="<your_key>"
	occubench code --data bench.csv --out coded.csv --top-n 3

	# A local OpenAI-compatible server
	occubench code --data bench.csv --out coded.csv --base-url http://localhost:8080/v1 --model llama3
`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if cmd.Flags().NFlag() == 0 {
			_ = cmd.Help()
			return
		}
		validateOrExit(cfg.RequireCodeInputs)
		logger := newLogger()
		defer func() { _ = logger.Sync() }()
		ctx, cancel := commandContext()
		defer cancel()

		c, err := newCoder(logger)
		if err != nil {
			exitFatal("%v", err)
		}
		rows, err := dataset.LoadCSV(cfg.Data.Path, dataset.LoadOptions{StringColumns: cfg.Data.StringColumns})
		if err != nil {
			exitFatal("loading data: %v", err)
		}

		r := runner.New(runner.WithLogger(logger))
		if _, err := r.Code(ctx, cfg, c, rows); err != nil {
			cancel()
			exitFatal("coding records: %v", err)
		}
		logger.Info("predictions written", zap.String("path", cfg.Coding.Out))
	},
}

func newCoder(logger *zap.Logger) (*coder.OpenAICoder, error) {
	return coder.NewOpenAICoder(coder.OpenAIConfig{
		APIKey:  os.Getenv(openAIKeyEnv),
		BaseURL: cfg.Coding.BaseURL,
		Model:   cfg.Coding.Model,
		TopN:    cfg.Coding.TopN,
	}, logger)
}

func addCodingFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&cfg.Coding.Model, flags.FlagModel, coder.DefaultModel, "Chat-completion model")
	cmd.Flags().StringVar(&cfg.Coding.BaseURL, flags.FlagBaseURL, "", "OpenAI-compatible endpoint (default: the OpenAI API)")
	cmd.Flags().IntVar(&cfg.Coding.TopN, flags.FlagTopN, cfg.Coding.TopN, "Ranked predictions kept per record")
	cmd.Flags().Float64Var(&cfg.Coding.Rate, flags.FlagRate, cfg.Coding.Rate, "Maximum coder calls per second")
	cmd.Flags().StringVar(&cfg.Coding.TitleColumn, flags.FlagJobTitleColumn, cfg.Coding.TitleColumn, "Column holding the job title")
	cmd.Flags().StringVar(&cfg.Coding.DescriptionColumn, flags.FlagJobDescriptionColumn, "", "Column holding the job description")
	cmd.Flags().StringVar(&cfg.Coding.IndustryColumn, flags.FlagJobIndustryColumn, "", "Column holding the industry")
	cmd.Flags().BoolVar(&cfg.Coding.KeepGoing, flags.FlagKeepGoing, false, "Leave predictions empty for records whose call fails instead of stopping")
}

func init() {
	rootCmd.AddCommand(codeCmd)
	addDataFlags(codeCmd)
	addCodingFlags(codeCmd)
	codeCmd.Flags().StringVar(&cfg.Coding.Out, flags.FlagOut, "", "CSV to write the coded records to")
	addTimeoutFlag(codeCmd)
}
