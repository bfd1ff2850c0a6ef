package cli

import (
	"fmt"
	"os"

	"occubench/internal/dataset"
	"occubench/internal/flags"
	"occubench/internal/runner"
	"occubench/internal/tableschema"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var validateCmd = &cobra.Command{
	Use:   "validate <csv_path> <schema_path>",
	Short: "Validate a benchmark CSV against a Table Schema",
	Long: `Validate a benchmark CSV against a Table Schema description (JSON or YAML)
and check that its record identifiers are unique and sequential.

Exit codes:
	0 = the file matches the schema and IDs are unique
	1 = schema errors or duplicate IDs
	3 = fatal error (unreadable file or schema)

Examples:
	occubench validate bench.csv schema.json
	occubench validate bench.csv schema.yaml --id-column record_id
`,
	Args: cobra.ArbitraryArgs,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		if len(args) != 2 {
			fmt.Fprintln(out, "Usage: occubench validate <csv_path> <schema_path>")
			return
		}
		validateOrExit(nil)
		logger := newLogger()
		defer func() { _ = logger.Sync() }()

		csvPath, schemaPath := args[0], args[1]
		fmt.Fprintf(out, "Validating %s against schema %s...\n\n", csvPath, schemaPath)

		schema, err := tableschema.Load(schemaPath)
		if err != nil {
			exitFatal("%v", err)
		}
		report, err := tableschema.ValidateFile(schema, csvPath, tableschema.Options{})
		if err != nil {
			exitFatal("%v", err)
		}
		fmt.Fprintln(out, "Table Schema validation report:")
		fmt.Fprintln(out, report.String())
		logger.Debug("schema validation finished", zap.Int("rows", report.Rows), zap.Int("errors", len(report.Errors)))

		rows, err := dataset.LoadCSV(csvPath, dataset.LoadOptions{})
		if err != nil {
			exitFatal("%v", err)
		}
		ids, err := tableschema.CheckIDs(rows, cfg.Data.IDColumn)
		if err != nil {
			exitFatal("ID column %q: %v", cfg.Data.IDColumn, err)
		}
		for _, line := range ids.Lines() {
			fmt.Fprintln(out, line)
		}

		if !report.Valid() || !ids.Unique {
			os.Exit(runner.ExitFailures)
		}
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().StringVar(&cfg.Data.IDColumn, flags.FlagIDColumn, cfg.Data.IDColumn, "Record identifier column")
}
