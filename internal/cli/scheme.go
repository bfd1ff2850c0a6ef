package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"occubench/internal/config"
	"occubench/internal/fetcher"
	"occubench/internal/flags"
	"occubench/internal/runner"
	"occubench/internal/scheme"

	"github.com/spf13/cobra"
)

var schemeExportOut string

var schemeCmd = &cobra.Command{
	Use:   "scheme",
	Short: "Download and reshape reference schemes",
	Long: `Download reference classification schemes and reshape them for reuse.

A scheme source is a local path, an http(s) URL or github:owner/repo/path[@ref].

Examples:
  occubench scheme fetch https://example.org/isco08.xlsx
  occubench scheme export github:acme/schemes/isco08.xlsx@v1 --out isco08.csv
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var schemeFetchCmd = &cobra.Command{
	Use:   "fetch <source>",
	Short: "Download a scheme into the cache and print its local path",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		validateOrExit(nil)
		logger := newLogger()
		defer func() { _ = logger.Sync() }()
		ctx, cancel := commandContext()
		defer cancel()

		src, err := fetcher.ParseSource(args[0])
		if err != nil {
			exitFatal("%v", err)
		}
		f, err := newFetcher(ctx, logger)
		if err != nil {
			exitFatal("%v", err)
		}
		path, err := f.Fetch(ctx, src)
		if err != nil {
			exitFatal("%v", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
	},
}

var schemeExportCmd = &cobra.Command{
	Use:   "export <source>",
	Short: "Export a scheme as a two-column code,title CSV",
	Long: `Load a scheme (xlsx or CSV, local or remote) and write it as a code,title CSV
to stdout or --out. The export can be used as a local scheme source.

Examples:
  occubench scheme export isco08.xlsx --scheme-sheet "ISCO-08 EN Struct and defin" \
    --code-column "ISCO 08 Code" --title-column "Title EN" --out isco08.csv
`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		validateOrExit(nil)
		logger := newLogger()
		defer func() { _ = logger.Sync() }()
		ctx, cancel := commandContext()
		defer cancel()

		f, err := newFetcher(ctx, logger)
		if err != nil {
			exitFatal("%v", err)
		}
		r := runner.New(runner.WithFetcher(f), runner.WithLogger(logger))
		set, err := r.LoadScheme(ctx, config.SchemeSettings{
			Source:      args[0],
			Sheet:       cfg.Scheme.Sheet,
			CodeColumn:  cfg.Scheme.CodeColumn,
			TitleColumn: cfg.Scheme.TitleColumn,
		}, "")
		if err != nil {
			exitFatal("loading scheme: %v", err)
		}

		if err := exportScheme(cmd.OutOrStdout(), schemeExportOut, set); err != nil {
			exitFatal("%v", err)
		}
		if schemeExportOut != "" {
			fmt.Fprintf(os.Stderr, "Wrote %d codes to %s\n", set.Len(), schemeExportOut)
		}
	},
}

func exportScheme(stdout io.Writer, path string, set *scheme.ReferenceSet) error {
	if path == "" {
		return scheme.WriteCSV(stdout, set)
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	if err := scheme.WriteCSV(out, set); err != nil {
		_ = out.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return out.Close()
}

func init() {
	rootCmd.AddCommand(schemeCmd)
	schemeCmd.AddCommand(schemeFetchCmd)
	schemeCmd.AddCommand(schemeExportCmd)

	for _, c := range []*cobra.Command{schemeFetchCmd, schemeExportCmd} {
		c.Flags().StringVar(&cfg.Scheme.CacheDir, flags.FlagCacheDir, "", "Directory for downloaded schemes (default: per-user cache)")
		c.Flags().BoolVar(&cfg.Scheme.Refresh, flags.FlagRefresh, false, "Download the scheme again even when cached")
		addTimeoutFlag(c)
	}
	schemeExportCmd.Flags().StringVar(&cfg.Scheme.Sheet, flags.FlagSchemeSheet, "", "Worksheet of an xlsx scheme (default: first sheet)")
	schemeExportCmd.Flags().StringVar(&cfg.Scheme.CodeColumn, flags.FlagCodeColumn, "", "Scheme column holding the codes (default: \""+scheme.DefaultCodeColumn+"\")")
	schemeExportCmd.Flags().StringVar(&cfg.Scheme.TitleColumn, flags.FlagTitleColumn, "", "Scheme column holding the titles (default: \""+scheme.DefaultTitleColumn+"\")")
	schemeExportCmd.Flags().StringVar(&schemeExportOut, flags.FlagOut, "", "Write the CSV to this path instead of stdout")
}
