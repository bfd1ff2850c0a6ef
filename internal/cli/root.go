package cli

import (
	"context"
	"fmt"
	"os"

	"occubench/internal/config"
	"occubench/internal/fetcher"
	gh "occubench/internal/github"
	"occubench/internal/logging"
	"occubench/internal/runner"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	buildVersion = "dev"
	buildCommit  = "unknown"
	buildDate    = "unknown"
)

var cfg = config.New()

var rootCmd = &cobra.Command{
	Use:   "occubench",
	Short: "Validate, code and score occupation-coding benchmark files",
	Long: `occubench validates benchmark CSVs of manually coded job records, codes them
with an LLM and scores the predictions against the manual codes.

Examples:
	# Show available commands and global flags
	occubench --help

	# Validate a benchmark against a Table Schema
	occubench validate bench.csv schema.json

	# Run a checklist
	occubench check --data bench.csv --checklist checks.yaml

	# List check kinds
	occubench checks list

	# Print build info
	occubench version

Output:
	By default, commands write human-readable output to stdout and diagnostics
	to stderr. Some commands support structured output via emitter flags (see
	each command's --help).`,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&cfg.Runtime.Verbose, "verbose", false, "Enable verbose logging (prints every download and per-row coding detail)")
}

func SetBuildInfo(version, commit, date string) {
	if version != "" {
		buildVersion = version
	}
	if commit != "" {
		buildCommit = commit
	}
	if date != "" {
		buildDate = date
	}

	rootCmd.Version = fmt.Sprintf("%s (%s) %s", buildVersion, buildCommit, buildDate)
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

func BuildInfo() (version, commit, date string) {
	return buildVersion, buildCommit, buildDate
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// exitFatal prints err the way every command reports unusable input and
// exits with the fatal code.
func exitFatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(runner.ExitFatal)
}

// validateOrExit normalises cfg and runs the command's own input check.
func validateOrExit(require func() error) {
	if err := cfg.Validate(); err != nil {
		exitFatal("%v", err)
	}
	if require != nil {
		if err := require(); err != nil {
			exitFatal("%v", err)
		}
	}
}

func newLogger() *zap.Logger {
	return logging.New(cfg.Runtime.Verbose, os.Stderr)
}

func commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), cfg.Runtime.Timeout)
}

// newFetcher builds the scheme fetcher for cfg.Scheme. A GitHub token is
// optional: without one, public repositories are read anonymously.
func newFetcher(ctx context.Context, logger *zap.Logger) (*fetcher.Fetcher, error) {
	dir := cfg.Scheme.CacheDir
	if dir == "" {
		d, err := fetcher.DefaultCacheDir()
		if err != nil {
			return nil, fmt.Errorf("resolve cache directory: %w", err)
		}
		dir = d
	}

	token, source, err := gh.ResolveAuthToken(ctx, "")
	if err != nil {
		logger.Debug("no GitHub token", zap.Error(err))
	} else if source != gh.AuthTokenSourceNone {
		logger.Debug("GitHub token resolved", zap.String("source", string(source)))
	}
	client, err := gh.NewClient(ctx, token, gh.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub client: %w", err)
	}

	return fetcher.NewFetcher(dir,
		fetcher.WithGitHubClient(client),
		fetcher.WithRefresh(cfg.Scheme.Refresh),
		fetcher.WithLogger(logger),
	), nil
}
