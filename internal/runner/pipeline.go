package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"occubench/internal/coder"
	"occubench/internal/config"
	"occubench/internal/dataset"
	"occubench/internal/score"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Pipeline runs the checklist and, only when every check passed, codes the
// records with c, writes them to cfg.Coding.Out and scores the predictions
// against cfg.Score.Truth when it is set.
func (r *Runner) Pipeline(ctx context.Context, cfg *config.Config, c coder.Coder) int {
	var extra []string
	if cfg.Score.Truth != "" {
		extra = append(extra, cfg.Score.Truth)
	}
	outcome := r.Check(ctx, cfg, extra...)
	if outcome.ExitCode != ExitOK || cfg.Checks.DryRun {
		if outcome.ExitCode == ExitFailures {
			fmt.Fprintln(r.stderr, "Validation report has failed checks; not coding.")
		}
		return outcome.ExitCode
	}

	coded, err := r.Code(ctx, cfg, c, outcome.Rows)
	if err != nil {
		fmt.Fprintf(r.stderr, "Error coding records: %v\n", err)
		return ExitFatal
	}

	if cfg.Score.Truth == "" {
		return ExitOK
	}
	mode := score.Absolute
	if cfg.Score.Proportion {
		mode = score.Proportion
	}
	scores, err := score.CountMatches(coded, cfg.Score.Truth, coder.PredictionColumns(cfg.Coding.TopN), mode)
	if err != nil {
		fmt.Fprintf(r.stderr, "Error scoring predictions: %v\n", err)
		return ExitFatal
	}
	if err := WriteScores(r.stdout, scores, cfg.Score.Format); err != nil {
		fmt.Fprintf(r.stderr, "Error writing scores: %v\n", err)
		return ExitFatal
	}
	return ExitOK
}

// Code runs c over rows under the configured rate limit and writes the
// result, prediction columns included, to cfg.Coding.Out.
func (r *Runner) Code(ctx context.Context, cfg *config.Config, c coder.Coder, rows *dataset.RowSet) (*dataset.RowSet, error) {
	limiter := rate.NewLimiter(rate.Limit(cfg.Coding.Rate), 1)

	r.progress(cfg, "Coding %d records...", rows.Len())
	coded, stats, err := coder.CodeRows(ctx, c, rows, coder.RunOptions{
		Fields: coder.Fields{
			Title:       cfg.Coding.TitleColumn,
			Description: cfg.Coding.DescriptionColumn,
			Industry:    cfg.Coding.IndustryColumn,
		},
		TopN:      cfg.Coding.TopN,
		Limiter:   limiter,
		KeepGoing: cfg.Coding.KeepGoing,
		Logger:    r.logger,
	})
	if err != nil {
		return nil, err
	}
	r.logger.Info("coding finished",
		zap.Int("rows", stats.Rows),
		zap.Int("coded", stats.Coded),
		zap.Int("skipped", stats.Skipped),
		zap.Int("failed", stats.Failed))

	if err := writeRowsFile(cfg.Coding.Out, coded); err != nil {
		return nil, err
	}
	return coded, nil
}

func writeRowsFile(path string, rows *dataset.RowSet) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create predictions file: %w", err)
	}
	if err := dataset.WriteCSV(f, rows); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// WriteScores prints scores as "primary-match: N" lines or as a JSON
// object keyed the same way.
func WriteScores(w io.Writer, s score.Scores, format string) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s.Map())
	}
	for _, key := range []string{score.KeyPrimaryMatch, score.KeyAnyMatch} {
		if _, err := fmt.Fprintf(w, "%s: %s\n", key, formatScore(s.Map()[key], s.Mode)); err != nil {
			return err
		}
	}
	return nil
}

func formatScore(v float64, mode score.Mode) string {
	if mode == score.Proportion {
		return strconv.FormatFloat(v, 'f', 4, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
