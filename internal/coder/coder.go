// Package coder hands job records to an occupation classifier and collects
// ranked code predictions.
package coder

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"occubench/internal/dataset"
	"occubench/internal/logging"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Job is the text a classifier sees for one record.
type Job struct {
	Title       string
	Description string
	Industry    string
}

func (j Job) Empty() bool {
	return strings.TrimSpace(j.Title+j.Description+j.Industry) == ""
}

// Coder predicts ranked occupation codes for a job, best first.
type Coder interface {
	Code(ctx context.Context, job Job) ([]string, error)
}

// CoderFunc adapts a function to Coder.
type CoderFunc func(ctx context.Context, job Job) ([]string, error)

func (f CoderFunc) Code(ctx context.Context, job Job) ([]string, error) {
	return f(ctx, job)
}

const PredictionPrefix = "prediction_"

// PredictionColumns returns prediction_1..prediction_n.
func PredictionColumns(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = PredictionPrefix + strconv.Itoa(i+1)
	}
	return out
}

// Fields names the row-set columns that make up a Job. Empty names are not
// read.
type Fields struct {
	Title       string
	Description string
	Industry    string
}

type RunOptions struct {
	Fields Fields

	// TopN is the number of prediction columns written (default 3).
	TopN int

	// Limiter paces calls to the coder. Nil means unlimited.
	Limiter *rate.Limiter

	// KeepGoing records missing predictions for rows whose call fails
	// instead of stopping.
	KeepGoing bool

	Logger *zap.Logger
}

// Stats summarises a CodeRows run.
type Stats struct {
	Rows    int
	Coded   int
	Skipped int
	Failed  int
}

// CodeRows calls c once per row, in order, and returns a copy of rows with
// prediction_1..N appended. Rows whose job text is empty are skipped. Missing
// ranks are written as missing values.
func CodeRows(ctx context.Context, c Coder, rows *dataset.RowSet, opts RunOptions) (*dataset.RowSet, Stats, error) {
	if c == nil {
		return nil, Stats{}, fmt.Errorf("nil coder")
	}
	if opts.TopN <= 0 {
		opts.TopN = 3
	}
	log := logging.OrNop(opts.Logger)

	for _, col := range []string{opts.Fields.Title, opts.Fields.Description, opts.Fields.Industry} {
		if col != "" && !rows.Has(col) {
			return nil, Stats{}, fmt.Errorf("job field: %w: %q", dataset.ErrUnknownColumn, col)
		}
	}

	stats := Stats{Rows: rows.Len()}
	preds := make([][]dataset.Value, opts.TopN)
	for i := range preds {
		preds[i] = make([]dataset.Value, rows.Len())
	}

	for i := 0; i < rows.Len(); i++ {
		job := jobAt(rows, i, opts.Fields)
		if job.Empty() {
			stats.Skipped++
			fill(preds, i, nil)
			continue
		}

		if opts.Limiter != nil {
			if err := opts.Limiter.Wait(ctx); err != nil {
				return nil, stats, err
			}
		}

		codes, err := c.Code(ctx, job)
		if err != nil {
			if ctx.Err() != nil || !opts.KeepGoing {
				return nil, stats, fmt.Errorf("row %d: %w", i+1, err)
			}
			log.Warn("coding failed", zap.Int("row", i+1), zap.Error(err))
			stats.Failed++
			fill(preds, i, nil)
			continue
		}
		log.Debug("coded", zap.Int("row", i+1), zap.Strings("codes", codes))
		stats.Coded++
		fill(preds, i, codes)
	}

	out := rows
	for rank, col := range PredictionColumns(opts.TopN) {
		var err error
		out, err = out.WithColumn(col, preds[rank])
		if err != nil {
			return nil, stats, err
		}
	}
	return out, stats, nil
}

func fill(preds [][]dataset.Value, row int, codes []string) {
	for rank := range preds {
		if rank < len(codes) && codes[rank] != "" {
			preds[rank][row] = dataset.Str(codes[rank])
		} else {
			preds[rank][row] = dataset.Missing()
		}
	}
}

func jobAt(rows *dataset.RowSet, i int, f Fields) Job {
	text := func(col string) string {
		if col == "" {
			return ""
		}
		v, err := rows.Value(i, col)
		if err != nil || v.IsMissing() {
			return ""
		}
		return strings.TrimSpace(v.String())
	}
	return Job{
		Title:       text(f.Title),
		Description: text(f.Description),
		Industry:    text(f.Industry),
	}
}
