package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

type Config struct {
	// MAINTAINER NOTE: If you add/change/remove config fields, keep the CLI
	// flags in internal/cli in sync and add the flag name to internal/flags.
	Data    Data
	Checks  Checks
	Scheme  Scheme
	Score   Score
	Coding  Coding
	Output  Output
	Runtime Runtime
}

type Data struct {
	// Path is the benchmark CSV (see --data).
	Path string

	// StringColumns are read as text, never coerced to numbers (see
	// --string-columns). Values may be repeated flags and/or comma-separated.
	StringColumns []string

	// IDColumn is the record identifier column (see --id-column).
	IDColumn string
}

type Checks struct {
	// Checklist is the YAML checklist file (see --checklist).
	Checklist string

	// Selector restricts the run to these check kinds (see --checks).
	// Empty means every entry of the checklist.
	Selector string

	// DryRun prints the resolved plan without loading data (see --dry-run).
	DryRun bool
}

type Scheme struct {
	// Source overrides the checklist's scheme source (see --scheme). A local
	// path, an http(s) URL or github:owner/repo/path[@ref].
	Source string

	// Sheet, CodeColumn and TitleColumn override the checklist's scheme
	// layout (see --scheme-sheet, --code-column, --title-column).
	Sheet       string
	CodeColumn  string
	TitleColumn string

	// CacheDir holds downloaded schemes (see --cache-dir). Empty means the
	// per-user cache directory.
	CacheDir string

	// Refresh downloads remote schemes again even when cached (see --refresh).
	Refresh bool
}

type Score struct {
	// Truth is the ground-truth column (see --truth).
	Truth string

	// Predictions are the prediction columns, primary first (see --pred).
	Predictions []string

	// Proportion divides counts by the number of rows (see --proportion).
	Proportion bool

	// Format is the score output format (see --format).
	// Allowed values: text, json.
	Format string
}

type Coding struct {
	// Model is the chat-completion model (see --model).
	Model string

	// BaseURL is an OpenAI-compatible endpoint (see --base-url).
	BaseURL string

	// TopN is how many ranked predictions to keep per row (see --top-n).
	TopN int

	// Rate is the maximum number of coder calls per second (see --rate).
	Rate float64

	// TitleColumn, DescriptionColumn and IndustryColumn name the job text
	// (see --job-title-column, --job-description-column, --job-industry-column).
	TitleColumn       string
	DescriptionColumn string
	IndustryColumn    string

	// KeepGoing records empty predictions for rows whose call fails instead
	// of stopping (see --keep-going).
	KeepGoing bool

	// Out is the CSV the coded rows are written to (see --out on `code`,
	// --predictions on `run`).
	Out string
}

type Output struct {
	// ConsoleFormat controls the human-facing console sink format (see --console-format).
	// Allowed values: text, json, ndjson.
	ConsoleFormat string

	// ConsoleFilterStatus filters console output by result status (see --console-filter-status).
	// Allowed values: PASS, FAIL.
	ConsoleFilterStatus []string

	// Report writes a Markdown report to this path (see --report).
	Report string

	// Out writes structured output to this path (see --out).
	Out string

	// OutFormat selects the format for --out (see --out-format).
	// Allowed values: json, ndjson. If empty, it is inferred from the --out file extension.
	OutFormat string

	// Emit writes an additional structured event stream to stdout (see --emit).
	// Allowed values: json, ndjson.
	Emit []string

	// NoConsole suppresses the console sink (see --no-console).
	NoConsole bool
}

type Runtime struct {
	// Timeout bounds the whole command (see --timeout). Must be > 0.
	Timeout time.Duration

	// Verbose enables debug logging (see --verbose).
	Verbose bool
}

func New() *Config {
	return &Config{
		Data: Data{
			IDColumn: "ID",
		},
		Score: Score{
			Format: "text",
		},
		Coding: Coding{
			TopN:        3,
			Rate:        2,
			TitleColumn: "job_title",
		},
		Output: Output{
			ConsoleFormat: "text",
		},
		Runtime: Runtime{
			Timeout: 30 * time.Minute,
		},
	}
}

// Validate normalises list and enum inputs and rejects values no command can
// use. Command-specific requirements are checked by the Require* methods.
func (c *Config) Validate() error {
	c.Data.StringColumns = splitCommaList(c.Data.StringColumns)
	c.Score.Predictions = splitCommaList(c.Score.Predictions)
	c.Output.Emit = splitCommaList(c.Output.Emit)
	c.Output.ConsoleFilterStatus = splitCommaList(c.Output.ConsoleFilterStatus)

	c.Data.Path = strings.TrimSpace(c.Data.Path)
	c.Checks.Checklist = strings.TrimSpace(c.Checks.Checklist)
	c.Scheme.Source = strings.TrimSpace(c.Scheme.Source)
	if strings.TrimSpace(c.Data.IDColumn) == "" {
		c.Data.IDColumn = "ID"
	}

	// Output validation
	c.Output.ConsoleFormat = normalizeEnumValue(c.Output.ConsoleFormat)
	if c.Output.ConsoleFormat == "" {
		return errors.New("--console-format must be one of: text, json, ndjson")
	}
	if c.Output.ConsoleFormat != "text" && c.Output.ConsoleFormat != "json" && c.Output.ConsoleFormat != "ndjson" {
		return fmt.Errorf("unsupported --console-format: %s (must be one of: text, json, ndjson)", c.Output.ConsoleFormat)
	}

	for i, emit := range c.Output.Emit {
		v := normalizeEnumValue(emit)
		if v != "json" && v != "ndjson" {
			return fmt.Errorf("unsupported --emit value: %s (must be one of: json, ndjson)", v)
		}
		c.Output.Emit[i] = v
	}

	for i, st := range c.Output.ConsoleFilterStatus {
		v := strings.ToUpper(strings.TrimSpace(st))
		if v != "PASS" && v != "FAIL" {
			return fmt.Errorf("unsupported --console-filter-status value: %s (must be one of: PASS, FAIL)", st)
		}
		c.Output.ConsoleFilterStatus[i] = v
	}

	if c.Output.Out != "" {
		c.Output.OutFormat = normalizeEnumValue(c.Output.OutFormat)
		if c.Output.OutFormat == "" {
			ext := strings.ToLower(filepath.Ext(c.Output.Out))
			switch ext {
			case ".json":
				c.Output.OutFormat = "json"
			case ".ndjson", ".jsonl":
				c.Output.OutFormat = "ndjson"
			default:
				if ext == "" {
					return errors.New("cannot infer output format from file extension (missing extension); use --out-format")
				}
				return fmt.Errorf("cannot infer output format from file extension %q; use --out-format", ext)
			}
		} else if c.Output.OutFormat != "json" && c.Output.OutFormat != "ndjson" {
			return fmt.Errorf("unsupported output format: %s", c.Output.OutFormat)
		}
	}

	// Score validation
	c.Score.Format = normalizeEnumValue(c.Score.Format)
	if c.Score.Format == "" {
		c.Score.Format = "text"
	}
	if c.Score.Format != "text" && c.Score.Format != "json" {
		return fmt.Errorf("unsupported --format: %s (must be one of: text, json)", c.Score.Format)
	}

	// Coding validation
	if c.Coding.TopN < 1 {
		return errors.New("--top-n must be >= 1")
	}
	if c.Coding.Rate <= 0 {
		return errors.New("--rate must be > 0")
	}

	// Runtime validation
	if c.Runtime.Timeout <= 0 {
		return errors.New("--timeout must be > 0")
	}
	return nil
}

// RequireCheckInputs reports what `check` and `run` are missing.
func (c *Config) RequireCheckInputs() error {
	if c.Checks.Checklist == "" {
		return errors.New("--checklist is required")
	}
	if c.Data.Path == "" && !c.Checks.DryRun {
		return errors.New("--data is required")
	}
	return nil
}

// RequireScoreInputs reports what `score` is missing.
func (c *Config) RequireScoreInputs() error {
	if c.Data.Path == "" {
		return errors.New("--data is required")
	}
	if strings.TrimSpace(c.Score.Truth) == "" {
		return errors.New("--truth is required")
	}
	if len(c.Score.Predictions) == 0 {
		return errors.New("at least one --pred column is required")
	}
	return nil
}

// RequireCodeInputs reports what `code` is missing.
func (c *Config) RequireCodeInputs() error {
	if c.Data.Path == "" {
		return errors.New("--data is required")
	}
	if c.Coding.Out == "" {
		return errors.New("an output CSV for predictions is required")
	}
	if c.Coding.TitleColumn == "" && c.Coding.DescriptionColumn == "" && c.Coding.IndustryColumn == "" {
		return errors.New("at least one job text column is required")
	}
	return nil
}

func normalizeEnumValue(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func splitCommaList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			p := strings.TrimSpace(part)
			if p == "" {
				continue
			}
			out = append(out, p)
		}
	}
	return out
}
