// Package score measures agreement between manually assigned codes and
// ranked predictions.
package score

import (
	"errors"
	"fmt"
	"strings"

	"occubench/internal/dataset"
)

type Mode string

const (
	Absolute   Mode = "absolute"
	Proportion Mode = "proportion"
)

// ParseMode accepts "absolute" and "proportion"; empty means Absolute.
func ParseMode(raw string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(raw))) {
	case "", Absolute:
		return Absolute, nil
	case Proportion:
		return Proportion, nil
	default:
		return "", fmt.Errorf("unsupported mode %q (must be one of: absolute, proportion)", raw)
	}
}

// Keys of Scores.Map.
const (
	KeyPrimaryMatch = "primary-match"
	KeyAnyMatch     = "any-match"
)

type Scores struct {
	Mode Mode `json:"mode"`
	// Rows is the number of records scored.
	Rows int `json:"rows"`
	// PrimaryMatch counts records whose truth equals the first prediction.
	PrimaryMatch float64 `json:"primary_match"`
	// AnyMatch counts records whose truth equals at least one prediction.
	AnyMatch float64 `json:"any_match"`
}

func (s Scores) Map() map[string]float64 {
	return map[string]float64{
		KeyPrimaryMatch: s.PrimaryMatch,
		KeyAnyMatch:     s.AnyMatch,
	}
}

// CountMatches compares column truth against the prediction columns, the
// first of which is the primary prediction. Missing values never match.
// In Proportion mode counts are divided by the number of records; an empty
// row set scores 0.
func CountMatches(rows *dataset.RowSet, truth string, predictions []string, mode Mode) (Scores, error) {
	if rows == nil {
		return Scores{}, errors.New("row set is nil")
	}
	if len(predictions) == 0 {
		return Scores{}, errors.New("at least one prediction column is required")
	}
	if mode == "" {
		mode = Absolute
	}
	if mode != Absolute && mode != Proportion {
		return Scores{}, fmt.Errorf("unsupported mode %q", mode)
	}

	truthValues, err := rows.Column(truth)
	if err != nil {
		return Scores{}, fmt.Errorf("truth column: %w", err)
	}
	predValues := make([][]dataset.Value, len(predictions))
	for i, col := range predictions {
		predValues[i], err = rows.Column(col)
		if err != nil {
			return Scores{}, fmt.Errorf("prediction column: %w", err)
		}
	}

	var primary, anyMatch int
	for i, tv := range truthValues {
		if tv.Equal(predValues[0][i]) {
			primary++
		}
		for _, pv := range predValues {
			if tv.Equal(pv[i]) {
				anyMatch++
				break
			}
		}
	}

	s := Scores{Mode: mode, Rows: rows.Len(), PrimaryMatch: float64(primary), AnyMatch: float64(anyMatch)}
	if mode == Proportion {
		if s.Rows == 0 {
			s.PrimaryMatch, s.AnyMatch = 0, 0
		} else {
			s.PrimaryMatch /= float64(s.Rows)
			s.AnyMatch /= float64(s.Rows)
		}
	}
	return s, nil
}
