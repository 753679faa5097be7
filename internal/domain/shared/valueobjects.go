// Package shared contains common domain types, errors, events, and contracts
// that are used across all domain packages.
package shared

import (
	"fmt"
	"math"
)

// ─────────────────────────────────────────────
// Score Value Object
// ─────────────────────────────────────────────

// Score represents an assignment score as a percentage (0-100).
type Score float64

// IsValid checks if the score is within the valid range.
func (s Score) IsValid() bool {
	return s >= 0 && s <= 100
}

// Clamp returns the score forced into the valid range.
// Out-of-range measurements are coerced, not rejected.
func (s Score) Clamp() Score {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}

// Float returns the underlying float64 value.
func (s Score) Float() float64 {
	return float64(s)
}

// Rounded returns the score rounded to the nearest whole percent,
// the form used in human-readable evidence strings.
func (s Score) Rounded() int {
	return int(math.Round(float64(s)))
}

// String returns the string representation, e.g. "85%".
func (s Score) String() string {
	return fmt.Sprintf("%d%%", s.Rounded())
}

// NewScore creates a Score with validation.
func NewScore(value float64) (Score, error) {
	s := Score(value)
	if !s.IsValid() {
		return 0, WrapError("shared", "NewScore", ErrValueOutOfRange,
			fmt.Sprintf("score must be between 0 and 100, got %.2f", value), nil)
	}
	return s, nil
}

// ─────────────────────────────────────────────
// HintRate Value Object
// ─────────────────────────────────────────────

// HintRate represents the share of questions a student used hints on (0-1).
type HintRate float64

// IsValid checks if the rate is within the valid range.
func (r HintRate) IsValid() bool {
	return r >= 0 && r <= 1
}

// Clamp returns the rate forced into the valid range.
func (r HintRate) Clamp() HintRate {
	if r < 0 {
		return 0
	}
	if r > 1 {
		return 1
	}
	return r
}

// Float returns the underlying float64 value.
func (r HintRate) Float() float64 {
	return float64(r)
}

// Percent returns the rate as a whole percentage (0-100),
// the form used in human-readable evidence strings.
func (r HintRate) Percent() int {
	return int(math.Round(float64(r) * 100))
}

// String returns the string representation, e.g. "75%".
func (r HintRate) String() string {
	return fmt.Sprintf("%d%%", r.Percent())
}

// NewHintRate creates a HintRate with validation.
func NewHintRate(value float64) (HintRate, error) {
	r := HintRate(value)
	if !r.IsValid() {
		return 0, WrapError("shared", "NewHintRate", ErrValueOutOfRange,
			fmt.Sprintf("hint rate must be between 0 and 1, got %.2f", value), nil)
	}
	return r, nil
}

// HintRateOf derives the hint usage rate from raw counters.
// A non-positive question count yields a zero rate.
func HintRateOf(hintsUsed, questionCount int) HintRate {
	if questionCount <= 0 || hintsUsed <= 0 {
		return 0
	}
	return HintRate(float64(hintsUsed) / float64(questionCount)).Clamp()
}
