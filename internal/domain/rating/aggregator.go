// Package rating computes a note's denormalized rating aggregate from the
// full set of its individual votes.
//
// Aggregation is a pure function. Callers are responsible for two guarantees:
// the input must be a transactionally consistent snapshot of all ratings for
// the note, and the write-back of the result must be serialized per note so
// no concurrent reader observes a stale aggregate. The store implementations
// provide this (per-note mutex in memory, a single transaction in Postgres).
package rating

import (
	"errors"
	"fmt"
	"math"
)

// Rating value bounds.
const (
	MinValue = 1
	MaxValue = 5
)

// ErrInvalidValue reports a vote outside the 1-5 range.
var ErrInvalidValue = errors.New("invalid rating value")

// Summary is the recomputed aggregate for one note.
type Summary struct {
	Avg   float64
	Count int
}

// ValidateValue rejects vote values outside {1..5}.
func ValidateValue(value int) error {
	if value < MinValue || value > MaxValue {
		return fmt.Errorf("%w: %d", ErrInvalidValue, value)
	}
	return nil
}

// Aggregate computes the arithmetic mean, rounded to 2 decimal places, and
// the count of the given votes. An empty set yields {Avg: 0, Count: 0}.
// Order of the input is irrelevant.
func Aggregate(values []int) Summary {
	if len(values) == 0 {
		return Summary{}
	}
	var sum int
	for _, v := range values {
		sum += v
	}
	avg := float64(sum) / float64(len(values))
	return Summary{
		Avg:   round2(avg),
		Count: len(values),
	}
}

// round2 rounds half away from zero to 2 decimal places.
func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
