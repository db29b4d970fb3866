// Package scoring converts a note's raw counters into a comparable ranking
// score under a selected metric.
package scoring

import (
	"errors"
	"fmt"
)

// Metric selects how notes are scored.
type Metric string

// Supported metrics.
const (
	MetricRating    Metric = "rating"
	MetricDownloads Metric = "downloads"
)

// Default smoothing configuration.
const (
	// DefaultMinVotes is m, the number of virtual votes pulling a note
	// toward the prior mean.
	DefaultMinVotes = 5.0
	// DefaultPriorMean is the neutral prior used when no candidate in the
	// window has any votes.
	DefaultPriorMean = 3.5
)

// ErrInvalidMetric reports an unsupported metric label.
var ErrInvalidMetric = errors.New("invalid metric")

// ParseMetric validates a metric label.
func ParseMetric(s string) (Metric, error) {
	switch Metric(s) {
	case MetricRating, MetricDownloads:
		return Metric(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMetric, s)
	}
}

// Option applies a configuration option to the WeightedScorer.
type Option func(*WeightedScorer)

// WithMinVotes sets m, the smoothing constant.
func WithMinVotes(m float64) Option {
	return func(s *WeightedScorer) {
		if m > 0 {
			s.minVotes = m
		}
	}
}

// WithFallbackPrior sets the prior mean used when no note in the window has
// any votes.
func WithFallbackPrior(c float64) Option {
	return func(s *WeightedScorer) {
		if c > 0 {
			s.fallbackPrior = c
		}
	}
}

// WeightedScorer computes Bayesian weighted rating scores so that a note with
// a handful of 5-star votes does not outrank a note with hundreds of
// 4.5-star votes:
//
//	score = (v/(v+m))*R + (m/(v+m))*C
//
// R is the note's own average, v its vote count, C the prior mean over the
// scoring window, and m the virtual-vote smoothing constant. A note with
// v == 0 scores exactly C.
//
// The downloads metric is the raw counter with no smoothing; download counts
// carry no per-vote confidence problem the way star ratings do.
type WeightedScorer struct {
	minVotes      float64
	fallbackPrior float64
}

// NewWeightedScorer creates a scorer with the default smoothing constants.
func NewWeightedScorer(opts ...Option) *WeightedScorer {
	s := &WeightedScorer{
		minVotes:      DefaultMinVotes,
		fallbackPrior: DefaultPriorMean,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MinVotes returns the configured smoothing constant m.
func (s *WeightedScorer) MinVotes() float64 { return s.minVotes }

// FallbackPrior returns the prior mean used for windows without any votes.
func (s *WeightedScorer) FallbackPrior() float64 { return s.fallbackPrior }

// RatingScore computes the weighted rating score for one note.
// Monotonic in r for fixed v; for v == 0 the result is exactly prior.
func (s *WeightedScorer) RatingScore(r float64, v int, prior float64) float64 {
	vf := float64(v)
	return (vf/(vf+s.minVotes))*r + (s.minVotes/(vf+s.minVotes))*prior
}

// PriorMean computes C over the candidate window: the mean of ratingAvg
// across notes with at least one vote, falling back to the configured
// neutral prior when none qualify.
func (s *WeightedScorer) PriorMean(avgs []float64, counts []int) float64 {
	var sum float64
	var n int
	for i, c := range counts {
		if c > 0 {
			sum += avgs[i]
			n++
		}
	}
	if n == 0 {
		return s.fallbackPrior
	}
	return sum / float64(n)
}
