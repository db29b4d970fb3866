// Package ranking produces the ordered, rank-annotated note list for a
// metric, time window, and optional subject filter.
//
// The computer is stateless and reads immutable metric snapshots; it is safe
// to call concurrently. Determinism: ordering is score descending with ties
// broken by note id ascending, so two invocations over the same snapshot
// produce identical output.
package ranking

import (
	"fmt"
	"sort"
	"time"

	"github.com/apuntia/apuntia/internal/domain/model"
	"github.com/apuntia/apuntia/internal/domain/scoring"
	"github.com/apuntia/apuntia/internal/domain/subjects"
	"github.com/apuntia/apuntia/internal/domain/types"
)

// Query limits and defaults.
const (
	DefaultLimit = 30
	MaxLimit     = 100

	// maxCandidates bounds the snapshot size; larger sets must be
	// pre-filtered by the store (e.g. by subject).
	maxCandidates = 100_000
)

// validDays enumerates the accepted trailing windows.
var validDays = map[int]struct{}{7: {}, 30: {}, 90: {}}

// Query describes one ranking request.
type Query struct {
	Metric  scoring.Metric
	Days    int
	Subject string // optional; must be a catalog subject when set
	Limit   int    // 0 means DefaultLimit; otherwise clamped to [1, MaxLimit]
}

// Validate rejects unsupported metric, days, and subject values. Invalid
// days are an explicit error rather than being coerced; unknown subjects are
// rejected rather than silently ignored. Limit is not validated here because
// it is clamped, never rejected.
func (q Query) Validate() error {
	if _, err := scoring.ParseMetric(string(q.Metric)); err != nil {
		return err
	}
	if _, ok := validDays[q.Days]; !ok {
		return fmt.Errorf("%w: %d (want 7, 30 or 90)", ErrInvalidDays, q.Days)
	}
	if q.Subject != "" && !subjects.Valid(q.Subject) {
		return fmt.Errorf("%w: %q", ErrSubjectNotRecognized, q.Subject)
	}
	return nil
}

// limit returns the effective result cap.
func (q Query) limit() int {
	switch {
	case q.Limit <= 0:
		return DefaultLimit
	case q.Limit > MaxLimit:
		return MaxLimit
	default:
		return q.Limit
	}
}

// Option applies a configuration option to the Computer.
type Option func(*Computer)

// WithScorer sets a custom weighted scorer.
func WithScorer(s *scoring.WeightedScorer) Option {
	return func(c *Computer) {
		if s != nil {
			c.scorer = s
		}
	}
}

// Computer ranks note metric snapshots.
type Computer struct {
	scorer *scoring.WeightedScorer
}

// NewComputer creates a ranking computer with default scoring constants.
func NewComputer(opts ...Option) *Computer {
	c := &Computer{scorer: scoring.NewWeightedScorer()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// scored pairs a snapshot with its computed score.
type scored struct {
	note  model.NoteMetrics
	score float64
}

// Rank computes the ranked list for q over the given snapshot at time now.
//
// The current window carries no age restriction: every candidate with
// createdAt <= now qualifies. The previous window is restricted to notes
// created in [now-2*days, now-days) and is used only for prevRank; a note
// absent from it gets a nil PrevRank.
func (c *Computer) Rank(notes []model.NoteMetrics, q Query, now time.Time) ([]types.RankedEntry, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if len(notes) > maxCandidates {
		return nil, fmt.Errorf("%w: %d notes (max %d)", ErrTooManyCandidates, len(notes), maxCandidates)
	}

	current := c.filter(notes, q.Subject, func(createdAt time.Time) bool {
		return !createdAt.After(now)
	})

	window := time.Duration(q.Days) * 24 * time.Hour
	prevStart := now.Add(-2 * window)
	prevEnd := now.Add(-window)
	previous := c.filter(notes, q.Subject, func(createdAt time.Time) bool {
		return !createdAt.Before(prevStart) && createdAt.Before(prevEnd)
	})

	ranked := c.order(current, q.Metric)
	if len(ranked) > q.limit() {
		ranked = ranked[:q.limit()]
	}

	prevRanks := make(map[string]int, len(previous))
	for i, s := range c.order(previous, q.Metric) {
		prevRanks[s.note.ID] = i + 1
	}

	out := make([]types.RankedEntry, len(ranked))
	for i, s := range ranked {
		entry := types.RankedEntry{
			Rank:        i + 1,
			ID:          s.note.ID,
			Title:       s.note.Title,
			Subject:     s.note.Subject,
			AuthorName:  s.note.AuthorName,
			Score:       s.score,
			RatingAvg:   s.note.RatingAvg,
			RatingCount: s.note.RatingCount,
			Downloads:   s.note.Downloads,
		}
		if r, ok := prevRanks[s.note.ID]; ok {
			prev := r
			entry.PrevRank = &prev
		}
		out[i] = entry
	}
	return out, nil
}

// filter selects candidates by subject and creation-time predicate.
func (c *Computer) filter(notes []model.NoteMetrics, subject string, within func(time.Time) bool) []model.NoteMetrics {
	out := make([]model.NoteMetrics, 0, len(notes))
	for _, n := range notes {
		if subject != "" && n.Subject != subject {
			continue
		}
		if !within(n.CreatedAt) {
			continue
		}
		out = append(out, n)
	}
	return out
}

// order scores the candidates under metric and sorts them score descending,
// id ascending on ties.
func (c *Computer) order(notes []model.NoteMetrics, metric scoring.Metric) []scored {
	out := make([]scored, len(notes))
	if metric == scoring.MetricRating {
		avgs := make([]float64, len(notes))
		counts := make([]int, len(notes))
		for i, n := range notes {
			avgs[i] = n.RatingAvg
			counts[i] = n.RatingCount
		}
		prior := c.scorer.PriorMean(avgs, counts)
		for i, n := range notes {
			out[i] = scored{note: n, score: c.scorer.RatingScore(n.RatingAvg, n.RatingCount, prior)}
		}
	} else {
		for i, n := range notes {
			out[i] = scored{note: n, score: float64(n.Downloads)}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].score != out[j].score {
			return out[i].score > out[j].score
		}
		return out[i].note.ID < out[j].note.ID
	})
	return out
}
