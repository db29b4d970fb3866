package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/apuntia/apuntia/internal/domain/model"
	"github.com/apuntia/apuntia/internal/domain/rating"
	"github.com/apuntia/apuntia/pkg/metrics"
)

// ratingKey identifies one user's vote on one note.
type ratingKey struct {
	noteID string
	userID string
}

// MemStore is the in-memory Store implementation used by default and in
// tests. Reads take the store-wide RWMutex; the vote upsert additionally
// takes a per-note mutex so upsert-then-recompute is serialized per note.
type MemStore struct {
	mu       sync.RWMutex
	notes    map[string]*model.Note
	ratings  map[ratingKey]*model.Rating
	comments map[string]*model.Comment
	reports  map[string]*model.Report

	voteMu sync.Mutex
	locks  map[string]*sync.Mutex // per-note rating locks

	closed bool
	now    func() time.Time
}

// MemOption applies a configuration option to the MemStore.
type MemOption func(*MemStore)

// WithClock overrides the store clock, used by tests for deterministic
// timestamps.
func WithClock(now func() time.Time) MemOption {
	return func(s *MemStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewMemStore creates an empty in-memory store.
func NewMemStore(opts ...MemOption) *MemStore {
	s := &MemStore{
		notes:    make(map[string]*model.Note),
		ratings:  make(map[ratingKey]*model.Rating),
		comments: make(map[string]*model.Comment),
		reports:  make(map[string]*model.Report),
		locks:    make(map[string]*sync.Mutex),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// noteLock returns the rating mutex for a note, creating it on first use.
func (s *MemStore) noteLock(noteID string) *sync.Mutex {
	s.voteMu.Lock()
	defer s.voteMu.Unlock()
	l, ok := s.locks[noteID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[noteID] = l
	}
	return l
}

// CreateNote persists a new note, assigning ID and timestamps.
func (s *MemStore) CreateNote(_ context.Context, n *model.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrAlreadyClosed
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	ts := s.now()
	n.CreatedAt = ts
	n.UpdatedAt = ts
	cp := *n
	s.notes[n.ID] = &cp
	metrics.RecordNoteCreated()
	return nil
}

// GetNote returns a copy of the stored note.
func (s *MemStore) GetNote(_ context.Context, id string) (model.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.notes[id]
	if !ok {
		return model.Note{}, ErrNotFound
	}
	return *n, nil
}

// ListNotes returns notes matching the filter, newest first.
func (s *MemStore) ListNotes(_ context.Context, f NoteFilter) ([]model.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Note, 0, len(s.notes))
	for _, n := range s.notes {
		if f.Subject != "" && n.Subject != f.Subject {
			continue
		}
		if f.State != "" && n.Moderation.State != f.State {
			continue
		}
		if f.AuthorEmail != "" && n.AuthorEmail != f.AuthorEmail {
			continue
		}
		out = append(out, *n)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// DeleteNote removes the note and cascades its ratings and comments.
func (s *MemStore) DeleteNote(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.notes[id]; !ok {
		return ErrNotFound
	}
	delete(s.notes, id)
	for k := range s.ratings {
		if k.noteID == id {
			delete(s.ratings, k)
		}
	}
	for cid, c := range s.comments {
		if c.NoteID == id {
			delete(s.comments, cid)
		}
	}
	s.voteMu.Lock()
	delete(s.locks, id)
	s.voteMu.Unlock()
	return nil
}

// IncrementViews bumps the view counter.
func (s *MemStore) IncrementViews(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notes[id]
	if !ok {
		return ErrNotFound
	}
	n.Views++
	return nil
}

// IncrementDownloads bumps the download counter.
func (s *MemStore) IncrementDownloads(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notes[id]
	if !ok {
		return ErrNotFound
	}
	n.Downloads++
	metrics.RecordNoteDownload()
	return nil
}

// RateNote upserts the vote and recomputes the note's aggregate under the
// note's rating lock, so concurrent votes on the same note serialize and the
// written-back aggregate always reflects a complete vote set.
func (s *MemStore) RateNote(_ context.Context, noteID, userID string, value int) (rating.Summary, error) {
	if err := rating.ValidateValue(value); err != nil {
		return rating.Summary{}, err
	}

	lock := s.noteLock(noteID)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notes[noteID]
	if !ok {
		return rating.Summary{}, ErrNotFound
	}

	key := ratingKey{noteID: noteID, userID: userID}
	ts := s.now()
	if r, exists := s.ratings[key]; exists {
		r.Value = value
		r.UpdatedAt = ts
	} else {
		s.ratings[key] = &model.Rating{
			NoteID:    noteID,
			UserID:    userID,
			Value:     value,
			CreatedAt: ts,
			UpdatedAt: ts,
		}
	}

	values := make([]int, 0, 8)
	for k, r := range s.ratings {
		if k.noteID == noteID {
			values = append(values, r.Value)
		}
	}
	summary := rating.Aggregate(values)
	n.RatingAvg = summary.Avg
	n.RatingCount = summary.Count
	n.UpdatedAt = ts
	metrics.RecordVote()
	return summary, nil
}

// UserRating returns the acting user's vote on a note.
func (s *MemStore) UserRating(_ context.Context, noteID, userID string) (model.Rating, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.ratings[ratingKey{noteID: noteID, userID: userID}]
	if !ok {
		return model.Rating{}, ErrNotFound
	}
	return *r, nil
}

// ListMetrics returns ranking snapshots for published notes.
func (s *MemStore) ListMetrics(_ context.Context, subject string) ([]model.NoteMetrics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.NoteMetrics, 0, len(s.notes))
	for _, n := range s.notes {
		if n.Moderation.State != model.NotePublished {
			continue
		}
		if subject != "" && n.Subject != subject {
			continue
		}
		out = append(out, n.Metrics())
	}
	// Deterministic snapshot order; ranking re-sorts by score anyway.
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// SetNoteState applies an already-validated moderation transition.
func (s *MemStore) SetNoteState(_ context.Context, id string, to model.NoteState, reason, decidedBy string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notes[id]
	if !ok {
		return ErrNotFound
	}
	n.Moderation = model.Moderation{
		State:     to,
		Reason:    reason,
		DecidedBy: decidedBy,
		DecidedAt: s.now(),
	}
	n.UpdatedAt = s.now()
	return nil
}

// AddComment persists a new comment.
func (s *MemStore) AddComment(_ context.Context, c *model.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.notes[c.NoteID]; !ok {
		return ErrNotFound
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt = s.now()
	cp := *c
	s.comments[c.ID] = &cp
	return nil
}

// ListComments returns a note's comments, oldest first.
func (s *MemStore) ListComments(_ context.Context, noteID string, visibleOnly bool) ([]model.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Comment, 0, 8)
	for _, c := range s.comments {
		if c.NoteID != noteID {
			continue
		}
		if visibleOnly && c.State != model.CommentVisible {
			continue
		}
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// GetComment returns a copy of the stored comment.
func (s *MemStore) GetComment(_ context.Context, id string) (model.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.comments[id]
	if !ok {
		return model.Comment{}, ErrNotFound
	}
	return *c, nil
}

// SetCommentState applies an already-validated transition.
func (s *MemStore) SetCommentState(_ context.Context, id string, to model.CommentState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.comments[id]
	if !ok {
		return ErrNotFound
	}
	c.State = to
	return nil
}

// AddReport persists a new open report.
func (s *MemStore) AddReport(_ context.Context, r *model.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	r.Status = model.ReportOpen
	r.CreatedAt = s.now()
	cp := *r
	s.reports[r.ID] = &cp
	return nil
}

// ListOpenReports returns unresolved reports, oldest first.
func (s *MemStore) ListOpenReports(_ context.Context) ([]model.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Report, 0, len(s.reports))
	for _, r := range s.reports {
		if r.Status == model.ReportOpen {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// ResolveReport moves an open report to reviewed or dismissed.
func (s *MemStore) ResolveReport(_ context.Context, id string, status model.ReportStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reports[id]
	if !ok {
		return ErrNotFound
	}
	if r.Status != model.ReportOpen {
		return ErrReportResolved
	}
	r.Status = status
	return nil
}

// CountNotes returns the number of stored notes.
func (s *MemStore) CountNotes(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.notes)
}

// Close marks the store closed.
func (s *MemStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
