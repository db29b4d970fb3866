// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/apuntia/apuntia/internal/adapters/cache"
	"github.com/apuntia/apuntia/internal/adapters/repository"
	"github.com/apuntia/apuntia/internal/config"
	"github.com/apuntia/apuntia/internal/domain/model"
	"github.com/apuntia/apuntia/internal/domain/moderation"
	"github.com/apuntia/apuntia/internal/domain/ranking"
	"github.com/apuntia/apuntia/internal/domain/rating"
	"github.com/apuntia/apuntia/internal/domain/scoring"
	"github.com/apuntia/apuntia/internal/domain/subjects"
	"github.com/apuntia/apuntia/internal/domain/types"
	"github.com/apuntia/apuntia/pkg/logger"
	"github.com/apuntia/apuntia/pkg/metrics"
)

// Validation errors surfaced to the API layer as 4xx responses.
var (
	ErrMissingTitle    = errors.New("missing title")
	ErrMissingFile     = errors.New("missing file url")
	ErrUnknownSubject  = errors.New("unknown subject")
	ErrEmptyComment    = errors.New("empty comment")
	ErrCommentTooLong  = errors.New("comment too long")
	ErrMissingReason   = errors.New("missing reason")
	ErrUnknownTarget   = errors.New("unknown report target")
	ErrForbidden       = errors.New("forbidden")
	ErrCommentsNotOpen = errors.New("note does not accept comments")
	ErrTargetNotFound  = errors.New("report target not found")
	ErrNotVisible      = errors.New("note not visible")
	ErrBadResolution   = errors.New("invalid report resolution")
)

// Service implements the API dependencies for the note sharing system.
type Service struct {
	mu sync.RWMutex

	// Core components
	store    repository.Store
	cache    cache.RankingCache
	computer *ranking.Computer

	// Configuration
	storeBackend  string
	postgresDSN   string
	cacheEnabled  bool
	redisAddr     string
	cacheTTL      time.Duration
	minVotes      float64
	fallbackPrior float64

	// State
	started   bool
	startTime time.Time
	now       func() time.Time

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithConfig applies backend, cache, and scoring settings from cfg.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg == nil {
			return
		}
		s.storeBackend = cfg.Store
		s.postgresDSN = cfg.PostgresDSN
		s.cacheEnabled = cfg.CacheEnabled
		s.redisAddr = cfg.RedisAddr
		if cfg.CacheTTLSeconds > 0 {
			s.cacheTTL = time.Duration(cfg.CacheTTLSeconds) * time.Second
		}
		if cfg.RatingMinVotes > 0 {
			s.minVotes = cfg.RatingMinVotes
		}
		if cfg.RatingFallbackPrior > 0 {
			s.fallbackPrior = cfg.RatingFallbackPrior
		}
	}
}

// WithStore injects a pre-built store, bypassing backend selection.
func WithStore(st repository.Store) Option {
	return func(s *Service) {
		if st != nil {
			s.store = st
		}
	}
}

// WithCache injects a pre-built ranking cache.
func WithCache(c cache.RankingCache) Option {
	return func(s *Service) {
		if c != nil {
			s.cache = c
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the service clock, used by tests for deterministic
// ranking windows.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		storeBackend:  config.StoreMemory,
		cacheTTL:      60 * time.Second,
		minVotes:      scoring.DefaultMinVotes,
		fallbackPrior: scoring.DefaultPriorMean,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting note service...")

	if s.store == nil {
		switch s.storeBackend {
		case config.StorePostgres:
			st, err := repository.OpenPG(ctx, s.postgresDSN)
			if err != nil {
				return fmt.Errorf("open postgres store: %w", err)
			}
			s.store = st
			s.logger.Info(ctx, "using postgres store")
		default:
			s.store = repository.NewMemStore()
			s.logger.Info(ctx, "using in-memory store")
		}
	}

	if s.cache == nil {
		if s.cacheEnabled {
			c, err := cache.NewRedis(ctx, s.redisAddr, cache.WithTTL(s.cacheTTL))
			if err != nil {
				return fmt.Errorf("connect ranking cache: %w", err)
			}
			s.cache = c
			s.logger.Info(ctx, "ranking cache enabled",
				logger.String("addr", s.redisAddr),
				logger.Any("ttl", s.cacheTTL),
			)
		} else {
			s.cache = cache.Noop{}
		}
	}

	s.computer = ranking.NewComputer(ranking.WithScorer(scoring.NewWeightedScorer(
		scoring.WithMinVotes(s.minVotes),
		scoring.WithFallbackPrior(s.fallbackPrior),
	)))

	s.started = true
	s.startTime = s.now()
	s.logger.Info(ctx, "note service started",
		logger.String("store", s.storeBackend),
		logger.Float64("minVotes", s.minVotes),
		logger.Float64("fallbackPrior", s.fallbackPrior),
	)
	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping note service...")

	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			s.logger.Warn(ctx, "closing ranking cache", logger.Error(err))
		}
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Warn(ctx, "closing store", logger.Error(err))
		}
	}

	s.started = false
	s.logger.Info(ctx, "note service stopped")
}

// Ranking computes the ranked note list for q, answering from the cache
// when a fresh entry exists.
func (s *Service) Ranking(ctx context.Context, q ranking.Query) ([]types.RankedEntry, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	metrics.RecordRankingRequest(string(q.Metric))

	entries, err := s.cache.Get(ctx, q)
	switch {
	case err == nil:
		metrics.RecordRankingCacheHit()
		return entries, nil
	case !errors.Is(err, cache.ErrMiss):
		// A broken cache degrades to recompute, never to failure.
		s.logger.Warn(ctx, "ranking cache read failed", logger.Error(err))
	}
	metrics.RecordRankingCacheMiss()

	snapshot, err := s.store.ListMetrics(ctx, q.Subject)
	if err != nil {
		metrics.RecordErrorByComponent("store", "list_metrics")
		return nil, fmt.Errorf("load ranking snapshot: %w", err)
	}

	entries, err = s.computer.Rank(snapshot, q, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, q, entries); err != nil {
		s.logger.Warn(ctx, "ranking cache write failed", logger.Error(err))
	}

	metrics.RecordRankingLatency(float64(time.Since(start).Milliseconds()))
	return entries, nil
}

// CreateNote validates and persists a new note. The note enters the state
// chosen by the content screen: published, or pending when flagged.
func (s *Service) CreateNote(ctx context.Context, n *model.Note) error {
	switch {
	case strings.TrimSpace(n.Title) == "":
		return ErrMissingTitle
	case strings.TrimSpace(n.FileURL) == "":
		return ErrMissingFile
	}
	if !subjects.Valid(n.Subject) {
		return fmt.Errorf("%w: %q", ErrUnknownSubject, n.Subject)
	}

	n.Moderation = model.Moderation{State: moderation.InitialNoteState(n.Title, n.Description)}
	if err := s.store.CreateNote(ctx, n); err != nil {
		metrics.RecordErrorByComponent("store", "create_note")
		return fmt.Errorf("create note: %w", err)
	}

	s.logger.Info(ctx, "note created",
		logger.String("id", n.ID),
		logger.String("subject", n.Subject),
		logger.String("state", string(n.Moderation.State)),
	)
	return nil
}

// GetNote returns one note. Only published notes are visible to regular
// users; moderators see every state. Views are counted separately via
// RecordView so list prefetches do not inflate the counter.
func (s *Service) GetNote(ctx context.Context, id string, moderator bool) (model.Note, error) {
	n, err := s.store.GetNote(ctx, id)
	if err != nil {
		return model.Note{}, err
	}
	if !moderator && n.Moderation.State != model.NotePublished {
		return model.Note{}, fmt.Errorf("%w: %s", ErrNotVisible, id)
	}
	return n, nil
}

// RecordView bumps a note's view counter.
func (s *Service) RecordView(ctx context.Context, id string) error {
	return s.store.IncrementViews(ctx, id)
}

// ListNotes returns notes matching the filter. Non-moderators are pinned to
// the published state regardless of the requested filter.
func (s *Service) ListNotes(ctx context.Context, f repository.NoteFilter, moderator bool) ([]model.Note, error) {
	if f.Subject != "" && !subjects.Valid(f.Subject) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSubject, f.Subject)
	}
	if !moderator {
		f.State = model.NotePublished
	}
	return s.store.ListNotes(ctx, f)
}

// DeleteNote removes a note. Only the author or a moderator may delete.
func (s *Service) DeleteNote(ctx context.Context, id, requesterEmail string, moderator bool) error {
	n, err := s.store.GetNote(ctx, id)
	if err != nil {
		return err
	}
	if !moderator && n.AuthorEmail != requesterEmail {
		return ErrForbidden
	}
	return s.store.DeleteNote(ctx, id)
}

// RecordDownload bumps a note's download counter.
func (s *Service) RecordDownload(ctx context.Context, id string) error {
	return s.store.IncrementDownloads(ctx, id)
}

// RateNote upserts the user's 1-5 vote on a published note and returns the
// fresh aggregate.
func (s *Service) RateNote(ctx context.Context, noteID, userID string, value int) (rating.Summary, error) {
	if err := rating.ValidateValue(value); err != nil {
		return rating.Summary{}, err
	}
	n, err := s.store.GetNote(ctx, noteID)
	if err != nil {
		return rating.Summary{}, err
	}
	if n.Moderation.State != model.NotePublished {
		return rating.Summary{}, fmt.Errorf("%w: %s", ErrNotVisible, noteID)
	}
	sum, err := s.store.RateNote(ctx, noteID, userID, value)
	if err != nil {
		metrics.RecordErrorByComponent("store", "rate_note")
		return rating.Summary{}, fmt.Errorf("rate note: %w", err)
	}
	return sum, nil
}

// UserRating returns the acting user's vote on a note, or
// repository.ErrNotFound when they have not voted.
func (s *Service) UserRating(ctx context.Context, noteID, userID string) (model.Rating, error) {
	return s.store.UserRating(ctx, noteID, userID)
}

// maxCommentLen bounds comment text length.
const maxCommentLen = 2000

// AddComment validates and persists a comment on a published note. The
// comment enters the state chosen by the content screen.
func (s *Service) AddComment(ctx context.Context, c *model.Comment) error {
	if strings.TrimSpace(c.Text) == "" {
		return ErrEmptyComment
	}
	if len(c.Text) > maxCommentLen {
		return fmt.Errorf("%w: %d characters (max %d)", ErrCommentTooLong, len(c.Text), maxCommentLen)
	}
	n, err := s.store.GetNote(ctx, c.NoteID)
	if err != nil {
		return err
	}
	if n.Moderation.State != model.NotePublished {
		return fmt.Errorf("%w: %s", ErrCommentsNotOpen, c.NoteID)
	}
	c.State = moderation.InitialCommentState(c.Text)
	return s.store.AddComment(ctx, c)
}

// ListComments returns a note's comments, oldest first. Non-moderators see
// only visible comments.
func (s *Service) ListComments(ctx context.Context, noteID string, moderator bool) ([]model.Comment, error) {
	if _, err := s.store.GetNote(ctx, noteID); err != nil {
		return nil, err
	}
	return s.store.ListComments(ctx, noteID, !moderator)
}

// ModerateNote applies a note state transition after validating it against
// the transition table.
func (s *Service) ModerateNote(ctx context.Context, id string, to model.NoteState, reason, decidedBy string) error {
	n, err := s.store.GetNote(ctx, id)
	if err != nil {
		return err
	}
	if err := moderation.TransitionNote(n.Moderation.State, to); err != nil {
		return err
	}
	if err := s.store.SetNoteState(ctx, id, to, reason, decidedBy); err != nil {
		return fmt.Errorf("set note state: %w", err)
	}
	metrics.RecordModerationTransition("note", string(to))
	s.logger.Info(ctx, "note moderated",
		logger.String("id", id),
		logger.String("from", string(n.Moderation.State)),
		logger.String("to", string(to)),
		logger.String("by", decidedBy),
	)
	return nil
}

// ModerateComment applies a comment state transition.
func (s *Service) ModerateComment(ctx context.Context, id string, to model.CommentState) error {
	c, err := s.store.GetComment(ctx, id)
	if err != nil {
		return err
	}
	if err := moderation.TransitionComment(c.State, to); err != nil {
		return err
	}
	if err := s.store.SetCommentState(ctx, id, to); err != nil {
		return fmt.Errorf("set comment state: %w", err)
	}
	metrics.RecordModerationTransition("comment", string(to))
	return nil
}

// FileReport records a complaint about a note or comment after checking the
// target exists.
func (s *Service) FileReport(ctx context.Context, r *model.Report) error {
	if strings.TrimSpace(r.Reason) == "" {
		return ErrMissingReason
	}
	switch r.TargetType {
	case model.TargetNote:
		if _, err := s.store.GetNote(ctx, r.TargetID); err != nil {
			return fmt.Errorf("%w: note %s", ErrTargetNotFound, r.TargetID)
		}
	case model.TargetComment:
		if _, err := s.store.GetComment(ctx, r.TargetID); err != nil {
			return fmt.Errorf("%w: comment %s", ErrTargetNotFound, r.TargetID)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownTarget, r.TargetType)
	}
	if err := s.store.AddReport(ctx, r); err != nil {
		return fmt.Errorf("file report: %w", err)
	}
	metrics.RecordReportFiled()
	return nil
}

// OpenReports returns unresolved reports, oldest first.
func (s *Service) OpenReports(ctx context.Context) ([]model.Report, error) {
	return s.store.ListOpenReports(ctx)
}

// ResolveReport closes an open report as reviewed or dismissed.
func (s *Service) ResolveReport(ctx context.Context, id string, status model.ReportStatus) error {
	if status != model.ReportReviewed && status != model.ReportDismissed {
		return fmt.Errorf("%w: %q", ErrBadResolution, status)
	}
	return s.store.ResolveReport(ctx, id, status)
}

// Subjects returns the course catalog in stable order.
func (s *Service) Subjects(ctx context.Context) []string {
	return subjects.All()
}

// NoteCount returns the number of stored notes, for the gauge updater.
func (s *Service) NoteCount(ctx context.Context) int {
	return s.store.CountNotes(ctx)
}

// GetStats returns service statistics for the stats endpoint.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	uptime := time.Duration(0)
	if s.started {
		uptime = s.now().Sub(s.startTime)
	}

	return map[string]interface{}{
		"started":          s.started,
		"uptime_seconds":   int64(uptime.Seconds()),
		"store":            s.storeBackend,
		"cache_enabled":    s.cacheEnabled,
		"total_notes":      s.store.CountNotes(context.Background()),
		"goroutines":       runtime.NumGoroutine(),
		"heap_alloc_bytes": m.HeapAlloc,
	}
}
