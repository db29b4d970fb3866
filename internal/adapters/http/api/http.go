// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/apuntia/apuntia/internal/adapters/repository"
	service "github.com/apuntia/apuntia/internal/app"
	"github.com/apuntia/apuntia/internal/domain/model"
	"github.com/apuntia/apuntia/internal/domain/moderation"
	"github.com/apuntia/apuntia/internal/domain/ranking"
	"github.com/apuntia/apuntia/internal/domain/rating"
	"github.com/apuntia/apuntia/internal/domain/scoring"
	"github.com/apuntia/apuntia/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	Ranking(ctx context.Context, q ranking.Query) ([]types.RankedEntry, error)

	CreateNote(ctx context.Context, n *model.Note) error
	GetNote(ctx context.Context, id string, moderator bool) (model.Note, error)
	ListNotes(ctx context.Context, f repository.NoteFilter, moderator bool) ([]model.Note, error)
	DeleteNote(ctx context.Context, id, requesterEmail string, moderator bool) error
	RecordView(ctx context.Context, id string) error
	RecordDownload(ctx context.Context, id string) error

	RateNote(ctx context.Context, noteID, userID string, value int) (rating.Summary, error)
	UserRating(ctx context.Context, noteID, userID string) (model.Rating, error)

	AddComment(ctx context.Context, c *model.Comment) error
	ListComments(ctx context.Context, noteID string, moderator bool) ([]model.Comment, error)

	ModerateNote(ctx context.Context, id string, to model.NoteState, reason, decidedBy string) error
	ModerateComment(ctx context.Context, id string, to model.CommentState) error

	FileReport(ctx context.Context, r *model.Report) error
	OpenReports(ctx context.Context) ([]model.Report, error)
	ResolveReport(ctx context.Context, id string, status model.ReportStatus) error

	Subjects(ctx context.Context) []string
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
	rankingHandler    *RankingHandler
	notesHandler      *NotesHandler
	reportsHandler    *ReportsHandler
	moderationHandler *ModerationHandler
	subjectsHandler   *SubjectsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:     NewHealthHandler(),
		statsHandler:      NewStatsHandler(statsProvider),
		rankingHandler:    NewRankingHandler(deps),
		notesHandler:      NewNotesHandler(deps),
		reportsHandler:    NewReportsHandler(deps),
		moderationHandler: NewModerationHandler(deps),
		subjectsHandler:   NewSubjectsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/ranking", MetricsMiddleware(s.rankingHandler.HandleGetRanking, "ranking"))
	mux.HandleFunc("/subjects", MetricsMiddleware(s.subjectsHandler.HandleGetSubjects, "subjects"))
	mux.HandleFunc("/notes", MetricsMiddleware(s.notesHandler.HandleNotes, "notes"))
	mux.HandleFunc("/notes/", MetricsMiddleware(s.notesHandler.HandleNoteSubtree, "notes"))
	mux.HandleFunc("/reports", MetricsMiddleware(s.reportsHandler.HandleFile, "reports"))
	mux.HandleFunc("/moderation/reports", MetricsMiddleware(s.reportsHandler.HandleOpen, "moderation"))
	mux.HandleFunc("/moderation/reports/", MetricsMiddleware(s.reportsHandler.HandleResolve, "moderation"))
	mux.HandleFunc("/moderation/notes/", MetricsMiddleware(s.moderationHandler.HandleNote, "moderation"))
	mux.HandleFunc("/moderation/comments/", MetricsMiddleware(s.moderationHandler.HandleComment, "moderation"))
}

// Identity headers set by the auth proxy in front of the service.
const (
	headerUserEmail = "X-User-Email"
	headerUserName  = "X-User-Name"
	headerUserRole  = "X-User-Role"
)

// identity is the acting user extracted from request headers.
type identity struct {
	Email string
	Name  string
	Role  string
}

func (i identity) moderator() bool {
	return i.Role == "moderator" || i.Role == "admin"
}

// identityFrom reads the proxy identity headers. Email may be empty for
// anonymous reads; handlers that mutate call requireIdentity instead.
func identityFrom(r *http.Request) identity {
	return identity{
		Email: strings.TrimSpace(r.Header.Get(headerUserEmail)),
		Name:  strings.TrimSpace(r.Header.Get(headerUserName)),
		Role:  strings.TrimSpace(r.Header.Get(headerUserRole)),
	}
}

// requireIdentity extracts the identity and rejects anonymous requests.
func requireIdentity(w http.ResponseWriter, r *http.Request) (identity, bool) {
	id := identityFrom(r)
	if id.Email == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized", ErrUnauthorized)
		return identity{}, false
	}
	return id, true
}

// requireModerator extracts the identity and rejects non-moderators.
func requireModerator(w http.ResponseWriter, r *http.Request) (identity, bool) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return identity{}, false
	}
	if !id.moderator() {
		writeError(w, http.StatusForbidden, "forbidden", ErrForbidden)
		return identity{}, false
	}
	return id, true
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError maps service and domain errors to HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, service.ErrNotVisible):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", err)
	case errors.Is(err, repository.ErrReportResolved),
		errors.Is(err, moderation.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "conflict", err)
	case errors.Is(err, ranking.ErrInvalidDays),
		errors.Is(err, ranking.ErrSubjectNotRecognized),
		errors.Is(err, ranking.ErrTooManyCandidates),
		errors.Is(err, scoring.ErrInvalidMetric),
		errors.Is(err, rating.ErrInvalidValue),
		errors.Is(err, service.ErrMissingTitle),
		errors.Is(err, service.ErrMissingFile),
		errors.Is(err, service.ErrUnknownSubject),
		errors.Is(err, service.ErrEmptyComment),
		errors.Is(err, service.ErrCommentTooLong),
		errors.Is(err, service.ErrMissingReason),
		errors.Is(err, service.ErrUnknownTarget),
		errors.Is(err, service.ErrCommentsNotOpen),
		errors.Is(err, service.ErrTargetNotFound),
		errors.Is(err, service.ErrBadResolution):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

// shiftPath splits the first segment off a path: "a/b/c" -> ("a", "b/c").
func shiftPath(p string) (head, rest string) {
	p = strings.Trim(p, "/")
	if i := strings.Index(p, "/"); i >= 0 {
		return p[:i], p[i+1:]
	}
	return p, ""
}
