// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/apuntia/apuntia/internal/adapters/repository"
	"github.com/apuntia/apuntia/internal/domain/model"
)

// noteRequest mirrors the JSON schema for POST /notes.
type noteRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Subject     string   `json:"subject"`
	Topic       string   `json:"topic"`
	Semester    string   `json:"semester"`
	Tags        []string `json:"tags"`
	FileURL     string   `json:"file_url"`
	FileType    string   `json:"file_type"`
	FileSize    int64    `json:"file_size"`
}

// noteResponse is the wire shape of one note.
type noteResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Subject     string    `json:"subject"`
	Topic       string    `json:"topic,omitempty"`
	Semester    string    `json:"semester,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	AuthorName  string    `json:"author_name"`
	FileURL     string    `json:"file_url"`
	FileType    string    `json:"file_type,omitempty"`
	FileSize    int64     `json:"file_size,omitempty"`
	Views       int64     `json:"views"`
	Downloads   int64     `json:"downloads"`
	RatingAvg   float64   `json:"rating_avg"`
	RatingCount int       `json:"rating_count"`
	State       string    `json:"state"`
	CreatedAt   time.Time `json:"created_at"`
}

func toNoteResponse(n model.Note) noteResponse {
	return noteResponse{
		ID:          n.ID,
		Title:       n.Title,
		Description: n.Description,
		Subject:     n.Subject,
		Topic:       n.Topic,
		Semester:    n.Semester,
		Tags:        n.Tags,
		AuthorName:  n.AuthorName,
		FileURL:     n.FileURL,
		FileType:    n.FileType,
		FileSize:    n.FileSize,
		Views:       n.Views,
		Downloads:   n.Downloads,
		RatingAvg:   n.RatingAvg,
		RatingCount: n.RatingCount,
		State:       string(n.Moderation.State),
		CreatedAt:   n.CreatedAt,
	}
}

// ratingRequest mirrors the JSON schema for POST /notes/{id}/rate.
type ratingRequest struct {
	Value int `json:"value"`
}

// ratingResponse returns the fresh aggregate after a vote.
type ratingResponse struct {
	RatingAvg   float64 `json:"rating_avg"`
	RatingCount int     `json:"rating_count"`
}

// userRatingResponse returns the acting user's own vote.
type userRatingResponse struct {
	Value int `json:"value"`
}

// commentRequest mirrors the JSON schema for POST /notes/{id}/comments.
type commentRequest struct {
	Text string `json:"text"`
}

// commentResponse is the wire shape of one comment.
type commentResponse struct {
	ID         string    `json:"id"`
	NoteID     string    `json:"note_id"`
	AuthorName string    `json:"author_name"`
	Text       string    `json:"text"`
	State      string    `json:"state"`
	CreatedAt  time.Time `json:"created_at"`
}

func toCommentResponse(c model.Comment) commentResponse {
	return commentResponse{
		ID:         c.ID,
		NoteID:     c.NoteID,
		AuthorName: c.AuthorName,
		Text:       c.Text,
		State:      string(c.State),
		CreatedAt:  c.CreatedAt,
	}
}

// NotesHandler handles note CRUD, rating, download, and comment requests.
type NotesHandler struct {
	deps Dependencies
}

// NewNotesHandler creates a new notes handler.
func NewNotesHandler(deps Dependencies) *NotesHandler {
	return &NotesHandler{deps: deps}
}

// HandleNotes handles POST /notes and GET /notes requests.
func (h *NotesHandler) HandleNotes(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.create(w, r)
	case http.MethodGet:
		h.list(w, r)
	default:
		http.NotFound(w, r)
	}
}

// HandleNoteSubtree dispatches /notes/{id}, /notes/{id}/download,
// /notes/{id}/rate, and /notes/{id}/comments.
func (h *NotesHandler) HandleNoteSubtree(w http.ResponseWriter, r *http.Request) {
	id, rest := shiftPath(r.URL.Path[len("/notes/"):])
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	switch {
	case rest == "":
		h.one(w, r, id)
	case rest == "view":
		h.view(w, r, id)
	case rest == "download":
		h.download(w, r, id)
	case rest == "rate":
		h.rate(w, r, id)
	case rest == "comments":
		h.comments(w, r, id)
	default:
		http.NotFound(w, r)
	}
}

func (h *NotesHandler) create(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	var req noteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	n := model.Note{
		Title:       req.Title,
		Description: req.Description,
		Subject:     req.Subject,
		Topic:       req.Topic,
		Semester:    req.Semester,
		Tags:        req.Tags,
		AuthorName:  id.Name,
		AuthorEmail: id.Email,
		FileURL:     req.FileURL,
		FileType:    req.FileType,
		FileSize:    req.FileSize,
	}
	if err := h.deps.CreateNote(r.Context(), &n); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toNoteResponse(n))
}

func (h *NotesHandler) list(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r)
	qs := r.URL.Query()

	f := repository.NoteFilter{
		Subject:     qs.Get("subject"),
		AuthorEmail: qs.Get("author"),
	}
	if v := qs.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
			return
		}
		f.Limit = n
	}
	// State filtering is a moderator-only view; the service pins regular
	// users to published regardless.
	if v := qs.Get("state"); v != "" && id.moderator() {
		st, err := model.ParseNoteState(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", err)
			return
		}
		f.State = st
	}

	notes, err := h.deps.ListNotes(r.Context(), f, id.moderator())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	out := make([]noteResponse, len(notes))
	for i, n := range notes {
		out[i] = toNoteResponse(n)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *NotesHandler) one(w http.ResponseWriter, r *http.Request, noteID string) {
	switch r.Method {
	case http.MethodGet:
		n, err := h.deps.GetNote(r.Context(), noteID, identityFrom(r).moderator())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toNoteResponse(n))
	case http.MethodDelete:
		id, ok := requireIdentity(w, r)
		if !ok {
			return
		}
		if err := h.deps.DeleteNote(r.Context(), noteID, id.Email, id.moderator()); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.NotFound(w, r)
	}
}

func (h *NotesHandler) view(w http.ResponseWriter, r *http.Request, noteID string) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	if _, err := h.deps.GetNote(r.Context(), noteID, identityFrom(r).moderator()); err != nil {
		writeServiceError(w, err)
		return
	}
	if err := h.deps.RecordView(r.Context(), noteID); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *NotesHandler) download(w http.ResponseWriter, r *http.Request, noteID string) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	n, err := h.deps.GetNote(r.Context(), noteID, identityFrom(r).moderator())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if err := h.deps.RecordDownload(r.Context(), noteID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"file_url": n.FileURL})
}

func (h *NotesHandler) rate(w http.ResponseWriter, r *http.Request, noteID string) {
	switch r.Method {
	case http.MethodPost:
		id, ok := requireIdentity(w, r)
		if !ok {
			return
		}
		var req ratingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
			return
		}
		sum, err := h.deps.RateNote(r.Context(), noteID, id.Email, req.Value)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ratingResponse{RatingAvg: sum.Avg, RatingCount: sum.Count})
	case http.MethodGet:
		id, ok := requireIdentity(w, r)
		if !ok {
			return
		}
		rt, err := h.deps.UserRating(r.Context(), noteID, id.Email)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, userRatingResponse{Value: rt.Value})
	default:
		http.NotFound(w, r)
	}
}

func (h *NotesHandler) comments(w http.ResponseWriter, r *http.Request, noteID string) {
	switch r.Method {
	case http.MethodPost:
		id, ok := requireIdentity(w, r)
		if !ok {
			return
		}
		var req commentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
			return
		}
		c := model.Comment{
			NoteID:      noteID,
			AuthorName:  id.Name,
			AuthorEmail: id.Email,
			Text:        req.Text,
		}
		if err := h.deps.AddComment(r.Context(), &c); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toCommentResponse(c))
	case http.MethodGet:
		comments, err := h.deps.ListComments(r.Context(), noteID, identityFrom(r).moderator())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		out := make([]commentResponse, len(comments))
		for i, c := range comments {
			out[i] = toCommentResponse(c)
		}
		writeJSON(w, http.StatusOK, out)
	default:
		http.NotFound(w, r)
	}
}
