// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/apuntia/apuntia/internal/domain/model"
)

// moderateRequest mirrors the JSON schema for moderation decisions.
type moderateRequest struct {
	State  string `json:"state"`
	Reason string `json:"reason"`
}

// ModerationHandler handles moderator state-change requests.
type ModerationHandler struct {
	deps Dependencies
}

// NewModerationHandler creates a new moderation handler.
func NewModerationHandler(deps Dependencies) *ModerationHandler {
	return &ModerationHandler{deps: deps}
}

// HandleNote handles POST /moderation/notes/{id} requests.
func (h *ModerationHandler) HandleNote(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	noteID, rest := shiftPath(r.URL.Path[len("/moderation/notes/"):])
	if noteID == "" || rest != "" {
		http.NotFound(w, r)
		return
	}
	id, ok := requireModerator(w, r)
	if !ok {
		return
	}
	var req moderateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	state, err := model.ParseNoteState(req.State)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := h.deps.ModerateNote(r.Context(), noteID, state, req.Reason, id.Email); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleComment handles POST /moderation/comments/{id} requests.
func (h *ModerationHandler) HandleComment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	commentID, rest := shiftPath(r.URL.Path[len("/moderation/comments/"):])
	if commentID == "" || rest != "" {
		http.NotFound(w, r)
		return
	}
	if _, ok := requireModerator(w, r); !ok {
		return
	}
	var req moderateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	state, err := model.ParseCommentState(req.State)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := h.deps.ModerateComment(r.Context(), commentID, state); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
