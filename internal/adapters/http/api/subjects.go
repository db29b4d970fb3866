// Package api declares HTTP contracts and route registration helpers.
package api

import "net/http"

// SubjectsHandler serves the course catalog.
type SubjectsHandler struct {
	deps Dependencies
}

// NewSubjectsHandler creates a new subjects handler.
func NewSubjectsHandler(deps Dependencies) *SubjectsHandler {
	return &SubjectsHandler{deps: deps}
}

// HandleGetSubjects handles GET /subjects requests.
func (h *SubjectsHandler) HandleGetSubjects(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Subjects(r.Context()))
}
