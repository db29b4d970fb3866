// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/apuntia/apuntia/internal/domain/model"
)

// reportRequest mirrors the JSON schema for POST /reports.
type reportRequest struct {
	TargetType string `json:"target_type"`
	TargetID   string `json:"target_id"`
	Reason     string `json:"reason"`
}

// reportResponse is the wire shape of one report.
type reportResponse struct {
	ID         string    `json:"id"`
	TargetType string    `json:"target_type"`
	TargetID   string    `json:"target_id"`
	Reason     string    `json:"reason"`
	ByName     string    `json:"by_name"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

func toReportResponse(r model.Report) reportResponse {
	return reportResponse{
		ID:         r.ID,
		TargetType: string(r.TargetType),
		TargetID:   r.TargetID,
		Reason:     r.Reason,
		ByName:     r.ByName,
		Status:     string(r.Status),
		CreatedAt:  r.CreatedAt,
	}
}

// resolveRequest mirrors the JSON schema for POST /moderation/reports/{id}.
type resolveRequest struct {
	Status string `json:"status"`
}

// ReportsHandler handles report filing and review requests.
type ReportsHandler struct {
	deps Dependencies
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(deps Dependencies) *ReportsHandler {
	return &ReportsHandler{deps: deps}
}

// HandleFile handles POST /reports requests.
func (h *ReportsHandler) HandleFile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	h.file(w, r)
}

// HandleOpen handles GET /moderation/reports requests.
func (h *ReportsHandler) HandleOpen(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	h.listOpen(w, r)
}

// HandleResolve handles POST /moderation/reports/{id} requests.
func (h *ReportsHandler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	reportID, rest := shiftPath(r.URL.Path[len("/moderation/reports/"):])
	if reportID == "" || rest != "" {
		http.NotFound(w, r)
		return
	}
	if _, ok := requireModerator(w, r); !ok {
		return
	}
	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	status, err := model.ParseReportStatus(req.Status)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := h.deps.ResolveReport(r.Context(), reportID, status); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ReportsHandler) file(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	var req reportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	target, err := model.ParseTargetType(req.TargetType)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	rep := model.Report{
		TargetType: target,
		TargetID:   req.TargetID,
		Reason:     req.Reason,
		ByName:     id.Name,
		ByEmail:    id.Email,
	}
	if err := h.deps.FileReport(r.Context(), &rep); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toReportResponse(rep))
}

func (h *ReportsHandler) listOpen(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireModerator(w, r); !ok {
		return
	}
	reports, err := h.deps.OpenReports(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	out := make([]reportResponse, len(reports))
	for i, rep := range reports {
		out[i] = toReportResponse(rep)
	}
	writeJSON(w, http.StatusOK, out)
}
