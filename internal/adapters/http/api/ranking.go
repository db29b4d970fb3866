// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"strconv"

	"github.com/apuntia/apuntia/internal/domain/ranking"
	"github.com/apuntia/apuntia/internal/domain/scoring"
	"github.com/apuntia/apuntia/internal/domain/types"
)

// RankingHandler handles ranking requests.
type RankingHandler struct {
	deps Dependencies
}

// NewRankingHandler creates a new ranking handler.
func NewRankingHandler(deps Dependencies) *RankingHandler {
	return &RankingHandler{deps: deps}
}

// HandleGetRanking handles GET /ranking requests.
//
// Query parameters: by (rating|downloads, "metric" accepted as an alias),
// days (7|30|90), subject (optional catalog label), limit (optional,
// clamped server-side).
func (h *RankingHandler) HandleGetRanking(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	qs := r.URL.Query()

	// "by" is the canonical metric parameter; "metric" is accepted as an
	// alias for clients that spell it out.
	metric := qs.Get("by")
	if metric == "" {
		metric = qs.Get("metric")
	}
	if metric == "" {
		metric = string(scoring.MetricRating)
	}

	days := 7
	if v := qs.Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
			return
		}
		days = n
	}

	limit := 0
	if v := qs.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
			return
		}
		limit = n
	}

	q := ranking.Query{
		Metric:  scoring.Metric(metric),
		Days:    days,
		Subject: qs.Get("subject"),
		Limit:   limit,
	}
	entries, err := h.deps.Ranking(r.Context(), q)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if entries == nil {
		entries = []types.RankedEntry{}
	}
	writeJSON(w, http.StatusOK, rankingResponse{Items: entries})
}

// rankingResponse wraps the ranked list.
type rankingResponse struct {
	Items []types.RankedEntry `json:"items"`
}
