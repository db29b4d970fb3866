package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/apuntia/apuntia/internal/adapters/repository"
	service "github.com/apuntia/apuntia/internal/app"
	"github.com/apuntia/apuntia/internal/domain/moderation"
	"github.com/apuntia/apuntia/internal/domain/ranking"
	"github.com/apuntia/apuntia/internal/domain/rating"
)

func TestWriteServiceErrorStatus(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"unknown note", repository.ErrNotFound, http.StatusNotFound},
		{"hidden note", service.ErrNotVisible, http.StatusNotFound},
		{"not the author", service.ErrForbidden, http.StatusForbidden},
		{"report already resolved", repository.ErrReportResolved, http.StatusConflict},
		{"invalid transition", moderation.ErrInvalidTransition, http.StatusConflict},
		{"invalid days window", ranking.ErrInvalidDays, http.StatusBadRequest},
		{"unknown subject", ranking.ErrSubjectNotRecognized, http.StatusBadRequest},
		{"oversized candidate set", ranking.ErrTooManyCandidates, http.StatusBadRequest},
		{"vote out of range", rating.ErrInvalidValue, http.StatusBadRequest},
		{"comment too long", service.ErrCommentTooLong, http.StatusBadRequest},
		{"storage failure", errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		w := httptest.NewRecorder()
		writeServiceError(w, tc.err)
		if w.Code != tc.want {
			t.Errorf("%s: status %d, want %d", tc.name, w.Code, tc.want)
		}
	}
}
