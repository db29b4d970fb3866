package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/apuntia/apuntia/internal/adapters/http/api"
	"github.com/apuntia/apuntia/internal/adapters/repository"
	service "github.com/apuntia/apuntia/internal/app"
	"github.com/apuntia/apuntia/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// testServer bundles a started service and a mux with all routes registered.
type testServer struct {
	svc *service.Service
	mux *http.ServeMux
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := service.New(
		service.WithStore(repository.NewMemStore(repository.WithClock(func() time.Time { return now }))),
		service.WithClock(func() time.Time { return now }),
	)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start service: %v", err)
	}
	t.Cleanup(svc.Stop)

	mux := http.NewServeMux()
	api.NewServer(svc, svc).Register(context.Background(), mux)
	return &testServer{svc: svc, mux: mux}
}

// do performs a request with optional identity headers and JSON body.
func (ts *testServer) do(method, path string, body any, hdr map[string]string) *httptest.ResponseRecorder {
	var rd *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		rd = bytes.NewReader(raw)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	ts.mux.ServeHTTP(rec, req)
	return rec
}

var (
	asUser = map[string]string{
		"X-User-Email": "camila@example.com",
		"X-User-Name":  "Camila Pérez",
	}
	asOther = map[string]string{
		"X-User-Email": "diego@example.com",
		"X-User-Name":  "Diego Soto",
	}
	asModerator = map[string]string{
		"X-User-Email": "mod@example.com",
		"X-User-Name":  "Mod",
		"X-User-Role":  "moderator",
	}
)

func createNote(t *testing.T, ts *testServer, title string) map[string]any {
	t.Helper()
	rec := ts.do(http.MethodPost, "/notes", map[string]any{
		"title":    title,
		"subject":  "Bases de Datos",
		"file_url": "https://files.example.com/" + title + ".pdf",
	}, asUser)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create note: status %d body %s", rec.Code, rec.Body.String())
	}
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode note: %v", err)
	}
	return out
}

func TestNotesEndpoints(t *testing.T) {
	Convey("Given a running API server", t, func() {
		ts := newTestServer(t)

		Convey("When creating a note with identity", func() {
			note := createNote(t, ts, "Indices")

			Convey("Then it is published and listed", func() {
				So(note["id"], ShouldNotBeEmpty)
				So(note["state"], ShouldEqual, "published")
				So(note["author_name"], ShouldEqual, "Camila Pérez")

				rec := ts.do(http.MethodGet, "/notes?subject=Bases+de+Datos", nil, nil)
				So(rec.Code, ShouldEqual, http.StatusOK)
				var list []map[string]any
				So(json.Unmarshal(rec.Body.Bytes(), &list), ShouldBeNil)
				So(list, ShouldHaveLength, 1)
			})

			Convey("And recording a view bumps the counter", func() {
				id := note["id"].(string)
				rec := ts.do(http.MethodPost, "/notes/"+id+"/view", nil, nil)
				So(rec.Code, ShouldEqual, http.StatusNoContent)

				rec = ts.do(http.MethodGet, "/notes/"+id, nil, nil)
				So(rec.Code, ShouldEqual, http.StatusOK)
				var got map[string]any
				So(json.Unmarshal(rec.Body.Bytes(), &got), ShouldBeNil)
				So(got["views"], ShouldEqual, 1)
			})
		})

		Convey("When creating a note without identity", func() {
			rec := ts.do(http.MethodPost, "/notes", map[string]any{"title": "x"}, nil)

			Convey("Then it is unauthorized", func() {
				So(rec.Code, ShouldEqual, http.StatusUnauthorized)
			})
		})

		Convey("When creating a note with an unknown subject", func() {
			rec := ts.do(http.MethodPost, "/notes", map[string]any{
				"title":    "x",
				"subject":  "Alquimia",
				"file_url": "https://x/y.pdf",
			}, asUser)

			Convey("Then it is a bad request", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When fetching a missing note", func() {
			rec := ts.do(http.MethodGet, "/notes/nope", nil, nil)

			Convey("Then it is not found", func() {
				So(rec.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When deleting a note", func() {
			note := createNote(t, ts, "Transacciones")
			id := note["id"].(string)

			Convey("Then a stranger is forbidden", func() {
				rec := ts.do(http.MethodDelete, "/notes/"+id, nil, asOther)
				So(rec.Code, ShouldEqual, http.StatusForbidden)
			})

			Convey("And the author succeeds", func() {
				rec := ts.do(http.MethodDelete, "/notes/"+id, nil, asUser)
				So(rec.Code, ShouldEqual, http.StatusNoContent)
				rec = ts.do(http.MethodGet, "/notes/"+id, nil, nil)
				So(rec.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When downloading a note", func() {
			note := createNote(t, ts, "Consultas")
			id := note["id"].(string)
			rec := ts.do(http.MethodPost, "/notes/"+id+"/download", nil, nil)

			Convey("Then the file url is returned and the counter bumped", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Body.String(), ShouldContainSubstring, "file_url")

				got := ts.do(http.MethodGet, "/notes/"+id, nil, nil)
				var body map[string]any
				So(json.Unmarshal(got.Body.Bytes(), &body), ShouldBeNil)
				So(body["downloads"], ShouldEqual, 1)
			})
		})
	})
}

func TestRatingEndpoints(t *testing.T) {
	Convey("Given a server with a published note", t, func() {
		ts := newTestServer(t)
		id := createNote(t, ts, "Normalización")["id"].(string)

		Convey("When two users rate it", func() {
			rec := ts.do(http.MethodPost, "/notes/"+id+"/rate", map[string]any{"value": 5}, asUser)
			So(rec.Code, ShouldEqual, http.StatusOK)
			rec = ts.do(http.MethodPost, "/notes/"+id+"/rate", map[string]any{"value": 4}, asOther)

			Convey("Then the aggregate reflects both", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				var sum map[string]any
				So(json.Unmarshal(rec.Body.Bytes(), &sum), ShouldBeNil)
				So(sum["rating_count"], ShouldEqual, 2)
				So(sum["rating_avg"], ShouldEqual, 4.5)
			})

			Convey("And each can read back their own vote", func() {
				rec := ts.do(http.MethodGet, "/notes/"+id+"/rate", nil, asUser)
				So(rec.Code, ShouldEqual, http.StatusOK)
				var mine map[string]any
				So(json.Unmarshal(rec.Body.Bytes(), &mine), ShouldBeNil)
				So(mine["value"], ShouldEqual, 5)
			})
		})

		Convey("When rating out of range", func() {
			rec := ts.do(http.MethodPost, "/notes/"+id+"/rate", map[string]any{"value": 6}, asUser)

			Convey("Then it is a bad request", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When rating anonymously", func() {
			rec := ts.do(http.MethodPost, "/notes/"+id+"/rate", map[string]any{"value": 3}, nil)

			Convey("Then it is unauthorized", func() {
				So(rec.Code, ShouldEqual, http.StatusUnauthorized)
			})
		})

		Convey("When reading a vote that does not exist", func() {
			rec := ts.do(http.MethodGet, "/notes/"+id+"/rate", nil, asOther)

			Convey("Then it is not found", func() {
				So(rec.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestRankingEndpoint(t *testing.T) {
	Convey("Given a server with rated notes", t, func() {
		ts := newTestServer(t)
		a := createNote(t, ts, "Apuntes A")["id"].(string)
		b := createNote(t, ts, "Apuntes B")["id"].(string)

		for i := 0; i < 8; i++ {
			hdr := map[string]string{"X-User-Email": fmt.Sprintf("u%d@example.com", i)}
			rec := ts.do(http.MethodPost, "/notes/"+a+"/rate", map[string]any{"value": 5}, hdr)
			So(rec.Code, ShouldEqual, http.StatusOK)
		}
		rec := ts.do(http.MethodPost, "/notes/"+b+"/rate", map[string]any{"value": 4}, asUser)
		So(rec.Code, ShouldEqual, http.StatusOK)

		Convey("When requesting the rating ranking", func() {
			rec := ts.do(http.MethodGet, "/ranking?by=rating&days=30", nil, nil)

			Convey("Then the heavily voted note is first with no previous rank", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				var body struct {
					Items []map[string]any `json:"items"`
				}
				So(json.Unmarshal(rec.Body.Bytes(), &body), ShouldBeNil)
				So(body.Items, ShouldHaveLength, 2)
				So(body.Items[0]["id"], ShouldEqual, a)
				So(body.Items[0]["rank"], ShouldEqual, 1)
				So(body.Items[0]["prev_rank"], ShouldBeNil)
			})
		})

		Convey("When requesting an unsupported window", func() {
			rec := ts.do(http.MethodGet, "/ranking?metric=rating&days=14", nil, nil)

			Convey("Then it is a bad request", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When requesting an unknown metric", func() {
			rec := ts.do(http.MethodGet, "/ranking?metric=views&days=7", nil, nil)

			Convey("Then it is a bad request", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When requesting an unknown subject", func() {
			rec := ts.do(http.MethodGet, "/ranking?days=7&subject=Alquimia", nil, nil)

			Convey("Then it is a bad request", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When requesting the downloads ranking", func() {
			rec := ts.do(http.MethodPost, "/notes/"+b+"/download", nil, nil)
			So(rec.Code, ShouldEqual, http.StatusOK)

			rec = ts.do(http.MethodGet, "/ranking?by=downloads&days=7", nil, nil)

			Convey("Then the downloaded note is first", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				var body struct {
					Items []map[string]any `json:"items"`
				}
				So(json.Unmarshal(rec.Body.Bytes(), &body), ShouldBeNil)
				So(body.Items[0]["id"], ShouldEqual, b)
			})
		})
	})
}

func TestCommentEndpoints(t *testing.T) {
	Convey("Given a server with a published note", t, func() {
		ts := newTestServer(t)
		id := createNote(t, ts, "Procesos")["id"].(string)

		Convey("When posting a clean comment", func() {
			rec := ts.do(http.MethodPost, "/notes/"+id+"/comments", map[string]any{"text": "muy útil"}, asUser)

			Convey("Then it is created visible", func() {
				So(rec.Code, ShouldEqual, http.StatusCreated)
				var c map[string]any
				So(json.Unmarshal(rec.Body.Bytes(), &c), ShouldBeNil)
				So(c["state"], ShouldEqual, "visible")

				list := ts.do(http.MethodGet, "/notes/"+id+"/comments", nil, nil)
				So(list.Code, ShouldEqual, http.StatusOK)
				var comments []map[string]any
				So(json.Unmarshal(list.Body.Bytes(), &comments), ShouldBeNil)
				So(comments, ShouldHaveLength, 1)
			})
		})

		Convey("When posting a flagged comment", func() {
			rec := ts.do(http.MethodPost, "/notes/"+id+"/comments", map[string]any{"text": "qué mierda de apuntes"}, asOther)
			So(rec.Code, ShouldEqual, http.StatusCreated)

			Convey("Then regular users do not see it but moderators do", func() {
				list := ts.do(http.MethodGet, "/notes/"+id+"/comments", nil, nil)
				var comments []map[string]any
				So(json.Unmarshal(list.Body.Bytes(), &comments), ShouldBeNil)
				So(comments, ShouldBeEmpty)

				list = ts.do(http.MethodGet, "/notes/"+id+"/comments", nil, asModerator)
				So(json.Unmarshal(list.Body.Bytes(), &comments), ShouldBeNil)
				So(comments, ShouldHaveLength, 1)
				So(comments[0]["state"], ShouldEqual, "pending")
			})
		})

		Convey("When posting an empty comment", func() {
			rec := ts.do(http.MethodPost, "/notes/"+id+"/comments", map[string]any{"text": "  "}, asUser)

			Convey("Then it is a bad request", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})
		})
	})
}

func TestModerationEndpoints(t *testing.T) {
	Convey("Given a server with a published note", t, func() {
		ts := newTestServer(t)
		id := createNote(t, ts, "Patrones")["id"].(string)

		Convey("When a regular user tries to moderate", func() {
			rec := ts.do(http.MethodPost, "/moderation/notes/"+id, map[string]any{"state": "hidden"}, asUser)

			Convey("Then it is forbidden", func() {
				So(rec.Code, ShouldEqual, http.StatusForbidden)
			})
		})

		Convey("When a moderator hides the note", func() {
			rec := ts.do(http.MethodPost, "/moderation/notes/"+id, map[string]any{"state": "hidden", "reason": "reported"}, asModerator)
			So(rec.Code, ShouldEqual, http.StatusNoContent)

			Convey("Then regular users get 404 but moderators still see it", func() {
				So(ts.do(http.MethodGet, "/notes/"+id, nil, nil).Code, ShouldEqual, http.StatusNotFound)
				So(ts.do(http.MethodGet, "/notes/"+id, nil, asModerator).Code, ShouldEqual, http.StatusOK)
			})
		})

		Convey("When a moderator rejects the note", func() {
			rec := ts.do(http.MethodPost, "/moderation/notes/"+id, map[string]any{"state": "rejected", "reason": "plagiarism"}, asModerator)
			So(rec.Code, ShouldEqual, http.StatusNoContent)

			Convey("Then republishing is a conflict", func() {
				rec := ts.do(http.MethodPost, "/moderation/notes/"+id, map[string]any{"state": "published"}, asModerator)
				So(rec.Code, ShouldEqual, http.StatusConflict)
			})
		})

		Convey("When moderating with an unknown state", func() {
			rec := ts.do(http.MethodPost, "/moderation/notes/"+id, map[string]any{"state": "vaporized"}, asModerator)

			Convey("Then it is a bad request", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})
		})
	})
}

func TestReportEndpoints(t *testing.T) {
	Convey("Given a server with a published note", t, func() {
		ts := newTestServer(t)
		id := createNote(t, ts, "Sockets")["id"].(string)

		Convey("When filing a report", func() {
			rec := ts.do(http.MethodPost, "/reports", map[string]any{
				"target_type": "note",
				"target_id":   id,
				"reason":      "copied from a textbook",
			}, asUser)
			So(rec.Code, ShouldEqual, http.StatusCreated)
			var rep map[string]any
			So(json.Unmarshal(rec.Body.Bytes(), &rep), ShouldBeNil)

			Convey("Then a moderator can list and resolve it", func() {
				list := ts.do(http.MethodGet, "/moderation/reports", nil, asModerator)
				So(list.Code, ShouldEqual, http.StatusOK)
				So(list.Body.String(), ShouldContainSubstring, "copied from a textbook")

				resolve := ts.do(http.MethodPost, "/moderation/reports/"+rep["id"].(string), map[string]any{"status": "reviewed"}, asModerator)
				So(resolve.Code, ShouldEqual, http.StatusNoContent)

				again := ts.do(http.MethodPost, "/moderation/reports/"+rep["id"].(string), map[string]any{"status": "dismissed"}, asModerator)
				So(again.Code, ShouldEqual, http.StatusConflict)
			})

			Convey("But a regular user cannot list reports", func() {
				list := ts.do(http.MethodGet, "/moderation/reports", nil, asUser)
				So(list.Code, ShouldEqual, http.StatusForbidden)
			})
		})

		Convey("When reporting a missing target", func() {
			rec := ts.do(http.MethodPost, "/reports", map[string]any{
				"target_type": "note",
				"target_id":   "missing",
				"reason":      "x",
			}, asUser)

			Convey("Then it is a bad request", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})
		})
	})
}

func TestInfraEndpoints(t *testing.T) {
	Convey("Given a running API server", t, func() {
		ts := newTestServer(t)

		Convey("When requesting the subject catalog", func() {
			rec := ts.do(http.MethodGet, "/subjects", nil, nil)

			Convey("Then it lists known subjects", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Body.String(), ShouldContainSubstring, "Bases de Datos")
			})
		})

		Convey("When requesting stats", func() {
			rec := ts.do(http.MethodGet, "/stats", nil, nil)

			Convey("Then service state is reported", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				var stats map[string]any
				So(json.Unmarshal(rec.Body.Bytes(), &stats), ShouldBeNil)
				So(stats["started"], ShouldBeTrue)
				So(stats["store"], ShouldEqual, "memory")
			})
		})

		Convey("When scraping healthz", func() {
			rec := ts.do(http.MethodGet, "/healthz", nil, nil)

			Convey("Then Prometheus metrics are served", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(strings.Contains(rec.Body.String(), "apuntia"), ShouldBeTrue)
			})
		})
	})
}
