package model_test

import (
	"testing"
	"time"

	"github.com/apuntia/apuntia/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestParseNoteState(t *testing.T) {
	Convey("Given note state labels", t, func() {
		Convey("When parsing valid labels", func() {
			for _, label := range []string{"published", "pending", "rejected", "hidden"} {
				state, err := model.ParseNoteState(label)
				So(err, ShouldBeNil)
				So(string(state), ShouldEqual, label)
			}
		})

		Convey("When parsing invalid labels", func() {
			for _, label := range []string{"", "Published", "deleted", "archived"} {
				_, err := model.ParseNoteState(label)
				So(err, ShouldWrap, model.ErrUnknownNoteState)
			}
		})
	})
}

func TestParseCommentState(t *testing.T) {
	Convey("Given comment state labels", t, func() {
		Convey("When parsing valid labels", func() {
			for _, label := range []string{"visible", "pending", "hidden", "rejected"} {
				state, err := model.ParseCommentState(label)
				So(err, ShouldBeNil)
				So(string(state), ShouldEqual, label)
			}
		})

		Convey("When parsing an unknown label", func() {
			_, err := model.ParseCommentState("published")
			So(err, ShouldWrap, model.ErrUnknownCommentState)
		})
	})
}

func TestParseTargetType(t *testing.T) {
	Convey("Given report target labels", t, func() {
		Convey("Then note and comment are accepted", func() {
			for _, label := range []string{"note", "comment"} {
				target, err := model.ParseTargetType(label)
				So(err, ShouldBeNil)
				So(string(target), ShouldEqual, label)
			}
		})

		Convey("And anything else is rejected", func() {
			_, err := model.ParseTargetType("user")
			So(err, ShouldWrap, model.ErrUnknownTargetType)
		})
	})
}

func TestParseReportStatus(t *testing.T) {
	Convey("Given report status labels", t, func() {
		Convey("Then open, reviewed, and dismissed are accepted", func() {
			for _, label := range []string{"open", "reviewed", "dismissed"} {
				status, err := model.ParseReportStatus(label)
				So(err, ShouldBeNil)
				So(string(status), ShouldEqual, label)
			}
		})

		Convey("And anything else is rejected", func() {
			_, err := model.ParseReportStatus("closed")
			So(err, ShouldWrap, model.ErrUnknownReportStatus)
		})
	})
}

func TestNoteMetricsSnapshot(t *testing.T) {
	Convey("Given a note with aggregates", t, func() {
		created := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
		note := model.Note{
			ID:          "n1",
			Title:       "Resumen certamen 1",
			Subject:     "Bases de Datos",
			AuthorName:  "Carla",
			RatingAvg:   4.33,
			RatingCount: 3,
			Downloads:   17,
			Views:       120,
			CreatedAt:   created,
		}

		Convey("When taking a metrics snapshot", func() {
			m := note.Metrics()

			Convey("Then the ranking-relevant fields carry over", func() {
				So(m.ID, ShouldEqual, "n1")
				So(m.Subject, ShouldEqual, "Bases de Datos")
				So(m.RatingAvg, ShouldEqual, 4.33)
				So(m.RatingCount, ShouldEqual, 3)
				So(m.Downloads, ShouldEqual, 17)
				So(m.CreatedAt.Equal(created), ShouldBeTrue)
			})
		})
	})
}
