package smoketest

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestVerifyRanking(t *testing.T) {
	Convey("Given ranking verification", t, func() {
		prev := 2

		Convey("When the list is well formed", func() {
			entries := []rankedEntry{
				{Rank: 1, ID: "a", Score: 4.8},
				{Rank: 2, ID: "b", Score: 4.8},
				{Rank: 3, ID: "c", Score: 3.2, PrevRank: &prev},
			}

			Convey("Then it passes", func() {
				So(verifyRanking("rating", entries, 30), ShouldBeNil)
			})
		})

		Convey("When ranks are not sequential", func() {
			entries := []rankedEntry{
				{Rank: 1, ID: "a", Score: 4.8},
				{Rank: 3, ID: "b", Score: 4.0},
			}

			Convey("Then it fails", func() {
				So(verifyRanking("rating", entries, 30), ShouldNotBeNil)
			})
		})

		Convey("When scores increase down the list", func() {
			entries := []rankedEntry{
				{Rank: 1, ID: "a", Score: 3.0},
				{Rank: 2, ID: "b", Score: 4.0},
			}

			Convey("Then it fails", func() {
				So(verifyRanking("rating", entries, 30), ShouldNotBeNil)
			})
		})

		Convey("When a note repeats", func() {
			entries := []rankedEntry{
				{Rank: 1, ID: "a", Score: 4.0},
				{Rank: 2, ID: "a", Score: 3.0},
			}

			Convey("Then it fails", func() {
				So(verifyRanking("rating", entries, 30), ShouldNotBeNil)
			})
		})

		Convey("When the page exceeds the limit", func() {
			entries := []rankedEntry{
				{Rank: 1, ID: "a", Score: 4.0},
				{Rank: 2, ID: "b", Score: 3.0},
			}

			Convey("Then it fails", func() {
				So(verifyRanking("rating", entries, 1), ShouldNotBeNil)
			})
		})

		Convey("When the list is empty", func() {
			Convey("Then it passes", func() {
				So(verifyRanking("rating", nil, 30), ShouldBeNil)
			})
		})
	})
}
