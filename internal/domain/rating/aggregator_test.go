package rating_test

import (
	"testing"

	rating "github.com/apuntia/apuntia/internal/domain/rating"
	. "github.com/smartystreets/goconvey/convey"
)

func TestAggregate(t *testing.T) {
	Convey("Given sets of votes", t, func() {
		Convey("When the set is empty", func() {
			s := rating.Aggregate(nil)

			Convey("Then the aggregate is zero", func() {
				So(s.Avg, ShouldEqual, 0)
				So(s.Count, ShouldEqual, 0)
			})
		})

		Convey("When the set has one vote", func() {
			s := rating.Aggregate([]int{5})
			So(s.Avg, ShouldEqual, 5)
			So(s.Count, ShouldEqual, 1)
		})

		Convey("When the mean is not exact", func() {
			s := rating.Aggregate([]int{5, 4, 4})

			Convey("Then it rounds to 2 decimal places", func() {
				So(s.Avg, ShouldEqual, 4.33)
				So(s.Count, ShouldEqual, 3)
			})
		})

		Convey("When the votes repeat the same value", func() {
			s := rating.Aggregate([]int{2, 2, 2, 2})
			So(s.Avg, ShouldEqual, 2)
			So(s.Count, ShouldEqual, 4)
		})

		Convey("When recomputing from the same set twice", func() {
			votes := []int{1, 3, 5, 4}
			first := rating.Aggregate(votes)
			second := rating.Aggregate(votes)

			Convey("Then the results are identical", func() {
				So(second, ShouldResemble, first)
			})
		})

		Convey("When the order of votes differs", func() {
			a := rating.Aggregate([]int{1, 5, 3})
			b := rating.Aggregate([]int{3, 1, 5})
			So(a, ShouldResemble, b)
		})
	})
}

func TestValidateValue(t *testing.T) {
	Convey("Given vote values", t, func() {
		Convey("Then 1 through 5 are accepted", func() {
			for v := 1; v <= 5; v++ {
				So(rating.ValidateValue(v), ShouldBeNil)
			}
		})

		Convey("And out-of-range values are rejected", func() {
			for _, v := range []int{0, -1, 6, 100} {
				err := rating.ValidateValue(v)
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "invalid rating value")
			}
		})
	})
}
