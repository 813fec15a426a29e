package numeric_test

import (
	"math"
	"testing"

	"github.com/okian/carom/internal/domain/numeric"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRound(t *testing.T) {
	cases := []struct {
		in     float64
		places int
		want   float64
	}{
		{0.75, 3, 0.75},
		{1.0005, 3, 1.001},
		{1.005, 2, 1.01},
		{2.5, 0, 3},
		{-2.5, 0, -2},
		{-0.0125, 3, -0.012},
		{66.66666, 1, 66.7},
		{math.NaN(), 3, 0},
		{math.Inf(1), 1, 0},
	}
	for _, tc := range cases {
		if got := numeric.Round(tc.in, tc.places); got != tc.want {
			t.Errorf("Round(%v, %d) = %v, want %v", tc.in, tc.places, got, tc.want)
		}
	}
}

func TestHelpers(t *testing.T) {
	Convey("Given the numeric helpers", t, func() {
		Convey("SafeNumber keeps finite values and replaces the rest", func() {
			So(numeric.SafeNumber(3.5, 0), ShouldEqual, 3.5)
			So(numeric.SafeNumber(math.NaN(), 7), ShouldEqual, 7)
			So(numeric.SafeNumber(math.Inf(-1), 1), ShouldEqual, 1)
		})

		Convey("Clamp bounds values", func() {
			So(numeric.Clamp(5, 0, 3), ShouldEqual, 3)
			So(numeric.Clamp(-1.5, 0, 3), ShouldEqual, 0)
			So(numeric.Clamp(2, 0, 3), ShouldEqual, 2)
		})

		Convey("PopStdDev divides by n", func() {
			So(numeric.PopStdDev(nil), ShouldEqual, 0)
			So(numeric.PopStdDev([]float64{0.5}), ShouldEqual, 0)
			So(numeric.PopStdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9}), ShouldEqual, 2)
		})

		Convey("Quantile interpolates linearly between ranks", func() {
			values := []float64{4, 1, 3, 2, 5}
			So(numeric.Quantile(values, 0), ShouldEqual, 1)
			So(numeric.Quantile(values, 1), ShouldEqual, 5)
			So(numeric.Quantile(values, 0.5), ShouldEqual, 3)
			So(numeric.Quantile(values, 0.05), ShouldAlmostEqual, 1.2, 1e-9)
			So(numeric.Quantile(values, 0.95), ShouldAlmostEqual, 4.8, 1e-9)
			So(numeric.Quantile(nil, 0.5), ShouldEqual, 0)

			Convey("And the input is left untouched", func() {
				So(values, ShouldResemble, []float64{4, 1, 3, 2, 5})
			})
		})

		Convey("Scale maps into [0,100] and handles a flat band", func() {
			So(numeric.Scale(5, 0, 10), ShouldEqual, 50)
			So(numeric.Scale(-3, 0, 10), ShouldEqual, 0)
			So(numeric.Scale(30, 0, 10), ShouldEqual, 100)
			So(numeric.Scale(1, 2, 2), ShouldEqual, 50)
		})
	})
}
