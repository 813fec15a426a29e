package selector_test

import (
	"testing"
	"time"

	"github.com/okian/carom/internal/domain/model"
	"github.com/okian/carom/internal/domain/selector"
	. "github.com/smartystreets/goconvey/convey"
)

func history(loc *time.Location) []model.Game {
	// date-descending, as stores return it
	return []model.Game{
		{ID: "g6", GameDate: time.Date(2025, 4, 30, 23, 59, 59, 0, loc)},
		{ID: "g5", GameDate: time.Date(2025, 4, 2, 10, 0, 0, 0, loc)},
		{ID: "g4", GameDate: time.Date(2025, 3, 31, 21, 0, 0, 0, loc)},
		{ID: "g3", GameDate: time.Date(2025, 3, 1, 0, 0, 0, 0, loc)},
		{ID: "g2", GameDate: time.Date(2025, 2, 14, 19, 30, 0, 0, loc)},
		{ID: "g1", GameDate: time.Date(2025, 1, 3, 8, 0, 0, 0, loc)},
		{ID: "undated"},
	}
}

func ids(games []model.Game) []string {
	out := make([]string, len(games))
	for i, g := range games {
		out[i] = g.ID
	}
	return out
}

func ptr(t time.Time) *time.Time { return &t }

func TestEngine(t *testing.T) {
	Convey("Given a selector engine pinned to a clock", t, func() {
		loc := time.UTC
		now := time.Date(2025, 4, 15, 12, 0, 0, 0, loc)
		engine := selector.New(
			selector.WithLocation(loc),
			selector.WithClock(func() time.Time { return now }),
			selector.WithMaxN(5),
		)
		games := history(loc)

		Convey("When selecting all", func() {
			out := engine.Apply(games, selector.All())
			So(len(out), ShouldEqual, len(games))

			Convey("Then the result does not alias the input", func() {
				out[0].ID = "changed"
				So(games[0].ID, ShouldEqual, "g6")
			})
		})

		Convey("When selecting the last N", func() {
			So(ids(engine.Apply(games, selector.LastN(2))), ShouldResemble, []string{"g6", "g5"})
			So(engine.Apply(games, selector.LastN(0)), ShouldBeEmpty)
			So(engine.Apply(games, selector.LastN(-4)), ShouldBeEmpty)

			Convey("Then N is clamped to the configured maximum", func() {
				So(len(engine.Apply(games, selector.LastN(100))), ShouldEqual, 5)
			})

			Convey("Then N larger than the history returns everything", func() {
				So(len(selector.New().LastN(games[:3], 50)), ShouldEqual, 3)
			})
		})

		Convey("When selecting a date range", func() {
			from := time.Date(2025, 2, 14, 0, 0, 0, 0, loc)
			to := time.Date(2025, 3, 31, 0, 0, 0, 0, loc)

			Convey("Then both bounds are inclusive and to runs through end of day", func() {
				out := engine.Apply(games, selector.Range(ptr(from), ptr(to)))
				So(ids(out), ShouldResemble, []string{"g4", "g3", "g2"})
			})

			Convey("Then a missing from starts at the epoch", func() {
				out := engine.Range(games, nil, ptr(to))
				So(ids(out), ShouldResemble, []string{"g4", "g3", "g2", "g1"})
			})

			Convey("Then a missing to ends today", func() {
				out := engine.Range(games, ptr(from), nil)
				So(ids(out), ShouldResemble, []string{"g5", "g4", "g3", "g2"})
			})

			Convey("Then no bounds keeps everything, undated included", func() {
				So(len(engine.Range(games, nil, nil)), ShouldEqual, len(games))
			})
		})

		Convey("When selecting this month", func() {
			Convey("Then the clock month is used by default", func() {
				So(ids(engine.Apply(games, selector.ThisMonth(time.Time{}))), ShouldResemble, []string{"g6", "g5"})
			})

			Convey("Then an explicit now picks its own month", func() {
				march := time.Date(2025, 3, 20, 0, 0, 0, 0, loc)
				So(ids(engine.ThisMonth(games, march)), ShouldResemble, []string{"g4", "g3"})
			})
		})

		Convey("When selecting a year and month", func() {
			So(ids(engine.Apply(games, selector.YearMonth(2025, 2))), ShouldResemble, []string{"g2"})
			So(engine.Apply(games, selector.YearMonth(2024, 2)), ShouldBeEmpty)

			Convey("Then an invalid month yields nothing", func() {
				So(engine.YearMonth(games, 2025, 13), ShouldBeEmpty)
				So(engine.YearMonth(games, 2025, 0), ShouldBeEmpty)
				So(engine.YearMonth(games, 0, 3), ShouldBeEmpty)
			})
		})

		Convey("When the calendar location differs from UTC", func() {
			seoul := time.FixedZone("KST", 9*60*60)
			kst := selector.New(selector.WithLocation(seoul))
			// 2025-03-31 21:00 UTC is already April 1st in Seoul.
			out := kst.YearMonth(games, 2025, 4)
			So(ids(out), ShouldResemble, []string{"g5", "g4"})
		})
	})
}
