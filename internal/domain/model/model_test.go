package model_test

import (
	"math"
	"testing"
	"time"

	"github.com/okian/carom/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestParseResult(t *testing.T) {
	Convey("Given result tokens from clients", t, func() {
		Convey("When they are canonical or legacy spellings", func() {
			Convey("Then they normalize to the canonical enum", func() {
				So(model.ParseResult("WIN"), ShouldEqual, model.ResultWin)
				So(model.ParseResult(" win "), ShouldEqual, model.ResultWin)
				So(model.ParseResult("승"), ShouldEqual, model.ResultWin)
				So(model.ParseResult("무"), ShouldEqual, model.ResultDraw)
				So(model.ParseResult("DRAW"), ShouldEqual, model.ResultDraw)
				So(model.ParseResult("패"), ShouldEqual, model.ResultLose)
				So(model.ParseResult("LOSS"), ShouldEqual, model.ResultLose)
				So(model.ParseResult("L"), ShouldEqual, model.ResultLose)
			})
		})

		Convey("When the token is unknown", func() {
			Convey("Then it maps to UNKNOWN", func() {
				So(model.ParseResult(""), ShouldEqual, model.ResultUnknown)
				So(model.ParseResult("forfeit"), ShouldEqual, model.ResultUnknown)
			})
		})

		Convey("Decided is true only for WIN and LOSE", func() {
			So(model.ResultWin.Decided(), ShouldBeTrue)
			So(model.ResultLose.Decided(), ShouldBeTrue)
			So(model.ResultDraw.Decided(), ShouldBeFalse)
			So(model.ResultUnknown.Decided(), ShouldBeFalse)
		})
	})
}

func TestParseGameType(t *testing.T) {
	Convey("Given game type tokens", t, func() {
		So(model.ParseGameType("2v2"), ShouldEqual, model.GameType2v2)
		So(model.ParseGameType("2:2"), ShouldEqual, model.GameType2v2)
		So(model.ParseGameType("3 vs 3"), ShouldEqual, model.GameType3v3)
		So(model.ParseGameType("개인전"), ShouldEqual, model.GameType1v1)
		So(model.ParseGameType("4v4"), ShouldEqual, model.GameTypeUnknown)

		Convey("Then only multi-player sides are team games", func() {
			So(model.GameType1v1.IsTeam(), ShouldBeFalse)
			So(model.GameTypeUnknown.IsTeam(), ShouldBeFalse)
			So(model.GameType2v2.IsTeam(), ShouldBeTrue)
			So(model.GameType2v2v2.IsTeam(), ShouldBeTrue)
			So(model.GameType3v3.IsTeam(), ShouldBeTrue)
			So(model.GameType3v3v3.IsTeam(), ShouldBeTrue)
		})
	})
}

func TestGameAverage(t *testing.T) {
	Convey("Given games with various innings", t, func() {
		So((&model.Game{Score: 10, Inning: 20}).Average(), ShouldEqual, 0.5)
		So((&model.Game{Score: 10, Inning: 0}).Average(), ShouldEqual, 0)
		So((&model.Game{Score: 10, Inning: math.NaN()}).HasValidInning(), ShouldBeFalse)
		So((&model.Game{Score: math.Inf(1), Inning: 10}).Average(), ShouldEqual, 0)
	})
}

func TestSortByDateDesc(t *testing.T) {
	Convey("Given games in arbitrary order", t, func() {
		base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
		games := []model.Game{
			{ID: "old", GameDate: base.AddDate(0, -1, 0)},
			{ID: "none"},
			{ID: "b", GameDate: base},
			{ID: "a", GameDate: base},
			{ID: "new", GameDate: base.AddDate(0, 0, 3)},
		}

		model.SortByDateDesc(games)

		Convey("Then the most recent come first with undated last", func() {
			ids := make([]string, len(games))
			for i, g := range games {
				ids[i] = g.ID
			}
			So(ids, ShouldResemble, []string{"new", "a", "b", "old", "none"})
		})
	})
}
