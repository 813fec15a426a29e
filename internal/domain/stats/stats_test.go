package stats_test

import (
	"math"
	"testing"

	"github.com/okian/carom/internal/domain/model"
	"github.com/okian/carom/internal/domain/stats"
	. "github.com/smartystreets/goconvey/convey"
)

func TestCalc(t *testing.T) {
	Convey("Given no games", t, func() {
		Convey("Then the stats are the empty object", func() {
			So(stats.Calc(nil), ShouldResemble, stats.Empty)
			So(stats.Calc([]model.Game{}), ShouldResemble, stats.Empty)
		})
	})

	Convey("Given one win and one loss over 20 innings each", t, func() {
		games := []model.Game{
			{Score: 20, Inning: 20, Result: model.ResultWin},
			{Score: 10, Inning: 20, Result: model.ResultLose},
		}

		s := stats.Calc(games)

		Convey("Then the aggregate average uses score and inning sums", func() {
			So(s.Average, ShouldEqual, 0.75)
			So(s.WinRate, ShouldEqual, 50.0)
			So(s.Wins, ShouldEqual, 1)
			So(s.Losses, ShouldEqual, 1)
			So(s.TotalGames, ShouldEqual, 2)
			So(s.TotalScore, ShouldEqual, 30)
			So(s.TotalInnings, ShouldEqual, 40)
		})

		Convey("Then volatility is the population deviation of per-game averages", func() {
			// per-game averages 1.0 and 0.5 -> mean 0.75, deviation 0.25
			So(s.Volatility, ShouldEqual, 0.25)
			So(s.BestAverage, ShouldEqual, 1.0)
			So(s.BestScore, ShouldEqual, 20)
		})

		Convey("Then repeated calls are identical and the input is untouched", func() {
			again := stats.Calc(games)
			So(again, ShouldResemble, s)
			So(games[0].Score, ShouldEqual, 20)
			So(games[1].Result, ShouldEqual, model.ResultLose)
		})
	})

	Convey("Given draws, unknown results and invalid innings", t, func() {
		games := []model.Game{
			{Score: 12, Inning: 24, Result: model.ResultWin},
			{Score: 30, Inning: 0, Result: model.ResultDraw},
			{Score: 8, Inning: 16, Result: model.ResultUnknown},
			{Score: 9, Inning: math.NaN(), Result: model.ResultLose},
		}

		s := stats.Calc(games)

		Convey("Then every game counts towards the total", func() {
			So(s.TotalGames, ShouldEqual, 4)
			So(s.Wins, ShouldEqual, 1)
			So(s.Draws, ShouldEqual, 1)
			So(s.Losses, ShouldEqual, 1)
		})

		Convey("Then draws and unknowns stay out of the win-rate denominator", func() {
			So(s.WinRate, ShouldEqual, 50.0)
		})

		Convey("Then only positive-inning games feed average and volatility", func() {
			So(s.TotalScore, ShouldEqual, 20)
			So(s.TotalInnings, ShouldEqual, 40)
			So(s.Average, ShouldEqual, 0.5)
			So(s.Volatility, ShouldEqual, 0)
			So(s.BestAverage, ShouldEqual, 0.5)
		})

		Convey("Then the best score looks at all games", func() {
			So(s.BestScore, ShouldEqual, 30)
		})
	})

	Convey("Given a single valid game", t, func() {
		s := stats.Calc([]model.Game{{Score: 7, Inning: 21, Result: model.ResultWin}})

		Convey("Then volatility is zero", func() {
			So(s.Volatility, ShouldEqual, 0)
			So(s.Average, ShouldEqual, 0.333)
			So(s.WinRate, ShouldEqual, 100)
		})
	})

	Convey("Given only undecided games", t, func() {
		s := stats.Calc([]model.Game{{Score: 5, Inning: 10, Result: model.ResultDraw}})
		So(s.WinRate, ShouldEqual, 0)
		So(s.Average, ShouldEqual, 0.5)
	})

	Convey("Given a win rate that needs rounding", t, func() {
		games := []model.Game{
			{Score: 1, Inning: 1, Result: model.ResultWin},
			{Score: 1, Inning: 1, Result: model.ResultWin},
			{Score: 1, Inning: 1, Result: model.ResultLose},
		}
		So(stats.Calc(games).WinRate, ShouldEqual, 66.7)
	})
}
