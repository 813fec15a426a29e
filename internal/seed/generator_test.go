package seed

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/carom/internal/domain/benchmark"
	"github.com/okian/carom/internal/domain/model"
)

func TestGenerate(t *testing.T) {
	Convey("Given a seed configuration", t, func() {
		now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		cfg := &Config{Users: 8, GamesPerUser: 12, Months: 3, Seed: 42, Now: now}
		table := benchmark.DefaultTable()

		players := Generate(cfg, table)

		Convey("It creates the requested number of players and games", func() {
			So(players, ShouldHaveLength, 8)
			for _, p := range players {
				So(p.Games, ShouldHaveLength, 12)
				So(p.ID, ShouldBeEmpty)
			}
			So(players[0].Name, ShouldEqual, "player-001")
		})

		Convey("Games stay inside the configured ranges", func() {
			earliest := now.Add(-3 * daysPerMonth * hoursPerDay * time.Hour)
			for _, p := range players {
				So(p.Skill, ShouldBeBetweenOrEqual, skillMin, skillMin+skillRange)
				So(table.Lookup(p.Handicap).Handicap, ShouldEqual, int(p.Handicap))
				for _, g := range p.Games {
					So(g.Inning, ShouldBeBetweenOrEqual, float64(inningMin), float64(inningMin+inningRange-1))
					So(g.Score, ShouldBeGreaterThanOrEqualTo, 0.0)
					So(g.Result, ShouldBeIn, model.ResultWin, model.ResultDraw, model.ResultLose)
					So(g.GameType, ShouldNotEqual, model.GameTypeUnknown)
					So(g.GameDate.After(now), ShouldBeFalse)
					So(g.GameDate.Before(earliest), ShouldBeFalse)
				}
			}
		})

		Convey("The same seed reproduces the same data", func() {
			again := Generate(cfg, table)
			So(again, ShouldResemble, players)
		})

		Convey("A different seed changes the data", func() {
			other := Generate(&Config{Users: 8, GamesPerUser: 12, Months: 3, Seed: 43, Now: now}, table)
			So(other, ShouldNotResemble, players)
		})
	})
}

func TestGameID(t *testing.T) {
	Convey("Game ids are stable per user and index", t, func() {
		So(gameID("u1", 0), ShouldEqual, gameID("u1", 0))
		So(gameID("u1", 0), ShouldNotEqual, gameID("u1", 1))
		So(gameID("u1", 0), ShouldNotEqual, gameID("u2", 0))
	})
}
