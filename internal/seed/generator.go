package seed

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/okian/carom/internal/domain/benchmark"
	"github.com/okian/carom/internal/domain/model"
	"github.com/okian/carom/internal/domain/numeric"
)

// Generation ranges.
const (
	skillMin       = 0.7
	skillRange     = 0.6
	gameNoise      = 0.25
	inningMin      = 20
	inningRange    = 21
	drawChance     = 0.05
	winSlope       = 1.5
	winFloor       = 0.05
	winCeil        = 0.95
	daysPerMonth   = 30
	hoursPerDay    = 24
	teamGameChance = 0.6
)

var teamTypes = []model.GameType{model.GameType2v2, model.GameType3v3, model.GameType2v2v2, model.GameType3v3v3}

// Generate builds cfg.Users players with cfg.GamesPerUser games each.
// Handicaps come from the rows of table. Output depends only on cfg.Seed,
// cfg.Now and the table.
func Generate(cfg *Config, table *benchmark.Table) []Player {
	r := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	rows := table.Rows()
	if len(rows) == 0 {
		rows = benchmark.DefaultTable().Rows()
	}
	players := make([]Player, cfg.Users)
	for i := range players {
		row := rows[r.IntN(len(rows))]
		p := Player{
			Name:     fmt.Sprintf("player-%03d", i+1),
			Handicap: float64(row.Handicap),
			Skill:    skillMin + r.Float64()*skillRange,
		}
		p.Games = make([]model.Game, cfg.GamesPerUser)
		for j := range p.Games {
			p.Games[j] = generateGame(r, cfg, row, p.Skill)
		}
		players[i] = p
	}
	return players
}

func generateGame(r *rand.Rand, cfg *Config, row benchmark.Entry, skill float64) model.Game {
	inning := float64(inningMin + r.IntN(inningRange))
	avg := row.Expected * skill * (1 + (r.Float64()*2-1)*gameNoise)
	score := math.Round(avg * inning)

	gameType := model.GameType1v1
	if r.Float64() < teamGameChance {
		gameType = teamTypes[r.IntN(len(teamTypes))]
	}

	return model.Game{
		Score:    score,
		Inning:   inning,
		Result:   drawResult(r, score/inning, row.Expected),
		GameType: gameType,
		GameDate: gameDate(r, cfg),
	}
}

// drawResult favors a win the further avg sits above expected.
func drawResult(r *rand.Rand, avg, expected float64) model.Result {
	if r.Float64() < drawChance {
		return model.ResultDraw
	}
	pWin := numeric.Clamp(0.5+(avg/expected-1)*winSlope, winFloor, winCeil)
	if r.Float64() < pWin {
		return model.ResultWin
	}
	return model.ResultLose
}

func gameDate(r *rand.Rand, cfg *Config) time.Time {
	span := max(cfg.Months, 1) * daysPerMonth * hoursPerDay
	return cfg.Now.Add(-time.Duration(r.IntN(span)) * time.Hour).Truncate(time.Hour)
}
