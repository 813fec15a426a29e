// Package stats turns a slice of games into aggregate statistics.
package stats

import (
	"github.com/okian/carom/internal/domain/model"
	"github.com/okian/carom/internal/domain/numeric"
)

// Full is the aggregate statistics of a set of games.
//
// Average, Volatility and BestAverage only consider games with a positive
// inning count. WinRate only considers decided games.
type Full struct {
	TotalGames   int     `json:"totalGames"`
	Wins         int     `json:"wins"`
	Draws        int     `json:"draws"`
	Losses       int     `json:"losses"`
	TotalScore   float64 `json:"totalScore"`
	TotalInnings float64 `json:"totalInnings"`
	Average      float64 `json:"average"`
	WinRate      float64 `json:"winRate"`
	Volatility   float64 `json:"volatility"`
	BestAverage  float64 `json:"bestAverage"`
	BestScore    float64 `json:"bestScore"`
}

// Empty is the zero-valued statistics object.
var Empty = Full{}

// Calc computes statistics over games. It never mutates the input.
func Calc(games []model.Game) Full {
	if len(games) == 0 {
		return Empty
	}

	out := Full{TotalGames: len(games)}
	var (
		score, innings float64
		averages       = make([]float64, 0, len(games))
		bestAverage    float64
		bestScore      float64
	)

	for i := range games {
		g := &games[i]
		switch g.Result {
		case model.ResultWin:
			out.Wins++
		case model.ResultDraw:
			out.Draws++
		case model.ResultLose:
			out.Losses++
		}

		s := numeric.SafeNumber(g.Score, 0)
		if i == 0 || s > bestScore {
			bestScore = s
		}

		if !g.HasValidInning() {
			continue
		}
		score += s
		innings += g.Inning
		avg := g.Average()
		if len(averages) == 0 || avg > bestAverage {
			bestAverage = avg
		}
		averages = append(averages, avg)
	}

	if innings > 0 {
		out.Average = numeric.Round(score/innings, numeric.PrecisionAverage)
	}
	if decided := out.Wins + out.Losses; decided > 0 {
		out.WinRate = numeric.Round(100*float64(out.Wins)/float64(decided), numeric.PrecisionRate)
	}
	out.TotalScore = numeric.Round(score, numeric.PrecisionCount)
	out.TotalInnings = numeric.Round(innings, numeric.PrecisionCount)
	out.Volatility = numeric.Round(numeric.PopStdDev(averages), numeric.PrecisionAverage)
	out.BestAverage = numeric.Round(bestAverage, numeric.PrecisionAverage)
	out.BestScore = numeric.Round(bestScore, numeric.PrecisionCount)
	return out
}
