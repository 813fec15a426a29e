// Package model contains domain models passed between layers.
package model

import (
	"math"
	"slices"
	"strings"
	"time"
)

// Result is the canonical outcome of a game.
type Result string

// Canonical results.
const (
	ResultWin     Result = "WIN"
	ResultDraw    Result = "DRAW"
	ResultLose    Result = "LOSE"
	ResultUnknown Result = "UNKNOWN"
)

// Decided reports whether the result counts towards win rate.
func (r Result) Decided() bool { return r == ResultWin || r == ResultLose }

// GameType is the canonical game mode.
type GameType string

// Canonical game modes.
const (
	GameTypeUnknown GameType = "UNKNOWN"
	GameType1v1     GameType = "1v1"
	GameType2v2     GameType = "2v2"
	GameType2v2v2   GameType = "2v2v2"
	GameType3v3     GameType = "3v3"
	GameType3v3v3   GameType = "3v3v3"
)

// IsTeam reports whether more than one player plays per side.
func (t GameType) IsTeam() bool {
	switch t {
	case GameType2v2, GameType2v2v2, GameType3v3, GameType3v3v3:
		return true
	default:
		return false
	}
}

// Game is one logged game of a user. Read-only to the insight engines.
type Game struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Score     float64   `json:"score"`
	Inning    float64   `json:"inning"`
	Result    Result    `json:"result"`
	GameType  GameType  `json:"gameType"`
	GameDate  time.Time `json:"gameDate"`
	Memo      string    `json:"memo,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// HasValidInning reports whether the game can contribute to averages.
func (g *Game) HasValidInning() bool {
	return !math.IsNaN(g.Inning) && !math.IsInf(g.Inning, 0) && g.Inning > 0
}

// Average returns score/inning, or 0 when the inning count is not usable.
func (g *Game) Average() float64 {
	if !g.HasValidInning() {
		return 0
	}
	score := g.Score
	if math.IsNaN(score) || math.IsInf(score, 0) {
		score = 0
	}
	return score / g.Inning
}

// HasDate reports whether the game carries a usable date.
func (g *Game) HasDate() bool { return !g.GameDate.IsZero() }

// SortByDateDesc orders games most recent first. Ties fall back to creation
// time and then id so the order is deterministic. Undated games sort last.
func SortByDateDesc(games []Game) {
	slices.SortStableFunc(games, func(a, b Game) int {
		if c := b.GameDate.Compare(a.GameDate); c != 0 {
			return c
		}
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}
