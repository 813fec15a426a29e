// Package monthly groups a game selection by calendar month and summarizes
// each month with the statistics calculator.
package monthly

import (
	"fmt"
	"time"

	"github.com/okian/carom/internal/domain/model"
	"github.com/okian/carom/internal/domain/stats"
)

// Row is one calendar month. Average and WinRate are nil for months without
// games so that "no data" is distinguishable from a zero average.
//
// WinRate is 0, not nil, for a month whose games are all draws or unknown
// results: the month has data, it just has no decided games.
type Row struct {
	Key       string   `json:"key"`
	Label     string   `json:"label"`
	Year      int      `json:"year"`
	Month     int      `json:"month"`
	Games     int      `json:"games"`
	Wins      int      `json:"wins"`
	Draws     int      `json:"draws"`
	Losses    int      `json:"losses"`
	WinRate   *float64 `json:"winRate"`
	Average   *float64 `json:"average"`
	BestScore float64  `json:"bestScore"`
}

type month struct {
	year  int
	month time.Month
}

func (m month) next() month {
	if m.month == time.December {
		return month{m.year + 1, time.January}
	}
	return month{m.year, m.month + 1}
}

func (m month) before(o month) bool {
	return m.year < o.year || (m.year == o.year && m.month < o.month)
}

// Rollup emits one row per month from the oldest to the newest month present
// in games, filling the gaps. Rows are oldest first. Months are taken in loc;
// nil means UTC. Games without a date are ignored.
func Rollup(games []model.Game, loc *time.Location) []Row {
	if loc == nil {
		loc = time.UTC
	}

	buckets := make(map[month][]model.Game)
	var first, last month
	seen := false
	for i := range games {
		if !games[i].HasDate() {
			continue
		}
		d := games[i].GameDate.In(loc)
		m := month{d.Year(), d.Month()}
		buckets[m] = append(buckets[m], games[i])
		if !seen {
			first, last, seen = m, m, true
			continue
		}
		if m.before(first) {
			first = m
		}
		if last.before(m) {
			last = m
		}
	}
	if !seen {
		return []Row{}
	}

	var rows []Row
	for m := first; !last.before(m); m = m.next() {
		rows = append(rows, row(m, buckets[m]))
	}
	return rows
}

func row(m month, games []model.Game) Row {
	r := Row{
		Key:   fmt.Sprintf("%04d-%02d", m.year, int(m.month)),
		Label: fmt.Sprintf("%04d.%02d", m.year, int(m.month)),
		Year:  m.year,
		Month: int(m.month),
	}
	if len(games) == 0 {
		return r
	}
	s := stats.Calc(games)
	r.Games = s.TotalGames
	r.Wins = s.Wins
	r.Draws = s.Draws
	r.Losses = s.Losses
	r.WinRate = &s.WinRate
	r.Average = &s.Average
	r.BestScore = s.BestScore
	return r
}
