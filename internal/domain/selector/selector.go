// Package selector narrows a user's date-descending game history down to a
// requested slice: the last N games, a date range, the current month or a
// specific calendar month.
package selector

import (
	"slices"
	"time"

	"github.com/okian/carom/internal/domain/model"
	"github.com/okian/carom/internal/domain/numeric"
)

// DefaultMaxN bounds LastN selections.
const DefaultMaxN = 2000

// Kind identifies a selector shape.
type Kind string

// Selector kinds.
const (
	KindAll       Kind = "all"
	KindLastN     Kind = "lastN"
	KindRange     Kind = "range"
	KindThisMonth Kind = "thisMonth"
	KindYearMonth Kind = "yearMonth"
)

// Selector describes which slice of the history to keep. Only the fields
// relevant to Kind are read.
type Selector struct {
	Kind  Kind       `json:"kind"`
	N     int        `json:"n,omitempty"`
	From  *time.Time `json:"from,omitempty"`
	To    *time.Time `json:"to,omitempty"`
	Now   time.Time  `json:"now,omitempty"`
	Year  int        `json:"year,omitempty"`
	Month int        `json:"month,omitempty"`
}

// All selects every game.
func All() Selector { return Selector{Kind: KindAll} }

// LastN selects the n most recent games.
func LastN(n int) Selector { return Selector{Kind: KindLastN, N: n} }

// Range selects games dated within [from, to]. Either bound may be nil.
func Range(from, to *time.Time) Selector { return Selector{Kind: KindRange, From: from, To: to} }

// ThisMonth selects the calendar month containing now. A zero now means the
// current time.
func ThisMonth(now time.Time) Selector { return Selector{Kind: KindThisMonth, Now: now} }

// YearMonth selects one calendar month; month is 1-12.
func YearMonth(year, month int) Selector { return Selector{Kind: KindYearMonth, Year: year, Month: month} }

// Engine applies selectors. The zero value is not usable; use New.
type Engine struct {
	maxN  int
	clock func() time.Time
	loc   *time.Location
}

// New builds an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		maxN:  DefaultMaxN,
		clock: time.Now,
		loc:   time.Local,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// MaxN returns the configured LastN upper bound.
func (e *Engine) MaxN() int { return e.maxN }

// Location returns the calendar location used for day and month boundaries.
func (e *Engine) Location() *time.Location { return e.loc }

// Apply returns the games matching sel. The result never aliases the input.
// Unknown kinds behave like All.
func (e *Engine) Apply(games []model.Game, sel Selector) []model.Game {
	switch sel.Kind {
	case KindLastN:
		return e.LastN(games, sel.N)
	case KindRange:
		return e.Range(games, sel.From, sel.To)
	case KindThisMonth:
		return e.ThisMonth(games, sel.Now)
	case KindYearMonth:
		return e.YearMonth(games, sel.Year, sel.Month)
	default:
		return clone(games)
	}
}

// LastN returns the first n games of the (date-descending) input, with n
// clamped to [0, MaxN].
func (e *Engine) LastN(games []model.Game, n int) []model.Game {
	n = numeric.Clamp(n, 0, e.maxN)
	if n == 0 {
		return []model.Game{}
	}
	if n > len(games) {
		n = len(games)
	}
	return clone(games[:n])
}

// Range keeps games dated within [from, end of day of to]. A nil from means
// the Unix epoch, a nil to means today. Both nil returns every game.
func (e *Engine) Range(games []model.Game, from, to *time.Time) []model.Game {
	if from == nil && to == nil {
		return clone(games)
	}
	start := time.Unix(0, 0).In(e.loc)
	if from != nil {
		start = *from
	}
	end := e.clock()
	if to != nil {
		end = *to
	}
	return between(games, start, e.endOfDay(end))
}

// ThisMonth keeps games within the calendar month containing now.
func (e *Engine) ThisMonth(games []model.Game, now time.Time) []model.Game {
	if now.IsZero() {
		now = e.clock()
	}
	now = now.In(e.loc)
	return e.YearMonth(games, now.Year(), int(now.Month()))
}

// YearMonth keeps games within the given calendar month. An invalid year or
// month yields an empty slice.
func (e *Engine) YearMonth(games []model.Game, year, month int) []model.Game {
	if year < 1 || month < 1 || month > 12 {
		return []model.Game{}
	}
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, e.loc)
	end := start.AddDate(0, 1, 0).Add(-time.Millisecond)
	return between(games, start, end)
}

func (e *Engine) endOfDay(t time.Time) time.Time {
	t = t.In(e.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(999*time.Millisecond), e.loc)
}

func between(games []model.Game, start, end time.Time) []model.Game {
	out := make([]model.Game, 0, len(games))
	for i := range games {
		g := &games[i]
		if !g.HasDate() {
			continue
		}
		if g.GameDate.Before(start) || g.GameDate.After(end) {
			continue
		}
		out = append(out, *g)
	}
	return out
}

func clone(games []model.Game) []model.Game {
	if games == nil {
		return []model.Game{}
	}
	return slices.Clone(games)
}
