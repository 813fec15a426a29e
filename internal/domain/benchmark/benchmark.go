// Package benchmark maps a handicap onto the average a player at that level
// is expected to produce.
//
// A Table is an immutable value built once (from the built-in rows or a YAML
// file) and injected wherever lookups are needed.
package benchmark

import (
	"math"
	"slices"

	"github.com/okian/carom/internal/domain/numeric"
)

// Entry is one benchmark row. Min and Max bound the normal operating band.
type Entry struct {
	Handicap int     `json:"handicap" koanf:"handicap"`
	Expected float64 `json:"expected" koanf:"expected"`
	Min      float64 `json:"min" koanf:"min"`
	Max      float64 `json:"max" koanf:"max"`
}

// fallbackEntry is returned only when a table holds no usable rows.
var fallbackEntry = Entry{Handicap: 25, Expected: 0.5, Min: 0.45, Max: 0.55}

// Table is an ordered, read-only benchmark lookup.
type Table struct {
	rows  []Entry
	byKey map[int]Entry
}

// NewTable builds a table from rows. Rows with non-finite numbers are
// skipped; when a handicap repeats the later row wins. The input slice is
// not retained.
func NewTable(rows []Entry) *Table {
	t := &Table{byKey: make(map[int]Entry, len(rows))}
	for _, r := range rows {
		if !finite(r.Expected) || !finite(r.Min) || !finite(r.Max) {
			continue
		}
		t.byKey[r.Handicap] = r
	}
	t.rows = make([]Entry, 0, len(t.byKey))
	for _, r := range t.byKey {
		t.rows = append(t.rows, r)
	}
	slices.SortFunc(t.rows, func(a, b Entry) int { return a.Handicap - b.Handicap })
	return t
}

// Rows returns a copy of the table ordered by handicap.
func (t *Table) Rows() []Entry {
	return slices.Clone(t.rows)
}

// Len returns the number of populated handicaps.
func (t *Table) Len() int { return len(t.rows) }

// Lookup returns the benchmark row for handicap. The input is rounded to
// the nearest integer. Values below or above the table clamp to the first
// or last row; holes resolve to the nearest populated key, lower side
// first on a tie. Lookup never fails.
func (t *Table) Lookup(handicap float64) Entry {
	if t == nil || len(t.rows) == 0 {
		return fallbackEntry
	}
	key := int(numeric.Round(handicap, 0))

	lowest, highest := t.rows[0], t.rows[len(t.rows)-1]
	switch {
	case key <= lowest.Handicap:
		return lowest
	case key >= highest.Handicap:
		return highest
	}
	if e, ok := t.byKey[key]; ok {
		return e
	}
	span := highest.Handicap - lowest.Handicap
	for d := 1; d <= span; d++ {
		if e, ok := t.byKey[key-d]; ok {
			return e
		}
		if e, ok := t.byKey[key+d]; ok {
			return e
		}
	}
	return fallbackEntry
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
