package repository

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/okian/carom/internal/domain/types"
	"github.com/okian/carom/pkg/metrics"
)

// Treap-based, in-memory ranking index.
//
// Ordering: average DESC, then userID ASC (deterministic).
// "less" means ranks earlier, so in-order traversal yields the leaderboard
// from best to worst.

// averageScale stores averages as fixed point with three decimals.
const averageScale = 1000

type averageFP int64

func toFixedPoint(x float64) averageFP {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return averageFP(math.Round(x * averageScale))
}

func toFloat(x averageFP) float64 {
	return float64(x) / averageScale
}

// Standing is what a user is ranked by plus display metadata.
type Standing struct {
	Name    string
	Average float64
	Games   int
	WinRate float64
}

type record struct {
	average averageFP
	name    string
	games   int
	winRate float64
}

func (r record) entry(userID string) types.Entry {
	return types.Entry{UserID: userID, Name: r.name, Average: toFloat(r.average), Games: r.games, WinRate: r.winRate}
}

// treap node
type node struct {
	id      string
	average averageFP
	prio    uint64
	left    *node
	right   *node
	size    int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less returns true if (a, aID) should appear before (b, bID).
func less(a averageFP, aID string, b averageFP, bID string) bool {
	if a != b {
		return a > b
	}
	return aID < bID
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

func insert(n *node, id string, avg averageFP) *node {
	if n == nil {
		return &node{id: id, average: avg, prio: rand.Uint64(), size: 1} //nolint:gosec // heap priority, not security
	}
	if less(avg, id, n.average, n.id) {
		n.left = insert(n.left, id, avg)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, avg)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, id string, avg averageFP) *node {
	if n == nil {
		return nil
	}
	switch {
	case avg == n.average && id == n.id:
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, id, avg)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, id, avg)
		}
	case less(avg, id, n.average, n.id):
		n.left = deleteNode(n.left, id, avg)
	default:
		n.right = deleteNode(n.right, id, avg)
	}
	fix(n)
	return n
}

// countAhead returns how many nodes hold an average above avg.
func countAhead(n *node, avg averageFP) int {
	c := 0
	for n != nil {
		if n.average > avg {
			c += nsize(n.left) + 1
			n = n.right
		} else {
			n = n.left
		}
	}
	return c
}

// walk visits nodes in rank order until fn returns false.
func walk(n *node, fn func(*node) bool) bool {
	if n == nil {
		return true
	}
	return walk(n.left, fn) && fn(n) && walk(n.right, fn)
}

// Leaderboard ranks users by overall average. Users sharing an average share
// a rank and the next distinct average takes the next rank.
//
// levels holds one node per distinct average, so a dense rank is the number
// of levels ahead plus one.
type Leaderboard struct {
	mu     sync.RWMutex
	root   *node
	levels *node
	tally  map[averageFP]int
	byID   map[string]record
}

// NewLeaderboard returns an empty Leaderboard.
func NewLeaderboard() *Leaderboard {
	return &Leaderboard{byID: make(map[string]record), tally: make(map[averageFP]int)}
}

func (l *Leaderboard) link(userID string, avg averageFP) {
	l.root = insert(l.root, userID, avg)
	if l.tally[avg] == 0 {
		l.levels = insert(l.levels, "", avg)
	}
	l.tally[avg]++
}

func (l *Leaderboard) unlink(userID string, avg averageFP) {
	l.root = deleteNode(l.root, userID, avg)
	if l.tally[avg]--; l.tally[avg] <= 0 {
		delete(l.tally, avg)
		l.levels = deleteNode(l.levels, "", avg)
	}
}

// Upsert sets the standing of userID. It reports whether anything changed.
func (l *Leaderboard) Upsert(_ context.Context, userID string, s Standing) bool {
	start := time.Now()
	defer func() { metrics.RecordStoreLatency("leaderboard", "upsert", float64(time.Since(start).Microseconds())/1000) }()

	rec := record{average: toFixedPoint(s.Average), name: s.Name, games: s.Games, winRate: s.WinRate}

	l.mu.Lock()
	old, ok := l.byID[userID]
	if ok && old == rec {
		l.mu.Unlock()
		return false
	}
	if ok {
		l.unlink(userID, old.average)
	}
	l.byID[userID] = rec
	l.link(userID, rec.average)
	size := len(l.byID)
	l.mu.Unlock()

	metrics.UpdateLeaderboardSize(size)
	return true
}

// Remove drops userID. It reports whether the user was ranked.
func (l *Leaderboard) Remove(_ context.Context, userID string) bool {
	l.mu.Lock()
	old, ok := l.byID[userID]
	if ok {
		l.unlink(userID, old.average)
		delete(l.byID, userID)
	}
	size := len(l.byID)
	l.mu.Unlock()

	if ok {
		metrics.UpdateLeaderboardSize(size)
	}
	return ok
}

// Rank returns the entry of userID or ErrNotFound.
func (l *Leaderboard) Rank(_ context.Context, userID string) (types.Entry, error) {
	start := time.Now()
	defer func() { metrics.RecordStoreLatency("leaderboard", "rank", float64(time.Since(start).Microseconds())/1000) }()

	l.mu.RLock()
	defer l.mu.RUnlock()

	rec, ok := l.byID[userID]
	if !ok {
		return types.Entry{}, ErrNotFound
	}
	e := rec.entry(userID)
	e.Rank = countAhead(l.levels, rec.average) + 1
	return e, nil
}

// TopN returns up to n entries in rank order. The walk stops after n nodes.
func (l *Leaderboard) TopN(_ context.Context, n int) ([]types.Entry, error) {
	start := time.Now()
	defer func() { metrics.RecordStoreLatency("leaderboard", "top_n", float64(time.Since(start).Microseconds())/1000) }()

	if n < 1 {
		return nil, ErrInvalidLimit
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]types.Entry, 0, min(n, len(l.byID)))
	rank, prev := 0, averageFP(math.MinInt64)
	walk(l.root, func(nd *node) bool {
		if rank == 0 || nd.average != prev {
			rank++
			prev = nd.average
		}
		e := l.byID[nd.id].entry(nd.id)
		e.Rank = rank
		out = append(out, e)
		return len(out) < n
	})
	return out, nil
}

// Count returns the number of ranked users.
func (l *Leaderboard) Count(_ context.Context) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.byID)
}

// Reset drops every entry.
func (l *Leaderboard) Reset() {
	l.mu.Lock()
	l.root = nil
	l.levels = nil
	l.tally = make(map[averageFP]int)
	l.byID = make(map[string]record)
	l.mu.Unlock()
	metrics.UpdateLeaderboardSize(0)
}
