package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
)

func TestLeaderboard_BasicOperations(t *testing.T) {
	ctx := context.Background()
	lb := NewLeaderboard()

	if count := lb.Count(ctx); count != 0 {
		t.Errorf("expected count 0, got %d", count)
	}
	if !lb.Upsert(ctx, "u1", Standing{Name: "kim", Average: 0.8125, Games: 12, WinRate: 58.3}) {
		t.Error("expected first upsert to change the board")
	}

	entry, err := lb.Rank(ctx, "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.Rank != 1 || entry.Name != "kim" || entry.Games != 12 || entry.WinRate != 58.3 {
		t.Errorf("unexpected entry %+v", entry)
	}
	if entry.Average != 0.813 {
		t.Errorf("expected average rounded to 0.813, got %v", entry.Average)
	}

	if lb.Upsert(ctx, "u1", Standing{Name: "kim", Average: 0.8125, Games: 12, WinRate: 58.3}) {
		t.Error("expected identical upsert to be a no-op")
	}
}

func TestLeaderboard_AverageCanDrop(t *testing.T) {
	ctx := context.Background()
	lb := NewLeaderboard()
	lb.Upsert(ctx, "a", Standing{Average: 0.9})
	lb.Upsert(ctx, "b", Standing{Average: 0.7})

	lb.Upsert(ctx, "a", Standing{Average: 0.5})

	top, err := lb.TopN(ctx, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(top) != 2 || top[0].UserID != "b" || top[1].UserID != "a" {
		t.Fatalf("unexpected order %+v", top)
	}
	if top[1].Average != 0.5 {
		t.Errorf("expected lowered average, got %v", top[1].Average)
	}
}

func TestLeaderboard_TiesShareRank(t *testing.T) {
	ctx := context.Background()
	lb := NewLeaderboard()
	lb.Upsert(ctx, "c", Standing{Average: 1.0})
	lb.Upsert(ctx, "b", Standing{Average: 1.0})
	lb.Upsert(ctx, "a", Standing{Average: 1.2})
	lb.Upsert(ctx, "d", Standing{Average: 0.4})

	top, err := lb.TopN(ctx, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantIDs := []string{"a", "b", "c", "d"}
	wantRanks := []int{1, 2, 2, 3}
	for i, e := range top {
		if e.UserID != wantIDs[i] || e.Rank != wantRanks[i] {
			t.Errorf("position %d: got %s rank %d, want %s rank %d", i, e.UserID, e.Rank, wantIDs[i], wantRanks[i])
		}
	}

	for id, want := range map[string]int{"a": 1, "b": 2, "c": 2, "d": 3} {
		e, err := lb.Rank(ctx, id)
		if err != nil || e.Rank != want {
			t.Errorf("Rank(%s) = %d, %v; want %d", id, e.Rank, err, want)
		}
	}
}

func TestLeaderboard_RemoveAndErrors(t *testing.T) {
	ctx := context.Background()
	lb := NewLeaderboard()
	lb.Upsert(ctx, "a", Standing{Average: 1})

	if !lb.Remove(ctx, "a") {
		t.Error("expected remove to report a ranked user")
	}
	if lb.Remove(ctx, "a") {
		t.Error("expected second remove to be a no-op")
	}
	if _, err := lb.Rank(ctx, "a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := lb.TopN(ctx, 0); !errors.Is(err, ErrInvalidLimit) {
		t.Errorf("expected ErrInvalidLimit, got %v", err)
	}
	top, err := lb.TopN(ctx, 5)
	if err != nil || len(top) != 0 {
		t.Errorf("expected empty board, got %v, %v", top, err)
	}
}

func TestLeaderboard_Reset(t *testing.T) {
	ctx := context.Background()
	lb := NewLeaderboard()
	lb.Upsert(ctx, "a", Standing{Average: 1})
	lb.Reset()
	if lb.Count(ctx) != 0 {
		t.Errorf("expected empty board after reset")
	}
}

func TestLeaderboard_ConcurrentUpserts(t *testing.T) {
	ctx := context.Background()
	lb := NewLeaderboard()

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				id := fmt.Sprintf("u%03d", i)
				lb.Upsert(ctx, id, Standing{Average: float64((i*7+w)%50) / 100})
				_, _ = lb.Rank(ctx, id)
			}
		}(w)
	}
	wg.Wait()

	if got := lb.Count(ctx); got != 200 {
		t.Fatalf("expected 200 users, got %d", got)
	}
	top, err := lb.TopN(ctx, 200)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 1; i < len(top); i++ {
		prev, cur := top[i-1], top[i]
		if prev.Average < cur.Average || (prev.Average == cur.Average && prev.UserID > cur.UserID) {
			t.Fatalf("order broken at %d: %+v then %+v", i, prev, cur)
		}
		if cur.Rank < prev.Rank {
			t.Fatalf("ranks decrease at %d", i)
		}
	}
	if size := nsize(lb.root); size != 200 {
		t.Fatalf("treap size %d does not match index", size)
	}
}

func TestLeaderboard_RankMatchesDenseOrder(t *testing.T) {
	ctx := context.Background()
	lb := NewLeaderboard()

	averages := map[string]float64{}
	for i := 0; i < 300; i++ {
		id := fmt.Sprintf("u%03d", i)
		avg := float64((i*37)%41) / 40
		averages[id] = avg
		lb.Upsert(ctx, id, Standing{Average: avg})
	}
	for i := 0; i < 300; i += 3 {
		id := fmt.Sprintf("u%03d", i)
		lb.Remove(ctx, id)
		delete(averages, id)
	}
	for i := 1; i < 300; i += 7 {
		id := fmt.Sprintf("u%03d", i)
		averages[id] = 0.5
		lb.Upsert(ctx, id, Standing{Average: 0.5})
	}

	distinct := map[averageFP]bool{}
	for _, avg := range averages {
		distinct[toFixedPoint(avg)] = true
	}
	if got := nsize(lb.levels); got != len(distinct) {
		t.Fatalf("expected %d levels, got %d", len(distinct), got)
	}

	for id, avg := range averages {
		want := 1
		for a := range distinct {
			if a > toFixedPoint(avg) {
				want++
			}
		}
		e, err := lb.Rank(ctx, id)
		if err != nil {
			t.Fatalf("rank %s: %v", id, err)
		}
		if e.Rank != want {
			t.Fatalf("rank of %s: expected %d, got %d", id, want, e.Rank)
		}
	}

	top, err := lb.TopN(ctx, len(averages))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, e := range top {
		r, _ := lb.Rank(ctx, e.UserID)
		if r.Rank != e.Rank {
			t.Fatalf("TopN rank %d and Rank %d differ for %s", e.Rank, r.Rank, e.UserID)
		}
	}

	lb.Reset()
	if lb.levels != nil || len(lb.tally) != 0 {
		t.Fatal("expected reset to clear levels")
	}
}
