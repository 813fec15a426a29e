package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/carom/internal/adapters/mq/queue"
	"github.com/okian/carom/internal/adapters/mq/worker"
	"github.com/okian/carom/internal/adapters/repository"
	"github.com/okian/carom/internal/domain/model"
	"github.com/okian/carom/internal/domain/rating"
	logging "github.com/okian/carom/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

type mockRater struct {
	mu      sync.RWMutex
	ratings map[string]rating.Rating
	errors  map[string]error
}

func newMockRater() *mockRater {
	return &mockRater{ratings: map[string]rating.Rating{}, errors: map[string]error{}}
}

func (m *mockRater) Rate(_ context.Context, userID string) (rating.Rating, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err, ok := m.errors[userID]; ok {
		return rating.Rating{}, err
	}
	r, ok := m.ratings[userID]
	if !ok {
		return rating.Rating{}, fmt.Errorf("rate %s: %w", userID, repository.ErrNotFound)
	}
	return r, nil
}

func (m *mockRater) set(r rating.Rating) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ratings[r.UserID] = r
}

func (m *mockRater) fail(userID string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[userID] = err
}

// sequenceRater hands out increasing averages per call and stalls the first
// call, so an out-of-order upsert would leave the first value on the board.
type sequenceRater struct {
	mu      sync.Mutex
	calls   map[string]int
	running map[string]int
	overlap bool
}

func newSequenceRater() *sequenceRater {
	return &sequenceRater{calls: map[string]int{}, running: map[string]int{}}
}

func (s *sequenceRater) Rate(_ context.Context, userID string) (rating.Rating, error) {
	s.mu.Lock()
	s.calls[userID]++
	n := s.calls[userID]
	s.running[userID]++
	if s.running[userID] > 1 {
		s.overlap = true
	}
	s.mu.Unlock()

	if n == 1 {
		time.Sleep(50 * time.Millisecond)
	}

	s.mu.Lock()
	s.running[userID]--
	s.mu.Unlock()
	return rating.Rating{UserID: userID, Average: float64(n), Eligible: true}, nil
}

func event(user string) queue.Event {
	return queue.Event{EventID: "e-" + user, UserID: user, Kind: model.EventGameRecorded, TS: time.Now()}
}

// eventually polls cond for up to a second.
func eventually(cond func() bool) bool {
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestWorker(t *testing.T) {
	convey.Convey("Given a worker over a queue and a leaderboard", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		convey.Reset(cancel)

		q := queue.NewInMemoryQueue(queue.WithCapacity(10))
		rater := newMockRater()
		board := repository.NewLeaderboard()
		w := worker.NewInMemoryWorker(q, rater, board, worker.WithName("test"), worker.WithLogger(logging.Discard()))
		go w.Run(ctx)

		convey.Convey("When an eligible user's event arrives", func() {
			rater.set(rating.Rating{UserID: "u1", Name: "kim", Average: 0.9, Games: 6, WinRate: 50, Eligible: true})
			convey.So(q.Enqueue(ctx, event("u1")), convey.ShouldBeNil)

			convey.Convey("Then the user is ranked", func() {
				convey.So(eventually(func() bool { return board.Count(ctx) == 1 }), convey.ShouldBeTrue)
				e, err := board.Rank(ctx, "u1")
				convey.So(err, convey.ShouldBeNil)
				convey.So(e.Name, convey.ShouldEqual, "kim")
				convey.So(e.Average, convey.ShouldEqual, 0.9)
			})
		})

		convey.Convey("When a ranked user drops below eligibility", func() {
			board.Upsert(ctx, "u2", repository.Standing{Average: 1})
			rater.set(rating.Rating{UserID: "u2", Games: 3})
			convey.So(q.Enqueue(ctx, event("u2")), convey.ShouldBeNil)

			convey.Convey("Then the user is removed", func() {
				convey.So(eventually(func() bool { return board.Count(ctx) == 0 }), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the user no longer exists", func() {
			board.Upsert(ctx, "ghost", repository.Standing{Average: 1})
			convey.So(q.Enqueue(ctx, event("ghost")), convey.ShouldBeNil)

			convey.Convey("Then the stale standing is dropped", func() {
				convey.So(eventually(func() bool { return board.Count(ctx) == 0 }), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When rating fails", func() {
			board.Upsert(ctx, "u3", repository.Standing{Average: 1})
			rater.fail("u3", errors.New("store down"))
			rater.set(rating.Rating{UserID: "u4", Average: 0.5, Eligible: true})
			convey.So(q.Enqueue(ctx, event("u3")), convey.ShouldBeNil)
			convey.So(q.Enqueue(ctx, event("u4")), convey.ShouldBeNil)

			convey.Convey("Then the standing is kept and the worker moves on", func() {
				convey.So(eventually(func() bool { return board.Count(ctx) == 2 }), convey.ShouldBeTrue)
				_, err := board.Rank(ctx, "u3")
				convey.So(err, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the worker is shut down", func() {
			err := w.Shutdown(context.Background())

			convey.So(err, convey.ShouldBeNil)
			convey.So(w.Shutdown(context.Background()), convey.ShouldBeNil)
		})
	})
}

func TestPool(t *testing.T) {
	convey.Convey("Given a pool of workers", t, func() {
		ctx := context.Background()
		q := queue.NewInMemoryQueue(queue.WithCapacity(500))
		rater := newMockRater()
		board := repository.NewLeaderboard()
		for i := 0; i < 100; i++ {
			rater.set(rating.Rating{UserID: fmt.Sprintf("u%02d", i), Average: float64(i) / 100, Eligible: true})
		}
		pool := worker.NewPool(4, q, rater, board, worker.WithLogger(logging.Discard()))
		pool.Start(ctx)

		for i := 0; i < 100; i++ {
			convey.So(q.Enqueue(ctx, event(fmt.Sprintf("u%02d", i))), convey.ShouldBeNil)
		}

		convey.Convey("Then shutdown drains the queue before returning", func() {
			shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()

			convey.So(pool.Shutdown(shutdownCtx), convey.ShouldBeNil)
			convey.So(pool.Size(), convey.ShouldEqual, 4)
			convey.So(pool.Processed(), convey.ShouldEqual, int64(100))
			convey.So(pool.Active(), convey.ShouldEqual, 0)
			convey.So(board.Count(ctx), convey.ShouldEqual, 100)
			convey.So(q.IsClosed(), convey.ShouldBeTrue)
		})
	})

	convey.Convey("Given a pool and several events for one user", t, func() {
		ctx := context.Background()
		q := queue.NewInMemoryQueue(queue.WithCapacity(50))
		rater := newSequenceRater()
		board := repository.NewLeaderboard()
		pool := worker.NewPool(4, q, rater, board, worker.WithLogger(logging.Discard()))
		pool.Start(ctx)

		for i := 0; i < 3; i++ {
			convey.So(q.Enqueue(ctx, event("solo")), convey.ShouldBeNil)
			convey.So(q.Enqueue(ctx, event(fmt.Sprintf("other%d", i))), convey.ShouldBeNil)
		}

		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		convey.So(pool.Shutdown(shutdownCtx), convey.ShouldBeNil)

		convey.Convey("Then the user's events are rated one at a time in order", func() {
			convey.So(rater.overlap, convey.ShouldBeFalse)
			e, err := board.Rank(ctx, "solo")
			convey.So(err, convey.ShouldBeNil)
			convey.So(e.Average, convey.ShouldEqual, 3.0)
			convey.So(pool.Processed(), convey.ShouldEqual, int64(6))
		})
	})

	convey.Convey("Given a non-positive worker count", t, func() {
		pool := worker.NewPool(0, queue.NewInMemoryQueue(), newMockRater(), repository.NewLeaderboard())
		convey.So(pool.Size(), convey.ShouldBeGreaterThan, 0)
	})
}
