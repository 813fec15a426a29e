// Package worker keeps the leaderboard in step with game writes by
// re-rating users as their events come off the queue.
package worker

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/carom/internal/adapters/mq/queue"
	"github.com/okian/carom/internal/adapters/repository"
	"github.com/okian/carom/internal/domain/rating"
	"github.com/okian/carom/pkg/logger"
	"github.com/okian/carom/pkg/metrics"
)

// Event is what workers read off the queue.
type Event = queue.Event

// Rater computes a user's current standing.
type Rater interface {
	Rate(ctx context.Context, userID string) (rating.Rating, error)
}

// Ranker stores standings.
type Ranker interface {
	Upsert(ctx context.Context, userID string, s repository.Standing) bool
	Remove(ctx context.Context, userID string) bool
}

// Queue defines how workers receive events.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Event
}

// InMemoryWorker re-rates the user of each event and updates the ranker.
type InMemoryWorker struct {
	queue  Queue
	rater  Rater
	ranker Ranker
	name   string

	active    *atomic.Int64 // shared with the pool
	processed *atomic.Int64

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, rater Rater, ranker Ranker, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     q,
		rater:     rater,
		ranker:    ranker,
		name:      "worker",
		active:    new(atomic.Int64),
		processed: new(atomic.Int64),
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}
	return w
}

// Run processes events until the queue closes, ctx is done or Shutdown is called.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	events := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := w.processEvent(ctx, event); err != nil {
				w.logger.Error(ctx, "error processing event", logger.String("eventID", event.EventID), logger.Error(err))
			}
		}
	}
}

// Shutdown stops the worker and waits for it to exit.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Done is closed when Run returns.
func (w *InMemoryWorker) Done() <-chan struct{} { return w.done }

func (w *InMemoryWorker) processEvent(ctx context.Context, event Event) error {
	start := time.Now()
	metrics.UpdateWorkerActiveCount(int(w.active.Add(1)))
	defer func() {
		metrics.UpdateWorkerActiveCount(int(w.active.Add(-1)))
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()
	if !event.TS.IsZero() {
		metrics.RecordQueueProcessingLatency(float64(start.Sub(event.TS).Microseconds()) / 1000)
	}

	r, err := w.rater.Rate(ctx, event.UserID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		// The user is gone; drop any stale standing.
		w.ranker.Remove(ctx, event.UserID)
		w.processed.Add(1)
		return nil
	case err != nil:
		metrics.RecordLeaderboardError()
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "rating_error")
		return fmt.Errorf("rate user %s: %w", event.UserID, err)
	}

	var changed bool
	if r.Eligible {
		changed = w.ranker.Upsert(ctx, r.UserID, repository.Standing{
			Name:    r.Name,
			Average: r.Average,
			Games:   r.Games,
			WinRate: r.WinRate,
		})
	} else {
		changed = w.ranker.Remove(ctx, r.UserID)
	}
	if changed {
		metrics.RecordLeaderboardUpdate()
	}
	w.processed.Add(1)
	w.logger.Debug(ctx, "user re-rated",
		logger.String("userID", r.UserID),
		logger.String("kind", string(event.Kind)),
		logger.Float64("average", r.Average),
		logger.Any("eligible", r.Eligible),
	)
	return nil
}

// shardBuffer is how many routed events each worker may hold.
const shardBuffer = 64

// shard is the slice of the event stream owned by one worker.
type shard chan Event

func (s shard) Dequeue(context.Context) <-chan Event { return s }

// Pool manages multiple workers fed from one queue. Events are routed by
// user id, so a user's events are handled in order by the same worker.
type Pool struct {
	workers   []*InMemoryWorker
	shards    []shard
	queue     Queue
	active    atomic.Int64
	processed atomic.Int64
	stop      chan struct{}
	stopOnce  sync.Once
	logger    logger.Logger
}

// NewPool creates workerCount workers; values below one default to NumCPU.
func NewPool(workerCount int, q Queue, rater Rater, ranker Ranker, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}
	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		shards:  make([]shard, workerCount),
		queue:   q,
		stop:    make(chan struct{}),
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := range p.workers {
		p.shards[i] = make(shard, shardBuffer)
		wopts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		w := NewInMemoryWorker(p.shards[i], rater, ranker, wopts...)
		w.active = &p.active
		w.processed = &p.processed
		p.workers[i] = w
	}
	metrics.UpdateWorkerCount(workerCount)
	metrics.UpdateWorkerActiveCount(0)
	return p
}

func (p *Pool) shardOf(userID string) shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return p.shards[h.Sum32()%uint32(len(p.shards))]
}

// route moves events from the queue to their shard. Shards are closed once
// the queue is drained so workers exit after their backlog.
func (p *Pool) route(ctx context.Context) {
	defer func() {
		for _, s := range p.shards {
			close(s)
		}
	}()
	for e := range p.queue.Dequeue(ctx) {
		select {
		case p.shardOf(e.UserID) <- e:
		case <-p.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	go p.route(ctx)
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Active returns the number of workers currently processing an event.
func (p *Pool) Active() int { return int(p.active.Load()) }

// Processed returns the number of events handled since start.
func (p *Pool) Processed() int64 { return p.processed.Load() }

// Shutdown closes the queue, lets workers drain it and waits for them until
// ctx is done, after which remaining workers are stopped.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	var timedOut bool
	for i, w := range p.workers {
		select {
		case <-w.Done():
		case <-ctx.Done():
			timedOut = true
			p.logger.Warn(ctx, "worker drain timed out", logger.Int("worker_id", i))
		}
	}
	p.stopOnce.Do(func() { close(p.stop) })
	for _, w := range p.workers {
		w.shutdownOnce.Do(func() { close(w.shutdown) })
	}
	if timedOut {
		return fmt.Errorf("worker pool shutdown: %w", ctx.Err())
	}
	return nil
}
