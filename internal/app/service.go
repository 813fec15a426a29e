// Package service is the application layer behind the HTTP API. It owns the
// store, the leaderboard refresh pipeline and the insight engines.
package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/carom/internal/adapters/mq/publisher"
	eventqueue "github.com/okian/carom/internal/adapters/mq/queue"
	workerpool "github.com/okian/carom/internal/adapters/mq/worker"
	"github.com/okian/carom/internal/adapters/repository"
	"github.com/okian/carom/internal/domain/benchmark"
	"github.com/okian/carom/internal/domain/dedupe"
	"github.com/okian/carom/internal/domain/form"
	"github.com/okian/carom/internal/domain/model"
	"github.com/okian/carom/internal/domain/monthly"
	"github.com/okian/carom/internal/domain/rating"
	"github.com/okian/carom/internal/domain/selector"
	"github.com/okian/carom/internal/domain/stats"
	"github.com/okian/carom/internal/domain/team"
	"github.com/okian/carom/internal/domain/types"
	"github.com/okian/carom/pkg/logger"
	"github.com/okian/carom/pkg/metrics"
)

const (
	defaultFormWindow          = 10
	defaultTeamWindow          = 30
	defaultMaxLeaderboardLimit = 100
	defaultTopN                = 10
)

// Accepted gameDate layouts, tried in order. Layouts without a zone are read
// in the service location.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006.01.02",
}

// Service implements the API dependencies.
type Service struct {
	mu sync.RWMutex

	// Core components
	store     repository.Store
	board     *repository.Leaderboard
	deduper   dedupe.Deduper
	queue     *eventqueue.InMemoryQueue
	pool      *workerpool.Pool
	rater     *rating.Rater
	publisher publisher.Publisher
	table     *benchmark.Table
	selector  *selector.Engine

	// Configuration
	workerCount         int
	queueSize           int
	dedupeSize          int
	maxLastN            int
	formWindow          int
	teamWindow          int
	teamMinInning       float64
	minGames            int
	maxLeaderboardLimit int
	loc                 *time.Location
	clock               func() time.Time

	// State
	started bool

	// Client game ids with a write in progress.
	flightMu sync.Mutex
	inflight map[string]chan struct{}

	logger logger.Logger
}

// New constructs a Service over store. Call Start before serving writes.
func New(store repository.Store, opts ...Option) *Service {
	s := &Service{
		store:               store,
		board:               repository.NewLeaderboard(),
		publisher:           publisher.Noop{},
		table:               benchmark.DefaultTable(),
		workerCount:         runtime.NumCPU(),
		queueSize:           10_000,
		dedupeSize:          100_000,
		maxLastN:            selector.DefaultMaxN,
		formWindow:          defaultFormWindow,
		teamWindow:          defaultTeamWindow,
		teamMinInning:       1,
		minGames:            rating.DefaultMinGames,
		maxLeaderboardLimit: defaultMaxLeaderboardLimit,
		loc:                 time.UTC,
		clock:               time.Now,
		inflight:            make(map[string]chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.rater = rating.NewRater(store, rating.WithMinGames(s.minGames))
	s.selector = selector.New(
		selector.WithMaxN(s.maxLastN),
		selector.WithClock(s.clock),
		selector.WithLocation(s.loc),
	)
	return s
}

// Start rebuilds the leaderboard from the store and starts the refresh workers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.logger.Info(ctx, "starting carom service...")

	ranked, err := s.rebuild(ctx)
	if err != nil {
		return fmt.Errorf("rebuild leaderboard: %w", err)
	}

	s.queue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	s.pool = workerpool.NewPool(s.workerCount, s.queue, s.rater, s.board,
		workerpool.WithLogger(s.logger.Named("worker")))
	// Workers outlive the start request.
	s.pool.Start(context.WithoutCancel(ctx))

	s.started = true
	s.logger.Info(ctx, "carom service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Int("ranked", ranked),
	)
	return nil
}

// Stop drains the refresh queue and closes the publisher. The store is owned
// by the caller.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping carom service...")

	var errs []error
	if err := s.pool.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := s.publisher.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close publisher: %w", err))
	}
	s.started = false
	s.logger.Info(ctx, "carom service stopped")
	return errors.Join(errs...)
}

// rebuild rates every stored user and reloads the leaderboard.
func (s *Service) rebuild(ctx context.Context) (int, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return 0, err
	}
	s.board.Reset()
	for _, u := range users {
		games, err := s.store.ListGames(ctx, u.ID)
		if err != nil {
			return 0, fmt.Errorf("list games of %s: %w", u.ID, err)
		}
		r := rating.Of(u, games, s.minGames)
		if r.Eligible {
			s.board.Upsert(ctx, u.ID, repository.Standing{
				Name: r.Name, Average: r.Average, Games: r.Games, WinRate: r.WinRate,
			})
		}
	}
	metrics.UpdateTotalUsers(len(users))
	return s.board.Count(ctx), nil
}

// CreateUser registers a new player.
func (s *Service) CreateUser(ctx context.Context, in types.NewUser) (model.User, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return model.User{}, fmt.Errorf("%w: name is required", ErrInvalidArgument)
	}
	if err := checkHandicap(in.Handicap); err != nil {
		return model.User{}, err
	}

	now := s.clock().UTC()
	u := model.User{
		ID:        uuid.NewString(),
		Name:      name,
		Handicap:  in.Handicap,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return model.User{}, s.storeErr("create user", err)
	}
	s.logger.Info(ctx, "user created", logger.String("userID", u.ID), logger.Float64("handicap", u.Handicap))
	return u, nil
}

// GetUser returns ErrNotFound for an unknown id.
func (s *Service) GetUser(ctx context.Context, id string) (model.User, error) {
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return model.User{}, s.storeErr("get user", err)
	}
	return u, nil
}

// ListUsers returns every user ordered by name.
func (s *Service) ListUsers(ctx context.Context) ([]model.User, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, s.storeErr("list users", err)
	}
	metrics.UpdateTotalUsers(len(users))
	return users, nil
}

// UpdateUser applies patch to the user and refreshes their standing.
func (s *Service) UpdateUser(ctx context.Context, id string, patch types.UserPatch) (model.User, error) {
	u, err := s.GetUser(ctx, id)
	if err != nil {
		return model.User{}, err
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return model.User{}, fmt.Errorf("%w: name is required", ErrInvalidArgument)
		}
		u.Name = name
	}
	if patch.Handicap != nil {
		if err := checkHandicap(*patch.Handicap); err != nil {
			return model.User{}, err
		}
		u.Handicap = *patch.Handicap
	}
	u.UpdatedAt = s.clock().UTC()
	if err := s.store.UpdateUser(ctx, u); err != nil {
		return model.User{}, s.storeErr("update user", err)
	}
	s.notify(ctx, u.ID, "", model.EventUserUpdated)
	return u, nil
}

// AddGame validates, normalizes and stores a game. created is false when a
// game with the same client id was already recorded; that game is returned.
func (s *Service) AddGame(ctx context.Context, userID string, in types.NewGame) (game model.Game, created bool, err error) {
	if err := s.checkStarted(); err != nil {
		return model.Game{}, false, err
	}
	g, err := s.normalize(userID, in)
	if err != nil {
		return model.Game{}, false, err
	}
	if _, err := s.GetUser(ctx, userID); err != nil {
		return model.Game{}, false, err
	}

	var key string
	if strings.TrimSpace(in.ID) != "" {
		key = userID + ":" + g.ID
		release, err := s.claim(ctx, key)
		if err != nil {
			return model.Game{}, false, err
		}
		defer release()
		if s.deduper.SeenAndRecord(ctx, key) {
			return s.duplicate(ctx, userID, g.ID)
		}
	}
	if s.queue.Len() >= s.queue.Cap() {
		if key != "" {
			s.deduper.Unrecord(ctx, key)
		}
		metrics.RecordErrorByComponent("service", "backpressure")
		return model.Game{}, false, ErrBackpressure
	}

	if err := s.store.AddGame(ctx, g); err != nil {
		if key != "" && errors.Is(err, repository.ErrConflict) {
			// Recorded before the dedupe cache was warm.
			return s.duplicate(ctx, userID, g.ID)
		}
		if key != "" {
			s.deduper.Unrecord(ctx, key)
		}
		return model.Game{}, false, s.storeErr("add game", err)
	}

	metrics.RecordGameRecorded()
	s.notify(ctx, userID, g.ID, model.EventGameRecorded)
	s.logger.Debug(ctx, "game recorded",
		logger.String("userID", userID),
		logger.String("gameID", g.ID),
		logger.Float64("score", g.Score),
		logger.Float64("inning", g.Inning),
	)
	return g, true, nil
}

// claim waits until no other AddGame is writing key and marks it as in
// progress. A replay therefore sees the first write's outcome.
func (s *Service) claim(ctx context.Context, key string) (release func(), err error) {
	for {
		s.flightMu.Lock()
		wait, busy := s.inflight[key]
		if !busy {
			done := make(chan struct{})
			s.inflight[key] = done
			s.flightMu.Unlock()
			return func() {
				s.flightMu.Lock()
				delete(s.inflight, key)
				s.flightMu.Unlock()
				close(done)
			}, nil
		}
		s.flightMu.Unlock()

		select {
		case <-wait:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// duplicate returns the stored game of a replayed write. An id the store holds
// for another user is reported as taken.
func (s *Service) duplicate(ctx context.Context, userID, gameID string) (model.Game, bool, error) {
	metrics.RecordGameDuplicate()
	g, err := s.store.GetGame(ctx, userID, gameID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Game{}, false, fmt.Errorf("%w: game id %s is already taken", ErrInvalidArgument, gameID)
	}
	if err != nil {
		return model.Game{}, false, s.storeErr("get game", err)
	}
	s.logger.Debug(ctx, "duplicate game skipped", logger.String("userID", userID), logger.String("gameID", gameID))
	return g, false, nil
}

// normalize maps legacy tokens and validates numbers and dates.
func (s *Service) normalize(userID string, in types.NewGame) (model.Game, error) {
	if !finite(in.Score) || in.Score < 0 {
		return model.Game{}, fmt.Errorf("%w: score must be a non-negative number", ErrInvalidArgument)
	}
	if !finite(in.Inning) || in.Inning < 0 {
		return model.Game{}, fmt.Errorf("%w: inning must be a non-negative number", ErrInvalidArgument)
	}
	date, err := s.parseDate(in.GameDate)
	if err != nil {
		return model.Game{}, err
	}
	id := strings.TrimSpace(in.ID)
	if id == "" {
		id = uuid.NewString()
	}
	return model.Game{
		ID:        id,
		UserID:    userID,
		Score:     in.Score,
		Inning:    in.Inning,
		Result:    model.ParseResult(in.Result),
		GameType:  model.ParseGameType(in.GameType),
		GameDate:  date,
		Memo:      strings.TrimSpace(in.Memo),
		CreatedAt: s.clock().UTC(),
	}, nil
}

func (s *Service) parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return s.clock().UTC(), nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, raw, s.loc); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unparseable gameDate %q", ErrInvalidArgument, raw)
}

// DeleteGame removes one game of userID.
func (s *Service) DeleteGame(ctx context.Context, userID, gameID string) error {
	if err := s.checkStarted(); err != nil {
		return err
	}
	if err := s.store.DeleteGame(ctx, userID, gameID); err != nil {
		return s.storeErr("delete game", err)
	}
	s.deduper.Unrecord(ctx, userID+":"+gameID)
	metrics.RecordGameDeleted()
	s.notify(ctx, userID, gameID, model.EventGameDeleted)
	return nil
}

// ListGames returns the user's games matching sel, most recent first.
func (s *Service) ListGames(ctx context.Context, userID string, sel selector.Selector) ([]model.Game, error) {
	_, games, err := s.history(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.selector.Apply(games, sel), nil
}

// Stats summarizes the user's games matching sel.
func (s *Service) Stats(ctx context.Context, userID string, sel selector.Selector) (stats.Full, error) {
	defer s.observe("stats", time.Now())
	_, games, err := s.history(ctx, userID)
	if err != nil {
		return stats.Full{}, err
	}
	return stats.Calc(s.selector.Apply(games, sel)), nil
}

// Form analyzes the user's last n games. n <= 0 uses the form window.
func (s *Service) Form(ctx context.Context, userID string, n int) (form.Analysis, error) {
	defer s.observe("form", time.Now())
	u, games, err := s.history(ctx, userID)
	if err != nil {
		return form.Analysis{}, err
	}
	return s.form(u, games, n), nil
}

func (s *Service) form(u model.User, games []model.Game, n int) form.Analysis {
	if n <= 0 {
		n = s.formWindow
	}
	return form.Analyze(s.selector.LastN(games, n), u.Handicap, s.table)
}

// TeamIndicators classifies the user's last q.N team games.
func (s *Service) TeamIndicators(ctx context.Context, userID string, q types.TeamQuery) (team.Result, error) {
	defer s.observe("team", time.Now())
	u, games, err := s.history(ctx, userID)
	if err != nil {
		return team.Result{}, err
	}
	return s.team(u, games, q), nil
}

func (s *Service) team(u model.User, games []model.Game, q types.TeamQuery) team.Result {
	n := q.N
	if n <= 0 {
		n = s.teamWindow
	}
	teamGames := make([]model.Game, 0, len(games))
	for i := range games {
		if games[i].GameType.IsTeam() {
			teamGames = append(teamGames, games[i])
		}
	}
	minInning := q.MinInning
	if minInning <= 0 {
		minInning = s.teamMinInning
	}
	opts := []team.Option{team.WithMinInning(minInning)}
	if q.IncludeNeutral != nil {
		opts = append(opts, team.WithNeutralInSample(*q.IncludeNeutral))
	}
	return team.Build(s.selector.LastN(teamGames, n), u.Handicap, s.table, opts...)
}

// Monthly rolls the user's games matching sel up by calendar month.
func (s *Service) Monthly(ctx context.Context, userID string, sel selector.Selector) ([]monthly.Row, error) {
	defer s.observe("monthly", time.Now())
	_, games, err := s.history(ctx, userID)
	if err != nil {
		return nil, err
	}
	return monthly.Rollup(s.selector.Apply(games, sel), s.loc), nil
}

// Insights bundles stats and monthly rows over sel with form and team
// indicators over their default windows.
func (s *Service) Insights(ctx context.Context, userID string, sel selector.Selector) (types.Insights, error) {
	defer s.observe("insights", time.Now())
	u, games, err := s.history(ctx, userID)
	if err != nil {
		return types.Insights{}, err
	}
	selected := s.selector.Apply(games, sel)
	out := types.Insights{
		User:      u,
		Benchmark: s.table.Lookup(u.Handicap),
		Stats:     stats.Calc(selected),
		Form:      s.form(u, games, 0),
		Team:      s.team(u, games, types.TeamQuery{}),
		Monthly:   monthly.Rollup(selected, s.loc),
		Selector:  sel,
	}
	if e, err := s.board.Rank(ctx, userID); err == nil {
		out.Rank = &e
	}
	return out, nil
}

// Benchmark returns the benchmark row for handicap.
func (s *Service) Benchmark(handicap float64) benchmark.Entry {
	return s.table.Lookup(handicap)
}

// BenchmarkTable returns every benchmark row.
func (s *Service) BenchmarkTable() []benchmark.Entry {
	return s.table.Rows()
}

// MaxLastN returns the last-n upper bound.
func (s *Service) MaxLastN() int { return s.maxLastN }

// Location returns the calendar location of the service.
func (s *Service) Location() *time.Location { return s.loc }

// TopN returns the top n leaderboard entries. n <= 0 uses a default and n is
// capped at the configured limit.
func (s *Service) TopN(ctx context.Context, n int) ([]types.Entry, error) {
	if n <= 0 {
		n = defaultTopN
	}
	n = min(n, s.maxLeaderboardLimit)
	entries, err := s.board.TopN(ctx, n)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	return entries, nil
}

// Rank returns the leaderboard entry of userID. Unranked users are ErrNotFound.
func (s *Service) Rank(ctx context.Context, userID string) (types.Entry, error) {
	e, err := s.board.Rank(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return types.Entry{}, fmt.Errorf("%w: user %s is not ranked", ErrNotFound, userID)
		}
		return types.Entry{}, err
	}
	return e, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	out := map[string]any{
		"started":         s.started,
		"workerCount":     s.workerCount,
		"queueSize":       s.queueSize,
		"dedupeSize":      s.dedupeSize,
		"dedupeEntries":   s.deduper.Size(),
		"leaderboardSize": s.board.Count(ctx),
		"minGames":        s.minGames,
	}
	if s.started {
		queueLen := s.queue.Len()
		out["queueLength"] = queueLen
		out["processed"] = s.pool.Processed()
		out["activeWorkers"] = s.pool.Active()
		metrics.UpdateQueueSize(queueLen)
	}
	return out
}

// history loads a user and their games, most recent first.
func (s *Service) history(ctx context.Context, userID string) (model.User, []model.Game, error) {
	u, err := s.GetUser(ctx, userID)
	if err != nil {
		return model.User{}, nil, err
	}
	games, err := s.store.ListGames(ctx, userID)
	if err != nil {
		return model.User{}, nil, s.storeErr("list games", err)
	}
	return u, games, nil
}

// notify queues a leaderboard refresh for userID and publishes the event.
// Neither failure undoes the write.
func (s *Service) notify(ctx context.Context, userID, gameID string, kind model.EventKind) {
	e := model.GameEvent{
		EventID: uuid.NewString(),
		UserID:  userID,
		GameID:  gameID,
		Kind:    kind,
		TS:      s.clock(),
	}

	s.mu.RLock()
	q := s.queue
	s.mu.RUnlock()
	if q != nil {
		if err := q.Enqueue(ctx, e); err != nil {
			s.logger.Warn(ctx, "leaderboard refresh not queued",
				logger.String("userID", userID),
				logger.String("kind", string(kind)),
				logger.Error(err),
			)
		}
	}
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.logger.Warn(ctx, "event not published", logger.String("eventID", e.EventID), logger.Error(err))
	}
}

func (s *Service) checkStarted() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

// storeErr maps store sentinels onto service sentinels.
func (s *Service) storeErr(op string, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case errors.Is(err, repository.ErrConflict):
		return fmt.Errorf("%s: %w: %v", op, ErrInvalidArgument, err)
	default:
		metrics.RecordErrorByComponent("service", "store_error")
		return fmt.Errorf("%s: %w", op, err)
	}
}

func (s *Service) observe(kind string, start time.Time) {
	metrics.RecordInsightComputed(kind)
	metrics.RecordInsightLatency(kind, float64(time.Since(start).Microseconds())/1000)
}

func checkHandicap(h float64) error {
	if !finite(h) || h < 0 {
		return fmt.Errorf("%w: handicap must be a non-negative number", ErrInvalidArgument)
	}
	return nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
