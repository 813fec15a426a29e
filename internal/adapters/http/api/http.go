// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	service "github.com/okian/carom/internal/app"
	"github.com/okian/carom/internal/domain/types"
	"github.com/okian/carom/pkg/logger"
)

const (
	defaultMaxLeaderboardLimit = 100
	maxBodyBytes               = 1 << 20
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	UserDependencies
	GameDependencies
	InsightDependencies
	BenchmarkDependencies
	LeaderboardDependencies
	RankDependencies
}

// Entry mirrors the read shape returned by leaderboard queries.
type Entry = types.Entry

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	usersHandler       *UsersHandler
	gamesHandler       *GamesHandler
	insightsHandler    *InsightsHandler
	benchmarkHandler   *BenchmarkHandler
	leaderboardHandler *LeaderboardHandler
	rankHandler        *RankHandler

	maxLeaderboardLimit int
	loc                 *time.Location
	writeLimiter        *rate.Limiter
	logger              logger.Logger
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		maxLeaderboardLimit: defaultMaxLeaderboardLimit,
		loc:                 time.UTC,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("api")
	}

	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(statsProvider)
	s.usersHandler = NewUsersHandler(deps)
	s.gamesHandler = NewGamesHandler(deps, s.loc)
	s.insightsHandler = NewInsightsHandler(deps, s.loc)
	s.benchmarkHandler = NewBenchmarkHandler(deps)
	s.leaderboardHandler = NewLeaderboardHandler(deps, s.maxLeaderboardLimit)
	s.rankHandler = NewRankHandler(deps)
	return s
}

// Register attaches all HTTP routes to r.
func (s *Server) Register(_ context.Context, r chi.Router) {
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(s.logger))
	r.Use(MetricsMiddleware)

	r.Get("/healthz", s.healthHandler.HandleHealth)
	r.Handle("/metrics", s.healthHandler.metrics)
	r.Get("/stats", s.statsHandler.HandleStats)

	writes := RateLimit(s.writeLimiter)
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Get("/", s.usersHandler.HandleList)
			r.With(writes).Post("/", s.usersHandler.HandleCreate)
			r.Route("/{userID}", func(r chi.Router) {
				r.Get("/", s.usersHandler.HandleGet)
				r.With(writes).Patch("/", s.usersHandler.HandleUpdate)

				r.Get("/games", s.gamesHandler.HandleList)
				r.With(writes).Post("/games", s.gamesHandler.HandleAdd)
				r.With(writes).Delete("/games/{gameID}", s.gamesHandler.HandleDelete)

				r.Get("/stats", s.insightsHandler.HandleStats)
				r.Get("/form", s.insightsHandler.HandleForm)
				r.Get("/team-indicators", s.insightsHandler.HandleTeam)
				r.Get("/monthly", s.insightsHandler.HandleMonthly)
				r.Get("/insights", s.insightsHandler.HandleInsights)
			})
		})
		r.Get("/benchmark", s.benchmarkHandler.HandleLookup)
		r.Get("/benchmark/table", s.benchmarkHandler.HandleTable)
		r.Get("/leaderboard", s.leaderboardHandler.HandleGetLeaderboard)
		r.Get("/leaderboard/{userID}", s.rankHandler.HandleGetRank)
	})
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError translates service sentinels into HTTP statuses.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", Wrap(op, err))
	case errors.Is(err, service.ErrInvalidArgument), errors.Is(err, ErrBadRequest):
		writeError(w, http.StatusBadRequest, "bad_request", Wrap(op, err))
	case errors.Is(err, service.ErrBackpressure):
		writeError(w, http.StatusTooManyRequests, "backpressure", Wrap(op, err))
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "unavailable", Wrap(op, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}
