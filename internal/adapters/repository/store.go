// Package repository holds the user and game stores and the in-memory
// leaderboard index.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/carom/internal/domain/model"
	"github.com/okian/carom/pkg/metrics"
)

// Store persists users and their games. Implementations are safe for
// concurrent use.
type Store interface {
	// CreateUser inserts u. Returns ErrConflict if the id is taken.
	CreateUser(ctx context.Context, u model.User) error
	// GetUser returns ErrNotFound if the user is unknown.
	GetUser(ctx context.Context, id string) (model.User, error)
	// ListUsers returns every user ordered by name, then id.
	ListUsers(ctx context.Context) ([]model.User, error)
	// UpdateUser replaces the stored name and handicap of u.ID.
	UpdateUser(ctx context.Context, u model.User) error

	// AddGame stores g for g.UserID. Returns ErrNotFound for an unknown user
	// and ErrConflict for a reused game id.
	AddGame(ctx context.Context, g model.Game) error
	// GetGame returns ErrNotFound unless the game exists and belongs to userID.
	GetGame(ctx context.Context, userID, gameID string) (model.Game, error)
	// DeleteGame removes one game of userID.
	DeleteGame(ctx context.Context, userID, gameID string) error
	// ListGames returns the user's games most recent first.
	ListGames(ctx context.Context, userID string) ([]model.Game, error)

	Close() error
}

// Store driver names used in metrics labels.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// observe records latency and unexpected errors of one store operation.
func observe(driver, op string, start time.Time, err error) {
	metrics.RecordStoreLatency(driver, op, float64(time.Since(start).Microseconds())/1000)
	if err != nil && !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrConflict) {
		metrics.RecordStoreError(driver, op)
	}
}

// Open returns the Store for driver. dsn is the SQLite path or the
// PostgreSQL connection string; it is ignored for the memory driver.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case DriverMemory:
		return NewMemoryStore(), nil
	case DriverSQLite:
		return OpenSQLite(ctx, dsn)
	case DriverPostgres:
		return OpenPostgres(ctx, dsn)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}
