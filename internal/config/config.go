// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Loading layers a YAML file and the environment on top of the defaults.
// - External errors are wrapped with this package's sentinel kinds.
package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"
	_ "time/tzdata" // calendar math must work on hosts without zoneinfo
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// StoreDriver selects the game store: memory, sqlite or postgres.
	StoreDriver string `koanf:"store_driver"`
	SQLitePath  string `koanf:"sqlite_path"`
	PostgresDSN string `koanf:"postgres_dsn"`

	// EventQueueSize bounds the leaderboard refresh queue.
	EventQueueSize int `koanf:"queue_size"`
	// WorkerCount sets the number of leaderboard refresh workers.
	WorkerCount int `koanf:"worker_count"`
	// DedupeSize sets the size of the game id idempotency cache.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxLastN caps every "last n games" window.
	MaxLastN int `koanf:"max_last_n"`
	// FormWindow is the default number of recent games for form analysis.
	FormWindow int `koanf:"form_window"`
	// TeamWindow is the default number of recent team games for team indicators.
	TeamWindow int `koanf:"team_window"`
	// TeamMinInning drops shorter team games from team indicators.
	TeamMinInning float64 `koanf:"team_min_inning"`

	// LeaderboardMinGames is the number of games a user needs to be ranked.
	LeaderboardMinGames int `koanf:"leaderboard_min_games"`
	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// BenchmarkFile optionally replaces the built-in handicap benchmark table.
	BenchmarkFile string `koanf:"benchmark_file"`

	// NATSURL enables publishing game events when set.
	NATSURL string `koanf:"nats_url"`

	// RateLimitRPS and RateLimitBurst throttle write endpoints; 0 disables.
	RateLimitRPS   float64 `koanf:"rate_limit_rps"`
	RateLimitBurst int     `koanf:"rate_limit_burst"`

	// Timezone is the IANA zone used for calendar months and days.
	Timezone string `koanf:"timezone"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":9080",
		StoreDriver:         DriverMemory,
		SQLitePath:          "data/carom.db",
		EventQueueSize:      10_000,
		WorkerCount:         runtime.NumCPU(),
		DedupeSize:          100_000,
		MaxLastN:            2000,
		FormWindow:          10,
		TeamWindow:          30,
		TeamMinInning:       1,
		LeaderboardMinGames: 5,
		MaxLeaderboardLimit: 100,
		RateLimitRPS:        50,
		RateLimitBurst:      100,
		Timezone:            "Asia/Seoul",
	}
}

// Validate reports the first invalid setting wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.StoreDriver != DriverMemory && c.StoreDriver != DriverSQLite && c.StoreDriver != DriverPostgres:
		return fmt.Errorf("%w: unknown store_driver %q", ErrInvalidConfig, c.StoreDriver)
	case c.StoreDriver == DriverSQLite && c.SQLitePath == "":
		return fmt.Errorf("%w: sqlite_path is required for the sqlite driver", ErrInvalidConfig)
	case c.StoreDriver == DriverPostgres && c.PostgresDSN == "":
		return fmt.Errorf("%w: postgres_dsn is required for the postgres driver", ErrInvalidConfig)
	case c.MaxLastN < 1:
		return fmt.Errorf("%w: max_last_n must be at least 1", ErrInvalidConfig)
	case c.FormWindow < 1 || c.TeamWindow < 1:
		return fmt.Errorf("%w: form_window and team_window must be at least 1", ErrInvalidConfig)
	case c.EventQueueSize < 1 || c.WorkerCount < 1:
		return fmt.Errorf("%w: queue_size and worker_count must be at least 1", ErrInvalidConfig)
	case c.MaxLeaderboardLimit < 1:
		return fmt.Errorf("%w: max_leaderboard_limit must be at least 1", ErrInvalidConfig)
	case c.RateLimitRPS < 0 || c.RateLimitBurst < 0:
		return fmt.Errorf("%w: rate limits must not be negative", ErrInvalidConfig)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: timezone %q: %v", ErrInvalidConfig, c.Timezone, err)
	}
	return loc, nil
}
