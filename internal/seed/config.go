// Package seed populates a running carom service with synthetic players
// and games, then checks the leaderboard it computed.
package seed

import (
	"time"

	"github.com/okian/carom/internal/domain/model"
)

// Config holds configuration for a seeding run.
type Config struct {
	BaseURL        string        // Base URL of the service
	Users          int           // Number of players to create
	GamesPerUser   int           // Games recorded per player
	Months         int           // Game dates spread over this many months before Now
	Workers        int           // Number of concurrent HTTP workers
	Timeout        time.Duration // HTTP request timeout
	SettleTimeout  time.Duration // How long to wait for the leaderboard to catch up
	ReplayFraction float64       // Share of games submitted twice to exercise idempotency
	Seed           uint64        // Random seed; equal seeds produce equal data
	Now            time.Time     // Reference instant for game dates
	Verbose        bool          // Log every failed request
}

// Player is one synthetic user and the games generated for them.
// ID is empty until the service has created the user.
type Player struct {
	ID       string
	Name     string
	Handicap float64
	Skill    float64
	Games    []model.Game
}

// Stats holds run statistics.
type Stats struct {
	UsersCreated    int
	GamesGenerated  int
	GamesSubmitted  int
	GamesCreated    int
	GamesDuplicate  int
	GamesFailed     int
	RankedPlayers   int
	LeaderboardTop  string
	LeaderboardSize int
	StartTime       time.Time
	EndTime         time.Time
	Duration        time.Duration
}
