package seed

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/okian/carom/internal/domain/benchmark"
	"github.com/okian/carom/internal/domain/model"
	"github.com/okian/carom/internal/domain/numeric"
	"github.com/okian/carom/internal/domain/rating"
	"github.com/okian/carom/internal/domain/types"
	"github.com/okian/carom/pkg/logger"
)

// Runner tuning.
const (
	settlePollInterval = 200 * time.Millisecond
	averageTolerance   = 0.0015
	defaultMinGames    = rating.DefaultMinGames
)

// ErrMismatch is returned when the leaderboard disagrees with the seeded data.
var ErrMismatch = errors.New("leaderboard mismatch")

// gameNamespace scopes generated game ids.
var gameNamespace = uuid.MustParse("5f1d3c2e-6b1a-4f0e-9c55-3a8f2b7d9e10")

type submission struct {
	userID string
	game   types.NewGame
}

// Run seeds the service at cfg.BaseURL and verifies the leaderboard.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}
	log := logger.Get().Named("seed")
	client := NewClient(cfg.BaseURL, cfg.Timeout)

	log.Info(ctx, "starting seed run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("users", cfg.Users),
		logger.Int("gamesPerUser", cfg.GamesPerUser),
		logger.Int("workers", cfg.Workers))

	if err := client.Health(ctx); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	players := Generate(cfg, benchmark.DefaultTable())
	for i := range players {
		stats.GamesGenerated += len(players[i].Games)
	}

	if err := createUsers(ctx, client, players, stats); err != nil {
		return stats, fmt.Errorf("user creation failed: %w", err)
	}
	submitGames(ctx, cfg, client, players, stats, log)

	minGames := defaultMinGames
	if s, err := client.ServerStats(ctx); err == nil {
		if v, ok := s["minGames"].(float64); ok {
			minGames = int(v)
		}
	}
	if err := verify(ctx, cfg, client, players, minGames, stats); err != nil {
		return stats, err
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, log, stats)
	return stats, nil
}

func createUsers(ctx context.Context, client *Client, players []Player, stats *Stats) error {
	for i := range players {
		u, err := client.CreateUser(ctx, types.NewUser{Name: players[i].Name, Handicap: players[i].Handicap})
		if err != nil {
			return fmt.Errorf("create %s: %w", players[i].Name, err)
		}
		players[i].ID = u.ID
		for j := range players[i].Games {
			players[i].Games[j].ID = gameID(u.ID, j)
			players[i].Games[j].UserID = u.ID
		}
		stats.UsersCreated++
	}
	return nil
}

// gameID is stable per user and index so replays hit the same game.
func gameID(userID string, index int) string {
	return uuid.NewSHA1(gameNamespace, fmt.Appendf(nil, "%s/%d", userID, index)).String()
}

type tally struct {
	submitted atomic.Int64
	created   atomic.Int64
	duplicate atomic.Int64
	failed    atomic.Int64
}

// post sends subs through cfg.Workers concurrent workers and returns once
// all of them are answered.
func (t *tally) post(ctx context.Context, cfg *Config, client *Client, subs []submission, log logger.Logger) {
	ch := make(chan submission, max(cfg.Workers, 1)*2)
	var wg sync.WaitGroup
	for range max(cfg.Workers, 1) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for s := range ch {
				t.submitted.Add(1)
				dup, err := client.AddGame(ctx, s.userID, s.game)
				switch {
				case err != nil:
					t.failed.Add(1)
					if cfg.Verbose {
						log.Warn(ctx, "game submission failed", logger.String("user", s.userID), logger.Error(err))
					}
				case dup:
					t.duplicate.Add(1)
				default:
					t.created.Add(1)
				}
			}
		}()
	}

	defer func() {
		close(ch)
		wg.Wait()
	}()
	for _, s := range subs {
		select {
		case <-ctx.Done():
			return
		case ch <- s:
		}
	}
}

// submitGames posts every game, then replays the first ReplayFraction of
// each player's games once all originals are in.
func submitGames(ctx context.Context, cfg *Config, client *Client, players []Player, stats *Stats, log logger.Logger) {
	var originals, replays []submission
	for i := range players {
		games := players[i].Games
		n := int(math.Round(float64(len(games)) * numeric.Clamp(cfg.ReplayFraction, 0, 1)))
		for j := range games {
			s := submission{userID: players[i].ID, game: toNewGame(games[j])}
			originals = append(originals, s)
			if j < n {
				replays = append(replays, s)
			}
		}
	}

	var t tally
	t.post(ctx, cfg, client, originals, log)
	t.post(ctx, cfg, client, replays, log)

	stats.GamesSubmitted = int(t.submitted.Load())
	stats.GamesCreated = int(t.created.Load())
	stats.GamesDuplicate = int(t.duplicate.Load())
	stats.GamesFailed = int(t.failed.Load())
	log.Info(ctx, "game submission completed",
		logger.Int("created", stats.GamesCreated),
		logger.Int("duplicate", stats.GamesDuplicate),
		logger.Int("failed", stats.GamesFailed))
}

func toNewGame(g model.Game) types.NewGame {
	return types.NewGame{
		ID:       g.ID,
		Score:    g.Score,
		Inning:   g.Inning,
		Result:   string(g.Result),
		GameType: string(g.GameType),
		GameDate: g.GameDate.Format(time.RFC3339),
	}
}

// verify waits until the leaderboard holds every eligible player and
// checks its leader against a local rating of the generated games.
func verify(ctx context.Context, cfg *Config, client *Client, players []Player, minGames int, stats *Stats) error {
	best := rating.Rating{Average: -1}
	eligible := 0
	for i := range players {
		r := rating.Of(model.User{ID: players[i].ID, Name: players[i].Name}, players[i].Games, minGames)
		if !r.Eligible {
			continue
		}
		eligible++
		if r.Average > best.Average {
			best = r
		}
	}
	stats.RankedPlayers = eligible
	if eligible == 0 {
		return nil
	}

	deadline := time.Now().Add(cfg.SettleTimeout)
	for {
		board, err := client.Leaderboard(ctx, 1)
		if err == nil && len(board) > 0 {
			stats.LeaderboardTop = board[0].Name
			if math.Abs(board[0].Average-best.Average) <= averageTolerance {
				s, err := client.ServerStats(ctx)
				if err == nil {
					if n, ok := s["leaderboardSize"].(float64); ok {
						stats.LeaderboardSize = int(n)
					}
				}
				if stats.LeaderboardSize >= eligible {
					return nil
				}
			}
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: want leader %s at %.3f with %d ranked, got %s with %d ranked",
				ErrMismatch, best.Name, best.Average, eligible, stats.LeaderboardTop, stats.LeaderboardSize)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(settlePollInterval):
		}
	}
}

func displayFinalStats(ctx context.Context, log logger.Logger, stats *Stats) {
	var gamesPerSecond float64
	if stats.Duration > 0 {
		gamesPerSecond = float64(stats.GamesSubmitted) / stats.Duration.Seconds()
	}
	log.Info(ctx, "final statistics",
		logger.Int("usersCreated", stats.UsersCreated),
		logger.Int("gamesGenerated", stats.GamesGenerated),
		logger.Int("gamesSubmitted", stats.GamesSubmitted),
		logger.Int("gamesCreated", stats.GamesCreated),
		logger.Int("gamesDuplicate", stats.GamesDuplicate),
		logger.Int("gamesFailed", stats.GamesFailed),
		logger.Int("rankedPlayers", stats.RankedPlayers),
		logger.Int("leaderboardSize", stats.LeaderboardSize),
		logger.String("leader", stats.LeaderboardTop),
		logger.Duration("duration", stats.Duration),
		logger.Float64("gamesPerSecond", gamesPerSecond))
}
