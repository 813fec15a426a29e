package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/carom/internal/seed"
	"github.com/okian/carom/pkg/logger"
)

// Default configuration constants.
const (
	defaultUsers         = 50
	defaultGamesPerUser  = 20
	defaultMonths        = 6
	defaultReplay        = 0.1
	defaultWorkers       = 2 // multiplier for runtime.NumCPU()
	defaultTimeout       = 30 * time.Second
	defaultSettleTimeout = 30 * time.Second
	defaultRunTimeout    = 10 * time.Minute
)

func main() {
	var (
		baseURL = flag.String("url", "http://localhost:9080", "Base URL of the service")
		users   = flag.Int("users", defaultUsers, "Number of players to create")
		games   = flag.Int("games", defaultGamesPerUser, "Games recorded per player")
		months  = flag.Int("months", defaultMonths, "Spread game dates over this many months")
		replay  = flag.Float64("replay", defaultReplay, "Share of games submitted twice")
		seedVal = flag.Uint64("seed", 1, "Random seed")
		workers = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		settle  = flag.Duration("settle", defaultSettleTimeout, "How long to wait for the leaderboard")
		verbose = flag.Bool("verbose", false, "Log every failed request")
		help    = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		seed.ShowHelp()
		return
	}

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	cfg := &seed.Config{
		BaseURL:        *baseURL,
		Users:          *users,
		GamesPerUser:   *games,
		Months:         *months,
		Workers:        *workers,
		Timeout:        *timeout,
		SettleTimeout:  *settle,
		ReplayFraction: *replay,
		Seed:           *seedVal,
		Now:            time.Now(),
		Verbose:        *verbose,
	}

	if _, err := seed.Run(ctx, cfg); err != nil {
		logger.Get().Error(ctx, "seed run failed", logger.Error(err))
		cancel()
		os.Exit(1)
	}
}
