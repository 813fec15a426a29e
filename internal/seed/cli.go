package seed

import "os"

// ShowHelp prints usage information for the seed tool.
func ShowHelp() {
	os.Stdout.WriteString(`Carom Seed Tool
===============

Creates synthetic players and games on a running carom service and checks
that the leaderboard agrees with the generated data.

Usage:
  go run ./cmd/seed [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -users int
        Number of players to create (default 50)
  -games int
        Games recorded per player (default 20)
  -months int
        Spread game dates over this many months (default 6)
  -replay float
        Share of games submitted twice (default 0.1)
  -seed uint
        Random seed (default 1)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -settle duration
        How long to wait for the leaderboard (default 30s)
  -verbose
        Log every failed request
  -help
        Show this help message

Examples:
  go run ./cmd/seed -users 200 -games 40
  go run ./cmd/seed -url http://localhost:8080 -seed 7 -verbose
`)
}
