// Package types contains common types used across the application
package types

// Entry represents a leaderboard entry
type Entry struct {
	Rank    int     `json:"rank"`
	UserID  string  `json:"userId"`
	Name    string  `json:"name"`
	Average float64 `json:"average"`
	Games   int     `json:"games"`
	WinRate float64 `json:"winRate"`
}
