// Package rating derives a user's leaderboard standing from their history.
package rating

import (
	"context"
	"fmt"

	"github.com/okian/carom/internal/domain/model"
	"github.com/okian/carom/internal/domain/stats"
)

// DefaultMinGames is the number of games a user needs to be ranked.
const DefaultMinGames = 5

// Rating is a user's overall standing.
type Rating struct {
	UserID   string
	Name     string
	Average  float64
	WinRate  float64
	Games    int
	Eligible bool
}

// Of rates user over games. A user is eligible once they have at least
// minGames games with a usable inning count.
func Of(user model.User, games []model.Game, minGames int) Rating {
	s := stats.Calc(games)
	valid := 0
	for i := range games {
		if games[i].HasValidInning() {
			valid++
		}
	}
	return Rating{
		UserID:   user.ID,
		Name:     user.Name,
		Average:  s.Average,
		WinRate:  s.WinRate,
		Games:    s.TotalGames,
		Eligible: valid >= max(minGames, 1),
	}
}

// Source reads what a rating needs.
type Source interface {
	GetUser(ctx context.Context, id string) (model.User, error)
	ListGames(ctx context.Context, userID string) ([]model.Game, error)
}

// Rater loads a user's history from a Source and rates it.
type Rater struct {
	src      Source
	minGames int
}

// Option applies a configuration option to the Rater.
type Option func(*Rater)

// WithMinGames sets the eligibility threshold.
func WithMinGames(n int) Option {
	return func(r *Rater) {
		if n > 0 {
			r.minGames = n
		}
	}
}

// NewRater returns a Rater reading from src.
func NewRater(src Source, opts ...Option) *Rater {
	r := &Rater{src: src, minGames: DefaultMinGames}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// MinGames returns the eligibility threshold.
func (r *Rater) MinGames() int { return r.minGames }

// Rate loads and rates userID. Source errors are returned wrapped.
func (r *Rater) Rate(ctx context.Context, userID string) (Rating, error) {
	user, err := r.src.GetUser(ctx, userID)
	if err != nil {
		return Rating{}, fmt.Errorf("rate %s: %w", userID, err)
	}
	games, err := r.src.ListGames(ctx, userID)
	if err != nil {
		return Rating{}, fmt.Errorf("rate %s: %w", userID, err)
	}
	return Of(user, games, r.minGames), nil
}
