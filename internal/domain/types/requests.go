package types

import (
	"github.com/okian/carom/internal/domain/benchmark"
	"github.com/okian/carom/internal/domain/form"
	"github.com/okian/carom/internal/domain/model"
	"github.com/okian/carom/internal/domain/monthly"
	"github.com/okian/carom/internal/domain/selector"
	"github.com/okian/carom/internal/domain/stats"
	"github.com/okian/carom/internal/domain/team"
)

// NewUser is the body of a user registration.
type NewUser struct {
	Name     string  `json:"name"`
	Handicap float64 `json:"handicap"`
}

// UserPatch holds the user fields that may change. Nil fields are kept.
type UserPatch struct {
	Name     *string  `json:"name,omitempty"`
	Handicap *float64 `json:"handicap,omitempty"`
}

// NewGame is the body of a game submission. Result and GameType accept
// legacy tokens. An empty GameDate means now. A non-empty ID makes the
// submission idempotent.
type NewGame struct {
	ID       string  `json:"id,omitempty"`
	Score    float64 `json:"score"`
	Inning   float64 `json:"inning"`
	Result   string  `json:"result"`
	GameType string  `json:"gameType"`
	GameDate string  `json:"gameDate,omitempty"`
	Memo     string  `json:"memo,omitempty"`
}

// TeamQuery tunes team indicators. Zero values use the configured defaults.
type TeamQuery struct {
	N              int
	MinInning      float64
	IncludeNeutral *bool
}

// Insights is the dashboard bundle for one user.
type Insights struct {
	User      model.User        `json:"user"`
	Benchmark benchmark.Entry   `json:"benchmark"`
	Stats     stats.Full        `json:"stats"`
	Form      form.Analysis     `json:"form"`
	Team      team.Result       `json:"team"`
	Monthly   []monthly.Row     `json:"monthly"`
	Rank      *Entry            `json:"rank,omitempty"`
	Selector  selector.Selector `json:"selector"`
}
