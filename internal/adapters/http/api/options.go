package api

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/okian/carom/pkg/logger"
)

// Option configures a Server.
type Option func(*Server)

// WithMaxLeaderboardLimit caps the leaderboard limit parameter.
func WithMaxLeaderboardLimit(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxLeaderboardLimit = n
		}
	}
}

// WithLocation sets the calendar used to read date-only query parameters.
func WithLocation(loc *time.Location) Option {
	return func(s *Server) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithWriteRateLimit throttles write endpoints to rps with the given burst.
// A non-positive rps disables throttling.
func WithWriteRateLimit(rps float64, burst int) Option {
	return func(s *Server) {
		if rps > 0 {
			s.writeLimiter = rate.NewLimiter(rate.Limit(rps), max(burst, 1))
		}
	}
}

// WithLogger sets the request logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}
