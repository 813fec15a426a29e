package service

import (
	"time"

	"github.com/okian/carom/internal/adapters/mq/publisher"
	"github.com/okian/carom/internal/domain/benchmark"
	"github.com/okian/carom/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of leaderboard refresh workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the event queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many client game ids are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithBenchmarkTable replaces the built-in handicap table.
func WithBenchmarkTable(t *benchmark.Table) Option {
	return func(s *Service) {
		if t != nil {
			s.table = t
		}
	}
}

// WithPublisher sets where game events are broadcast.
func WithPublisher(p publisher.Publisher) Option {
	return func(s *Service) {
		if p != nil {
			s.publisher = p
		}
	}
}

// WithMaxLastN bounds every last-n window.
func WithMaxLastN(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxLastN = n
		}
	}
}

// WithFormWindow sets the default number of recent games for form analysis.
func WithFormWindow(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.formWindow = n
		}
	}
}

// WithTeamWindow sets the default number of recent team games for team indicators.
func WithTeamWindow(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.teamWindow = n
		}
	}
}

// WithTeamMinInning sets the default inning floor for team indicators.
func WithTeamMinInning(n float64) Option {
	return func(s *Service) {
		if n > 0 {
			s.teamMinInning = n
		}
	}
}

// WithLeaderboardMinGames sets how many games a user needs to be ranked.
func WithLeaderboardMinGames(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.minGames = n
		}
	}
}

// WithMaxLeaderboardLimit caps TopN.
func WithMaxLeaderboardLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxLeaderboardLimit = n
		}
	}
}

// WithLocation sets the calendar used for dates, months and day boundaries.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithClock overrides time.Now.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}
