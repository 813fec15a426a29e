package selector

import "time"

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithMaxN sets the upper bound applied to LastN.
func WithMaxN(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxN = n
		}
	}
}

// WithClock sets the time source used when a selector omits "now".
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// WithLocation sets the calendar location for day and month boundaries.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}
