package team

// Option applies a configuration option to Build.
type Option func(*config)

type config struct {
	minInning      float64
	includeNeutral bool
}

func newConfig(opts ...Option) config {
	c := config{minInning: 1, includeNeutral: true}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// WithMinInning drops games shorter than n innings.
func WithMinInning(n float64) Option {
	return func(c *config) {
		if n > 0 {
			c.minInning = n
		}
	}
}

// WithNeutralInSample controls whether NEUTRAL games count towards the rate
// denominator. Defaults to true.
func WithNeutralInSample(include bool) Option {
	return func(c *config) {
		c.includeNeutral = include
	}
}
