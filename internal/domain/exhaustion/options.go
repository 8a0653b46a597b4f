package exhaustion

type config struct {
	capacity int
	initial  []string
}

// Option applies a configuration option to the tracker.
type Option func(*config)

// WithCapacity presizes the tracker for n names. Values <= 0 are ignored.
func WithCapacity(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.capacity = n
		}
	}
}

// WithInitial seeds the tracker with already exhausted names.
func WithInitial(names ...string) Option {
	return func(c *config) {
		c.initial = append(c.initial, names...)
	}
}
