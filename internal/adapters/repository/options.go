package repository

// Default history configuration constants.
const (
	defaultCapacity = 1000
)

// Option applies a configuration option to the InMemoryStore.
type Option func(*InMemoryStore)

// WithCapacity sets how many boards are retained. Values <= 0 are ignored.
func WithCapacity(capacity int) Option {
	return func(s *InMemoryStore) {
		if capacity > 0 {
			s.capacity = capacity
		}
	}
}
