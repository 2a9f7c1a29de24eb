package repository

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithHistoryLimit caps the samples retained per domain; the oldest are
// dropped first. limit <= 0 keeps everything.
func WithHistoryLimit(limit int) Option {
	return func(s *MemoryStore) {
		s.historyLimit = limit
	}
}
