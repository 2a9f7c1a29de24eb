package worker

import (
	"time"

	"github.com/okian/momentum/pkg/logger"
)

// Option applies a configuration option to the InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithLocation sets the timezone used to bucket samples into days.
func WithLocation(loc *time.Location) Option {
	return func(w *InMemoryWorker) {
		if loc != nil {
			w.loc = loc
		}
	}
}

// WithClock sets the clock that decides the last day of the series.
func WithClock(now func() time.Time) Option {
	return func(w *InMemoryWorker) {
		if now != nil {
			w.now = now
		}
	}
}
