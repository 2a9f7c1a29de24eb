package service

import (
	"time"

	"github.com/okian/momentum/internal/domain/classify"
	"github.com/okian/momentum/internal/domain/scoring"
	"github.com/okian/momentum/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the ingestion queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the number of sample IDs remembered for deduplication.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithHistoryLimit caps the samples kept per domain.
func WithHistoryLimit(limit int) Option {
	return func(s *Service) {
		s.historyLimit = limit
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

// WithWeights sets the composite score weights.
func WithWeights(w scoring.Weights) Option {
	return func(s *Service) {
		s.weights = w
	}
}

// WithAlpha sets the EMA smoothing factor.
func WithAlpha(alpha float64) Option {
	return func(s *Service) {
		s.alpha = alpha
	}
}

// WithWindow sets the rolling z-score window in days.
func WithWindow(window int) Option {
	return func(s *Service) {
		s.window = window
	}
}

// WithLocation sets the timezone samples are bucketed into days in.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithComputeConcurrency bounds parallel domain recomputation.
func WithComputeConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithRecomputeInterval schedules a full scoring cycle; d <= 0 disables it.
func WithRecomputeInterval(d time.Duration) Option {
	return func(s *Service) {
		s.recomputeInterval = d
	}
}

// Sample timestamp window defaults.
const (
	DefaultMaxSampleAgeDays = 730
	DefaultMaxFutureSkew    = 24 * time.Hour
)

// WithMaxSampleAge rejects samples older than d; d <= 0 disables the check.
func WithMaxSampleAge(d time.Duration) Option {
	return func(s *Service) {
		s.maxSampleAge = d
	}
}

// WithMaxFutureSkew rejects samples more than d ahead of the service clock.
func WithMaxFutureSkew(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.maxFutureSkew = d
		}
	}
}

// WithClassifier replaces the keyword classifier.
func WithClassifier(c classify.Classifier) Option {
	return func(s *Service) {
		if c != nil {
			s.classifier = c
		}
	}
}

// WithClock sets the service clock.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}
