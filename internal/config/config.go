// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Layering and validation live in Load.
// - External errors are wrapped with this package's sentinel errors.
package config

import (
	"context"
	"runtime"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Weights configures the composite momentum score.
type Weights struct {
	Velocity     float64 `koanf:"velocity" json:"velocity"`
	Acceleration float64 `koanf:"acceleration" json:"acceleration"`
	Z            float64 `koanf:"z" json:"z"`
	Streak       float64 `koanf:"streak" json:"streak"`
}

// Validate checks that every weight is non-negative.
func (w Weights) Validate() error {
	return validation.ValidateStruct(&w,
		validation.Field(&w.Velocity, validation.Min(0.0)),
		validation.Field(&w.Acceleration, validation.Min(0.0)),
		validation.Field(&w.Z, validation.Min(0.0)),
		validation.Field(&w.Streak, validation.Min(0.0)),
	)
}

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" json:"log_level"`
	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr" json:"addr"`
	// EventQueueSize bounds the in-memory sample queue.
	EventQueueSize int `koanf:"queue_size" json:"queue_size"`
	// WorkerCount sets the number of ingestion workers.
	WorkerCount int `koanf:"worker_count" json:"worker_count"`
	// DedupeSize bounds the sample id idempotency cache.
	DedupeSize int `koanf:"dedupe_size" json:"dedupe_size"`
	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit" json:"max_leaderboard_limit"`
	// EMAAlpha is the smoothing factor of the exponential moving average.
	EMAAlpha float64 `koanf:"ema_alpha" json:"ema_alpha"`
	// ZScoreWindow caps the rolling z-score window in days.
	ZScoreWindow int `koanf:"zscore_window" json:"zscore_window"`
	// Weights of the composite momentum score.
	Weights Weights `koanf:"weights" json:"weights"`
	// Timezone names the IANA zone used to bucket samples into days.
	Timezone string `koanf:"timezone" json:"timezone"`
	// ComputeConcurrency bounds how many domains are recomputed in parallel.
	ComputeConcurrency int `koanf:"compute_concurrency" json:"compute_concurrency"`
	// RecomputeInterval schedules a full scoring cycle; 0 disables it.
	RecomputeInterval time.Duration `koanf:"recompute_interval" json:"recompute_interval"`
	// HistoryLimit caps the samples kept per domain; 0 keeps everything.
	HistoryLimit int `koanf:"history_limit" json:"history_limit"`
	// MaxSampleAgeDays rejects samples older than this many days; 0 disables it.
	MaxSampleAgeDays int `koanf:"max_sample_age_days" json:"max_sample_age_days"`
	// MaxFutureSkew rejects samples further ahead of the clock than this.
	MaxFutureSkew time.Duration `koanf:"max_future_skew" json:"max_future_skew"`
}

// New creates a Config populated with defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:            "info",
		Addr:                ":9080",
		EventQueueSize:      10_000,
		WorkerCount:         runtime.NumCPU(),
		DedupeSize:          100_000,
		MaxLeaderboardLimit: 50,
		EMAAlpha:            0.3,
		ZScoreWindow:        60,
		Weights: Weights{
			Velocity:     0.5,
			Acceleration: 0.2,
			Z:            0.2,
			Streak:       0.1,
		},
		Timezone:           "UTC",
		ComputeConcurrency: runtime.NumCPU(),
		RecomputeInterval:  time.Hour,
		MaxSampleAgeDays:   730,
		MaxFutureSkew:      24 * time.Hour,
	}
}

// Validate checks the values the pipeline cannot run without.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Addr, validation.Required),
		validation.Field(&c.EMAAlpha, validation.Required, validation.Min(0.0).Exclusive(), validation.Max(1.0)),
		validation.Field(&c.ZScoreWindow, validation.Required, validation.Min(1)),
		validation.Field(&c.Weights),
		validation.Field(&c.Timezone, validation.By(validateTimezone)),
		validation.Field(&c.HistoryLimit, validation.Min(0)),
		validation.Field(&c.MaxSampleAgeDays, validation.Min(0)),
		validation.Field(&c.MaxFutureSkew, validation.Min(time.Duration(0))),
	)
}

// Location resolves Timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func validateTimezone(value any) error {
	name, _ := value.(string)
	if _, err := time.LoadLocation(name); err != nil {
		return validation.NewError("validation_timezone", "must be a valid IANA time zone")
	}
	return nil
}
