package signal

import (
	"fmt"

	"github.com/okian/momentum/internal/domain/model"
)

// Option configures ComputeFeatures.
type Option func(*settings)

type settings struct {
	alpha  float64
	window int
}

// WithAlpha sets the EMA smoothing factor.
func WithAlpha(alpha float64) Option {
	return func(s *settings) {
		s.alpha = alpha
	}
}

// WithWindow sets the rolling z-score window cap.
func WithWindow(window int) Option {
	return func(s *settings) {
		s.window = window
	}
}

// ComputeFeatures derives one FeatureRecord per day from a value history
// and the parallel "did an event occur" flags. Either the full sequence is
// returned or an error, never a prefix.
func ComputeFeatures(values []float64, events []bool, opts ...Option) ([]model.FeatureRecord, error) {
	s := settings{alpha: DefaultAlpha, window: DefaultWindow}
	for _, opt := range opts {
		opt(&s)
	}
	if len(values) != len(events) {
		return nil, fmt.Errorf("%w: %d values, %d flags", ErrLengthMismatch, len(values), len(events))
	}

	z, err := PreprocessWindow(values, s.window)
	if err != nil {
		return nil, err
	}
	ema, err := EMA(values, s.alpha)
	if err != nil {
		return nil, err
	}
	velocity := Velocity(ema)
	acceleration := Acceleration(velocity)
	streak := Streak(events)

	out := make([]model.FeatureRecord, len(values))
	for i := range out {
		out[i] = model.FeatureRecord{
			EMA:          ema[i],
			Velocity:     velocity[i],
			Acceleration: acceleration[i],
			Z:            z[i],
			Streak:       streak[i],
			StreakScore:  StreakScoreOf(streak[i]),
		}
	}
	return out, nil
}
