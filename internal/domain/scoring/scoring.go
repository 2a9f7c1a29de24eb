// Package scoring folds momentum features into a single 0-100 score.
package scoring

import (
	"errors"
	"fmt"
	"math"

	"github.com/okian/momentum/internal/domain/model"
)

// ErrInvalidWeights is returned when a weight is negative or not finite.
var ErrInvalidWeights = errors.New("scoring: invalid weights")

const (
	minScore = 0
	maxScore = 100
)

// Weights are the linear coefficients applied to the feature vector.
type Weights struct {
	Velocity     float64
	Acceleration float64
	Z            float64
	Streak       float64
}

// DefaultWeights returns the stock weighting.
func DefaultWeights() Weights {
	return Weights{Velocity: 0.5, Acceleration: 0.2, Z: 0.2, Streak: 0.1}
}

// Validate checks that every weight is finite and non-negative.
func (w Weights) Validate() error {
	for name, v := range map[string]float64{
		"velocity":     w.Velocity,
		"acceleration": w.Acceleration,
		"z":            w.Z,
		"streak":       w.Streak,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("%w: %s=%v", ErrInvalidWeights, name, v)
		}
	}
	return nil
}

// Option applies a configuration option to the Scorer.
type Option func(*Scorer)

// WithWeights overrides the default weights.
func WithWeights(w Weights) Option {
	return func(s *Scorer) {
		s.weights = w
	}
}

// Scorer computes momentum scores. It is stateless after construction and
// safe for concurrent use.
type Scorer struct {
	weights Weights
}

// New builds a Scorer. Configured weights are validated.
func New(opts ...Option) (*Scorer, error) {
	s := &Scorer{weights: DefaultWeights()}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.weights.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Weights returns the active weights.
func (s *Scorer) Weights() Weights { return s.weights }

// Score maps one feature vector to [0, 100]. Milestone work is binary:
// 100 while progress is being made, 0 otherwise.
func (s *Scorer) Score(velocity, acceleration, z, streakScore float64, taskType model.TaskType) float64 {
	if taskType == model.Milestone {
		if velocity > 0 {
			return maxScore
		}
		return minScore
	}
	w := s.weights
	raw := w.Velocity*velocity + w.Acceleration*acceleration + w.Z*z + w.Streak*streakScore
	return clamp((raw+1)*50, minScore, maxScore)
}

// ScoreRecord is Score over a FeatureRecord.
func (s *Scorer) ScoreRecord(r model.FeatureRecord, taskType model.TaskType) float64 {
	return s.Score(r.Velocity, r.Acceleration, r.Z, r.StreakScore, taskType)
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
