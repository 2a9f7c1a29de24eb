// Package aggregate runs the signal pipeline for each tracked domain and
// assembles the per-domain MomentumScore.
package aggregate

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/okian/momentum/internal/domain/model"
	"github.com/okian/momentum/internal/domain/phase"
	"github.com/okian/momentum/internal/domain/scoring"
	"github.com/okian/momentum/internal/domain/signal"
	"golang.org/x/sync/errgroup"
)

// ErrEmptyHistory is returned for a domain with no daily values.
var ErrEmptyHistory = errors.New("aggregate: empty history")

// Input is the resampled history of one domain.
type Input struct {
	Domain   model.Domain
	Values   []float64
	Events   []bool
	TaskType model.TaskType
}

// Option applies a configuration option to the Aggregator.
type Option func(*Aggregator)

// WithScorer sets the scorer used for the composite score.
func WithScorer(s *scoring.Scorer) Option {
	return func(a *Aggregator) {
		if s != nil {
			a.scorer = s
		}
	}
}

// WithAlpha sets the EMA smoothing factor.
func WithAlpha(alpha float64) Option {
	return func(a *Aggregator) {
		a.alpha = alpha
	}
}

// WithWindow sets the rolling z-score window.
func WithWindow(window int) Option {
	return func(a *Aggregator) {
		a.window = window
	}
}

// WithConcurrency caps how many domains ComputeAll evaluates at once.
func WithConcurrency(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.concurrency = n
		}
	}
}

// WithClock sets the source of ComputedAt timestamps.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		if now != nil {
			a.now = now
		}
	}
}

// Aggregator composes preprocessing, smoothing, streak tracking, phase
// classification and scoring. It holds no per-domain state.
type Aggregator struct {
	scorer      *scoring.Scorer
	alpha       float64
	window      int
	concurrency int
	now         func() time.Time
}

// New builds an Aggregator with default weights, alpha and window.
func New(opts ...Option) (*Aggregator, error) {
	scorer, err := scoring.New()
	if err != nil {
		return nil, err
	}
	a := &Aggregator{
		scorer:      scorer,
		alpha:       signal.DefaultAlpha,
		window:      signal.DefaultWindow,
		concurrency: runtime.NumCPU(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.alpha <= 0 || a.alpha > 1 {
		return nil, fmt.Errorf("%w: %v", signal.ErrInvalidAlpha, a.alpha)
	}
	if a.window <= 0 {
		return nil, fmt.Errorf("%w: %d", signal.ErrInvalidWindow, a.window)
	}
	return a, nil
}

// Features returns the full FeatureRecord sequence for in.
func (a *Aggregator) Features(ctx context.Context, in Input) ([]model.FeatureRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(in.Values) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyHistory, in.Domain)
	}
	records, err := signal.ComputeFeatures(in.Values, in.Events,
		signal.WithAlpha(a.alpha), signal.WithWindow(a.window))
	if err != nil {
		return nil, fmt.Errorf("domain %s: %w", in.Domain, err)
	}
	return records, nil
}

// Compute evaluates one domain from its latest FeatureRecord.
func (a *Aggregator) Compute(ctx context.Context, in Input) (model.MomentumScore, error) {
	taskType := in.TaskType
	if taskType == "" {
		taskType = model.Compounding
	}
	if !taskType.Valid() {
		return model.MomentumScore{}, fmt.Errorf("domain %s: %w: %q", in.Domain, model.ErrInvalidTaskType, taskType)
	}

	records, err := a.Features(ctx, in)
	if err != nil {
		return model.MomentumScore{}, err
	}
	last := records[len(records)-1]
	p := phase.ClassifyRecord(last)

	return model.MomentumScore{
		Domain:        in.Domain,
		EMA:           last.EMA,
		Velocity:      last.Velocity,
		Acceleration:  last.Acceleration,
		Z:             last.Z,
		Streak:        last.Streak,
		MomentumScore: a.scorer.ScoreRecord(last, taskType),
		Phase:         p.Phase,
		Confidence:    p.Confidence,
		TaskType:      taskType,
		Samples:       len(in.Values),
		ComputedAt:    a.now(),
	}, nil
}

// ComputeAll evaluates every input concurrently and returns the scores in
// input order. The first failure cancels the remaining work.
func (a *Aggregator) ComputeAll(ctx context.Context, inputs []Input) ([]model.MomentumScore, error) {
	out := make([]model.MomentumScore, len(inputs))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)

	for i, in := range inputs {
		g.Go(func() error {
			score, err := a.Compute(gCtx, in)
			if err != nil {
				return err
			}
			out[i] = score
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
