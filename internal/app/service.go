// Package service wires the store, queue, workers and the momentum
// pipeline into the operations exposed by the HTTP API and the CLI.
package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/okian/momentum/internal/adapters/mq/queue"
	"github.com/okian/momentum/internal/adapters/mq/worker"
	"github.com/okian/momentum/internal/adapters/repository"
	"github.com/okian/momentum/internal/domain/aggregate"
	"github.com/okian/momentum/internal/domain/classify"
	"github.com/okian/momentum/internal/domain/dedupe"
	"github.com/okian/momentum/internal/domain/insight"
	"github.com/okian/momentum/internal/domain/model"
	"github.com/okian/momentum/internal/domain/phase"
	"github.com/okian/momentum/internal/domain/scoring"
	"github.com/okian/momentum/internal/domain/signal"
	"github.com/okian/momentum/pkg/logger"
	"github.com/okian/momentum/pkg/metrics"
)

// IngestResult acknowledges an ingested sample.
type IngestResult struct {
	ID        string `json:"id"`
	Duplicate bool   `json:"duplicate"`
}

// Report bundles insights and alerts for the current scores.
type Report struct {
	Insights []insight.Insight `json:"insights"`
	Alerts   []insight.Alert   `json:"alerts"`
}

// EvaluateRequest is a stateless pipeline run over a posted history.
type EvaluateRequest struct {
	Values   []float64      `json:"values" yaml:"values"`
	Events   []bool         `json:"events,omitempty" yaml:"events"`
	TaskType model.TaskType `json:"task_type,omitempty" yaml:"task_type"`
}

// Evaluation is the result of Evaluate.
type Evaluation struct {
	Features      []model.FeatureRecord `json:"features"`
	Latest        model.FeatureRecord   `json:"latest"`
	Phase         model.PhaseRecord     `json:"phase"`
	MomentumScore float64               `json:"momentum_score"`
	TaskType      model.TaskType        `json:"task_type"`
	Badge         string                `json:"badge"`
}

// Service implements the API dependencies for the momentum system.
type Service struct {
	mu sync.RWMutex

	store      *repository.MemoryStore
	deduper    dedupe.Deduper
	aggregator *aggregate.Aggregator
	scorer     *scoring.Scorer
	classifier classify.Classifier
	recomputer *worker.InMemoryWorker

	sampleQueue *queue.InMemoryQueue
	workerPool  *worker.Pool

	workerCount       int
	queueSize         int
	dedupeSize        int
	historyLimit      int
	concurrency       int
	alpha             float64
	window            int
	weights           scoring.Weights
	loc               *time.Location
	recomputeInterval time.Duration
	maxSampleAge      time.Duration
	maxFutureSkew     time.Duration
	now               func() time.Time

	started bool
	stopCh  chan struct{}
	wg      sync.WaitGroup

	logger logger.Logger
}

// New constructs a Service. Pipeline settings are validated here so a
// misconfigured service never starts.
func New(opts ...Option) (*Service, error) {
	s := &Service{
		workerCount: runtime.NumCPU(),
		queueSize:   10_000,
		dedupeSize:  100_000,
		concurrency: runtime.NumCPU(),
		alpha:       signal.DefaultAlpha,
		window:      signal.DefaultWindow,
		weights:     scoring.DefaultWeights(),
		loc:         time.UTC,
		now:         time.Now,

		maxSampleAge:  DefaultMaxSampleAgeDays * 24 * time.Hour,
		maxFutureSkew: DefaultMaxFutureSkew,
		classifier:  classify.NewKeywordClassifier(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	scorer, err := scoring.New(scoring.WithWeights(s.weights))
	if err != nil {
		return nil, err
	}
	agg, err := aggregate.New(
		aggregate.WithScorer(scorer),
		aggregate.WithAlpha(s.alpha),
		aggregate.WithWindow(s.window),
		aggregate.WithConcurrency(s.concurrency),
		aggregate.WithClock(s.now),
	)
	if err != nil {
		return nil, err
	}

	s.scorer = scorer
	s.aggregator = agg
	s.store = repository.NewMemoryStore(repository.WithHistoryLimit(s.historyLimit))
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.recomputer = worker.NewInMemoryWorker(nil, s.store, s.aggregator,
		worker.WithName("recompute"), worker.WithLocation(s.loc), worker.WithClock(s.now))
	return s, nil
}

// Start starts the worker pool and the periodic recompute loop.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.logger.Info(ctx, "starting momentum service...")

	s.sampleQueue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.workerPool = worker.NewPool(s.workerCount, s.sampleQueue, s.store, s.aggregator,
		worker.WithLocation(s.loc), worker.WithClock(s.now))
	s.workerPool.Start(ctx)

	s.stopCh = make(chan struct{})
	if s.recomputeInterval > 0 {
		s.wg.Add(1)
		go s.recomputeLoop(ctx, s.stopCh)
	}

	s.started = true
	s.logger.Info(ctx, "momentum service started",
		logger.Int("workers", s.workerPool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Duration("recomputeInterval", s.recomputeInterval),
	)
	return nil
}

// Stop drains the queue and stops background work. The store is kept, so
// a stopped service can be started again.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping momentum service...")

	close(s.stopCh)
	s.wg.Wait()
	if err := s.workerPool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool shutdown", logger.Error(err))
	}

	s.started = false
	s.logger.Info(ctx, "momentum service stopped")
}

func (s *Service) recomputeLoop(ctx context.Context, stop <-chan struct{}) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.recomputeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			if _, err := s.Recompute(ctx); err != nil {
				s.logger.Error(ctx, "scheduled recompute failed", logger.Error(err))
			}
		}
	}
}

// Ingest validates a sample, drops duplicates and enqueues it for the
// workers. A sample without an ID is assigned one.
func (s *Service) Ingest(ctx context.Context, sample model.RawSample) (IngestResult, error) {
	d, err := model.ParseDomain(string(sample.Domain))
	if err != nil {
		metrics.RecordSampleRejected("invalid_domain")
		return IngestResult{}, fmt.Errorf("%w: %w", ErrInvalidSample, err)
	}
	sample.Domain = d
	if math.IsNaN(sample.Value) || math.IsInf(sample.Value, 0) {
		metrics.RecordSampleRejected("non_finite")
		return IngestResult{}, fmt.Errorf("%w: non-finite value", ErrInvalidSample)
	}
	if sample.Timestamp.IsZero() {
		metrics.RecordSampleRejected("missing_timestamp")
		return IngestResult{}, fmt.Errorf("%w: missing timestamp", ErrInvalidSample)
	}
	now := s.now()
	if sample.Timestamp.After(now.Add(s.maxFutureSkew)) {
		metrics.RecordSampleRejected("future_timestamp")
		return IngestResult{}, fmt.Errorf("%w: timestamp %s is in the future", ErrInvalidSample, sample.Timestamp.Format(time.RFC3339))
	}
	if s.maxSampleAge > 0 && sample.Timestamp.Before(now.Add(-s.maxSampleAge)) {
		metrics.RecordSampleRejected("stale_timestamp")
		return IngestResult{}, fmt.Errorf("%w: timestamp %s is too old", ErrInvalidSample, sample.Timestamp.Format(time.RFC3339))
	}
	sample.ID = strings.TrimSpace(sample.ID)
	if sample.ID == "" {
		sample.ID = uuid.NewString()
	}

	s.mu.RLock()
	q := s.sampleQueue
	started := s.started
	s.mu.RUnlock()
	if !started {
		return IngestResult{}, ErrNotStarted
	}

	if s.deduper.SeenAndRecord(ctx, sample.ID) {
		metrics.RecordSampleDuplicate()
		s.logger.Debug(ctx, "duplicate sample", logger.String("sample_id", sample.ID))
		return IngestResult{ID: sample.ID, Duplicate: true}, nil
	}
	if err := q.Enqueue(ctx, sample); err != nil {
		s.deduper.Unrecord(ctx, sample.ID)
		return IngestResult{}, err
	}
	metrics.RecordSampleIngested(string(sample.Domain))
	return IngestResult{ID: sample.ID}, nil
}

// Recompute runs a full scoring cycle over every domain with samples and
// returns the stored scores.
func (s *Service) Recompute(ctx context.Context) ([]model.MomentumScore, error) {
	start := time.Now()
	until := s.now()

	var (
		inputs   []aggregate.Input
		versions []int
	)
	for _, d := range s.store.Domains(ctx) {
		h, err := s.store.History(ctx, d)
		if err != nil {
			return nil, err
		}
		if len(h.Samples) == 0 {
			continue
		}
		in, err := worker.BuildInput(h, s.loc, until)
		if err != nil {
			metrics.RecordPipelineError(worker.PipelineErrorReason(err))
			return nil, err
		}
		inputs = append(inputs, in)
		versions = append(versions, h.Version)
	}

	scores, err := s.aggregator.ComputeAll(ctx, inputs)
	if err != nil {
		metrics.RecordPipelineError(worker.PipelineErrorReason(err))
		return nil, err
	}
	for i, sc := range scores {
		stored, err := s.store.PutScore(ctx, sc, versions[i])
		if err != nil {
			return nil, err
		}
		if stored {
			metrics.UpdateDomainScore(string(sc.Domain), sc.MomentumScore)
			metrics.UpdateDomainPhase(string(sc.Domain), string(sc.Phase))
		}
	}
	s.logger.Debug(ctx, "recompute finished",
		logger.Int("domains", len(scores)),
		logger.Duration("took", time.Since(start)),
	)
	return s.store.Scores(ctx)
}

// Momentum returns the latest score of one domain.
func (s *Service) Momentum(ctx context.Context, domain string) (model.MomentumScore, error) {
	d, err := model.ParseDomain(domain)
	if err != nil {
		return model.MomentumScore{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return s.store.Score(ctx, d)
}

// All returns the latest score of every domain.
func (s *Service) All(ctx context.Context) ([]model.MomentumScore, error) {
	return s.store.Scores(ctx)
}

// Leaderboard returns the top-n domains by velocity.
func (s *Service) Leaderboard(ctx context.Context, n int) ([]repository.Entry, error) {
	return s.store.Leaderboard(ctx, n)
}

// Insights analyzes the latest scores.
func (s *Service) Insights(ctx context.Context) (Report, error) {
	scores, err := s.store.Scores(ctx)
	if err != nil {
		return Report{}, err
	}
	return Report{
		Insights: nonNil(insight.Analyze(scores)),
		Alerts:   nonNil(insight.Alerts(scores, s.now())),
	}, nil
}

// Alerts returns the notification-worthy events for the latest scores.
func (s *Service) Alerts(ctx context.Context) ([]insight.Alert, error) {
	scores, err := s.store.Scores(ctx)
	if err != nil {
		return nil, err
	}
	return nonNil(insight.Alerts(scores, s.now())), nil
}

// WeeklyReview summarizes the latest scores for the current ISO week.
func (s *Service) WeeklyReview(ctx context.Context) (insight.Review, error) {
	scores, err := s.store.Scores(ctx)
	if err != nil {
		return insight.Review{}, err
	}
	_, week := s.now().In(s.loc).ISOWeek()
	return insight.WeeklyReview(scores, week), nil
}

// SetTaskType changes the scoring policy of a domain and rescores it when
// it already has samples.
func (s *Service) SetTaskType(ctx context.Context, domain, taskType string) (model.TaskType, error) {
	d, err := model.ParseDomain(domain)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	t, err := model.ParseTaskType(taskType)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if _, err := s.store.SetTaskType(ctx, d, t); err != nil {
		return "", err
	}
	h, err := s.store.History(ctx, d)
	if err != nil {
		return "", err
	}
	if len(h.Samples) > 0 {
		if err := s.recomputer.Recompute(ctx, d); err != nil {
			return "", err
		}
	}
	return t, nil
}

// Classify suggests a domain and task type for free-form task text.
func (s *Service) Classify(ctx context.Context, text string) (classify.Result, error) {
	r, err := s.classifier.Classify(ctx, text)
	if errors.Is(err, classify.ErrEmptyText) {
		return classify.Result{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return r, err
}

// Evaluate runs the pipeline over a posted daily history without touching
// the store. Missing event flags are derived as value > 0.
func (s *Service) Evaluate(ctx context.Context, req EvaluateRequest) (Evaluation, error) {
	taskType := req.TaskType
	if taskType == "" {
		taskType = model.Compounding
	}
	if !taskType.Valid() {
		return Evaluation{}, fmt.Errorf("%w: %w: %q", ErrInvalidInput, model.ErrInvalidTaskType, taskType)
	}
	events := req.Events
	if events == nil {
		events = make([]bool, len(req.Values))
		for i, v := range req.Values {
			events[i] = v > 0
		}
	}

	records, err := s.aggregator.Features(ctx, aggregate.Input{Values: req.Values, Events: events, TaskType: taskType})
	if err != nil {
		return Evaluation{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	last := records[len(records)-1]
	score := s.scorer.ScoreRecord(last, taskType)
	return Evaluation{
		Features:      records,
		Latest:        last,
		Phase:         phase.ClassifyRecord(last),
		MomentumScore: score,
		TaskType:      taskType,
		Badge:         model.Badge(score),
	}, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]any{
		"started":      s.started,
		"workerCount":  s.workerCount,
		"queueSize":    s.queueSize,
		"dedupeSize":   s.dedupeSize,
		"dedupeLength": s.deduper.Size(),
		"domains":      s.store.Count(ctx),
		"samples":      s.store.SampleCount(ctx),
	}
	if s.started {
		stats["queueLength"] = s.sampleQueue.Len(ctx)
	}
	return stats
}

func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
