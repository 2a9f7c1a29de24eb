// Package worker applies queued samples to the history store and
// recomputes the momentum of the affected domain.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/okian/momentum/internal/adapters/mq/queue"
	"github.com/okian/momentum/internal/adapters/repository"
	"github.com/okian/momentum/internal/domain/aggregate"
	"github.com/okian/momentum/internal/domain/model"
	"github.com/okian/momentum/internal/domain/signal"
	"github.com/okian/momentum/pkg/logger"
	"github.com/okian/momentum/pkg/metrics"
)

const poolShutdownTimeout = 30 * time.Second

// Store is the subset of the history store a worker writes to.
type Store interface {
	Append(ctx context.Context, s model.RawSample) (int, error)
	History(ctx context.Context, domain model.Domain) (repository.History, error)
	PutScore(ctx context.Context, score model.MomentumScore, version int) (bool, error)
}

// Computer runs the momentum pipeline for one domain.
type Computer interface {
	Compute(ctx context.Context, in aggregate.Input) (model.MomentumScore, error)
}

// Queue defines how workers receive samples.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Sample
}

// BuildInput resamples a domain history into the daily series the
// aggregator consumes, ending on the day of until. A history that runs past
// until ends on its latest sample instead.
func BuildInput(h repository.History, loc *time.Location, until time.Time) (aggregate.Input, error) {
	if n := len(h.Samples); n > 0 && until.Before(h.Samples[n-1].Timestamp) {
		until = time.Time{}
	}
	values, events, err := signal.Resample(h.Samples, loc, until)
	if err != nil {
		return aggregate.Input{}, fmt.Errorf("domain %s: %w", h.Domain, err)
	}
	return aggregate.Input{Domain: h.Domain, Values: values, Events: events, TaskType: h.TaskType}, nil
}

// PipelineErrorReason maps a pipeline failure to a metric label.
func PipelineErrorReason(err error) string {
	switch {
	case errors.Is(err, signal.ErrNonFinite):
		return "non_finite"
	case errors.Is(err, signal.ErrLengthMismatch):
		return "length_mismatch"
	case errors.Is(err, aggregate.ErrEmptyHistory):
		return "empty_history"
	case errors.Is(err, model.ErrInvalidTaskType):
		return "invalid_task_type"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "other"
	}
}

// InMemoryWorker consumes samples from a Queue.
type InMemoryWorker struct {
	queue    Queue
	store    Store
	computer Computer
	name     string
	loc      *time.Location
	now      func() time.Time

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, store Store, computer Computer, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		store:    store,
		computer: computer,
		name:     "worker",
		loc:      time.UTC,
		now:      time.Now,
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run consumes samples until ctx is cancelled, Shutdown is called or the
// queue is closed and drained.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	samples := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case s, ok := <-samples:
			if !ok {
				return
			}
			metrics.RecordQueueDequeue()
			if err := w.Process(ctx, s); err != nil {
				w.logger.Error(ctx, "error processing sample",
					logger.String("sample_id", s.ID),
					logger.String("domain", string(s.Domain)),
					logger.Error(err),
				)
			}
		}
	}
}

// Shutdown stops the worker without draining the queue.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	select {
	case <-w.shutdown:
	default:
		close(w.shutdown)
	}
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Process appends one sample and recomputes its domain.
func (w *InMemoryWorker) Process(ctx context.Context, s model.RawSample) error {
	if _, err := w.store.Append(ctx, s); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "append_error")
		return fmt.Errorf("append sample %s: %w", s.ID, err)
	}
	if err := w.Recompute(ctx, s.Domain); err != nil {
		metrics.RecordWorkerError()
		return err
	}
	return nil
}

// Recompute rebuilds the MomentumScore of domain from its full history.
// A result computed from a history that has since changed is discarded.
func (w *InMemoryWorker) Recompute(ctx context.Context, domain model.Domain) error {
	start := time.Now()

	h, err := w.store.History(ctx, domain)
	if err != nil {
		metrics.RecordPipelineError("not_found")
		return fmt.Errorf("load history: %w", err)
	}
	in, err := BuildInput(h, w.loc, w.now())
	if err != nil {
		metrics.RecordPipelineError(PipelineErrorReason(err))
		return err
	}
	score, err := w.computer.Compute(ctx, in)
	if err != nil {
		metrics.RecordPipelineError(PipelineErrorReason(err))
		return fmt.Errorf("compute: %w", err)
	}

	stored, err := w.store.PutScore(ctx, score, h.Version)
	if err != nil {
		metrics.RecordErrorByComponent("worker", "store_error")
		return fmt.Errorf("store score: %w", err)
	}
	metrics.RecordPipelineRun(string(domain), float64(time.Since(start).Microseconds())/1000)
	if !stored {
		w.logger.Debug(ctx, "discarded stale score", logger.String("domain", string(domain)), logger.Int("version", h.Version))
		return nil
	}
	metrics.UpdateDomainScore(string(domain), score.MomentumScore)
	metrics.UpdateDomainPhase(string(domain), string(score.Phase))
	return nil
}

// Pool manages multiple workers sharing one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates workerCount workers; workerCount < 1 uses one per CPU.
func NewPool(workerCount int, q Queue, store Store, computer Computer, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}
	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := range p.workers {
		wopts := append(append([]Option{}, opts...), WithName("worker-"+strconv.Itoa(i)))
		p.workers[i] = NewInMemoryWorker(q, store, computer, wopts...)
	}
	metrics.UpdateWorkerCount(workerCount)
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	p.logger.Info(ctx, "worker pool started", logger.Int("workers", len(p.workers)))
}

// Shutdown closes the queue and waits for the workers to drain it.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut bool
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			timedOut = true
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	metrics.UpdateWorkerCount(0)
	if timedOut {
		return fmt.Errorf("worker pool shutdown: %w", shutdownCtx.Err())
	}
	return nil
}
