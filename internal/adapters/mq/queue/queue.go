// Package queue defines the contract for enqueuing and consuming raw samples.
package queue

import (
	"context"
	"sync"

	"github.com/okian/momentum/internal/domain/model"
	"github.com/okian/momentum/pkg/metrics"
)

const defaultQueueCapacity = 10_000

// Sample is the payload flowing through the queue.
type Sample = model.RawSample

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a sample to the queue. It fails with ErrFull rather than
	// block when the queue is at capacity.
	Enqueue(ctx context.Context, s Sample) error

	// Dequeue returns the channel samples are delivered on. The channel is
	// closed when the queue is closed.
	Dequeue(ctx context.Context) <-chan Sample

	// Len returns the current number of queued samples.
	Len(ctx context.Context) int

	// Cap returns the queue capacity.
	Cap() int

	// Close stops accepting samples and closes the dequeue channel.
	Close() error
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	samples  chan Sample
	capacity int
	mu       sync.RWMutex
	closed   bool
}

// NewInMemoryQueue creates a new in-memory queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.samples = make(chan Sample, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	return q
}

// Enqueue implements Queue.Enqueue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, s Sample) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError("closed")
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordQueueEnqueueError("context_cancelled")
		return err
	}

	select {
	case q.samples <- s:
		metrics.RecordQueueEnqueue()
		metrics.UpdateQueueSize(len(q.samples))
		return nil
	default:
		metrics.RecordQueueEnqueueError("queue_full")
		return ErrFull
	}
}

// Dequeue implements Queue.Dequeue.
func (q *InMemoryQueue) Dequeue(_ context.Context) <-chan Sample {
	return q.samples
}

// Len implements Queue.Len.
func (q *InMemoryQueue) Len(_ context.Context) int {
	size := len(q.samples)
	metrics.UpdateQueueSize(size)
	return size
}

// Cap implements Queue.Cap.
func (q *InMemoryQueue) Cap() int { return q.capacity }

// Close implements Queue.Close. Closing twice is a no-op.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.samples)
	q.closed = true
	return nil
}

// IsClosed reports whether Close has been called.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
