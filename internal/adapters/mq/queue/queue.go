// Package queue buffers predictions between the API and the store writers.
package queue

import (
	"context"
	"sync"

	"github.com/clarkmail2001/mlb-betting-model/internal/domain/model"
	"github.com/clarkmail2001/mlb-betting-model/pkg/metrics"
)

const defaultCapacity = 1024

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a prediction without blocking. ErrFull or ErrClosed when it
	// cannot.
	Enqueue(ctx context.Context, p model.Prediction) error

	// Dequeue returns a channel that yields predictions until the queue is
	// closed and drained, or ctx ends.
	Dequeue(ctx context.Context) <-chan model.Prediction

	Len() int
	Cap() int

	// Close stops accepting predictions. Buffered ones are still delivered.
	Close() error
	IsClosed() bool
}

// InMemoryQueue implements Queue on a buffered channel.
type InMemoryQueue struct {
	items    chan model.Prediction
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a bounded in-memory queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.items = make(chan model.Prediction, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	return q
}

// Enqueue adds a prediction to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, p model.Prediction) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordQueueEnqueueError()
		return err
	}

	select {
	case q.items <- p:
		metrics.RecordQueueEnqueue()
		metrics.UpdateQueueSize(len(q.items))
		return nil
	default:
		metrics.RecordQueueEnqueueError()
		return ErrFull
	}
}

// Dequeue returns a channel fed from the buffer. It closes once the queue is
// closed and drained, or when ctx ends.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan model.Prediction {
	out := make(chan model.Prediction)
	go func() {
		defer close(out)
		for {
			select {
			case p, ok := <-q.items:
				if !ok {
					return
				}
				select {
				case out <- p:
					metrics.RecordQueueDequeue()
					metrics.UpdateQueueSize(len(q.items))
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the number of buffered predictions.
func (q *InMemoryQueue) Len() int { return len(q.items) }

// Cap returns the queue capacity.
func (q *InMemoryQueue) Cap() int { return q.capacity }

// Close closes the queue. It is safe to call more than once.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	close(q.items)
	q.closed = true
	return nil
}

// IsClosed reports whether Close was called.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
