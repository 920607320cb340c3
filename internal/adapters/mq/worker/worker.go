// Package worker drains the prediction queue into the store.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/clarkmail2001/mlb-betting-model/internal/adapters/repository"
	"github.com/clarkmail2001/mlb-betting-model/internal/domain/model"
	"github.com/clarkmail2001/mlb-betting-model/pkg/logger"
	"github.com/clarkmail2001/mlb-betting-model/pkg/metrics"
)

const poolShutdownTimeout = 30 * time.Second

// Recorder persists one prediction.
type Recorder interface {
	SavePrediction(ctx context.Context, p model.Prediction) error
}

// Queue defines how workers receive predictions.
type Queue interface {
	Dequeue(ctx context.Context) <-chan model.Prediction
}

// Worker reads predictions from a queue and hands them to a Recorder.
type Worker struct {
	queue    Queue
	recorder Recorder
	name     string
	logger   logger.Logger
	onError  func(ctx context.Context, p model.Prediction, err error)

	done chan struct{}
}

// New creates a worker.
func New(q Queue, r Recorder, opts ...Option) *Worker {
	w := &Worker{
		queue:    q,
		recorder: r,
		name:     "worker",
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}
	return w
}

// Run processes predictions until the queue is closed and drained. A
// cancelled ctx aborts the drain.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)
	items := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case p, ok := <-items:
			if !ok {
				return
			}
			if err := w.process(ctx, p); err != nil {
				w.logger.Error(ctx, "persist prediction", logger.String("prediction_id", p.ID), logger.Error(err))
				if w.onError != nil {
					w.onError(ctx, p, err)
				}
			}
		}
	}
}

// Done is closed when Run returns.
func (w *Worker) Done() <-chan struct{} { return w.done }

func (w *Worker) process(ctx context.Context, p model.Prediction) error {
	start := time.Now()
	metrics.AddWorkerActive(1)
	defer func() {
		metrics.AddWorkerActive(-1)
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	err := w.recorder.SavePrediction(ctx, p)
	switch {
	case err == nil:
		metrics.RecordPredictionSaved()
		return nil
	case errors.Is(err, repository.ErrDuplicate):
		metrics.RecordPredictionDuplicate()
		w.logger.Debug(ctx, "prediction already stored", logger.String("game_key", p.GameKey))
		return nil
	default:
		metrics.RecordWorkerError()
		return fmt.Errorf("save prediction %s: %w", p.ID, err)
	}
}

// Pool runs a fixed set of workers over one queue.
type Pool struct {
	workers []*Worker
	queue   Queue
	logger  logger.Logger
	wg      sync.WaitGroup
	cancel  context.CancelFunc
}

// NewPool creates count workers. A count below one uses one per CPU.
func NewPool(count int, q Queue, r Recorder, opts ...Option) *Pool {
	if count < 1 {
		count = runtime.NumCPU()
	}
	p := &Pool{
		workers: make([]*Worker, count),
		queue:   q,
	}
	for i := range p.workers {
		wopts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		p.workers[i] = New(q, r, wopts...)
	}
	p.logger = p.workers[0].logger
	metrics.UpdateWorkerCount(count)
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start launches every worker. Workers keep ctx values but not its
// cancellation: they stop when Shutdown has drained the queue, or when
// Shutdown gives up waiting.
func (p *Pool) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	p.cancel = cancel
	for _, w := range p.workers {
		p.wg.Add(1)
		go func(w *Worker) {
			defer p.wg.Done()
			w.Run(runCtx)
		}(w)
	}
}

// Shutdown closes the queue and waits for workers to drain it.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "close queue", logger.Error(err))
		}
	}

	ctx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	finished := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(finished)
	}()
	select {
	case <-finished:
		p.stopWorkers()
		metrics.UpdateWorkerCount(0)
		return nil
	case <-ctx.Done():
		p.stopWorkers()
		p.logger.Warn(ctx, "worker pool shutdown timed out", logger.Int("pending", p.pending()))
		return fmt.Errorf("%w: %w", ErrShutdownTimeout, ctx.Err())
	}
}

func (p *Pool) stopWorkers() {
	if p.cancel != nil {
		p.cancel()
	}
}

func (p *Pool) pending() int {
	if l, ok := p.queue.(interface{ Len() int }); ok {
		return l.Len()
	}
	return 0
}
