package worker

import (
	"context"
	"errors"

	"github.com/clarkmail2001/mlb-betting-model/internal/domain/model"
	"github.com/clarkmail2001/mlb-betting-model/pkg/logger"
)

// ErrShutdownTimeout is returned when workers do not drain in time.
var ErrShutdownTimeout = errors.New("worker shutdown timed out")

// Option applies a configuration option to a Worker.
type Option func(*Worker)

// WithName sets the worker name used in logs.
func WithName(name string) Option {
	return func(w *Worker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets the worker logger.
func WithLogger(l logger.Logger) Option {
	return func(w *Worker) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithOnError registers a callback for predictions that failed to persist.
// Duplicates already stored are not failures.
func WithOnError(fn func(ctx context.Context, p model.Prediction, err error)) Option {
	return func(w *Worker) {
		w.onError = fn
	}
}
