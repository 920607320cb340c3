package service

import (
	"time"

	"github.com/clarkmail2001/mlb-betting-model/internal/adapters/repository"
	"github.com/clarkmail2001/mlb-betting-model/internal/domain/projection"
	"github.com/clarkmail2001/mlb-betting-model/internal/domain/weights"
	"github.com/clarkmail2001/mlb-betting-model/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the persistence layer. Required.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithRegistry sets the weight registry. Defaults to the shipped coefficients.
func WithRegistry(r *weights.Registry) Option {
	return func(s *Service) {
		if r != nil {
			s.registry = r
		}
	}
}

// WithLeague sets the league averages.
func WithLeague(l projection.League) Option {
	return func(s *Service) {
		s.league = l
	}
}

// WithWorkerCount sets the number of prediction writers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of predictions waiting to be written.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many recent game keys are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the time source for projection timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}
