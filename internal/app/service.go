// Package service loads player data, runs the projection engine and keeps the
// prediction history. It implements the dependencies of the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/clarkmail2001/mlb-betting-model/internal/adapters/mq/queue"
	"github.com/clarkmail2001/mlb-betting-model/internal/adapters/mq/worker"
	"github.com/clarkmail2001/mlb-betting-model/internal/adapters/repository"
	"github.com/clarkmail2001/mlb-betting-model/internal/domain/dedupe"
	"github.com/clarkmail2001/mlb-betting-model/internal/domain/model"
	"github.com/clarkmail2001/mlb-betting-model/internal/domain/projection"
	"github.com/clarkmail2001/mlb-betting-model/internal/domain/types"
	"github.com/clarkmail2001/mlb-betting-model/internal/domain/weights"
	"github.com/clarkmail2001/mlb-betting-model/pkg/logger"
	"github.com/clarkmail2001/mlb-betting-model/pkg/metrics"
)

// Service implements the API dependencies for the projection system.
type Service struct {
	mu sync.RWMutex

	store    repository.Store
	registry *weights.Registry
	league   projection.League

	deduper dedupe.Deduper
	queue   *queue.InMemoryQueue
	pool    *worker.Pool

	workerCount int
	queueSize   int
	dedupeSize  int

	// weightsMu serializes persisted weight updates.
	weightsMu sync.Mutex

	started bool
	now     func() time.Time
	logger  logger.Logger
}

// New constructs a Service. WithStore is required before Start.
func New(opts ...Option) *Service {
	s := &Service{
		league:      projection.DefaultLeague(),
		workerCount: runtime.NumCPU(),
		queueSize:   1024,
		dedupeSize:  10_000,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry == nil {
		s.registry = weights.NewRegistry(weights.Defaults())
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	return s
}

// Start creates the prediction queue and worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.store == nil {
		return ErrNoStore
	}
	if err := s.league.Validate(); err != nil {
		return err
	}

	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	deduper := s.deduper
	s.pool = worker.NewPool(s.workerCount, s.queue, s.store,
		worker.WithLogger(s.logger.Named("writer")),
		// A failed write frees the game key so the client can resubmit.
		worker.WithOnError(func(ctx context.Context, p model.Prediction, _ error) {
			deduper.Unrecord(ctx, p.GameKey)
		}),
	)
	s.pool.Start(ctx)

	s.started = true
	metrics.RecordWeightUpdate(s.registry.Version())
	s.logger.Info(ctx, "projection service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queue_size", s.queueSize),
		logger.Int("dedupe_size", s.dedupeSize),
		logger.Int64("weights_version", s.registry.Version()),
	)
	return nil
}

// Stop drains pending predictions and stops the workers. Predictions
// accepted before Stop are written even if the Start context was cancelled.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	start := time.Now()
	s.logger.Info(ctx, "stopping projection service", logger.Int("pending", s.queue.Len()))
	err := s.pool.Shutdown(ctx)
	s.started = false
	s.logger.Info(ctx, "projection service stopped",
		logger.Bool("drained", err == nil),
		logger.Duration("elapsed", time.Since(start)),
	)
	return err
}

// ProjectGame projects both offenses of one game. One weight snapshot is
// taken per call and used for every matchup in it.
func (s *Service) ProjectGame(ctx context.Context, req types.ProjectRequest) (model.GameProjection, error) {
	start := time.Now()
	g, err := s.projectGame(ctx, &req)
	if err != nil {
		metrics.RecordProjectionError(errorReason(err))
		return model.GameProjection{}, err
	}
	elapsed := time.Since(start)
	metrics.RecordProjection(float64(elapsed.Microseconds()) / 1000)
	s.logger.Debug(ctx, "projection latency", logger.String("projection_id", g.ID), logger.Duration("elapsed", elapsed))
	return g, nil
}

func (s *Service) projectGame(ctx context.Context, req *types.ProjectRequest) (model.GameProjection, error) {
	if s.store == nil {
		return model.GameProjection{}, ErrNoStore
	}
	if err := req.Normalize(); err != nil {
		return model.GameProjection{}, err
	}
	w := s.registry.Snapshot()

	park, err := s.parkFactor(ctx, req)
	if err != nil {
		return model.GameProjection{}, err
	}

	// Home hitters face the away starter and vice versa.
	home := sideInput{pitcherID: req.AwayPitcherID, lineup: req.HomeLineup, season: req.Season, park: park}
	away := sideInput{pitcherID: req.HomePitcherID, lineup: req.AwayLineup, season: req.Season, park: park}
	var homeOut, awayOut sideResult
	if err := runSides(ctx,
		func(ctx context.Context) (err error) { homeOut, err = s.evaluateSide(ctx, home, w); return err },
		func(ctx context.Context) (err error) { awayOut, err = s.evaluateSide(ctx, away, w); return err },
	); err != nil {
		return model.GameProjection{}, err
	}

	homeStarterIP := awayOut.starterIP
	if req.HomeStarterIP != nil {
		homeStarterIP = *req.HomeStarterIP
	}
	awayStarterIP := homeOut.starterIP
	if req.AwayStarterIP != nil {
		awayStarterIP = *req.AwayStarterIP
	}

	g, err := projection.ProjectGame(projection.GameInput{
		TeamA:      req.HomeTeam,
		TeamB:      req.AwayTeam,
		LineupA:    homeOut.matchups,
		LineupB:    awayOut.matchups,
		StarterAIP: homeStarterIP,
		StarterBIP: awayStarterIP,
		ParkFactor: park,
	}, s.league)
	if err != nil {
		return model.GameProjection{}, err
	}
	g.ID = newID()
	g.CreatedAt = s.now().UTC()

	s.recordDegraded(ctx, g)
	s.logger.Debug(ctx, "projected game",
		logger.String("projection_id", g.ID),
		logger.String("game", req.GameKey()),
		logger.Float64("f5_total", g.F5Total),
		logger.Float64("full_total", g.FullTotal),
	)
	return g, nil
}

func (s *Service) parkFactor(ctx context.Context, req *types.ProjectRequest) (float64, error) {
	if req.ParkFactor != nil {
		return *req.ParkFactor, nil
	}
	p, err := s.store.Park(ctx, req.HomeTeam)
	if err != nil {
		return 0, err
	}
	return p.Factor, nil
}

func (s *Service) recordDegraded(ctx context.Context, g model.GameProjection) {
	var n int
	for _, team := range []model.TeamProjection{g.TeamA, g.TeamB} {
		for _, slot := range team.Slots {
			n++
			for _, note := range slot.Matchup.Degraded {
				metrics.RecordDegraded(note)
				s.logger.Debug(ctx, "degraded input",
					logger.String("kind", note),
					logger.String("hitter_id", slot.Matchup.HitterID),
					logger.String("pitcher_id", slot.Matchup.PitcherID),
				)
			}
		}
	}
	metrics.RecordMatchups(n)
}

// SubmitPrediction projects a game and queues it for the history store.
// A game already submitted returns ErrDuplicate.
func (s *Service) SubmitPrediction(ctx context.Context, req types.ProjectRequest) (model.Prediction, error) {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()
	if !started {
		return model.Prediction{}, fmt.Errorf("%w: %w", ErrNotStarted, queue.ErrClosed)
	}

	g, err := s.ProjectGame(ctx, req)
	if err != nil {
		return model.Prediction{}, err
	}
	if err := req.Normalize(); err != nil {
		return model.Prediction{}, err
	}
	p := types.NewPrediction(&req, g)

	if s.deduper.SeenAndRecord(ctx, p.GameKey) {
		metrics.RecordPredictionDuplicate()
		return model.Prediction{}, fmt.Errorf("%w: %w: %s", ErrDuplicate, repository.ErrDuplicate, p.GameKey)
	}
	if err := s.queue.Enqueue(ctx, p); err != nil {
		s.deduper.Unrecord(ctx, p.GameKey)
		if errors.Is(err, queue.ErrFull) {
			return model.Prediction{}, fmt.Errorf("%w: %w", ErrBackpressure, err)
		}
		return model.Prediction{}, err
	}
	return p, nil
}

// Predictions returns the newest saved predictions.
func (s *Service) Predictions(ctx context.Context, limit int) ([]model.Prediction, error) {
	return s.store.Predictions(ctx, limit)
}

// Prediction returns one saved prediction.
func (s *Service) Prediction(ctx context.Context, id string) (model.Prediction, error) {
	return s.store.Prediction(ctx, id)
}

// RecordResult attaches the final score to a saved prediction.
func (s *Service) RecordResult(ctx context.Context, id string, home, away int) (model.Prediction, error) {
	p, err := s.store.RecordResult(ctx, id, home, away)
	if err != nil {
		return model.Prediction{}, err
	}
	metrics.RecordResult()
	s.logger.Info(ctx, "recorded result",
		logger.String("prediction_id", id),
		logger.Float64("projected_total", p.FullTotal()),
		logger.Int("actual_total", home+away),
	)
	return p, nil
}

// Weights returns the active coefficient set.
func (s *Service) Weights() types.WeightsResponse {
	return types.WeightsResponse{Version: s.registry.Version(), Weights: s.registry.Snapshot().Map()}
}

// UpdateWeights merges overrides into the active set, persists the result
// and swaps it in. Projections already running keep their snapshot.
func (s *Service) UpdateWeights(ctx context.Context, overrides map[string]float64) (types.WeightsResponse, error) {
	s.weightsMu.Lock()
	defer s.weightsMu.Unlock()

	next, err := s.registry.Snapshot().With(overrides)
	if err != nil {
		return types.WeightsResponse{}, err
	}
	if s.store != nil {
		if err := s.store.SaveWeights(ctx, next.Map()); err != nil {
			return types.WeightsResponse{}, err
		}
	}
	if err := s.registry.Replace(next); err != nil {
		return types.WeightsResponse{}, err
	}
	metrics.RecordWeightUpdate(s.registry.Version())
	s.logger.Info(ctx, "weights updated", logger.Int64("version", s.registry.Version()), logger.Any("overrides", overrides))
	return s.Weights(), nil
}

// Parks lists every park.
func (s *Service) Parks(ctx context.Context) ([]model.ParkProfile, error) {
	return s.store.Parks(ctx)
}

// PutSeason stores one player season.
func (s *Service) PutSeason(ctx context.Context, st model.PlayerRateStats) error {
	if !st.Role.Valid() {
		return fmt.Errorf("%w: role %q", model.ErrInvalidInput, st.Role)
	}
	if st.Games < 0 || st.Games > projection.MaxGames {
		return fmt.Errorf("%w: games %d outside [0,%d]", model.ErrInvalidInput, st.Games, projection.MaxGames)
	}
	if st.Games > 0 {
		if err := st.RequireRates(); err != nil {
			return err
		}
	}
	return s.store.PutSeason(ctx, st)
}

// PutArsenal replaces a pitcher's pitch mix. The mix is validated the same
// way a projection would read it.
func (s *Service) PutArsenal(ctx context.Context, pitcherID string, season int, pitches []model.ArsenalEntry) error {
	if _, err := projection.ArsenalMatchup(pitches, nil, 0); err != nil {
		return err
	}
	return s.store.PutArsenal(ctx, pitcherID, season, pitches)
}

// PutHitterVsPitch replaces a hitter's pitch-type splits.
func (s *Service) PutHitterVsPitch(ctx context.Context, hitterID string, season int, splits []model.HitterVsPitchEntry) error {
	if _, err := projection.ArsenalMatchup(nil, splits, 0); err != nil {
		return err
	}
	return s.store.PutHitterVsPitch(ctx, hitterID, season, splits)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":         s.started,
		"workerCount":     s.workerCount,
		"queueSize":       s.queueSize,
		"dedupeSize":      s.dedupeSize,
		"weightsVersion":  s.registry.Version(),
		"leagueWOBA":      s.league.WOBA,
		"leagueRunsPerGm": s.league.RunsPerGame,
	}
	if s.started {
		stats["queueLength"] = s.queue.Len()
		stats["recentGames"] = s.deduper.Size()
		metrics.UpdateQueueSize(s.queue.Len())
	}
	return stats
}

func errorReason(err error) string {
	switch {
	case errors.Is(err, model.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, repository.ErrNotFound):
		return "not_found"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "internal"
	}
}
