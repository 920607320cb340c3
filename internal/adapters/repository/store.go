// Package repository persists player stats, model weights and predictions.
package repository

import (
	"context"

	"github.com/clarkmail2001/mlb-betting-model/internal/domain/model"
)

// MaxPredictionLimit caps Predictions(limit).
const MaxPredictionLimit = 500

// StatsStore reads and writes the per-season inputs the engine consumes.
type StatsStore interface {
	PutSeason(ctx context.Context, s model.PlayerRateStats) error
	// Season returns one season. ErrNotFound if absent.
	Season(ctx context.Context, role model.Role, playerID string, season int) (model.PlayerRateStats, error)
	// Career returns up to four seasons before the given one, most recent first.
	Career(ctx context.Context, role model.Role, playerID string, before int) (model.CareerProfile, error)

	PutArsenal(ctx context.Context, pitcherID string, season int, entries []model.ArsenalEntry) error
	Arsenal(ctx context.Context, pitcherID string, season int) ([]model.ArsenalEntry, error)
	PutHitterVsPitch(ctx context.Context, hitterID string, season int, entries []model.HitterVsPitchEntry) error
	HitterVsPitch(ctx context.Context, hitterID string, season int) ([]model.HitterVsPitchEntry, error)

	// Park returns ErrNotFound for an unknown team.
	Park(ctx context.Context, teamID string) (model.ParkProfile, error)
	Parks(ctx context.Context) ([]model.ParkProfile, error)
}

// WeightStore persists model coefficient overrides.
type WeightStore interface {
	LoadWeights(ctx context.Context) (map[string]float64, error)
	SaveWeights(ctx context.Context, values map[string]float64) error
}

// PredictionStore keeps the projection history.
type PredictionStore interface {
	// SavePrediction returns ErrDuplicate when the game key was already saved.
	SavePrediction(ctx context.Context, p model.Prediction) error
	Prediction(ctx context.Context, id string) (model.Prediction, error)
	Predictions(ctx context.Context, limit int) ([]model.Prediction, error)
	RecordResult(ctx context.Context, id string, home, away int) (model.Prediction, error)
}

// Store is everything the service needs from persistence.
type Store interface {
	StatsStore
	WeightStore
	PredictionStore
	Close() error
}
