package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/clarkmail2001/mlb-betting-model/internal/adapters/repository"
	"github.com/clarkmail2001/mlb-betting-model/internal/domain/model"
	"github.com/clarkmail2001/mlb-betting-model/internal/domain/projection"
	"github.com/clarkmail2001/mlb-betting-model/internal/domain/weights"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// sideInput is one offense against one opposing starter.
type sideInput struct {
	pitcherID string
	lineup    []string
	season    int
	park      float64
}

type sideResult struct {
	matchups []model.MatchupResult
	// starterIP is the estimated depth of the opposing starter.
	starterIP float64
}

func newID() string { return uuid.NewString() }

// runSides evaluates both offenses concurrently and returns the first error.
func runSides(ctx context.Context, fns ...func(context.Context) error) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, fn := range fns {
		g.Go(func() error { return fn(ctx) })
	}
	return g.Wait()
}

func (s *Service) evaluateSide(ctx context.Context, in sideInput, w weights.Set) (sideResult, error) {
	pitcher, pitcherCurrent, err := s.loadBlend(ctx, model.RolePitcher, in.pitcherID, in.season)
	if err != nil {
		return sideResult{}, err
	}
	arsenal, err := s.store.Arsenal(ctx, in.pitcherID, in.season)
	if err != nil {
		return sideResult{}, err
	}

	out := sideResult{
		matchups:  make([]model.MatchupResult, 0, len(in.lineup)),
		starterIP: starterInnings(pitcher.Stats, pitcherCurrent),
	}
	for _, hitterID := range in.lineup {
		if err := ctx.Err(); err != nil {
			return sideResult{}, err
		}
		hitter, _, err := s.loadBlend(ctx, model.RoleHitter, hitterID, in.season)
		if err != nil {
			return sideResult{}, err
		}

		mi := projection.MatchupInput{Hitter: hitter.Stats, Pitcher: pitcher.Stats, ParkFactor: in.park}
		if len(arsenal) > 0 {
			splits, err := s.store.HitterVsPitch(ctx, hitterID, in.season)
			if err != nil {
				return sideResult{}, err
			}
			baseline, err := projection.Baseline(hitter.Stats)
			if err != nil {
				return sideResult{}, err
			}
			ar, err := projection.ArsenalMatchup(arsenal, splits, baseline)
			if err != nil {
				return sideResult{}, err
			}
			mi.Arsenal = &ar
		}

		m, err := projection.EvaluateMatchup(mi, w, s.league)
		if err != nil {
			return sideResult{}, fmt.Errorf("%s vs %s: %w", hitterID, in.pitcherID, err)
		}
		m.Degraded = append(m.Degraded, hitter.Degraded...)
		m.Degraded = append(m.Degraded, pitcher.Degraded...)
		out.matchups = append(out.matchups, m)
	}
	return out, nil
}

// loadBlend reads a player's current season and career and blends them. A
// player with no current season row is treated as having played zero games;
// one with no rows at all is not found.
func (s *Service) loadBlend(ctx context.Context, role model.Role, playerID string, season int) (projection.Blend, *model.PlayerRateStats, error) {
	current, err := s.store.Season(ctx, role, playerID, season)
	var found *model.PlayerRateStats
	switch {
	case err == nil:
		found = &current
	case errors.Is(err, repository.ErrNotFound):
		current = model.PlayerRateStats{PlayerID: playerID, Role: role, Season: season}
	default:
		return projection.Blend{}, nil, err
	}

	career, err := s.store.Career(ctx, role, playerID, season)
	if err != nil {
		return projection.Blend{}, nil, err
	}
	if found == nil && len(career.Years) == 0 {
		return projection.Blend{}, nil, fmt.Errorf("%w: no %s seasons for %s", repository.ErrNotFound, role, playerID)
	}

	b, err := projection.BlendSeason(career, current)
	if err != nil {
		return projection.Blend{}, nil, fmt.Errorf("%s %s: %w", role, playerID, err)
	}
	return b, found, nil
}

// starterInnings prefers the current season's workload and falls back to the
// blended line.
func starterInnings(blended model.PlayerRateStats, current *model.PlayerRateStats) float64 {
	if current != nil && current.Games > 0 {
		return projection.EstimateStarterInnings(*current)
	}
	return projection.EstimateStarterInnings(blended)
}
