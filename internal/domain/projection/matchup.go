package projection

import (
	"fmt"

	"github.com/clarkmail2001/mlb-betting-model/internal/domain/model"
	"github.com/clarkmail2001/mlb-betting-model/internal/domain/weights"
)

// Rate and run bounds. A projected rate outside this band is not a
// believable matchup estimate.
const (
	MinRate      = 0.250
	MaxRate      = 0.420
	MinRunsPerPA = 0.05
	MaxRunsPerPA = 0.18
)

// Advantage thresholds on the final rate.
const (
	hitterAdvantageRate  = 0.340
	pitcherAdvantageRate = 0.290
)

// MatchupInput is one hitter against one pitcher in one park. Both stat
// records are blended baselines. A nil Arsenal means no pitch-mix data, in
// which case the arsenal term is zero.
type MatchupInput struct {
	Hitter     model.PlayerRateStats
	Pitcher    model.PlayerRateStats
	Arsenal    *ArsenalResult
	ParkFactor float64
}

// Baseline is the mean of the hitter's on-base and expected on-base rates.
func Baseline(hitter model.PlayerRateStats) (float64, error) {
	woba, err := hitter.Rate(model.StatWOBA)
	if err != nil {
		return 0, err
	}
	xwoba, err := hitter.Rate(model.StatXWOBA)
	if err != nil {
		return 0, err
	}
	return (woba + xwoba) / 2, nil
}

// EvaluateMatchup computes each adjustment against the baseline, sums them
// once, clamps the total, and converts it to runs per plate appearance.
func EvaluateMatchup(in MatchupInput, w weights.Set, league League) (model.MatchupResult, error) {
	if err := w.Validate(); err != nil {
		return model.MatchupResult{}, err
	}
	if !finite(in.ParkFactor) || in.ParkFactor <= 0 {
		return model.MatchupResult{}, fmt.Errorf("%w: park factor %v must be positive", ErrInvalidInput, in.ParkFactor)
	}
	baseline, err := Baseline(in.Hitter)
	if err != nil {
		return model.MatchupResult{}, err
	}
	hitterK, err := in.Hitter.Rate(model.StatKRate)
	if err != nil {
		return model.MatchupResult{}, err
	}
	pitcherXFIP, err := in.Pitcher.Rate(model.StatXFIP)
	if err != nil {
		return model.MatchupResult{}, err
	}
	pitcherK9, err := in.Pitcher.Rate(model.StatK9)
	if err != nil {
		return model.MatchupResult{}, err
	}

	res := model.MatchupResult{
		PitcherID:    in.Pitcher.PlayerID,
		HitterID:     in.Hitter.PlayerID,
		Baseline:     baseline,
		ArsenalValue: baseline,
	}
	if in.Arsenal != nil {
		res.ArsenalValue = in.Arsenal.Value
		res.Degraded = append(res.Degraded, in.Arsenal.Degraded...)
	} else {
		res.Degraded = append(res.Degraded, model.DegradedNoArsenal)
	}

	res.ArsenalAdj = (res.ArsenalValue - baseline) * w.Arsenal()
	// An xFIP above league average makes this term negative.
	res.PitcherAdj = (league.XFIP - pitcherXFIP) * w.PitcherQuality()
	res.KInteraction = ClassifyK(pitcherK9, hitterK)
	res.KAdj = KAdjustment(res.KInteraction, w)
	res.ParkAdj = (in.ParkFactor - 1.0) * w.ParkMultiplier()

	raw := baseline + res.ArsenalAdj + res.PitcherAdj + res.KAdj + res.ParkAdj
	res.FinalRate = clamp(raw, MinRate, MaxRate)
	res.RunsPerPA = clamp((res.FinalRate-w.WOBAZero())*w.WOBAToRuns(), MinRunsPerPA, MaxRunsPerPA)
	res.Advantage = advantage(res.FinalRate)
	return res, nil
}

func advantage(rate float64) model.Advantage {
	switch {
	case rate > hitterAdvantageRate:
		return model.AdvantageHitter
	case rate < pitcherAdvantageRate:
		return model.AdvantagePitcher
	default:
		return model.AdvantageNeutral
	}
}
