package projection

import (
	"github.com/clarkmail2001/mlb-betting-model/internal/domain/model"
	"github.com/clarkmail2001/mlb-betting-model/internal/domain/weights"
)

// Strikeout interaction thresholds. These are fixed policy, not weights.
const (
	HighKPitcherK9   = 10.0
	HighKHitterKRate = 25.0
	LowKPitcherK9    = 7.0
	LowKHitterKRate  = 18.0
)

// ClassifyK resolves the strikeout matchup category once per matchup.
// hitterKRate is a percentage.
func ClassifyK(pitcherK9, hitterKRate float64) model.KInteraction {
	switch {
	case pitcherK9 > HighKPitcherK9 && hitterKRate > HighKHitterKRate:
		return model.KHigh
	case pitcherK9 < LowKPitcherK9 && hitterKRate < LowKHitterKRate:
		return model.KLow
	default:
		return model.KNeutral
	}
}

// KAdjustment maps a category to its coefficient.
func KAdjustment(k model.KInteraction, w weights.Set) float64 {
	switch k {
	case model.KHigh:
		return w.HighK()
	case model.KLow:
		return w.LowK()
	default:
		return 0
	}
}
