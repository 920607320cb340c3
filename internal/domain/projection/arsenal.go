package projection

import (
	"fmt"

	"github.com/clarkmail2001/mlb-betting-model/internal/domain/model"
	"gonum.org/v1/gonum/stat"
)

// ArsenalResult is a pitch-mix-weighted on-base value for one matchup.
type ArsenalResult struct {
	Value float64 `json:"value"`
	// Fallbacks lists pitch types where the hitter had no split and the
	// baseline stood in.
	Fallbacks []string `json:"fallbacks,omitempty"`
	Degraded  []string `json:"degraded,omitempty"`
}

// ArsenalMatchup weights each of the pitcher's pitches by usage. A pitch's
// value is the mean of the pitcher's rate against it and the hitter's rate
// versus that pitch type, or the hitter's baseline when no split exists.
// The total is divided by the usage actually present, so partial arsenals are
// not understated. An empty arsenal returns the baseline unchanged.
func ArsenalMatchup(arsenal []model.ArsenalEntry, vsPitch []model.HitterVsPitchEntry, baseline float64) (ArsenalResult, error) {
	if !finite(baseline) {
		return ArsenalResult{}, fmt.Errorf("%w: baseline %v is not finite", ErrInvalidInput, baseline)
	}

	splits := make(map[string]float64, len(vsPitch))
	for _, e := range vsPitch {
		if !finite(e.Rate) {
			return ArsenalResult{}, fmt.Errorf("%w: hitter %s rate vs %s is not finite", ErrInvalidInput, e.HitterID, e.PitchType)
		}
		splits[e.PitchType] = e.Rate
	}

	var res ArsenalResult
	values := make([]float64, 0, len(arsenal))
	usage := make([]float64, 0, len(arsenal))
	var totalUsage float64
	for _, e := range arsenal {
		if !finite(e.UsagePct) || e.UsagePct < 0 || e.UsagePct > 100 {
			return ArsenalResult{}, fmt.Errorf("%w: pitcher %s %s usage %v outside [0,100]", ErrInvalidInput, e.PitcherID, e.PitchType, e.UsagePct)
		}
		if !finite(e.RateAgainst) {
			return ArsenalResult{}, fmt.Errorf("%w: pitcher %s rate against %s is not finite", ErrInvalidInput, e.PitcherID, e.PitchType)
		}
		hitter, ok := splits[e.PitchType]
		if !ok {
			hitter = baseline
			res.Fallbacks = append(res.Fallbacks, e.PitchType)
		}
		values = append(values, (e.RateAgainst+hitter)/2)
		usage = append(usage, e.UsagePct/100)
		totalUsage += e.UsagePct
	}

	if totalUsage == 0 {
		return ArsenalResult{Value: baseline, Degraded: []string{model.DegradedNoArsenal}}, nil
	}
	res.Value = stat.Mean(values, usage)
	if len(res.Fallbacks) > 0 {
		res.Degraded = append(res.Degraded, model.DegradedPitchFallback)
	}
	return res, nil
}
