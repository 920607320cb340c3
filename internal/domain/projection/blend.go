package projection

import (
	"fmt"
	"sort"

	"github.com/clarkmail2001/mlb-betting-model/internal/domain/model"
	"gonum.org/v1/gonum/stat"
)

// careerYearWeights weight prior seasons, most recent first. Missing years
// give their share to the present ones in proportion.
var careerYearWeights = [model.MaxCareerYears]float64{0.50, 0.25, 0.15, 0.10}

// RecordWeight is the share one season contributed to a blend.
type RecordWeight struct {
	Season  int     `json:"season"`
	Current bool    `json:"current"`
	Weight  float64 `json:"weight"`
}

// Blend is a player's blended baseline.
type Blend struct {
	Stats   model.PlayerRateStats `json:"stats"`
	Stage   SeasonStage           `json:"stage"`
	Weights []RecordWeight        `json:"weights"`
	// SampleSize is the raw current-season sample; it is never blended.
	SampleSize float64  `json:"sample_size"`
	Degraded   []string `json:"degraded,omitempty"`
}

// TotalWeight sums the record weights. It is 1 for every successful blend.
func (b Blend) TotalWeight() float64 {
	var sum float64
	for _, w := range b.Weights {
		sum += w.Weight
	}
	return sum
}

// BlendSeason combines a player's prior seasons with the current partial
// season. The current season's share follows the games-played stage; the
// career share is spread over the prior years by careerYearWeights.
func BlendSeason(career model.CareerProfile, current model.PlayerRateStats) (Blend, error) {
	if !current.Role.Valid() {
		return Blend{}, fmt.Errorf("%w: player %s has unknown role %q", ErrInvalidInput, current.PlayerID, current.Role)
	}
	if err := career.Validate(); err != nil {
		return Blend{}, err
	}
	stage, err := StageFor(current.Games)
	if err != nil {
		return Blend{}, fmt.Errorf("player %s: %w", current.PlayerID, err)
	}
	currentWeight, err := CurrentWeight(current.Games)
	if err != nil {
		return Blend{}, err
	}

	out := Blend{Stage: stage, SampleSize: current.SampleSize}

	records := make([]model.PlayerRateStats, 0, len(career.Years)+1)
	weights := make([]float64, 0, len(career.Years)+1)

	if len(career.Years) == 0 {
		currentWeight = 1
		out.Degraded = append(out.Degraded, model.DegradedNoCareerYears)
	} else if len(career.Years) < model.MaxCareerYears {
		out.Degraded = append(out.Degraded, model.DegradedPartialCareer)
	}

	if currentWeight > 0 {
		records = append(records, current)
		weights = append(weights, currentWeight)
		out.Weights = append(out.Weights, RecordWeight{Season: current.Season, Current: true, Weight: currentWeight})
	} else {
		out.Degraded = append(out.Degraded, model.DegradedNoCurrentGames)
	}

	var present float64
	for i := range career.Years {
		present += careerYearWeights[i]
	}
	for i, year := range career.Years {
		if year.Role != current.Role {
			return Blend{}, fmt.Errorf("%w: player %s season %d role %q does not match %q",
				ErrInvalidInput, current.PlayerID, year.Season, year.Role, current.Role)
		}
		w := (1 - currentWeight) * careerYearWeights[i] / present
		records = append(records, year)
		weights = append(weights, w)
		out.Weights = append(out.Weights, RecordWeight{Season: year.Season, Weight: w})
	}

	for _, rec := range records {
		if err := rec.RequireRates(); err != nil {
			return Blend{}, err
		}
	}

	stats := make(map[string]float64)
	for _, key := range statKeys(records) {
		var xs, ws []float64
		for i, rec := range records {
			v, ok := rec.Stats[key]
			if !ok || !finite(v) {
				continue
			}
			xs = append(xs, v)
			ws = append(ws, weights[i])
		}
		if len(xs) == 0 {
			continue
		}
		stats[key] = stat.Mean(xs, ws)
	}

	out.Stats = model.PlayerRateStats{
		PlayerID:   current.PlayerID,
		Role:       current.Role,
		Season:     current.Season,
		Games:      current.Games,
		SampleSize: current.SampleSize,
		Stats:      stats,
	}
	return out, nil
}

// statKeys is the sorted union of stat names across records.
func statKeys(records []model.PlayerRateStats) []string {
	seen := make(map[string]struct{})
	for _, rec := range records {
		for k := range rec.Stats {
			seen[k] = struct{}{}
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
