// Package projection is the run-projection engine: season blending, pitch
// arsenal matchups, per-plate-appearance evaluation and lineup aggregation.
//
// Every function here is a pure computation over its arguments. Weight sets
// and league constants are passed in explicitly; nothing is read from global
// state, so concurrent projections need no coordination.
package projection

import (
	"fmt"
	"math"
)

// League carries league-wide reference values.
type League struct {
	// WOBA is the league-average on-base figure.
	WOBA float64
	// XFIP is the league-average expected fielding-independent rate.
	XFIP float64
	// PAPerInning is plate appearances per half inning.
	PAPerInning float64
	// RunsPerGame is runs scored per team per nine innings.
	RunsPerGame float64
}

// DefaultLeague returns the reference values the model was tuned against.
func DefaultLeague() League {
	return League{
		WOBA:        0.315,
		XFIP:        4.10,
		PAPerInning: 4.3,
		RunsPerGame: 4.5,
	}
}

// Validate rejects non-finite or non-positive reference values.
func (l League) Validate() error {
	for name, v := range map[string]float64{
		"woba":          l.WOBA,
		"xfip":          l.XFIP,
		"pa_per_inning": l.PAPerInning,
		"runs_per_game": l.RunsPerGame,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			return fmt.Errorf("%w: league %s must be a positive number, got %v", ErrInvalidInput, name, v)
		}
	}
	return nil
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
