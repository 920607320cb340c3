// Package weights holds the named coefficients consumed by the projection
// engine and the process-wide registry that serves consistent snapshots.
package weights

import (
	"fmt"
	"math"
	"sort"
	"sync/atomic"

	"github.com/clarkmail2001/mlb-betting-model/internal/domain/model"
)

// Coefficient names.
const (
	PitcherQualityFactor = "pitcher_quality_factor"
	PlatoonAdvantage     = "platoon_advantage"
	PlatoonDisadvantage  = "platoon_disadvantage"
	HighKInteraction     = "high_k_interaction"
	LowKInteraction      = "low_k_interaction"
	ParkFactorMultiplier = "park_factor_multiplier"
	WOBAToRunsMultiplier = "woba_to_runs_multiplier"
	WOBABaseline         = "woba_baseline"
	ArsenalWeight        = "arsenal_weight"
)

// defaults are the shipped coefficient values. The platoon pair is carried as
// configuration only; no formula reads it yet.
var defaults = map[string]float64{
	PitcherQualityFactor: 0.012,
	PlatoonAdvantage:     0.015,
	PlatoonDisadvantage:  -0.020,
	HighKInteraction:     -0.008,
	LowKInteraction:      0.006,
	ParkFactorMultiplier: 0.015,
	WOBAToRunsMultiplier: 4.6,
	WOBABaseline:         0.290,
	ArsenalWeight:        0.30,
}

// Set is an immutable snapshot of every coefficient. The zero value is not
// usable; build one with Defaults or New.
type Set struct {
	values map[string]float64
}

// Defaults returns the shipped coefficient set.
func Defaults() Set {
	s, _ := New(nil)
	return s
}

// Names returns every recognized coefficient name, sorted.
func Names() []string {
	names := make([]string, 0, len(defaults))
	for n := range defaults {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// New builds a Set from overrides layered on the defaults. Unknown names and
// non-finite values are rejected here so no calculation sees them.
func New(overrides map[string]float64) (Set, error) {
	values := make(map[string]float64, len(defaults))
	for k, v := range defaults {
		values[k] = v
	}
	for k, v := range overrides {
		if _, ok := defaults[k]; !ok {
			return Set{}, fmt.Errorf("%w: %w: %q", model.ErrInvalidInput, ErrUnknownWeight, k)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Set{}, fmt.Errorf("%w: %w: %q is not finite", model.ErrInvalidInput, ErrInvalidWeight, k)
		}
		values[k] = v
	}
	if values[WOBAToRunsMultiplier] <= 0 {
		return Set{}, fmt.Errorf("%w: %w: %q must be positive", model.ErrInvalidInput, ErrInvalidWeight, WOBAToRunsMultiplier)
	}
	return Set{values: values}, nil
}

// With returns a copy of s with overrides applied.
func (s Set) With(overrides map[string]float64) (Set, error) {
	merged := s.Map()
	for k, v := range overrides {
		merged[k] = v
	}
	return New(merged)
}

// Get returns the named coefficient.
func (s Set) Get(name string) (float64, bool) {
	v, ok := s.values[name]
	return v, ok
}

// Map returns a copy of every coefficient.
func (s Set) Map() map[string]float64 {
	out := make(map[string]float64, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// Validate rejects the zero Set, which would read every coefficient as 0.
// Sets built by Defaults, New or With are always valid.
func (s Set) Validate() error {
	if s.values == nil {
		return fmt.Errorf("%w: %w: empty weight set", model.ErrInvalidInput, ErrInvalidWeight)
	}
	return nil
}

func (s Set) PitcherQuality() float64      { return s.values[PitcherQualityFactor] }
func (s Set) HighK() float64               { return s.values[HighKInteraction] }
func (s Set) LowK() float64                { return s.values[LowKInteraction] }
func (s Set) ParkMultiplier() float64      { return s.values[ParkFactorMultiplier] }
func (s Set) WOBAToRuns() float64          { return s.values[WOBAToRunsMultiplier] }
func (s Set) WOBAZero() float64            { return s.values[WOBABaseline] }
func (s Set) Arsenal() float64             { return s.values[ArsenalWeight] }
func (s Set) PlatoonAdvantage() float64    { return s.values[PlatoonAdvantage] }
func (s Set) PlatoonDisadvantage() float64 { return s.values[PlatoonDisadvantage] }

// Registry serves the active Set. Readers get whole snapshots; writers swap
// the pointer, so a reader never observes a partially applied update.
type Registry struct {
	active  atomic.Pointer[Set]
	version atomic.Int64
}

// NewRegistry creates a registry seeded with initial.
func NewRegistry(initial Set) *Registry {
	r := &Registry{}
	if initial.values == nil {
		initial = Defaults()
	}
	r.active.Store(&initial)
	r.version.Store(1)
	return r
}

// Snapshot returns the active set.
func (r *Registry) Snapshot() Set {
	return *r.active.Load()
}

// Version increments on every successful replace.
func (r *Registry) Version() int64 {
	return r.version.Load()
}

// Replace validates next and makes it active.
func (r *Registry) Replace(next Set) error {
	if err := next.Validate(); err != nil {
		return err
	}
	r.active.Store(&next)
	r.version.Add(1)
	return nil
}

// Update applies overrides to the active set and swaps it in.
// Concurrent updates retry until each applies on top of the latest set.
func (r *Registry) Update(overrides map[string]float64) (Set, error) {
	for {
		cur := r.active.Load()
		next, err := cur.With(overrides)
		if err != nil {
			return Set{}, err
		}
		if r.active.CompareAndSwap(cur, &next) {
			r.version.Add(1)
			return next, nil
		}
	}
}
