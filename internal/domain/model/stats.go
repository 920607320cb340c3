// Package model contains the statistic records and projection results passed
// between the store, the projection engine and the HTTP layer.
package model

import (
	"fmt"
	"math"
)

// Role distinguishes pitchers from hitters.
type Role string

const (
	RolePitcher Role = "pitcher"
	RoleHitter  Role = "hitter"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RolePitcher || r == RoleHitter
}

// Rate statistic keys. Strikeout and walk rates for hitters are percentages
// (28 means 28%); k9 and bb9 are per nine innings.
const (
	StatWOBA       = "woba"
	StatXWOBA      = "xwoba"
	StatKRate      = "k_rate"
	StatBBRate     = "bb_rate"
	StatERA        = "era"
	StatXFIP       = "xfip"
	StatK9         = "k9"
	StatBB9        = "bb9"
	StatIPPerStart = "ip_per_start"
	StatGS         = "gs"
)

// RequiredStats lists the rates the projection engine cannot run without.
func RequiredStats(r Role) []string {
	switch r {
	case RoleHitter:
		return []string{StatWOBA, StatXWOBA, StatKRate}
	case RolePitcher:
		return []string{StatXFIP, StatK9}
	default:
		return nil
	}
}

// PlayerRateStats is one player's rate statistics for one season.
// SampleSize is plate appearances for hitters and innings pitched for pitchers.
type PlayerRateStats struct {
	PlayerID   string             `json:"player_id"`
	Role       Role               `json:"role"`
	Season     int                `json:"season"`
	Games      int                `json:"games"`
	SampleSize float64            `json:"sample_size"`
	Stats      map[string]float64 `json:"stats"`
}

// Rate returns the named statistic or an ErrInvalidInput naming the field.
func (p PlayerRateStats) Rate(key string) (float64, error) {
	v, ok := p.Stats[key]
	if !ok {
		return 0, fmt.Errorf("%w: player %s season %d missing %q", ErrInvalidInput, p.PlayerID, p.Season, key)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: player %s season %d has non-finite %q", ErrInvalidInput, p.PlayerID, p.Season, key)
	}
	return v, nil
}

// HasRate reports whether key is present.
func (p PlayerRateStats) HasRate(key string) bool {
	_, ok := p.Stats[key]
	return ok
}

// RequireRates checks that every required stat for the record's role is present.
func (p PlayerRateStats) RequireRates() error {
	for _, key := range RequiredStats(p.Role) {
		if _, err := p.Rate(key); err != nil {
			return err
		}
	}
	return nil
}

// MaxCareerYears bounds the number of prior seasons used for a baseline.
const MaxCareerYears = 4

// CareerProfile holds up to four prior seasons, most recent first.
type CareerProfile struct {
	PlayerID string            `json:"player_id"`
	Years    []PlayerRateStats `json:"years"`
}

// Validate enforces the ordering invariant: distinct seasons, strictly descending.
func (c CareerProfile) Validate() error {
	if len(c.Years) > MaxCareerYears {
		return fmt.Errorf("%w: career profile for %s has %d years (max %d)", ErrInvalidInput, c.PlayerID, len(c.Years), MaxCareerYears)
	}
	for i := 1; i < len(c.Years); i++ {
		if c.Years[i].Season >= c.Years[i-1].Season {
			return fmt.Errorf("%w: career profile for %s not sorted by season descending", ErrInvalidInput, c.PlayerID)
		}
	}
	return nil
}

// ArsenalEntry is one pitch type in a pitcher's mix.
type ArsenalEntry struct {
	PitcherID   string  `json:"pitcher_id"`
	PitchType   string  `json:"pitch_type"`
	UsagePct    float64 `json:"usage_pct"`
	RateAgainst float64 `json:"rate_against"`
}

// HitterVsPitchEntry is a hitter's rate against one pitch type.
type HitterVsPitchEntry struct {
	HitterID  string  `json:"hitter_id"`
	PitchType string  `json:"pitch_type"`
	Rate      float64 `json:"rate"`
}

// ParkProfile carries a venue's run-environment multiplier centered at 1.0.
type ParkProfile struct {
	TeamID string  `json:"team_id"`
	Name   string  `json:"name"`
	League string  `json:"league,omitempty"`
	Factor float64 `json:"park_factor"`
}
