// Package types holds the request and response shapes shared by the service
// and the HTTP API.
package types

import (
	"fmt"
	"strings"
	"time"

	"github.com/clarkmail2001/mlb-betting-model/internal/domain/model"
	"github.com/clarkmail2001/mlb-betting-model/internal/domain/projection"
)

// DateLayout is the accepted game date format.
const DateLayout = "2006-01-02"

// ProjectRequest identifies one game: both teams, both starters and both
// batting orders. Optional overrides replace the park lookup and the
// starter-innings estimate.
type ProjectRequest struct {
	GameDate      string   `json:"game_date"`
	Season        int      `json:"season,omitempty"`
	HomeTeam      string   `json:"home_team"`
	AwayTeam      string   `json:"away_team"`
	HomePitcherID string   `json:"home_pitcher_id"`
	AwayPitcherID string   `json:"away_pitcher_id"`
	HomeLineup    []string `json:"home_lineup"`
	AwayLineup    []string `json:"away_lineup"`
	ParkFactor    *float64 `json:"park_factor,omitempty"`
	HomeStarterIP *float64 `json:"home_starter_ip,omitempty"`
	AwayStarterIP *float64 `json:"away_starter_ip,omitempty"`
}

// Normalize trims identifiers, upper-cases team codes and fills Season from
// the game date.
func (r *ProjectRequest) Normalize() error {
	r.GameDate = strings.TrimSpace(r.GameDate)
	r.HomeTeam = strings.ToUpper(strings.TrimSpace(r.HomeTeam))
	r.AwayTeam = strings.ToUpper(strings.TrimSpace(r.AwayTeam))
	r.HomePitcherID = strings.TrimSpace(r.HomePitcherID)
	r.AwayPitcherID = strings.TrimSpace(r.AwayPitcherID)
	for i := range r.HomeLineup {
		r.HomeLineup[i] = strings.TrimSpace(r.HomeLineup[i])
	}
	for i := range r.AwayLineup {
		r.AwayLineup[i] = strings.TrimSpace(r.AwayLineup[i])
	}

	date, err := time.Parse(DateLayout, r.GameDate)
	if err != nil {
		return fmt.Errorf("%w: game_date %q must be YYYY-MM-DD", model.ErrInvalidInput, r.GameDate)
	}
	if r.Season == 0 {
		r.Season = date.Year()
	}
	return r.Validate()
}

// Validate checks required fields.
func (r *ProjectRequest) Validate() error {
	required := map[string]string{
		"home_team":       r.HomeTeam,
		"away_team":       r.AwayTeam,
		"home_pitcher_id": r.HomePitcherID,
		"away_pitcher_id": r.AwayPitcherID,
	}
	for name, v := range required {
		if v == "" {
			return fmt.Errorf("%w: %s is required", model.ErrInvalidInput, name)
		}
	}
	if r.HomeTeam == r.AwayTeam {
		return fmt.Errorf("%w: home and away team are both %s", model.ErrInvalidInput, r.HomeTeam)
	}
	if r.Season <= 0 {
		return fmt.Errorf("%w: season must be positive", model.ErrInvalidInput)
	}
	for side, lineup := range map[string][]string{"home_lineup": r.HomeLineup, "away_lineup": r.AwayLineup} {
		if len(lineup) != projection.LineupSize {
			return fmt.Errorf("%w: %s has %d hitters, want %d", model.ErrInvalidInput, side, len(lineup), projection.LineupSize)
		}
		for i, id := range lineup {
			if id == "" {
				return fmt.Errorf("%w: %s slot %d is empty", model.ErrInvalidInput, side, i+1)
			}
		}
	}
	return nil
}

// GameKey identifies the game for deduplication of saved predictions.
func (r *ProjectRequest) GameKey() string {
	return fmt.Sprintf("%s:%s@%s", r.GameDate, r.AwayTeam, r.HomeTeam)
}

// NewPrediction builds the history record for a projected game. Team A is
// the home offense.
func NewPrediction(r *ProjectRequest, g model.GameProjection) model.Prediction {
	return model.Prediction{
		ID:            g.ID,
		GameKey:       r.GameKey(),
		GameDate:      r.GameDate,
		HomeTeam:      r.HomeTeam,
		AwayTeam:      r.AwayTeam,
		HomePitcherID: r.HomePitcherID,
		AwayPitcherID: r.AwayPitcherID,
		F5Home:        g.TeamA.F5Runs,
		F5Away:        g.TeamB.F5Runs,
		FullHome:      g.TeamA.FullRuns,
		FullAway:      g.TeamB.FullRuns,
		CreatedAt:     g.CreatedAt,
	}
}

// WeightsResponse reports the active coefficient set.
type WeightsResponse struct {
	Version int64              `json:"version"`
	Weights map[string]float64 `json:"weights"`
}

// ResultRequest carries a final score.
type ResultRequest struct {
	Home *int `json:"home"`
	Away *int `json:"away"`
}

// Validate requires both scores.
func (r ResultRequest) Validate() error {
	if r.Home == nil || r.Away == nil {
		return fmt.Errorf("%w: home and away scores are required", model.ErrInvalidInput)
	}
	if *r.Home < 0 || *r.Away < 0 {
		return fmt.Errorf("%w: scores must not be negative", model.ErrInvalidInput)
	}
	return nil
}

// ArsenalRequest replaces a pitcher's pitch mix for a season.
type ArsenalRequest struct {
	Pitches []model.ArsenalEntry `json:"pitches"`
}

// SplitsRequest replaces a hitter's pitch-type splits for a season.
type SplitsRequest struct {
	Splits []model.HitterVsPitchEntry `json:"splits"`
}
