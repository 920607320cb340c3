package model

import "time"

// KInteraction is the resolved strikeout-rate matchup category.
type KInteraction string

const (
	KNeutral KInteraction = "neutral"
	KHigh    KInteraction = "high_k"
	KLow     KInteraction = "low_k"
)

// Advantage labels which side a projected rate favors.
type Advantage string

const (
	AdvantageHitter  Advantage = "hitter"
	AdvantagePitcher Advantage = "pitcher"
	AdvantageNeutral Advantage = "neutral"
)

// Degraded-data notes attached to results. They describe fallbacks, not failures.
const (
	DegradedNoArsenal      = "no_arsenal"
	DegradedPitchFallback  = "hitter_pitch_fallback"
	DegradedNoCareerYears  = "no_career_years"
	DegradedPartialCareer  = "partial_career"
	DegradedNoCurrentGames = "no_current_games"
)

// MatchupResult is one hitter's projection against one pitcher.
type MatchupResult struct {
	PitcherID    string       `json:"pitcher_id"`
	HitterID     string       `json:"hitter_id"`
	Baseline     float64      `json:"baseline"`
	ArsenalValue float64      `json:"arsenal_value"`
	ArsenalAdj   float64      `json:"arsenal_adj"`
	PitcherAdj   float64      `json:"pitcher_adj"`
	KInteraction KInteraction `json:"k_interaction"`
	KAdj         float64      `json:"k_adj"`
	ParkAdj      float64      `json:"park_adj"`
	FinalRate    float64      `json:"final_rate"`
	RunsPerPA    float64      `json:"runs_per_pa"`
	Advantage    Advantage    `json:"advantage"`
	Degraded     []string     `json:"degraded,omitempty"`
}

// SlotResult places a matchup in the batting order with its plate-appearance share.
type SlotResult struct {
	Slot         int           `json:"slot"`
	PAShare      float64       `json:"pa_share"`
	ExpectedPA   float64       `json:"expected_pa"`
	ExpectedRuns float64       `json:"expected_runs"`
	Matchup      MatchupResult `json:"matchup"`
}

// Confidence is a declared policy band, not a fitted interval.
type Confidence struct {
	Percent float64 `json:"percent"`
	Band    float64 `json:"band"`
	Low     float64 `json:"low"`
	High    float64 `json:"high"`
}

// TeamProjection is one offense's projected runs.
type TeamProjection struct {
	TeamID            string       `json:"team_id"`
	Slots             []SlotResult `json:"slots"`
	F5Runs            float64      `json:"f5_runs"`
	StarterRuns       float64      `json:"starter_runs"`
	BullpenRuns       float64      `json:"bullpen_runs"`
	FullRuns          float64      `json:"full_runs"`
	OpposingStarterIP float64      `json:"opposing_starter_ip"`
	F5Confidence      Confidence   `json:"f5_confidence"`
	FullConfidence    Confidence   `json:"full_confidence"`
}

// GameProjection is the full result of one projection request.
type GameProjection struct {
	ID         string         `json:"id"`
	TeamA      TeamProjection `json:"team_a"`
	TeamB      TeamProjection `json:"team_b"`
	ParkFactor float64        `json:"park_factor"`
	F5Total    float64        `json:"f5_total"`
	FullTotal  float64        `json:"full_total"`
	CreatedAt  time.Time      `json:"created_at"`
}

// Prediction is a saved projection awaiting (or holding) the actual result.
type Prediction struct {
	ID            string    `json:"id"`
	GameKey       string    `json:"game_key"`
	GameDate      string    `json:"game_date"`
	HomeTeam      string    `json:"home_team"`
	AwayTeam      string    `json:"away_team"`
	HomePitcherID string    `json:"home_pitcher_id"`
	AwayPitcherID string    `json:"away_pitcher_id"`
	F5Home        float64   `json:"f5_home"`
	F5Away        float64   `json:"f5_away"`
	FullHome      float64   `json:"full_home"`
	FullAway      float64   `json:"full_away"`
	ActualHome    *int      `json:"actual_home,omitempty"`
	ActualAway    *int      `json:"actual_away,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// F5Total returns the combined first-five projection.
func (p Prediction) F5Total() float64 { return p.F5Home + p.F5Away }

// FullTotal returns the combined full-game projection.
func (p Prediction) FullTotal() float64 { return p.FullHome + p.FullAway }
