package projection

import (
	"fmt"
	"math"

	"github.com/clarkmail2001/mlb-betting-model/internal/domain/model"
)

// LineupSize is the number of batting-order slots.
const LineupSize = 9

// SlotShares is each batting-order slot's share of team plate appearances.
var SlotShares = [LineupSize]float64{0.137, 0.130, 0.123, 0.116, 0.109, 0.103, 0.097, 0.093, 0.092}

const (
	f5Innings   = 5.0
	fullInnings = 9.0
	// bullpenQuality inflates league scoring for relief innings.
	bullpenQuality = 1.05
)

// Confidence policy. These are declared constants attached by projection
// type; they are not derived from the inputs.
var (
	F5Confidence   = model.Confidence{Percent: 82, Band: 0.9}
	FullConfidence = model.Confidence{Percent: 64, Band: 1.8}
)

// TeamInput is one offense: nine slot matchups against the opposing starter.
type TeamInput struct {
	TeamID            string
	Lineup            []model.MatchupResult
	OpposingStarterIP float64
	ParkFactor        float64
}

// GameInput pairs both offenses. Team A bats against starter B and vice versa.
type GameInput struct {
	TeamA      string
	TeamB      string
	LineupA    []model.MatchupResult
	LineupB    []model.MatchupResult
	StarterAIP float64
	StarterBIP float64
	ParkFactor float64
}

// F5PlateAppearances is the team plate-appearance budget for five innings.
func F5PlateAppearances(league League) float64 {
	return league.PAPerInning * f5Innings
}

// ProjectTeam allocates the F5 plate-appearance budget across slots, sums
// expected runs, then extends to nine innings with a bullpen component.
func ProjectTeam(in TeamInput, league League) (model.TeamProjection, error) {
	if len(in.Lineup) != LineupSize {
		return model.TeamProjection{}, fmt.Errorf("%w: team %s lineup has %d hitters, want %d", ErrInvalidInput, in.TeamID, len(in.Lineup), LineupSize)
	}
	if !finite(in.ParkFactor) || in.ParkFactor <= 0 {
		return model.TeamProjection{}, fmt.Errorf("%w: park factor %v must be positive", ErrInvalidInput, in.ParkFactor)
	}
	if !finite(in.OpposingStarterIP) {
		return model.TeamProjection{}, fmt.Errorf("%w: starter innings %v is not finite", ErrInvalidInput, in.OpposingStarterIP)
	}
	if err := league.Validate(); err != nil {
		return model.TeamProjection{}, err
	}

	budget := F5PlateAppearances(league)
	out := model.TeamProjection{
		TeamID:            in.TeamID,
		Slots:             make([]model.SlotResult, LineupSize),
		OpposingStarterIP: clamp(in.OpposingStarterIP, 0, fullInnings),
	}
	for i, m := range in.Lineup {
		pa := budget * SlotShares[i]
		runs := m.RunsPerPA * pa
		out.Slots[i] = model.SlotResult{
			Slot:         i + 1,
			PAShare:      SlotShares[i],
			ExpectedPA:   pa,
			ExpectedRuns: runs,
			Matchup:      m,
		}
		out.F5Runs += runs
	}

	ip := out.OpposingStarterIP
	out.StarterRuns = out.F5Runs / f5Innings * ip
	out.BullpenRuns = league.RunsPerGame / fullInnings * bullpenQuality * (fullInnings - ip) * in.ParkFactor
	out.FullRuns = out.StarterRuns + out.BullpenRuns
	out.F5Confidence = band(F5Confidence, out.F5Runs)
	out.FullConfidence = band(FullConfidence, out.FullRuns)
	return out, nil
}

// ProjectGame projects both offenses in the same park.
func ProjectGame(in GameInput, league League) (model.GameProjection, error) {
	a, err := ProjectTeam(TeamInput{
		TeamID:            in.TeamA,
		Lineup:            in.LineupA,
		OpposingStarterIP: in.StarterBIP,
		ParkFactor:        in.ParkFactor,
	}, league)
	if err != nil {
		return model.GameProjection{}, err
	}
	b, err := ProjectTeam(TeamInput{
		TeamID:            in.TeamB,
		Lineup:            in.LineupB,
		OpposingStarterIP: in.StarterAIP,
		ParkFactor:        in.ParkFactor,
	}, league)
	if err != nil {
		return model.GameProjection{}, err
	}
	return model.GameProjection{
		TeamA:      a,
		TeamB:      b,
		ParkFactor: in.ParkFactor,
		F5Total:    a.F5Runs + b.F5Runs,
		FullTotal:  a.FullRuns + b.FullRuns,
	}, nil
}

func band(policy model.Confidence, runs float64) model.Confidence {
	policy.Low = math.Max(0, runs-policy.Band)
	policy.High = runs + policy.Band
	return policy
}

// Starter workload bounds used when estimating innings from a pitcher's line.
const (
	minEstimatedIP     = 4.0
	maxEstimatedIP     = 7.0
	defaultEstimatedIP = 5.0
)

// EstimateStarterInnings estimates how deep a starter will go from their
// innings per start, or innings over games started, clamped to [4,7].
// Pitchers without either default to five innings.
func EstimateStarterInnings(p model.PlayerRateStats) float64 {
	if ips, ok := p.Stats[model.StatIPPerStart]; ok && finite(ips) && ips > 0 {
		return clamp(ips, minEstimatedIP, maxEstimatedIP)
	}
	if gs, ok := p.Stats[model.StatGS]; ok && finite(gs) && gs > 0 && p.SampleSize > 0 {
		return clamp(p.SampleSize/gs, minEstimatedIP, maxEstimatedIP)
	}
	return defaultEstimatedIP
}
