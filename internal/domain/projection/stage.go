package projection

import (
	"fmt"
	"sort"
)

// SeasonStage buckets a player's current-season games played.
type SeasonStage int

const (
	StageEarly SeasonStage = iota + 1
	StageMid
	StageLate
)

// MaxGames is the length of a regular season.
const MaxGames = 162

func (s SeasonStage) String() string {
	switch s {
	case StageEarly:
		return "early"
	case StageMid:
		return "mid"
	case StageLate:
		return "late"
	default:
		return "unknown"
	}
}

// StageFor classifies games played: [0,30] early, [31,80] mid, [81,162] late.
func StageFor(games int) (SeasonStage, error) {
	switch {
	case games < 0 || games > MaxGames:
		return 0, fmt.Errorf("%w: games played %d outside [0,%d]", ErrInvalidInput, games, MaxGames)
	case games <= 30:
		return StageEarly, nil
	case games <= 80:
		return StageMid, nil
	default:
		return StageLate, nil
	}
}

type anchor struct {
	games  float64
	weight float64
}

// earlyAnchors drive the current-season weight inside the early stage.
var earlyAnchors = []anchor{
	{0, 0.00},
	{3, 0.03},
	{10, 0.05},
	{30, 0.10},
}

// Fixed current-season weights for the later stages.
const (
	midCurrentWeight  = 0.35
	lateCurrentWeight = 0.60
)

// CurrentWeight returns the share of the blend given to the current season.
// The career share is 1 minus this value.
func CurrentWeight(games int) (float64, error) {
	stage, err := StageFor(games)
	if err != nil {
		return 0, err
	}
	switch stage {
	case StageMid:
		return midCurrentWeight, nil
	case StageLate:
		return lateCurrentWeight, nil
	}
	return interpolate(earlyAnchors, float64(games)), nil
}

// interpolate is piecewise linear over anchors sorted by games.
func interpolate(anchors []anchor, g float64) float64 {
	i := sort.Search(len(anchors), func(i int) bool { return anchors[i].games >= g })
	switch {
	case i == 0:
		return anchors[0].weight
	case i == len(anchors):
		return anchors[len(anchors)-1].weight
	}
	lo, hi := anchors[i-1], anchors[i]
	t := (g - lo.games) / (hi.games - lo.games)
	return lo.weight + t*(hi.weight-lo.weight)
}
