package projection_test

import (
	"errors"
	"testing"

	"github.com/clarkmail2001/mlb-betting-model/internal/domain/model"
	"github.com/clarkmail2001/mlb-betting-model/internal/domain/projection"
	. "github.com/smartystreets/goconvey/convey"
)

func hitterSeason(season, games int, woba, xwoba, k float64) model.PlayerRateStats {
	return model.PlayerRateStats{
		PlayerID:   "freddie_freeman",
		Role:       model.RoleHitter,
		Season:     season,
		Games:      games,
		SampleSize: float64(games) * 4.2,
		Stats: map[string]float64{
			model.StatWOBA:  woba,
			model.StatXWOBA: xwoba,
			model.StatKRate: k,
		},
	}
}

func careerOf(years ...model.PlayerRateStats) model.CareerProfile {
	return model.CareerProfile{PlayerID: "freddie_freeman", Years: years}
}

// currentShare is the blend weight of the current season, 0 when it was left out.
func currentShare(b projection.Blend) float64 {
	for _, w := range b.Weights {
		if w.Current {
			return w.Weight
		}
	}
	return 0
}

func TestBlendSeason(t *testing.T) {
	Convey("Given a hitter with four prior seasons", t, func() {
		career := careerOf(
			hitterSeason(2025, 150, 0.360, 0.350, 16),
			hitterSeason(2024, 147, 0.340, 0.345, 17),
			hitterSeason(2023, 161, 0.380, 0.370, 15),
			hitterSeason(2022, 159, 0.370, 0.365, 14),
		)

		Convey("When the current season is late", func() {
			current := hitterSeason(2026, 100, 0.300, 0.310, 20)
			b, err := projection.BlendSeason(career, current)

			Convey("Then the current season carries the late weight", func() {
				So(err, ShouldBeNil)
				So(b.Stage, ShouldEqual, projection.StageLate)
				So(b.Weights[0].Current, ShouldBeTrue)
				So(b.Weights[0].Weight, ShouldEqual, 0.60)
				So(b.TotalWeight(), ShouldAlmostEqual, 1.0, 1e-12)
			})

			Convey("And each rate is the weighted sum of the per-year rates", func() {
				want := 0.60*0.300 + 0.40*(0.50*0.360+0.25*0.340+0.15*0.380+0.10*0.370)
				So(b.Stats.Stats[model.StatWOBA], ShouldAlmostEqual, want, 1e-12)
			})

			Convey("And the sample size is the raw current-season sample", func() {
				So(b.SampleSize, ShouldEqual, current.SampleSize)
				So(b.Stats.SampleSize, ShouldEqual, current.SampleSize)
			})
		})

		Convey("When the current season is three games old", func() {
			b, err := projection.BlendSeason(career, hitterSeason(2026, 3, 0.500, 0.480, 10))
			So(err, ShouldBeNil)
			So(b.Weights[0].Weight, ShouldAlmostEqual, 0.03, 0.005)
		})

		Convey("When the current season has ten games", func() {
			b, err := projection.BlendSeason(career, hitterSeason(2026, 10, 0.500, 0.480, 10))
			So(err, ShouldBeNil)
			So(b.Weights[0].Weight, ShouldAlmostEqual, 0.05, 0.005)
		})

		Convey("When the current season has thirty games", func() {
			b, err := projection.BlendSeason(career, hitterSeason(2026, 30, 0.500, 0.480, 10))
			So(err, ShouldBeNil)
			So(b.Weights[0].Weight, ShouldAlmostEqual, 0.10, 0.005)
		})

		Convey("When the early season is swept game by game", func() {
			Convey("Then the current-season share never decreases", func() {
				prev := -1.0
				for g := 0; g <= 30; g++ {
					b, err := projection.BlendSeason(career, hitterSeason(2026, g, 0.500, 0.480, 10))
					So(err, ShouldBeNil)
					w := currentShare(b)
					So(w, ShouldBeGreaterThanOrEqualTo, prev)
					So(b.TotalWeight(), ShouldAlmostEqual, 1.0, 1e-12)
					prev = w
				}
				So(prev, ShouldAlmostEqual, 0.10, 0.005)
			})
		})
	})

	Convey("Given career profiles of every length", t, func() {
		all := []model.PlayerRateStats{
			hitterSeason(2025, 150, 0.360, 0.350, 16),
			hitterSeason(2024, 147, 0.340, 0.345, 17),
			hitterSeason(2023, 161, 0.380, 0.370, 15),
			hitterSeason(2022, 159, 0.370, 0.365, 14),
		}
		current := hitterSeason(2026, 45, 0.330, 0.320, 18)

		Convey("Then the weights always sum to one", func() {
			for n := 0; n <= len(all); n++ {
				b, err := projection.BlendSeason(careerOf(all[:n]...), current)
				So(err, ShouldBeNil)
				So(b.TotalWeight(), ShouldAlmostEqual, 1.0, 1e-12)
			}
		})

		Convey("When two years are missing their share is redistributed", func() {
			b, err := projection.BlendSeason(careerOf(all[:2]...), current)
			So(err, ShouldBeNil)
			So(b.Weights, ShouldHaveLength, 3)
			So(b.Weights[1].Weight, ShouldAlmostEqual, 0.65*0.50/0.75, 1e-12)
			So(b.Weights[2].Weight, ShouldAlmostEqual, 0.65*0.25/0.75, 1e-12)
			So(b.Degraded, ShouldContain, model.DegradedPartialCareer)
		})

		Convey("When there are no prior years", func() {
			b, err := projection.BlendSeason(careerOf(), current)

			Convey("Then the current season is used at full weight", func() {
				So(err, ShouldBeNil)
				So(b.Weights, ShouldHaveLength, 1)
				So(b.Weights[0].Weight, ShouldEqual, 1.0)
				So(b.Stats.Stats[model.StatWOBA], ShouldAlmostEqual, 0.330, 1e-12)
				So(b.Degraded, ShouldContain, model.DegradedNoCareerYears)
			})
		})

		Convey("When the current season has no games yet", func() {
			opening := model.PlayerRateStats{PlayerID: "freddie_freeman", Role: model.RoleHitter, Season: 2026}
			b, err := projection.BlendSeason(careerOf(all...), opening)

			Convey("Then the career alone sets the baseline", func() {
				So(err, ShouldBeNil)
				So(b.TotalWeight(), ShouldAlmostEqual, 1.0, 1e-12)
				So(b.Degraded, ShouldContain, model.DegradedNoCurrentGames)
				want := 0.50*0.360 + 0.25*0.340 + 0.15*0.380 + 0.10*0.370
				So(b.Stats.Stats[model.StatWOBA], ShouldAlmostEqual, want, 1e-12)
			})
		})
	})

	Convey("Given malformed inputs", t, func() {
		current := hitterSeason(2026, 45, 0.330, 0.320, 18)

		Convey("When games played exceed a season", func() {
			current.Games = 170
			_, err := projection.BlendSeason(careerOf(), current)
			So(errors.Is(err, projection.ErrInvalidInput), ShouldBeTrue)
		})

		Convey("When a career year lacks a required rate", func() {
			year := hitterSeason(2025, 150, 0.360, 0.350, 16)
			delete(year.Stats, model.StatXWOBA)
			_, err := projection.BlendSeason(careerOf(year), current)

			Convey("Then the missing field is named", func() {
				So(errors.Is(err, projection.ErrInvalidInput), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, model.StatXWOBA)
			})
		})

		Convey("When a career year has a different role", func() {
			year := hitterSeason(2025, 150, 0.360, 0.350, 16)
			year.Role = model.RolePitcher
			_, err := projection.BlendSeason(careerOf(year), current)
			So(errors.Is(err, projection.ErrInvalidInput), ShouldBeTrue)
		})

		Convey("When the career is out of order", func() {
			_, err := projection.BlendSeason(careerOf(
				hitterSeason(2023, 150, 0.360, 0.350, 16),
				hitterSeason(2024, 150, 0.360, 0.350, 16),
			), current)
			So(errors.Is(err, projection.ErrInvalidInput), ShouldBeTrue)
		})

		Convey("When the role is unknown", func() {
			current.Role = "catcher"
			_, err := projection.BlendSeason(careerOf(), current)
			So(errors.Is(err, projection.ErrInvalidInput), ShouldBeTrue)
		})
	})

	Convey("Given an optional stat present on only some seasons", t, func() {
		y1 := hitterSeason(2025, 150, 0.360, 0.350, 16)
		y1.Stats[model.StatBBRate] = 12
		current := hitterSeason(2026, 100, 0.300, 0.310, 20)
		b, err := projection.BlendSeason(careerOf(y1, hitterSeason(2024, 140, 0.340, 0.345, 17)), current)

		Convey("Then it is blended over the seasons that carry it", func() {
			So(err, ShouldBeNil)
			So(b.Stats.Stats[model.StatBBRate], ShouldAlmostEqual, 12, 1e-12)
		})
	})
}
