package repository_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/clarkmail2001/mlb-betting-model/internal/adapters/repository"
	"github.com/clarkmail2001/mlb-betting-model/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func openStore(t *testing.T, opts ...repository.Option) *repository.SQLiteStore {
	t.Helper()
	s, err := repository.Open(context.Background(), filepath.Join(t.TempDir(), "mlb.db"), opts...)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func season(id string, role model.Role, year, games int, stats map[string]float64) model.PlayerRateStats {
	return model.PlayerRateStats{PlayerID: id, Role: role, Season: year, Games: games, SampleSize: float64(games) * 4, Stats: stats}
}

func TestOpen(t *testing.T) {
	Convey("Given a database path", t, func() {
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "mlb.db")

		Convey("When it is opened twice", func() {
			s1, err := repository.Open(ctx, path)
			So(err, ShouldBeNil)
			So(s1.Close(), ShouldBeNil)
			s2, err := repository.Open(ctx, path)
			So(err, ShouldBeNil)
			defer s2.Close()

			Convey("Then migrations are applied only once", func() {
				parks, err := s2.Parks(ctx)
				So(err, ShouldBeNil)
				So(parks, ShouldHaveLength, 30)
			})
		})

		Convey("When the path is empty", func() {
			_, err := repository.Open(ctx, " ")
			So(errors.Is(err, repository.ErrInvalidInput), ShouldBeTrue)
		})
	})
}

func TestSeasons(t *testing.T) {
	Convey("Given a store with several hitter seasons", t, func() {
		ctx := context.Background()
		s := openStore(t)
		for year := 2020; year <= 2026; year++ {
			So(s.PutSeason(ctx, season("judge", model.RoleHitter, year, 150, map[string]float64{
				model.StatWOBA: 0.300 + float64(year-2020)/100, model.StatXWOBA: 0.33, model.StatKRate: 27,
			})), ShouldBeNil)
		}

		Convey("When the current season is read", func() {
			st, err := s.Season(ctx, model.RoleHitter, "judge", 2026)
			So(err, ShouldBeNil)
			So(st.Stats[model.StatWOBA], ShouldAlmostEqual, 0.360, 1e-12)
			So(st.Games, ShouldEqual, 150)
		})

		Convey("When the career before 2026 is read", func() {
			c, err := s.Career(ctx, model.RoleHitter, "judge", 2026)

			Convey("Then four seasons come back most recent first", func() {
				So(err, ShouldBeNil)
				So(c.Years, ShouldHaveLength, 4)
				So(c.Years[0].Season, ShouldEqual, 2025)
				So(c.Years[3].Season, ShouldEqual, 2022)
				So(c.Validate(), ShouldBeNil)
			})
		})

		Convey("When a season is rewritten", func() {
			So(s.PutSeason(ctx, season("judge", model.RoleHitter, 2026, 20, map[string]float64{model.StatWOBA: 0.5})), ShouldBeNil)
			st, err := s.Season(ctx, model.RoleHitter, "judge", 2026)
			So(err, ShouldBeNil)
			So(st.Games, ShouldEqual, 20)
			So(st.Stats, ShouldHaveLength, 1)
		})

		Convey("When the role does not match", func() {
			_, err := s.Season(ctx, model.RolePitcher, "judge", 2026)
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("When a rookie has no prior seasons", func() {
			c, err := s.Career(ctx, model.RoleHitter, "rookie", 2026)
			So(err, ShouldBeNil)
			So(c.Years, ShouldBeEmpty)
		})

		Convey("When a season is missing its role", func() {
			err := s.PutSeason(ctx, season("x", "", 2026, 1, nil))
			So(errors.Is(err, repository.ErrInvalidInput), ShouldBeTrue)
		})
	})
}

func TestPitchData(t *testing.T) {
	Convey("Given pitch mix and split rows", t, func() {
		ctx := context.Background()
		s := openStore(t)
		So(s.PutArsenal(ctx, "cole", 2026, []model.ArsenalEntry{
			{PitchType: "SL", UsagePct: 25, RateAgainst: 0.250},
			{PitchType: "FF", UsagePct: 55, RateAgainst: 0.310},
		}), ShouldBeNil)
		So(s.PutHitterVsPitch(ctx, "judge", 2026, []model.HitterVsPitchEntry{
			{PitchType: "FF", Rate: 0.420},
		}), ShouldBeNil)

		Convey("Then the arsenal is returned by usage", func() {
			a, err := s.Arsenal(ctx, "cole", 2026)
			So(err, ShouldBeNil)
			So(a, ShouldHaveLength, 2)
			So(a[0].PitchType, ShouldEqual, "FF")
			So(a[0].PitcherID, ShouldEqual, "cole")
		})

		Convey("Then a replacement drops old rows", func() {
			So(s.PutArsenal(ctx, "cole", 2026, []model.ArsenalEntry{{PitchType: "CU", UsagePct: 100, RateAgainst: 0.3}}), ShouldBeNil)
			a, err := s.Arsenal(ctx, "cole", 2026)
			So(err, ShouldBeNil)
			So(a, ShouldHaveLength, 1)
		})

		Convey("Then a repeated pitch type is rejected without losing data", func() {
			err := s.PutArsenal(ctx, "cole", 2026, []model.ArsenalEntry{{PitchType: "FF"}, {PitchType: "FF"}})
			So(errors.Is(err, repository.ErrInvalidInput), ShouldBeTrue)
			a, _ := s.Arsenal(ctx, "cole", 2026)
			So(a, ShouldHaveLength, 2)
		})

		Convey("Then splits and empty lookups work", func() {
			v, err := s.HitterVsPitch(ctx, "judge", 2026)
			So(err, ShouldBeNil)
			So(v, ShouldHaveLength, 1)
			So(v[0].HitterID, ShouldEqual, "judge")

			none, err := s.Arsenal(ctx, "nobody", 2026)
			So(err, ShouldBeNil)
			So(none, ShouldBeEmpty)
		})
	})
}

func TestParksAndWeights(t *testing.T) {
	Convey("Given a fresh store", t, func() {
		ctx := context.Background()
		s := openStore(t)

		Convey("Then the seeded parks are available", func() {
			p, err := s.Park(ctx, "col")
			So(err, ShouldBeNil)
			So(p.Factor, ShouldEqual, 1.15)
			So(p.League, ShouldEqual, "NL")

			_, err = s.Park(ctx, "XXX")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("Then no weights are stored yet", func() {
			w, err := s.LoadWeights(ctx)
			So(err, ShouldBeNil)
			So(w, ShouldBeEmpty)
		})

		Convey("When weights are saved twice", func() {
			So(s.SaveWeights(ctx, map[string]float64{"arsenal_weight": 0.4, "woba_baseline": 0.28}), ShouldBeNil)
			So(s.SaveWeights(ctx, map[string]float64{"arsenal_weight": 0.5}), ShouldBeNil)

			Convey("Then the last set replaces the first", func() {
				w, err := s.LoadWeights(ctx)
				So(err, ShouldBeNil)
				So(w, ShouldResemble, map[string]float64{"arsenal_weight": 0.5})
			})
		})
	})
}

func TestPredictions(t *testing.T) {
	Convey("Given a store with a fixed clock", t, func() {
		ctx := context.Background()
		base := time.Date(2026, 7, 4, 18, 0, 0, 0, time.UTC)
		s := openStore(t, repository.WithClock(func() time.Time { return base }))

		p := model.Prediction{
			ID: "p1", GameKey: "2026-07-04:NYY@BOS", GameDate: "2026-07-04",
			HomeTeam: "BOS", AwayTeam: "NYY", HomePitcherID: "sale", AwayPitcherID: "cole",
			F5Home: 2.4, F5Away: 2.1, FullHome: 4.6, FullAway: 4.0,
		}
		So(s.SavePrediction(ctx, p), ShouldBeNil)

		Convey("When it is read back", func() {
			got, err := s.Prediction(ctx, "p1")
			So(err, ShouldBeNil)
			So(got.CreatedAt, ShouldEqual, base)
			So(got.ActualHome, ShouldBeNil)
			So(got.FullTotal(), ShouldAlmostEqual, 8.6, 1e-12)
		})

		Convey("When the same game is saved again", func() {
			dup := p
			dup.ID = "p2"
			err := s.SavePrediction(ctx, dup)
			So(errors.Is(err, repository.ErrDuplicate), ShouldBeTrue)
		})

		Convey("When the result is recorded", func() {
			got, err := s.RecordResult(ctx, "p1", 5, 3)
			So(err, ShouldBeNil)
			So(*got.ActualHome, ShouldEqual, 5)
			So(*got.ActualAway, ShouldEqual, 3)

			_, err = s.RecordResult(ctx, "missing", 1, 1)
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("When listing with several saved", func() {
			later := p
			later.ID, later.GameKey, later.CreatedAt = "p3", "2026-07-05:NYY@BOS", base.Add(24*time.Hour)
			So(s.SavePrediction(ctx, later), ShouldBeNil)

			list, err := s.Predictions(ctx, 10)
			So(err, ShouldBeNil)
			So(list, ShouldHaveLength, 2)
			So(list[0].ID, ShouldEqual, "p3")

			_, err = s.Predictions(ctx, 0)
			So(errors.Is(err, repository.ErrInvalidLimit), ShouldBeTrue)
		})
	})
}
