package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/clarkmail2001/mlb-betting-model/internal/adapters/http/api"
	"github.com/clarkmail2001/mlb-betting-model/internal/adapters/mq/queue"
	"github.com/clarkmail2001/mlb-betting-model/internal/adapters/repository"
	"github.com/clarkmail2001/mlb-betting-model/internal/domain/model"
	"github.com/clarkmail2001/mlb-betting-model/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

type mockDeps struct {
	projectErr error
	submitErr  error
	lastReq    types.ProjectRequest

	weights   types.WeightsResponse
	overrides map[string]float64

	predictions []model.Prediction
	resultID    string
	resultHome  int
	resultAway  int

	season  model.PlayerRateStats
	arsenal []model.ArsenalEntry
	splits  []model.HitterVsPitchEntry
	gotID   string
	gotYear int
}

func (m *mockDeps) ProjectGame(_ context.Context, req types.ProjectRequest) (model.GameProjection, error) {
	m.lastReq = req
	if m.projectErr != nil {
		return model.GameProjection{}, m.projectErr
	}
	return model.GameProjection{ID: "g1", F5Total: 4.5, FullTotal: 8.9, ParkFactor: 1.0,
		TeamA: model.TeamProjection{TeamID: req.HomeTeam}, TeamB: model.TeamProjection{TeamID: req.AwayTeam}}, nil
}

func (m *mockDeps) SubmitPrediction(_ context.Context, req types.ProjectRequest) (model.Prediction, error) {
	if m.submitErr != nil {
		return model.Prediction{}, m.submitErr
	}
	return model.Prediction{ID: "p1", HomeTeam: req.HomeTeam, AwayTeam: req.AwayTeam}, nil
}

func (m *mockDeps) Predictions(_ context.Context, limit int) ([]model.Prediction, error) {
	if limit < len(m.predictions) {
		return m.predictions[:limit], nil
	}
	return m.predictions, nil
}

func (m *mockDeps) Prediction(_ context.Context, id string) (model.Prediction, error) {
	for _, p := range m.predictions {
		if p.ID == id {
			return p, nil
		}
	}
	return model.Prediction{}, fmt.Errorf("%w: prediction %s", repository.ErrNotFound, id)
}

func (m *mockDeps) RecordResult(ctx context.Context, id string, home, away int) (model.Prediction, error) {
	p, err := m.Prediction(ctx, id)
	if err != nil {
		return p, err
	}
	m.resultID, m.resultHome, m.resultAway = id, home, away
	p.ActualHome, p.ActualAway = &home, &away
	return p, nil
}

func (m *mockDeps) Weights() types.WeightsResponse { return m.weights }

func (m *mockDeps) UpdateWeights(_ context.Context, overrides map[string]float64) (types.WeightsResponse, error) {
	for k := range overrides {
		if _, ok := m.weights.Weights[k]; !ok {
			return types.WeightsResponse{}, fmt.Errorf("%w: unknown weight %q", model.ErrInvalidInput, k)
		}
	}
	m.overrides = overrides
	m.weights.Version++
	for k, v := range overrides {
		m.weights.Weights[k] = v
	}
	return m.weights, nil
}

func (m *mockDeps) Parks(context.Context) ([]model.ParkProfile, error) {
	return []model.ParkProfile{{TeamID: "COL", Name: "Colorado Rockies", Factor: 1.15}}, nil
}

func (m *mockDeps) PutSeason(_ context.Context, st model.PlayerRateStats) error {
	m.season = st
	return nil
}

func (m *mockDeps) PutArsenal(_ context.Context, id string, season int, pitches []model.ArsenalEntry) error {
	m.gotID, m.gotYear, m.arsenal = id, season, pitches
	return nil
}

func (m *mockDeps) PutHitterVsPitch(_ context.Context, id string, season int, splits []model.HitterVsPitchEntry) error {
	m.gotID, m.gotYear, m.splits = id, season, splits
	return nil
}

func (m *mockDeps) GetStats() map[string]any {
	return map[string]any{"started": true}
}

func newMux(deps *mockDeps) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps).Register(context.Background(), mux)
	return mux
}

func do(mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func errorCode(rec *httptest.ResponseRecorder) string {
	var body struct {
		Code string `json:"code"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	return body.Code
}

const projectBody = `{"game_date":"2026-07-04","home_team":"BOS","away_team":"NYY",
"home_pitcher_id":"p1","away_pitcher_id":"p2",
"home_lineup":["a","b","c","d","e","f","g","h","i"],
"away_lineup":["j","k","l","m","n","o","p","q","r"]}`

func TestProjectionHandler(t *testing.T) {
	Convey("Given the API server", t, func() {
		deps := &mockDeps{}
		mux := newMux(deps)

		Convey("When a game is posted", func() {
			rec := do(mux, http.MethodPost, "/project", projectBody)

			Convey("Then the projection is returned", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				var g model.GameProjection
				So(json.Unmarshal(rec.Body.Bytes(), &g), ShouldBeNil)
				So(g.TeamA.TeamID, ShouldEqual, "BOS")
				So(g.FullTotal, ShouldEqual, 8.9)
				So(deps.lastReq.HomeLineup, ShouldHaveLength, 9)
			})
		})

		Convey("When the body is not JSON", func() {
			rec := do(mux, http.MethodPost, "/project", "{")
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
			So(errorCode(rec), ShouldEqual, "bad_request")
		})

		Convey("When the body has unknown fields", func() {
			rec := do(mux, http.MethodPost, "/project", `{"bogus":1}`)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the engine rejects the input", func() {
			deps.projectErr = fmt.Errorf("%w: lineup has 8", model.ErrInvalidInput)
			rec := do(mux, http.MethodPost, "/project", projectBody)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When a player is unknown", func() {
			deps.projectErr = fmt.Errorf("%w: hitter x", repository.ErrNotFound)
			rec := do(mux, http.MethodPost, "/project", projectBody)
			So(rec.Code, ShouldEqual, http.StatusNotFound)
			So(errorCode(rec), ShouldEqual, "not_found")
		})

		Convey("When the store fails", func() {
			deps.projectErr = fmt.Errorf("disk gone")
			rec := do(mux, http.MethodPost, "/project", projectBody)
			So(rec.Code, ShouldEqual, http.StatusInternalServerError)
		})

		Convey("When the method is wrong", func() {
			rec := do(mux, http.MethodGet, "/project", "")
			So(rec.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}

func TestWeightsHandler(t *testing.T) {
	Convey("Given the API server with a weight set", t, func() {
		deps := &mockDeps{weights: types.WeightsResponse{Version: 1, Weights: map[string]float64{"arsenal_weight": 0.30}}}
		mux := newMux(deps)

		Convey("When weights are read", func() {
			rec := do(mux, http.MethodGet, "/weights", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			var got types.WeightsResponse
			So(json.Unmarshal(rec.Body.Bytes(), &got), ShouldBeNil)
			So(got.Version, ShouldEqual, 1)
			So(got.Weights["arsenal_weight"], ShouldEqual, 0.30)
		})

		Convey("When a known weight is updated", func() {
			rec := do(mux, http.MethodPut, "/weights", `{"arsenal_weight":0.5}`)
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(deps.overrides["arsenal_weight"], ShouldEqual, 0.5)
			So(deps.weights.Version, ShouldEqual, 2)
		})

		Convey("When an unknown weight is updated", func() {
			rec := do(mux, http.MethodPut, "/weights", `{"clutch":1}`)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
			So(deps.weights.Version, ShouldEqual, 1)
		})
	})
}

func TestPredictionsHandler(t *testing.T) {
	Convey("Given the API server with saved predictions", t, func() {
		deps := &mockDeps{predictions: []model.Prediction{{ID: "a"}, {ID: "b"}, {ID: "c"}}}
		mux := newMux(deps)

		Convey("When a prediction is submitted", func() {
			rec := do(mux, http.MethodPost, "/predictions", projectBody)
			So(rec.Code, ShouldEqual, http.StatusAccepted)
		})

		Convey("When the game was already submitted", func() {
			deps.submitErr = fmt.Errorf("dup: %w", repository.ErrDuplicate)
			rec := do(mux, http.MethodPost, "/predictions", projectBody)
			So(rec.Code, ShouldEqual, http.StatusConflict)
			So(errorCode(rec), ShouldEqual, "duplicate")
		})

		Convey("When the queue is full", func() {
			deps.submitErr = fmt.Errorf("busy: %w", queue.ErrFull)
			rec := do(mux, http.MethodPost, "/predictions", projectBody)
			So(rec.Code, ShouldEqual, http.StatusTooManyRequests)
			So(errorCode(rec), ShouldEqual, "backpressure")
		})

		Convey("When the service is not accepting predictions", func() {
			deps.submitErr = fmt.Errorf("service not started: %w", queue.ErrClosed)
			rec := do(mux, http.MethodPost, "/predictions", projectBody)
			So(rec.Code, ShouldEqual, http.StatusServiceUnavailable)
			So(errorCode(rec), ShouldEqual, "unavailable")
		})

		Convey("When predictions are listed with a limit", func() {
			rec := do(mux, http.MethodGet, "/predictions?limit=2", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			var list []model.Prediction
			So(json.Unmarshal(rec.Body.Bytes(), &list), ShouldBeNil)
			So(list, ShouldHaveLength, 2)
		})

		Convey("When the limit is invalid", func() {
			for _, limit := range []string{"0", "-1", "abc", "501"} {
				rec := do(mux, http.MethodGet, "/predictions?limit="+limit, "")
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			}
		})

		Convey("When one prediction is fetched", func() {
			So(do(mux, http.MethodGet, "/predictions/b", "").Code, ShouldEqual, http.StatusOK)
			So(do(mux, http.MethodGet, "/predictions/zzz", "").Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When a result is recorded", func() {
			rec := do(mux, http.MethodPost, "/predictions/a/result", `{"home":5,"away":3}`)

			Convey("Then the service receives the score", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(deps.resultID, ShouldEqual, "a")
				So(deps.resultHome, ShouldEqual, 5)
				So(deps.resultAway, ShouldEqual, 3)
			})
		})

		Convey("When a result is missing a score", func() {
			rec := do(mux, http.MethodPost, "/predictions/a/result", `{"home":5}`)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
			So(deps.resultID, ShouldBeEmpty)
		})
	})
}

func TestDataHandler(t *testing.T) {
	Convey("Given the API server", t, func() {
		deps := &mockDeps{}
		mux := newMux(deps)

		Convey("When parks are listed", func() {
			rec := do(mux, http.MethodGet, "/parks", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, `"park_factor":1.15`)
		})

		Convey("When a season is stored", func() {
			rec := do(mux, http.MethodPut, "/seasons",
				`{"player_id":"h1","role":"hitter","season":2026,"games":40,"stats":{"woba":0.33,"xwoba":0.34,"k_rate":21}}`)
			So(rec.Code, ShouldEqual, http.StatusNoContent)
			So(deps.season.PlayerID, ShouldEqual, "h1")
			So(deps.season.Stats[model.StatKRate], ShouldEqual, 21)
		})

		Convey("When a season has no player", func() {
			rec := do(mux, http.MethodPut, "/seasons", `{"role":"hitter","season":2026}`)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When an arsenal is stored", func() {
			rec := do(mux, http.MethodPut, "/pitchers/p9/arsenal/2026",
				`{"pitches":[{"pitch_type":"FF","usage_pct":55,"rate_against":0.31}]}`)
			So(rec.Code, ShouldEqual, http.StatusNoContent)
			So(deps.gotID, ShouldEqual, "p9")
			So(deps.gotYear, ShouldEqual, 2026)
			So(deps.arsenal[0].PitcherID, ShouldEqual, "p9")
		})

		Convey("When splits are stored", func() {
			rec := do(mux, http.MethodPut, "/hitters/h3/splits/2025",
				`{"splits":[{"pitch_type":"SL","rate":0.28}]}`)
			So(rec.Code, ShouldEqual, http.StatusNoContent)
			So(deps.splits[0].HitterID, ShouldEqual, "h3")
		})

		Convey("When the season in the path is not a number", func() {
			rec := do(mux, http.MethodPut, "/hitters/h3/splits/last", `{"splits":[]}`)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestHealthAndStats(t *testing.T) {
	Convey("Given the API server", t, func() {
		mux := newMux(&mockDeps{})

		Convey("When stats are read", func() {
			rec := do(mux, http.MethodGet, "/stats", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, `"started":true`)
		})

		Convey("When health is read after a request", func() {
			do(mux, http.MethodGet, "/parks", "")
			rec := do(mux, http.MethodGet, "/healthz", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, "mlb_projection_http_requests_total")
		})
	})
}
