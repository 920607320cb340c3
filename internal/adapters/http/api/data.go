package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/clarkmail2001/mlb-betting-model/internal/domain/model"
	"github.com/clarkmail2001/mlb-betting-model/internal/domain/types"
)

// DataDependencies reads parks and writes the per-player tables the
// projection reads.
type DataDependencies interface {
	Parks(ctx context.Context) ([]model.ParkProfile, error)
	PutSeason(ctx context.Context, st model.PlayerRateStats) error
	PutArsenal(ctx context.Context, pitcherID string, season int, pitches []model.ArsenalEntry) error
	PutHitterVsPitch(ctx context.Context, hitterID string, season int, splits []model.HitterVsPitchEntry) error
}

// DataHandler handles reference data requests.
type DataHandler struct {
	deps DataDependencies
}

// NewDataHandler creates a new data handler.
func NewDataHandler(deps DataDependencies) *DataHandler {
	return &DataHandler{deps: deps}
}

// HandleParks handles GET /parks requests.
func (h *DataHandler) HandleParks(w http.ResponseWriter, r *http.Request) {
	parks, err := h.deps.Parks(r.Context())
	if err != nil {
		writeFailure(w, "api.parks", err)
		return
	}
	writeJSON(w, http.StatusOK, parks)
}

// HandlePutSeason handles PUT /seasons requests.
func (h *DataHandler) HandlePutSeason(w http.ResponseWriter, r *http.Request) {
	const op = "api.put_season"
	var st model.PlayerRateStats
	if err := decodeBody(r, &st); err != nil {
		writeFailure(w, op, err)
		return
	}
	if st.PlayerID == "" || st.Season <= 0 {
		writeFailure(w, op, fmt.Errorf("%w: player_id and season are required", ErrBadRequest))
		return
	}
	if err := h.deps.PutSeason(r.Context(), st); err != nil {
		writeFailure(w, op, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandlePutArsenal handles PUT /pitchers/{id}/arsenal/{season} requests.
func (h *DataHandler) HandlePutArsenal(w http.ResponseWriter, r *http.Request) {
	const op = "api.put_arsenal"
	id, season, err := playerSeason(r)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	var req types.ArsenalRequest
	if err := decodeBody(r, &req); err != nil {
		writeFailure(w, op, err)
		return
	}
	for i := range req.Pitches {
		req.Pitches[i].PitcherID = id
	}
	if err := h.deps.PutArsenal(r.Context(), id, season, req.Pitches); err != nil {
		writeFailure(w, op, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandlePutSplits handles PUT /hitters/{id}/splits/{season} requests.
func (h *DataHandler) HandlePutSplits(w http.ResponseWriter, r *http.Request) {
	const op = "api.put_splits"
	id, season, err := playerSeason(r)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	var req types.SplitsRequest
	if err := decodeBody(r, &req); err != nil {
		writeFailure(w, op, err)
		return
	}
	for i := range req.Splits {
		req.Splits[i].HitterID = id
	}
	if err := h.deps.PutHitterVsPitch(r.Context(), id, season, req.Splits); err != nil {
		writeFailure(w, op, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func playerSeason(r *http.Request) (string, int, error) {
	id := r.PathValue("id")
	season, err := strconv.Atoi(r.PathValue("season"))
	if id == "" || err != nil || season <= 0 {
		return "", 0, fmt.Errorf("%w: invalid player or season in path", ErrBadRequest)
	}
	return id, season, nil
}
