package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/clarkmail2001/mlb-betting-model/internal/domain/model"
	"github.com/clarkmail2001/mlb-betting-model/internal/domain/types"
)

// Prediction list limits.
const (
	defaultPredictionLimit = 50
	maxPredictionLimit     = 500
)

// PredictionDependencies manages the prediction history. Submit errors wrap
// repository.ErrDuplicate for a game already submitted and queue.ErrFull
// when the writers are behind.
type PredictionDependencies interface {
	SubmitPrediction(ctx context.Context, req types.ProjectRequest) (model.Prediction, error)
	Predictions(ctx context.Context, limit int) ([]model.Prediction, error)
	Prediction(ctx context.Context, id string) (model.Prediction, error)
	RecordResult(ctx context.Context, id string, home, away int) (model.Prediction, error)
}

// PredictionsHandler handles prediction history requests.
type PredictionsHandler struct {
	deps PredictionDependencies
}

// NewPredictionsHandler creates a new predictions handler.
func NewPredictionsHandler(deps PredictionDependencies) *PredictionsHandler {
	return &PredictionsHandler{deps: deps}
}

// HandleSubmit handles POST /predictions requests.
func (h *PredictionsHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit_prediction"
	var req types.ProjectRequest
	if err := decodeBody(r, &req); err != nil {
		writeFailure(w, op, err)
		return
	}
	p, err := h.deps.SubmitPrediction(r.Context(), req)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusAccepted, p)
}

// HandleList handles GET /predictions?limit=N requests.
func (h *PredictionsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_predictions"
	limit := defaultPredictionLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxPredictionLimit {
			writeFailure(w, op, fmt.Errorf("%w: limit must be 1..%d", ErrBadRequest, maxPredictionLimit))
			return
		}
		limit = n
	}
	list, err := h.deps.Predictions(r.Context(), limit)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// HandleGet handles GET /predictions/{id} requests.
func (h *PredictionsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	p, err := h.deps.Prediction(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(w, "api.get_prediction", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandleResult handles POST /predictions/{id}/result requests.
func (h *PredictionsHandler) HandleResult(w http.ResponseWriter, r *http.Request) {
	const op = "api.record_result"
	var req types.ResultRequest
	if err := decodeBody(r, &req); err != nil {
		writeFailure(w, op, err)
		return
	}
	if err := req.Validate(); err != nil {
		writeFailure(w, op, err)
		return
	}
	p, err := h.deps.RecordResult(r.Context(), r.PathValue("id"), *req.Home, *req.Away)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
