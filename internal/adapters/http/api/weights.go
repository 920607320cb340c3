package api

import (
	"context"
	"net/http"

	"github.com/clarkmail2001/mlb-betting-model/internal/domain/types"
)

// WeightsDependencies reads and replaces the model coefficients.
type WeightsDependencies interface {
	Weights() types.WeightsResponse
	UpdateWeights(ctx context.Context, overrides map[string]float64) (types.WeightsResponse, error)
}

// WeightsHandler handles weight admin requests.
type WeightsHandler struct {
	deps WeightsDependencies
}

// NewWeightsHandler creates a new weights handler.
func NewWeightsHandler(deps WeightsDependencies) *WeightsHandler {
	return &WeightsHandler{deps: deps}
}

// HandleGetWeights handles GET /weights requests.
func (h *WeightsHandler) HandleGetWeights(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Weights())
}

// HandlePutWeights handles PUT /weights requests. The body is a flat map of
// coefficient names to values; names not sent keep their current value.
func (h *WeightsHandler) HandlePutWeights(w http.ResponseWriter, r *http.Request) {
	const op = "api.put_weights"
	var overrides map[string]float64
	if err := decodeBody(r, &overrides); err != nil {
		writeFailure(w, op, err)
		return
	}
	resp, err := h.deps.UpdateWeights(r.Context(), overrides)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
