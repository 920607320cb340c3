// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/clarkmail2001/mlb-betting-model/internal/adapters/mq/queue"
	"github.com/clarkmail2001/mlb-betting-model/internal/adapters/repository"
	"github.com/clarkmail2001/mlb-betting-model/internal/domain/model"
	"github.com/clarkmail2001/mlb-betting-model/internal/domain/types"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers.
type Dependencies interface {
	ProjectionDependencies
	WeightsDependencies
	PredictionDependencies
	DataDependencies
	StatsProvider
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	projectionHandler  *ProjectionHandler
	weightsHandler     *WeightsHandler
	predictionsHandler *PredictionsHandler
	dataHandler        *DataHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(deps),
		projectionHandler:  NewProjectionHandler(deps),
		weightsHandler:     NewWeightsHandler(deps),
		predictionsHandler: NewPredictionsHandler(deps),
		dataHandler:        NewDataHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("POST /project", MetricsMiddleware(s.projectionHandler.HandleProject, "project"))

	mux.HandleFunc("GET /weights", MetricsMiddleware(s.weightsHandler.HandleGetWeights, "weights"))
	mux.HandleFunc("PUT /weights", MetricsMiddleware(s.weightsHandler.HandlePutWeights, "weights"))

	mux.HandleFunc("GET /predictions", MetricsMiddleware(s.predictionsHandler.HandleList, "predictions"))
	mux.HandleFunc("POST /predictions", MetricsMiddleware(s.predictionsHandler.HandleSubmit, "predictions"))
	mux.HandleFunc("GET /predictions/{id}", MetricsMiddleware(s.predictionsHandler.HandleGet, "prediction"))
	mux.HandleFunc("POST /predictions/{id}/result", MetricsMiddleware(s.predictionsHandler.HandleResult, "prediction_result"))

	mux.HandleFunc("GET /parks", MetricsMiddleware(s.dataHandler.HandleParks, "parks"))
	mux.HandleFunc("PUT /seasons", MetricsMiddleware(s.dataHandler.HandlePutSeason, "seasons"))
	mux.HandleFunc("PUT /pitchers/{id}/arsenal/{season}", MetricsMiddleware(s.dataHandler.HandlePutArsenal, "arsenal"))
	mux.HandleFunc("PUT /hitters/{id}/splits/{season}", MetricsMiddleware(s.dataHandler.HandlePutSplits, "splits"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure maps a domain or store error onto a status code.
func writeFailure(w http.ResponseWriter, op string, err error) {
	err = fmt.Errorf("%s: %w", op, err)
	switch {
	case errors.Is(err, model.ErrInvalidInput), errors.Is(err, repository.ErrInvalidInput),
		errors.Is(err, repository.ErrInvalidLimit), errors.Is(err, ErrBadRequest):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, repository.ErrDuplicate):
		writeError(w, http.StatusConflict, "duplicate", err)
	case errors.Is(err, queue.ErrFull):
		writeError(w, http.StatusTooManyRequests, "backpressure", err)
	case errors.Is(err, queue.ErrClosed):
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

// decodeBody reads one JSON document into v. Unknown fields are rejected.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return nil
}

// ProjectionDependencies runs the projection engine.
type ProjectionDependencies interface {
	ProjectGame(ctx context.Context, req types.ProjectRequest) (model.GameProjection, error)
}

// ProjectionHandler handles projection requests.
type ProjectionHandler struct {
	deps ProjectionDependencies
}

// NewProjectionHandler creates a new projection handler.
func NewProjectionHandler(deps ProjectionDependencies) *ProjectionHandler {
	return &ProjectionHandler{deps: deps}
}

// HandleProject handles POST /project requests.
func (h *ProjectionHandler) HandleProject(w http.ResponseWriter, r *http.Request) {
	const op = "api.project"
	var req types.ProjectRequest
	if err := decodeBody(r, &req); err != nil {
		writeFailure(w, op, err)
		return
	}
	g, err := h.deps.ProjectGame(r.Context(), req)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}
