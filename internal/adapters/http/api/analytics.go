// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	repository "github.com/okian/careboard/internal/adapters/repository"
	"github.com/okian/careboard/internal/domain/model"
	"github.com/okian/careboard/internal/domain/types"
	"github.com/okian/careboard/pkg/logger"
)

// KPIsDependencies defines the interface for the headline figures.
type KPIsDependencies interface {
	KPIs(ctx context.Context, f types.Filter) (model.KPIs, error)
}

// KPIsHandler handles KPI requests.
type KPIsHandler struct {
	deps   KPIsDependencies
	logger logger.Logger
}

// NewKPIsHandler creates a new KPI handler.
func NewKPIsHandler(deps KPIsDependencies, log logger.Logger) *KPIsHandler {
	return &KPIsHandler{deps: deps, logger: log}
}

// HandleKPIs handles GET /api/kpis?state=XX requests. Faulted halves fall
// back to 0 and "N/A"; the status is always 200.
func (h *KPIsHandler) HandleKPIs(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_kpis"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	kpis, err := h.deps.KPIs(r.Context(), stateFilter(r))
	if err != nil {
		h.logger.Warn(r.Context(), "serving default kpis", logger.Error(WrapKind(op, ErrDegraded, err)))
	}
	writeJSON(w, http.StatusOK, kpis)
}

// AnalyticsDependencies defines the multi-row aggregations.
type AnalyticsDependencies interface {
	WorstMeasures(ctx context.Context, f types.Filter) repository.Result[model.MeasureScore]
	NationalPerformance(ctx context.Context, f types.Filter) repository.Result[model.CategoryShare]
	PerformanceByVolume(ctx context.Context, f types.Filter) repository.Result[model.TierScore]
	TopHospitals(ctx context.Context, f types.Filter) repository.Result[model.HospitalScore]
	StateDetails(ctx context.Context) repository.Result[model.StateDetail]
	PerformanceByState(ctx context.Context) repository.Result[model.StateScore]
}

// AnalyticsHandler serves the array endpoints.
type AnalyticsHandler struct {
	deps   AnalyticsDependencies
	logger logger.Logger
}

// NewAnalyticsHandler creates a new analytics handler.
func NewAnalyticsHandler(deps AnalyticsDependencies, log logger.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{deps: deps, logger: log}
}

// respond writes res as a JSON array. A faulted or empty result is written
// as [] with status 200.
func respond[T any](h *AnalyticsHandler, w http.ResponseWriter, r *http.Request, op string, res repository.Result[T]) {
	if res.Faulted() {
		h.logger.Warn(r.Context(), "serving empty result", logger.Error(WrapKind(op, ErrDegraded, res.Err)))
	}
	writeJSON(w, http.StatusOK, res.OrEmpty())
}

// HandleWorstMeasures handles GET /api/worst-measures?state=XX requests.
func (h *AnalyticsHandler) HandleWorstMeasures(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	respond(h, w, r, "api.get_worst_measures", h.deps.WorstMeasures(r.Context(), stateFilter(r)))
}

// HandleNationalPerformance handles GET /api/national-performance?state=XX requests.
func (h *AnalyticsHandler) HandleNationalPerformance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	respond(h, w, r, "api.get_national_performance", h.deps.NationalPerformance(r.Context(), stateFilter(r)))
}

// HandlePerformanceByVolume handles GET /api/performance-by-volume?state=XX requests.
func (h *AnalyticsHandler) HandlePerformanceByVolume(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	respond(h, w, r, "api.get_performance_by_volume", h.deps.PerformanceByVolume(r.Context(), stateFilter(r)))
}

// HandleTopHospitals handles GET /api/top-hospitals?state=XX requests.
func (h *AnalyticsHandler) HandleTopHospitals(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	respond(h, w, r, "api.get_top_hospitals", h.deps.TopHospitals(r.Context(), stateFilter(r)))
}

// HandleStateDetails handles GET /api/state-details requests.
func (h *AnalyticsHandler) HandleStateDetails(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	respond(h, w, r, "api.get_state_details", h.deps.StateDetails(r.Context()))
}

// HandlePerformanceByState handles GET /api/performance-by-state requests.
func (h *AnalyticsHandler) HandlePerformanceByState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	respond(h, w, r, "api.get_performance_by_state", h.deps.PerformanceByState(r.Context()))
}
