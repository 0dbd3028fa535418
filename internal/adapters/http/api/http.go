// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	repository "github.com/okian/careboard/internal/adapters/repository"
	"github.com/okian/careboard/internal/domain/model"
	"github.com/okian/careboard/internal/domain/types"
	"github.com/okian/careboard/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// KPIs returns the headline pair. The value holds usable defaults even
	// when err is non-nil.
	KPIs(ctx context.Context, f types.Filter) (model.KPIs, error)

	WorstMeasures(ctx context.Context, f types.Filter) repository.Result[model.MeasureScore]
	NationalPerformance(ctx context.Context, f types.Filter) repository.Result[model.CategoryShare]
	PerformanceByVolume(ctx context.Context, f types.Filter) repository.Result[model.TierScore]
	TopHospitals(ctx context.Context, f types.Filter) repository.Result[model.HospitalScore]
	StateDetails(ctx context.Context) repository.Result[model.StateDetail]
	PerformanceByState(ctx context.Context) repository.Result[model.StateScore]

	// Ping checks database connectivity for readiness checks.
	Ping(ctx context.Context) error
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	readyHandler     *ReadyHandler
	statsHandler     *StatsHandler
	kpisHandler      *KPIsHandler
	analyticsHandler *AnalyticsHandler
	logger           logger.Logger
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	log := logger.Named("api")
	return &Server{
		healthHandler:    NewHealthHandler(),
		readyHandler:     NewReadyHandler(deps),
		statsHandler:     NewStatsHandler(statsProvider),
		kpisHandler:      NewKPIsHandler(deps, log),
		analyticsHandler: NewAnalyticsHandler(deps, log),
		logger:           log,
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	route := func(path, endpoint string, h http.HandlerFunc) {
		mux.HandleFunc(path, RequestIDMiddleware(MetricsMiddleware(h, endpoint), s.logger))
	}

	// Operational
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/readyz", MetricsMiddleware(s.readyHandler.HandleReady, "readyz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	// Analytics
	route("/api/kpis", "kpis", s.kpisHandler.HandleKPIs)
	route("/api/worst-measures", "worst_measures", s.analyticsHandler.HandleWorstMeasures)
	route("/api/national-performance", "national_performance", s.analyticsHandler.HandleNationalPerformance)
	route("/api/performance-by-volume", "performance_by_volume", s.analyticsHandler.HandlePerformanceByVolume)
	route("/api/top-hospitals", "top_hospitals", s.analyticsHandler.HandleTopHospitals)
	route("/api/state-details", "state_details", s.analyticsHandler.HandleStateDetails)
	route("/api/performance-by-state", "performance_by_state", s.analyticsHandler.HandlePerformanceByState)

	s.logger.Debug(ctx, "api routes registered")
}

type statusResponse struct {
	Status string `json:"status"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// stateFilter reads the optional state query parameter.
func stateFilter(r *http.Request) types.Filter {
	return types.ForState(r.URL.Query().Get("state"))
}
