// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/okian/careboard/pkg/logger"
)

const readyTimeout = 5 * time.Second

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ReadyHandler handles readiness requests.
type ReadyHandler struct {
	pinger  Pinger
	timeout time.Duration
	logger  logger.Logger
}

// NewReadyHandler creates a new readiness handler.
func NewReadyHandler(pinger Pinger) *ReadyHandler {
	return &ReadyHandler{
		pinger:  pinger,
		timeout: readyTimeout,
		logger:  logger.Named("api"),
	}
}

// HandleReady handles GET /readyz requests. It answers 503 while the
// database cannot be reached.
func (h *ReadyHandler) HandleReady(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_ready"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	if h.pinger == nil {
		h.logger.Warn(r.Context(), "readiness check failed", logger.Error(NewKind(op, ErrNotReady)))
		writeJSON(w, http.StatusServiceUnavailable, statusResponse{Status: "unavailable"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.pinger.Ping(ctx); err != nil {
		h.logger.Warn(r.Context(), "readiness check failed", logger.Error(WrapKind(op, ErrNotReady, err)))
		writeJSON(w, http.StatusServiceUnavailable, statusResponse{Status: "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}
