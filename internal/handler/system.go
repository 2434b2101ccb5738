package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/tomislavmiksik/phoenix-be/internal/model"
)

// readyTimeout bounds the database ping behind /readyz.
const readyTimeout = 2 * time.Second

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SystemHandler serves the liveness and readiness probes.
type SystemHandler struct {
	db     Pinger
	logger *slog.Logger
}

// NewSystemHandler creates a new SystemHandler.
func NewSystemHandler(db Pinger, logger *slog.Logger) *SystemHandler {
	return &SystemHandler{db: db, logger: logger}
}

// Healthz is a liveness probe. Returns 200 if the process is running.
// GET /healthz
func (h *SystemHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.StatusResponse{Status: "ok"})
}

// Readyz returns 200 when the database answers a ping, 503 otherwise.
// GET /readyz
func (h *SystemHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		h.logger.WarnContext(r.Context(), "readiness check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, model.StatusResponse{
			Status: "unavailable",
			Error:  "database unreachable",
		})
		return
	}
	writeJSON(w, http.StatusOK, model.StatusResponse{Status: "ok"})
}
