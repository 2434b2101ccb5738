package handler

import (
	"log/slog"
	"net/http"

	"github.com/tomislavmiksik/phoenix-be/internal/metrics"
	"github.com/tomislavmiksik/phoenix-be/internal/model"
	"github.com/tomislavmiksik/phoenix-be/internal/service"
)

// AdminHandler serves administrative endpoints.
type AdminHandler struct {
	keys        service.KeyIssuer
	metrics     *metrics.Metrics
	logger      *slog.Logger
	maxBodySize int64
}

// NewAdminHandler creates an AdminHandler. m may be nil.
func NewAdminHandler(keys service.KeyIssuer, m *metrics.Metrics, logger *slog.Logger, maxBodySize int64) *AdminHandler {
	return &AdminHandler{keys: keys, metrics: m, logger: logger, maxBodySize: maxBodySize}
}

// Keygen issues a new API key. The raw key appears in this response only.
// POST /api/admin/keygen
func (h *AdminHandler) Keygen(w http.ResponseWriter, r *http.Request) {
	var req model.APIKeyRequest
	if err := readJSON(w, r, h.maxBodySize, &req); err != nil {
		writeDecodeError(w, r, h.logger, err)
		return
	}

	resp, err := h.keys.CreateAPIKey(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	h.metrics.KeyIssued()
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusCreated, resp)
}
