package handler

import (
	"log/slog"
	"net/http"

	"github.com/tomislavmiksik/phoenix-be/internal/model"
	"github.com/tomislavmiksik/phoenix-be/internal/server/middleware"
	"github.com/tomislavmiksik/phoenix-be/internal/service"
)

// MeasurementHandler serves the measurement endpoints. Every route acts on
// behalf of the user identity resolved by the token filter; routes must be
// mounted behind middleware.RequireUser.
type MeasurementHandler struct {
	svc         service.MeasurementManager
	logger      *slog.Logger
	maxBodySize int64
}

// NewMeasurementHandler creates a MeasurementHandler.
func NewMeasurementHandler(svc service.MeasurementManager, logger *slog.Logger, maxBodySize int64) *MeasurementHandler {
	return &MeasurementHandler{svc: svc, logger: logger, maxBodySize: maxBodySize}
}

func currentUser(r *http.Request) string {
	if id := middleware.GetIdentity(r.Context()); id.IsUser() {
		return id.Subject
	}
	return ""
}

// Create records a measurement for the caller.
// POST /api/measurements
func (h *MeasurementHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.MeasurementRequest
	if err := readJSON(w, r, h.maxBodySize, &req); err != nil {
		writeDecodeError(w, r, h.logger, err)
		return
	}
	m, err := h.svc.Create(r.Context(), currentUser(r), req)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

// List returns all of the caller's measurements, newest first.
// GET /api/measurements
func (h *MeasurementHandler) List(w http.ResponseWriter, r *http.Request) {
	ms, err := h.svc.List(r.Context(), currentUser(r))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, ms)
}

// Recent returns up to ?limit= of the caller's newest measurements.
// GET /api/measurements/recent
func (h *MeasurementHandler) Recent(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", service.RecentWindow)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	ms, err := h.svc.Recent(r.Context(), currentUser(r), limit)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, ms)
}

// Get returns one measurement.
// GET /api/measurements/{id}
func (h *MeasurementHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	m, err := h.svc.Get(r.Context(), currentUser(r), id)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// Update replaces a measurement's values.
// PUT /api/measurements/{id}
func (h *MeasurementHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	var req model.MeasurementRequest
	if err := readJSON(w, r, h.maxBodySize, &req); err != nil {
		writeDecodeError(w, r, h.logger, err)
		return
	}
	m, err := h.svc.Update(r.Context(), currentUser(r), id, req)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// Delete removes a measurement.
// DELETE /api/measurements/{id}
func (h *MeasurementHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	if err := h.svc.Delete(r.Context(), currentUser(r), id); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
