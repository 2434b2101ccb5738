package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/tomislavmiksik/phoenix-be/internal/metrics"
	"github.com/tomislavmiksik/phoenix-be/internal/model"
	"github.com/tomislavmiksik/phoenix-be/internal/service"
)

// AuthHandler serves the public registration and login endpoints.
type AuthHandler struct {
	auth        service.Authenticator
	metrics     *metrics.Metrics
	logger      *slog.Logger
	maxBodySize int64
}

// NewAuthHandler creates an AuthHandler. m may be nil.
func NewAuthHandler(auth service.Authenticator, m *metrics.Metrics, logger *slog.Logger, maxBodySize int64) *AuthHandler {
	return &AuthHandler{auth: auth, metrics: m, logger: logger, maxBodySize: maxBodySize}
}

// Register creates a USER account and returns its first session token.
// POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if err := readJSON(w, r, h.maxBodySize, &req); err != nil {
		writeDecodeError(w, r, h.logger, err)
		return
	}

	resp, err := h.auth.Register(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// Login verifies a username and password and returns a session token.
// POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := readJSON(w, r, h.maxBodySize, &req); err != nil {
		writeDecodeError(w, r, h.logger, err)
		return
	}

	resp, err := h.auth.Login(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBadCredentials):
			h.metrics.AuthAttempt(metrics.MechanismPassword, metrics.OutcomeInvalid)
		case service.KindOf(err) == service.KindUnexpected:
			h.metrics.AuthAttempt(metrics.MechanismPassword, metrics.OutcomeError)
		}
		writeServiceError(w, r, h.logger, err)
		return
	}
	h.metrics.AuthAttempt(metrics.MechanismPassword, metrics.OutcomeSuccess)
	writeJSON(w, http.StatusOK, resp)
}
