package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/tomislavmiksik/phoenix-be/internal/metrics"
	"github.com/tomislavmiksik/phoenix-be/internal/service"
)

// APIKeyOptions configures the API-key filter.
type APIKeyOptions struct {
	// Header carries the raw key. Defaults to X-API-KEY.
	Header string
	// ExemptPrefixes are path prefixes that pass through without a key.
	ExemptPrefixes []string
}

// APIKeyAuth returns the API-key filter. Requests to exempt prefixes pass
// untouched. All other requests must carry a valid, unexpired key in the
// configured header; the request then proceeds as APIKeyUser. Rejections
// are 401 with the service's message.
func APIKeyAuth(auth service.Authenticator, opts APIKeyOptions, m *metrics.Metrics, logger *slog.Logger) func(http.Handler) http.Handler {
	header := opts.Header
	if header == "" {
		header = "X-API-KEY"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if exempt(r.URL.Path, opts.ExemptPrefixes) {
				next.ServeHTTP(w, r)
				return
			}

			key, err := auth.AuthenticateAPIKey(r.Context(), r.Header.Get(header))
			if err != nil {
				m.AuthAttempt(metrics.MechanismAPIKey, apiKeyOutcome(err))
				status, msg := http.StatusUnauthorized, err.Error()
				var se *service.Error
				if errors.As(err, &se) {
					msg = se.Message
				}
				if service.KindOf(err) == service.KindUnexpected {
					logger.ErrorContext(r.Context(), "api key authentication failed",
						"error", err, "request_id", GetRequestID(r.Context()))
					status = http.StatusInternalServerError
				}
				writeError(w, status, msg)
				return
			}
			m.AuthAttempt(metrics.MechanismAPIKey, metrics.OutcomeSuccess)

			ctx := WithIdentity(r.Context(), &Identity{
				Kind:    IdentityAPIKey,
				Subject: APIKeyUser,
				KeyID:   key.ID,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func exempt(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

func apiKeyOutcome(err error) string {
	switch {
	case errors.Is(err, service.ErrMissingAPIKey):
		return metrics.OutcomeMissing
	case errors.Is(err, service.ErrExpiredAPIKey):
		return metrics.OutcomeExpired
	case service.KindOf(err) == service.KindUnexpected:
		return metrics.OutcomeError
	}
	return metrics.OutcomeInvalid
}

// BearerAuth returns the token filter. It never rejects: a missing header,
// another scheme or a token that fails verification leave the request as it
// was, and route policy decides. A verified token replaces any API-key
// identity with the user's identity.
func BearerAuth(auth service.Authenticator, m *metrics.Metrics, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			u, err := auth.AuthenticateToken(r.Context(), strings.TrimSpace(token))
			if err != nil {
				if service.KindOf(err) == service.KindUnexpected {
					m.AuthAttempt(metrics.MechanismToken, metrics.OutcomeError)
					logger.ErrorContext(r.Context(), "token authentication failed",
						"error", err, "request_id", GetRequestID(r.Context()))
				} else {
					m.AuthAttempt(metrics.MechanismToken, metrics.OutcomeInvalid)
				}
				next.ServeHTTP(w, r)
				return
			}
			m.AuthAttempt(metrics.MechanismToken, metrics.OutcomeSuccess)

			ctx := WithIdentity(r.Context(), &Identity{
				Kind:    IdentityUser,
				Subject: u.Username,
				Role:    u.Role,
				UserID:  u.ID,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
