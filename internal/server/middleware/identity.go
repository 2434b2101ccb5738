package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/tomislavmiksik/phoenix-be/internal/model"
)

// IdentityKind tells how a request was authenticated.
type IdentityKind string

const (
	IdentityAPIKey IdentityKind = "api_key"
	IdentityUser   IdentityKind = "user"
)

// APIKeyUser is the fixed, non-personal subject of requests authenticated
// only by an API key.
const APIKeyUser = "api-key-user"

// Identity is the resolved principal of a request. An API-key identity
// carries no role.
type Identity struct {
	Kind    IdentityKind
	Subject string
	Role    model.Role
	UserID  int64
	KeyID   int64
}

// IsUser reports whether the identity belongs to a user account.
func (i *Identity) IsUser() bool {
	return i != nil && i.Kind == IdentityUser
}

type identityKey struct{}

type identityHolderKey struct{}

// identityHolder receives the final identity for the request logger.
type identityHolder struct {
	id *Identity
}

func withIdentityHolder(ctx context.Context, h *identityHolder) context.Context {
	return context.WithValue(ctx, identityHolderKey{}, h)
}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	if h, ok := ctx.Value(identityHolderKey{}).(*identityHolder); ok {
		h.id = id
	}
	return context.WithValue(ctx, identityKey{}, id)
}

// GetIdentity extracts the identity from the context. Returns nil for
// unauthenticated requests.
func GetIdentity(ctx context.Context) *Identity {
	if id, ok := ctx.Value(identityKey{}).(*Identity); ok {
		return id
	}
	return nil
}

// RequireUser rejects requests without a user identity with 401.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !GetIdentity(r.Context()).IsUser() {
			writeError(w, http.StatusUnauthorized, "Full authentication is required to access this resource")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole admits only users holding role. Missing user identities get
// 401, users with another role get 403.
func RequireRole(role model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if GetIdentity(r.Context()).Role != role {
				writeError(w, http.StatusForbidden, "Access denied")
				return
			}
			next.ServeHTTP(w, r)
		}))
	}
}

// writeError renders the standard error envelope. The handler package has
// its own helper; middleware cannot import it without a cycle.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(model.ErrorResponse{
		Error: model.ErrorDetail{Code: status, Message: message},
	})
}
