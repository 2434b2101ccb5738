package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/tomislavmiksik/phoenix-be/internal/model"
	"github.com/tomislavmiksik/phoenix-be/internal/store"
)

// KeyStore persists API keys and lists accounts for administration.
type KeyStore interface {
	CreateAPIKey(ctx context.Context, key *model.APIKey) error
	ListAPIKeys(ctx context.Context) ([]model.APIKey, error)
	RevokeAPIKey(ctx context.Context, id int64) error
	ListUsers(ctx context.Context) ([]model.User, error)
}

var errAPIKeyNotFound = &Error{Kind: KindNotFound, Message: "API key not found"}

// AdminService issues and manages API keys.
type AdminService struct {
	store  KeyStore
	offset time.Duration
	now    func() time.Time
}

// NewAdminService creates an AdminService. offset is the lifetime given to
// keys whose request carries no validFor.
func NewAdminService(s KeyStore, offset time.Duration) *AdminService {
	return &AdminService{store: s, offset: offset, now: time.Now}
}

// CreateAPIKey generates a new key, stores only its hash and returns the raw
// value. The raw value cannot be recovered afterwards.
func (s *AdminService) CreateAPIKey(ctx context.Context, req model.APIKeyRequest) (*model.APIKeyResponse, error) {
	req.Label = strings.TrimSpace(req.Label)
	if err := Validate(req); err != nil {
		return nil, err
	}

	lifetime := s.offset
	if req.ValidFor != nil {
		if req.ValidFor.Std() <= 0 {
			return nil, fieldError("validFor", "must be positive")
		}
		lifetime = req.ValidFor.Std()
	}

	raw, err := GenerateSecret()
	if err != nil {
		return nil, unexpected("create api key", err)
	}

	expires := s.now().Add(lifetime).UTC()
	key := &model.APIKey{
		KeyHash:   HashAPIKey(raw),
		Label:     req.Label,
		Active:    true,
		ExpiresAt: &expires,
	}
	if err := s.store.CreateAPIKey(ctx, key); err != nil {
		return nil, unexpected("create api key", err)
	}

	return &model.APIKeyResponse{APIKey: raw, ExpiresAt: key.ExpiresAt}, nil
}

// ListAPIKeys returns every stored key, revoked ones included.
func (s *AdminService) ListAPIKeys(ctx context.Context) ([]model.APIKey, error) {
	keys, err := s.store.ListAPIKeys(ctx)
	if err != nil {
		return nil, unexpected("list api keys", err)
	}
	return keys, nil
}

// RevokeAPIKey deactivates a key. The row is kept.
func (s *AdminService) RevokeAPIKey(ctx context.Context, id int64) error {
	if err := s.store.RevokeAPIKey(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return errAPIKeyNotFound
		}
		return unexpected("revoke api key", err)
	}
	return nil
}

// ListUsers returns all accounts.
func (s *AdminService) ListUsers(ctx context.Context) ([]model.User, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, unexpected("list users", err)
	}
	return users, nil
}
