package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tomislavmiksik/phoenix-be/internal/model"
)

const apiKeyColumns = `id, key_hash, label, active, expires_at, created_at, last_used_at`

// CreateAPIKey inserts a new API key record. KeyHash must already be set.
// ID and CreatedAt are populated after insert.
func (s *Store) CreateAPIKey(ctx context.Context, key *model.APIKey) error {
	if key.CreatedAt.IsZero() {
		key.CreatedAt = time.Now().UTC()
	}

	const q = `INSERT INTO api_keys
		(key_hash, label, active, expires_at, created_at)
		VALUES
		(:key_hash, :label, :active, :expires_at, :created_at)`

	id, err := s.insertReturningID(ctx, q, key)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert api key: %w", err)
	}
	key.ID = id
	return nil
}

// FindActiveAPIKeyByHash looks up an active API key by its SHA-256 hash.
// Expiry is not checked here; callers decide how to report expired keys.
func (s *Store) FindActiveAPIKeyByHash(ctx context.Context, hash string) (*model.APIKey, error) {
	var key model.APIKey
	q := s.db.Rebind("SELECT " + apiKeyColumns + " FROM api_keys WHERE key_hash = ? AND active = ?")
	if err := s.db.GetContext(ctx, &key, q, hash, true); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get api key by hash: %w", err)
	}
	return &key, nil
}

// ListAPIKeys returns all API keys, newest first.
func (s *Store) ListAPIKeys(ctx context.Context) ([]model.APIKey, error) {
	var keys []model.APIKey
	if err := s.db.SelectContext(ctx, &keys, "SELECT "+apiKeyColumns+" FROM api_keys ORDER BY created_at DESC, id DESC"); err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}
	return keys, nil
}

// RevokeAPIKey marks an API key as inactive by ID.
func (s *Store) RevokeAPIKey(ctx context.Context, id int64) error {
	q := s.db.Rebind("UPDATE api_keys SET active = ? WHERE id = ?")
	result, err := s.db.ExecContext(ctx, q, false, id)
	if err != nil {
		return fmt.Errorf("revoke api key: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("revoke api key rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateAPIKeyLastUsed sets the last_used_at timestamp for an API key.
func (s *Store) UpdateAPIKeyLastUsed(ctx context.Context, id int64, at time.Time) error {
	q := s.db.Rebind("UPDATE api_keys SET last_used_at = ? WHERE id = ?")
	result, err := s.db.ExecContext(ctx, q, at.UTC(), id)
	if err != nil {
		return fmt.Errorf("update api key last used: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update api key last used rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
