package model

import "time"

// APIKey is a long-lived machine credential. The raw key is never stored;
// only its SHA-256 hash is persisted.
type APIKey struct {
	ID         int64      `json:"id" db:"id"`
	KeyHash    string     `json:"-" db:"key_hash"` // SHA-256 hex, never expose
	Label      string     `json:"label" db:"label"`
	Active     bool       `json:"active" db:"active"`
	ExpiresAt  *time.Time `json:"expiresAt,omitempty" db:"expires_at"`
	CreatedAt  time.Time  `json:"createdAt" db:"created_at"`
	LastUsedAt *time.Time `json:"lastUsedAt,omitempty" db:"last_used_at"`
}

// ExpiredAt reports whether the key's expiry lies strictly before t.
// Keys without an expiry never expire.
func (k *APIKey) ExpiredAt(t time.Time) bool {
	return k.ExpiresAt != nil && k.ExpiresAt.Before(t)
}
