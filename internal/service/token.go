package service

import (
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is the single outcome of every failed token verification.
// Callers cannot tell a bad signature from an expired or malformed token.
var ErrInvalidToken = errors.New("invalid token")

// Whole-second NumericDates would cut up to a second off a token's lifetime
// when it is issued mid-second.
func init() {
	jwt.TimePrecision = time.Millisecond
}

// MinSigningKeyBytes is the minimum decoded length of the HMAC key.
const MinSigningKeyBytes = 32

// TokenCodec issues and verifies HS256 session tokens carrying the username
// as subject. It holds no mutable state and is safe for concurrent use.
type TokenCodec struct {
	key      []byte
	lifetime time.Duration
	now      func() time.Time
}

// NewTokenCodec creates a codec from a base64 encoded signing key. The key
// must decode to at least 256 bits.
func NewTokenCodec(secret string, lifetime time.Duration) (*TokenCodec, error) {
	key, err := DecodeSigningKey(secret)
	if err != nil {
		return nil, err
	}
	return &TokenCodec{key: key, lifetime: lifetime, now: time.Now}, nil
}

// DecodeSigningKey decodes a base64 key in standard or URL alphabet, with or
// without padding, and enforces the minimum key length.
func DecodeSigningKey(secret string) ([]byte, error) {
	if secret == "" {
		return nil, errors.New("signing key is empty")
	}
	var key []byte
	var err error
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding} {
		if key, err = enc.DecodeString(secret); err == nil {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("signing key is not valid base64: %w", err)
	}
	if len(key) < MinSigningKeyBytes {
		return nil, fmt.Errorf("signing key must be at least %d bits, got %d", MinSigningKeyBytes*8, len(key)*8)
	}
	return key, nil
}

// Lifetime returns the configured token lifetime.
func (c *TokenCodec) Lifetime() time.Duration { return c.lifetime }

// Issue signs a token for subject with iat=now and exp=now+lifetime, both
// kept to millisecond precision.
func (c *TokenCodec) Issue(subject string, now time.Time) (string, error) {
	now = now.Truncate(time.Millisecond)
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(c.lifetime)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, then expiry, then returns the subject. Every
// failure is reported as ErrInvalidToken. There is no clock-skew leeway.
func (c *TokenCodec) Verify(tokenStr string) (string, error) {
	if tokenStr == "" {
		return "", ErrInvalidToken
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims,
		func(*jwt.Token) (interface{}, error) { return c.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	if claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
