package service

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSecret(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		s, err := GenerateSecret()
		require.NoError(t, err)
		assert.Len(t, s, 43)
		assert.NotContains(t, s, "=")

		b, err := base64.RawURLEncoding.DecodeString(s)
		require.NoError(t, err)
		assert.Len(t, b, 32)

		assert.False(t, seen[s], "duplicate secret generated")
		seen[s] = true
	}
}

func TestHashAPIKey(t *testing.T) {
	h := HashAPIKey("hello")
	assert.Equal(t, "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", h)
	assert.NotEqual(t, h, HashAPIKey("hellp"))
}
