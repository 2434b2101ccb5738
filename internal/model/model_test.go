package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{"USER", RoleUser, false},
		{"admin", RoleAdmin, false},
		{" Admin ", RoleAdmin, false},
		{"root", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRole(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUserJSONHidesPasswordHash(t *testing.T) {
	u := User{ID: 7, Username: "alice", Email: "a@x.com", PasswordHash: "$2a$10$secret", Role: RoleUser, Enabled: true}

	b, err := json.Marshal(u)
	require.NoError(t, err)

	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &m))
	assert.NotContains(t, m, "passwordHash")
	assert.NotContains(t, string(b), "$2a$10$secret")
	assert.Equal(t, "USER", m["role"])
}

func TestAPIKeyJSONHidesHash(t *testing.T) {
	k := APIKey{ID: 1, KeyHash: "deadbeef", Label: "ci", Active: true}

	b, err := json.Marshal(k)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "deadbeef")
	assert.NotContains(t, string(b), "expiresAt")
}

func TestAPIKeyExpiredAt(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Second)
	future := now.Add(time.Second)

	assert.True(t, (&APIKey{ExpiresAt: &past}).ExpiredAt(now))
	assert.False(t, (&APIKey{ExpiresAt: &future}).ExpiredAt(now))
	assert.False(t, (&APIKey{ExpiresAt: &now}).ExpiredAt(now), "expiry equal to now is not yet past")
	assert.False(t, (&APIKey{}).ExpiredAt(now), "keys without expiry never expire")
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"720h", 720 * time.Hour, false},
		{"90m", 90 * time.Minute, false},
		{"PT720H", 720 * time.Hour, false},
		{"P30D", 30 * 24 * time.Hour, false},
		{"P1DT2H30M", 26*time.Hour + 30*time.Minute, false},
		{"pt0.5s", 500 * time.Millisecond, false},
		{"-PT1H", -time.Hour, false},
		{"P", 0, true},
		{"P1Y", 0, true},
		{"PT1D", 0, true},
		{"P1H", 0, true},
		{"PT5", 0, true},
		{"", 0, true},
		{"soon", 0, true},
		{"P100000D", 100000 * 24 * time.Hour, false},
		{"P200000D", 0, true},
		{"PT9000000000000S", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDuration(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDurationUnmarshalJSON(t *testing.T) {
	var req APIKeyRequest

	require.NoError(t, json.Unmarshal([]byte(`{"label":"ci","validFor":"P7D"}`), &req))
	require.NotNil(t, req.ValidFor)
	assert.Equal(t, 7*24*time.Hour, req.ValidFor.Std())

	req = APIKeyRequest{}
	require.NoError(t, json.Unmarshal([]byte(`{"label":"ci","validFor":60000}`), &req))
	require.NotNil(t, req.ValidFor)
	assert.Equal(t, time.Minute, req.ValidFor.Std())

	req = APIKeyRequest{}
	require.NoError(t, json.Unmarshal([]byte(`{"label":"ci"}`), &req))
	assert.Nil(t, req.ValidFor)

	assert.Error(t, json.Unmarshal([]byte(`{"label":"ci","validFor":true}`), &req))
	assert.Error(t, json.Unmarshal([]byte(`{"label":"ci","validFor":18446744073710}`), &req), "would wrap to microseconds")

	req = APIKeyRequest{}
	require.NoError(t, json.Unmarshal([]byte(`{"label":"ci","validFor":9223372036854}`), &req))
	assert.Equal(t, time.Duration(9223372036854)*time.Millisecond, req.ValidFor.Std())
	assert.Error(t, json.Unmarshal([]byte(`{"label":"ci","validFor":"tomorrow"}`), &req))
}

func TestMeasurementJSONKeepsNullCircumferences(t *testing.T) {
	m := Measurement{ID: 1, UserID: 2, Weight: 75.5, Height: 180}

	b, err := json.Marshal(m)
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Contains(t, out, "chestCircumference")
	assert.Nil(t, out["chestCircumference"])
	assert.Equal(t, 75.5, out["weight"])
}
