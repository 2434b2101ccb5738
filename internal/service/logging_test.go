package service

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomislavmiksik/phoenix-be/internal/model"
)

func TestAuthLoggingNeverLogsSecrets(t *testing.T) {
	auth, _ := newTestAuth(t)
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	logged := WithAuthLogging(auth, logger)
	ctx := context.Background()

	resp, err := logged.Register(ctx, model.RegisterRequest{Username: "alice", Email: "a@x.com", Password: "pw123!"})
	require.NoError(t, err)
	_, err = logged.Login(ctx, model.LoginRequest{Username: "alice", Password: "wrongpw"})
	require.ErrorIs(t, err, ErrBadCredentials)
	_, err = logged.AuthenticateToken(ctx, resp.Token)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "op=auth.register")
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "kind=invalid_credentials")
	assert.NotContains(t, out, "pw123!")
	assert.NotContains(t, out, "wrongpw")
	assert.NotContains(t, out, resp.Token)
}

func TestMeasurementLoggingLevels(t *testing.T) {
	svc, _ := newTestMeasurements(t)
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	logged := WithMeasurementLogging(svc, logger)
	ctx := context.Background()

	_, err := logged.List(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, buf.String(), "successes log at debug")

	_, err = logged.Get(ctx, "alice", 77)
	require.Error(t, err)
	assert.Contains(t, buf.String(), "op=measurement.get")
	assert.Contains(t, buf.String(), "kind=not_found")
}

func TestKeyLogging(t *testing.T) {
	admin := NewAdminService(newTestStore(t), 0)
	var buf bytes.Buffer
	logged := WithKeyLogging(admin, slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	resp, err := logged.CreateAPIKey(context.Background(), model.APIKeyRequest{Label: "ci"})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "op=admin.keygen")
	assert.NotContains(t, buf.String(), resp.APIKey)
}
