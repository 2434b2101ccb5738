package mcp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomislavmiksik/phoenix-be/internal/model"
	"github.com/tomislavmiksik/phoenix-be/internal/service"
	"github.com/tomislavmiksik/phoenix-be/internal/store"
)

func newTestServer(t *testing.T, username string) (*MCPServer, *store.Store) {
	t.Helper()
	ctx := context.Background()
	st, err := store.Open(ctx, store.DialectSQLite, "")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	for _, name := range []string{"alice", "bob"} {
		require.NoError(t, st.CreateUser(ctx, &model.User{
			Username:     name,
			Email:        name + "@example.com",
			PasswordHash: "x",
			FirstName:    "First " + name,
			Enabled:      true,
		}))
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.NewMeasurementService(st)
	return NewMCPServer(svc, st, username, "test", logger), st
}

func record(t *testing.T, s *MCPServer, args map[string]interface{}) model.Measurement {
	t.Helper()
	res, err := s.handleRecordMeasurement(context.Background(), callRequest(args))
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(t, res))
	var m model.Measurement
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &m))
	return m
}

func TestRecordAndList(t *testing.T) {
	s, _ := newTestServer(t, "alice")
	ctx := context.Background()

	first := record(t, s, map[string]interface{}{
		"weight": 80.0, "height": 180.0, "measurementDate": "2026-01-01T07:00:00Z",
	})
	second := record(t, s, map[string]interface{}{
		"weight": 79.0, "height": 180.0, "waist": 85.0, "measurementDate": "2026-02-01T07:00:00Z",
	})
	require.NotNil(t, second.WaistCircumference)
	assert.Equal(t, 85.0, *second.WaistCircumference)
	assert.Nil(t, second.ChestCircumference)

	res, err := s.handleListMeasurements(ctx, callRequest(nil))
	require.NoError(t, err)
	var list []model.Measurement
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &list))
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
}

func TestRecordMeasurement_Invalid(t *testing.T) {
	s, _ := newTestServer(t, "alice")
	ctx := context.Background()

	tests := []struct {
		name string
		args map[string]interface{}
		want string
	}{
		{"missing height", map[string]interface{}{"weight": 80.0}, "weight and height are required"},
		{"out of range", map[string]interface{}{"weight": 2000.0, "height": 180.0}, "Validation failed"},
		{"bad date", map[string]interface{}{"weight": 80.0, "height": 180.0, "measurementDate": "soon"}, "RFC 3339"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := s.handleRecordMeasurement(ctx, callRequest(tt.args))
			require.NoError(t, err)
			assert.True(t, res.IsError)
			assert.Contains(t, resultText(t, res), tt.want)
		})
	}
}

func TestRecentMeasurements(t *testing.T) {
	s, _ := newTestServer(t, "alice")
	for i := 0; i < 3; i++ {
		record(t, s, map[string]interface{}{"weight": 80.0 + float64(i), "height": 180.0})
	}

	res, err := s.handleRecentMeasurements(context.Background(), callRequest(map[string]interface{}{"limit": float64(2)}))
	require.NoError(t, err)
	var list []model.Measurement
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &list))
	assert.Len(t, list, 2)

	res, err = s.handleRecentMeasurements(context.Background(), callRequest(map[string]interface{}{"limit": float64(-1)}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestGetAndDelete_Ownership(t *testing.T) {
	alice, st := newTestServer(t, "alice")
	m := record(t, alice, map[string]interface{}{"weight": 70.0, "height": 170.0})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bob := NewMCPServer(service.NewMeasurementService(st), st, "bob", "test", logger)
	ctx := context.Background()
	args := map[string]interface{}{"id": float64(m.ID)}

	res, err := bob.handleGetMeasurement(ctx, callRequest(args))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Equal(t, "Access denied", resultText(t, res))

	res, err = bob.handleDeleteMeasurement(ctx, callRequest(args))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = alice.handleGetMeasurement(ctx, callRequest(args))
	require.NoError(t, err)
	assert.False(t, res.IsError)

	res, err = alice.handleDeleteMeasurement(ctx, callRequest(args))
	require.NoError(t, err)
	assert.False(t, res.IsError)

	res, err = alice.handleGetMeasurement(ctx, callRequest(args))
	require.NoError(t, err)
	assert.Equal(t, "Measurement not found", resultText(t, res))
}

func TestProfileResource(t *testing.T) {
	s, _ := newTestServer(t, "alice")

	var req mcp.ReadResourceRequest
	req.Params.URI = profileURI
	contents, err := s.handleProfileResource(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, contents, 1)

	text, ok := contents[0].(mcp.TextResourceContents)
	require.True(t, ok)
	assert.Equal(t, "application/json", text.MIMEType)

	var p map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(text.Text), &p))
	assert.Equal(t, "alice", p["username"])
	assert.Equal(t, "USER", p["role"])
	assert.NotContains(t, p, "passwordHash")
	assert.NotContains(t, p, "enabled")
}

func TestProfileResource_UnknownUser(t *testing.T) {
	s, _ := newTestServer(t, "carol")

	var req mcp.ReadResourceRequest
	req.Params.URI = profileURI
	_, err := s.handleProfileResource(context.Background(), req)
	assert.Error(t, err)
}

func TestNewMCPServer_RegistersTools(t *testing.T) {
	s, _ := newTestServer(t, "alice")
	tools := s.Server().ListTools()
	for _, name := range []string{
		"phoenix_list_measurements",
		"phoenix_recent_measurements",
		"phoenix_get_measurement",
		"phoenix_record_measurement",
		"phoenix_delete_measurement",
	} {
		assert.Contains(t, tools, name)
	}
}
