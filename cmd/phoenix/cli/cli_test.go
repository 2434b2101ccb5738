package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomislavmiksik/phoenix-be/internal/model"
	"github.com/tomislavmiksik/phoenix-be/internal/service"
)

// run executes the command tree against an isolated data directory.
func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("PHOENIX_AUTH_BCRYPT_COST", "4")

	cmd := newRootCmd("1.2.3", "abc123", "2026-01-01")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--data-dir", dir}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionJSON(t *testing.T) {
	out, err := run(t, t.TempDir(), "version", "--json")
	require.NoError(t, err)

	var info map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, "1.2.3", info["version"])
	assert.Equal(t, "abc123", info["commit"])
}

func TestConfigInit(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, dir, "config", "init", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "phoenix.yaml")

	data, err := os.ReadFile(filepath.Join(dir, "phoenix.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "api_key_header: X-API-KEY")

	_, err = run(t, dir, "config", "init", "--dir", dir)
	assert.Error(t, err, "existing file is kept without --force")

	_, err = run(t, dir, "config", "init", "--dir", dir, "--force")
	assert.NoError(t, err)
}

func TestConfigShowMasksSecret(t *testing.T) {
	t.Setenv("PHOENIX_AUTH_JWT_SECRET", "c3VwZXItc2VjcmV0LXZhbHVlLXRoYXQtaXMtbG9uZy1lbm91Z2g=")

	out, err := run(t, t.TempDir(), "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "********")
	assert.NotContains(t, out, "c3VwZXItc2VjcmV0")
}

func TestUserLifecycle(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, dir, "user", "create", "--username", "root", "--email", "root@example.com", "--password", "s3cret!", "--admin")
	require.NoError(t, err)
	assert.Contains(t, out, `Created ADMIN user "root"`)

	_, err = run(t, dir, "user", "create", "--username", "root", "--email", "other@example.com", "--password", "s3cret!")
	assert.EqualError(t, err, "Username is already taken")

	_, err = run(t, dir, "user", "create", "--username", "x", "--email", "bad", "--password", "s3cret!")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Validation failed")
	assert.Contains(t, err.Error(), "email:")

	out, err = run(t, dir, "user", "disable", "root")
	require.NoError(t, err)
	assert.Contains(t, out, "disabled")

	out, err = run(t, dir, "user", "list", "--json")
	require.NoError(t, err)
	var users []model.User
	require.NoError(t, json.Unmarshal([]byte(out), &users))
	require.Len(t, users, 1)
	assert.Equal(t, model.RoleAdmin, users[0].Role)
	assert.False(t, users[0].Enabled)
	assert.NotContains(t, out, "$2a$", "password hash never printed")
}

func TestKeyLifecycle(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, dir, "key", "create", "--label", "ios", "--valid-for", "P7D", "--json")
	require.NoError(t, err)
	var created model.APIKeyResponse
	require.NoError(t, json.Unmarshal([]byte(out), &created))
	assert.Len(t, created.APIKey, 43)
	require.NotNil(t, created.ExpiresAt)

	_, err = run(t, dir, "key", "create", "--label", "bad", "--valid-for", "soon")
	assert.Error(t, err)

	out, err = run(t, dir, "key", "list", "--json")
	require.NoError(t, err)
	var keys []model.APIKey
	require.NoError(t, json.Unmarshal([]byte(out), &keys))
	require.Len(t, keys, 1)
	assert.True(t, keys[0].Active)
	assert.NotContains(t, out, service.HashAPIKey(created.APIKey))

	out, err = run(t, dir, "key", "revoke", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Revoked API key 1")

	_, err = run(t, dir, "key", "revoke", "99")
	assert.EqualError(t, err, "API key not found")

	_, err = run(t, dir, "key", "revoke", "abc")
	assert.Error(t, err)

	out, err = run(t, dir, "key", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "ios")
	assert.Contains(t, out, "no")
}

func TestOpenAPIOutput(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "spec.json")

	_, err := run(t, dir, "openapi", "-o", path, "--base-url", "https://api.example.com")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "3.1.0", doc["openapi"])
	assert.Contains(t, string(data), "https://api.example.com")
}

func TestMCPRequiresKnownUser(t *testing.T) {
	_, err := run(t, t.TempDir(), "mcp", "--user", "ghost")
	assert.Error(t, err)

	_, err = run(t, t.TempDir(), "mcp", "--user", "ghost", "--transport", "carrier-pigeon")
	assert.EqualError(t, err, `unsupported transport "carrier-pigeon"; use 'stdio' or 'http'`)
}

func TestStatusWithoutServer(t *testing.T) {
	out, err := run(t, t.TempDir(), "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Server is not running (no PID file found).")

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "phoenix.pid"), []byte("999999999"), 0o600))
	out, err = run(t, dir, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "stale PID file removed")
	assert.NoFileExists(t, filepath.Join(dir, "phoenix.pid"))

	_, err = run(t, t.TempDir(), "stop")
	assert.ErrorContains(t, err, "no running server found")
}

func TestLocalAddr(t *testing.T) {
	assert.Equal(t, "127.0.0.1:8080", localAddr("0.0.0.0", 0))
	assert.Equal(t, "127.0.0.1:9000", localAddr("", 9000))
	assert.Equal(t, "10.0.0.5:8080", localAddr("10.0.0.5", 8080))
	assert.Equal(t, "[::1]:8080", localAddr("::1", 8080))
}

func TestDescribe(t *testing.T) {
	err := describe(service.Validate(model.LoginRequest{}))
	assert.Equal(t, "Validation failed\n  password: must not be blank\n  username: must not be blank", err.Error())

	assert.Equal(t, service.ErrBadCredentials, describe(service.ErrBadCredentials))
}

func TestVersionString(t *testing.T) {
	defer func(v string) { appVersion = v }(appVersion)

	for in, want := range map[string]string{"": "dev", "dev": "dev", "1.0.0": "v1.0.0", "v2.1.0": "v2.1.0"} {
		appVersion = in
		assert.Equal(t, want, versionString())
	}
}
