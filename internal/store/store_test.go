package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomislavmiksik/phoenix-be/internal/model"
)

// newTestStore opens a fresh in-memory SQLite store and closes it when the
// test finishes.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), DialectSQLite, "")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func seedUser(t *testing.T, s *Store, username, email string) *model.User {
	t.Helper()
	u := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: "$2a$10$hash",
		Role:         model.RoleUser,
		Enabled:      true,
	}
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}

func ptr(f float64) *float64 { return &f }

// ---------------------------------------------------------------------------
// Open
// ---------------------------------------------------------------------------

func TestOpen_UnknownDialect(t *testing.T) {
	_, err := Open(context.Background(), "oracle", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}

func TestOpen_MigrationsAreIdempotent(t *testing.T) {
	dir := t.TempDir()
	path, err := SQLitePath(dir)
	require.NoError(t, err)

	s1, err := Open(context.Background(), "sqlite3", path)
	require.NoError(t, err)
	seedUser(t, s1, "alice", "a@x.com")
	require.NoError(t, s1.Close())

	s2, err := Open(context.Background(), DialectSQLite, path)
	require.NoError(t, err)
	defer s2.Close()

	u, err := s2.FindUserByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", u.Email)
	assert.Equal(t, DialectSQLite, s2.Dialect())
	assert.NoError(t, s2.Ping(context.Background()))
}

func TestNormalizeDialect(t *testing.T) {
	tests := map[string]string{
		"":           DialectSQLite,
		"SQLite3":    DialectSQLite,
		"postgresql": DialectPostgres,
		"pgx":        DialectPostgres,
		"mariadb":    DialectMySQL,
	}
	for in, want := range tests {
		got, err := normalizeDialect(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestNormalizeMySQLDSN(t *testing.T) {
	dsn, err := normalizeMySQLDSN("phoenix:secret@tcp(db:3306)/phoenix")
	require.NoError(t, err)
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "clientFoundRows=true")

	_, err = normalizeMySQLDSN("not a dsn")
	assert.Error(t, err)
}

// ---------------------------------------------------------------------------
// Users
// ---------------------------------------------------------------------------

func TestCreateAndFindUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := &model.User{
		Username:     "alice",
		Email:        "a@x.com",
		PasswordHash: "$2a$10$hash",
		FirstName:    "Alice",
		LastName:     "Liddell",
		Enabled:      true,
	}
	require.NoError(t, s.CreateUser(ctx, u))
	assert.NotZero(t, u.ID)
	assert.Equal(t, model.RoleUser, u.Role, "role defaults to USER")

	got, err := s.FindUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "Alice", got.FirstName)
	assert.Equal(t, "$2a$10$hash", got.PasswordHash)
	assert.True(t, got.Enabled)
	assert.WithinDuration(t, u.CreatedAt, got.CreatedAt, time.Second)

	_, err = s.FindUserByUsername(ctx, "bob")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserExistence(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedUser(t, s, "alice", "a@x.com")

	ok, err := s.ExistsByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.ExistsByUsername(ctx, "bob")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.ExistsByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.ExistsByEmail(ctx, "b@x.com")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCreateUser_DuplicateUsernameOrEmail(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedUser(t, s, "alice", "a@x.com")

	err := s.CreateUser(ctx, &model.User{Username: "alice", Email: "other@x.com", PasswordHash: "h"})
	assert.ErrorIs(t, err, ErrDuplicate)

	err = s.CreateUser(ctx, &model.User{Username: "alice2", Email: "a@x.com", PasswordHash: "h"})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestListUsersAndSetEnabled(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedUser(t, s, "carol", "c@x.com")
	seedUser(t, s, "alice", "a@x.com")

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "alice", users[0].Username)

	require.NoError(t, s.SetUserEnabled(ctx, "alice", false))
	u, err := s.FindUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, u.Enabled)

	assert.ErrorIs(t, s.SetUserEnabled(ctx, "nobody", true), ErrNotFound)
}

// ---------------------------------------------------------------------------
// API keys
// ---------------------------------------------------------------------------

func TestAPIKeyLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	expires := time.Now().UTC().Add(time.Hour)
	key := &model.APIKey{KeyHash: "abc123", Label: "ci", Active: true, ExpiresAt: &expires}
	require.NoError(t, s.CreateAPIKey(ctx, key))
	assert.NotZero(t, key.ID)

	got, err := s.FindActiveAPIKeyByHash(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, "ci", got.Label)
	require.NotNil(t, got.ExpiresAt)
	assert.WithinDuration(t, expires, *got.ExpiresAt, time.Second)
	assert.Nil(t, got.LastUsedAt)

	usedAt := time.Now().UTC()
	require.NoError(t, s.UpdateAPIKeyLastUsed(ctx, key.ID, usedAt))
	got, err = s.FindActiveAPIKeyByHash(ctx, "abc123")
	require.NoError(t, err)
	require.NotNil(t, got.LastUsedAt)
	assert.WithinDuration(t, usedAt, *got.LastUsedAt, time.Second)

	require.NoError(t, s.RevokeAPIKey(ctx, key.ID))
	_, err = s.FindActiveAPIKeyByHash(ctx, "abc123")
	assert.ErrorIs(t, err, ErrNotFound, "revoked keys are not returned")

	keys, err := s.ListAPIKeys(ctx)
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.False(t, keys[0].Active)
}

func TestAPIKey_DuplicateHash(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateAPIKey(ctx, &model.APIKey{KeyHash: "same", Active: true}))
	err := s.CreateAPIKey(ctx, &model.APIKey{KeyHash: "same", Active: true})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestAPIKey_MissingRows(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	assert.ErrorIs(t, s.RevokeAPIKey(ctx, 42), ErrNotFound)
	assert.ErrorIs(t, s.UpdateAPIKeyLastUsed(ctx, 42, time.Now()), ErrNotFound)
}

// ---------------------------------------------------------------------------
// Measurements
// ---------------------------------------------------------------------------

func TestMeasurementCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := seedUser(t, s, "alice", "a@x.com")

	m := &model.Measurement{UserID: u.ID, Weight: 75.5, Height: 180, ChestCircumference: ptr(100)}
	require.NoError(t, s.CreateMeasurement(ctx, m))
	assert.NotZero(t, m.ID)
	assert.False(t, m.MeasurementDate.IsZero(), "measurement date defaults to now")

	got, err := s.GetMeasurement(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.UserID)
	assert.InDelta(t, 75.5, got.Weight, 0.001)
	require.NotNil(t, got.ChestCircumference)
	assert.InDelta(t, 100, *got.ChestCircumference, 0.001)
	assert.Nil(t, got.ArmCircumference)

	got.Weight = 76
	got.WaistCircumference = ptr(82.5)
	require.NoError(t, s.UpdateMeasurement(ctx, got))

	updated, err := s.GetMeasurement(ctx, m.ID)
	require.NoError(t, err)
	assert.InDelta(t, 76, updated.Weight, 0.001)
	require.NotNil(t, updated.WaistCircumference)
	assert.InDelta(t, 82.5, *updated.WaistCircumference, 0.001)

	require.NoError(t, s.DeleteMeasurement(ctx, m.ID))
	_, err = s.GetMeasurement(ctx, m.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.DeleteMeasurement(ctx, m.ID), ErrNotFound)
	assert.ErrorIs(t, s.UpdateMeasurement(ctx, &model.Measurement{ID: 999}), ErrNotFound)
}

func TestMeasurementOrderingAndLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	alice := seedUser(t, s, "alice", "a@x.com")
	bob := seedUser(t, s, "bob", "b@x.com")

	base := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 12; i++ {
		m := &model.Measurement{UserID: alice.ID, Weight: 70 + float64(i), Height: 180, MeasurementDate: base.AddDate(0, 0, i)}
		require.NoError(t, s.CreateMeasurement(ctx, m))
	}
	require.NoError(t, s.CreateMeasurement(ctx, &model.Measurement{UserID: bob.ID, Weight: 90, Height: 170, MeasurementDate: base}))

	all, err := s.ListMeasurementsByUser(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, all, 12)
	assert.InDelta(t, 81, all[0].Weight, 0.001, "newest first")
	assert.InDelta(t, 70, all[11].Weight, 0.001)
	for i := 1; i < len(all); i++ {
		assert.False(t, all[i].MeasurementDate.After(all[i-1].MeasurementDate))
	}

	recent, err := s.RecentMeasurementsByUser(ctx, alice.ID, 10)
	require.NoError(t, err)
	require.Len(t, recent, 10)
	assert.Equal(t, all[0].ID, recent[0].ID)

	none, err := s.RecentMeasurementsByUser(ctx, alice.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, none)

	empty, err := s.ListMeasurementsByUser(ctx, 12345)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestMeasurementRequiresExistingUser(t *testing.T) {
	s := newTestStore(t)
	err := s.CreateMeasurement(context.Background(), &model.Measurement{UserID: 404, Weight: 1, Height: 1})
	assert.Error(t, err, "foreign key is enforced")
}
