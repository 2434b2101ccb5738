package store

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomislavmiksik/phoenix-be/internal/model"
)

// newMockStore wraps a sqlmock connection. driverName controls the bind
// style sqlx uses ("pgx" for $1, anything else for ?).
func newMockStore(t *testing.T, dialect, driverName string) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &Store{db: sqlx.NewDb(db, driverName), dialect: dialect}, mock
}

func TestIsUniqueViolation(t *testing.T) {
	assert.False(t, isUniqueViolation(nil))
	assert.True(t, isUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.True(t, isUniqueViolation(&mysql.MySQLError{Number: 1062}))
	assert.False(t, isUniqueViolation(&mysql.MySQLError{Number: 1452}))
	assert.True(t, isUniqueViolation(errors.New("constraint failed: UNIQUE constraint failed: users.username (2067)")))
	assert.False(t, isUniqueViolation(errors.New("disk I/O error")))
}

func TestCreateUser_MySQLDuplicateMapsToErrDuplicate(t *testing.T) {
	s, mock := newMockStore(t, DialectMySQL, "mysql")

	mock.ExpectExec("INSERT INTO users").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'alice' for key 'username'"})

	err := s.CreateUser(context.Background(), &model.User{Username: "alice", Email: "a@x.com", PasswordHash: "h"})
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUser_PostgresUsesReturning(t *testing.T) {
	s, mock := newMockStore(t, DialectPostgres, "pgx")

	mock.ExpectQuery(regexp.QuoteMeta("RETURNING id")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(17)))

	u := &model.User{Username: "alice", Email: "a@x.com", PasswordHash: "h"}
	require.NoError(t, s.CreateUser(context.Background(), u))
	assert.Equal(t, int64(17), u.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUser_PostgresDuplicate(t *testing.T) {
	s, mock := newMockStore(t, DialectPostgres, "pgx")

	mock.ExpectQuery("INSERT INTO users").
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"})

	err := s.CreateUser(context.Background(), &model.User{Username: "alice", Email: "a@x.com", PasswordHash: "h"})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestFindActiveAPIKeyByHash_PostgresBinds(t *testing.T) {
	s, mock := newMockStore(t, DialectPostgres, "pgx")

	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE key_hash = $1 AND active = $2")).
		WithArgs("hash", true).
		WillReturnRows(sqlmock.NewRows([]string{"id", "key_hash", "label", "active", "expires_at", "created_at", "last_used_at"}).
			AddRow(int64(3), "hash", "ci", true, nil, now, nil))

	key, err := s.FindActiveAPIKeyByHash(context.Background(), "hash")
	require.NoError(t, err)
	assert.Equal(t, int64(3), key.ID)
	assert.Nil(t, key.ExpiresAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateAPIKeyLastUsed_DriverError(t *testing.T) {
	s, mock := newMockStore(t, DialectSQLite, "sqlite")

	mock.ExpectExec("UPDATE api_keys SET last_used_at").
		WillReturnError(errors.New("database is locked"))

	err := s.UpdateAPIKeyLastUsed(context.Background(), 1, time.Now())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "update api key last used")
}

func TestExistsByEmail_DriverError(t *testing.T) {
	s, mock := newMockStore(t, DialectSQLite, "sqlite")

	mock.ExpectQuery("SELECT COUNT").WillReturnError(errors.New("connection reset"))

	_, err := s.ExistsByEmail(context.Background(), "a@x.com")
	assert.Error(t, err)
}
