package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tomislavmiksik/phoenix-be/internal/model"
)

const userColumns = `id, username, email, password_hash, first_name, last_name, role, enabled, created_at, updated_at`

// CreateUser inserts a new user. ID, CreatedAt and UpdatedAt are populated
// after a successful insert. A username or email collision yields ErrDuplicate.
func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	if u.Role == "" {
		u.Role = model.RoleUser
	}

	const q = `INSERT INTO users
		(username, email, password_hash, first_name, last_name, role, enabled, created_at, updated_at)
		VALUES
		(:username, :email, :password_hash, :first_name, :last_name, :role, :enabled, :created_at, :updated_at)`

	id, err := s.insertReturningID(ctx, q, u)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert user: %w", err)
	}
	u.ID = id
	return nil
}

// FindUserByUsername returns the user with the given username.
func (s *Store) FindUserByUsername(ctx context.Context, username string) (*model.User, error) {
	var u model.User
	q := s.db.Rebind("SELECT " + userColumns + " FROM users WHERE username = ?")
	if err := s.db.GetContext(ctx, &u, q, username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user by username: %w", err)
	}
	return &u, nil
}

// ExistsByUsername reports whether a user with the username exists.
func (s *Store) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return s.exists(ctx, "SELECT COUNT(*) FROM users WHERE username = ?", username)
}

// ExistsByEmail reports whether a user with the email exists.
func (s *Store) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return s.exists(ctx, "SELECT COUNT(*) FROM users WHERE email = ?", email)
}

func (s *Store) exists(ctx context.Context, q string, arg interface{}) (bool, error) {
	var count int
	if err := s.db.GetContext(ctx, &count, s.db.Rebind(q), arg); err != nil {
		return false, fmt.Errorf("count users: %w", err)
	}
	return count > 0, nil
}

// ListUsers returns all users ordered by username.
func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := s.db.SelectContext(ctx, &users, "SELECT "+userColumns+" FROM users ORDER BY username"); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// SetUserEnabled enables or disables a user account.
func (s *Store) SetUserEnabled(ctx context.Context, username string, enabled bool) error {
	q := s.db.Rebind("UPDATE users SET enabled = ?, updated_at = ? WHERE username = ?")
	result, err := s.db.ExecContext(ctx, q, enabled, time.Now().UTC(), username)
	if err != nil {
		return fmt.Errorf("update user enabled: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user enabled rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
