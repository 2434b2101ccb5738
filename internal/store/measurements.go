package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tomislavmiksik/phoenix-be/internal/model"
)

const measurementColumns = `id, user_id, weight, height, chest_circumference, arm_circumference,
	leg_circumference, waist_circumference, measurement_date, created_at, updated_at`

// CreateMeasurement inserts a measurement. ID, CreatedAt and UpdatedAt are
// populated after insert; a zero MeasurementDate defaults to the insert time.
func (s *Store) CreateMeasurement(ctx context.Context, m *model.Measurement) error {
	now := time.Now().UTC()
	m.CreatedAt = now
	m.UpdatedAt = now
	if m.MeasurementDate.IsZero() {
		m.MeasurementDate = now
	}
	m.MeasurementDate = m.MeasurementDate.UTC()

	const q = `INSERT INTO measurements
		(user_id, weight, height, chest_circumference, arm_circumference, leg_circumference,
		 waist_circumference, measurement_date, created_at, updated_at)
		VALUES
		(:user_id, :weight, :height, :chest_circumference, :arm_circumference, :leg_circumference,
		 :waist_circumference, :measurement_date, :created_at, :updated_at)`

	id, err := s.insertReturningID(ctx, q, m)
	if err != nil {
		return fmt.Errorf("insert measurement: %w", err)
	}
	m.ID = id
	return nil
}

// GetMeasurement returns a measurement by ID regardless of owner.
func (s *Store) GetMeasurement(ctx context.Context, id int64) (*model.Measurement, error) {
	var m model.Measurement
	q := s.db.Rebind("SELECT " + measurementColumns + " FROM measurements WHERE id = ?")
	if err := s.db.GetContext(ctx, &m, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get measurement: %w", err)
	}
	return &m, nil
}

// ListMeasurementsByUser returns every measurement of a user, newest
// measurement date first.
func (s *Store) ListMeasurementsByUser(ctx context.Context, userID int64) ([]model.Measurement, error) {
	return s.selectMeasurements(ctx, 0, userID)
}

// RecentMeasurementsByUser returns at most limit measurements of a user,
// newest measurement date first.
func (s *Store) RecentMeasurementsByUser(ctx context.Context, userID int64, limit int) ([]model.Measurement, error) {
	if limit <= 0 {
		return []model.Measurement{}, nil
	}
	return s.selectMeasurements(ctx, limit, userID)
}

func (s *Store) selectMeasurements(ctx context.Context, limit int, userID int64) ([]model.Measurement, error) {
	q := "SELECT " + measurementColumns + " FROM measurements WHERE user_id = ? ORDER BY measurement_date DESC, id DESC"
	args := []interface{}{userID}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	measurements := []model.Measurement{}
	if err := s.db.SelectContext(ctx, &measurements, s.db.Rebind(q), args...); err != nil {
		return nil, fmt.Errorf("list measurements: %w", err)
	}
	return measurements, nil
}

// UpdateMeasurement overwrites the mutable fields of a measurement.
// UpdatedAt is refreshed automatically.
func (s *Store) UpdateMeasurement(ctx context.Context, m *model.Measurement) error {
	m.UpdatedAt = time.Now().UTC()
	m.MeasurementDate = m.MeasurementDate.UTC()

	const q = `UPDATE measurements SET
		weight = :weight, height = :height,
		chest_circumference = :chest_circumference, arm_circumference = :arm_circumference,
		leg_circumference = :leg_circumference, waist_circumference = :waist_circumference,
		measurement_date = :measurement_date, updated_at = :updated_at
		WHERE id = :id`

	result, err := s.db.NamedExecContext(ctx, q, m)
	if err != nil {
		return fmt.Errorf("update measurement: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update measurement rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteMeasurement removes a measurement by ID.
func (s *Store) DeleteMeasurement(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, s.db.Rebind("DELETE FROM measurements WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("delete measurement: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete measurement rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
