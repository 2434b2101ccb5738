package service

import (
	"context"
	"errors"

	"github.com/tomislavmiksik/phoenix-be/internal/model"
	"github.com/tomislavmiksik/phoenix-be/internal/store"
)

// RecentWindow is the number of newest measurements considered by Recent.
const RecentWindow = 10

// MeasurementStore persists measurements and resolves their owners.
type MeasurementStore interface {
	FindUserByUsername(ctx context.Context, username string) (*model.User, error)
	CreateMeasurement(ctx context.Context, m *model.Measurement) error
	GetMeasurement(ctx context.Context, id int64) (*model.Measurement, error)
	ListMeasurementsByUser(ctx context.Context, userID int64) ([]model.Measurement, error)
	RecentMeasurementsByUser(ctx context.Context, userID int64, limit int) ([]model.Measurement, error)
	UpdateMeasurement(ctx context.Context, m *model.Measurement) error
	DeleteMeasurement(ctx context.Context, id int64) error
}

// MeasurementService manages the measurements of the calling user. Every
// method takes the username of the authenticated caller.
type MeasurementService struct {
	store MeasurementStore
}

func NewMeasurementService(s MeasurementStore) *MeasurementService {
	return &MeasurementService{store: s}
}

func (s *MeasurementService) owner(ctx context.Context, username string) (*model.User, error) {
	u, err := s.store.FindUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, unexpected("find user", err)
	}
	return u, nil
}

// owned loads a measurement and checks that it belongs to the caller.
func (s *MeasurementService) owned(ctx context.Context, username string, id int64) (*model.Measurement, error) {
	u, err := s.owner(ctx, username)
	if err != nil {
		return nil, err
	}
	m, err := s.store.GetMeasurement(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrMeasurementNotFound
		}
		return nil, unexpected("get measurement", err)
	}
	if m.UserID != u.ID {
		return nil, ErrAccessDenied
	}
	return m, nil
}

// Create records a new measurement for the caller. An omitted date means now.
func (s *MeasurementService) Create(ctx context.Context, username string, req model.MeasurementRequest) (*model.Measurement, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}
	u, err := s.owner(ctx, username)
	if err != nil {
		return nil, err
	}

	m := &model.Measurement{UserID: u.ID}
	apply(m, req)
	if err := s.store.CreateMeasurement(ctx, m); err != nil {
		return nil, unexpected("create measurement", err)
	}
	return m, nil
}

// List returns all of the caller's measurements, newest first.
func (s *MeasurementService) List(ctx context.Context, username string) ([]model.Measurement, error) {
	u, err := s.owner(ctx, username)
	if err != nil {
		return nil, err
	}
	ms, err := s.store.ListMeasurementsByUser(ctx, u.ID)
	if err != nil {
		return nil, unexpected("list measurements", err)
	}
	return ms, nil
}

// Recent returns at most limit of the caller's RecentWindow newest
// measurements. A limit above the window still yields at most RecentWindow.
func (s *MeasurementService) Recent(ctx context.Context, username string, limit int) ([]model.Measurement, error) {
	if limit < 0 {
		return nil, fieldError("limit", "must be greater than or equal to 0")
	}
	u, err := s.owner(ctx, username)
	if err != nil {
		return nil, err
	}
	ms, err := s.store.RecentMeasurementsByUser(ctx, u.ID, RecentWindow)
	if err != nil {
		return nil, unexpected("recent measurements", err)
	}
	if len(ms) > limit {
		ms = ms[:limit]
	}
	return ms, nil
}

// Get returns one of the caller's measurements.
func (s *MeasurementService) Get(ctx context.Context, username string, id int64) (*model.Measurement, error) {
	return s.owned(ctx, username, id)
}

// Update replaces the values of one of the caller's measurements. The
// measurement date is kept when the request omits it.
func (s *MeasurementService) Update(ctx context.Context, username string, id int64, req model.MeasurementRequest) (*model.Measurement, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}
	m, err := s.owned(ctx, username, id)
	if err != nil {
		return nil, err
	}
	apply(m, req)
	if err := s.store.UpdateMeasurement(ctx, m); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrMeasurementNotFound
		}
		return nil, unexpected("update measurement", err)
	}
	return m, nil
}

// Delete removes one of the caller's measurements.
func (s *MeasurementService) Delete(ctx context.Context, username string, id int64) error {
	if _, err := s.owned(ctx, username, id); err != nil {
		return err
	}
	if err := s.store.DeleteMeasurement(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrMeasurementNotFound
		}
		return unexpected("delete measurement", err)
	}
	return nil
}

// apply copies a validated request onto m.
func apply(m *model.Measurement, req model.MeasurementRequest) {
	m.Weight = *req.Weight
	m.Height = *req.Height
	m.ChestCircumference = req.ChestCircumference
	m.ArmCircumference = req.ArmCircumference
	m.LegCircumference = req.LegCircumference
	m.WaistCircumference = req.WaistCircumference
	if req.MeasurementDate != nil {
		m.MeasurementDate = req.MeasurementDate.UTC()
	}
}
