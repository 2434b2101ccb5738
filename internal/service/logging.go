package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/tomislavmiksik/phoenix-be/internal/model"
)

// Authenticator is the capability consumed by the auth handlers and the
// request filters.
type Authenticator interface {
	Register(ctx context.Context, req model.RegisterRequest) (*model.AuthResponse, error)
	Login(ctx context.Context, req model.LoginRequest) (*model.AuthResponse, error)
	AuthenticateToken(ctx context.Context, token string) (*model.User, error)
	AuthenticateAPIKey(ctx context.Context, raw string) (*model.APIKey, error)
}

// KeyIssuer creates API keys.
type KeyIssuer interface {
	CreateAPIKey(ctx context.Context, req model.APIKeyRequest) (*model.APIKeyResponse, error)
}

// MeasurementManager is the measurement capability used by HTTP and MCP.
type MeasurementManager interface {
	Create(ctx context.Context, username string, req model.MeasurementRequest) (*model.Measurement, error)
	List(ctx context.Context, username string) ([]model.Measurement, error)
	Recent(ctx context.Context, username string, limit int) ([]model.Measurement, error)
	Get(ctx context.Context, username string, id int64) (*model.Measurement, error)
	Update(ctx context.Context, username string, id int64, req model.MeasurementRequest) (*model.Measurement, error)
	Delete(ctx context.Context, username string, id int64) error
}

var (
	_ Authenticator      = (*AuthService)(nil)
	_ KeyIssuer          = (*AdminService)(nil)
	_ MeasurementManager = (*MeasurementService)(nil)
)

// logCall records the outcome of a service call. Client errors are logged at
// warn, unexpected ones at error, successes at debug. Secrets never reach
// attrs.
func logCall(ctx context.Context, logger *slog.Logger, op string, start time.Time, err error, attrs ...slog.Attr) {
	attrs = append(attrs,
		slog.String("op", op),
		slog.Duration("duration", time.Since(start)),
	)
	switch kind := KindOf(err); {
	case err == nil:
		logger.LogAttrs(ctx, slog.LevelDebug, "service call", attrs...)
	case kind == KindUnexpected:
		attrs = append(attrs, slog.String("error", err.Error()))
		logger.LogAttrs(ctx, slog.LevelError, "service call failed", attrs...)
	default:
		attrs = append(attrs, slog.String("kind", kind.String()), slog.String("error", err.Error()))
		logger.LogAttrs(ctx, slog.LevelWarn, "service call rejected", attrs...)
	}
}

type loggingAuthenticator struct {
	next   Authenticator
	logger *slog.Logger
}

// WithAuthLogging wraps an Authenticator with structured logging.
func WithAuthLogging(next Authenticator, logger *slog.Logger) Authenticator {
	return &loggingAuthenticator{next: next, logger: logger}
}

func (l *loggingAuthenticator) Register(ctx context.Context, req model.RegisterRequest) (resp *model.AuthResponse, err error) {
	defer func(start time.Time) {
		logCall(ctx, l.logger, "auth.register", start, err, slog.String("username", req.Username))
	}(time.Now())
	return l.next.Register(ctx, req)
}

func (l *loggingAuthenticator) Login(ctx context.Context, req model.LoginRequest) (resp *model.AuthResponse, err error) {
	defer func(start time.Time) {
		logCall(ctx, l.logger, "auth.login", start, err, slog.String("username", req.Username))
	}(time.Now())
	return l.next.Login(ctx, req)
}

func (l *loggingAuthenticator) AuthenticateToken(ctx context.Context, token string) (u *model.User, err error) {
	defer func(start time.Time) {
		var attrs []slog.Attr
		if u != nil {
			attrs = append(attrs, slog.String("username", u.Username))
		}
		logCall(ctx, l.logger, "auth.token", start, err, attrs...)
	}(time.Now())
	return l.next.AuthenticateToken(ctx, token)
}

func (l *loggingAuthenticator) AuthenticateAPIKey(ctx context.Context, raw string) (key *model.APIKey, err error) {
	defer func(start time.Time) {
		var attrs []slog.Attr
		if key != nil {
			attrs = append(attrs, slog.Int64("key_id", key.ID))
		}
		logCall(ctx, l.logger, "auth.api_key", start, err, attrs...)
	}(time.Now())
	return l.next.AuthenticateAPIKey(ctx, raw)
}

type loggingKeyIssuer struct {
	next   KeyIssuer
	logger *slog.Logger
}

// WithKeyLogging wraps a KeyIssuer with structured logging.
func WithKeyLogging(next KeyIssuer, logger *slog.Logger) KeyIssuer {
	return &loggingKeyIssuer{next: next, logger: logger}
}

func (l *loggingKeyIssuer) CreateAPIKey(ctx context.Context, req model.APIKeyRequest) (resp *model.APIKeyResponse, err error) {
	defer func(start time.Time) {
		logCall(ctx, l.logger, "admin.keygen", start, err, slog.String("label", req.Label))
	}(time.Now())
	return l.next.CreateAPIKey(ctx, req)
}

type loggingMeasurements struct {
	next   MeasurementManager
	logger *slog.Logger
}

// WithMeasurementLogging wraps a MeasurementManager with structured logging.
func WithMeasurementLogging(next MeasurementManager, logger *slog.Logger) MeasurementManager {
	return &loggingMeasurements{next: next, logger: logger}
}

func (l *loggingMeasurements) Create(ctx context.Context, username string, req model.MeasurementRequest) (m *model.Measurement, err error) {
	defer func(start time.Time) {
		logCall(ctx, l.logger, "measurement.create", start, err, slog.String("username", username))
	}(time.Now())
	return l.next.Create(ctx, username, req)
}

func (l *loggingMeasurements) List(ctx context.Context, username string) (ms []model.Measurement, err error) {
	defer func(start time.Time) {
		logCall(ctx, l.logger, "measurement.list", start, err, slog.String("username", username), slog.Int("count", len(ms)))
	}(time.Now())
	return l.next.List(ctx, username)
}

func (l *loggingMeasurements) Recent(ctx context.Context, username string, limit int) (ms []model.Measurement, err error) {
	defer func(start time.Time) {
		logCall(ctx, l.logger, "measurement.recent", start, err, slog.String("username", username), slog.Int("limit", limit))
	}(time.Now())
	return l.next.Recent(ctx, username, limit)
}

func (l *loggingMeasurements) Get(ctx context.Context, username string, id int64) (m *model.Measurement, err error) {
	defer func(start time.Time) {
		logCall(ctx, l.logger, "measurement.get", start, err, slog.String("username", username), slog.Int64("id", id))
	}(time.Now())
	return l.next.Get(ctx, username, id)
}

func (l *loggingMeasurements) Update(ctx context.Context, username string, id int64, req model.MeasurementRequest) (m *model.Measurement, err error) {
	defer func(start time.Time) {
		logCall(ctx, l.logger, "measurement.update", start, err, slog.String("username", username), slog.Int64("id", id))
	}(time.Now())
	return l.next.Update(ctx, username, id, req)
}

func (l *loggingMeasurements) Delete(ctx context.Context, username string, id int64) (err error) {
	defer func(start time.Time) {
		logCall(ctx, l.logger, "measurement.delete", start, err, slog.String("username", username), slog.Int64("id", id))
	}(time.Now())
	return l.next.Delete(ctx, username, id)
}
