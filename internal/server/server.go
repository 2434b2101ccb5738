package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/tomislavmiksik/phoenix-be/internal/config"
	"github.com/tomislavmiksik/phoenix-be/internal/handler"
	"github.com/tomislavmiksik/phoenix-be/internal/metrics"
	"github.com/tomislavmiksik/phoenix-be/internal/model"
	"github.com/tomislavmiksik/phoenix-be/internal/openapi"
	"github.com/tomislavmiksik/phoenix-be/internal/server/middleware"
	"github.com/tomislavmiksik/phoenix-be/internal/service"
)

// Config holds the HTTP server configuration.
type Config struct {
	Host                 string
	Port                 int
	ShutdownTimeout      time.Duration
	CORSOrigins          []string
	MaxBodySize          int64 // bytes
	APIKeyHeader         string
	APIKeyExemptPrefixes []string
	AuthRateLimit        int // requests per minute per client, 0 disables
	MetricsEnabled       bool
	Version              string
}

// DefaultConfig returns a Config with sensible production defaults.
func DefaultConfig() Config {
	return ConfigFrom(config.Default(), "dev")
}

// ConfigFrom derives the server settings from the application config.
func ConfigFrom(c *config.Config, version string) Config {
	rate := 0
	if c.RateLimit.Enabled {
		rate = c.RateLimit.AuthRequestsPerMinute
	}
	return Config{
		Host:                 c.Server.Host,
		Port:                 c.Server.Port,
		ShutdownTimeout:      c.Server.ShutdownTimeout,
		CORSOrigins:          c.Server.CORS.Origins,
		MaxBodySize:          c.Server.MaxBodySize,
		APIKeyHeader:         c.Auth.APIKeyHeader,
		APIKeyExemptPrefixes: c.Auth.APIKeyExemptPrefixes,
		AuthRateLimit:        rate,
		MetricsEnabled:       c.Metrics.Enabled,
		Version:              version,
	}
}

// Deps are the services the routes delegate to.
type Deps struct {
	Auth         service.Authenticator
	Keys         service.KeyIssuer
	Measurements service.MeasurementManager
	DB           handler.Pinger
	Metrics      *metrics.Metrics // optional
}

// Server is the top-level HTTP server for phoenix. It owns the chi router
// and the services behind it.
type Server struct {
	cfg        Config
	deps       Deps
	router     chi.Router
	httpServer *http.Server
	logger     *slog.Logger
}

// New creates a new Server, wires up all routes and middleware, and returns
// it ready to listen. Call ListenAndServe to start accepting connections.
func New(cfg Config, deps Deps, logger *slog.Logger) *Server {
	if cfg.APIKeyHeader == "" {
		cfg.APIKeyHeader = "X-API-KEY"
	}
	s := &Server{
		cfg:    cfg,
		deps:   deps,
		logger: logger,
	}
	s.setupRouter()
	return s
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()
	m := s.deps.Metrics

	// --- Global middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(s.logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", s.cfg.APIKeyHeader, "X-Requested-With", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(chimw.Compress(5))
	r.Use(middleware.Metrics(m))

	r.NotFound(handler.NotFound)
	r.MethodNotAllowed(handler.MethodNotAllowed)

	// --- Health checks (no auth required) ---
	sys := handler.NewSystemHandler(s.deps.DB, s.logger)
	r.Get("/healthz", sys.Healthz)
	r.Get("/readyz", sys.Readyz)

	if s.cfg.MetricsEnabled && m != nil {
		r.Handle("/metrics", m.Handler())
	}

	doc := openapi.Generate(openapi.Options{
		Version:      s.cfg.Version,
		APIKeyHeader: s.cfg.APIKeyHeader,
	})
	r.Get("/openapi.json", handler.NewOpenAPIHandler(doc).ServeSpec)

	// --- API routes ---
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(s.deps.Auth, middleware.APIKeyOptions{
			Header:         s.cfg.APIKeyHeader,
			ExemptPrefixes: s.cfg.APIKeyExemptPrefixes,
		}, m, s.logger))
		r.Use(middleware.BearerAuth(s.deps.Auth, m, s.logger))

		r.Route("/auth", func(r chi.Router) {
			r.Use(middleware.RateLimit(s.cfg.AuthRateLimit))

			h := handler.NewAuthHandler(s.deps.Auth, m, s.logger, s.cfg.MaxBodySize)
			r.Post("/register", h.Register)
			r.Post("/login", h.Login)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(model.RoleAdmin))

			h := handler.NewAdminHandler(s.deps.Keys, m, s.logger, s.cfg.MaxBodySize)
			r.Post("/keygen", h.Keygen)
		})

		r.Route("/measurements", func(r chi.Router) {
			r.Use(middleware.RequireUser)

			h := handler.NewMeasurementHandler(s.deps.Measurements, s.logger, s.cfg.MaxBodySize)
			r.Post("/", h.Create)
			r.Get("/", h.List)
			r.Get("/recent", h.Recent)
			r.Get("/{id}", h.Get)
			r.Put("/{id}", h.Update)
			r.Delete("/{id}", h.Delete)
		})
	})

	s.router = r
}

// Addr is the host:port the server listens on.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
}

// ListenAndServe starts the HTTP server and blocks until a SIGINT or SIGTERM
// is received, then shuts down gracefully.
func (s *Server) ListenAndServe() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return s.Run(ctx)
}

// Run serves until ctx is cancelled, then drains in-flight requests for at
// most ShutdownTimeout.
func (s *Server) Run(ctx context.Context) error {
	addr := s.Addr()
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server listen: %w", err)
	case <-ctx.Done():
		s.logger.Info("shutdown signal received, draining connections...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

// Router returns the underlying Chi router, useful for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ServeHTTP implements http.Handler, delegating to the router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
