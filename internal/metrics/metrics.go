// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Authentication mechanisms.
const (
	MechanismPassword = "password"
	MechanismToken    = "token"
	MechanismAPIKey   = "api_key"
)

// Authentication outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeMissing = "missing"
	OutcomeInvalid = "invalid"
	OutcomeExpired = "expired"
	OutcomeError   = "error"
)

// Metrics holds all Prometheus metrics. A nil *Metrics is valid and records
// nothing, so callers never need to check whether metrics are enabled.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Auth metrics
	AuthAttemptsTotal  *prometheus.CounterVec
	APIKeysIssuedTotal prometheus.Counter
}

// New creates the metrics and registers them, together with the Go runtime
// and process collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "phoenix_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "phoenix_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		AuthAttemptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "phoenix_auth_attempts_total",
				Help: "Authentication attempts by mechanism and outcome",
			},
			[]string{"mechanism", "outcome"},
		),
		APIKeysIssuedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "phoenix_api_keys_issued_total",
				Help: "Total number of API keys issued",
			},
		),
	}

	m.registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.AuthAttemptsTotal,
		m.APIKeysIssuedTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RegisterDB exports connection pool statistics for db.
func (m *Metrics) RegisterDB(db *sql.DB, name string) error {
	if m == nil || db == nil {
		return nil
	}
	return m.registry.Register(collectors.NewDBStatsCollector(db, name))
}

// ObserveRequest records one served HTTP request. route is the matched route
// pattern, not the raw path, to keep label cardinality bounded.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// AuthAttempt counts one authentication decision.
func (m *Metrics) AuthAttempt(mechanism, outcome string) {
	if m == nil {
		return
	}
	m.AuthAttemptsTotal.WithLabelValues(mechanism, outcome).Inc()
}

// KeyIssued counts one issued API key.
func (m *Metrics) KeyIssued() {
	if m == nil {
		return
	}
	m.APIKeysIssuedTotal.Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
