package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveRequest(t *testing.T) {
	m := New()
	m.ObserveRequest("GET", "/api/measurements/{id}", 200, 15*time.Millisecond)
	m.ObserveRequest("GET", "/api/measurements/{id}", 200, 5*time.Millisecond)
	m.ObserveRequest("POST", "/api/auth/login", 401, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/api/measurements/{id}", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("POST", "/api/auth/login", "401")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.HTTPRequestDuration))
}

func TestAuthCounters(t *testing.T) {
	m := New()
	m.AuthAttempt(MechanismAPIKey, OutcomeExpired)
	m.AuthAttempt(MechanismAPIKey, OutcomeExpired)
	m.AuthAttempt(MechanismPassword, OutcomeSuccess)
	m.KeyIssued()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.AuthAttemptsTotal.WithLabelValues(MechanismAPIKey, OutcomeExpired)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuthAttemptsTotal.WithLabelValues(MechanismPassword, OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.APIKeysIssuedTotal))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRequest("GET", "/", 200, time.Second)
		m.AuthAttempt(MechanismToken, OutcomeInvalid)
		m.KeyIssued()
		assert.NoError(t, m.RegisterDB(nil, "phoenix"))
	})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerExposition(t *testing.T) {
	m := New()
	m.KeyIssued()

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), "phoenix_api_keys_issued_total 1")
	assert.Contains(t, string(body), "go_goroutines")
}
