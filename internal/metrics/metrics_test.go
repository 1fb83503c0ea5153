package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterTwiceFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics()
	require.NoError(t, m.Register(reg))
	assert.Error(t, m.Register(reg))
}

func TestCounters(t *testing.T) {
	m := NewMetrics()

	m.ObserveSearch("relevance", OutcomeSuccess, 0.01)
	m.ObserveSearch("relevance", OutcomeSuccess, 0.02)
	m.ObserveSearch("awards", OutcomeFailure, 0.5)
	m.CacheHit()
	m.CacheMiss()
	m.CacheMiss()
	m.AddIngested("saved", 3)
	m.AddIngested("failed", 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.searchRequests.WithLabelValues("relevance", OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.searchRequests.WithLabelValues("awards", OutcomeFailure)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheHits))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheMisses))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.ingestProjects.WithLabelValues("saved")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.ingestProjects), "zero adds create no series")
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveHTTP("/health", "GET", "200", 0.001)
		m.ObserveSearch("awards", OutcomeSuccess, 0.001)
		m.CacheHit()
		m.CacheMiss()
		m.AddIngested("saved", 1)
	})
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics()
	require.NoError(t, m.Register(reg))
	m.ObserveHTTP("/api/search", http.MethodPost, "200", 0.003)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, MetricHTTPRequestsTotal), body)
	assert.Contains(t, body, `route="/api/search"`)
}
