// Package metrics holds the Prometheus collectors of the explorer service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metric names
const (
	MetricHTTPRequestsTotal    = "explorer_http_requests_total"
	MetricHTTPRequestDuration  = "explorer_http_request_duration_seconds"
	MetricSearchRequestsTotal  = "explorer_search_requests_total"
	MetricSearchDuration       = "explorer_search_duration_seconds"
	MetricSearchCacheHitsTotal = "explorer_search_cache_hits_total"
	MetricSearchCacheMissTotal = "explorer_search_cache_misses_total"
	MetricIngestProjectsTotal  = "explorer_ingest_projects_total"
)

// Search outcomes
const (
	OutcomeSuccess = "success"
	OutcomeInvalid = "invalid"
	OutcomeFailure = "failure"
)

// Metrics contains the service collectors. A nil *Metrics is valid and
// records nothing, so packages can take it as an optional dependency.
type Metrics struct {
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	searchRequests *prometheus.CounterVec
	searchDuration *prometheus.HistogramVec
	cacheHits      prometheus.Counter
	cacheMisses    prometheus.Counter
	ingestProjects *prometheus.CounterVec
}

// NewMetrics creates the collectors without registering them
func NewMetrics() *Metrics {
	return &Metrics{
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricHTTPRequestsTotal,
				Help: "Total number of HTTP requests by route, method and status",
			},
			[]string{"route", "method", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricHTTPRequestDuration,
				Help:    "HTTP request latency in seconds by route",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		searchRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricSearchRequestsTotal,
				Help: "Total number of searches by ranking mode and outcome",
			},
			[]string{"mode", "outcome"},
		),
		searchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricSearchDuration,
				Help:    "Search latency in seconds by ranking mode",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
			[]string{"mode"},
		),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricSearchCacheHitsTotal,
			Help: "Searches answered from the result cache",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricSearchCacheMissTotal,
			Help: "Searches that missed the result cache",
		}),
		ingestProjects: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricIngestProjectsTotal,
				Help: "Catalog import progress by result",
			},
			[]string{"result"},
		),
	}
}

// Register registers all collectors with reg
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Collectors returns every collector
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.httpRequests,
		m.httpDuration,
		m.searchRequests,
		m.searchDuration,
		m.cacheHits,
		m.cacheMisses,
		m.ingestProjects,
	}
}

// ObserveHTTP records one served request
func (m *Metrics) ObserveHTTP(route, method, status string, seconds float64) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, method, status).Inc()
	m.httpDuration.WithLabelValues(route).Observe(seconds)
}

// ObserveSearch records one search
func (m *Metrics) ObserveSearch(mode, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.searchRequests.WithLabelValues(mode, outcome).Inc()
	m.searchDuration.WithLabelValues(mode).Observe(seconds)
}

// CacheHit counts a cache hit
func (m *Metrics) CacheHit() {
	if m == nil {
		return
	}
	m.cacheHits.Inc()
}

// CacheMiss counts a cache miss
func (m *Metrics) CacheMiss() {
	if m == nil {
		return
	}
	m.cacheMisses.Inc()
}

// AddIngested adds n to an import result: "saved" or "skipped" projects, or "failed_batch"
func (m *Metrics) AddIngested(result string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.ingestProjects.WithLabelValues(result).Add(float64(n))
}

// Handler exposes reg in the Prometheus text format
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}
