package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Store metrics
	StoreOperationsTotal   *prometheus.CounterVec
	StoreOperationDuration *prometheus.HistogramVec
	StoreConflictsTotal    *prometheus.CounterVec

	// Graph metrics
	ClosureComputationsTotal   *prometheus.CounterVec
	ClosureComputationDuration *prometheus.HistogramVec
	CacheHitsTotal             *prometheus.CounterVec
	CacheMissesTotal           *prometheus.CounterVec

	// Directory metrics
	DirectoryLookupsTotal *prometheus.CounterVec

	// Snapshot metrics
	SnapshotOperationsTotal *prometheus.CounterVec

	// Inventory gauges
	GroupsTotal prometheus.Gauge
	RolesTotal  prometheus.Gauge
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "warden_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "warden_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		StoreOperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "warden_store_operations_total",
				Help: "Total number of store operations",
			},
			[]string{"operation", "backend", "status"},
		),
		StoreOperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "warden_store_operation_duration_seconds",
				Help:    "Store operation duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "backend"},
		),
		StoreConflictsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "warden_store_conflicts_total",
				Help: "Total number of optimistic-version conflicts",
			},
			[]string{"kind"},
		),

		ClosureComputationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "warden_closure_computations_total",
				Help: "Total number of nested closure computations",
			},
			[]string{"kind"},
		),
		ClosureComputationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "warden_closure_computation_duration_seconds",
				Help:    "Nested closure computation duration in seconds",
				Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
			},
			[]string{"kind"},
		),
		CacheHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "warden_cache_hits_total",
				Help: "Total number of cache hits",
			},
			[]string{"cache_type"},
		),
		CacheMissesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "warden_cache_misses_total",
				Help: "Total number of cache misses",
			},
			[]string{"cache_type"},
		),

		DirectoryLookupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "warden_directory_lookups_total",
				Help: "Total number of identity directory lookups",
			},
			[]string{"status"},
		),

		SnapshotOperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "warden_snapshot_operations_total",
				Help: "Total number of snapshot exports and imports",
			},
			[]string{"operation", "status"},
		),

		GroupsTotal: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "warden_groups_total",
				Help: "Current number of groups",
			},
		),
		RolesTotal: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "warden_roles_total",
				Help: "Current number of roles",
			},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.StoreOperationsTotal,
		m.StoreOperationDuration,
		m.StoreConflictsTotal,
		m.ClosureComputationsTotal,
		m.ClosureComputationDuration,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.DirectoryLookupsTotal,
		m.SnapshotOperationsTotal,
		m.GroupsTotal,
		m.RolesTotal,
	)

	return m
}

// RecordCacheHit counts a hit on the named cache. Safe on a nil receiver so
// instrumented components can carry a nil *Metrics when metrics are disabled.
func (m *Metrics) RecordCacheHit(cacheType string) {
	if m == nil {
		return
	}
	m.CacheHitsTotal.WithLabelValues(cacheType).Inc()
}

// RecordCacheMiss counts a miss on the named cache.
func (m *Metrics) RecordCacheMiss(cacheType string) {
	if m == nil {
		return
	}
	m.CacheMissesTotal.WithLabelValues(cacheType).Inc()
}

// RecordClosureComputation counts one full closure traversal and its latency.
func (m *Metrics) RecordClosureComputation(kind string, start time.Time) {
	if m == nil {
		return
	}
	m.ClosureComputationsTotal.WithLabelValues(kind).Inc()
	m.ClosureComputationDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}

// RecordDirectoryLookup counts an identity directory lookup by outcome.
func (m *Metrics) RecordDirectoryLookup(status string) {
	if m == nil {
		return
	}
	m.DirectoryLookupsTotal.WithLabelValues(status).Inc()
}

// RecordSnapshotOperation counts a snapshot export or import by outcome.
func (m *Metrics) RecordSnapshotOperation(operation string, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.SnapshotOperationsTotal.WithLabelValues(operation, status).Inc()
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// HTTPMetricsMiddleware instruments HTTP requests with Prometheus metrics.
// The path label uses the mux route template so ids do not explode
// cardinality.
func HTTPMetricsMiddleware(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rw, r)

			path := r.URL.Path
			if route := mux.CurrentRoute(r); route != nil {
				if tmpl, err := route.GetPathTemplate(); err == nil {
					path = tmpl
				}
			}

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(rw.statusCode)
			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
		})
	}
}

// RegisterMetricsEndpoint registers the /metrics endpoint
func RegisterMetricsEndpoint(router *mux.Router, registry *prometheus.Registry) {
	router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
}
