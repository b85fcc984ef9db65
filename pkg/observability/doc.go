// Package observability provides metrics, health checks, tracing and
// graceful shutdown for the Warden server.
//
// # Overview
//
// Prometheus metrics cover the HTTP surface, store operations, closure
// computations and cache effectiveness. Health endpoints probe the entity
// store and the optional Redis closure cache. OpenTelemetry export is
// opt-in and ships traces and metrics over OTLP/gRPC.
//
// # Usage Example
//
//	registry := prometheus.NewRegistry()
//	metrics := observability.NewMetrics(registry)
//	router.Use(observability.HTTPMetricsMiddleware(metrics))
//	observability.RegisterMetricsEndpoint(router, registry)
//
// # Related Packages
//
//   - pkg/api: installs the middleware and endpoints
//   - pkg/store: reports operation and conflict metrics
package observability
