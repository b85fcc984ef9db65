package api

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/wardenhq/warden/pkg/graph"
	"github.com/wardenhq/warden/pkg/httputil"
	"github.com/wardenhq/warden/pkg/mappings"
	"github.com/wardenhq/warden/pkg/observability"
	"github.com/wardenhq/warden/pkg/snapshot"
)

const maxBodyBytes = 1 << 20 // 1MB

// Server is the Warden HTTP API server.
type Server struct {
	router    *mux.Router
	handler   http.Handler
	graph     *graph.Service
	mappings  *mappings.Resolver
	snapshots *snapshot.Manager
	archive   SnapshotArchive
	logger    *logrus.Logger
}

// SnapshotArchive reads archived snapshots back; satisfied by
// snapshot.S3Archiver.
type SnapshotArchive interface {
	Retrieve(ctx context.Context, key string) (*snapshot.Snapshot, error)
	LatestKey() string
}

// Options configures optional server features.
type Options struct {
	// Metrics instruments every route when non-nil.
	Metrics *observability.Metrics
	// Tracing wraps the router in otelhttp when true.
	Tracing bool
	// Archive enables POST /configuration/restore when non-nil.
	Archive SnapshotArchive
}

// NewServer creates the API server and registers all routes.
func NewServer(graphSvc *graph.Service, resolver *mappings.Resolver, snapshots *snapshot.Manager, logger *logrus.Logger, opts Options) *Server {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	s := &Server{
		router:    mux.NewRouter(),
		graph:     graphSvc,
		mappings:  resolver,
		snapshots: snapshots,
		archive:   opts.Archive,
		logger:    logger,
	}

	s.router.Use(httputil.RequestIDMiddleware)
	s.router.Use(httputil.LoggingMiddleware(logger))
	s.router.Use(httputil.RecoveryMiddleware(logger))
	s.router.Use(httputil.MaxBytesMiddleware(maxBodyBytes))
	if opts.Metrics != nil {
		s.router.Use(observability.HTTPMetricsMiddleware(opts.Metrics))
	}

	s.setupRoutes()

	s.handler = s.router
	if opts.Tracing {
		s.handler = otelhttp.NewHandler(s.router, "warden.api")
	}
	return s
}

// setupRoutes configures all the API routes
func (s *Server) setupRoutes() {
	NewGroupHandlers(s.graph, s.mappings).RegisterRoutes(s.router)
	NewRoleHandlers(s.graph).RegisterRoutes(s.router)
	NewConfigurationHandlers(s.snapshots, s.archive).RegisterRoutes(s.router)
}

// Router exposes the underlying mux router for extra route registration.
func (s *Server) Router() *mux.Router {
	return s.router
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}
