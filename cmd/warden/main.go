package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/wardenhq/warden/pkg/api"
	"github.com/wardenhq/warden/pkg/config"
	"github.com/wardenhq/warden/pkg/directory"
	"github.com/wardenhq/warden/pkg/graph"
	"github.com/wardenhq/warden/pkg/mappings"
	"github.com/wardenhq/warden/pkg/observability"
	"github.com/wardenhq/warden/pkg/snapshot"
	"github.com/wardenhq/warden/pkg/store"
)

const version = "1.0.0"

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.WithError(err).Fatal("failed to load configuration")
	}
	logger.SetLevel(cfg.Observability.LogLevel)

	ctx := context.Background()

	var metrics *observability.Metrics
	var registry *prometheus.Registry
	if cfg.Observability.MetricsEnabled {
		registry = prometheus.NewRegistry()
		metrics = observability.NewMetrics(registry)
	}

	st, closeStore, err := store.Open(ctx, cfg.Store)
	if err != nil {
		logger.WithError(err).Fatal("failed to open store")
	}
	st = observability.InstrumentStore(st, cfg.Store.Type, metrics)
	logger.WithField("type", cfg.Store.Type).Info("store initialized")

	var redisClient *redis.Client
	var cache *graph.ClosureCache
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.WithError(err).Fatal("failed to connect to redis")
		}
		cache = graph.NewClosureCache(redisClient, cfg.Redis.CacheTTL, metrics)
		logger.WithField("addr", cfg.Redis.Addr).Info("closure cache enabled")
	}

	var dir directory.Directory
	var fileDir *directory.FileDirectory
	if cfg.Directory.File != "" {
		fileDir, err = directory.NewFileDirectory(cfg.Directory.File)
		if err != nil {
			logger.WithError(err).Fatal("failed to load directory connections file")
		}
		dir = observability.InstrumentDirectory(
			directory.NewCachingDirectory(fileDir, cfg.Directory.CacheSize, cfg.Directory.CacheTTL),
			metrics,
		)
		logger.WithField("file", cfg.Directory.File).Info("identity directory loaded")
	} else {
		logger.Info("no directory configured, connection names resolve to themselves")
	}

	stateLock := &sync.RWMutex{}
	graphSvc := graph.NewService(st, stateLock, cache, metrics)
	resolver := mappings.NewResolver(st, dir)
	snapshots := snapshot.NewManager(st, stateLock, cache, metrics)

	var archiver *snapshot.S3Archiver
	if cfg.Snapshot.Archive.Bucket != "" {
		archiver, err = snapshot.NewS3Archiver(ctx, cfg.Snapshot.Archive)
		if err != nil {
			logger.WithError(err).Fatal("failed to initialize snapshot archiver")
		}
	}

	otelProviders, err := observability.InitOTel(ctx, cfg.Observability.OTel, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to initialize OpenTelemetry")
	}

	apiOpts := api.Options{
		Metrics: metrics,
		Tracing: cfg.Observability.OTel.Enabled,
	}
	if archiver != nil {
		apiOpts.Archive = archiver
	}
	server := api.NewServer(graphSvc, resolver, snapshots, logger, apiOpts)

	httpServer := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      server,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Health and metrics are served on a separate port so probes stay
	// reachable even when the API port is saturated.
	healthRouter := mux.NewRouter()
	observability.RegisterHealthRoutes(healthRouter, observability.NewHealthChecker(st, redisClient))
	if registry != nil {
		observability.RegisterMetricsEndpoint(healthRouter, registry)
	}
	healthServer := &http.Server{
		Addr:    net.JoinHostPort(cfg.Server.Host, cfg.Server.HealthPort),
		Handler: healthRouter,
	}
	go func() {
		logger.WithField("addr", healthServer.Addr).Info("health server listening")
		if err := healthServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("health server failed")
		}
	}()

	var autosaver *snapshot.Autosaver
	if cfg.Snapshot.AutosaveEnabled {
		autosaver = snapshot.NewAutosaver(snapshots, archiver, cfg.Snapshot.AutosaveSchedule, logger)
		if err := autosaver.Start(); err != nil {
			logger.WithError(err).Fatal("failed to start snapshot autosaver")
		}
		logger.WithFields(logrus.Fields{
			"schedule": cfg.Snapshot.AutosaveSchedule,
			"bucket":   cfg.Snapshot.Archive.Bucket,
		}).Info("snapshot autosave enabled")
	}

	shutdown := observability.NewShutdownManager(logger, httpServer, cfg.Server.ShutdownTimeout)
	shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
		return healthServer.Shutdown(ctx)
	})
	shutdown.RegisterShutdownFunc(func(context.Context) error {
		return closeStore()
	})
	if redisClient != nil {
		shutdown.RegisterShutdownFunc(func(context.Context) error {
			return redisClient.Close()
		})
	}
	if fileDir != nil {
		shutdown.RegisterShutdownFunc(func(context.Context) error {
			return fileDir.Close()
		})
	}
	if autosaver != nil {
		shutdown.RegisterShutdownFunc(func(context.Context) error {
			autosaver.Stop()
			return nil
		})
	}
	if otelProviders != nil {
		shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
			return observability.ShutdownOTel(ctx, otelProviders, logger)
		})
	}

	go func() {
		logger.WithFields(logrus.Fields{
			"addr":    httpServer.Addr,
			"version": version,
		}).Info("warden listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server failed")
		}
	}()

	if err := shutdown.WaitForShutdown(); err != nil {
		logger.WithError(err).Error("shutdown finished with errors")
		return
	}
}
