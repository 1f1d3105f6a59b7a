// Copyright (c) 2026 Eventhub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the Eventhub ingestion service.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Install the city-name rule table.
//  4. Connect to PostgreSQL (pgxpool) and Redis.
//  5. Run catalog and queue migrations (idempotent).
//  6. Wire the location, event, pipeline, ingest and stats domains.
//  7. Run the HTTP server, ingest queue and signal recorder under a supervisor
//     until SIGINT or SIGTERM.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/taibuivan/eventhub/internal/api"
	"github.com/taibuivan/eventhub/internal/core/event"
	"github.com/taibuivan/eventhub/internal/core/ingest"
	"github.com/taibuivan/eventhub/internal/core/location"
	"github.com/taibuivan/eventhub/internal/core/location/cityname"
	"github.com/taibuivan/eventhub/internal/core/pipeline"
	"github.com/taibuivan/eventhub/internal/core/stats"
	"github.com/taibuivan/eventhub/internal/platform/config"
	"github.com/taibuivan/eventhub/internal/platform/constants"
	"github.com/taibuivan/eventhub/internal/platform/migration"
	pgstore "github.com/taibuivan/eventhub/internal/platform/postgres"
	redisstore "github.com/taibuivan/eventhub/internal/platform/redis"
	"github.com/taibuivan/eventhub/internal/platform/supervisor"
	"github.com/taibuivan/eventhub/internal/platform/telemetry"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	log := newLogger(slog.LevelInfo)
	slog.SetDefault(log)

	log.Info("service_initializing", slog.String("version", constants.AppVersion))

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		log = newLogger(slog.LevelDebug)
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.Int("ingest_workers", cfg.IngestMaxWorkers),
	)

	// ── 3. City-name rules ────────────────────────────────────────────────
	rules, err := cityname.Load(cfg.CityRulesPath)
	must(log, err, "load city name rules")
	cityname.Install(rules)

	// Root context for startup. Use a 30s deadline so misconfiguration is
	// caught quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// ── 4. PostgreSQL & Redis ─────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing postgres pool")
		pool.Close()
	}()

	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, cfg.IngestMaxWorkers, log)
	must(log, err, "connect to redis")
	defer func() {
		log.Info("closing redis client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis close error", slog.Any("error", cerr))
		}
	}()

	// ── 5. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")
	must(log, migration.RunQueueUp(startupCtx, pool, log), "run queue migrations")

	// ── 6. Signals ────────────────────────────────────────────────────────
	bus := telemetry.NewBus(log)
	defer func() {
		if cerr := bus.Close(); cerr != nil {
			log.Error("signal bus close error", slog.Any("error", cerr))
		}
	}()

	// ── 7. Domain Wiring ──────────────────────────────────────────────────
	memoryCache, err := location.NewMemoryCountryCache(cfg.CountryCacheTTL)
	must(log, err, "create country cache")
	defer memoryCache.Close()

	redisCache := location.NewRedisCountryCache(rdb, cfg.CountryCacheTTL, log)
	countryCache := location.NewTieredCountryCache(memoryCache, redisCache)

	locationRepository := location.NewPostgresRepository(pool)
	directory := location.NewCountryDirectory(locationRepository, countryCache, log)
	resolver := location.NewResolver(directory, bus, log)
	locationService := location.NewService(locationRepository, locationRepository, directory, bus, log)

	eventRepository := event.NewPostgresRepository(pool)
	coordinator := event.NewCoordinator(event.NewPostgresRunner(pool, cfg.LockTimeout), resolver, bus, log)
	eventService := event.NewService(eventRepository, log)

	pipelineService := pipeline.NewService(pipeline.NewPostgresRepository(pool), log)

	worker := ingest.NewWorker(coordinator, pipelineService, constants.LockTimeoutSnooze, log)
	queueClient, err := ingest.NewClient(pool, worker, cfg.IngestMaxWorkers, log)
	must(log, err, "create ingest queue")

	statsService := stats.NewService(eventService, cfg.ClusterThresholdKm, log)

	// ── 8. Lifecycle ──────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func(ctx context.Context) error { return pgstore.Ping(ctx, pool) },
		CheckCache:    redisCache.Check,
	}, log)

	router := api.NewRouter(ctx, cfg, log, api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Ingest:    ingest.NewHandler(queueClient),
		Event:     event.NewHandler(eventService),
		Location:  location.NewHandler(locationService),
		Pipeline:  pipeline.NewHandler(pipelineService),
		Stats:     stats.NewHandler(statsService),
	})

	tree := supervisor.New(constants.AppName, supervisor.Config{ShutdownTimeout: constants.ShutdownTimeout}, log)
	tree.AddPipeline(telemetry.NewRecorder(bus, log))
	tree.AddPipeline(ingest.NewQueue(queueClient, constants.ShutdownTimeout, log))
	tree.AddAPI(supervisor.NewHTTPService(api.NewServer(cfg, router), constants.ShutdownTimeout))

	log.Info("service_started", slog.String("addr", ":"+cfg.ServerPort))

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("supervisor_stopped", slog.Any("error", err))
	}

	if report, err := tree.UnstoppedServiceReport(); err == nil && len(report) > 0 {
		log.Warn("services_not_stopped", slog.Int("count", len(report)))
	}

	log.Info("service_stopped")
}

// newLogger builds the JSON process logger tagged with the application name.
func newLogger(level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With(slog.String("app", constants.AppName))
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
