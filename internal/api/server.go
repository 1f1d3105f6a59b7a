// Copyright (c) 2026 Eventhub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package api wires together the HTTP router, middleware chain, and all
domain handlers into a runnable [http.Server].

Architecture:

  - This package is the topmost Presentation layer boundary.
  - It acts as the central composition root for the HTTP transport framework (chi router).
  - Only this package and cmd/api are allowed to import net/http server primitives.
*/
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/taibuivan/eventhub/internal/core/event"
	"github.com/taibuivan/eventhub/internal/core/ingest"
	"github.com/taibuivan/eventhub/internal/core/location"
	"github.com/taibuivan/eventhub/internal/core/pipeline"
	"github.com/taibuivan/eventhub/internal/core/stats"
	"github.com/taibuivan/eventhub/internal/platform/config"
	"github.com/taibuivan/eventhub/internal/platform/constants"
	"github.com/taibuivan/eventhub/internal/platform/middleware"
)

// # Handler Registry

// Handlers groups all domain-specific HTTP handler sets.
//
// # Usage
//
// New domains add a field here; no other change to server.go is required.
type Handlers struct {
	// Liveness is the /health handler; always returns 200 if process is alive.
	Liveness http.HandlerFunc

	// Readiness is the /ready handler; returns 200 when all deps are healthy.
	Readiness http.HandlerFunc

	// Ingest accepts observations from scrapers.
	Ingest *ingest.Handler

	// Event serves canonical events.
	Event *event.Handler

	// Location manages cities and countries.
	Location *location.Handler

	// Pipeline reports job executions and pipeline health.
	Pipeline *pipeline.Handler

	// Stats serves clustered city statistics.
	Stats *stats.Handler
}

// # Server Initialization

// NewRouter builds the chi router with the full middleware chain and all
// route groups.
func NewRouter(ctx context.Context, cfg *config.Config, logger *slog.Logger, h Handlers) http.Handler {
	router := chi.NewRouter()

	// # Middleware Chain
	// Global middleware applied in order of execution.
	router.Use(middleware.RequestID())
	router.Use(middleware.StructuredLogger(logger))
	router.Use(chimw.Timeout(constants.GlobalRequestTimeout))
	router.Use(middleware.RateLimit(ctx))
	router.Use(middleware.PanicRecovery())
	router.Use(middleware.CORS(cfg))
	router.Use(chimw.CleanPath)

	// # Infrastructure Endpoints
	// Unauthenticated probes for container orchestration and scraping.
	router.Get("/health", h.Liveness)
	router.Get("/ready", h.Readiness)
	router.Handle("/metrics", promhttp.Handler())

	// # Application API
	// Domain-specific route groups mounted under versioned prefix.
	router.Route("/api/v1", func(api chi.Router) {
		api.Mount("/ingest", h.Ingest.Routes())
		api.Mount("/events", h.Event.Routes())
		api.Mount("/cities", h.Location.Routes())
		api.Mount("/countries", h.Location.CountryRoutes())
		api.Mount("/pipeline", h.Pipeline.Routes())
		api.Mount("/stats", h.Stats.Routes())
	})

	return router
}

// NewServer wraps handler in an [http.Server] with the platform timeouts.
func NewServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           handler,
		ReadTimeout:       constants.DefaultReadTimeout,
		WriteTimeout:      constants.DefaultWriteTimeout,
		IdleTimeout:       constants.DefaultIdleTimeout,
		ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
	}
}
