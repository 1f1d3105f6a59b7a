// Copyright (c) 2026 Eventhub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package metrics declares the Prometheus instruments exported at /metrics.
//
// Instruments are registered once on the default registry through promauto;
// callers only touch the exported vectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ingestion Metrics
	IngestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventhub_ingest_total",
			Help: "Total number of processed event observations by outcome",
		},
		[]string{"source", "outcome"}, // outcome: "created", "merged", "failed"
	)

	IngestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "eventhub_ingest_duration_seconds",
			Help:    "Time spent in ProcessEvent, including lock wait",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"source"},
	)

	IngestErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventhub_ingest_errors_total",
			Help: "Total number of ingestion failures by taxonomy category",
		},
		[]string{"category"},
	)

	// Signal Metrics
	CityNameRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventhub_city_name_rejections_total",
			Help: "City strings rejected by the name validator",
		},
		[]string{"country", "reason", "layer"},
	)

	LockTimeouts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "eventhub_lock_timeouts_total",
			Help: "Fingerprint lock acquisitions that exceeded the wait budget",
		},
	)

	DuplicatesDetected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventhub_duplicates_detected_total",
			Help: "Observations merged into an existing canonical event",
		},
		[]string{"source"},
	)

	// Cache Metrics
	CountryCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventhub_country_cache_hits_total",
			Help: "Country cache hits by tier",
		},
		[]string{"tier"}, // "memory", "redis"
	)

	CountryCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "eventhub_country_cache_misses_total",
			Help: "Country lookups that fell through every cache tier",
		},
	)

	CacheBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "eventhub_cache_breaker_state",
			Help: "Circuit breaker state for remote caches (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)
)

// HTTPRequestDuration is observed by the request logger middleware.
var HTTPRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "eventhub_http_request_duration_seconds",
		Help:    "HTTP request latency by route pattern",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"method", "route", "status"},
)
