// Copyright (c) 2026 Eventhub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package stats reports event counts per metro area.
package stats

import (
	"context"
	"log/slog"
	"math"
	"strings"

	"github.com/taibuivan/eventhub/internal/core/geo"
	"github.com/taibuivan/eventhub/internal/platform/apperr"
)

// CityCounter counts canonical events per city. [*event.Service] implements it.
type CityCounter interface {
	CountEventsByCity(ctx context.Context, countryCode string) ([]geo.CityStat, error)
}

// maxThresholdKm keeps a typo from merging a whole country into one cluster.
const maxThresholdKm = 500

// Service computes clustered city statistics.
type Service struct {
	counter          CityCounter
	defaultThreshold float64
	logger           *slog.Logger
}

// NewService constructs a new stats [Service]. defaultThreshold is used when a
// caller passes a zero radius.
func NewService(counter CityCounter, defaultThreshold float64, logger *slog.Logger) *Service {
	return &Service{counter: counter, defaultThreshold: defaultThreshold, logger: logger}
}

/*
ClusteredCityStats groups cities within thresholdKm of each other and sums
their event counts.

Parameters:
  - ctx: context.Context
  - countryCode: string (ISO alpha-2, empty for every country)
  - thresholdKm: float64 (zero selects the configured default)

Returns:
  - []geo.ClusterStat: Clusters sorted by total count descending
  - error: VALIDATION_ERROR for a bad country code or radius
*/
func (service *Service) ClusteredCityStats(ctx context.Context, countryCode string, thresholdKm float64) ([]geo.ClusterStat, error) {
	countryCode = strings.ToUpper(strings.TrimSpace(countryCode))
	if countryCode != "" && len(countryCode) != 2 {
		return nil, apperr.ValidationError("Invalid country code",
			apperr.FieldError{Field: "country", Message: "Must be exactly 2 characters"})
	}

	if thresholdKm == 0 {
		thresholdKm = service.defaultThreshold
	}
	if math.IsNaN(thresholdKm) || thresholdKm <= 0 || thresholdKm > maxThresholdKm {
		return nil, apperr.ValidationError("Invalid threshold",
			apperr.FieldError{Field: "threshold_km", Message: "Must be between 0 and 500"})
	}

	cityStats, err := service.counter.CountEventsByCity(ctx, countryCode)
	if err != nil {
		return nil, err
	}

	clusters := geo.AggregateStatsByCluster(cityStats, thresholdKm)

	service.logger.DebugContext(ctx, "city_stats_clustered",
		slog.String("country", countryCode),
		slog.Float64("threshold_km", thresholdKm),
		slog.Int("cities", len(cityStats)),
		slog.Int("clusters", len(clusters)),
	)
	return clusters, nil
}
