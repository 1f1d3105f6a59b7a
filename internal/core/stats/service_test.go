// Copyright (c) 2026 Eventhub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package stats_test

import (
	"context"
	"errors"
	"math"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/eventhub/internal/core/geo"
	"github.com/taibuivan/eventhub/internal/core/stats"
	"github.com/taibuivan/eventhub/internal/platform/apperr"
	"github.com/taibuivan/eventhub/pkg/pointer"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// counter returns fixed stats and remembers the requested country.
type counter struct {
	stats   []geo.CityStat
	err     error
	country string
}

func (c *counter) CountEventsByCity(_ context.Context, countryCode string) ([]geo.CityStat, error) {
	c.country = countryCode
	return c.stats, c.err
}

func stat(id, name string, lat, lng float64, count int) geo.CityStat {
	return geo.CityStat{
		City:  geo.City{ID: id, Name: name, CountryID: "gb", Latitude: pointer.To(lat), Longitude: pointer.To(lng)},
		Count: count,
	}
}

var britain = []geo.CityStat{
	stat("1", "London", 51.5074, -0.1278, 5),
	stat("2", "Croydon", 51.3762, -0.0982, 2),
	stat("3", "Manchester", 53.4808, -2.2426, 4),
}

/*
TestClusteredCityStats folds nearby cities under the busiest one.
*/
func TestClusteredCityStats(t *testing.T) {
	c := &counter{stats: britain}
	service := stats.NewService(c, 20, discard)

	clusters, err := service.ClusteredCityStats(context.Background(), " gb ", 0)
	require.NoError(t, err)
	assert.Equal(t, "GB", c.country)

	require.Len(t, clusters, 2)
	assert.Equal(t, "London", clusters[0].CityName)
	assert.Equal(t, 7, clusters[0].Count)
	require.Len(t, clusters[0].Subcities, 1)
	assert.Equal(t, "Croydon", clusters[0].Subcities[0].CityName)

	assert.Equal(t, "Manchester", clusters[1].CityName)
	assert.Empty(t, clusters[1].Subcities)
}

/*
TestClusteredCityStats_SmallRadius keeps every city apart.
*/
func TestClusteredCityStats_SmallRadius(t *testing.T) {
	service := stats.NewService(&counter{stats: britain}, 20, discard)

	clusters, err := service.ClusteredCityStats(context.Background(), "", 5)
	require.NoError(t, err)
	require.Len(t, clusters, 3)
	assert.Equal(t, "London", clusters[0].CityName)
	assert.Equal(t, "Manchester", clusters[1].CityName)
	assert.Equal(t, "Croydon", clusters[2].CityName)
}

/*
TestClusteredCityStats_Invalid rejects bad parameters before querying.
*/
func TestClusteredCityStats_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		country   string
		threshold float64
	}{
		{"long_country", "GBR", 20},
		{"negative_radius", "GB", -1},
		{"huge_radius", "GB", 5000},
		{"nan_radius", "GB", math.NaN()},
		{"infinite_radius", "GB", math.Inf(1)},
		{"negative_infinite_radius", "GB", math.Inf(-1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &counter{stats: britain}
			_, err := stats.NewService(c, 20, discard).ClusteredCityStats(context.Background(), tt.country, tt.threshold)

			ae := apperr.As(err)
			require.NotNil(t, ae)
			assert.Equal(t, "VALIDATION_ERROR", ae.Code)
			assert.Empty(t, c.country)
		})
	}
}

/*
TestClusteredCityStats_Empty returns an empty list, not nil.
*/
func TestClusteredCityStats_Empty(t *testing.T) {
	clusters, err := stats.NewService(&counter{}, 20, discard).ClusteredCityStats(context.Background(), "", 0)
	require.NoError(t, err)
	assert.NotNil(t, clusters)
	assert.Empty(t, clusters)
}

/*
TestClusteredCityStats_StoreError propagates.
*/
func TestClusteredCityStats_StoreError(t *testing.T) {
	boom := errors.New("boom")
	_, err := stats.NewService(&counter{err: boom}, 20, discard).ClusteredCityStats(context.Background(), "", 0)
	assert.ErrorIs(t, err, boom)
}
