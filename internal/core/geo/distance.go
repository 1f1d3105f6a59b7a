// Copyright (c) 2026 Eventhub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package geo computes great-circle distances and groups nearby cities into
metro-area clusters for aggregate statistics.

Everything here is pure: no storage, no logging, no shared state. Callers load
cities, hand them in, and get deterministic results back.
*/
package geo

import (
	"fmt"
	"math"

	"github.com/golang/geo/s2"
	"github.com/jackc/pgx/v5/pgtype"
)

// EarthRadiusKm is the IUGG mean Earth radius.
const EarthRadiusKm = 6371.0088

// Microdegrees is a fixed-point coordinate: degrees scaled by 1e6.
type Microdegrees int64

// Degrees converts back to floating-point degrees.
func (m Microdegrees) Degrees() float64 { return float64(m) / 1e6 }

// FromDegrees converts floating-point degrees to [Microdegrees], rounding to
// the nearest unit.
func FromDegrees(degrees float64) Microdegrees {
	return Microdegrees(math.Round(degrees * 1e6))
}

// Coordinate is any supported coordinate representation.
type Coordinate interface {
	~float32 | ~float64 | Microdegrees
}

func degrees[T Coordinate](value T) float64 {
	if fixed, ok := any(value).(Microdegrees); ok {
		return fixed.Degrees()
	}
	return float64(value)
}

/*
HaversineDistance returns the great-circle distance in kilometres between two
points given in degrees.

The two points are put in a canonical order before the computation, so the
result is bit-for-bit symmetric. Identical points yield exactly 0.
*/
func HaversineDistance[T Coordinate](lat1, lon1, lat2, lon2 T) float64 {
	return distanceKm(degrees(lat1), degrees(lon1), degrees(lat2), degrees(lon2))
}

// HaversineNumeric is [HaversineDistance] for database NUMERIC columns.
func HaversineNumeric(lat1, lon1, lat2, lon2 pgtype.Numeric) (float64, error) {
	values := make([]float64, 4)
	for index, numeric := range []pgtype.Numeric{lat1, lon1, lat2, lon2} {
		converted, err := numeric.Float64Value()
		if err != nil {
			return 0, fmt.Errorf("geo: convert coordinate: %w", err)
		}
		if !converted.Valid {
			return 0, fmt.Errorf("geo: coordinate %d is NULL", index)
		}
		values[index] = converted.Float64
	}
	return distanceKm(values[0], values[1], values[2], values[3]), nil
}

func distanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	if lat1 == lat2 && lon1 == lon2 {
		return 0
	}

	// Canonical order makes the floating-point path identical for (a,b) and (b,a)
	if lat1 > lat2 || (lat1 == lat2 && lon1 > lon2) {
		lat1, lon1, lat2, lon2 = lat2, lon2, lat1, lon1
	}

	angle := s2.LatLngFromDegrees(lat1, lon1).Distance(s2.LatLngFromDegrees(lat2, lon2))
	return angle.Radians() * EarthRadiusKm
}

// ValidLatLng reports whether the pair lies inside WGS84 bounds.
func ValidLatLng(latitude, longitude float64) bool {
	return !math.IsNaN(latitude) && !math.IsNaN(longitude) &&
		latitude >= -90 && latitude <= 90 &&
		longitude >= -180 && longitude <= 180
}
