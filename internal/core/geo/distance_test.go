package geo_test

import (
	"math/big"
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/eventhub/internal/core/geo"
)

func numeric(value int64, exp int32) pgtype.Numeric {
	return pgtype.Numeric{Int: big.NewInt(value), Exp: exp, Valid: true}
}

/*
TestHaversineDistance_Fixtures checks known city-to-city distances.
*/
func TestHaversineDistance_Fixtures(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		want, delta            float64
	}{
		{"paris_center_to_etoile", 48.8566, 2.3522, 48.8738, 2.2950, 4.87, 0.5},
		{"new_york_to_los_angeles", 40.7128, -74.0060, 34.0522, -118.2437, 3944, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, geo.HaversineDistance(tt.lat1, tt.lon1, tt.lat2, tt.lon2), tt.delta)
		})
	}
}

/*
TestHaversineDistance_IdentityAndSymmetry holds for every representation.
*/
func TestHaversineDistance_IdentityAndSymmetry(t *testing.T) {
	points := [][2]float64{
		{52.2297, 21.0122},
		{-33.8688, 151.2093},
		{0, 179.9999},
		{0, -179.9999},
		{89.9, 0},
	}

	for _, a := range points {
		assert.Zero(t, geo.HaversineDistance(a[0], a[1], a[0], a[1]))

		for _, b := range points {
			forward := geo.HaversineDistance(a[0], a[1], b[0], b[1])
			backward := geo.HaversineDistance(b[0], b[1], a[0], a[1])
			assert.Equal(t, forward, backward)
		}
	}

	assert.Zero(t, geo.HaversineDistance(float32(51.5), float32(-0.12), float32(51.5), float32(-0.12)))
}

/*
TestHaversineDistance_FixedPoint agrees with the float path.
*/
func TestHaversineDistance_FixedPoint(t *testing.T) {
	floatKm := geo.HaversineDistance(48.8566, 2.3522, 48.8738, 2.2950)
	fixedKm := geo.HaversineDistance(
		geo.FromDegrees(48.8566), geo.FromDegrees(2.3522),
		geo.FromDegrees(48.8738), geo.FromDegrees(2.2950),
	)
	assert.InDelta(t, floatKm, fixedKm, 1e-6)

	numericKm, err := geo.HaversineNumeric(
		numeric(488566, -4), numeric(23522, -4),
		numeric(488738, -4), numeric(22950, -4),
	)
	require.NoError(t, err)
	assert.InDelta(t, floatKm, numericKm, 1e-9)
}

/*
TestHaversineNumeric_Null refuses NULL columns.
*/
func TestHaversineNumeric_Null(t *testing.T) {
	_, err := geo.HaversineNumeric(numeric(1, 0), pgtype.Numeric{}, numeric(1, 0), numeric(1, 0))
	assert.Error(t, err)
}
