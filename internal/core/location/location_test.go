// Copyright (c) 2026 Eventhub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package location_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/eventhub/internal/core/location"
	"github.com/taibuivan/eventhub/internal/platform/apperr"
	"github.com/taibuivan/eventhub/pkg/pointer"
)

var (
	poland  = &location.Country{ID: "country-pl", Name: "Poland", Code: "PL", Slug: "poland"}
	germany = &location.Country{ID: "country-de", Name: "Germany", Code: "DE", Slug: "germany"}
	britain = &location.Country{ID: "country-gb", Name: "United Kingdom", Code: "GB", Slug: "united-kingdom"}
)

/*
TestNewCity_Validation refuses non-city strings at the model boundary.
*/
func TestNewCity_Validation(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		country *location.Country
		wantErr bool
	}{
		{"plain", "London", britain, false},
		{"postcode", "SW18 2SS", britain, true},
		{"street_range", "10-16 Botchergate", britain, true},
		{"numeric", "90210", britain, true},
		{"blank", "   ", poland, true},
		{"accented", "Łódź", poland, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			city, err := location.NewCity(tt.input, tt.country, nil, nil)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, apperr.KindInvalidCityName, apperr.KindOf(err))
				assert.Nil(t, city)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.country.ID, city.CountryID)
			assert.NotEmpty(t, city.Slug)
			assert.NotNil(t, city.AlternateNames)
			assert.Empty(t, city.AlternateNames)
		})
	}
}

/*
TestNewCity_Coordinates keeps coordinates only when both are present.
*/
func TestNewCity_Coordinates(t *testing.T) {
	city, err := location.NewCity("Warsaw", poland, pointer.To(52.2297), pointer.To(21.0122))
	require.NoError(t, err)
	assert.True(t, city.HasCoordinates())
	assert.Equal(t, "warsaw", city.Slug)

	half, err := location.NewCity("Krakow", poland, pointer.To(50.06), nil)
	require.NoError(t, err)
	assert.False(t, half.HasCoordinates())
	assert.Nil(t, half.Latitude)
}

/*
TestCity_Rename keeps the previous name as an alternate and refuses bad names.
*/
func TestCity_Rename(t *testing.T) {
	city, err := location.NewCity("Warschau", poland, nil, nil)
	require.NoError(t, err)

	require.NoError(t, city.Rename("Warsaw", "PL"))
	assert.Equal(t, "Warsaw", city.Name)
	assert.Equal(t, []string{"Warschau"}, city.AlternateNames)
	assert.True(t, city.Matches("warschau"))

	err = city.Rename("00-001", "PL")
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidCityName, apperr.KindOf(err))
	assert.Equal(t, "Warsaw", city.Name)

	// Renaming back to an alternate promotes it
	require.NoError(t, city.Rename("warschau", "PL"))
	assert.Equal(t, "warschau", city.Name)
	assert.Equal(t, []string{"Warsaw"}, city.AlternateNames)
}

/*
TestCity_AlternateNames treats the list as a case-insensitive ordered set.
*/
func TestCity_AlternateNames(t *testing.T) {
	city, err := location.NewCity("Warsaw", poland, nil, nil)
	require.NoError(t, err)

	assert.True(t, city.AddAlternateName("Warszawa"))
	assert.True(t, city.AddAlternateName("Warschau"))
	assert.False(t, city.AddAlternateName("WARSZAWA"))
	assert.False(t, city.AddAlternateName("warsaw"))
	assert.False(t, city.AddAlternateName(" "))
	assert.Equal(t, []string{"Warszawa", "Warschau"}, city.AlternateNames)

	assert.True(t, city.RemoveAlternateName("warszawa"))
	assert.False(t, city.RemoveAlternateName("Varsovie"))
	assert.Equal(t, []string{"Warschau"}, city.AlternateNames)
}

/*
TestNewVenue_Slug qualifies the venue slug with the city slug.
*/
func TestNewVenue_Slug(t *testing.T) {
	city, err := location.NewCity("London", britain, nil, nil)
	require.NoError(t, err)

	venue := location.NewVenue(location.VenueData{Name: " The Roundhouse ", Address: "Chalk Farm Rd"}, city)
	assert.Equal(t, "The Roundhouse", venue.Name)
	assert.Equal(t, "the-roundhouse-london", venue.Slug)
	require.NotNil(t, venue.CityID)
	assert.Equal(t, city.ID, *venue.CityID)
	require.NotNil(t, venue.Address)
	assert.Equal(t, "Chalk Farm Rd", *venue.Address)

	cityless := location.NewVenue(location.VenueData{Name: "Online"}, nil)
	assert.Equal(t, "online", cityless.Slug)
	assert.Nil(t, cityless.CityID)
	assert.Nil(t, cityless.Address)
}

/*
TestVenue_Fill only fills missing details.
*/
func TestVenue_Fill(t *testing.T) {
	venue := location.NewVenue(location.VenueData{Name: "Stodola"}, nil)

	assert.False(t, venue.Fill(location.VenueData{Latitude: pointer.To(52.21)}))
	assert.True(t, venue.Fill(location.VenueData{Address: "Batorego 10", Latitude: pointer.To(52.21), Longitude: pointer.To(21.0)}))
	assert.False(t, venue.Fill(location.VenueData{Address: "Elsewhere", Latitude: pointer.To(1.0), Longitude: pointer.To(1.0)}))

	assert.Equal(t, "Batorego 10", *venue.Address)
	assert.Equal(t, 52.21, *venue.Latitude)
}
