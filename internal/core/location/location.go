// Copyright (c) 2026 Eventhub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package location owns the geographic hierarchy events hang off: countries,
cities and venues.

Scraped venue data arrives as loose text. The [Resolver] turns it into a
persisted [Venue], matching cities by canonical or alternate name within one
country and refusing strings that are not city names at all. City names are
validated wherever they are set: [NewCity] and [City.Rename] refuse bad names
at the model boundary and the resolver checks again before any lookup.
*/
package location

import (
	"strings"
	"time"

	"github.com/taibuivan/eventhub/internal/core/location/cityname"
	"github.com/taibuivan/eventhub/internal/platform/apperr"
	"github.com/taibuivan/eventhub/pkg/slug"
	"github.com/taibuivan/eventhub/pkg/uuidv7"
)

var (
	// ErrSlugTaken is returned when a slug edit collides with another city.
	ErrSlugTaken = apperr.Conflict("Slug is already in use")
)

// Country is immutable reference data, created the first time it is sighted.
type Country struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
	Slug string `json:"slug"`
}

// City is a named place within one country.
type City struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Slug           string    `json:"slug"`
	CountryID      string    `json:"country_id"`
	Latitude       *float64  `json:"latitude,omitempty"`
	Longitude      *float64  `json:"longitude,omitempty"`
	AlternateNames []string  `json:"alternate_names"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Venue is a place events happen at. The city is optional.
type Venue struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Address   *string   `json:"address,omitempty"`
	CityID    *string   `json:"city_id,omitempty"`
	Latitude  *float64  `json:"latitude,omitempty"`
	Longitude *float64  `json:"longitude,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// VenueData is the loosely formatted venue description supplied by scrapers.
type VenueData struct {
	Name        string   `json:"name"`
	Address     string   `json:"address,omitempty"`
	CityName    string   `json:"city_name,omitempty"`
	CountryName string   `json:"country_name,omitempty"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
}

// # City Lifecycle

/*
NewCity builds a city in country after validating its name.

Returns:
  - *City: with a fresh id, the slug derived from name and no alternate names
  - error: apperr invalid_city_name when the name is rejected
*/
func NewCity(name string, country *Country, latitude, longitude *float64) (*City, error) {
	name = cityname.Normalize(name)
	if err := validateName(name, country.Code); err != nil {
		return nil, err
	}

	city := &City{
		ID:             uuidv7.New(),
		Name:           name,
		Slug:           slug.From(name),
		CountryID:      country.ID,
		AlternateNames: []string{},
	}

	if latitude != nil && longitude != nil {
		city.Latitude, city.Longitude = latitude, longitude
	}

	return city, nil
}

// Rename changes the canonical name. The previous name is kept as an alternate
// so existing scraper spellings keep matching.
func (city *City) Rename(name, countryCode string) error {
	name = cityname.Normalize(name)
	if err := validateName(name, countryCode); err != nil {
		return err
	}

	if strings.EqualFold(city.Name, name) {
		city.Name = name
		return nil
	}

	previous := city.Name
	city.Name = name
	city.RemoveAlternateName(name)
	city.AddAlternateName(previous)
	return nil
}

// CheckName validates the current canonical name for the city's country.
// Repositories call it on every write.
func (city *City) CheckName(countryCode string) error {
	return validateName(city.Name, countryCode)
}

func validateName(name, countryCode string) error {
	if result := cityname.Validate(name, countryCode); !result.OK {
		return apperr.InvalidCityName(name, countryCode, string(result.Reason))
	}
	return nil
}

// Matches reports whether name is the canonical or an alternate name, ignoring case.
func (city *City) Matches(name string) bool {
	name = cityname.Normalize(name)
	if strings.EqualFold(city.Name, name) {
		return true
	}
	for _, alternate := range city.AlternateNames {
		if strings.EqualFold(alternate, name) {
			return true
		}
	}
	return false
}

// AddAlternateName appends name unless it is already known. It reports whether
// the set changed.
func (city *City) AddAlternateName(name string) bool {
	name = cityname.Normalize(name)
	if name == "" || city.Matches(name) {
		return false
	}
	city.AlternateNames = append(city.AlternateNames, name)
	return true
}

// RemoveAlternateName drops name, ignoring case. It reports whether the set changed.
func (city *City) RemoveAlternateName(name string) bool {
	name = cityname.Normalize(name)
	for index, alternate := range city.AlternateNames {
		if strings.EqualFold(alternate, name) {
			city.AlternateNames = append(city.AlternateNames[:index:index], city.AlternateNames[index+1:]...)
			return true
		}
	}
	return false
}

// HasCoordinates reports whether both coordinates are set.
func (city *City) HasCoordinates() bool {
	return city.Latitude != nil && city.Longitude != nil
}

// # Venue Lifecycle

// NewVenue builds a venue, optionally attached to city.
func NewVenue(data VenueData, city *City) *Venue {
	venue := &Venue{
		ID:   uuidv7.New(),
		Name: strings.TrimSpace(data.Name),
	}

	base := venue.Name
	if city != nil {
		venue.CityID = &city.ID
		base += " " + city.Slug
	}
	venue.Slug = slug.From(base)

	venue.Fill(data)
	return venue
}

// Fill copies address and coordinates from data where the venue has none yet.
// It reports whether anything changed.
func (venue *Venue) Fill(data VenueData) bool {
	changed := false

	if venue.Address == nil {
		if address := strings.TrimSpace(data.Address); address != "" {
			venue.Address = &address
			changed = true
		}
	}

	if (venue.Latitude == nil || venue.Longitude == nil) && data.Latitude != nil && data.Longitude != nil {
		latitude, longitude := *data.Latitude, *data.Longitude
		venue.Latitude, venue.Longitude = &latitude, &longitude
		changed = true
	}

	return changed
}
