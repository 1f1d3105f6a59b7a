// Copyright (c) 2026 Eventhub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package location

import "context"

// # Country Data Access

// CountryRepository persists countries. Countries are written outside any
// ingestion transaction so that a cached country id always refers to a
// committed row.
type CountryRepository interface {

	/*
		FindCountryByCode retrieves a country by ISO 3166-1 alpha-2 code.

		Returns:
		  - *Country: Hydrated entity
		  - error: ErrNotFound if missing
	*/
	FindCountryByCode(ctx context.Context, code string) (*Country, error)

	// FindCountryByID retrieves a country by primary key.
	FindCountryByID(ctx context.Context, id string) (*Country, error)

	/*
		CreateCountry inserts the country unless its code exists, then returns
		the stored row, which may be another writer's.
	*/
	CreateCountry(ctx context.Context, country *Country) (*Country, error)

	// ListCountries returns every known country ordered by name.
	ListCountries(ctx context.Context) ([]*Country, error)
}

// # City & Venue Data Access

// Repository is the city and venue store used by the resolver. It may be
// backed by a pool or by the caller's transaction.
type Repository interface {

	/*
		FindCity matches a city in one country by canonical or alternate name,
		case-insensitively.

		Parameters:
		  - ctx: context.Context
		  - countryID: string
		  - name: string

		Returns:
		  - *City: Hydrated entity
		  - error: ErrNotFound if no city matches
	*/
	FindCity(ctx context.Context, countryID, name string) (*City, error)

	/*
		InsertCity writes city unless a unique key already exists.

		Returns:
		  - bool: false when the insert was skipped because of a conflict
		  - error: Persistence failures
	*/
	InsertCity(ctx context.Context, city *City) (bool, error)

	// FindCityBySlug retrieves a city by its unique slug.
	FindCityBySlug(ctx context.Context, slug string) (*City, error)

	// FindCityByID retrieves a city by primary key.
	FindCityByID(ctx context.Context, id string) (*City, error)

	// ListCities returns the cities of a country, or of all countries when
	// countryID is empty, ordered by name.
	ListCities(ctx context.Context, countryID string, limit, offset int) ([]*City, int, error)

	// UpdateCity persists name, slug, coordinates and alternate names.
	UpdateCity(ctx context.Context, city *City) error

	// FindVenue matches a venue by name (case-insensitive) within a city; a nil
	// city matches venues without a city.
	FindVenue(ctx context.Context, name string, cityID *string) (*Venue, error)

	// InsertVenue writes venue unless a unique key already exists.
	InsertVenue(ctx context.Context, venue *Venue) (bool, error)

	// UpdateVenueDetails persists address and coordinates.
	UpdateVenueDetails(ctx context.Context, venue *Venue) error
}
