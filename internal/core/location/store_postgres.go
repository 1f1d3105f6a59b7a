// Copyright (c) 2026 Eventhub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package location

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/taibuivan/eventhub/internal/platform/database/schema"
	"github.com/taibuivan/eventhub/internal/platform/dberr"
	"github.com/taibuivan/eventhub/internal/platform/postgres"
)

// PostgresRepository implements [Repository] and [CountryRepository] using pgx.
type PostgresRepository struct {
	db postgres.DBTX
}

// NewPostgresRepository constructs a store over a pool or a transaction.
func NewPostgresRepository(db postgres.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

var (
	countryColumns = strings.Join(schema.CatalogCountry.Columns(), ", ")
	cityColumns    = strings.Join(append(schema.CatalogCity.Columns(), schema.CatalogCity.CreatedAt, schema.CatalogCity.UpdatedAt), ", ")
	venueColumns   = strings.Join(append(schema.CatalogVenue.Columns(), schema.CatalogVenue.CreatedAt, schema.CatalogVenue.UpdatedAt), ", ")
)

// # Countries

func (repository *PostgresRepository) FindCountryByCode(ctx context.Context, code string) (*Country, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		countryColumns, schema.CatalogCountry.Table, schema.CatalogCountry.Code)

	country := &Country{}
	err := repository.db.QueryRow(ctx, query, strings.ToUpper(code)).Scan(
		&country.ID, &country.Name, &country.Code, &country.Slug,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "find_country_by_code")
	}
	return country, nil
}

func (repository *PostgresRepository) FindCountryByID(ctx context.Context, id string) (*Country, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		countryColumns, schema.CatalogCountry.Table, schema.CatalogCountry.ID)

	country := &Country{}
	err := repository.db.QueryRow(ctx, query, id).Scan(
		&country.ID, &country.Name, &country.Code, &country.Slug,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "find_country_by_id")
	}
	return country, nil
}

/*
CreateCountry inserts the country, tolerating a concurrent insert of the same
code, and returns whatever row holds the code afterwards.
*/
func (repository *PostgresRepository) CreateCountry(ctx context.Context, country *Country) (*Country, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT DO NOTHING
	`, schema.CatalogCountry.Table, countryColumns)

	if _, err := repository.db.Exec(ctx, query, country.ID, country.Name, country.Code, country.Slug); err != nil {
		return nil, dberr.Wrap(err, "create_country")
	}

	return repository.FindCountryByCode(ctx, country.Code)
}

func (repository *PostgresRepository) ListCountries(ctx context.Context) ([]*Country, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY %s ASC`,
		countryColumns, schema.CatalogCountry.Table, schema.CatalogCountry.Name)

	rows, err := repository.db.Query(ctx, query)
	if err != nil {
		return nil, dberr.Wrap(err, "list_countries")
	}
	defer rows.Close()

	countries := []*Country{}
	for rows.Next() {
		country := &Country{}
		if err := rows.Scan(&country.ID, &country.Name, &country.Code, &country.Slug); err != nil {
			return nil, dberr.Wrap(err, "scan_country")
		}
		countries = append(countries, country)
	}
	return countries, dberr.Wrap(rows.Err(), "list_countries")
}

// # Cities

func scanCity(row pgx.Row, extra ...any) (*City, error) {
	city := &City{}
	targets := append([]any{
		&city.ID, &city.Name, &city.Slug, &city.CountryID,
		&city.Latitude, &city.Longitude, &city.AlternateNames,
		&city.CreatedAt, &city.UpdatedAt,
	}, extra...)

	if err := row.Scan(targets...); err != nil {
		return nil, err
	}
	if city.AlternateNames == nil {
		city.AlternateNames = []string{}
	}
	return city, nil
}

/*
FindCity matches a city within a country by canonical or alternate name.

Description: Matching is case-insensitive on both sides. A canonical-name
match wins over an alternate-name match; among equals the oldest city wins.
*/
func (repository *PostgresRepository) FindCity(ctx context.Context, countryID, name string) (*City, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE %s = $1
		  AND (lower(%s) = lower($2)
		       OR EXISTS (SELECT 1 FROM unnest(%s) AS alternate WHERE lower(alternate) = lower($2)))
		ORDER BY (lower(%s) = lower($2)) DESC, %s ASC
		LIMIT 1
	`,
		cityColumns, schema.CatalogCity.Table,
		schema.CatalogCity.CountryID,
		schema.CatalogCity.Name,
		schema.CatalogCity.AlternateNames,
		schema.CatalogCity.Name, schema.CatalogCity.CreatedAt,
	)

	city, err := scanCity(repository.db.QueryRow(ctx, query, countryID, name))
	if err != nil {
		return nil, dberr.Wrap(err, "find_city")
	}
	return city, nil
}

// checkCityName refuses a write whose name the validator rejects.
func (repository *PostgresRepository) checkCityName(ctx context.Context, city *City) error {
	country, err := repository.FindCountryByID(ctx, city.CountryID)
	if err != nil {
		return err
	}
	return city.CheckName(country.Code)
}

func (repository *PostgresRepository) InsertCity(ctx context.Context, city *City) (bool, error) {
	if err := repository.checkCityName(ctx, city); err != nil {
		return false, err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT DO NOTHING
	`, schema.CatalogCity.Table, strings.Join(schema.CatalogCity.Columns(), ", "))

	alternates := city.AlternateNames
	if alternates == nil {
		alternates = []string{}
	}

	tag, err := repository.db.Exec(ctx, query,
		city.ID, city.Name, city.Slug, city.CountryID, city.Latitude, city.Longitude, alternates,
	)
	if err != nil {
		return false, dberr.Wrap(err, "insert_city")
	}
	return tag.RowsAffected() == 1, nil
}

func (repository *PostgresRepository) FindCityBySlug(ctx context.Context, slug string) (*City, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		cityColumns, schema.CatalogCity.Table, schema.CatalogCity.Slug)

	city, err := scanCity(repository.db.QueryRow(ctx, query, slug))
	if err != nil {
		return nil, dberr.Wrap(err, "find_city_by_slug")
	}
	return city, nil
}

func (repository *PostgresRepository) FindCityByID(ctx context.Context, id string) (*City, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		cityColumns, schema.CatalogCity.Table, schema.CatalogCity.ID)

	city, err := scanCity(repository.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, dberr.Wrap(err, "find_city_by_id")
	}
	return city, nil
}

/*
ListCities returns one page of cities and the total count.

Description: Uses COUNT(*) OVER() for total metadata.
*/
func (repository *PostgresRepository) ListCities(ctx context.Context, countryID string, limit, offset int) ([]*City, int, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(fmt.Sprintf(`SELECT %s, COUNT(*) OVER() AS total FROM %s`, cityColumns, schema.CatalogCity.Table))

	args := []any{}
	argID := 1

	if countryID != "" {
		queryBuilder.WriteString(fmt.Sprintf(" WHERE %s = $%d", schema.CatalogCity.CountryID, argID))
		args = append(args, countryID)
		argID++
	}

	queryBuilder.WriteString(fmt.Sprintf(" ORDER BY %s ASC, %s ASC LIMIT $%d OFFSET $%d",
		schema.CatalogCity.Name, schema.CatalogCity.ID, argID, argID+1))
	args = append(args, limit, offset)

	rows, err := repository.db.Query(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list_cities")
	}
	defer rows.Close()

	cities := []*City{}
	total := 0
	for rows.Next() {
		city, err := scanCity(rows, &total)
		if err != nil {
			return nil, 0, dberr.Wrap(err, "scan_city")
		}
		cities = append(cities, city)
	}
	return cities, total, dberr.Wrap(rows.Err(), "list_cities")
}

func (repository *PostgresRepository) UpdateCity(ctx context.Context, city *City) error {
	if err := repository.checkCityName(ctx, city); err != nil {
		return err
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $2, %s = $3, %s = $4, %s = $5, %s = $6, %s = now()
		WHERE %s = $1
	`,
		schema.CatalogCity.Table,
		schema.CatalogCity.Name, schema.CatalogCity.Slug,
		schema.CatalogCity.Latitude, schema.CatalogCity.Longitude,
		schema.CatalogCity.AlternateNames, schema.CatalogCity.UpdatedAt,
		schema.CatalogCity.ID,
	)

	alternates := city.AlternateNames
	if alternates == nil {
		alternates = []string{}
	}

	tag, err := repository.db.Exec(ctx, query, city.ID, city.Name, city.Slug, city.Latitude, city.Longitude, alternates)
	if err != nil {
		if dberr.IsUniqueViolation(err) {
			return ErrSlugTaken
		}
		return dberr.Wrap(err, "update_city")
	}
	if tag.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}
	return nil
}

// # Venues

func scanVenue(row pgx.Row) (*Venue, error) {
	venue := &Venue{}
	err := row.Scan(
		&venue.ID, &venue.Name, &venue.Slug, &venue.Address, &venue.CityID,
		&venue.Latitude, &venue.Longitude, &venue.CreatedAt, &venue.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return venue, nil
}

func (repository *PostgresRepository) FindVenue(ctx context.Context, name string, cityID *string) (*Venue, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE lower(%s) = lower($1) AND %s IS NOT DISTINCT FROM $2
		LIMIT 1
	`, venueColumns, schema.CatalogVenue.Table, schema.CatalogVenue.Name, schema.CatalogVenue.CityID)

	venue, err := scanVenue(repository.db.QueryRow(ctx, query, strings.TrimSpace(name), cityID))
	if err != nil {
		return nil, dberr.Wrap(err, "find_venue")
	}
	return venue, nil
}

func (repository *PostgresRepository) InsertVenue(ctx context.Context, venue *Venue) (bool, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT DO NOTHING
	`, schema.CatalogVenue.Table, strings.Join(schema.CatalogVenue.Columns(), ", "))

	tag, err := repository.db.Exec(ctx, query,
		venue.ID, venue.Name, venue.Slug, venue.Address, venue.CityID, venue.Latitude, venue.Longitude,
	)
	if err != nil {
		return false, dberr.Wrap(err, "insert_venue")
	}
	return tag.RowsAffected() == 1, nil
}

func (repository *PostgresRepository) UpdateVenueDetails(ctx context.Context, venue *Venue) error {
	query := fmt.Sprintf(`
		UPDATE %s SET %s = $2, %s = $3, %s = $4, %s = now()
		WHERE %s = $1
	`,
		schema.CatalogVenue.Table,
		schema.CatalogVenue.Address, schema.CatalogVenue.Latitude, schema.CatalogVenue.Longitude,
		schema.CatalogVenue.UpdatedAt, schema.CatalogVenue.ID,
	)

	_, err := repository.db.Exec(ctx, query, venue.ID, venue.Address, venue.Latitude, venue.Longitude)
	return dberr.Wrap(err, "update_venue_details")
}
