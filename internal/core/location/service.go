// Copyright (c) 2026 Eventhub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package location

import (
	"context"
	"log/slog"
	"time"

	"github.com/taibuivan/eventhub/internal/core/location/cityname"
	"github.com/taibuivan/eventhub/internal/platform/apperr"
	"github.com/taibuivan/eventhub/internal/platform/ctxutil"
	"github.com/taibuivan/eventhub/internal/platform/dberr"
	"github.com/taibuivan/eventhub/internal/platform/telemetry"
	"github.com/taibuivan/eventhub/internal/platform/validate"
)

// maxSlugLength matches the longest city name the rule table accepts.
const maxSlugLength = 120

// # Service Layer

// Service implements operator edits on cities and countries.
type Service struct {
	repo      Repository
	countries CountryRepository
	directory *CountryDirectory
	emitter   telemetry.Emitter
	logger    *slog.Logger
}

// NewService constructs a new location [Service].
func NewService(repo Repository, countries CountryRepository, directory *CountryDirectory, emitter telemetry.Emitter, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		countries: countries,
		directory: directory,
		emitter:   emitter,
		logger:    logger,
	}
}

// # Read

/*
ListCities returns one page of cities, optionally limited to one country.

Parameters:
  - ctx: context.Context
  - countryCode: string (ISO alpha-2, empty for all)
  - limit, offset: int

Returns:
  - []*City: Page of cities
  - int: Total matching count
  - error: ErrNotFound for an unknown country code
*/
func (service *Service) ListCities(ctx context.Context, countryCode string, limit, offset int) ([]*City, int, error) {
	countryID := ""
	if countryCode != "" {
		country, err := service.countries.FindCountryByCode(ctx, countryCode)
		if err != nil {
			return nil, 0, err
		}
		countryID = country.ID
	}
	return service.repo.ListCities(ctx, countryID, limit, offset)
}

// GetCity retrieves a city by id or slug.
func (service *Service) GetCity(ctx context.Context, identifier string) (*City, error) {
	if len(identifier) == 36 {
		return service.repo.FindCityByID(ctx, identifier)
	}
	return service.repo.FindCityBySlug(ctx, identifier)
}

// ListCountries returns every persisted country.
func (service *Service) ListCountries(ctx context.Context) ([]*Country, error) {
	return service.directory.List(ctx)
}

// InvalidateCountry drops a cached country so the next lookup reads the store.
func (service *Service) InvalidateCountry(ctx context.Context, code string) {
	service.directory.Invalidate(ctx, code)
	service.logger.InfoContext(ctx, "country_cache_invalidated", slog.String("code", code))
}

// # Edits

/*
RenameCity changes a city's canonical name. The old name becomes an alternate.

Description: The new name must not already resolve to a different city of the
same country.

Returns:
  - *City: Updated entity
  - error: invalid_city_name, ErrNotFound, Conflict
*/
func (service *Service) RenameCity(ctx context.Context, identifier, name string) (*City, error) {
	city, country, err := service.load(ctx, identifier)
	if err != nil {
		return nil, err
	}

	if err := city.Rename(name, country.Code); err != nil {
		service.rejected(ctx, name, country)
		return nil, err
	}

	if err := service.unclaimed(ctx, city, country, city.Name); err != nil {
		return nil, err
	}

	if err := service.repo.UpdateCity(ctx, city); err != nil {
		return nil, err
	}

	service.logger.InfoContext(ctx, "city_renamed", slog.String("city_id", city.ID), slog.String("name", city.Name))
	return city, nil
}

// UpdateCitySlug replaces the unique slug.
func (service *Service) UpdateCitySlug(ctx context.Context, identifier, newSlug string) (*City, error) {
	if err := (&validate.Validator{}).Slug("slug", newSlug).MaxLen("slug", newSlug, maxSlugLength).Err(); err != nil {
		return nil, err
	}

	city, _, err := service.load(ctx, identifier)
	if err != nil {
		return nil, err
	}

	city.Slug = newSlug
	if err := service.repo.UpdateCity(ctx, city); err != nil {
		return nil, err
	}
	return city, nil
}

/*
AddAlternateName teaches a city another spelling.

Description: The spelling must itself be a valid city name for the country and
must not already resolve to a different city of the same country.
*/
func (service *Service) AddAlternateName(ctx context.Context, identifier, name string) (*City, error) {
	city, country, err := service.load(ctx, identifier)
	if err != nil {
		return nil, err
	}

	name = cityname.Normalize(name)
	if result := cityname.Validate(name, country.Code); !result.OK {
		service.rejected(ctx, name, country)
		return nil, apperr.InvalidCityName(name, country.Code, string(result.Reason))
	}

	if err := service.unclaimed(ctx, city, country, name); err != nil {
		return nil, err
	}

	if !city.AddAlternateName(name) {
		return city, nil
	}

	if err := service.repo.UpdateCity(ctx, city); err != nil {
		return nil, err
	}
	return city, nil
}

// unclaimed fails when name already resolves to a city other than city.
func (service *Service) unclaimed(ctx context.Context, city *City, country *Country, name string) error {
	other, err := service.repo.FindCity(ctx, country.ID, name)
	if err == nil && other.ID != city.ID {
		return apperr.Conflict("Name already resolves to city " + other.Slug)
	}
	if err != nil && !dberr.IsNotFound(err) {
		return err
	}
	return nil
}

// RemoveAlternateName forgets a spelling. Removing an unknown spelling is a no-op.
func (service *Service) RemoveAlternateName(ctx context.Context, identifier, name string) (*City, error) {
	city, _, err := service.load(ctx, identifier)
	if err != nil {
		return nil, err
	}

	if !city.RemoveAlternateName(name) {
		return city, nil
	}

	if err := service.repo.UpdateCity(ctx, city); err != nil {
		return nil, err
	}
	return city, nil
}

func (service *Service) load(ctx context.Context, identifier string) (*City, *Country, error) {
	city, err := service.GetCity(ctx, identifier)
	if err != nil {
		return nil, nil, err
	}
	country, err := service.countries.FindCountryByID(ctx, city.CountryID)
	if err != nil {
		return nil, nil, err
	}
	return city, country, nil
}

// rejected records a model-layer rejection.
func (service *Service) rejected(ctx context.Context, name string, country *Country) {
	result := cityname.Validate(name, country.Code)

	service.logger.WarnContext(ctx, "city_name_rejected",
		slog.String("city_name", name),
		slog.String("country", country.Code),
		slog.String("reason", string(result.Reason)),
		slog.String("layer", LayerModel),
	)

	service.emitter.Emit(ctx, telemetry.Signal{
		Kind:    telemetry.KindCityNameRejected,
		Source:  ctxutil.GetRequestID(ctx),
		Value:   name,
		Country: country.Code,
		Reason:  string(result.Reason),
		Layer:   LayerModel,
		At:      time.Now().UTC(),
	})
}
