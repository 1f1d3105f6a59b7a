// Copyright (c) 2026 Eventhub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package location

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/taibuivan/eventhub/internal/core/location/cityname"
	"github.com/taibuivan/eventhub/internal/platform/apperr"
	"github.com/taibuivan/eventhub/internal/platform/ctxutil"
	"github.com/taibuivan/eventhub/internal/platform/dberr"
	"github.com/taibuivan/eventhub/internal/platform/telemetry"
	"github.com/taibuivan/eventhub/pkg/slug"
)

// Rejection layers reported with city_name_rejected signals.
const (
	LayerModel    = "model"
	LayerResolver = "resolver"
)

// CountryResolver turns a country string into a persisted country.
type CountryResolver interface {
	Resolve(ctx context.Context, input string) (*Country, error)
}

// Resolver turns scraped [VenueData] into a persisted [Venue].
type Resolver struct {
	countries CountryResolver
	emitter   telemetry.Emitter
	logger    *slog.Logger
}

// NewResolver constructs a resolver.
func NewResolver(countries CountryResolver, emitter telemetry.Emitter, logger *slog.Logger) *Resolver {
	return &Resolver{countries: countries, emitter: emitter, logger: logger}
}

/*
Resolve finds or creates the venue described by data.

Description: The country is resolved first. Without a city name the venue is
attached to no city. Otherwise the city name is validated for the country and,
if valid, matched against existing cities of that country by canonical or
alternate name before a new city is created. Nothing is written when the name
is rejected.

Parameters:
  - ctx: context.Context (source id is read from it for rejection signals)
  - store: Repository, usually bound to the caller's transaction
  - data: VenueData

Returns:
  - *Venue: Existing or newly created venue
  - error: invalid_city_name, missing_required_field or constraint_race
*/
func (resolver *Resolver) Resolve(ctx context.Context, store Repository, data VenueData) (*Venue, error) {
	if strings.TrimSpace(data.Name) == "" {
		return nil, apperr.MissingField("venue_data.name")
	}

	country, err := resolver.countries.Resolve(ctx, data.CountryName)
	if err != nil {
		return nil, err
	}

	var city *City
	if cityName := cityname.Normalize(data.CityName); cityName != "" {
		if result := cityname.Validate(cityName, country.Code); !result.OK {
			resolver.reject(ctx, cityName, country, result)
			return nil, apperr.InvalidCityName(cityName, country.Code, string(result.Reason))
		}

		city, err = resolver.findOrCreateCity(ctx, store, cityName, country, data)
		if err != nil {
			return nil, err
		}
	}

	return resolver.findOrCreateVenue(ctx, store, data, city)
}

/*
CanonicalCityName returns the canonical name of the city data refers to.

Description: A name that matches an existing city of the same country, by
canonical or alternate name, yields that city's canonical name. Anything else,
including lookup failures, yields the normalized input; [Resolver.Resolve]
reports those failures when it runs.
*/
func (resolver *Resolver) CanonicalCityName(ctx context.Context, store Repository, data VenueData) string {
	name := cityname.Normalize(data.CityName)
	if name == "" {
		return ""
	}

	country, err := resolver.countries.Resolve(ctx, data.CountryName)
	if err != nil {
		return name
	}

	city, err := store.FindCity(ctx, country.ID, name)
	if err != nil {
		return name
	}
	return city.Name
}

// reject logs and signals a city name refused by the validator.
func (resolver *Resolver) reject(ctx context.Context, name string, country *Country, result cityname.Result) {
	source := ctxutil.GetSourceID(ctx)

	resolver.logger.WarnContext(ctx, "city_name_rejected",
		slog.String("source", source),
		slog.String("city_name", name),
		slog.String("country", country.Code),
		slog.String("reason", string(result.Reason)),
		slog.String("rule", result.Rule),
		slog.String("layer", LayerResolver),
	)

	resolver.emitter.Emit(ctx, telemetry.Signal{
		Kind:    telemetry.KindCityNameRejected,
		Source:  source,
		Value:   name,
		Country: country.Code,
		Reason:  string(result.Reason),
		Layer:   LayerResolver,
		At:      time.Now().UTC(),
	})
}

// # Cities

func (resolver *Resolver) findOrCreateCity(ctx context.Context, store Repository, name string, country *Country, data VenueData) (*City, error) {
	existing, err := store.FindCity(ctx, country.ID, name)
	if err == nil {
		return existing, nil
	}
	if !dberr.IsNotFound(err) {
		return nil, err
	}

	city, err := NewCity(name, country, data.Latitude, data.Longitude)
	if err != nil {
		return nil, err
	}

	inserted, err := store.InsertCity(ctx, city)
	if err != nil {
		return nil, err
	}
	if inserted {
		resolver.logger.InfoContext(ctx, "city_created",
			slog.String("city_id", city.ID),
			slog.String("name", city.Name),
			slog.String("country", country.Code),
		)
		return city, nil
	}

	// Another writer may have created the same city
	if winner, err := store.FindCity(ctx, country.ID, name); err == nil {
		return winner, nil
	} else if !dberr.IsNotFound(err) {
		return nil, err
	}

	// The slug belongs to an unrelated city, usually one in another country
	city.Slug = slug.From(name + " " + country.Code)
	inserted, err = store.InsertCity(ctx, city)
	if err != nil {
		return nil, err
	}
	if inserted {
		resolver.logger.InfoContext(ctx, "city_created",
			slog.String("city_id", city.ID),
			slog.String("name", city.Name),
			slog.String("slug", city.Slug),
			slog.String("country", country.Code),
		)
		return city, nil
	}

	if winner, err := store.FindCity(ctx, country.ID, name); err == nil {
		return winner, nil
	}
	return nil, apperr.ConstraintRace("city "+name, nil)
}

// # Venues

func (resolver *Resolver) findOrCreateVenue(ctx context.Context, store Repository, data VenueData, city *City) (*Venue, error) {
	var cityID *string
	if city != nil {
		cityID = &city.ID
	}

	venue, err := store.FindVenue(ctx, data.Name, cityID)
	if err == nil {
		if venue.Fill(data) {
			if err := store.UpdateVenueDetails(ctx, venue); err != nil {
				return nil, err
			}
		}
		return venue, nil
	}
	if !dberr.IsNotFound(err) {
		return nil, err
	}

	venue = NewVenue(data, city)
	inserted, err := store.InsertVenue(ctx, venue)
	if err != nil {
		return nil, err
	}
	if inserted {
		return venue, nil
	}

	if winner, err := store.FindVenue(ctx, data.Name, cityID); err == nil {
		return winner, nil
	} else if !dberr.IsNotFound(err) {
		return nil, err
	}

	// Same slug, different venue: disambiguate with the id
	venue.Slug = venue.Slug + "-" + venue.ID[len(venue.ID)-8:]
	inserted, err = store.InsertVenue(ctx, venue)
	if err != nil {
		return nil, err
	}
	if inserted {
		return venue, nil
	}

	if winner, err := store.FindVenue(ctx, data.Name, cityID); err == nil {
		return winner, nil
	}
	return nil, apperr.ConstraintRace("venue "+data.Name, nil)
}
