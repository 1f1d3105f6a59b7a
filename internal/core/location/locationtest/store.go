// Copyright (c) 2026 Eventhub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package locationtest provides an in-memory location store for tests.

The [Store] honours the same uniqueness rules as the PostgreSQL schema: unique
country codes, unique city slugs and unique (lower(name), city) venues. Writes
made through a [Store.Journal] view can be undone, which lets callers emulate
transaction rollback.
*/
package locationtest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/taibuivan/eventhub/internal/core/location"
	"github.com/taibuivan/eventhub/internal/platform/dberr"
)

// Store keeps countries, cities and venues in memory. It is safe for concurrent use.
type Store struct {
	mu        sync.Mutex
	countries []*location.Country
	cities    []*location.City
	venues    []*location.Venue

	// FailVenueInsert, when set, is returned by every InsertVenue call.
	FailVenueInsert error
}

// New creates an empty store.
func New() *Store {
	return &Store{}
}

// Repository returns a non-journaled view implementing [location.Repository].
func (store *Store) Repository() location.Repository {
	return &view{store: store}
}

// Journal returns a view that appends an undo closure to undo for every write.
func (store *Store) Journal(undo *[]func()) location.Repository {
	return &view{store: store, undo: undo}
}

// # Seeding & Inspection

// SeedCountry stores country as-is.
func (store *Store) SeedCountry(country *location.Country) {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.countries = append(store.countries, cloneCountry(country))
}

// SeedCity stores city as-is.
func (store *Store) SeedCity(city *location.City) {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.cities = append(store.cities, cloneCity(city))
}

// Cities returns copies of every stored city.
func (store *Store) Cities() []*location.City {
	store.mu.Lock()
	defer store.mu.Unlock()
	out := make([]*location.City, 0, len(store.cities))
	for _, city := range store.cities {
		out = append(out, cloneCity(city))
	}
	return out
}

// Venues returns copies of every stored venue.
func (store *Store) Venues() []*location.Venue {
	store.mu.Lock()
	defer store.mu.Unlock()
	out := make([]*location.Venue, 0, len(store.venues))
	for _, venue := range store.venues {
		out = append(out, cloneVenue(venue))
	}
	return out
}

// # Countries

func (store *Store) FindCountryByCode(_ context.Context, code string) (*location.Country, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	for _, country := range store.countries {
		if strings.EqualFold(country.Code, code) {
			return cloneCountry(country), nil
		}
	}
	return nil, dberr.ErrNotFound
}

func (store *Store) FindCountryByID(_ context.Context, id string) (*location.Country, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	for _, country := range store.countries {
		if country.ID == id {
			return cloneCountry(country), nil
		}
	}
	return nil, dberr.ErrNotFound
}

func (store *Store) CreateCountry(ctx context.Context, country *location.Country) (*location.Country, error) {
	store.mu.Lock()
	exists := false
	for _, stored := range store.countries {
		if strings.EqualFold(stored.Code, country.Code) || stored.Slug == country.Slug {
			exists = true
			break
		}
	}
	if !exists {
		store.countries = append(store.countries, cloneCountry(country))
	}
	store.mu.Unlock()

	return store.FindCountryByCode(ctx, country.Code)
}

func (store *Store) ListCountries(_ context.Context) ([]*location.Country, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	out := make([]*location.Country, 0, len(store.countries))
	for _, country := range store.countries {
		out = append(out, cloneCountry(country))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// # Journaled View

type view struct {
	store *Store
	undo  *[]func()
}

func (v *view) record(fn func()) {
	if v.undo != nil {
		*v.undo = append(*v.undo, fn)
	}
}

func (v *view) FindCity(_ context.Context, countryID, name string) (*location.City, error) {
	v.store.mu.Lock()
	defer v.store.mu.Unlock()

	name = strings.TrimSpace(name)
	var alternate *location.City
	for _, city := range v.store.cities {
		if city.CountryID != countryID {
			continue
		}
		if strings.EqualFold(city.Name, name) {
			return cloneCity(city), nil
		}
		if alternate == nil && city.Matches(name) {
			alternate = city
		}
	}
	if alternate != nil {
		return cloneCity(alternate), nil
	}
	return nil, dberr.ErrNotFound
}

// checkName mirrors the repository write-path validation. The caller holds mu.
func (store *Store) checkName(city *location.City) error {
	for _, country := range store.countries {
		if country.ID == city.CountryID {
			return city.CheckName(country.Code)
		}
	}
	return dberr.ErrNotFound
}

func (v *view) InsertCity(_ context.Context, city *location.City) (bool, error) {
	v.store.mu.Lock()
	defer v.store.mu.Unlock()

	if err := v.store.checkName(city); err != nil {
		return false, err
	}

	for _, stored := range v.store.cities {
		if stored.ID == city.ID || stored.Slug == city.Slug {
			return false, nil
		}
	}

	now := time.Now().UTC()
	stored := cloneCity(city)
	stored.CreatedAt, stored.UpdatedAt = now, now
	v.store.cities = append(v.store.cities, stored)

	id := city.ID
	v.record(func() { v.store.deleteCity(id) })
	return true, nil
}

func (v *view) FindCityBySlug(_ context.Context, slug string) (*location.City, error) {
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	for _, city := range v.store.cities {
		if city.Slug == slug {
			return cloneCity(city), nil
		}
	}
	return nil, dberr.ErrNotFound
}

func (v *view) FindCityByID(_ context.Context, id string) (*location.City, error) {
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	for _, city := range v.store.cities {
		if city.ID == id {
			return cloneCity(city), nil
		}
	}
	return nil, dberr.ErrNotFound
}

func (v *view) ListCities(_ context.Context, countryID string, limit, offset int) ([]*location.City, int, error) {
	v.store.mu.Lock()
	defer v.store.mu.Unlock()

	matched := []*location.City{}
	for _, city := range v.store.cities {
		if countryID == "" || city.CountryID == countryID {
			matched = append(matched, cloneCity(city))
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Name != matched[j].Name {
			return matched[i].Name < matched[j].Name
		}
		return matched[i].ID < matched[j].ID
	})

	total := len(matched)
	if offset >= total {
		return []*location.City{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

func (v *view) UpdateCity(_ context.Context, city *location.City) error {
	v.store.mu.Lock()
	defer v.store.mu.Unlock()

	if err := v.store.checkName(city); err != nil {
		return err
	}

	index := -1
	for i, stored := range v.store.cities {
		if stored.ID == city.ID {
			index = i
		} else if stored.Slug == city.Slug {
			return location.ErrSlugTaken
		}
	}
	if index < 0 {
		return dberr.ErrNotFound
	}

	previous := v.store.cities[index]
	updated := cloneCity(city)
	updated.CreatedAt = previous.CreatedAt
	updated.UpdatedAt = time.Now().UTC()
	v.store.cities[index] = updated

	v.record(func() { v.store.replaceCity(previous) })
	return nil
}

func (v *view) FindVenue(_ context.Context, name string, cityID *string) (*location.Venue, error) {
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	for _, venue := range v.store.venues {
		if sameVenue(venue, name, cityID) {
			return cloneVenue(venue), nil
		}
	}
	return nil, dberr.ErrNotFound
}

func (v *view) InsertVenue(_ context.Context, venue *location.Venue) (bool, error) {
	v.store.mu.Lock()
	defer v.store.mu.Unlock()

	if v.store.FailVenueInsert != nil {
		return false, v.store.FailVenueInsert
	}

	for _, stored := range v.store.venues {
		if stored.ID == venue.ID || stored.Slug == venue.Slug || sameVenue(stored, venue.Name, venue.CityID) {
			return false, nil
		}
	}

	now := time.Now().UTC()
	stored := cloneVenue(venue)
	stored.CreatedAt, stored.UpdatedAt = now, now
	v.store.venues = append(v.store.venues, stored)

	id := venue.ID
	v.record(func() { v.store.deleteVenue(id) })
	return true, nil
}

func (v *view) UpdateVenueDetails(_ context.Context, venue *location.Venue) error {
	v.store.mu.Lock()
	defer v.store.mu.Unlock()

	for i, stored := range v.store.venues {
		if stored.ID != venue.ID {
			continue
		}
		previous := stored
		updated := cloneVenue(stored)
		updated.Address, updated.Latitude, updated.Longitude = venue.Address, venue.Latitude, venue.Longitude
		updated.UpdatedAt = time.Now().UTC()
		v.store.venues[i] = updated

		v.record(func() { v.store.replaceVenue(previous) })
		return nil
	}
	return dberr.ErrNotFound
}

// # Undo Helpers

func (store *Store) deleteCity(id string) {
	store.mu.Lock()
	defer store.mu.Unlock()
	for i, city := range store.cities {
		if city.ID == id {
			store.cities = append(store.cities[:i], store.cities[i+1:]...)
			return
		}
	}
}

func (store *Store) replaceCity(previous *location.City) {
	store.mu.Lock()
	defer store.mu.Unlock()
	for i, city := range store.cities {
		if city.ID == previous.ID {
			store.cities[i] = previous
			return
		}
	}
}

func (store *Store) deleteVenue(id string) {
	store.mu.Lock()
	defer store.mu.Unlock()
	for i, venue := range store.venues {
		if venue.ID == id {
			store.venues = append(store.venues[:i], store.venues[i+1:]...)
			return
		}
	}
}

func (store *Store) replaceVenue(previous *location.Venue) {
	store.mu.Lock()
	defer store.mu.Unlock()
	for i, venue := range store.venues {
		if venue.ID == previous.ID {
			store.venues[i] = previous
			return
		}
	}
}

// # Copies

func sameVenue(venue *location.Venue, name string, cityID *string) bool {
	if !strings.EqualFold(venue.Name, strings.TrimSpace(name)) {
		return false
	}
	if venue.CityID == nil || cityID == nil {
		return venue.CityID == nil && cityID == nil
	}
	return *venue.CityID == *cityID
}

func cloneCountry(country *location.Country) *location.Country {
	out := *country
	return &out
}

func cloneCity(city *location.City) *location.City {
	out := *city
	out.AlternateNames = append([]string{}, city.AlternateNames...)
	if city.Latitude != nil {
		latitude := *city.Latitude
		out.Latitude = &latitude
	}
	if city.Longitude != nil {
		longitude := *city.Longitude
		out.Longitude = &longitude
	}
	return &out
}

func cloneVenue(venue *location.Venue) *location.Venue {
	out := *venue
	if venue.CityID != nil {
		cityID := *venue.CityID
		out.CityID = &cityID
	}
	if venue.Address != nil {
		address := *venue.Address
		out.Address = &address
	}
	if venue.Latitude != nil {
		latitude := *venue.Latitude
		out.Latitude = &latitude
	}
	if venue.Longitude != nil {
		longitude := *venue.Longitude
		out.Longitude = &longitude
	}
	return &out
}
