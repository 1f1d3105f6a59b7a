// Copyright (c) 2026 Eventhub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package eventtest provides an in-memory [event.Runner] for tests.

[Store.RunLocked] serializes units per key with a one-slot channel, runs units
with different keys in parallel, and undoes every write of a unit whose work
function fails. It models the advisory-lock transaction closely enough to
exercise the coordinator's concurrency contract without a database.
*/
package eventtest

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/taibuivan/eventhub/internal/core/event"
	"github.com/taibuivan/eventhub/internal/core/geo"
	"github.com/taibuivan/eventhub/internal/core/location"
	"github.com/taibuivan/eventhub/internal/core/location/locationtest"
	"github.com/taibuivan/eventhub/internal/platform/apperr"
	"github.com/taibuivan/eventhub/internal/platform/dberr"
)

// Store keeps events in memory next to a [locationtest.Store].
type Store struct {
	Locations *locationtest.Store

	// Wait bounds lock acquisition.
	Wait time.Duration

	// BeforeCreate, when set, runs inside Create before the uniqueness check.
	// Tests use it to inject a concurrent writer that bypassed the lock.
	BeforeCreate func(event *event.Event)

	mu          sync.Mutex
	events      map[string]*event.Event
	occurrences map[string][]event.Occurrence
	bindings    []event.SourceBinding

	locksMu sync.Mutex
	locks   map[int64]chan struct{}
}

// New creates an empty store over locations.
func New(locations *locationtest.Store) *Store {
	return &Store{
		Locations:   locations,
		Wait:        5 * time.Second,
		events:      map[string]*event.Event{},
		occurrences: map[string][]event.Occurrence{},
		locks:       map[int64]chan struct{}{},
	}
}

// # Locking

func (store *Store) slot(key int64) chan struct{} {
	store.locksMu.Lock()
	defer store.locksMu.Unlock()
	ch, ok := store.locks[key]
	if !ok {
		ch = make(chan struct{}, 1)
		store.locks[key] = ch
	}
	return ch
}

func (store *Store) acquire(ctx context.Context, key int64) (func(), error) {
	ch := store.slot(key)
	timer := time.NewTimer(store.Wait)
	defer timer.Stop()

	select {
	case ch <- struct{}{}:
		return func() { <-ch }, nil
	case <-timer.C:
		return nil, apperr.LockTimeout(strconv.FormatInt(key, 16), nil)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Hold takes the lock for key as another process would and returns its release.
func (store *Store) Hold(key int64) func() {
	release, err := store.acquire(context.Background(), key)
	if err != nil {
		panic(err)
	}
	return release
}

// RunLocked implements [event.Runner].
func (store *Store) RunLocked(ctx context.Context, key int64, fn func(ctx context.Context, unit event.Unit) error) error {
	release, err := store.acquire(ctx, key)
	if err != nil {
		return err
	}
	defer release()

	unit := &unit{store: store}
	if err := fn(ctx, unit); err != nil {
		for i := len(unit.undo) - 1; i >= 0; i-- {
			unit.undo[i]()
		}
		return err
	}
	return nil
}

// Snapshot implements [event.Runner].
func (store *Store) Snapshot() event.Unit {
	return &unit{store: store}
}

// Repository returns a non-journaled [event.Repository].
func (store *Store) Repository() event.Repository {
	return &unit{store: store}
}

// # Inspection

// Events returns copies of every stored event with occurrences loaded.
func (store *Store) Events() []*event.Event {
	store.mu.Lock()
	defer store.mu.Unlock()

	out := make([]*event.Event, 0, len(store.events))
	for _, stored := range store.events {
		copied := *stored
		copied.Occurrences = append([]event.Occurrence{}, store.occurrences[stored.ID]...)
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// # Unit

type unit struct {
	store *Store
	undo  []func()
}

func (u *unit) Events() event.Repository { return u }

func (u *unit) Locations() location.Repository {
	return u.store.Locations.Journal(&u.undo)
}

func (u *unit) FindByFingerprint(_ context.Context, fingerprint string) (*event.Event, error) {
	u.store.mu.Lock()
	defer u.store.mu.Unlock()
	for _, stored := range u.store.events {
		if stored.Fingerprint == fingerprint {
			copied := *stored
			return &copied, nil
		}
	}
	return nil, dberr.ErrNotFound
}

func (u *unit) FindByID(_ context.Context, id string) (*event.Event, error) {
	u.store.mu.Lock()
	defer u.store.mu.Unlock()
	if stored, ok := u.store.events[id]; ok {
		copied := *stored
		return &copied, nil
	}
	return nil, dberr.ErrNotFound
}

func (u *unit) Create(_ context.Context, created *event.Event) error {
	if hook := u.store.BeforeCreate; hook != nil {
		hook(created)
	}

	u.store.mu.Lock()
	defer u.store.mu.Unlock()

	for _, stored := range u.store.events {
		if stored.Fingerprint == created.Fingerprint {
			return apperr.ConstraintRace("create_event", nil)
		}
	}

	now := time.Now().UTC()
	copied := *created
	copied.Occurrences, copied.Sources = nil, nil
	copied.CreatedAt, copied.UpdatedAt = now, now
	u.store.events[created.ID] = &copied

	id := created.ID
	u.undo = append(u.undo, func() {
		u.store.mu.Lock()
		defer u.store.mu.Unlock()
		delete(u.store.events, id)
	})
	return nil
}

// Insert stores an event directly, bypassing locks, as a concurrent writer would.
func (store *Store) Insert(inserted *event.Event) {
	store.mu.Lock()
	defer store.mu.Unlock()
	copied := *inserted
	store.events[inserted.ID] = &copied
}

func (u *unit) UpdatePrimary(_ context.Context, updated *event.Event) error {
	u.store.mu.Lock()
	defer u.store.mu.Unlock()

	stored, ok := u.store.events[updated.ID]
	if !ok {
		return dberr.ErrNotFound
	}

	previous := *stored
	stored.Title = updated.Title
	stored.ImageURL = updated.ImageURL
	stored.PrimarySourceID = updated.PrimarySourceID
	stored.PrimarySourcePriority = updated.PrimarySourcePriority
	stored.UpdatedAt = time.Now().UTC()

	u.undo = append(u.undo, func() {
		u.store.mu.Lock()
		defer u.store.mu.Unlock()
		if current, ok := u.store.events[previous.ID]; ok {
			*current = previous
		}
	})
	return nil
}

func (u *unit) UpsertOccurrence(_ context.Context, occurrence *event.Occurrence) error {
	u.store.mu.Lock()
	defer u.store.mu.Unlock()

	previous := append([]event.Occurrence{}, u.store.occurrences[occurrence.EventID]...)
	list := u.store.occurrences[occurrence.EventID]

	merged := false
	for i := range list {
		if list[i].Key != occurrence.Key {
			continue
		}
		list[i].StartsAt = occurrence.StartsAt
		if occurrence.EndsAt != nil {
			list[i].EndsAt = occurrence.EndsAt
		}
		if occurrence.ExternalID != nil {
			list[i].ExternalID = occurrence.ExternalID
		}
		occurrence.ID = list[i].ID
		merged = true
	}
	if !merged {
		list = append(list, *occurrence)
	}
	u.store.occurrences[occurrence.EventID] = list

	eventID := occurrence.EventID
	u.undo = append(u.undo, func() {
		u.store.mu.Lock()
		defer u.store.mu.Unlock()
		u.store.occurrences[eventID] = previous
	})
	return nil
}

func (u *unit) UpsertSourceBinding(_ context.Context, binding *event.SourceBinding) error {
	u.store.mu.Lock()
	defer u.store.mu.Unlock()

	previous := append([]event.SourceBinding{}, u.store.bindings...)

	found := false
	for i := range u.store.bindings {
		stored := &u.store.bindings[i]
		if stored.SourceID != binding.SourceID || stored.ExternalID != binding.ExternalID {
			continue
		}
		stored.EventID = binding.EventID
		if binding.SourceURL != nil {
			stored.SourceURL = binding.SourceURL
		}
		stored.LastSeenAt = binding.LastSeenAt
		binding.ID = stored.ID
		found = true
	}
	if !found {
		u.store.bindings = append(u.store.bindings, *binding)
	}

	u.undo = append(u.undo, func() {
		u.store.mu.Lock()
		defer u.store.mu.Unlock()
		u.store.bindings = previous
	})
	return nil
}

func (u *unit) ListOccurrences(_ context.Context, eventID string) ([]event.Occurrence, error) {
	u.store.mu.Lock()
	defer u.store.mu.Unlock()

	out := append([]event.Occurrence{}, u.store.occurrences[eventID]...)
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartsAt.Equal(out[j].StartsAt) {
			return out[i].StartsAt.Before(out[j].StartsAt)
		}
		return out[i].Key < out[j].Key
	})
	return out, nil
}

func (u *unit) ListSources(_ context.Context, eventID string) ([]event.SourceBinding, error) {
	u.store.mu.Lock()
	defer u.store.mu.Unlock()

	out := []event.SourceBinding{}
	for _, binding := range u.store.bindings {
		if binding.EventID == eventID {
			out = append(out, binding)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SourceID != out[j].SourceID {
			return out[i].SourceID < out[j].SourceID
		}
		return out[i].ExternalID < out[j].ExternalID
	})
	return out, nil
}

func (u *unit) CountByCity(ctx context.Context, countryCode string) ([]geo.CityStat, error) {
	venues := map[string]*location.Venue{}
	for _, venue := range u.store.Locations.Venues() {
		venues[venue.ID] = venue
	}

	var countryID string
	if countryCode != "" {
		country, err := u.store.Locations.FindCountryByCode(ctx, countryCode)
		if err != nil {
			return []geo.CityStat{}, nil
		}
		countryID = country.ID
	}

	counts := map[string]int{}
	for _, stored := range u.store.Events() {
		if venue, ok := venues[stored.VenueID]; ok && venue.CityID != nil {
			counts[*venue.CityID]++
		}
	}

	stats := []geo.CityStat{}
	for _, city := range u.store.Locations.Cities() {
		count, ok := counts[city.ID]
		if !ok || (countryID != "" && city.CountryID != countryID) {
			continue
		}
		stats = append(stats, geo.CityStat{
			City: geo.City{
				ID: city.ID, Name: city.Name, CountryID: city.CountryID,
				Latitude: city.Latitude, Longitude: city.Longitude,
			},
			Count: count,
		})
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].ID < stats[j].ID })
	return stats, nil
}
