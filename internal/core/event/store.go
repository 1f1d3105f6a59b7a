// Copyright (c) 2026 Eventhub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package event

import (
	"context"

	"github.com/taibuivan/eventhub/internal/core/geo"
	"github.com/taibuivan/eventhub/internal/core/location"
)

// # Data Access

// Repository persists canonical events, occurrences and source bindings.
type Repository interface {

	/*
		FindByFingerprint retrieves the canonical event for a fingerprint.
		Occurrences and sources are not loaded.

		Returns:
		  - *Event: Hydrated entity
		  - error: ErrNotFound if no event carries the fingerprint
	*/
	FindByFingerprint(ctx context.Context, fingerprint string) (*Event, error)

	// FindByID retrieves an event without occurrences and sources.
	FindByID(ctx context.Context, id string) (*Event, error)

	/*
		Create inserts the event row.

		Returns:
		  - error: constraint_race when another writer holds the fingerprint
	*/
	Create(ctx context.Context, event *Event) error

	// UpdatePrimary persists title, image and primary source fields.
	UpdatePrimary(ctx context.Context, event *Event) error

	// UpsertOccurrence inserts the occurrence or, when its key already exists
	// for the event, updates times and external id in place.
	UpsertOccurrence(ctx context.Context, occurrence *Occurrence) error

	// UpsertSourceBinding inserts the binding or refreshes the existing
	// (source, external id) binding.
	UpsertSourceBinding(ctx context.Context, binding *SourceBinding) error

	// ListOccurrences returns an event's occurrences ordered by start.
	ListOccurrences(ctx context.Context, eventID string) ([]Occurrence, error)

	// ListSources returns an event's source bindings ordered by source.
	ListSources(ctx context.Context, eventID string) ([]SourceBinding, error)

	// CountByCity counts events per city, optionally limited to one country
	// code. Cities without events are omitted.
	CountByCity(ctx context.Context, countryCode string) ([]geo.CityStat, error)
}

// # Unit Of Work

// Unit exposes the stores bound to one locked transaction.
type Unit interface {
	Events() Repository
	Locations() location.Repository
}

/*
Runner executes work while holding the lock for a fingerprint.

Implementations must:
  - serialize calls that share a key, including calls from other processes
  - let calls with different keys proceed in parallel
  - commit the unit when fn returns nil and discard every write otherwise
  - give up waiting after a bounded time with an apperr lock_timeout error
*/
type Runner interface {
	RunLocked(ctx context.Context, key int64, fn func(ctx context.Context, unit Unit) error) error

	// Snapshot returns stores that read outside any lock or transaction.
	Snapshot() Unit
}
