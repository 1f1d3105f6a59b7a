// Copyright (c) 2026 Eventhub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package event

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/taibuivan/eventhub/internal/core/location"
	"github.com/taibuivan/eventhub/internal/platform/apperr"
	"github.com/taibuivan/eventhub/internal/platform/ctxutil"
	"github.com/taibuivan/eventhub/internal/platform/dberr"
	"github.com/taibuivan/eventhub/internal/platform/metrics"
	"github.com/taibuivan/eventhub/internal/platform/telemetry"
)

// # Coordinator

// Coordinator turns observations into canonical events.
type Coordinator struct {
	runner   Runner
	resolver *location.Resolver
	emitter  telemetry.Emitter
	logger   *slog.Logger
	now      func() time.Time
}

// NewCoordinator wires a coordinator.
func NewCoordinator(runner Runner, resolver *location.Resolver, emitter telemetry.Emitter, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		runner:   runner,
		resolver: resolver,
		emitter:  emitter,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// outcome describes what one locked unit did.
type outcome struct {
	event  *Event
	merged bool
}

/*
ProcessEvent creates or merges the canonical event for one observation.

Description: The observation is fingerprinted on the canonical name of its
city, so alternate spellings share one lock and one event. The rest happens
while the fingerprint lock is held. An existing event absorbs the observation: its
occurrence for the same day (or minute, for showtimes) is updated in place or
a new one is appended, the source binding is refreshed, and a source with a
higher priority than the stored one takes over title, image and primary
source. Otherwise the venue is resolved and the event, its first occurrence
and its binding are written in the same transaction.

A uniqueness violation while creating means another writer got there without
the lock; the whole unit is retried once, which then merges.

Parameters:
  - ctx: context.Context
  - data: EventData
  - sourceID: string (scraper identity)
  - sourcePriority: int (higher wins on conflicting fields)

Returns:
  - *Event: Canonical event with occurrences and sources loaded
  - error: invalid_city_name, missing_required_field, lock_timeout, constraint_race, unknown_error
*/
func (coordinator *Coordinator) ProcessEvent(ctx context.Context, data EventData, sourceID string, sourcePriority int) (*Event, error) {
	started := time.Now()
	ctx = ctxutil.WithSourceID(ctx, sourceID)

	if err := data.Check(); err != nil {
		return nil, coordinator.fail(ctx, err, sourceID, "")
	}

	fingerprint := Fingerprint(coordinator.canonical(ctx, data))
	key := LockKey(fingerprint)

	result, err := coordinator.attempt(ctx, key, fingerprint, data, sourceID, sourcePriority)
	if err != nil && apperr.KindOf(err) == apperr.KindConstraintRace {
		coordinator.logger.WarnContext(ctx, "ingest_constraint_race_retry",
			slog.String("source", sourceID),
			slog.String("fingerprint", fingerprint),
			slog.Any("error", err),
		)
		result, err = coordinator.attempt(ctx, key, fingerprint, data, sourceID, sourcePriority)
	}

	metrics.IngestDuration.WithLabelValues(sourceID).Observe(time.Since(started).Seconds())

	if err != nil {
		return nil, coordinator.fail(ctx, err, sourceID, fingerprint)
	}

	if result.merged {
		metrics.IngestTotal.WithLabelValues(sourceID, "merged").Inc()
		coordinator.emitter.Emit(ctx, telemetry.Signal{
			Kind:        telemetry.KindDuplicateDetected,
			Source:      sourceID,
			Value:       data.ExternalID,
			Fingerprint: fingerprint,
			EventID:     result.event.ID,
			At:          coordinator.now(),
		})
	} else {
		metrics.IngestTotal.WithLabelValues(sourceID, "created").Inc()
	}

	coordinator.logger.DebugContext(ctx, "event_ingested",
		slog.String("source", sourceID),
		slog.String("event_id", result.event.ID),
		slog.Bool("merged", result.merged),
		slog.Int("occurrences", len(result.event.Occurrences)),
	)

	return result.event, nil
}

// canonical replaces the city of data with the canonical name of the city it
// resolves to.
func (coordinator *Coordinator) canonical(ctx context.Context, data EventData) EventData {
	data.Venue.CityName = coordinator.resolver.CanonicalCityName(ctx, coordinator.runner.Snapshot().Locations(), data.Venue)
	return data
}

func (coordinator *Coordinator) attempt(ctx context.Context, key int64, fingerprint string, data EventData, sourceID string, priority int) (*outcome, error) {
	var result *outcome

	err := coordinator.runner.RunLocked(ctx, key, func(ctx context.Context, unit Unit) error {
		var err error
		result, err = coordinator.apply(ctx, unit, fingerprint, data, sourceID, priority)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// apply runs under the fingerprint lock.
func (coordinator *Coordinator) apply(ctx context.Context, unit Unit, fingerprint string, data EventData, sourceID string, priority int) (*outcome, error) {
	events := unit.Events()
	seenAt := coordinator.now()

	existing, err := events.FindByFingerprint(ctx, fingerprint)
	if err == nil {
		merged, err := coordinator.merge(ctx, events, existing, data, sourceID, priority, seenAt)
		if err != nil {
			return nil, err
		}
		return &outcome{event: merged, merged: true}, nil
	}
	if !dberr.IsNotFound(err) {
		return nil, err
	}

	venue, err := coordinator.resolver.Resolve(ctx, unit.Locations(), data.Venue)
	if err != nil {
		return nil, err
	}

	created := newEvent(fingerprint, data, venue.ID, sourceID, priority)
	if err := events.Create(ctx, created); err != nil {
		return nil, err
	}

	occurrence := newOccurrence(created.ID, data)
	if err := events.UpsertOccurrence(ctx, occurrence); err != nil {
		return nil, err
	}

	binding := newSourceBinding(created.ID, sourceID, data, seenAt)
	if err := events.UpsertSourceBinding(ctx, binding); err != nil {
		return nil, err
	}

	created.Occurrences = []Occurrence{*occurrence}
	created.Sources = []SourceBinding{*binding}
	created.CreatedAt, created.UpdatedAt = seenAt, seenAt

	coordinator.logger.InfoContext(ctx, "event_created",
		slog.String("event_id", created.ID),
		slog.String("fingerprint", fingerprint),
		slog.String("venue_id", venue.ID),
		slog.String("source", sourceID),
	)

	return &outcome{event: created}, nil
}

func (coordinator *Coordinator) merge(ctx context.Context, events Repository, existing *Event, data EventData, sourceID string, priority int, seenAt time.Time) (*Event, error) {
	if err := events.UpsertOccurrence(ctx, newOccurrence(existing.ID, data)); err != nil {
		return nil, err
	}

	if err := events.UpsertSourceBinding(ctx, newSourceBinding(existing.ID, sourceID, data, seenAt)); err != nil {
		return nil, err
	}

	if coordinator.promote(existing, data, sourceID, priority) {
		if err := events.UpdatePrimary(ctx, existing); err != nil {
			return nil, err
		}
		existing.UpdatedAt = seenAt
	}

	occurrences, err := events.ListOccurrences(ctx, existing.ID)
	if err != nil {
		return nil, err
	}
	sources, err := events.ListSources(ctx, existing.ID)
	if err != nil {
		return nil, err
	}

	existing.Occurrences, existing.Sources = occurrences, sources
	return existing, nil
}

// promote applies the priority rule and reports whether anything changed.
// A higher-priority source takes over title, image and primary source; any
// source may fill a missing image.
func (coordinator *Coordinator) promote(existing *Event, data EventData, sourceID string, priority int) bool {
	image := optional(data.ImageURL)

	if priority > existing.PrimarySourcePriority {
		existing.Title = strings.TrimSpace(data.Title)
		if image != nil {
			existing.ImageURL = image
		}
		existing.PrimarySourceID = sourceID
		existing.PrimarySourcePriority = priority
		return true
	}

	if existing.ImageURL == nil && image != nil {
		existing.ImageURL = image
		return true
	}

	return false
}

// fail logs, signals and classifies a failed ingestion.
func (coordinator *Coordinator) fail(ctx context.Context, err error, sourceID, fingerprint string) error {
	kind := apperr.KindOf(err)
	if !apperr.IsAppError(err) {
		err = apperr.Internal(fmt.Errorf("event: process: %w", err))
	}

	metrics.IngestTotal.WithLabelValues(sourceID, "failed").Inc()

	coordinator.logger.WarnContext(ctx, "event_ingest_failed",
		slog.String("source", sourceID),
		slog.String("fingerprint", fingerprint),
		slog.String("kind", string(kind)),
		slog.Any("error", err),
	)

	signal := telemetry.Signal{
		Kind:        telemetry.KindIngestFailed,
		Source:      sourceID,
		Fingerprint: fingerprint,
		Category:    string(kind),
		At:          coordinator.now(),
	}
	if kind == apperr.KindLockTimeout {
		signal.Kind = telemetry.KindLockTimeout
	}
	coordinator.emitter.Emit(ctx, signal)

	return err
}
