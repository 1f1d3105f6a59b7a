// Copyright (c) 2026 Eventhub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package event

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/taibuivan/eventhub/internal/core/geo"
	"github.com/taibuivan/eventhub/internal/core/location"
	"github.com/taibuivan/eventhub/internal/platform/apperr"
	"github.com/taibuivan/eventhub/internal/platform/database/schema"
	"github.com/taibuivan/eventhub/internal/platform/dberr"
	"github.com/taibuivan/eventhub/internal/platform/postgres"
)

// # Repository

// PostgresRepository implements [Repository] using pgx.
type PostgresRepository struct {
	db postgres.DBTX
}

// NewPostgresRepository constructs a store over a pool or a transaction.
func NewPostgresRepository(db postgres.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

var (
	eventColumns      = strings.Join(schema.CatalogEvent.Columns(), ", ")
	occurrenceColumns = strings.Join(schema.CatalogOccurrence.Columns(), ", ")
	bindingColumns    = strings.Join(schema.CatalogSourceBinding.Columns(), ", ")
)

func scanEvent(row pgx.Row) (*Event, error) {
	event := &Event{}
	err := row.Scan(
		&event.ID, &event.Fingerprint, &event.Title, &event.VenueID, &event.Kind, &event.ImageURL,
		&event.PrimarySourceID, &event.PrimarySourcePriority, &event.CreatedAt, &event.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return event, nil
}

func (repository *PostgresRepository) FindByFingerprint(ctx context.Context, fingerprint string) (*Event, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		eventColumns, schema.CatalogEvent.Table, schema.CatalogEvent.Fingerprint)

	event, err := scanEvent(repository.db.QueryRow(ctx, query, fingerprint))
	if err != nil {
		return nil, dberr.Wrap(err, "find_event_by_fingerprint")
	}
	return event, nil
}

func (repository *PostgresRepository) FindByID(ctx context.Context, id string) (*Event, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		eventColumns, schema.CatalogEvent.Table, schema.CatalogEvent.ID)

	event, err := scanEvent(repository.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, dberr.Wrap(err, "find_event_by_id")
	}
	return event, nil
}

/*
Create inserts the event row.

Description: No ON CONFLICT clause: a duplicate fingerprint must surface so the
coordinator can retry its unit and merge instead.
*/
func (repository *PostgresRepository) Create(ctx context.Context, event *Event) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
		RETURNING %s, %s
	`, schema.CatalogEvent.Table, eventColumns, schema.CatalogEvent.CreatedAt, schema.CatalogEvent.UpdatedAt)

	err := repository.db.QueryRow(ctx, query,
		event.ID, event.Fingerprint, event.Title, event.VenueID, event.Kind, event.ImageURL,
		event.PrimarySourceID, event.PrimarySourcePriority,
	).Scan(&event.CreatedAt, &event.UpdatedAt)

	return dberr.Wrap(err, "create_event")
}

func (repository *PostgresRepository) UpdatePrimary(ctx context.Context, event *Event) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $2, %s = $3, %s = $4, %s = $5, %s = now()
		WHERE %s = $1
	`,
		schema.CatalogEvent.Table,
		schema.CatalogEvent.Title, schema.CatalogEvent.ImageURL,
		schema.CatalogEvent.PrimarySourceID, schema.CatalogEvent.PrimarySourcePriority,
		schema.CatalogEvent.UpdatedAt, schema.CatalogEvent.ID,
	)

	tag, err := repository.db.Exec(ctx, query,
		event.ID, event.Title, event.ImageURL, event.PrimarySourceID, event.PrimarySourcePriority,
	)
	if err != nil {
		return dberr.Wrap(err, "update_event_primary")
	}
	if tag.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}
	return nil
}

// # Occurrences

/*
UpsertOccurrence merges one occurrence into its event.

Description: ON CONFLICT on (eventid, occurrencekey) makes a re-scrape of the
same day idempotent. Known end times and external ids are never cleared.
*/
func (repository *PostgresRepository) UpsertOccurrence(ctx context.Context, occurrence *Occurrence) error {
	query := fmt.Sprintf(`
		INSERT INTO %[1]s AS o (%[2]s, %[3]s)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		ON CONFLICT (%[4]s, %[5]s) DO UPDATE
		SET %[6]s = EXCLUDED.%[6]s,
		    %[7]s = COALESCE(EXCLUDED.%[7]s, o.%[7]s),
		    %[8]s = COALESCE(EXCLUDED.%[8]s, o.%[8]s),
		    %[3]s = now()
		RETURNING %[9]s
	`,
		schema.CatalogOccurrence.Table, occurrenceColumns, schema.CatalogOccurrence.UpdatedAt,
		schema.CatalogOccurrence.EventID, schema.CatalogOccurrence.OccurrenceKey,
		schema.CatalogOccurrence.StartsAt, schema.CatalogOccurrence.EndsAt, schema.CatalogOccurrence.ExternalID,
		schema.CatalogOccurrence.ID,
	)

	err := repository.db.QueryRow(ctx, query,
		occurrence.ID, occurrence.EventID, occurrence.Key, occurrence.StartsAt, occurrence.EndsAt, occurrence.ExternalID,
	).Scan(&occurrence.ID)

	return dberr.Wrap(err, "upsert_occurrence")
}

func (repository *PostgresRepository) ListOccurrences(ctx context.Context, eventID string) ([]Occurrence, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 ORDER BY %s ASC, %s ASC`,
		occurrenceColumns, schema.CatalogOccurrence.Table, schema.CatalogOccurrence.EventID,
		schema.CatalogOccurrence.StartsAt, schema.CatalogOccurrence.OccurrenceKey)

	rows, err := repository.db.Query(ctx, query, eventID)
	if err != nil {
		return nil, dberr.Wrap(err, "list_occurrences")
	}
	defer rows.Close()

	occurrences := []Occurrence{}
	for rows.Next() {
		var occurrence Occurrence
		if err := rows.Scan(
			&occurrence.ID, &occurrence.EventID, &occurrence.Key,
			&occurrence.StartsAt, &occurrence.EndsAt, &occurrence.ExternalID,
		); err != nil {
			return nil, dberr.Wrap(err, "scan_occurrence")
		}
		occurrences = append(occurrences, occurrence)
	}
	return occurrences, dberr.Wrap(rows.Err(), "list_occurrences")
}

// # Source Bindings

/*
UpsertSourceBinding records that a source reported the event.

Description: A (source, external id) pair that previously pointed at another
event is moved to this one; the newest observation wins.
*/
func (repository *PostgresRepository) UpsertSourceBinding(ctx context.Context, binding *SourceBinding) error {
	query := fmt.Sprintf(`
		INSERT INTO %[1]s AS b (%[2]s)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (%[3]s, %[4]s) DO UPDATE
		SET %[5]s = EXCLUDED.%[5]s,
		    %[6]s = COALESCE(EXCLUDED.%[6]s, b.%[6]s),
		    %[7]s = EXCLUDED.%[7]s
		RETURNING %[8]s
	`,
		schema.CatalogSourceBinding.Table, bindingColumns,
		schema.CatalogSourceBinding.SourceID, schema.CatalogSourceBinding.ExternalID,
		schema.CatalogSourceBinding.EventID, schema.CatalogSourceBinding.SourceURL,
		schema.CatalogSourceBinding.LastSeenAt, schema.CatalogSourceBinding.ID,
	)

	err := repository.db.QueryRow(ctx, query,
		binding.ID, binding.EventID, binding.SourceID, binding.ExternalID, binding.SourceURL, binding.LastSeenAt,
	).Scan(&binding.ID)

	return dberr.Wrap(err, "upsert_source_binding")
}

func (repository *PostgresRepository) ListSources(ctx context.Context, eventID string) ([]SourceBinding, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 ORDER BY %s ASC, %s ASC`,
		bindingColumns, schema.CatalogSourceBinding.Table, schema.CatalogSourceBinding.EventID,
		schema.CatalogSourceBinding.SourceID, schema.CatalogSourceBinding.ExternalID)

	rows, err := repository.db.Query(ctx, query, eventID)
	if err != nil {
		return nil, dberr.Wrap(err, "list_sources")
	}
	defer rows.Close()

	bindings := []SourceBinding{}
	for rows.Next() {
		var binding SourceBinding
		if err := rows.Scan(
			&binding.ID, &binding.EventID, &binding.SourceID,
			&binding.ExternalID, &binding.SourceURL, &binding.LastSeenAt,
		); err != nil {
			return nil, dberr.Wrap(err, "scan_source_binding")
		}
		bindings = append(bindings, binding)
	}
	return bindings, dberr.Wrap(rows.Err(), "list_sources")
}

// # Statistics

/*
CountByCity counts canonical events per city through their venues.

Description: Cities come back with coordinates so the result can be clustered
without a second query.
*/
func (repository *PostgresRepository) CountByCity(ctx context.Context, countryCode string) ([]geo.CityStat, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(fmt.Sprintf(`
		SELECT c.%s, c.%s, c.%s, c.%s, c.%s, COUNT(e.%s)
		FROM %s e
		JOIN %s v ON v.%s = e.%s
		JOIN %s c ON c.%s = v.%s
		JOIN %s k ON k.%s = c.%s
	`,
		schema.CatalogCity.ID, schema.CatalogCity.Name, schema.CatalogCity.CountryID,
		schema.CatalogCity.Latitude, schema.CatalogCity.Longitude, schema.CatalogEvent.ID,
		schema.CatalogEvent.Table,
		schema.CatalogVenue.Table, schema.CatalogVenue.ID, schema.CatalogEvent.VenueID,
		schema.CatalogCity.Table, schema.CatalogCity.ID, schema.CatalogVenue.CityID,
		schema.CatalogCountry.Table, schema.CatalogCountry.ID, schema.CatalogCity.CountryID,
	))

	args := []any{}
	if countryCode != "" {
		queryBuilder.WriteString(fmt.Sprintf(" WHERE k.%s = $1", schema.CatalogCountry.Code))
		args = append(args, strings.ToUpper(countryCode))
	}
	queryBuilder.WriteString(fmt.Sprintf(" GROUP BY c.%s ORDER BY c.%s ASC", schema.CatalogCity.ID, schema.CatalogCity.ID))

	rows, err := repository.db.Query(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, dberr.Wrap(err, "count_events_by_city")
	}
	defer rows.Close()

	stats := []geo.CityStat{}
	for rows.Next() {
		var stat geo.CityStat
		var count int64
		if err := rows.Scan(
			&stat.ID, &stat.Name, &stat.CountryID, &stat.Latitude, &stat.Longitude, &count,
		); err != nil {
			return nil, dberr.Wrap(err, "scan_city_count")
		}
		stat.Count = int(count)
		stats = append(stats, stat)
	}
	return stats, dberr.Wrap(rows.Err(), "count_events_by_city")
}

// # Locked Unit Of Work

// PostgresRunner implements [Runner] with transaction-scoped advisory locks.
type PostgresRunner struct {
	db   postgres.DB
	wait time.Duration
}

// NewPostgresRunner creates a runner that waits at most wait for a lock.
func NewPostgresRunner(db postgres.DB, wait time.Duration) *PostgresRunner {
	return &PostgresRunner{db: db, wait: wait}
}

type postgresUnit struct {
	events    *PostgresRepository
	locations *location.PostgresRepository
}

func (unit *postgresUnit) Events() Repository             { return unit.events }
func (unit *postgresUnit) Locations() location.Repository { return unit.locations }

// Snapshot implements [Runner] with pool-backed stores.
func (runner *PostgresRunner) Snapshot() Unit {
	return &postgresUnit{
		events:    NewPostgresRepository(runner.db),
		locations: location.NewPostgresRepository(runner.db),
	}
}

/*
RunLocked opens a transaction, takes pg_advisory_xact_lock(key) and runs fn
with stores bound to that transaction.

Returns:
  - error: apperr lock_timeout when the lock wait exceeds the budget, or fn's error
*/
func (runner *PostgresRunner) RunLocked(ctx context.Context, key int64, fn func(ctx context.Context, unit Unit) error) error {
	err := postgres.WithAdvisoryLock(ctx, runner.db, key, runner.wait, func(tx pgx.Tx) error {
		return fn(ctx, &postgresUnit{
			events:    NewPostgresRepository(tx),
			locations: location.NewPostgresRepository(tx),
		})
	})
	if err == nil {
		return nil
	}

	var appErr *apperr.AppError
	if !errors.As(err, &appErr) && dberr.IsLockTimeout(err) {
		return apperr.LockTimeout(strconv.FormatInt(key, 16), err)
	}
	return dberr.Wrap(err, "run_locked")
}
