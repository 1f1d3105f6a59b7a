// Copyright (c) 2026 Eventhub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/taibuivan/eventhub/internal/platform/database/schema"
	"github.com/taibuivan/eventhub/internal/platform/dberr"
	"github.com/taibuivan/eventhub/internal/platform/postgres"
	"github.com/taibuivan/eventhub/pkg/pointer"
)

// PostgresRepository implements [Repository] on catalog.jobexecution.
type PostgresRepository struct {
	db postgres.DBTX
}

// NewPostgresRepository constructs a new [PostgresRepository].
func NewPostgresRepository(db postgres.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

var executionColumns = strings.Join(schema.CatalogJobExecution.Columns(), ", ")

func scanRecord(row pgx.Row) (*Record, error) {
	var (
		record   Record
		state    string
		category *string
		message  *string
	)
	err := row.Scan(
		&record.ID, &record.JobID, &record.SourceID, &record.ExternalID,
		&state, &category, &message, &record.EventID, &record.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	// Rows written by older workers may carry free text.
	if parsed, ok := ParseState(state); ok {
		record.State = parsed
	} else {
		record.State = StateDiscarded
	}
	record.Message = pointer.Val(message)
	record.Category = Category(pointer.Val(category))
	if record.Category != CategoryNone && !knownCategory(record.Category) {
		record.Category = CategoryFromText(record.Message)
	}
	return &record, nil
}

func knownCategory(category Category) bool {
	for _, known := range Categories {
		if category == known {
			return true
		}
	}
	return false
}

func nullable(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func (repository *PostgresRepository) Insert(ctx context.Context, record *Record) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, schema.CatalogJobExecution.Table, executionColumns)

	_, err := repository.db.Exec(ctx, query,
		record.ID, record.JobID, record.SourceID, record.ExternalID, string(record.State),
		nullable(string(record.Category)), nullable(record.Message), record.EventID, record.CreatedAt,
	)
	return dberr.Wrap(err, "insert_job_execution")
}

// where renders the filter as a WHERE clause and its arguments.
func where(filter Filter) (string, []any) {
	var (
		conditions []string
		args       []any
	)
	add := func(column string, value any) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if filter.State != "" {
		add(schema.CatalogJobExecution.State, string(filter.State))
	}
	if filter.Category != CategoryNone {
		add(schema.CatalogJobExecution.Category, string(filter.Category))
	}
	if !filter.Since.IsZero() {
		args = append(args, filter.Since)
		conditions = append(conditions, fmt.Sprintf("%s >= $%d", schema.CatalogJobExecution.CreatedAt, len(args)))
	}

	if len(conditions) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

func (repository *PostgresRepository) List(ctx context.Context, filter Filter, limit, offset int) ([]*Record, int, error) {
	clause, args := where(filter)

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s %s`, schema.CatalogJobExecution.Table, clause)
	if err := repository.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "count_job_executions")
	}

	query := fmt.Sprintf(`SELECT %s FROM %s %s ORDER BY %s DESC LIMIT $%d OFFSET $%d`,
		executionColumns, schema.CatalogJobExecution.Table, clause,
		schema.CatalogJobExecution.CreatedAt, len(args)+1, len(args)+2)

	rows, err := repository.db.Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list_job_executions")
	}
	defer rows.Close()

	records := []*Record{}
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, 0, dberr.Wrap(err, "scan_job_execution")
		}
		records = append(records, record)
	}
	return records, total, dberr.Wrap(rows.Err(), "list_job_executions")
}

func (repository *PostgresRepository) ListSince(ctx context.Context, since time.Time) ([]Record, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s >= $1`,
		executionColumns, schema.CatalogJobExecution.Table, schema.CatalogJobExecution.CreatedAt)

	rows, err := repository.db.Query(ctx, query, since)
	if err != nil {
		return nil, dberr.Wrap(err, "list_job_executions_since")
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, dberr.Wrap(err, "scan_job_execution")
		}
		records = append(records, *record)
	}
	return records, dberr.Wrap(rows.Err(), "list_job_executions_since")
}
