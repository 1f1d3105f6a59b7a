// Copyright (c) 2026 Eventhub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/taibuivan/eventhub/internal/platform/constants"
)

// # Service Layer

// Service records job executions and reports pipeline health.
type Service struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

// NewService constructs a new pipeline [Service].
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger, now: time.Now}
}

/*
Record persists one execution record.

Description: A failed write is logged and returned; callers running inside a
job decide whether that should fail the job.
*/
func (service *Service) Record(ctx context.Context, record Record) error {
	if err := service.repo.Insert(ctx, &record); err != nil {
		service.logger.ErrorContext(ctx, "job_execution_record_failed",
			slog.Int64("job_id", record.JobID),
			slog.String("state", string(record.State)),
			slog.Any("error", err),
		)
		return err
	}

	service.logger.DebugContext(ctx, "job_execution_recorded",
		slog.Int64("job_id", record.JobID),
		slog.String("source_id", record.SourceID),
		slog.String("external_id", record.ExternalID),
		slog.String("state", string(record.State)),
		slog.String("category", string(record.Category)),
	)
	return nil
}

/*
Health summarises every execution since the given instant.

Parameters:
  - ctx: context.Context
  - since: time.Time (zero selects the default window)

Returns:
  - Health: Summary of the window
  - error: Database errors
*/
func (service *Service) Health(ctx context.Context, since time.Time) (Health, error) {
	if since.IsZero() {
		since = service.now().Add(-constants.DefaultHealthWindow)
	}

	records, err := service.repo.ListSince(ctx, since)
	if err != nil {
		return Health{}, err
	}

	health := Summarize(records)
	health.Since = since.UTC()
	return health, nil
}

// ListExecutions returns one page of execution records, newest first.
func (service *Service) ListExecutions(ctx context.Context, filter Filter, limit, offset int) ([]*Record, int, error) {
	return service.repo.List(ctx, filter, limit, offset)
}
