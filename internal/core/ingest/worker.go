// Copyright (c) 2026 Eventhub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package ingest runs scraped observations through the coordinator as queue jobs.

Scraper collaborators enqueue one [Args] per observation. The [Worker] maps the
coordinator's error taxonomy onto the queue's retry vocabulary: bad input is
cancelled and never retried, a contended fingerprint lock is snoozed, and
anything else is returned so the queue applies its backoff. Every run leaves a
job execution record behind.
*/
package ingest

import (
	"context"
	"log/slog"
	"time"

	"github.com/riverqueue/river"

	"github.com/taibuivan/eventhub/internal/core/event"
	"github.com/taibuivan/eventhub/internal/core/ingest/externalid"
	"github.com/taibuivan/eventhub/internal/core/pipeline"
	"github.com/taibuivan/eventhub/internal/platform/apperr"
	"github.com/taibuivan/eventhub/internal/platform/constants"
	"github.com/taibuivan/eventhub/internal/platform/ctxutil"
	"github.com/taibuivan/eventhub/internal/platform/validate"
)

// QueueIngest is the queue ingestion jobs run on.
const QueueIngest = "ingest"

// maxAttempts bounds how often a job with a transient failure is retried.
const maxAttempts = 8

// # Job Arguments

// Args is the payload of one ingestion job.
type Args struct {
	SourceID       string          `json:"source_id" validate:"required,max=100"`
	SourcePriority int             `json:"source_priority" validate:"gte=0"`
	Event          event.EventData `json:"event"`
}

// Kind implements river.JobArgs.
func (Args) Kind() string { return constants.JobKindEventIngest }

// InsertOpts implements river.JobArgsWithInsertOpts.
func (Args) InsertOpts() river.InsertOpts {
	return river.InsertOpts{Queue: QueueIngest, MaxAttempts: maxAttempts}
}

// Check reports the first reason the job can never succeed.
func (args *Args) Check() error {
	if err := args.Event.Check(); err != nil {
		return err
	}
	if err := validate.Struct(args); err != nil {
		return err
	}
	return externalid.Validate(args.Event.ExternalID, args.Event.Kind)
}

// # Collaborators

// Processor ingests one observation. [*event.Coordinator] implements it.
type Processor interface {
	ProcessEvent(ctx context.Context, data event.EventData, sourceID string, sourcePriority int) (*event.Event, error)
}

// Recorder persists job execution records. [*pipeline.Service] implements it.
type Recorder interface {
	Record(ctx context.Context, record pipeline.Record) error
}

// # Worker

// Worker executes ingestion jobs.
type Worker struct {
	river.WorkerDefaults[Args]

	processor Processor
	recorder  Recorder
	snooze    time.Duration
	logger    *slog.Logger
}

// NewWorker constructs a worker. snooze is how long a job waits after a lock timeout.
func NewWorker(processor Processor, recorder Recorder, snooze time.Duration, logger *slog.Logger) *Worker {
	if snooze <= 0 {
		snooze = constants.LockTimeoutSnooze
	}
	return &Worker{processor: processor, recorder: recorder, snooze: snooze, logger: logger}
}

/*
Work runs one job.

Returns:
  - nil: the observation was created or merged
  - river.JobCancel: invalid input, never retried
  - river.JobSnooze: fingerprint lock timeout, retried after the snooze
  - error: any other failure, retried with the queue's backoff
*/
func (worker *Worker) Work(ctx context.Context, job *river.Job[Args]) error {
	args := job.Args

	logger := worker.logger.With(
		slog.Int64("job_id", job.ID),
		slog.Int("attempt", job.Attempt),
		slog.String("source_id", args.SourceID),
		slog.String("external_id", args.Event.ExternalID),
	)
	ctx = ctxutil.WithLogger(ctx, logger)

	if err := args.Check(); err != nil {
		logger.WarnContext(ctx, "ingest_job_rejected", slog.Any("error", err))
		worker.record(ctx, job, pipeline.StateCancelled, "", err)
		return river.JobCancel(err)
	}

	created, err := worker.processor.ProcessEvent(ctx, args.Event, args.SourceID, args.SourcePriority)
	if err == nil {
		worker.record(ctx, job, pipeline.StateCompleted, created.ID, nil)
		return nil
	}

	state, result := worker.outcome(job, err)
	logger.WarnContext(ctx, "ingest_job_failed",
		slog.String("state", string(state)),
		slog.String("category", string(pipeline.Classify(err))),
		slog.Any("error", err),
	)
	worker.record(ctx, job, state, "", err)
	return result
}

// outcome picks the queue action for a coordinator error.
func (worker *Worker) outcome(job *river.Job[Args], err error) (pipeline.State, error) {
	switch apperr.KindOf(err) {
	case apperr.KindInvalidCityName, apperr.KindMissingRequiredField:
		return pipeline.StateCancelled, river.JobCancel(err)
	case apperr.KindLockTimeout:
		return pipeline.StateSnoozed, river.JobSnooze(worker.snooze)
	}

	if ae := apperr.As(err); ae != nil && ae.Code == "VALIDATION_ERROR" {
		return pipeline.StateCancelled, river.JobCancel(err)
	}
	if job.Attempt >= job.MaxAttempts {
		return pipeline.StateDiscarded, err
	}
	return pipeline.StateRetryable, err
}

// record writes the execution row. A failed write is logged only; re-running
// an ingestion because its bookkeeping failed would duplicate work.
func (worker *Worker) record(ctx context.Context, job *river.Job[Args], state pipeline.State, eventID string, err error) {
	record := pipeline.NewRecord(job.ID, job.Args.SourceID, job.Args.Event.ExternalID, state, eventID, err)
	if recordErr := worker.recorder.Record(ctx, record); recordErr != nil {
		ctxutil.GetLogger(ctx).ErrorContext(ctx, "ingest_job_record_failed", slog.Any("error", recordErr))
	}
}
