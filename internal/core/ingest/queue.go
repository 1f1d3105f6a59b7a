// Copyright (c) 2026 Eventhub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivertype"
)

// Enqueuer inserts jobs. [*river.Client] implements it.
type Enqueuer interface {
	Insert(ctx context.Context, args river.JobArgs, opts *river.InsertOpts) (*rivertype.JobInsertResult, error)
}

/*
NewClient builds the queue client that runs worker on the ingest queue.

Parameters:
  - pool: *pgxpool.Pool (also holds the queue tables)
  - worker: *Worker
  - maxWorkers: int concurrent jobs per process
  - logger: *slog.Logger

Returns:
  - *river.Client[pgx.Tx]: Stopped client; run it with [Queue]
  - error: configuration errors
*/
func NewClient(pool *pgxpool.Pool, worker *Worker, maxWorkers int, logger *slog.Logger) (*river.Client[pgx.Tx], error) {
	workers := river.NewWorkers()
	if err := river.AddWorkerSafely(workers, worker); err != nil {
		return nil, fmt.Errorf("ingest: register worker: %w", err)
	}

	client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			QueueIngest: {MaxWorkers: maxWorkers},
		},
		Workers: workers,
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("ingest: create queue client: %w", err)
	}
	return client, nil
}

// # Supervised Queue

// Queue runs the queue client as a supervised service.
type Queue struct {
	client      *river.Client[pgx.Tx]
	stopTimeout time.Duration
	logger      *slog.Logger
}

// NewQueue wraps client. stopTimeout bounds the wait for running jobs on shutdown.
func NewQueue(client *river.Client[pgx.Tx], stopTimeout time.Duration, logger *slog.Logger) *Queue {
	return &Queue{client: client, stopTimeout: stopTimeout, logger: logger}
}

// Serve starts job processing and stops it gracefully when ctx is cancelled.
func (queue *Queue) Serve(ctx context.Context) error {
	if err := queue.client.Start(ctx); err != nil {
		return fmt.Errorf("ingest: start queue: %w", err)
	}
	queue.logger.Info("ingest_queue_started", slog.String("queue", QueueIngest))

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), queue.stopTimeout)
	defer cancel()

	if err := queue.client.Stop(stopCtx); err != nil {
		queue.logger.Error("ingest_queue_stop_failed", slog.Any("error", err))
		return fmt.Errorf("ingest: stop queue: %w", err)
	}
	queue.logger.Info("ingest_queue_stopped")
	return nil
}

// String names the service in supervisor logs.
func (queue *Queue) String() string { return "ingest-queue" }
