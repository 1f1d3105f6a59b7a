// Copyright (c) 2026 Eventhub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package ingest_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/eventhub/internal/core/event"
	"github.com/taibuivan/eventhub/internal/core/event/eventtest"
	"github.com/taibuivan/eventhub/internal/core/ingest"
	"github.com/taibuivan/eventhub/internal/core/location"
	"github.com/taibuivan/eventhub/internal/core/location/locationtest"
	"github.com/taibuivan/eventhub/internal/core/pipeline"
	"github.com/taibuivan/eventhub/internal/core/pipeline/pipelinetest"
	"github.com/taibuivan/eventhub/internal/platform/telemetry"
)

var (
	discard = slog.New(slog.NewTextHandler(io.Discard, nil))
	monday  = time.Date(2026, 3, 2, 19, 30, 0, 0, time.UTC)
)

func observation() event.EventData {
	return event.EventData{
		ExternalID: "crown-pub-quiz",
		Title:      "Pub Quiz",
		StartAt:    monday,
		Kind:       event.KindRecurring,
		Venue: location.VenueData{
			Name:        "The Crown",
			CityName:    "London",
			CountryName: "United Kingdom",
		},
	}
}

func job(id int64, attempt int, args ingest.Args) *river.Job[ingest.Args] {
	return &river.Job[ingest.Args]{
		JobRow: &rivertype.JobRow{ID: id, Attempt: attempt, MaxAttempts: 8},
		Args:   args,
	}
}

type fixture struct {
	events  *eventtest.Store
	records *pipelinetest.Store
	worker  *ingest.Worker
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	locations := locationtest.New()
	cache, err := location.NewMemoryCountryCache(time.Minute)
	require.NoError(t, err)
	t.Cleanup(cache.Close)

	signals := &telemetry.Collector{}
	directory := location.NewCountryDirectory(locations, cache, discard)
	resolver := location.NewResolver(directory, signals, discard)
	events := eventtest.New(locations)
	coordinator := event.NewCoordinator(events, resolver, signals, discard)

	records := pipelinetest.New()
	recorder := pipeline.NewService(records, discard)

	return &fixture{
		events:  events,
		records: records,
		worker:  ingest.NewWorker(coordinator, recorder, 30*time.Second, discard),
	}
}

/*
TestWorker_Completed ingests and records the resulting event.
*/
func TestWorker_Completed(t *testing.T) {
	f := newFixture(t)

	err := f.worker.Work(context.Background(), job(1, 1, ingest.Args{SourceID: "quiz-chain", SourcePriority: 1, Event: observation()}))
	require.NoError(t, err)

	events := f.events.Events()
	require.Len(t, events, 1)

	records := f.records.Records()
	require.Len(t, records, 1)
	assert.Equal(t, pipeline.StateCompleted, records[0].State)
	assert.Equal(t, int64(1), records[0].JobID)
	require.NotNil(t, records[0].EventID)
	assert.Equal(t, events[0].ID, *records[0].EventID)
}

/*
TestWorker_Cancelled never retries bad input.
*/
func TestWorker_Cancelled(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(args *ingest.Args)
		category pipeline.Category
	}{
		{"missing_title", func(args *ingest.Args) { args.Event.Title = "" }, pipeline.CategoryMissingRequiredField},
		{"missing_source", func(args *ingest.Args) { args.SourceID = "" }, pipeline.CategoryMissingRequiredField},
		{"dated_recurring_id", func(args *ingest.Args) { args.Event.ExternalID = "crown-pub-quiz-2026-03-02" }, pipeline.CategoryMissingRequiredField},
		{"postcode_city", func(args *ingest.Args) { args.Event.Venue.CityName = "SW18 2SS" }, pipeline.CategoryInvalidCityName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			args := ingest.Args{SourceID: "quiz-chain", SourcePriority: 1, Event: observation()}
			tt.mutate(&args)

			err := f.worker.Work(context.Background(), job(2, 1, args))

			var cancel *rivertype.JobCancelError
			require.ErrorAs(t, err, &cancel)

			assert.Empty(t, f.events.Events())
			records := f.records.Records()
			require.Len(t, records, 1)
			assert.Equal(t, pipeline.StateCancelled, records[0].State)
			assert.Equal(t, tt.category, records[0].Category)
			assert.NotEmpty(t, records[0].Message)
		})
	}
}

/*
TestWorker_LockTimeoutSnoozes defers a job whose fingerprint is held elsewhere.
*/
func TestWorker_LockTimeoutSnoozes(t *testing.T) {
	f := newFixture(t)
	f.events.Wait = 20 * time.Millisecond

	data := observation()
	release := f.events.Hold(event.LockKey(event.Fingerprint(data)))
	defer release()

	err := f.worker.Work(context.Background(), job(3, 1, ingest.Args{SourceID: "quiz-chain", Event: data}))

	var snooze *rivertype.JobSnoozeError
	require.ErrorAs(t, err, &snooze)
	assert.Equal(t, 30*time.Second, snooze.Duration)

	records := f.records.Records()
	require.Len(t, records, 1)
	assert.Equal(t, pipeline.StateSnoozed, records[0].State)
	assert.Equal(t, pipeline.CategoryLockTimeout, records[0].Category)
}

// failing always returns err.
type failing struct{ err error }

func (f failing) ProcessEvent(context.Context, event.EventData, string, int) (*event.Event, error) {
	return nil, f.err
}

/*
TestWorker_TransientFailure returns the error for the queue to retry until the
last attempt.
*/
func TestWorker_TransientFailure(t *testing.T) {
	tests := []struct {
		attempt int
		state   pipeline.State
	}{
		{1, pipeline.StateRetryable},
		{8, pipeline.StateDiscarded},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			boom := errors.New("connection reset by peer")
			records := pipelinetest.New()
			worker := ingest.NewWorker(failing{err: boom}, pipeline.NewService(records, discard), 0, discard)

			err := worker.Work(context.Background(), job(4, tt.attempt, ingest.Args{SourceID: "quiz-chain", Event: observation()}))
			assert.ErrorIs(t, err, boom)

			got := records.Records()
			require.Len(t, got, 1)
			assert.Equal(t, tt.state, got[0].State)
			assert.Equal(t, pipeline.CategoryUnknown, got[0].Category)
		})
	}
}

/*
TestWorker_RecordFailureDoesNotFailJob keeps a successful ingestion successful.
*/
func TestWorker_RecordFailureDoesNotFailJob(t *testing.T) {
	f := newFixture(t)
	f.records.FailInsert = errors.New("disk full")

	err := f.worker.Work(context.Background(), job(5, 1, ingest.Args{SourceID: "quiz-chain", Event: observation()}))
	assert.NoError(t, err)
	assert.Len(t, f.events.Events(), 1)
}

/*
TestArgs_InsertOpts routes jobs to the ingest queue.
*/
func TestArgs_InsertOpts(t *testing.T) {
	args := ingest.Args{}
	assert.Equal(t, "event_ingest", args.Kind())
	assert.Equal(t, ingest.QueueIngest, args.InsertOpts().Queue)
	assert.Positive(t, args.InsertOpts().MaxAttempts)
}
