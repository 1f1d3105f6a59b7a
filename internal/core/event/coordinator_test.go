// Copyright (c) 2026 Eventhub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package event_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/eventhub/internal/core/event"
	"github.com/taibuivan/eventhub/internal/core/event/eventtest"
	"github.com/taibuivan/eventhub/internal/core/location"
	"github.com/taibuivan/eventhub/internal/core/location/locationtest"
	"github.com/taibuivan/eventhub/internal/platform/apperr"
	"github.com/taibuivan/eventhub/internal/platform/telemetry"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type harness struct {
	locations   *locationtest.Store
	store       *eventtest.Store
	signals     *telemetry.Collector
	coordinator *event.Coordinator
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	locations := locationtest.New()
	cache, err := location.NewMemoryCountryCache(time.Minute)
	require.NoError(t, err)
	t.Cleanup(cache.Close)

	signals := &telemetry.Collector{}
	directory := location.NewCountryDirectory(locations, cache, discard)
	resolver := location.NewResolver(directory, signals, discard)
	store := eventtest.New(locations)

	return &harness{
		locations:   locations,
		store:       store,
		signals:     signals,
		coordinator: event.NewCoordinator(store, resolver, signals, discard),
	}
}

// runConcurrently releases every call at once and collects the errors.
func runConcurrently(calls []func() error) []error {
	var (
		start sync.WaitGroup
		done  sync.WaitGroup
		mu    sync.Mutex
		errs  []error
	)
	start.Add(1)

	for _, call := range calls {
		done.Add(1)
		go func(call func() error) {
			defer done.Done()
			start.Wait()
			if err := call(); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}(call)
	}

	start.Done()
	done.Wait()
	return errs
}

/*
TestProcessEvent_ConcurrentSameFingerprint yields one event with one occurrence
per distinct date, whatever the arrival order.
*/
func TestProcessEvent_ConcurrentSameFingerprint(t *testing.T) {
	for _, n := range []int{5, 10} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			h := newHarness(t)

			calls := make([]func() error, 0, n)
			for i := 0; i < n; i++ {
				data := quiz(event.KindRecurring, monday.AddDate(0, 0, 7*i))
				calls = append(calls, func() error {
					_, err := h.coordinator.ProcessEvent(context.Background(), data, "quiz-chain", 1)
					return err
				})
			}

			require.Empty(t, runConcurrently(calls))

			events := h.store.Events()
			require.Len(t, events, 1)
			assert.Len(t, events[0].Occurrences, n)

			keys := map[string]bool{}
			for _, occurrence := range events[0].Occurrences {
				keys[occurrence.Key] = true
			}
			assert.Len(t, keys, n)

			assert.Len(t, h.locations.Cities(), 1)
			assert.Len(t, h.locations.Venues(), 1)
			assert.Equal(t, n-1, h.signals.Count(telemetry.KindDuplicateDetected))
		})
	}
}

/*
TestProcessEvent_ConcurrentDistinctFingerprints creates one event per fingerprint
while sharing the venue and city.
*/
func TestProcessEvent_ConcurrentDistinctFingerprints(t *testing.T) {
	h := newHarness(t)

	calls := []func() error{}
	for _, title := range []string{"Pub Quiz", "Music Bingo", "Open Mic"} {
		data := quiz(event.KindRecurring, monday)
		data.Title = title
		calls = append(calls, func() error {
			_, err := h.coordinator.ProcessEvent(context.Background(), data, "quiz-chain", 1)
			return err
		})
	}

	require.Empty(t, runConcurrently(calls))
	assert.Len(t, h.store.Events(), 3)
	assert.Len(t, h.locations.Cities(), 1)
	assert.Len(t, h.locations.Venues(), 1)
}

/*
TestProcessEvent_Idempotent absorbs a byte-identical re-scrape.
*/
func TestProcessEvent_Idempotent(t *testing.T) {
	h := newHarness(t)
	data := quiz(event.KindRecurring, monday)

	first, err := h.coordinator.ProcessEvent(context.Background(), data, "quiz-chain", 1)
	require.NoError(t, err)

	second, err := h.coordinator.ProcessEvent(context.Background(), data, "quiz-chain", 1)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, second.Occurrences, 1)
	assert.Len(t, second.Sources, 1)
	assert.Len(t, h.store.Events(), 1)
	assert.Equal(t, 1, h.signals.Count(telemetry.KindDuplicateDetected))
}

/*
TestProcessEvent_Showtimes keeps one occurrence per distinct minute.
*/
func TestProcessEvent_Showtimes(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	for _, start := range []time.Time{monday, monday.Add(3 * time.Hour), monday} {
		data := quiz(event.KindShowtime, start)
		data.ExternalID = "film-" + start.Format("2006-01-02T1504")
		_, err := h.coordinator.ProcessEvent(ctx, data, "cinema", 1)
		require.NoError(t, err)
	}

	events := h.store.Events()
	require.Len(t, events, 1)
	assert.Len(t, events[0].Occurrences, 2)
}

/*
TestProcessEvent_SingleEventsSplitByDay creates separate events for one-off
events on different days.
*/
func TestProcessEvent_SingleEventsSplitByDay(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.coordinator.ProcessEvent(ctx, quiz(event.KindSingle, monday), "tickets", 1)
	require.NoError(t, err)
	_, err = h.coordinator.ProcessEvent(ctx, quiz(event.KindSingle, monday.AddDate(0, 0, 1)), "tickets", 1)
	require.NoError(t, err)

	assert.Len(t, h.store.Events(), 2)
}

/*
TestProcessEvent_SourcePriority lets a higher-priority source take over.
*/
func TestProcessEvent_SourcePriority(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	low := quiz(event.KindRecurring, monday)
	_, err := h.coordinator.ProcessEvent(ctx, low, "aggregator", 1)
	require.NoError(t, err)

	high := quiz(event.KindRecurring, monday.AddDate(0, 0, 7))
	high.Title = "PUB QUIZ!"
	high.ExternalID = "crown-quiz"
	high.ImageURL = "https://venue.example.com/quiz.png"
	merged, err := h.coordinator.ProcessEvent(ctx, high, "venue-site", 10)
	require.NoError(t, err)

	assert.Equal(t, "PUB QUIZ!", merged.Title)
	assert.Equal(t, "venue-site", merged.PrimarySourceID)
	assert.Equal(t, 10, merged.PrimarySourcePriority)
	require.NotNil(t, merged.ImageURL)

	middle := quiz(event.KindRecurring, monday.AddDate(0, 0, 14))
	middle.Title = "pub quiz"
	middle.ExternalID = "q-1"
	merged, err = h.coordinator.ProcessEvent(ctx, middle, "listings", 5)
	require.NoError(t, err)

	assert.Equal(t, "PUB QUIZ!", merged.Title)
	assert.Equal(t, "venue-site", merged.PrimarySourceID)
	assert.Len(t, merged.Sources, 3)
	assert.Len(t, merged.Occurrences, 3)
}

/*
TestProcessEvent_RejectedCityWritesNothing propagates the resolver error.
*/
func TestProcessEvent_RejectedCityWritesNothing(t *testing.T) {
	h := newHarness(t)

	data := quiz(event.KindRecurring, monday)
	data.Venue.CityName = "SW18 2SS"

	_, err := h.coordinator.ProcessEvent(context.Background(), data, "quiz-chain", 1)
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidCityName, apperr.KindOf(err))

	assert.Empty(t, h.store.Events())
	assert.Empty(t, h.locations.Cities())
	assert.Empty(t, h.locations.Venues())
	assert.Equal(t, 1, h.signals.Count(telemetry.KindCityNameRejected))
	assert.Equal(t, 1, h.signals.Count(telemetry.KindIngestFailed))
}

/*
TestProcessEvent_VenueFailureRollsBack undoes the city created in the same unit.
*/
func TestProcessEvent_VenueFailureRollsBack(t *testing.T) {
	h := newHarness(t)
	h.locations.FailVenueInsert = apperr.Internal(errors.New("connection reset"))

	_, err := h.coordinator.ProcessEvent(context.Background(), quiz(event.KindRecurring, monday), "quiz-chain", 1)
	require.Error(t, err)
	assert.Equal(t, apperr.KindUnknown, apperr.KindOf(err))

	assert.Empty(t, h.store.Events())
	assert.Empty(t, h.locations.Cities())
}

/*
TestProcessEvent_LockTimeout surfaces a retryable error and a signal.
*/
func TestProcessEvent_LockTimeout(t *testing.T) {
	h := newHarness(t)
	h.store.Wait = 50 * time.Millisecond

	data := quiz(event.KindRecurring, monday)
	release := h.store.Hold(event.LockKey(event.Fingerprint(data)))
	defer release()

	_, err := h.coordinator.ProcessEvent(context.Background(), data, "quiz-chain", 1)
	require.Error(t, err)
	assert.Equal(t, apperr.KindLockTimeout, apperr.KindOf(err))
	assert.True(t, apperr.As(err).Retryable())
	assert.Equal(t, 1, h.signals.Count(telemetry.KindLockTimeout))
	assert.Empty(t, h.store.Events())
}

/*
TestProcessEvent_DistinctKeysDoNotBlock proves there is no global lock.
*/
func TestProcessEvent_DistinctKeysDoNotBlock(t *testing.T) {
	h := newHarness(t)
	h.store.Wait = 200 * time.Millisecond

	held := quiz(event.KindRecurring, monday)
	release := h.store.Hold(event.LockKey(event.Fingerprint(held)))
	defer release()

	other := quiz(event.KindRecurring, monday)
	other.Title = "Music Bingo"
	_, err := h.coordinator.ProcessEvent(context.Background(), other, "quiz-chain", 1)
	require.NoError(t, err)
}

/*
TestProcessEvent_ConstraintRaceRetried merges into a row created by a writer
that bypassed the lock.
*/
func TestProcessEvent_ConstraintRaceRetried(t *testing.T) {
	h := newHarness(t)

	var once sync.Once
	var intruder *event.Event
	h.store.BeforeCreate = func(created *event.Event) {
		once.Do(func() {
			intruder = &event.Event{
				ID:              "00000000-0000-7000-8000-000000000001",
				Fingerprint:     created.Fingerprint,
				Title:           created.Title,
				VenueID:         created.VenueID,
				Kind:            created.Kind,
				PrimarySourceID: "other-process",
			}
			h.store.Insert(intruder)
		})
	}

	result, err := h.coordinator.ProcessEvent(context.Background(), quiz(event.KindRecurring, monday), "quiz-chain", 1)
	require.NoError(t, err)
	assert.Equal(t, intruder.ID, result.ID)
	assert.Len(t, result.Occurrences, 1)
	assert.Len(t, h.store.Events(), 1)
}

/*
TestProcessEvent_CrossSourceMerge binds two sources to one event.
*/
func TestProcessEvent_CrossSourceMerge(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	a := quiz(event.KindRecurring, monday)
	b := quiz(event.KindRecurring, monday)
	b.ExternalID = "12345"

	_, err := h.coordinator.ProcessEvent(ctx, a, "source-a", 1)
	require.NoError(t, err)
	merged, err := h.coordinator.ProcessEvent(ctx, b, "source-b", 1)
	require.NoError(t, err)

	assert.Len(t, merged.Sources, 2)
	assert.Len(t, merged.Occurrences, 1)
}

/*
TestProcessEvent_MissingFields fails before taking any lock.
*/
func TestProcessEvent_MissingFields(t *testing.T) {
	h := newHarness(t)

	data := quiz(event.KindRecurring, monday)
	data.Title = ""

	_, err := h.coordinator.ProcessEvent(context.Background(), data, "quiz-chain", 1)
	assert.Equal(t, apperr.KindMissingRequiredField, apperr.KindOf(err))
	assert.Equal(t, 1, h.signals.Count(telemetry.KindIngestFailed))
}

/*
TestProcessEvent_AlternateCityName merges observations that spell the city by
an alternate name into the event created under its canonical name.
*/
func TestProcessEvent_AlternateCityName(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	warsaw := quiz(event.KindRecurring, monday)
	warsaw.Venue.CityName = "Warsaw"
	warsaw.Venue.CountryName = "Poland"

	first, err := h.coordinator.ProcessEvent(ctx, warsaw, "quiz-chain", 1)
	require.NoError(t, err)

	cities := h.locations.Cities()
	require.Len(t, cities, 1)
	city := cities[0]
	require.True(t, city.AddAlternateName("Warszawa"))
	require.NoError(t, h.locations.Repository().UpdateCity(ctx, city))

	warszawa := quiz(event.KindRecurring, monday.AddDate(0, 0, 7))
	warszawa.Venue.CityName = "warszawa"
	warszawa.Venue.CountryName = "PL"

	second, err := h.coordinator.ProcessEvent(ctx, warszawa, "listings", 1)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, second.Occurrences, 2)
	assert.Len(t, h.store.Events(), 1)
	assert.Len(t, h.locations.Cities(), 1)
	assert.Len(t, h.locations.Venues(), 1)
	assert.Equal(t, 1, h.signals.Count(telemetry.KindDuplicateDetected))
}
