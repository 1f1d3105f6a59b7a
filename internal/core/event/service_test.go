// Copyright (c) 2026 Eventhub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package event_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/eventhub/internal/core/event"
	"github.com/taibuivan/eventhub/internal/platform/dberr"
	"github.com/taibuivan/eventhub/pkg/uuidv7"
)

/*
TestService_GetEvent hydrates occurrences and source bindings.
*/
func TestService_GetEvent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	created, err := h.coordinator.ProcessEvent(ctx, quiz(event.KindRecurring, monday), "quiz-chain", 1)
	require.NoError(t, err)
	_, err = h.coordinator.ProcessEvent(ctx, quiz(event.KindRecurring, monday.AddDate(0, 0, 7)), "listings", 0)
	require.NoError(t, err)

	service := event.NewService(h.store.Repository(), discard)

	got, err := service.GetEvent(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Len(t, got.Occurrences, 2)
	require.Len(t, got.Sources, 2)
	assert.Equal(t, "listings", got.Sources[0].SourceID)
	assert.Equal(t, "quiz-chain", got.Sources[1].SourceID)
}

/*
TestService_GetEvent_Errors rejects malformed ids and reports missing events.
*/
func TestService_GetEvent_Errors(t *testing.T) {
	service := event.NewService(newHarness(t).store.Repository(), discard)

	_, err := service.GetEvent(context.Background(), "not-a-uuid")
	require.Error(t, err)

	_, err = service.GetEvent(context.Background(), uuidv7.New())
	assert.ErrorIs(t, err, dberr.ErrNotFound)
}

/*
TestService_CountEventsByCity counts events per city and filters by country.
*/
func TestService_CountEventsByCity(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	for _, title := range []string{"Pub Quiz", "Music Bingo"} {
		data := quiz(event.KindRecurring, monday)
		data.Title = title
		_, err := h.coordinator.ProcessEvent(ctx, data, "quiz-chain", 1)
		require.NoError(t, err)
	}

	paris := quiz(event.KindRecurring, monday)
	paris.Venue.Name = "Le Comptoir"
	paris.Venue.CityName = "Paris"
	paris.Venue.CountryName = "France"
	_, err := h.coordinator.ProcessEvent(ctx, paris, "quiz-chain", 1)
	require.NoError(t, err)

	service := event.NewService(h.store.Repository(), discard)

	all, err := service.CountEventsByCity(ctx, "")
	require.NoError(t, err)
	counts := map[string]int{}
	for _, stat := range all {
		counts[stat.Name] = stat.Count
	}
	assert.Equal(t, map[string]int{"London": 2, "Paris": 1}, counts)

	gb, err := service.CountEventsByCity(ctx, "GB")
	require.NoError(t, err)
	require.Len(t, gb, 1)
	assert.Equal(t, "London", gb[0].Name)
	assert.Equal(t, 2, gb[0].Count)
}
