// Copyright (c) 2026 Eventhub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package pipeline_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/eventhub/internal/core/pipeline"
	"github.com/taibuivan/eventhub/internal/core/pipeline/pipelinetest"
	"github.com/taibuivan/eventhub/internal/platform/apperr"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

/*
TestService_Health summarises the requested window only.
*/
func TestService_Health(t *testing.T) {
	ctx := context.Background()
	store := pipelinetest.New()
	service := pipeline.NewService(store, discard)

	old := pipeline.NewRecord(1, "src", "a", pipeline.StateCancelled, "", apperr.MissingField("title"))
	old.CreatedAt = time.Now().Add(-48 * time.Hour)
	require.NoError(t, store.Insert(ctx, &old))

	require.NoError(t, service.Record(ctx, pipeline.NewRecord(2, "src", "b", pipeline.StateCompleted, "evt", nil)))
	require.NoError(t, service.Record(ctx, pipeline.NewRecord(3, "src", "c", pipeline.StateSnoozed, "", apperr.LockTimeout("k", nil))))

	health, err := service.Health(ctx, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 2, health.Total)
	assert.Equal(t, 1, health.Completed)
	assert.Equal(t, 1, health.Retried)
	assert.Equal(t, 100.0, health.SuccessRate)
	assert.False(t, health.Since.IsZero())

	health, err = service.Health(ctx, time.Now().Add(-72*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 3, health.Total)
	assert.Equal(t, 50.0, health.SuccessRate)
}

/*
TestService_Record_Failure surfaces the store error.
*/
func TestService_Record_Failure(t *testing.T) {
	store := pipelinetest.New()
	store.FailInsert = errors.New("disk full")
	service := pipeline.NewService(store, discard)

	err := service.Record(context.Background(), pipeline.NewRecord(1, "src", "a", pipeline.StateCompleted, "evt", nil))
	assert.EqualError(t, err, "disk full")
	assert.Empty(t, store.Records())
}

/*
TestService_ListExecutions filters and pages newest first.
*/
func TestService_ListExecutions(t *testing.T) {
	ctx := context.Background()
	store := pipelinetest.New()
	service := pipeline.NewService(store, discard)

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		record := pipeline.NewRecord(int64(i), "src", "ext", pipeline.StateCompleted, "evt", nil)
		record.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, store.Insert(ctx, &record))
	}
	failed := pipeline.NewRecord(9, "src", "bad", pipeline.StateCancelled, "", apperr.InvalidCityName("90210", "US", "postcode"))
	require.NoError(t, store.Insert(ctx, &failed))

	page, total, err := service.ListExecutions(ctx, pipeline.Filter{State: pipeline.StateCompleted}, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, page, 2)
	assert.Equal(t, int64(4), page[0].JobID)
	assert.Equal(t, int64(3), page[1].JobID)

	page, total, err = service.ListExecutions(ctx, pipeline.Filter{Category: pipeline.CategoryInvalidCityName}, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "bad", page[0].ExternalID)
}
