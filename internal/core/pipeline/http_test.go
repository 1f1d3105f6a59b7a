// Copyright (c) 2026 Eventhub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package pipeline_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/eventhub/internal/core/pipeline"
	"github.com/taibuivan/eventhub/internal/core/pipeline/pipelinetest"
	"github.com/taibuivan/eventhub/internal/platform/apperr"
)

/*
TestHandler_ListExecutions filters by state and category and rejects unknown values.
*/
func TestHandler_ListExecutions(t *testing.T) {
	ctx := context.Background()
	store := pipelinetest.New()
	service := pipeline.NewService(store, discard)

	require.NoError(t, service.Record(ctx, pipeline.NewRecord(1, "src", "a", pipeline.StateCompleted, "evt", nil)))
	require.NoError(t, service.Record(ctx, pipeline.NewRecord(2, "src", "b", pipeline.StateSnoozed, "", apperr.LockTimeout("k", nil))))
	require.NoError(t, service.Record(ctx, pipeline.NewRecord(3, "src", "c", pipeline.StateCancelled, "", apperr.MissingField("title"))))

	routes := pipeline.NewHandler(service).Routes()

	tests := []struct {
		name   string
		query  string
		status int
		total  int
	}{
		{"all", "", http.StatusOK, 3},
		{"state_alias", "?state=scheduled", http.StatusOK, 1},
		{"category", "?category=MISSING_REQUIRED_FIELD", http.StatusOK, 1},
		{"unknown_state", "?state=exploded", http.StatusBadRequest, 0},
		{"unknown_category", "?category=disk_full", http.StatusBadRequest, 0},
		{"bad_since", "?since=yesterday", http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			routes.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/executions"+tt.query, nil))

			require.Equal(t, tt.status, recorder.Code, recorder.Body.String())
			if tt.status != http.StatusOK {
				return
			}

			var body struct {
				Meta struct {
					Total int `json:"total"`
				} `json:"meta"`
			}
			require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
			assert.Equal(t, tt.total, body.Meta.Total)
		})
	}
}
