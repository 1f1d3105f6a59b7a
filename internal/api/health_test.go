// Copyright (c) 2026 Eventhub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package api_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/eventhub/internal/api"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func healthy(context.Context) error { return nil }

func broken(context.Context) error { return errors.New("connection refused") }

/*
TestReadiness reports postgres as required and redis as optional.
*/
func TestReadiness(t *testing.T) {
	tests := []struct {
		name     string
		database func(context.Context) error
		cache    func(context.Context) error
		code     int
		status   string
	}{
		{"ready", healthy, healthy, http.StatusOK, "ready"},
		{"redis_down", healthy, broken, http.StatusOK, "degraded"},
		{"postgres_down", broken, healthy, http.StatusServiceUnavailable, "unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, readiness := api.NewHealthHandlers(api.HealthDependencies{
				CheckDatabase: tt.database,
				CheckCache:    tt.cache,
			}, discard)

			recorder := httptest.NewRecorder()
			readiness(recorder, httptest.NewRequest(http.MethodGet, "/ready", nil))

			assert.Equal(t, tt.code, recorder.Code)

			var body struct {
				Data struct {
					Status string `json:"status"`
				} `json:"data"`
			}
			require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
			assert.Equal(t, tt.status, body.Data.Status)
		})
	}
}
