// Copyright (c) 2026 Eventhub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package stats_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/eventhub/internal/core/stats"
)

/*
TestHandler_CityStats rejects thresholds that are not finite numbers.
*/
func TestHandler_CityStats(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		status  int
		queried bool
	}{
		{"defaults", "", http.StatusOK, true},
		{"country_and_radius", "?country=gb&threshold_km=30", http.StatusOK, true},
		{"nan", "?threshold_km=NaN", http.StatusBadRequest, false},
		{"infinity", "?threshold_km=Inf", http.StatusBadRequest, false},
		{"malformed", "?threshold_km=far", http.StatusBadRequest, false},
		{"out_of_range", "?threshold_km=900", http.StatusBadRequest, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &counter{stats: britain, country: "unset"}
			routes := stats.NewHandler(stats.NewService(c, 20, discard)).Routes()

			recorder := httptest.NewRecorder()
			routes.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/cities"+tt.query, nil))

			assert.Equal(t, tt.status, recorder.Code, recorder.Body.String())
			assert.Equal(t, tt.queried, c.country != "unset")
		})
	}
}
