// Copyright (c) 2026 Eventhub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package externalid_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/eventhub/internal/core/event"
	"github.com/taibuivan/eventhub/internal/core/ingest/externalid"
	"github.com/taibuivan/eventhub/internal/platform/apperr"
)

/*
TestValidate enforces the per-kind suffix rule.
*/
func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		id    string
		kind  event.Kind
		valid bool
	}{
		{"recurring_plain", "crown-pub-quiz", event.KindRecurring, true},
		{"recurring_dated", "crown-pub-quiz-2026-03-02", event.KindRecurring, false},
		{"multi_date_dated", "jazz-fest-2026-07-11", event.KindMultiDate, true},
		{"multi_date_timed", "jazz-fest-2026-07-11T1900", event.KindMultiDate, true},
		{"multi_date_plain", "jazz-fest", event.KindMultiDate, false},
		{"showtime_timed", "dune-screen-2-2026-03-02T2115", event.KindShowtime, true},
		{"showtime_plain", "dune-screen-2", event.KindShowtime, false},
		{"impossible_date", "jazz-fest-2026-13-45", event.KindMultiDate, false},
		{"single_anything", "evt-12345", event.KindSingle, true},
		{"single_dated", "evt-2026-03-02", event.KindSingle, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := externalid.Validate(tt.id, tt.kind)
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			ae := apperr.As(err)
			if assert.NotNil(t, ae) {
				assert.Equal(t, "VALIDATION_ERROR", ae.Code)
			}
		})
	}
}

/*
TestValidate_Empty is a missing field.
*/
func TestValidate_Empty(t *testing.T) {
	assert.Equal(t, apperr.KindMissingRequiredField, apperr.KindOf(externalid.Validate("  ", event.KindSingle)))
}

/*
TestBuild produces ids that Validate accepts.
*/
func TestBuild(t *testing.T) {
	start := time.Date(2026, 3, 2, 21, 15, 0, 0, time.FixedZone("CET", 3600))

	tests := []struct {
		base string
		kind event.Kind
		want string
	}{
		{"crown-pub-quiz", event.KindRecurring, "crown-pub-quiz"},
		{"crown-pub-quiz-2026-02-23", event.KindRecurring, "crown-pub-quiz"},
		{"jazz-fest", event.KindMultiDate, "jazz-fest-2026-03-02"},
		{"dune-screen-2", event.KindShowtime, "dune-screen-2-2026-03-02T2015"},
		{"dune-screen-2-2026-03-01T1800", event.KindShowtime, "dune-screen-2-2026-03-02T2015"},
		{"evt-1", event.KindSingle, "evt-1"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got := externalid.Build(tt.base, tt.kind, start)
			assert.Equal(t, tt.want, got)
			assert.NoError(t, externalid.Validate(got, tt.kind))
		})
	}
}

/*
TestStamp extracts only well-formed suffixes.
*/
func TestStamp(t *testing.T) {
	assert.Equal(t, "2026-03-02", externalid.Stamp("a-2026-03-02"))
	assert.Equal(t, "2026-03-02T2115", externalid.Stamp("a-2026-03-02T2115"))
	assert.Empty(t, externalid.Stamp("a-2026-03-02T2515"))
	assert.Empty(t, externalid.Stamp("a2026-03-02"))
	assert.Empty(t, externalid.Stamp("plain"))
}
