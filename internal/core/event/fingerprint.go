// Copyright (c) 2026 Eventhub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package event

import (
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/taibuivan/eventhub/internal/core/location"
	"github.com/taibuivan/eventhub/pkg/slug"
)

const (
	fingerprintSeparator = "|"
	dayLayout            = "2006-01-02"
	minuteLayout         = "2006-01-02T15:04"
)

/*
Fingerprint derives the identity of the logical event data describes.

Description: The fingerprint joins the slugs of the title, the venue name and
the city with the country code. Single events also carry the UTC day of their
start, so the same title at the same venue on another day is another event.
External ids and the reporting source never take part, which is what lets
repeated scrapes, and different scrapers, land on one canonical event.

Returns:
  - string: e.g. "pub-quiz|the-crown|london|GB"
*/
func Fingerprint(data EventData) string {
	parts := []string{
		slug.From(data.Title),
		slug.From(data.Venue.Name),
		slug.From(data.Venue.CityName),
		countryKey(data.Venue.CountryName),
	}

	kind, err := ParseKind(string(data.Kind))
	if err == nil && kind.Dated() {
		parts = append(parts, data.StartAt.UTC().Format(dayLayout))
	}

	return strings.Join(parts, fingerprintSeparator)
}

// countryKey prefers the ISO code so "UK" and "United Kingdom" agree.
func countryKey(input string) string {
	if ref, ok := location.DefaultCountryIndex().Lookup(input); ok {
		return ref.Code
	}
	return slug.From(input)
}

// OccurrenceKey identifies an occurrence within its event: the UTC day, or the
// UTC minute for showtimes.
func OccurrenceKey(kind Kind, startsAt time.Time) string {
	if kind.Timed() {
		return startsAt.UTC().Format(minuteLayout)
	}
	return startsAt.UTC().Format(dayLayout)
}

// LockKey maps a fingerprint onto the signed 64-bit advisory lock space.
func LockKey(fingerprint string) int64 {
	return int64(xxhash.Sum64String(fingerprint))
}
