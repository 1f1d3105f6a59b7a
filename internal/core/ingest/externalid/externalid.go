// Copyright (c) 2026 Eventhub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package externalid enforces the naming conventions scrapers follow for the
external ids they attach to observations.

A source binding is keyed by (source, external id). Recurring events must keep
one id across weeks, so their ids carry no date. Multi-date and showtime events
report one observation per date or screening, so their ids end with the date
(-YYYY-MM-DD) or date and time (-YYYY-MM-DDTHHMM) they describe.
*/
package externalid

import (
	"regexp"
	"strings"
	"time"

	"github.com/taibuivan/eventhub/internal/core/event"
	"github.com/taibuivan/eventhub/internal/platform/apperr"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02T1504"
)

// suffix matches a trailing date or date-time stamp.
var suffix = regexp.MustCompile(`-(\d{4}-\d{2}-\d{2})(T\d{4})?$`)

// Stamp returns the date suffix of id without its leading dash, or "".
func Stamp(id string) string {
	match := suffix.FindStringSubmatch(id)
	if match == nil {
		return ""
	}
	layout := dateLayout
	if match[2] != "" {
		layout = dateTimeLayout
	}
	stamp := match[1] + match[2]
	if _, err := time.Parse(layout, stamp); err != nil {
		return ""
	}
	return stamp
}

/*
Validate checks id against the convention for kind.

Returns:
  - error: VALIDATION_ERROR naming the external_id field, nil when compliant
*/
func Validate(id string, kind event.Kind) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperr.MissingField("external_id")
	}

	stamp := Stamp(id)
	switch kind {
	case event.KindRecurring:
		if stamp != "" {
			return invalid("Recurring event ids must not carry a date suffix")
		}
	case event.KindMultiDate, event.KindShowtime:
		if stamp == "" {
			return invalid("Multi-date and showtime ids must end with -YYYY-MM-DD or -YYYY-MM-DDTHHMM")
		}
	}
	return nil
}

func invalid(message string) error {
	return apperr.ValidationError("Invalid external id",
		apperr.FieldError{Field: "external_id", Message: message})
}

/*
Build derives a compliant id from a stable base id.

Description: Any date suffix already on base is replaced. Single and recurring
events get the bare base; multi-date events get the UTC start date and
showtimes the UTC start date and minute.
*/
func Build(base string, kind event.Kind, start time.Time) string {
	base = strings.TrimSpace(base)
	if stamp := Stamp(base); stamp != "" {
		base = strings.TrimSuffix(base, "-"+stamp)
	}

	switch kind {
	case event.KindMultiDate:
		return base + "-" + start.UTC().Format(dateLayout)
	case event.KindShowtime:
		return base + "-" + start.UTC().Format(dateTimeLayout)
	default:
		return base
	}
}
