// Copyright (c) 2026 Eventhub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package event owns canonical events and the ingestion coordinator that merges
repeated scrapes into them.

Every observation is reduced to a source-independent fingerprint. Writers that
share a fingerprint are serialized on an advisory lock derived from it, so the
read-merge-write under the lock sees every earlier observation and the catalog
never holds two canonical events for one fingerprint.
*/
package event

import (
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/taibuivan/eventhub/internal/core/location"
	"github.com/taibuivan/eventhub/internal/platform/apperr"
	"github.com/taibuivan/eventhub/pkg/uuidv7"
)

// # Kind

// Kind describes how an event recurs.
type Kind string

const (
	// KindSingle happens once; its date is part of the fingerprint.
	KindSingle Kind = "single"
	// KindRecurring repeats on a schedule under one stable identity.
	KindRecurring Kind = "recurring"
	// KindMultiDate runs on a listed set of dates.
	KindMultiDate Kind = "multi_date"
	// KindShowtime is a screening with several times per day.
	KindShowtime Kind = "showtime"
)

// ParseKind maps free text to a [Kind]. Empty input means [KindSingle].
func ParseKind(raw string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(raw))) {
	case "", KindSingle:
		return KindSingle, nil
	case KindRecurring:
		return KindRecurring, nil
	case KindMultiDate:
		return KindMultiDate, nil
	case KindShowtime:
		return KindShowtime, nil
	default:
		return "", apperr.ValidationError("Unknown event kind",
			apperr.FieldError{Field: "kind", Message: raw})
	}
}

// Dated reports whether each observation is pinned to one calendar day.
func (k Kind) Dated() bool {
	return k == KindSingle
}

// Timed reports whether occurrences are distinguished by time of day.
func (k Kind) Timed() bool {
	return k == KindShowtime
}

// # Entities

// Event is the canonical record for one logical event.
type Event struct {
	ID                    string          `json:"id"`
	Fingerprint           string          `json:"fingerprint"`
	Title                 string          `json:"title"`
	VenueID               string          `json:"venue_id"`
	Kind                  Kind            `json:"kind"`
	ImageURL              *string         `json:"image_url,omitempty"`
	PrimarySourceID       string          `json:"primary_source_id"`
	PrimarySourcePriority int             `json:"primary_source_priority"`
	Occurrences           []Occurrence    `json:"occurrences"`
	Sources               []SourceBinding `json:"sources"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
}

// Occurrence is one concrete calendar instance of an event.
type Occurrence struct {
	ID         string     `json:"id"`
	EventID    string     `json:"event_id"`
	Key        string     `json:"key"`
	StartsAt   time.Time  `json:"starts_at"`
	EndsAt     *time.Time `json:"ends_at,omitempty"`
	ExternalID *string    `json:"external_id,omitempty"`
}

// SourceBinding links an event to one source's own identifier for it.
type SourceBinding struct {
	ID         string    `json:"id"`
	EventID    string    `json:"event_id"`
	SourceID   string    `json:"source_id"`
	ExternalID string    `json:"external_id"`
	SourceURL  *string   `json:"source_url,omitempty"`
	LastSeenAt time.Time `json:"last_seen_at"`
}

// # Input

// EventData is one scraped observation of an event.
type EventData struct {
	ExternalID string             `json:"external_id" validate:"required,max=255"`
	Title      string             `json:"title" validate:"required,max=500"`
	StartAt    time.Time          `json:"start_at" validate:"required"`
	EndAt      *time.Time         `json:"end_at,omitempty"`
	Kind       Kind               `json:"kind,omitempty" validate:"omitempty,oneof=single recurring multi_date showtime"`
	Venue      location.VenueData `json:"venue_data"`
	SourceURL  string             `json:"source_url,omitempty" validate:"omitempty,url"`
	ImageURL   string             `json:"image_url,omitempty" validate:"omitempty,url"`
}

// venueDataWire accepts the short "city" and "country" keys some scrapers send.
type venueDataWire struct {
	Name        string   `json:"name"`
	Address     string   `json:"address"`
	CityName    string   `json:"city_name"`
	City        string   `json:"city"`
	CountryName string   `json:"country_name"`
	Country     string   `json:"country"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
}

// UnmarshalJSON decodes the venue block with key aliases.
func (data *EventData) UnmarshalJSON(payload []byte) error {
	type plain EventData
	var wire struct {
		plain
		Venue venueDataWire `json:"venue_data"`
	}
	if err := json.Unmarshal(payload, &wire); err != nil {
		return err
	}

	*data = EventData(wire.plain)
	data.Venue = location.VenueData{
		Name:        wire.Venue.Name,
		Address:     wire.Venue.Address,
		CityName:    firstNonEmpty(wire.Venue.CityName, wire.Venue.City),
		CountryName: firstNonEmpty(wire.Venue.CountryName, wire.Venue.Country),
		Latitude:    wire.Venue.Latitude,
		Longitude:   wire.Venue.Longitude,
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

// Check reports the first missing or malformed field that makes data unusable.
func (data *EventData) Check() error {
	if strings.TrimSpace(data.Title) == "" {
		return apperr.MissingField("title")
	}
	if strings.TrimSpace(data.ExternalID) == "" {
		return apperr.MissingField("external_id")
	}
	if data.StartAt.IsZero() {
		return apperr.MissingField("start_at")
	}
	if strings.TrimSpace(data.Venue.Name) == "" {
		return apperr.MissingField("venue_data.name")
	}
	if strings.TrimSpace(data.Venue.CountryName) == "" {
		return apperr.MissingField("venue_data.country_name")
	}

	kind, err := ParseKind(string(data.Kind))
	if err != nil {
		return err
	}
	data.Kind = kind
	return nil
}

// # Constructors

// newEvent builds the canonical record for a first observation.
func newEvent(fingerprint string, data EventData, venueID, sourceID string, priority int) *Event {
	return &Event{
		ID:                    uuidv7.New(),
		Fingerprint:           fingerprint,
		Title:                 strings.TrimSpace(data.Title),
		VenueID:               venueID,
		Kind:                  data.Kind,
		ImageURL:              optional(data.ImageURL),
		PrimarySourceID:       sourceID,
		PrimarySourcePriority: priority,
	}
}

// newOccurrence builds the occurrence an observation contributes to eventID.
func newOccurrence(eventID string, data EventData) *Occurrence {
	return &Occurrence{
		ID:         uuidv7.New(),
		EventID:    eventID,
		Key:        OccurrenceKey(data.Kind, data.StartAt),
		StartsAt:   data.StartAt.UTC(),
		EndsAt:     data.EndAt,
		ExternalID: optional(data.ExternalID),
	}
}

// newSourceBinding records that sourceID reported data for eventID.
func newSourceBinding(eventID, sourceID string, data EventData, seenAt time.Time) *SourceBinding {
	return &SourceBinding{
		ID:         uuidv7.New(),
		EventID:    eventID,
		SourceID:   sourceID,
		ExternalID: strings.TrimSpace(data.ExternalID),
		SourceURL:  optional(data.SourceURL),
		LastSeenAt: seenAt,
	}
}

func optional(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
