// Copyright (c) 2026 Eventhub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package pipeline records what happened to every ingestion job and summarises
those records as pipeline health.

Job state and error category are closed enumerations. Free text coming from the
job framework or from legacy error messages is mapped onto them in exactly one
place ([ParseState], [CategoryFromText]); anything unrecognised lands on an
explicit fallback member instead of drifting into a new ad-hoc value.
*/
package pipeline

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/taibuivan/eventhub/internal/platform/apperr"
	"github.com/taibuivan/eventhub/pkg/uuidv7"
)

// # State

// State is the lifecycle position of one ingestion job.
type State string

const (
	StateAvailable State = "available"
	StateExecuting State = "executing"
	StateCompleted State = "completed"
	StateRetryable State = "retryable"
	StateDiscarded State = "discarded"
	StateCancelled State = "cancelled"
	StateSnoozed   State = "snoozed"
)

// States lists every member in lifecycle order.
var States = []State{
	StateAvailable, StateExecuting, StateCompleted, StateRetryable,
	StateDiscarded, StateCancelled, StateSnoozed,
}

var stateAliases = map[string]State{
	"available": StateAvailable,
	"pending":   StateAvailable,
	"queued":    StateAvailable,
	"executing": StateExecuting,
	"running":   StateExecuting,
	"completed": StateCompleted,
	"complete":  StateCompleted,
	"success":   StateCompleted,
	"retryable": StateRetryable,
	"retry":     StateRetryable,
	"discarded": StateDiscarded,
	"failed":    StateDiscarded,
	"cancelled": StateCancelled,
	"canceled":  StateCancelled,
	"snoozed":   StateSnoozed,
	"scheduled": StateSnoozed,
}

// ParseState maps a free-text state onto the enumeration. ok is false when
// the text names no known state.
func ParseState(raw string) (state State, ok bool) {
	state, ok = stateAliases[strings.ToLower(strings.TrimSpace(raw))]
	return state, ok
}

// Terminal reports whether the job will not run again.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateDiscarded || s == StateCancelled
}

// Failed reports whether the job ended without producing an event.
func (s State) Failed() bool {
	return s == StateDiscarded || s == StateCancelled
}

// Deferred reports whether the job was put back to run later.
func (s State) Deferred() bool {
	return s == StateRetryable || s == StateSnoozed
}

// # Category

// Category is the error taxonomy entry of a failed or deferred job.
type Category string

const (
	CategoryNone                 Category = ""
	CategoryInvalidCityName      Category = "invalid_city_name"
	CategoryMissingRequiredField Category = "missing_required_field"
	CategoryLockTimeout          Category = "lock_timeout"
	CategoryConstraintRace       Category = "constraint_race"
	CategoryUnknown              Category = "unknown_error"
)

// Categories lists every non-empty member.
var Categories = []Category{
	CategoryInvalidCityName, CategoryMissingRequiredField, CategoryLockTimeout,
	CategoryConstraintRace, CategoryUnknown,
}

// textRules is checked in order; the first matching fragment wins.
var textRules = []struct {
	fragment string
	category Category
}{
	{"failed to find or create city", CategoryInvalidCityName},
	{"invalid city", CategoryInvalidCityName},
	{"invalid_city_name", CategoryInvalidCityName},
	{"timed out waiting for ingestion lock", CategoryLockTimeout},
	{"lock timeout", CategoryLockTimeout},
	{"lock_timeout", CategoryLockTimeout},
	{"55p03", CategoryLockTimeout},
	{"concurrent write conflict", CategoryConstraintRace},
	{"unique constraint", CategoryConstraintRace},
	{"constraint_race", CategoryConstraintRace},
	{"23505", CategoryConstraintRace},
	{"is required", CategoryMissingRequiredField},
	{"missing required", CategoryMissingRequiredField},
	{"missing_required_field", CategoryMissingRequiredField},
	{"unknown country", CategoryMissingRequiredField},
}

// CategoryFromText maps a free-text error message onto the taxonomy.
// Empty text has no category; unrecognised text is [CategoryUnknown].
func CategoryFromText(message string) Category {
	text := strings.ToLower(strings.TrimSpace(message))
	if text == "" {
		return CategoryNone
	}
	for _, rule := range textRules {
		if strings.Contains(text, rule.fragment) {
			return rule.category
		}
	}
	return CategoryUnknown
}

// Classify maps a typed error onto the taxonomy, falling back to its text when
// the error carries no kind.
func Classify(err error) Category {
	if err == nil {
		return CategoryNone
	}

	switch apperr.KindOf(err) {
	case apperr.KindInvalidCityName:
		return CategoryInvalidCityName
	case apperr.KindMissingRequiredField:
		return CategoryMissingRequiredField
	case apperr.KindLockTimeout:
		return CategoryLockTimeout
	case apperr.KindConstraintRace:
		return CategoryConstraintRace
	}

	if ae := apperr.As(err); ae != nil && ae.Code == "VALIDATION_ERROR" {
		return CategoryMissingRequiredField
	}
	if category := CategoryFromText(err.Error()); category != CategoryNone {
		return category
	}
	return CategoryUnknown
}

// # Record

// Record is one persisted job execution.
type Record struct {
	ID         string    `json:"id"`
	JobID      int64     `json:"job_id"`
	SourceID   string    `json:"source_id"`
	ExternalID string    `json:"external_id"`
	State      State     `json:"state"`
	Category   Category  `json:"category,omitempty"`
	Message    string    `json:"message,omitempty"`
	EventID    *string   `json:"event_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

/*
NewRecord builds the execution record for a job outcome.

Parameters:
  - jobID: int64 queue job id
  - sourceID, externalID: string identifiers of the observation
  - state: State the job ended in
  - eventID: string canonical event id, empty when none was produced
  - err: error returned by the coordinator, nil on success

Returns:
  - Record: category and message are derived from err
*/
func NewRecord(jobID int64, sourceID, externalID string, state State, eventID string, err error) Record {
	record := Record{
		ID:         uuidv7.New(),
		JobID:      jobID,
		SourceID:   sourceID,
		ExternalID: externalID,
		State:      state,
		CreatedAt:  time.Now().UTC(),
	}
	if eventID != "" {
		record.EventID = &eventID
	}
	if err != nil {
		record.Category = Classify(err)
		record.Message = err.Error()
	}
	return record
}

// # Health

// CategoryCount is one row of the failure breakdown.
type CategoryCount struct {
	Category Category `json:"category"`
	Count    int      `json:"count"`
}

// Health summarises a window of job executions.
type Health struct {
	Total       int             `json:"total"`
	Completed   int             `json:"completed"`
	Failed      int             `json:"failed"`
	Retried     int             `json:"retried"`
	SuccessRate float64         `json:"success_rate"`
	ByCategory  []CategoryCount `json:"by_category"`
	Since       time.Time       `json:"since"`
}

/*
Summarize folds records into a [Health] report.

Description: SuccessRate is the percentage of finished jobs (completed or
failed) that completed, rounded to one decimal; jobs still waiting to retry do
not count against it. ByCategory covers failed and deferred records, sorted by
count descending then category name.
*/
func Summarize(records []Record) Health {
	health := Health{Total: len(records), ByCategory: []CategoryCount{}}
	counts := map[Category]int{}

	for _, record := range records {
		switch {
		case record.State == StateCompleted:
			health.Completed++
		case record.State.Failed():
			health.Failed++
		case record.State.Deferred():
			health.Retried++
		}

		if record.State.Failed() || record.State.Deferred() {
			category := record.Category
			if category == CategoryNone {
				category = CategoryUnknown
			}
			counts[category]++
		}
	}

	if finished := health.Completed + health.Failed; finished > 0 {
		health.SuccessRate = math.Round(float64(health.Completed)/float64(finished)*1000) / 10
	}

	for category, count := range counts {
		health.ByCategory = append(health.ByCategory, CategoryCount{Category: category, Count: count})
	}
	sort.Slice(health.ByCategory, func(i, j int) bool {
		a, b := health.ByCategory[i], health.ByCategory[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Category < b.Category
	})

	return health
}
