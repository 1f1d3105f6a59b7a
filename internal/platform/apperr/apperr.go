// Copyright (c) 2026 Eventhub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package apperr defines the centralized error handling framework for eventhub.

It provides a rich error type that bridges the gap between low-level Domain/Storage
errors, the ingestion error taxonomy, and high-level HTTP responses.

Architecture:

  - AppError: A struct containing machine-readable ErrorCode and user-friendly messages.
  - Kind: The ingestion taxonomy (invalid city name, missing field, lock timeout, ...).
  - Mapping: Explicit mapping from AppError to standard HTTP Status Codes.

Every error that leaves the service layer should be wrapped as an [AppError] to ensure
consistent API responses and job-execution records.
*/
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for the ingestion pipeline.
type Kind string

const (
	KindNone                 Kind = ""
	KindInvalidCityName      Kind = "invalid_city_name"
	KindMissingRequiredField Kind = "missing_required_field"
	KindLockTimeout          Kind = "lock_timeout"
	KindConstraintRace       Kind = "constraint_race"
	KindUnknown              Kind = "unknown_error"
)

// AppError is the canonical error type for the eventhub service.
//
// It carries an HTTP status code, a machine-readable code, a client-safe
// message, and an optional slice of field-level validation errors.
//
// # Security
//
// The Cause field is for server-side logging only and is never sent to clients
// to avoid leaking internal implementation details (e.g., SQL queries).
type AppError struct {
	// Code is a machine-readable error identifier (e.g. "NOT_FOUND", "CONFLICT").
	Code string `json:"code"`
	// Message is a human-readable description safe to return to the client.
	Message string `json:"error"`
	// Kind is the ingestion taxonomy entry, empty for plain API errors.
	Kind Kind `json:"kind,omitempty"`
	// HTTPStatus is the HTTP response status code.
	HTTPStatus int `json:"-"`
	// Cause is the underlying error, used for server-side logging only.
	Cause error `json:"-"`
	// Details holds per-field validation errors for VALIDATION_ERROR responses.
	Details []FieldError `json:"details,omitempty"`
}

// FieldError represents a single field-level validation failure.
type FieldError struct {
	// Field is the JSON field name that failed validation.
	Field string `json:"field"`
	// Message is the human-readable description of the failure.
	Message string `json:"message"`
}

// Error implements the error interface. It returns the client-safe message.
func (e *AppError) Error() string { return e.Message }

// Unwrap allows [errors.Is] and [errors.As] to traverse the cause chain.
func (e *AppError) Unwrap() error { return e.Cause }

// Retryable reports whether the failure is transient.
func (e *AppError) Retryable() bool {
	return e.Kind == KindLockTimeout || e.Kind == KindConstraintRace
}

// # Client Errors (4xx)

// NotFound creates a 404 [AppError] for a named resource.
//
// Example:
//
//	apperr.NotFound("City") // Returns "City not found"
func NotFound(resource string) *AppError {
	return &AppError{
		Code:       "NOT_FOUND",
		Message:    resource + " not found",
		HTTPStatus: http.StatusNotFound,
	}
}

// Conflict creates a 409 [AppError] for duplicate or unique-constraint violations.
func Conflict(msg string) *AppError {
	return &AppError{
		Code:       "CONFLICT",
		Message:    msg,
		HTTPStatus: http.StatusConflict,
	}
}

// ValidationError creates a 400 [AppError] with optional per-field details.
func ValidationError(msg string, details ...FieldError) *AppError {
	return &AppError{
		Code:       "VALIDATION_ERROR",
		Message:    msg,
		HTTPStatus: http.StatusBadRequest,
		Details:    details,
	}
}

// RateLimited creates a 429 [AppError].
func RateLimited(retryAfterSeconds int) *AppError {
	return &AppError{
		Code:       "RATE_LIMITED",
		Message:    fmt.Sprintf("Too many requests. Try again in %ds.", retryAfterSeconds),
		HTTPStatus: http.StatusTooManyRequests,
	}
}

// # Ingestion Taxonomy

// InvalidCityName reports a city string rejected by the name validator.
//
// The message keeps the resolver wording so that upstream scraper owners can
// grep job records for it.
func InvalidCityName(name, country, reason string) *AppError {
	return &AppError{
		Code:       "INVALID_CITY_NAME",
		Message:    "Failed to find or create city: " + reason,
		Kind:       KindInvalidCityName,
		HTTPStatus: http.StatusUnprocessableEntity,
		Details: []FieldError{
			{Field: "city_name", Message: name},
			{Field: "country", Message: country},
		},
	}
}

// MissingField reports a required ingestion field that is absent.
func MissingField(field string) *AppError {
	return &AppError{
		Code:       "MISSING_REQUIRED_FIELD",
		Message:    field + " is required",
		Kind:       KindMissingRequiredField,
		HTTPStatus: http.StatusBadRequest,
		Details:    []FieldError{{Field: field, Message: "This field is required"}},
	}
}

// UnknownCountry reports a country string that matches no known name, code or alias.
// It belongs to the missing-field category: without a country nothing can be resolved.
func UnknownCountry(name string) *AppError {
	return &AppError{
		Code:       "UNKNOWN_COUNTRY",
		Message:    "Unknown country: " + name,
		Kind:       KindMissingRequiredField,
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    []FieldError{{Field: "country_name", Message: name}},
	}
}

// LockTimeout reports that a fingerprint lock could not be acquired in time.
func LockTimeout(key string, cause error) *AppError {
	return &AppError{
		Code:       "LOCK_TIMEOUT",
		Message:    "Timed out waiting for ingestion lock " + key,
		Kind:       KindLockTimeout,
		HTTPStatus: http.StatusServiceUnavailable,
		Cause:      cause,
	}
}

// ConstraintRace reports a uniqueness race that survived its single retry.
func ConstraintRace(resource string, cause error) *AppError {
	return &AppError{
		Code:       "PERSISTENCE_ERROR",
		Message:    "Concurrent write conflict on " + resource,
		Kind:       KindConstraintRace,
		HTTPStatus: http.StatusConflict,
		Cause:      cause,
	}
}

// # Server Errors (5xx)

// Internal creates a 500 [AppError] wrapping an unexpected server-side error.
// The cause is stored for logging but is never sent to the client.
func Internal(cause error) *AppError {
	return &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "An unexpected error occurred",
		Kind:       KindUnknown,
		HTTPStatus: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// # Helpers

// IsAppError reports whether err (or any error in its chain) is an [*AppError].
func IsAppError(err error) bool {
	var ae *AppError
	return errors.As(err, &ae)
}

// As extracts the [*AppError] from err's chain. It returns nil if not found.
func As(err error) *AppError {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae
	}
	return nil
}

// KindOf returns the taxonomy entry of err, or [KindUnknown] for foreign errors.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	if ae := As(err); ae != nil && ae.Kind != KindNone {
		return ae.Kind
	}
	return KindUnknown
}
