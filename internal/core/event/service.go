// Copyright (c) 2026 Eventhub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package event

import (
	"context"
	"log/slog"

	"github.com/taibuivan/eventhub/internal/core/geo"
	"github.com/taibuivan/eventhub/internal/platform/validate"
)

// # Service Layer

// Service implements read access to canonical events.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService constructs a new event [Service].
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

/*
GetEvent retrieves an event with its occurrences and source bindings.

Returns:
  - *Event: Hydrated entity
  - error: VALIDATION_ERROR for a malformed id, ErrNotFound if missing
*/
func (service *Service) GetEvent(ctx context.Context, id string) (*Event, error) {
	if err := (&validate.Validator{}).UUID("id", id).Err(); err != nil {
		return nil, err
	}

	event, err := service.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if event.Occurrences, err = service.repo.ListOccurrences(ctx, id); err != nil {
		return nil, err
	}
	if event.Sources, err = service.repo.ListSources(ctx, id); err != nil {
		return nil, err
	}

	return event, nil
}

// CountEventsByCity returns per-city event counts, optionally for one country.
func (service *Service) CountEventsByCity(ctx context.Context, countryCode string) ([]geo.CityStat, error) {
	return service.repo.CountByCity(ctx, countryCode)
}
