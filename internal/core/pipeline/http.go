// Copyright (c) 2026 Eventhub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package pipeline

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/eventhub/internal/platform/apperr"
	"github.com/taibuivan/eventhub/internal/platform/respond"
	"github.com/taibuivan/eventhub/internal/platform/validate"
	"github.com/taibuivan/eventhub/pkg/pagination"
)

// Handler exposes pipeline monitoring over HTTP.
type Handler struct {
	service *Service
}

// NewHandler constructs a new pipeline [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the pipeline router, mounted at /api/v1/pipeline.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Get("/health", handler.health)
	router.Get("/executions", handler.listExecutions)
	return router
}

/*
parseSince accepts an RFC 3339 instant or a lookback duration such as "6h".
*/
func parseSince(raw string, now time.Time) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	if instant, err := time.Parse(time.RFC3339, raw); err == nil {
		return instant, nil
	}
	if window, err := time.ParseDuration(raw); err == nil && window > 0 {
		return now.Add(-window), nil
	}
	return time.Time{}, apperr.ValidationError("Invalid since parameter",
		apperr.FieldError{Field: "since", Message: "Must be an RFC 3339 time or a positive duration"})
}

func categoryNames() []string {
	names := make([]string, len(Categories))
	for i, category := range Categories {
		names[i] = string(category)
	}
	return names
}

/*
GET /api/v1/pipeline/health.

Request:
  - since: RFC 3339 time or duration (optional, defaults to 24h)

Response:
  - 200: Health
  - 400: VALIDATION_ERROR: Malformed since
*/
func (handler *Handler) health(writer http.ResponseWriter, request *http.Request) {
	since, err := parseSince(request.URL.Query().Get("since"), time.Now())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	health, err := handler.service.Health(request.Context(), since)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, health)
}

/*
GET /api/v1/pipeline/executions.

Request:
  - state: State (optional)
  - category: Category (optional)
  - since: RFC 3339 time or duration (optional)
  - page, limit: int

Response:
  - 200: []Record: Paginated list
  - 400: VALIDATION_ERROR: Unknown state or category, malformed since
*/
func (handler *Handler) listExecutions(writer http.ResponseWriter, request *http.Request) {
	query := request.URL.Query()
	params := pagination.FromRequest(request)

	rawState := query.Get("state")
	state, known := ParseState(rawState)
	category := strings.ToLower(strings.TrimSpace(query.Get("category")))

	checks := (&validate.Validator{}).Custom("state", rawState != "" && !known, "Unknown job state")
	if category != "" {
		checks.OneOf("category", category, categoryNames()...)
	}
	if err := checks.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	filter := Filter{State: state, Category: Category(category)}

	since, err := parseSince(query.Get("since"), time.Now())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	filter.Since = since

	records, total, err := handler.service.ListExecutions(request.Context(), filter, params.Limit, params.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, records, pagination.NewMeta(params.Page, params.Limit, total))
}
