// Copyright (c) 2026 Eventhub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package event

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/taibuivan/eventhub/internal/platform/request"
	"github.com/taibuivan/eventhub/internal/platform/respond"
)

// Handler exposes canonical events over HTTP.
type Handler struct {
	service *Service
}

// NewHandler constructs a new event [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the event router, mounted at /api/v1/events.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Get("/{id}", handler.getEvent)
	return router
}

/*
GET /api/v1/events/{id}.

Description: Returns the canonical event with every merged occurrence and the
sources that reported it.

Response:
  - 200: Event
  - 400: VALIDATION_ERROR: Malformed id
  - 404: ErrNotFound
*/
func (handler *Handler) getEvent(writer http.ResponseWriter, request *http.Request) {
	event, err := handler.service.GetEvent(request.Context(), requestutil.Param(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, event)
}
