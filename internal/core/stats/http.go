// Copyright (c) 2026 Eventhub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package stats

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/taibuivan/eventhub/internal/platform/request"
	"github.com/taibuivan/eventhub/internal/platform/respond"
)

// Handler exposes statistics over HTTP.
type Handler struct {
	service *Service
}

// NewHandler constructs a new stats [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the stats router, mounted at /api/v1/stats.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Get("/cities", handler.cityStats)
	return router
}

/*
GET /api/v1/stats/cities.

Request:
  - country: string (ISO alpha-2, optional)
  - threshold_km: float (optional)

Response:
  - 200: []geo.ClusterStat
  - 400: VALIDATION_ERROR
*/
func (handler *Handler) cityStats(writer http.ResponseWriter, request *http.Request) {
	threshold, err := requestutil.QueryFloat(request, "threshold_km", 0)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	clusters, err := handler.service.ClusteredCityStats(request.Context(), request.URL.Query().Get("country"), threshold)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, clusters)
}
