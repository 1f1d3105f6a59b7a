// Copyright (c) 2026 Eventhub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package location

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/taibuivan/eventhub/internal/platform/request"
	"github.com/taibuivan/eventhub/internal/platform/respond"
	"github.com/taibuivan/eventhub/pkg/pagination"
)

// # Handler Implementation

// Handler implements the operator HTTP surface for cities and countries.
type Handler struct {
	service *Service
}

// NewHandler constructs a new location [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the city router, mounted at /api/v1/cities.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", handler.listCities)
	router.Get("/{identifier}", handler.getCity)

	router.Route("/{identifier}", func(subRouter chi.Router) {
		subRouter.Patch("/name", handler.renameCity)
		subRouter.Patch("/slug", handler.updateSlug)
		subRouter.Post("/alternate-names", handler.addAlternateName)
		subRouter.Delete("/alternate-names/{name}", handler.removeAlternateName)
	})

	return router
}

// CountryRoutes returns the country router, mounted at /api/v1/countries.
func (handler *Handler) CountryRoutes() chi.Router {
	router := chi.NewRouter()
	router.Get("/", handler.listCountries)
	router.Delete("/{code}/cache", handler.invalidateCountry)
	return router
}

// # Request Bodies

type nameRequest struct {
	Name string `json:"name" validate:"required,max=120"`
}

type slugRequest struct {
	Slug string `json:"slug" validate:"required,max=160"`
}

// # City Endpoints

/*
GET /api/v1/cities.

Request:
  - country: string (ISO alpha-2, optional)
  - limit: int
  - page: int

Response:
  - 200: []City: Paginated list
  - 404: ErrNotFound: Unknown country code
*/
func (handler *Handler) listCities(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)
	country := strings.ToUpper(request.URL.Query().Get("country"))

	cities, total, err := handler.service.ListCities(request.Context(), country, params.Limit, params.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, cities, pagination.NewMeta(params.Page, params.Limit, total))
}

/*
GET /api/v1/cities/{identifier}.

Request:
  - identifier: string (UUID or Slug)

Response:
  - 200: City
  - 404: ErrNotFound
*/
func (handler *Handler) getCity(writer http.ResponseWriter, request *http.Request) {
	city, err := handler.service.GetCity(request.Context(), requestutil.Param(request, "identifier"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, city)
}

/*
PATCH /api/v1/cities/{identifier}/name.

Description: Renames a city. The previous name is kept as an alternate so that
scrapers still using it resolve to the same row.

Response:
  - 200: City
  - 422: INVALID_CITY_NAME: The new name looks like a postcode or address
*/
func (handler *Handler) renameCity(writer http.ResponseWriter, request *http.Request) {
	var input nameRequest
	if err := requestutil.DecodeAndValidate(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	city, err := handler.service.RenameCity(request.Context(), requestutil.Param(request, "identifier"), input.Name)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, city)
}

/*
PATCH /api/v1/cities/{identifier}/slug.

Response:
  - 200: City
  - 400: VALIDATION_ERROR: Malformed slug
  - 409: CONFLICT: Slug already used by another city
*/
func (handler *Handler) updateSlug(writer http.ResponseWriter, request *http.Request) {
	var input slugRequest
	if err := requestutil.DecodeAndValidate(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	city, err := handler.service.UpdateCitySlug(request.Context(), requestutil.Param(request, "identifier"), input.Slug)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, city)
}

// POST /api/v1/cities/{identifier}/alternate-names.
func (handler *Handler) addAlternateName(writer http.ResponseWriter, request *http.Request) {
	var input nameRequest
	if err := requestutil.DecodeAndValidate(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	city, err := handler.service.AddAlternateName(request.Context(), requestutil.Param(request, "identifier"), input.Name)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, city)
}

// DELETE /api/v1/cities/{identifier}/alternate-names/{name}.
func (handler *Handler) removeAlternateName(writer http.ResponseWriter, request *http.Request) {
	city, err := handler.service.RemoveAlternateName(request.Context(),
		requestutil.Param(request, "identifier"),
		requestutil.Param(request, "name"),
	)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, city)
}

// # Country Endpoints

// GET /api/v1/countries.
func (handler *Handler) listCountries(writer http.ResponseWriter, request *http.Request) {
	countries, err := handler.service.ListCountries(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, countries)
}

/*
DELETE /api/v1/countries/{code}/cache.

Description: Drops a country from every cache tier. Used after an operator
fixes a country row by hand.
*/
func (handler *Handler) invalidateCountry(writer http.ResponseWriter, request *http.Request) {
	handler.service.InvalidateCountry(request.Context(), strings.ToUpper(requestutil.Param(request, "code")))
	respond.NoContent(writer)
}
