// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package listing

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/propmap/internal/access"
	"github.com/taibuivan/propmap/internal/platform/ctxutil"
	"github.com/taibuivan/propmap/internal/platform/middleware"
	requestutil "github.com/taibuivan/propmap/internal/platform/request"
	"github.com/taibuivan/propmap/internal/platform/respond"
	"github.com/taibuivan/propmap/internal/platform/validate"
	"github.com/taibuivan/propmap/pkg/pagination"
	"github.com/taibuivan/propmap/pkg/query"
)

// # Handler Implementation

// Handler implements the HTTP layer for listings.
type Handler struct {
	service *Service
}

// NewHandler constructs a new listing [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns a [chi.Router] configured with the listing endpoints.
//
// # Routing Strategy
//
//   - Discovery (Public): map queries and single listings, redacted per viewer.
//   - Export: EXPORT_DATA holders only.
//   - Management: CREATE_PROPERTY, EDIT_PROPERTY and DELETE_PROPERTY.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// ## Public Discovery Endpoints
	router.Get("/", handler.list)
	router.With(middleware.RequireCapability(access.ExportData)).Get("/export.csv", handler.export)
	router.Get("/{identifier}", handler.get)

	// ## Listing Management
	router.With(middleware.RequireCapability(access.CreateProperty)).Post("/", handler.create)
	router.With(middleware.RequireCapability(access.EditProperty)).Put("/{id}", handler.update)
	router.With(middleware.RequireCapability(access.DeleteProperty)).Delete("/{id}", handler.delete)

	return router
}

// # Request Payloads

type propertyRequest struct {
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Category      string   `json:"category"`
	Address       string   `json:"address"`
	Latitude      float64  `json:"latitude"`
	Longitude     float64  `json:"longitude"`
	Deposit       int64    `json:"deposit"`
	MonthlyRent   int64    `json:"monthly_rent"`
	AreaSqm       float64  `json:"area_sqm"`
	Floor         *int     `json:"floor"`
	Status        string   `json:"status"`
	KeyMoney      *int64   `json:"key_money"`
	ContactName   string   `json:"contact_name"`
	ContactPhone  string   `json:"contact_phone"`
	AvgRentPerSqm *float64 `json:"avg_rent_per_sqm"`
	FootTraffic   *int64   `json:"foot_traffic"`
	VacancyRate   *float64 `json:"vacancy_rate"`
}

func (input propertyRequest) toInput() Input {
	return Input{
		Title:         input.Title,
		Description:   input.Description,
		Category:      Category(input.Category),
		Address:       input.Address,
		Latitude:      input.Latitude,
		Longitude:     input.Longitude,
		Deposit:       input.Deposit,
		MonthlyRent:   input.MonthlyRent,
		AreaSqm:       input.AreaSqm,
		Floor:         input.Floor,
		Status:        Status(input.Status),
		KeyMoney:      input.KeyMoney,
		ContactName:   input.ContactName,
		ContactPhone:  input.ContactPhone,
		AvgRentPerSqm: input.AvgRentPerSqm,
		FootTraffic:   input.FootTraffic,
		VacancyRate:   input.VacancyRate,
	}
}

/*
parseQuery reads the map filter from the query string.

Request:
  - bbox: string "minLng,minLat,maxLng,maxLat"
  - category: []string (comma-separated)
  - agent: string (agent id)
  - page, limit: int
*/
func parseQuery(request *http.Request) (Query, error) {
	values := request.URL.Query()

	q := Query{
		AgentID: values.Get("agent"),
		Page:    pagination.FromRequest(request),
	}

	for _, category := range query.StringSlice(values.Get(FieldCategory)) {
		q.Categories = append(q.Categories, Category(category))
	}

	if raw := values.Get(FieldBoundingBox); raw != "" {
		corners, ok := query.FloatSlice(raw)
		if !ok || len(corners) != 4 {
			return Query{}, validate.RequiredError(FieldBoundingBox, "Must be minLng,minLat,maxLng,maxLat")
		}
		q.Bounds = &BoundingBox{
			MinLongitude: corners[0],
			MinLatitude:  corners[1],
			MaxLongitude: corners[2],
			MaxLatitude:  corners[3],
		}
	}

	return q, nil
}

// # Listing Endpoints

/*
GET /api/v1/properties.

Description: Listings inside the map viewport. Sensitive groups the viewer
may not see are omitted and named in "blurred".

Response:
  - 200: []View with pagination meta
  - 400: Malformed bbox or category
*/
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	q, err := parseQuery(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	views, meta, err := handler.service.List(request.Context(), requestutil.Principal(request), q)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, views, meta)
}

/*
GET /api/v1/properties/{identifier}.

Request:
  - identifier: UUID or slug

Response:
  - 200: View
  - 404: Unknown, deleted, or hidden from this viewer
*/
func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	view, err := handler.service.Get(request.Context(), requestutil.Principal(request), requestutil.Param(request, "identifier"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, view)
}

/*
GET /api/v1/properties/export.csv.

Description: Streams matching listings as CSV. Accepts the same filters as
the list endpoint; paging is ignored.

Response:
  - 200: text/csv
  - 401/403: Missing EXPORT_DATA
*/
func (handler *Handler) export(writer http.ResponseWriter, request *http.Request) {
	q, err := parseQuery(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	writer.Header().Set("Content-Type", "text/csv; charset=utf-8")
	writer.Header().Set("Content-Disposition", `attachment; filename="properties.csv"`)

	rows, err := handler.service.Export(request.Context(), requestutil.Principal(request), q, writer)
	if err != nil && rows == 0 {
		writer.Header().Del("Content-Disposition")
		respond.Error(writer, request, err)
		return
	}
	if err != nil {
		ctxutil.GetLogger(request.Context()).WarnContext(request.Context(), "export_aborted", "rows", rows, "error", err)
	}
}

/*
POST /api/v1/properties.

Response:
  - 201: View
  - 400: Validation failure
*/
func (handler *Handler) create(writer http.ResponseWriter, request *http.Request) {
	var input propertyRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	view, err := handler.service.Create(request.Context(), requestutil.Principal(request), input.toInput())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, view)
}

/*
PUT /api/v1/properties/{id}.

Response:
  - 200: View
  - 403: Another agent's listing
  - 404: Unknown listing
*/
func (handler *Handler) update(writer http.ResponseWriter, request *http.Request) {
	var input propertyRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	view, err := handler.service.Update(request.Context(), requestutil.Principal(request), requestutil.Param(request, "id"), input.toInput())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, view)
}

/*
DELETE /api/v1/properties/{id}.

Response:
  - 204: No Content
  - 404: Unknown listing
*/
func (handler *Handler) delete(writer http.ResponseWriter, request *http.Request) {
	if err := handler.service.Delete(request.Context(), requestutil.Principal(request), requestutil.Param(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
