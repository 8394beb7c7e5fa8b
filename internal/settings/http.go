// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package settings

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/propmap/internal/access"
	"github.com/taibuivan/propmap/internal/platform/middleware"
	requestutil "github.com/taibuivan/propmap/internal/platform/request"
	"github.com/taibuivan/propmap/internal/platform/respond"
	"github.com/taibuivan/propmap/internal/platform/validate"
)

// Handler implements the administrative HTTP layer for settings.
type Handler struct {
	settingService *Service
}

// NewHandler constructs a new settings [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{settingService: service}
}

// Routes returns the admin settings router. Every route requires
// [access.ManageSettings].
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireCapability(access.ManageSettings))

	router.Get("/", handler.list)
	router.Put("/{key}", handler.put)
	router.Delete("/{key}", handler.reset)

	return router
}

/*
GET /api/v1/admin/settings.

Response:
  - 200: []Setting
  - 403: Missing manage_settings
*/
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	settings, err := handler.settingService.List(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, settings)
}

// putRequest is the body of a settings write.
type putRequest struct {
	Value       json.RawMessage `json:"value"`
	Description string          `json:"description"`
}

/*
PUT /api/v1/admin/settings/{key}.

Description: Validates and stores a setting value. The change is visible to
the next request; nothing is cached.

Request:
  - key: Setting key, e.g. blur_view_min_tier
  - body: {"value": {...}, "description": "..."}

Response:
  - 200: Setting: The stored row
  - 400: Invalid value shape
  - 404: Undeclared key
*/
func (handler *Handler) put(writer http.ResponseWriter, request *http.Request) {
	actorID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input putRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	v := &validate.Validator{}
	v.Custom(FieldValue, len(input.Value) == 0, "This field is required").
		MaxLen(FieldDescription, input.Description, 500)
	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	setting, err := handler.settingService.Put(request.Context(), PutInput{
		Key:         Key(requestutil.Param(request, FieldKey)),
		Value:       input.Value,
		Description: input.Description,
		ActorID:     actorID,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, setting)
}

/*
DELETE /api/v1/admin/settings/{key}.

Description: Removes a stored value; the key reverts to unset.

Response:
  - 204: No Content
  - 404: Undeclared or unset key
*/
func (handler *Handler) reset(writer http.ResponseWriter, request *http.Request) {
	actorID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.settingService.Reset(request.Context(), Key(requestutil.Param(request, FieldKey)), actorID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
