// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/propmap/internal/access"
	"github.com/taibuivan/propmap/internal/identity"
	"github.com/taibuivan/propmap/internal/platform/apperr"
	"github.com/taibuivan/propmap/internal/platform/constants"
	"github.com/taibuivan/propmap/internal/platform/ctxutil"
	"github.com/taibuivan/propmap/internal/platform/middleware"
	requestutil "github.com/taibuivan/propmap/internal/platform/request"
	"github.com/taibuivan/propmap/internal/platform/respond"
	"github.com/taibuivan/propmap/internal/platform/sec"
	"github.com/taibuivan/propmap/internal/platform/validate"
	"github.com/taibuivan/propmap/pkg/pagination"
)

// streamBuffer bounds pending stream updates per connection.
const streamBuffer = 8

// Handler implements the HTTP layer for account standing.
type Handler struct {
	accountService *Service
	sessions       middleware.SessionSource
	profiles       identity.ProfileStore
	heartbeat      time.Duration
}

// NewHandler constructs a new account [Handler].
func NewHandler(service *Service, sessions middleware.SessionSource, profiles identity.ProfileStore) *Handler {
	return &Handler{
		accountService: service,
		sessions:       sessions,
		profiles:       profiles,
		heartbeat:      constants.StreamHeartbeatInterval,
	}
}

// Routes returns the viewer-facing endpoints.
//
// # Endpoints
//   - GET /me        : Access summary, anonymous included.
//   - GET /me/stream : Server-sent access updates. Requires a bearer token.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/me", handler.getMe)
	router.Get("/me/stream", handler.streamMe)

	return router
}

// AdminRoutes returns the review and administration endpoints.
func (handler *Handler) AdminRoutes() chi.Router {
	router := chi.NewRouter()

	router.With(middleware.RequireCapability(access.ManageUsers)).Get("/", handler.listUsers)
	router.With(middleware.RequireCapability(access.ApproveUsers)).Post("/{id}/approve", handler.approve)
	router.With(middleware.RequireCapability(access.ApproveUsers)).Post("/{id}/reject", handler.reject)
	router.With(middleware.RequireCapability(access.ManageUsers)).Patch("/{id}", handler.updateAccess)

	return router
}

// # Viewer Endpoints

/*
GET /api/v1/me.

Description: Returns the resolved viewer, every capability it holds, and
whether blurred listing fields are visible to it.

Response:
  - 200: Me
*/
func (handler *Handler) getMe(writer http.ResponseWriter, request *http.Request) {
	principal := requestutil.Principal(request)
	respond.OK(writer, handler.accountService.Me(request.Context(), principal))
}

/*
GET /api/v1/me/stream.

Description: Opens a Server-Sent Events stream. The first 'access' event
carries the current summary; another follows every sign-in, refresh,
sign-out or administrator change for the account. Comment heartbeats keep
intermediaries from closing an idle connection.

Response:
  - 200: text/event-stream
  - 401: No bearer token
*/
func (handler *Handler) streamMe(writer http.ResponseWriter, request *http.Request) {
	token := ctxutil.GetBearer(request.Context())
	if token == "" {
		respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
		return
	}

	ctx, cancel := context.WithCancel(request.Context())
	logger := ctxutil.GetLogger(ctx)

	session := identity.NewSession(handler.sessions.ForToken(token), handler.profiles, logger)
	defer session.Close()

	updates := make(chan *access.Principal, streamBuffer)
	subscription := session.Subscribe(func(principal *access.Principal) {
		select {
		case updates <- principal:
		case <-ctx.Done():
		}
	})
	defer subscription.Unsubscribe()

	// Runs first: releases a listener blocked on a full buffer before Close
	// waits for the session writer.
	defer cancel()

	if err := session.Init(ctx); err != nil {
		logger.WarnContext(ctx, "access_stream_not_reactive", slog.Any("error", err))
	}

	principal, _ := session.Resolve(ctx)
	if ctx.Err() != nil {
		return
	}

	controller := http.NewResponseController(writer)
	_ = controller.SetWriteDeadline(time.Time{})

	header := writer.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")
	writer.WriteHeader(http.StatusOK)

	if err := handler.sendAccess(ctx, writer, controller, principal); err != nil {
		return
	}

	ticker := time.NewTicker(handler.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case next := <-updates:
			if err := handler.sendAccess(ctx, writer, controller, next); err != nil {
				return
			}

		case <-ticker.C:
			if _, err := fmt.Fprint(writer, ": ping\n\n"); err != nil {
				return
			}
			if err := controller.Flush(); err != nil {
				return
			}
		}
	}
}

func (handler *Handler) sendAccess(ctx context.Context, writer http.ResponseWriter, controller *http.ResponseController, principal *access.Principal) error {
	payload, err := json.Marshal(handler.accountService.Me(ctx, principal))
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(writer, "event: %s\ndata: %s\n\n", StreamEventAccess, payload); err != nil {
		return err
	}

	return controller.Flush()
}

// # Admin Endpoints

type approveRequest struct {
	Tier string `json:"tier"`
}

type accessRequest struct {
	Role           *string `json:"role"`
	Tier           *string `json:"tier"`
	CanViewBlurred *bool   `json:"can_view_blurred"`
}

/*
GET /api/v1/admin/users?status=pending.

Response:
  - 200: []User with pagination meta
  - 400: Unknown status
*/
func (handler *Handler) listUsers(writer http.ResponseWriter, request *http.Request) {
	status := request.URL.Query().Get(FieldStatus)
	if status == "" {
		status = string(sec.ApprovalPending)
	}

	users, meta, err := handler.accountService.ListByStatus(request.Context(), sec.ApprovalStatus(status), pagination.FromRequest(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, users, meta)
}

/*
POST /api/v1/admin/users/{id}/approve.

Request:
  - Body (optional): {"tier": "silver"}

Response:
  - 200: Approved account
  - 404: Unknown account
*/
func (handler *Handler) approve(writer http.ResponseWriter, request *http.Request) {
	id, ok := pathID(writer, request)
	if !ok {
		return
	}

	var input approveRequest
	if request.ContentLength != 0 {
		if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
			respond.Error(writer, request, err)
			return
		}
	}

	actor := requestutil.Principal(request)
	user, err := handler.accountService.Approve(request.Context(), actor.UserID(), id, sec.Tier(input.Tier))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

/*
POST /api/v1/admin/users/{id}/reject.

Response:
  - 200: Rejected account
  - 403: Self-rejection
  - 404: Unknown account
*/
func (handler *Handler) reject(writer http.ResponseWriter, request *http.Request) {
	id, ok := pathID(writer, request)
	if !ok {
		return
	}

	actor := requestutil.Principal(request)
	user, err := handler.accountService.Reject(request.Context(), actor.UserID(), id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

/*
PATCH /api/v1/admin/users/{id}.

Request:
  - Body: accessRequest (every field optional)

Response:
  - 200: Updated account
  - 400: Invalid role or tier
*/
func (handler *Handler) updateAccess(writer http.ResponseWriter, request *http.Request) {
	id, ok := pathID(writer, request)
	if !ok {
		return
	}

	var input accessRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	update := AccessUpdate{CanViewBlurred: input.CanViewBlurred}
	if input.Role != nil {
		role := sec.UserRole(*input.Role)
		update.Role = &role
	}
	if input.Tier != nil {
		tier := sec.Tier(*input.Tier)
		update.Tier = &tier
	}

	actor := requestutil.Principal(request)
	user, err := handler.accountService.UpdateAccess(request.Context(), actor.UserID(), id, update)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

// pathID validates the {id} URL parameter and answers 400 when malformed.
func pathID(writer http.ResponseWriter, request *http.Request) (string, bool) {
	id := requestutil.Param(request, "id")

	validator := &validate.Validator{}
	if err := validator.UUID("id", id).Err(); err != nil {
		respond.Error(writer, request, err)
		return "", false
	}

	return id, true
}
