// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package api wires together the HTTP router, middleware chain, and all
domain handlers into a runnable [http.Server].

Architecture:

  - This package is the topmost Presentation layer boundary.
  - It is the composition root for the chi router.
  - Only this package and cmd/api construct net/http server primitives.
*/
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/taibuivan/propmap/internal/listing"
	"github.com/taibuivan/propmap/internal/platform/config"
	"github.com/taibuivan/propmap/internal/platform/constants"
	"github.com/taibuivan/propmap/internal/platform/middleware"
	"github.com/taibuivan/propmap/internal/settings"
	"github.com/taibuivan/propmap/internal/users/account"
	"github.com/taibuivan/propmap/internal/users/auth"
)

// # Server Definitions

// Server wraps the chi router and the [http.Server].
//
// It is constructed once in main.go with all dependencies injected.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	log        *slog.Logger
}

// # Handler Registry

// Handlers groups all domain-specific HTTP handler sets.
type Handlers struct {
	// Liveness is the /health handler. Always 200 while the process is up.
	Liveness http.HandlerFunc

	// Readiness is the /ready handler. 200 only when every dependency answers.
	Readiness http.HandlerFunc

	// Auth handles registration, login and refresh sessions.
	Auth *auth.Handler

	// Account serves the viewer summary, its live stream, and user review.
	Account *account.Handler

	// Settings manages administrator-tunable configuration.
	Settings *settings.Handler

	// Listing serves the property map, management and export.
	Listing *listing.Handler
}

// Identity groups what the authentication middleware needs to resolve a
// viewer from a bearer token.
type Identity struct {
	Sessions middleware.SessionSource
	Resolver middleware.PrincipalResolver
}

// # Server Initialization

// NewServer constructs the chi router with the full middleware chain and
// registers all route groups.
func NewServer(ctx context.Context, cfg *config.Config, log *slog.Logger, identity Identity, h Handlers) *Server {
	router := NewRouter(ctx, cfg, log, identity, h)

	return &Server{
		router: router,
		log:    log,
		httpServer: &http.Server{
			Addr:              ":" + cfg.ServerPort,
			Handler:           router,
			ReadTimeout:       constants.DefaultReadTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
		},
	}
}

/*
NewRouter builds the routing tree.

# Middleware Chain

Applied in order: request id, access log, panic recovery, CORS, per-IP rate
limit, then viewer resolution. Every route below sees the resolved
principal; gates are declared per route by the domain handlers.

The viewer endpoints are mounted outside the request timeout because
/me/stream holds its connection open.
*/
func NewRouter(ctx context.Context, cfg *config.Config, log *slog.Logger, identity Identity, h Handlers) *chi.Mux {
	r := chi.NewRouter()

	// # Middleware Chain
	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(log))
	r.Use(middleware.PanicRecovery(log))
	r.Use(middleware.CORS(cfg))
	r.Use(middleware.RateLimit(ctx))
	r.Use(middleware.Authenticate(identity.Sessions, identity.Resolver))
	r.Use(chimw.CleanPath)

	// # Infrastructure Endpoints
	// Unauthenticated health probes for container orchestration.
	r.Get("/health", h.Liveness)
	r.Get("/ready", h.Readiness)

	// # Application API
	r.Route("/api/v1", func(api chi.Router) {
		api.Group(func(timed chi.Router) {
			timed.Use(chimw.Timeout(constants.GlobalRequestTimeout))

			timed.Mount("/auth", h.Auth.Routes())
			timed.Mount("/properties", h.Listing.Routes())
			timed.Mount("/admin/users", h.Account.AdminRoutes())
			timed.Mount("/admin/settings", h.Settings.Routes())
		})

		api.Mount("/", h.Account.Routes())
	})

	return r
}

// # Server Lifecycle

// ListenAndServe starts the HTTP server.
//
// It blocks until the server is closed or an error occurs.
func (s *Server) ListenAndServe() error {
	s.log.Info("server starting", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}
