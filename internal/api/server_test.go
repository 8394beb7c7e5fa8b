// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/propmap/internal/access"
	"github.com/taibuivan/propmap/internal/identity"
	"github.com/taibuivan/propmap/internal/listing"
	"github.com/taibuivan/propmap/internal/platform/config"
	"github.com/taibuivan/propmap/internal/platform/sec"
	"github.com/taibuivan/propmap/internal/settings"
	"github.com/taibuivan/propmap/internal/users/account"
	"github.com/taibuivan/propmap/internal/users/auth"
)

// # Fakes

type noThreshold struct{}

func (noThreshold) BlurViewMinTier(context.Context) (sec.Tier, bool, error) {
	return "", false, nil
}

type nobodySessions struct{}

func (nobodySessions) ForToken(string) identity.SessionProvider { return nil }

// tokenResolver maps the literal bearer "admin" to an administrator.
type tokenResolver struct{}

func (tokenResolver) Resolve(_ context.Context, provider identity.SessionProvider) (*access.Principal, error) {
	return &access.Principal{ID: "admin-1", Role: sec.RoleAdmin, ApprovalStatus: sec.ApprovalApproved}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	log := discardLogger()
	visibility := access.NewVisibility(noThreshold{}, log)
	liveness, readiness := NewHealthHandlers(HealthDependencies{}, log)

	handlers := Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Auth:      auth.NewHandler(nil, false),
		Account:   account.NewHandler(account.NewService(nil, visibility, nil, log), nobodySessions{}, nil),
		Settings:  settings.NewHandler(nil),
		Listing:   listing.NewHandler(listing.NewService(nil, visibility, log)),
	}

	cfg := &config.Config{ServerPort: "0", Environment: "development"}
	return NewRouter(ctx, cfg, log, Identity{Sessions: nobodySessions{}, Resolver: tokenResolver{}}, handlers)
}

func get(router http.Handler, path, bearer string) *httptest.ResponseRecorder {
	request := httptest.NewRequest(http.MethodGet, path, nil)
	if bearer != "" {
		request.Header.Set("Authorization", "Bearer "+bearer)
	}
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	return recorder
}

// # Routing

func TestRouter_Mounts(t *testing.T) {
	router := newTestRouter(t)

	recorder := get(router, "/health", "")
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.NotEmpty(t, recorder.Header().Get("X-Request-ID"))

	recorder = get(router, "/api/v1/me", "")
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"anonymous":true`)

	recorder = get(router, "/api/v1/me", "admin")
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"MANAGE_SETTINGS"`)
}

func TestRouter_GatesBeforeHandlers(t *testing.T) {
	router := newTestRouter(t)

	for _, path := range []string{
		"/api/v1/admin/settings",
		"/api/v1/admin/users",
		"/api/v1/properties/export.csv",
		"/api/v1/me/stream",
	} {
		recorder := get(router, path, "")
		assert.Equal(t, http.StatusUnauthorized, recorder.Code, path)
	}

	recorder := get(router, "/api/v1/admin/users?status=unknown", "admin")
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

// # Health

func TestReadiness(t *testing.T) {
	log := discardLogger()

	_, ready := NewHealthHandlers(HealthDependencies{
		CheckDatabase: func(context.Context) error { return nil },
		CheckCache:    func(context.Context) error { return nil },
	}, log)

	recorder := httptest.NewRecorder()
	ready(recorder, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"ready"`)

	_, degraded := NewHealthHandlers(HealthDependencies{
		CheckDatabase: func(context.Context) error { return nil },
		CheckCache:    func(context.Context) error { return errors.New("connection refused") },
	}, log)

	recorder = httptest.NewRecorder()
	degraded(recorder, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"SERVICE_UNAVAILABLE"`)
	assert.Contains(t, recorder.Body.String(), `"field":"redis"`)
	assert.Contains(t, recorder.Body.String(), "connection refused")
	assert.NotContains(t, recorder.Body.String(), `"field":"postgres"`)
}
