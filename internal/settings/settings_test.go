// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package settings_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/propmap/internal/access"
	"github.com/taibuivan/propmap/internal/platform/apperr"
	"github.com/taibuivan/propmap/internal/platform/ctxutil"
	"github.com/taibuivan/propmap/internal/platform/sec"
	"github.com/taibuivan/propmap/internal/settings"
)

// # Fakes

type memoryStore struct {
	mu   sync.Mutex
	rows map[settings.Key]settings.Setting
	err  error
	gets int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{rows: make(map[settings.Key]settings.Setting)}
}

func (store *memoryStore) Get(_ context.Context, key settings.Key) (*settings.Setting, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	store.gets++
	if store.err != nil {
		return nil, store.err
	}
	row, ok := store.rows[key]
	if !ok {
		return nil, settings.ErrNotFound
	}
	return &row, nil
}

func (store *memoryStore) Put(_ context.Context, setting *settings.Setting) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	if store.err != nil {
		return store.err
	}
	store.rows[setting.Key] = *setting
	return nil
}

func (store *memoryStore) List(context.Context) ([]settings.Setting, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	result := make([]settings.Setting, 0, len(store.rows))
	for _, row := range store.rows {
		result = append(result, row)
	}
	return result, store.err
}

func (store *memoryStore) Delete(_ context.Context, key settings.Key) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	if _, ok := store.rows[key]; !ok {
		return settings.ErrNotFound
	}
	delete(store.rows, key)
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// # Decode

func TestDecode_BlurViewMinTier(t *testing.T) {
	value, err := settings.Decode(settings.KeyBlurViewMinTier, json.RawMessage(`{"min_tier":"gold"}`))
	require.NoError(t, err)
	assert.Equal(t, settings.BlurViewMinTier{MinTier: sec.TierGold}, value)
}

/*
TestDecode_Rejects covers every malformed shape.
*/
func TestDecode_Rejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"guest_is_not_assignable", `{"min_tier":"guest"}`},
		{"unknown_tier", `{"min_tier":"diamond"}`},
		{"missing_field", `{}`},
		{"unknown_field", `{"min_tier":"gold","extra":true}`},
		{"bare_string", `"gold"`},
		{"not_json", `gold`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := settings.Decode(settings.KeyBlurViewMinTier, json.RawMessage(tt.raw))
			assert.Error(t, err)
		})
	}
}

func TestDecode_UnknownKey(t *testing.T) {
	_, err := settings.Decode("maintenance_mode", json.RawMessage(`{}`))
	assert.ErrorIs(t, err, settings.ErrUnknownKey)
}

// # Service

func TestService_BlurViewMinTier(t *testing.T) {
	store := newMemoryStore()
	service := settings.NewService(store, quietLogger())
	ctx := context.Background()

	tier, ok, err := service.BlurViewMinTier(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, tier)

	store.rows[settings.KeyBlurViewMinTier] = settings.Setting{Key: settings.KeyBlurViewMinTier, Value: json.RawMessage(`{"min_tier":"silver"}`)}
	tier, ok, err = service.BlurViewMinTier(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, sec.TierSilver, tier)

	store.rows[settings.KeyBlurViewMinTier] = settings.Setting{Key: settings.KeyBlurViewMinTier, Value: json.RawMessage(`{"min_tier":"mythic"}`)}
	_, ok, err = service.BlurViewMinTier(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	store.err = errors.New("connection refused")
	_, _, err = service.BlurViewMinTier(ctx)
	assert.Error(t, err)
}

/*
TestService_ThresholdIsNeverCached verifies an administrator write is seen by
the very next visibility decision.
*/
func TestService_ThresholdIsNeverCached(t *testing.T) {
	store := newMemoryStore()
	service := settings.NewService(store, quietLogger())
	visibility := access.NewVisibility(service, quietLogger())
	ctx := context.Background()

	silver := &access.Principal{ID: "u-1", ApprovalStatus: sec.ApprovalApproved, Role: sec.RoleGuest, Tier: sec.TierSilver}
	assert.False(t, visibility.CanViewBlurred(ctx, silver))

	_, err := service.Put(ctx, settings.PutInput{Key: settings.KeyBlurViewMinTier, Value: json.RawMessage(`{"min_tier":"silver"}`)})
	require.NoError(t, err)
	assert.True(t, visibility.CanViewBlurred(ctx, silver))

	require.NoError(t, service.Reset(ctx, settings.KeyBlurViewMinTier, "admin-1"))
	assert.False(t, visibility.CanViewBlurred(ctx, silver))
}

func TestService_PutCanonicalizes(t *testing.T) {
	store := newMemoryStore()
	service := settings.NewService(store, quietLogger())

	setting, err := service.Put(context.Background(), settings.PutInput{
		Key:   settings.KeyBlurViewMinTier,
		Value: json.RawMessage(`{ "min_tier" : "gold" }`),
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"min_tier":"gold"}`, string(setting.Value))
	assert.Equal(t, `{"min_tier":"gold"}`, string(store.rows[settings.KeyBlurViewMinTier].Value))
}

func TestService_PutErrors(t *testing.T) {
	service := settings.NewService(newMemoryStore(), quietLogger())
	ctx := context.Background()

	_, err := service.Put(ctx, settings.PutInput{Key: "nope", Value: json.RawMessage(`{}`)})
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperr.As(err).Code)

	_, err = service.Put(ctx, settings.PutInput{Key: settings.KeyBlurViewMinTier, Value: json.RawMessage(`{"min_tier":"guest"}`)})
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)

	err = service.Reset(ctx, settings.KeyBlurViewMinTier, "admin-1")
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperr.As(err).Code)
}

// # HTTP

func serve(t *testing.T, handler http.Handler, principal *access.Principal, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	request := httptest.NewRequest(method, path, strings.NewReader(body))
	request = request.WithContext(ctxutil.WithPrincipal(request.Context(), principal))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	return recorder
}

func TestHandler_AdminOnly(t *testing.T) {
	handler := settings.NewHandler(settings.NewService(newMemoryStore(), quietLogger())).Routes()

	premium := &access.Principal{ID: "u-1", ApprovalStatus: sec.ApprovalApproved, Role: sec.RoleGuest, Tier: sec.TierPremium}
	agent := &access.Principal{ID: "u-2", ApprovalStatus: sec.ApprovalApproved, Role: sec.RoleAgent}

	assert.Equal(t, http.StatusUnauthorized, serve(t, handler, nil, http.MethodGet, "/", "").Code)
	assert.Equal(t, http.StatusForbidden, serve(t, handler, premium, http.MethodGet, "/", "").Code)
	assert.Equal(t, http.StatusForbidden, serve(t, handler, agent, http.MethodGet, "/", "").Code)
}

func TestHandler_PutAndList(t *testing.T) {
	store := newMemoryStore()
	handler := settings.NewHandler(settings.NewService(store, quietLogger())).Routes()
	admin := &access.Principal{ID: "0190a3c4-0000-7000-8000-000000000001", ApprovalStatus: sec.ApprovalApproved, Role: sec.RoleAdmin}

	recorder := serve(t, handler, admin, http.MethodPut, "/blur_view_min_tier", `{"value":{"min_tier":"gold"},"description":"Gold and above"}`)
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())
	assert.Equal(t, admin.ID, store.rows[settings.KeyBlurViewMinTier].UpdatedBy)

	recorder = serve(t, handler, admin, http.MethodPut, "/blur_view_min_tier", `{"value":{"min_tier":"bogus"}}`)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	recorder = serve(t, handler, admin, http.MethodPut, "/blur_view_min_tier", `{}`)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	recorder = serve(t, handler, admin, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"blur_view_min_tier"`)

	recorder = serve(t, handler, admin, http.MethodDelete, "/blur_view_min_tier", "")
	assert.Equal(t, http.StatusNoContent, recorder.Code)
}
