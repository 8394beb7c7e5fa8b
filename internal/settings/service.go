// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/taibuivan/propmap/internal/platform/apperr"
	"github.com/taibuivan/propmap/internal/platform/sec"
)

// # Service Layer

// Service reads and writes typed settings.
//
// Reads are never cached: every call reaches the store so that an
// administrator change is visible to the very next caller.
type Service struct {
	store  Store
	logger *slog.Logger
}

// NewService constructs a new settings [Service].
func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

/*
BlurViewMinTier reads the blurred-field threshold.

Description: Implements access.ThresholdReader. A missing row, or a stored
value that no longer validates, yields ok=false. Only store failures are
returned as errors.

Returns:
  - sec.Tier: Configured minimum tier
  - bool: Whether a usable value exists
  - error: Store connectivity failures
*/
func (service *Service) BlurViewMinTier(ctx context.Context) (sec.Tier, bool, error) {
	setting, err := service.store.Get(ctx, KeyBlurViewMinTier)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", false, nil
		}
		return "", false, err
	}

	value, err := Decode(KeyBlurViewMinTier, setting.Value)
	if err != nil {
		service.logger.WarnContext(ctx, "setting_value_invalid",
			slog.String("key", string(KeyBlurViewMinTier)),
			slog.Any("error", err),
		)
		return "", false, nil
	}

	return value.(BlurViewMinTier).MinTier, true, nil
}

// PutInput carries an administrative write.
type PutInput struct {
	Key         Key
	Value       json.RawMessage
	Description string
	ActorID     string
}

/*
Put validates and persists a setting.

Parameters:
  - ctx: context.Context
  - input: PutInput

Returns:
  - *Setting: The stored row
  - error: NotFound for undeclared keys, ValidationError for bad values
*/
func (service *Service) Put(ctx context.Context, input PutInput) (*Setting, error) {
	value, err := Decode(input.Key, input.Value)
	if err != nil {
		if errors.Is(err, ErrUnknownKey) {
			return nil, apperr.NotFound("Setting")
		}
		return nil, apperr.ValidationError("Invalid setting value", apperr.FieldError{
			Field:   FieldValue,
			Message: err.Error(),
		})
	}

	// Persist the canonical encoding, not whatever the client sent.
	canonical, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("settings_service_encode_failed: %w", err)
	}

	setting := &Setting{
		Key:         input.Key,
		Value:       canonical,
		Description: input.Description,
		UpdatedBy:   input.ActorID,
	}

	if err := service.store.Put(ctx, setting); err != nil {
		return nil, fmt.Errorf("settings_service_put_failed: %w", err)
	}

	service.logger.InfoContext(ctx, "setting_updated",
		slog.String("key", string(input.Key)),
		slog.String("actor_id", input.ActorID),
		slog.String("value", string(canonical)),
	)

	return setting, nil
}

// List returns every stored setting.
func (service *Service) List(ctx context.Context) ([]Setting, error) {
	settings, err := service.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("settings_service_list_failed: %w", err)
	}
	return settings, nil
}

/*
Reset removes a stored setting so the key reverts to its unset behavior.

Returns:
  - error: NotFound for undeclared or unset keys
*/
func (service *Service) Reset(ctx context.Context, key Key, actorID string) error {
	if _, ok := registry[key]; !ok {
		return apperr.NotFound("Setting")
	}

	if err := service.store.Delete(ctx, key); err != nil {
		if errors.Is(err, ErrNotFound) {
			return apperr.NotFound("Setting")
		}
		return fmt.Errorf("settings_service_reset_failed: %w", err)
	}

	service.logger.InfoContext(ctx, "setting_reset",
		slog.String("key", string(key)),
		slog.String("actor_id", actorID),
	)

	return nil
}

// # Field Identifiers

const (
	FieldKey         = "key"
	FieldValue       = "value"
	FieldDescription = "description"
)
