// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package settings is the runtime configuration store backed by system.setting.

Every key has exactly one value shape. Raw JSON is decoded and validated at
the store boundary, so callers only ever see typed values.

# Keys

  - blur_view_min_tier: {"min_tier": "<tier>"}. Minimum membership tier that
    may see blurred listing fields. Absent by default.
*/
package settings

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/taibuivan/propmap/internal/platform/sec"
)

// # Keys & Values

// Key names a setting row.
type Key string

const (
	KeyBlurViewMinTier Key = "blur_view_min_tier"
)

var (
	// ErrNotFound is returned when no row exists for a key.
	ErrNotFound = errors.New("settings: not found")

	// ErrUnknownKey is returned for keys outside the declared set.
	ErrUnknownKey = errors.New("settings: unknown key")
)

// Value is the typed payload of a setting.
type Value interface {
	Key() Key
	validate() error
}

// BlurViewMinTier is the value of [KeyBlurViewMinTier].
type BlurViewMinTier struct {
	MinTier sec.Tier `json:"min_tier"`
}

// Key implements [Value].
func (BlurViewMinTier) Key() Key { return KeyBlurViewMinTier }

func (value BlurViewMinTier) validate() error {
	if !value.MinTier.Assignable() {
		return fmt.Errorf("min_tier %q is not a membership tier", value.MinTier)
	}
	return nil
}

// registry lists the value shape of every declared key.
var registry = map[Key]func() Value{
	KeyBlurViewMinTier: func() Value { return &BlurViewMinTier{} },
}

// Keys returns every declared key.
func Keys() []Key {
	return []Key{KeyBlurViewMinTier}
}

// Decode parses raw into the shape registered for key and validates it.
// Unknown JSON fields are rejected.
func Decode(key Key, raw json.RawMessage) (Value, error) {
	factory, ok := registry[key]
	if !ok {
		return nil, ErrUnknownKey
	}

	target := factory()
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		return nil, fmt.Errorf("settings: decode %s: %w", key, err)
	}

	if err := target.validate(); err != nil {
		return nil, fmt.Errorf("settings: invalid %s: %w", key, err)
	}

	// Hand back values, not pointers into the registry factory.
	switch typed := target.(type) {
	case *BlurViewMinTier:
		return *typed, nil
	default:
		return target, nil
	}
}

// # Storage Record

// Setting is one stored row.
type Setting struct {
	Key         Key             `json:"key"`
	Value       json.RawMessage `json:"value"`
	Description string          `json:"description,omitempty"`
	UpdatedBy   string          `json:"updated_by,omitempty"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Store defines the persistence contract for settings.
type Store interface {
	/*
		Get returns the row for key.

		Returns:
		  - *Setting: Stored row
		  - error: ErrNotFound or connectivity errors
	*/
	Get(ctx context.Context, key Key) (*Setting, error)

	/*
		Put inserts or replaces the row for setting.Key.

		Returns:
		  - error: Persistence failures
	*/
	Put(ctx context.Context, setting *Setting) error

	// List returns every stored row ordered by key.
	List(ctx context.Context) ([]Setting, error)

	// Delete removes the row for key. Returns ErrNotFound if none existed.
	Delete(ctx context.Context, key Key) error
}
