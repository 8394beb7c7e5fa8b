// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package access

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/taibuivan/propmap/internal/platform/sec"
)

// trustedTier and above always see blurred fields, whatever the threshold.
const trustedTier = sec.TierPlatinum

// ThresholdReader yields the administrator-configured minimum tier for
// blurred fields.
//
// ok=false means no usable setting exists (absent row, missing or unknown
// min_tier). err is reserved for failures to reach the store.
type ThresholdReader interface {
	BlurViewMinTier(ctx context.Context) (tier sec.Tier, ok bool, err error)
}

// ConfigurationReadError wraps a failed threshold read. It is logged and
// never returned to callers of [Visibility.CanViewBlurred].
type ConfigurationReadError struct {
	Cause error
}

func (e *ConfigurationReadError) Error() string {
	return fmt.Sprintf("access: read visibility threshold: %v", e.Cause)
}

func (e *ConfigurationReadError) Unwrap() error { return e.Cause }

// # Visibility Override

// Visibility decides access to blurred listing fields.
type Visibility struct {
	thresholds ThresholdReader
	logger     *slog.Logger
}

// NewVisibility constructs a [Visibility] over the given threshold source.
func NewVisibility(thresholds ThresholdReader, logger *slog.Logger) *Visibility {
	return &Visibility{thresholds: thresholds, logger: logger}
}

/*
CanViewBlurred reports whether p may see fields redacted by default.

Description: A short-circuit chain. The threshold is read on every call that
reaches step 4 so that an administrator change applies to the very next
check.

 1. Admin or agent.
 2. Explicit per-user grant.
 3. Platinum or above.
 4. Tier at or above the configured min_tier. Absent or invalid -> false.

A read failure is logged and yields false.
*/
func (visibility *Visibility) CanViewBlurred(ctx context.Context, p *Principal) bool {
	who := p.effective()

	if who.role == sec.RoleAdmin || who.role == sec.RoleAgent {
		return true
	}

	if who.canViewBlurred {
		return true
	}

	if who.tier.AtLeast(trustedTier) {
		return true
	}

	minTier, ok, err := visibility.thresholds.BlurViewMinTier(ctx)
	if err != nil {
		readErr := &ConfigurationReadError{Cause: err}
		visibility.logger.WarnContext(ctx, "visibility_threshold_read_failed",
			slog.String("user_id", p.UserID()),
			slog.Any("error", readErr),
		)
		return false
	}

	if !ok {
		return false
	}

	return who.tier.AtLeast(minTier)
}
