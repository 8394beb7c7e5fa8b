// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package account manages account standing: signup review, membership tier,
role and the per-user blurred-field grant.

It also backs identity resolution: [PostgresProfileStore] is the profile
source every request is resolved against.

# Architecture

  - Entities: auth.User (owned by the auth package), Me (DTO).
  - Admin flows: approve, reject, access updates.
  - Live sessions are told about every access change so they re-resolve.
*/
package account

import (
	"context"

	"github.com/taibuivan/propmap/internal/access"
	"github.com/taibuivan/propmap/internal/platform/sec"
	"github.com/taibuivan/propmap/internal/users/auth"
	"github.com/taibuivan/propmap/pkg/pagination"
)

// # Views

// Me is the viewer's own access summary.
type Me struct {
	Anonymous bool                `json:"anonymous"`
	Principal *access.Principal   `json:"principal,omitempty"`
	Grants    []access.Capability `json:"grants"`

	// BlurredVisible is the outcome of the full visibility chain, not just
	// the stored per-user grant.
	BlurredVisible bool `json:"blurred_visible"`
}

// # Access Mutations

// AccessUpdate is a partial change to an account's standing.
// Nil fields are left unchanged.
type AccessUpdate struct {
	Role           *sec.UserRole
	Tier           *sec.Tier
	CanViewBlurred *bool
}

// IsEmpty reports whether the update changes nothing.
func (u AccessUpdate) IsEmpty() bool {
	return u.Role == nil && u.Tier == nil && u.CanViewBlurred == nil
}

// # Repository Contracts

// AccountRepository defines the persistence contract for account standing.
type AccountRepository interface {
	/*
		FindByID retrieves an account by its unique ID.

		Returns:
		  - *auth.User: Loaded account entity
		  - error: apperr.NotFound or storage failures
	*/
	FindByID(ctx context.Context, id string) (*auth.User, error)

	/*
		ListByStatus pages through accounts in the given review state,
		oldest first.

		Returns:
		  - []*auth.User: One page of accounts
		  - int: Total matching accounts
		  - error: Storage failures
	*/
	ListByStatus(ctx context.Context, status sec.ApprovalStatus, params pagination.Params) ([]*auth.User, int, error)

	/*
		SaveAccess persists role, tier, approval status and the blurred grant
		of user.

		Returns:
		  - error: apperr.NotFound if the account vanished, or storage failures
	*/
	SaveAccess(ctx context.Context, user *auth.User) error
}

// # Collaborators

// SessionControl is the slice of the auth service that account flows drive.
type SessionControl interface {
	// RevokeAllSessions signs the user out everywhere.
	RevokeAllSessions(ctx context.Context, userID string) error

	// AccessChanged tells live sessions to re-read the account.
	AccessChanged(ctx context.Context, userID, email string)
}

// BlurredVisibility evaluates the blurred-field chain for a viewer.
type BlurredVisibility interface {
	CanViewBlurred(ctx context.Context, p *access.Principal) bool
}

// # Field Identifiers

const (
	FieldStatus         = "status"
	FieldTier           = "tier"
	FieldRole           = "role"
	FieldCanViewBlurred = "can_view_blurred"
)

// Names of server-sent events on the access stream.
const (
	StreamEventAccess = "access"
)
