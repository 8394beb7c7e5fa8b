// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"

	"github.com/taibuivan/propmap/internal/identity"
)

// # User Data Access

// UserRepository defines the credential-side data access for accounts.
type UserRepository interface {

	/*
		FindByID returns the account with the given ID.

		Returns:
		  - *User: Hydrated entity
		  - error: apperr.NotFound or database failures
	*/
	FindByID(ctx context.Context, id string) (*User, error)

	/*
		FindByEmail returns the account with the given email (case-insensitive).

		Returns:
		  - *User: Hydrated entity
		  - error: apperr.NotFound or database failures
	*/
	FindByEmail(ctx context.Context, email string) (*User, error)

	/*
		Create persists a brand-new account.

		Returns:
		  - error: apperr.Conflict on duplicate email, or persistence failures
	*/
	Create(ctx context.Context, user *User) error

	// UpdatePassword replaces only the password hash.
	UpdatePassword(ctx context.Context, userID, newHash string) error
}

// # Session Data Access

// SessionRepository defines the data access contract for refresh-token sessions.
type SessionRepository interface {

	// Create persists a new session for an authenticated login.
	Create(ctx context.Context, session *Session) error

	/*
		FindByTokenHash returns the active session matching the given token hash.

		Returns:
		  - *Session: Hydrated entity
		  - error: apperr.NotFound when absent, revoked or expired
	*/
	FindByTokenHash(ctx context.Context, tokenHash string) (*Session, error)

	// Revoke marks a specific session as permanently invalidated.
	Revoke(ctx context.Context, sessionID string) error

	/*
		RevokeAll revokes every active session belonging to userID.

		Returns:
		  - int64: Number of sessions revoked
		  - error: Persistence failures
	*/
	RevokeAll(ctx context.Context, userID string) (int64, error)

	// RevokeOthers revokes all sessions of userID except currentSessionID.
	RevokeOthers(ctx context.Context, userID, currentSessionID string) error

	// DeleteExpired physically removes sessions past their expiry.
	DeleteExpired(ctx context.Context) (int64, error)
}

// # Session Events

// EventPublisher fans out session transitions for a single user.
type EventPublisher interface {
	Publish(ctx context.Context, userID string, event identity.Event) error
}

// EventSubscriber delivers a single user's session transitions.
type EventSubscriber interface {
	Subscribe(ctx context.Context, userID string, onChange func(identity.Event)) (identity.Unsubscribe, error)
}
