// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package identity turns a session credential into an [access.Principal].

Two shapes are provided:

  - Resolver: stateless, one resolution per call. Used by HTTP middleware.
  - Session: an owned, long-lived session-state object that follows
    sign-in/sign-out/refresh notifications. Used by streaming endpoints.

Both are fail-closed: any failure leaves the viewer anonymous or
guest-equivalent, never more privileged.
*/
package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/taibuivan/propmap/internal/access"
	"github.com/taibuivan/propmap/internal/platform/sec"
)

// # Collaborator Contracts

var (
	// ErrNoSession is returned by a [SessionProvider] when no session is present.
	// It is an expected state, not a failure.
	ErrNoSession = errors.New("identity: no session")

	// ErrProfileNotFound is returned by a [ProfileStore] for an unknown id.
	ErrProfileNotFound = errors.New("identity: profile not found")
)

// EventType is the kind of session transition delivered by a provider.
type EventType string

const (
	EventSignedIn       EventType = "SIGNED_IN"
	EventSignedOut      EventType = "SIGNED_OUT"
	EventTokenRefreshed EventType = "TOKEN_REFRESHED"
)

// SessionInfo is the identity payload of an active session.
type SessionInfo struct {
	SubjectID string `json:"subject_id"`
	Email     string `json:"email"`
}

// Event is a single session transition. Session may be nil for sign-out.
type Event struct {
	Type    EventType    `json:"type"`
	Session *SessionInfo `json:"session,omitempty"`
}

// Unsubscribe detaches a provider subscription.
type Unsubscribe func()

// SessionProvider exposes the current session and its transitions.
type SessionProvider interface {
	// CurrentSession returns the active session or [ErrNoSession].
	CurrentSession(ctx context.Context) (*SessionInfo, error)

	// Subscribe registers onChange for future transitions.
	Subscribe(ctx context.Context, onChange func(Event)) (Unsubscribe, error)
}

// Profile holds the access-relevant fields of an account.
type Profile struct {
	Role           sec.UserRole
	Tier           sec.Tier
	ApprovalStatus sec.ApprovalStatus
	CanViewBlurred bool
	DisplayName    string
}

// ProfileStore loads profiles by subject id.
type ProfileStore interface {
	// ProfileByID returns the profile or [ErrProfileNotFound].
	ProfileByID(ctx context.Context, id string) (*Profile, error)
}

// # Errors

// ResolutionError reports a failure to resolve a session or its profile.
//
// The accompanying principal (if any) is always safe to use: it is either
// nil or carries identity fields only.
type ResolutionError struct {
	Stage string
	Cause error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("identity: %s: %v", e.Stage, e.Cause)
}

func (e *ResolutionError) Unwrap() error { return e.Cause }

// # Principal Assembly

// principalFor builds a principal from a session and an optional profile.
// A nil profile leaves every profile-derived field at its zero value.
func principalFor(session *SessionInfo, profile *Profile) *access.Principal {
	principal := &access.Principal{
		ID:    session.SubjectID,
		Email: session.Email,
	}

	if profile != nil {
		principal.Role = profile.Role
		principal.Tier = profile.Tier
		principal.ApprovalStatus = profile.ApprovalStatus
		principal.CanViewBlurred = profile.CanViewBlurred
		principal.DisplayName = profile.DisplayName
	}

	return principal
}

// loadPrincipal fetches the profile for session. On failure it returns an
// identity-only principal together with a *ResolutionError.
func loadPrincipal(ctx context.Context, profiles ProfileStore, session *SessionInfo) (*access.Principal, error) {
	profile, err := profiles.ProfileByID(ctx, session.SubjectID)
	if err != nil {
		return principalFor(session, nil), &ResolutionError{Stage: "load profile", Cause: err}
	}
	return principalFor(session, profile), nil
}
