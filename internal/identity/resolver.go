// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/taibuivan/propmap/internal/access"
)

// # Stateless Resolver

// sharedFetchTimeout bounds a profile fetch that no longer follows any
// single caller's context.
const sharedFetchTimeout = 5 * time.Second

// Resolver performs one-shot resolutions. Concurrent resolutions for the
// same subject share a single profile fetch.
type Resolver struct {
	profiles ProfileStore
	inflight singleflight.Group
}

// NewResolver constructs a [Resolver] over the given profile store.
func NewResolver(profiles ProfileStore) *Resolver {
	return &Resolver{profiles: profiles}
}

type resolution struct {
	principal *access.Principal
	err       error
}

/*
Resolve maps the provider's current session to a principal.

Returns:
  - nil, nil when no session is present.
  - nil, *ResolutionError when the session could not be read.
  - identity-only principal, *ResolutionError when the profile could not be read.
  - full principal, nil otherwise.
*/
func (resolver *Resolver) Resolve(ctx context.Context, provider SessionProvider) (*access.Principal, error) {
	session, err := provider.CurrentSession(ctx)
	if err != nil {
		if errors.Is(err, ErrNoSession) {
			return nil, nil
		}
		return nil, &ResolutionError{Stage: "read session", Cause: err}
	}

	if session == nil || session.SubjectID == "" {
		return nil, nil
	}

	// The shared fetch outlives any single caller. A caller that gives up
	// stops waiting without failing the others.
	results := resolver.inflight.DoChan(session.SubjectID, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedFetchTimeout)
		defer cancel()

		principal, loadErr := loadPrincipal(fetchCtx, resolver.profiles, session)
		return resolution{principal: principal, err: loadErr}, nil
	})

	select {
	case <-ctx.Done():
		return principalFor(session, nil), &ResolutionError{Stage: "load profile", Cause: ctx.Err()}
	case outcome := <-results:
		result := outcome.Val.(resolution)

		// Each caller gets its own copy so that shared results are never aliased.
		principal := *result.principal
		principal.Email = session.Email

		return &principal, result.err
	}
}
