// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/taibuivan/propmap/internal/access"
	"github.com/taibuivan/propmap/internal/identity"
	"github.com/taibuivan/propmap/internal/platform/apperr"
	"github.com/taibuivan/propmap/internal/platform/constants"
	"github.com/taibuivan/propmap/internal/platform/ctxutil"
	"github.com/taibuivan/propmap/internal/platform/respond"
)

// SessionSource turns a bearer token into a session provider.
//
// Defined here so the middleware does not depend on the auth service
// implementation and can be driven by fakes in tests.
type SessionSource interface {
	ForToken(token string) identity.SessionProvider
}

// PrincipalResolver maps a session provider to the current viewer.
type PrincipalResolver interface {
	Resolve(ctx context.Context, provider identity.SessionProvider) (*access.Principal, error)
}

/*
Authenticate resolves the viewer for every request.

Flow:
 1. No 'Authorization: Bearer <token>' header: the request proceeds anonymous.
 2. Otherwise the token is handed to [SessionSource] and the resulting
    provider to [PrincipalResolver].
 3. The principal (possibly nil) is injected into the request context.

An unreadable, expired or forged token never fails the request; it resolves
to no session and the viewer is anonymous. A profile lookup failure leaves an
identity-only principal, which every gate treats as guest.
*/
func Authenticate(sessions SessionSource, resolver PrincipalResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			ctx := request.Context()

			token, ok := bearerToken(request.Header.Get(constants.HeaderAuthorization))
			if !ok {
				next.ServeHTTP(writer, request)
				return
			}

			principal, err := resolver.Resolve(ctx, sessions.ForToken(token))
			if err != nil {
				attrs := []any{slog.Any("error", err)}

				var resolutionErr *identity.ResolutionError
				if errors.As(err, &resolutionErr) {
					attrs = append(attrs, slog.String("stage", resolutionErr.Stage))
				}
				ctxutil.GetLogger(ctx).WarnContext(ctx, "principal_resolution_failed", attrs...)
			}

			recordPrincipal(ctx, principal)
			ctx = ctxutil.WithBearer(ctx, token)
			ctx = ctxutil.WithPrincipal(ctx, principal)

			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// RequireAuth blocks anonymous requests.
//
// Must be registered in the router AFTER [Authenticate].
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if ctxutil.GetPrincipal(request.Context()).IsAnonymous() {
			respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
			return
		}
		next.ServeHTTP(writer, request)
	})
}

// RequireApproved blocks anonymous requests and accounts that are not approved.
func RequireApproved(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		principal := ctxutil.GetPrincipal(request.Context())

		switch {
		case principal.IsAnonymous():
			respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
		case !principal.IsApproved():
			respond.Error(writer, request, apperr.ApprovalPending())
		default:
			next.ServeHTTP(writer, request)
		}
	})
}

/*
RequireCapability blocks requests whose viewer lacks capability.

The decision is [access.Can]; the rejection is shaped for the client:

  - 401 for anonymous viewers
  - 403 APPROVAL_PENDING for signed-in accounts that are not approved
  - 403 CAPABILITY_DENIED otherwise
*/
func RequireCapability(capability access.Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			principal := ctxutil.GetPrincipal(request.Context())

			if access.Can(principal, capability) {
				next.ServeHTTP(writer, request)
				return
			}

			switch {
			case principal.IsAnonymous():
				respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
			case !principal.IsApproved():
				respond.Error(writer, request, apperr.ApprovalPending())
			default:
				respond.Error(writer, request, apperr.CapabilityDenied(string(capability)))
			}
		})
	}
}

// bearerToken extracts the token from an Authorization header value.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)
	return token, token != ""
}
