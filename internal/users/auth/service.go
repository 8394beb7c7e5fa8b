// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/taibuivan/propmap/internal/identity"
	"github.com/taibuivan/propmap/internal/platform/apperr"
	"github.com/taibuivan/propmap/internal/platform/sec"
	"github.com/taibuivan/propmap/pkg/uuid"
)

// # Contracts & Types

// TokenProvider defines the contract for generating access tokens.
type TokenProvider interface {
	// GenerateAccessToken creates a signed JWT carrying identity only.
	GenerateAccessToken(userID, email string, timeToLive time.Duration) (string, error)
}

// Service implements credential and session use cases.
type Service struct {
	userRepository    UserRepository
	sessionRepository SessionRepository
	tokenProvider     TokenProvider
	events            EventPublisher
	logger            *slog.Logger
}

// NewService constructs a new auth [Service] with necessary dependencies.
func NewService(
	userRepo UserRepository,
	sessionRepo SessionRepository,
	tokenProv TokenProvider,
	events EventPublisher,
	logger *slog.Logger,
) *Service {
	return &Service{
		userRepository:    userRepo,
		sessionRepository: sessionRepo,
		tokenProvider:     tokenProv,
		events:            events,
		logger:            logger,
	}
}

// # Registration Flow

// RegisterInput holds the data required to enroll a new account.
type RegisterInput struct {
	Email       string
	Password    string
	DisplayName string
	AccountType string
}

/*
Register validates, hashes, and persists a new account.

Description: Every account starts pending review. Members start on the bronze
tier; agents carry the agent role and no tier. Nothing is granted until an
administrator approves the account.

Returns:
  - *User: Created entity
  - error: Conflict (if the email exists) or storage errors
*/
func (service *Service) Register(ctx context.Context, input RegisterInput) (*User, error) {
	_, err := service.userRepository.FindByEmail(ctx, input.Email)
	if err == nil {
		return nil, apperr.Conflict("Email is already registered")
	}
	if !isNotFound(err) {
		return nil, fmt.Errorf("auth_service_register_lookup_failed: %w", err)
	}

	hashedPassword, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	user := &User{
		ID:             uuid.New(),
		Email:          input.Email,
		PasswordHash:   hashedPassword,
		DisplayName:    input.DisplayName,
		Role:           sec.RoleGuest,
		Tier:           sec.TierBronze,
		ApprovalStatus: sec.ApprovalPending,
	}
	if input.AccountType == AccountTypeAgent {
		user.Role = sec.RoleAgent
		user.Tier = sec.TierGuest
	}

	if err := service.userRepository.Create(ctx, user); err != nil {
		if apperr.IsAppError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("auth_service_register_failed: %w", err)
	}

	service.logger.InfoContext(ctx, "account_registered",
		slog.String("user_id", user.ID),
		slog.String("role", string(user.Role)),
	)

	return user, nil
}

// # Authentication Flow

// LoginInput defines credentials for an authentication attempt.
type LoginInput struct {
	Email     string
	Password  string
	UserAgent string
	IPAddress string
}

// LoginSession represents a successfully established user session.
type LoginSession struct {
	AccessToken           string
	RefreshToken          string
	RefreshTokenExpiresAt time.Time
	User                  *User
}

/*
Login validates credentials and issues tokens.

Description: Pending and rejected accounts may sign in; they resolve to a
guest-equivalent viewer until approved. SIGNED_IN is announced on success.

Returns:
  - *LoginSession: Transport-ready session identifiers
  - error: Unauthorized or internal failures
*/
func (service *Service) Login(ctx context.Context, input LoginInput) (*LoginSession, error) {
	user, err := service.userRepository.FindByEmail(ctx, input.Email)
	if err != nil {
		if isNotFound(err) {
			sec.SpendPasswordCheck(input.Password)
			return nil, apperr.Unauthorized("Invalid login credentials")
		}
		return nil, fmt.Errorf("auth_service_login_lookup_failed: %w", err)
	}

	if !sec.CheckPasswordHash(input.Password, user.PasswordHash) {
		return nil, apperr.Unauthorized("Invalid login credentials")
	}

	session, err := service.issue(ctx, user, input.UserAgent, input.IPAddress)
	if err != nil {
		return nil, err
	}

	service.announce(ctx, user, identity.EventSignedIn)
	return session, nil
}

/*
Logout permanently revokes the session behind refreshToken.

Description: Idempotent. SIGNED_OUT is announced only when a live session was
actually revoked.
*/
func (service *Service) Logout(ctx context.Context, refreshToken string) error {
	session, err := service.sessionRepository.FindByTokenHash(ctx, sec.HashToken(refreshToken))
	if err != nil {
		return nil
	}

	if err := service.sessionRepository.Revoke(ctx, session.ID); err != nil {
		return fmt.Errorf("auth_service_logout_failed: %w", err)
	}

	service.publish(ctx, session.UserID, identity.Event{Type: identity.EventSignedOut})
	return nil
}

// # Session Management

/*
RefreshSession rotates a refresh token.

Description: The old session is revoked before the new one is issued, so a
replayed token fails. TOKEN_REFRESHED is announced so live viewers re-read
the account.

Returns:
  - *LoginSession: New session credentials
  - error: Unauthorized or storage failures
*/
func (service *Service) RefreshSession(ctx context.Context, refreshToken, userAgent, ipAddress string) (*LoginSession, error) {
	session, err := service.sessionRepository.FindByTokenHash(ctx, sec.HashToken(refreshToken))
	if err != nil {
		return nil, apperr.Unauthorized("Invalid or expired refresh token")
	}

	if err := service.sessionRepository.Revoke(ctx, session.ID); err != nil {
		return nil, fmt.Errorf("auth_service_refresh_revoke_failed: %w", err)
	}

	user, err := service.userRepository.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, apperr.Unauthorized("User not found or suspended")
	}

	rotated, err := service.issue(ctx, user, userAgent, ipAddress)
	if err != nil {
		return nil, err
	}

	service.announce(ctx, user, identity.EventTokenRefreshed)
	return rotated, nil
}

/*
ChangePassword verifies the current password, stores the new one, and
revokes every other session of the user.
*/
func (service *Service) ChangePassword(ctx context.Context, userID, currentPassword, newPassword, currentRefreshToken string) error {
	user, err := service.userRepository.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	if !sec.CheckPasswordHash(currentPassword, user.PasswordHash) {
		return apperr.Unauthorized("Current password is incorrect")
	}

	hashedPassword, err := sec.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("auth_service_change_password_hash_failed: %w", err)
	}

	if err := service.userRepository.UpdatePassword(ctx, userID, hashedPassword); err != nil {
		return fmt.Errorf("auth_service_change_password_update_failed: %w", err)
	}

	session, err := service.sessionRepository.FindByTokenHash(ctx, sec.HashToken(currentRefreshToken))
	if err == nil {
		if err := service.sessionRepository.RevokeOthers(ctx, userID, session.ID); err != nil {
			service.logger.WarnContext(ctx, "revoke_other_sessions_failed",
				slog.String("user_id", userID),
				slog.Any("error", err),
			)
		}
	}

	return nil
}

// # Account Lifecycle Hooks

/*
RevokeAllSessions signs a user out everywhere.

Description: Used when an account is rejected. SIGNED_OUT is announced even
if no refresh session was live, so open streams drop to anonymous.
*/
func (service *Service) RevokeAllSessions(ctx context.Context, userID string) error {
	revoked, err := service.sessionRepository.RevokeAll(ctx, userID)
	if err != nil {
		return fmt.Errorf("auth_service_revoke_all_failed: %w", err)
	}

	service.logger.InfoContext(ctx, "sessions_revoked",
		slog.String("user_id", userID),
		slog.Int64("count", revoked),
	)

	service.publish(ctx, userID, identity.Event{Type: identity.EventSignedOut})
	return nil
}

// AccessChanged announces that the user's role, tier, approval or grant
// changed, so live viewers re-read the account.
func (service *Service) AccessChanged(ctx context.Context, userID, email string) {
	service.publish(ctx, userID, identity.Event{
		Type:    identity.EventTokenRefreshed,
		Session: &identity.SessionInfo{SubjectID: userID, Email: email},
	})
}

// PurgeExpiredSessions deletes refresh sessions past their expiry.
func (service *Service) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	deleted, err := service.sessionRepository.DeleteExpired(ctx)
	if err != nil {
		return 0, fmt.Errorf("auth_service_purge_sessions_failed: %w", err)
	}
	return deleted, nil
}

// # Helpers

// issue creates a signed access token and a persisted refresh session.
func (service *Service) issue(ctx context.Context, user *User, userAgent, ipAddress string) (*LoginSession, error) {
	accessToken, err := service.tokenProvider.GenerateAccessToken(user.ID, user.Email, AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("auth_service_token_generation_failed: %w", err)
	}

	refreshToken, err := sec.GenerateSecureToken(RefreshTokenLength)
	if err != nil {
		return nil, fmt.Errorf("auth_service_refresh_token_failed: %w", err)
	}

	expiresAt := time.Now().Add(RefreshTokenTTL)
	session := &Session{
		ID:        uuid.New(),
		UserID:    user.ID,
		TokenHash: sec.HashToken(refreshToken),
		UserAgent: userAgent,
		IPAddress: ipAddress,
		ExpiresAt: expiresAt,
	}

	if err := service.sessionRepository.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("auth_service_session_creation_failed: %w", err)
	}

	return &LoginSession{
		AccessToken:           accessToken,
		RefreshToken:          refreshToken,
		RefreshTokenExpiresAt: expiresAt,
		User:                  user,
	}, nil
}

func (service *Service) announce(ctx context.Context, user *User, eventType identity.EventType) {
	service.publish(ctx, user.ID, identity.Event{
		Type:    eventType,
		Session: &identity.SessionInfo{SubjectID: user.ID, Email: user.Email},
	})
}

// publish is best effort. Failures are logged and never fail the caller.
func (service *Service) publish(ctx context.Context, userID string, event identity.Event) {
	publishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := service.events.Publish(publishCtx, userID, event); err != nil {
		service.logger.WarnContext(ctx, "session_event_publish_failed",
			slog.String("user_id", userID),
			slog.String("type", string(event.Type)),
			slog.Any("error", err),
		)
	}
}

func isNotFound(err error) bool {
	var appError *apperr.AppError
	return errors.As(err, &appError) && appError.Code == "NOT_FOUND"
}
