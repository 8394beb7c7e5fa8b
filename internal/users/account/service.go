// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/taibuivan/propmap/internal/access"
	"github.com/taibuivan/propmap/internal/platform/apperr"
	"github.com/taibuivan/propmap/internal/platform/sec"
	"github.com/taibuivan/propmap/internal/platform/validate"
	"github.com/taibuivan/propmap/internal/users/auth"
	"github.com/taibuivan/propmap/pkg/pagination"
)

// # Service Layer

// Service orchestrates signup review and access administration.
//
// Every mutation ends by telling live sessions about the change, so a
// promoted or demoted viewer sees the new standing on the next request or
// stream update without signing in again.
type Service struct {
	accountRepository AccountRepository
	visibility        BlurredVisibility
	sessions          SessionControl
	logger            *slog.Logger
}

// NewService constructs a new [Service] with its dependencies.
func NewService(
	accountRepo AccountRepository,
	visibility BlurredVisibility,
	sessions SessionControl,
	logger *slog.Logger,
) *Service {
	return &Service{
		accountRepository: accountRepo,
		visibility:        visibility,
		sessions:          sessions,
		logger:            logger,
	}
}

// # Viewer Summary

/*
Me summarizes what the viewer may do.

Parameters:
  - ctx: context.Context
  - principal: *access.Principal (nil for anonymous)

Returns:
  - Me: Capabilities held and the blurred-field outcome
*/
func (service *Service) Me(ctx context.Context, principal *access.Principal) Me {
	return Me{
		Anonymous:      principal.IsAnonymous(),
		Principal:      principal,
		Grants:         access.Grants(principal),
		BlurredVisible: service.visibility.CanViewBlurred(ctx, principal),
	}
}

// # Review Queue

/*
ListByStatus pages through accounts in a review state.

Returns:
  - []*auth.User: One page of accounts
  - pagination.Meta: Page metadata
  - error: Validation or storage failures
*/
func (service *Service) ListByStatus(ctx context.Context, status sec.ApprovalStatus, params pagination.Params) ([]*auth.User, pagination.Meta, error) {
	if !status.Valid() {
		return nil, pagination.Meta{}, validate.RequiredError(FieldStatus, "Must be one of: pending, approved, rejected")
	}

	users, total, err := service.accountRepository.ListByStatus(ctx, status, params)
	if err != nil {
		return nil, pagination.Meta{}, fmt.Errorf("account_service_list_failed: %w", err)
	}

	return users, pagination.NewMeta(params.Page, params.Limit, total), nil
}

/*
Approve admits an account.

Description: Guest-role accounts receive tier, or keep the tier they signed
up with when tier is empty. Agents and admins carry no tier, so tier is
ignored for them. Approving an already approved account only applies tier.

Returns:
  - *auth.User: The approved account
  - error: NotFound, validation or storage failures
*/
func (service *Service) Approve(ctx context.Context, actorID, id string, tier sec.Tier) (*auth.User, error) {
	user, err := service.accountRepository.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if user.Role == sec.RoleGuest {
		if tier == "" {
			tier = user.Tier
		}
		if !tier.Assignable() {
			return nil, validate.RequiredError(FieldTier, "Must be one of: bronze, silver, gold, platinum, premium")
		}
		user.Tier = tier
	}

	user.ApprovalStatus = sec.ApprovalApproved

	if err := service.accountRepository.SaveAccess(ctx, user); err != nil {
		return nil, fmt.Errorf("account_service_approve_failed: %w", err)
	}

	service.logger.InfoContext(ctx, "account_approved",
		slog.String("user_id", user.ID),
		slog.String("actor_id", actorID),
		slog.String("role", string(user.Role)),
		slog.String("tier", string(user.Tier)),
	)

	service.sessions.AccessChanged(ctx, user.ID, user.Email)
	return user, nil
}

/*
Reject closes signup review negatively and signs the account out everywhere.

Returns:
  - *auth.User: The rejected account
  - error: Forbidden for self-rejection, NotFound, or storage failures
*/
func (service *Service) Reject(ctx context.Context, actorID, id string) (*auth.User, error) {
	if actorID == id {
		return nil, apperr.Forbidden("You cannot reject your own account")
	}

	user, err := service.accountRepository.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	user.ApprovalStatus = sec.ApprovalRejected

	if err := service.accountRepository.SaveAccess(ctx, user); err != nil {
		return nil, fmt.Errorf("account_service_reject_failed: %w", err)
	}

	service.logger.InfoContext(ctx, "account_rejected",
		slog.String("user_id", user.ID),
		slog.String("actor_id", actorID),
	)

	if err := service.sessions.RevokeAllSessions(ctx, user.ID); err != nil {
		return nil, fmt.Errorf("account_service_reject_revoke_failed: %w", err)
	}

	return user, nil
}

// # Access Administration

/*
UpdateAccess applies a partial change to role, tier and the blurred grant.

Description: An account on the guest role must end with an assignable tier.
Moving an account to agent or admin clears its tier. Administrators may not
change their own role.

Returns:
  - *auth.User: The updated account
  - error: Validation, Forbidden, NotFound or storage failures
*/
func (service *Service) UpdateAccess(ctx context.Context, actorID, id string, update AccessUpdate) (*auth.User, error) {
	if update.IsEmpty() {
		return nil, apperr.ValidationError("No access fields supplied")
	}

	validator := &validate.Validator{}
	if update.Role != nil {
		validator.Custom(FieldRole, !update.Role.Valid(), "Must be one of: admin, agent, guest")
	}
	if update.Tier != nil {
		validator.Custom(FieldTier, !update.Tier.Assignable(), "Must be one of: bronze, silver, gold, platinum, premium")
	}
	if err := validator.Err(); err != nil {
		return nil, err
	}

	user, err := service.accountRepository.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if update.Role != nil && *update.Role != user.Role && actorID == id {
		return nil, apperr.Forbidden("You cannot change your own role")
	}

	if update.Role != nil {
		user.Role = *update.Role
	}
	if update.Tier != nil {
		user.Tier = *update.Tier
	}
	if update.CanViewBlurred != nil {
		user.CanViewBlurred = *update.CanViewBlurred
	}

	switch user.Role {
	case sec.RoleAgent, sec.RoleAdmin:
		user.Tier = sec.TierGuest
	default:
		if !user.Tier.Assignable() {
			return nil, validate.RequiredError(FieldTier, "A tier is required for the guest role")
		}
	}

	if err := service.accountRepository.SaveAccess(ctx, user); err != nil {
		return nil, fmt.Errorf("account_service_update_access_failed: %w", err)
	}

	service.logger.InfoContext(ctx, "account_access_updated",
		slog.String("user_id", user.ID),
		slog.String("actor_id", actorID),
		slog.String("role", string(user.Role)),
		slog.String("tier", string(user.Tier)),
		slog.Bool("can_view_blurred", user.CanViewBlurred),
	)

	service.sessions.AccessChanged(ctx, user.ID, user.Email)
	return user, nil
}
