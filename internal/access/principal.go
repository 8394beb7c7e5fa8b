// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package access is the authorization engine of the platform.

It answers two questions for any viewer:

  - Can: may this viewer exercise a named capability? A static matrix.
  - CanViewBlurred: may this viewer see listing fields that are redacted by
    default? A short-circuit chain ending in an administrator-tunable tier
    threshold read from the settings store on every call.

# Fail-closed

Every ambiguous input (anonymous viewer, unapproved account, missing profile
fields, unreadable configuration) resolves to the least-privileged outcome.
*/
package access

import "github.com/taibuivan/propmap/internal/platform/sec"

// # Principal

// Principal is the resolved identity of the current viewer.
//
// A nil *Principal is the anonymous viewer. All methods are nil-safe.
// Profile-derived fields are left at their zero value when the profile could
// not be loaded; the zero ApprovalStatus fails the approval gate, so such a
// principal is treated exactly like an anonymous one.
type Principal struct {
	ID    string `json:"id"`
	Email string `json:"email"`

	ApprovalStatus sec.ApprovalStatus `json:"approval_status,omitempty"`
	Role           sec.UserRole       `json:"role,omitempty"`
	Tier           sec.Tier           `json:"tier,omitempty"`
	CanViewBlurred bool               `json:"can_view_blurred"`
	DisplayName    string             `json:"display_name,omitempty"`
}

// IsAnonymous reports whether p represents the absence of a session.
func (p *Principal) IsAnonymous() bool {
	return p == nil
}

// IsApproved reports whether the account passed signup review.
func (p *Principal) IsApproved() bool {
	return p != nil && p.ApprovalStatus == sec.ApprovalApproved
}

// UserID returns the principal id, or "" for the anonymous viewer.
func (p *Principal) UserID() string {
	if p == nil {
		return ""
	}
	return p.ID
}

// standing is the role/tier pair a principal is actually evaluated with.
type standing struct {
	role           sec.UserRole
	tier           sec.Tier
	canViewBlurred bool
}

var guestStanding = standing{role: sec.RoleGuest, tier: sec.TierGuest}

// effective applies the approval gate and normalizes unknown role or tier
// values to guest.
func (p *Principal) effective() standing {
	if !p.IsApproved() {
		return guestStanding
	}

	role, _ := sec.ParseRole(string(p.Role))
	tier, _ := sec.ParseTier(string(p.Tier))

	return standing{role: role, tier: tier, canViewBlurred: p.CanViewBlurred}
}
