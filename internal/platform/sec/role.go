// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

// # User Roles

// UserRole is the structural designation of an account, orthogonal to its tier.
type UserRole string

const (
	// Absolute bypass of every capability check
	RoleAdmin UserRole = "admin"

	// Licensed broker: creates and edits listings, sees all sensitive fields
	RoleAgent UserRole = "agent"

	// Default role for registered viewers and for anonymous traffic
	RoleGuest UserRole = "guest"
)

// Valid reports whether r is one of the declared roles.
func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleAgent, RoleGuest:
		return true
	default:
		return false
	}
}

// ParseRole maps a stored string to a [UserRole].
// Unknown values resolve to [RoleGuest] with ok=false.
func ParseRole(raw string) (UserRole, bool) {
	role := UserRole(raw)
	if !role.Valid() {
		return RoleGuest, false
	}
	return role, true
}

// # Approval

// ApprovalStatus is the signup review state. Only approved accounts
// receive anything beyond guest access.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// Valid reports whether s is one of the declared statuses.
func (s ApprovalStatus) Valid() bool {
	switch s {
	case ApprovalPending, ApprovalApproved, ApprovalRejected:
		return true
	default:
		return false
	}
}
