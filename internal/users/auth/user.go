// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth implements account credentials and session lifecycle.

It owns registration, password login, refresh-token rotation and sign-out, and
announces every session transition (SIGNED_IN, TOKEN_REFRESHED, SIGNED_OUT) on
a per-user Redis channel so long-lived viewers can re-resolve their access.

Access tokens carry identity only. Role, tier and approval are read from the
account row on every resolution, never from the token.
*/
package auth

import (
	"time"

	"github.com/taibuivan/propmap/internal/platform/sec"
)

// # Domain Entities

// User is a registered account of the listing platform.
type User struct {
	ID             string             `json:"id"`
	Email          string             `json:"email"`
	PasswordHash   string             `json:"-"`
	DisplayName    string             `json:"display_name"`
	Role           sec.UserRole       `json:"role"`
	Tier           sec.Tier           `json:"tier"`
	ApprovalStatus sec.ApprovalStatus `json:"approval_status"`
	CanViewBlurred bool               `json:"can_view_blurred"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

// Session represents an active refresh-token session.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	TokenHash string    `json:"-"`
	UserAgent string    `json:"user_agent"`
	IPAddress string    `json:"ip_address"`
	ExpiresAt time.Time `json:"expires_at"`
	IsRevoked bool      `json:"is_revoked"`
	CreatedAt time.Time `json:"created_at"`
}

// # Field Identifiers

const (
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldDisplayName     = "display_name"
	FieldAccountType     = "account_type"
	FieldCurrentPassword = "current_password"
	FieldNewPassword     = "new_password"
	FieldAccessToken     = "access_token"
	FieldTokenType       = "token_type"
	FieldExpiresIn       = "expires_in"
	FieldUser            = "user"
	FieldMessage         = "message"
)

// Account types accepted at registration.
const (
	AccountTypeMember = "member"
	AccountTypeAgent  = "agent"
)
