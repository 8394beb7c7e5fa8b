// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package schema names the tables and columns of the PostgreSQL schema.

Stores build their statements from these definitions so that a renamed
column is changed in one place.
*/
package schema

// UserAccountTable represents the 'users.account' table
type UserAccountTable struct {
	Table          string
	ID             string
	Email          string
	Password       string
	DisplayName    string
	Role           string
	Tier           string
	ApprovalStatus string
	CanViewBlurred string
	CreatedAt      string
	UpdatedAt      string
	DeletedAt      string
}

// UserAccount is the schema definition for users.account
var UserAccount = UserAccountTable{
	Table:          "users.account",
	ID:             "id",
	Email:          "email",
	Password:       "passwordhash",
	DisplayName:    "displayname",
	Role:           "role",
	Tier:           "tier",
	ApprovalStatus: "approvalstatus",
	CanViewBlurred: "canviewblurred",
	CreatedAt:      "createdat",
	UpdatedAt:      "updatedat",
	DeletedAt:      "deletedat",
}

// Columns returns the public column names, password hash excluded.
func (t UserAccountTable) Columns() []string {
	return []string{
		t.ID, t.Email, t.DisplayName, t.Role, t.Tier,
		t.ApprovalStatus, t.CanViewBlurred, t.CreatedAt, t.UpdatedAt,
	}
}

// AccessColumns returns the columns an identity resolution reads.
func (t UserAccountTable) AccessColumns() []string {
	return []string{t.Role, t.Tier, t.ApprovalStatus, t.CanViewBlurred, t.DisplayName}
}
