// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package access_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/propmap/internal/access"
	"github.com/taibuivan/propmap/internal/platform/sec"
)

func approved(role sec.UserRole, tier sec.Tier) *access.Principal {
	return &access.Principal{
		ID:             "user-1",
		Email:          "user@propmap.test",
		ApprovalStatus: sec.ApprovalApproved,
		Role:           role,
		Tier:           tier,
	}
}

/*
TestCan_TierRows checks every tier-gated row against an explicit table.
*/
func TestCan_TierRows(t *testing.T) {
	allowed := map[access.Capability][]sec.Tier{
		access.ViewListing:      {sec.TierGuest, sec.TierBronze, sec.TierSilver, sec.TierGold, sec.TierPlatinum, sec.TierPremium},
		access.SaveFavorites:    {sec.TierBronze, sec.TierSilver, sec.TierGold, sec.TierPlatinum, sec.TierPremium},
		access.ViewKeyMoney:     {sec.TierSilver, sec.TierGold, sec.TierPlatinum, sec.TierPremium},
		access.ViewAgentContact: {sec.TierGold, sec.TierPlatinum, sec.TierPremium},
		access.ViewMarketData:   {sec.TierPlatinum, sec.TierPremium},
		access.ExportData:       {sec.TierPlatinum, sec.TierPremium},
		access.APIAccess:        {sec.TierPremium},
	}

	for _, capability := range access.Capabilities() {
		tiers := allowed[capability]
		for _, tier := range sec.Tiers() {
			if tier == sec.TierGuest {
				continue
			}
			want := false
			for _, allowedTier := range tiers {
				if allowedTier == tier {
					want = true
				}
			}
			assert.Equal(t, want, access.Can(approved(sec.RoleGuest, tier), capability), "%s / %s", capability, tier)
		}
	}
}

/*
TestCan_Monotonic verifies that once a tier is allowed, every higher tier is too.
*/
func TestCan_Monotonic(t *testing.T) {
	tiers := sec.Tiers()[1:]

	for _, capability := range access.Capabilities() {
		seen := false
		for _, tier := range tiers {
			got := access.Can(approved(sec.RoleGuest, tier), capability)
			if seen {
				assert.True(t, got, "%s lost at %s", capability, tier)
			}
			seen = seen || got
		}
	}
}

/*
TestCan_ApprovalGate verifies unapproved principals evaluate exactly like anonymous.
*/
func TestCan_ApprovalGate(t *testing.T) {
	statuses := []sec.ApprovalStatus{sec.ApprovalPending, sec.ApprovalRejected, ""}

	for _, status := range statuses {
		for _, role := range []sec.UserRole{sec.RoleAdmin, sec.RoleAgent, sec.RoleGuest} {
			principal := &access.Principal{
				ID:             "user-1",
				ApprovalStatus: status,
				Role:           role,
				Tier:           sec.TierPremium,
				CanViewBlurred: true,
			}
			for _, capability := range access.Capabilities() {
				assert.Equal(t, access.Can(nil, capability), access.Can(principal, capability),
					"status=%q role=%s cap=%s", status, role, capability)
			}
		}
	}
}

func TestCan_Anonymous(t *testing.T) {
	assert.True(t, access.Can(nil, access.ViewListing))
	assert.False(t, access.Can(nil, access.ViewKeyMoney))
	assert.False(t, access.Can(nil, access.SaveFavorites))
	assert.Equal(t, []access.Capability{access.ViewListing}, access.Grants(nil))
}

func TestCan_AdminBypass(t *testing.T) {
	for _, tier := range append(sec.Tiers(), "unknown") {
		admin := approved(sec.RoleAdmin, tier)
		for _, capability := range access.Capabilities() {
			assert.True(t, access.Can(admin, capability), "%s / %s", tier, capability)
		}
	}
}

func TestCan_Agent(t *testing.T) {
	agent := approved(sec.RoleAgent, sec.TierBronze)

	assert.True(t, access.Can(agent, access.CreateProperty))
	assert.True(t, access.Can(agent, access.EditProperty))
	assert.True(t, access.Can(agent, access.ViewKeyMoney))
	assert.True(t, access.Can(agent, access.ViewMarketData))
	assert.False(t, access.Can(agent, access.DeleteProperty))
	assert.False(t, access.Can(agent, access.ApproveUsers))
	assert.False(t, access.Can(agent, access.ExportData))
}

func TestCan_UnknownValues(t *testing.T) {
	assert.False(t, access.Can(approved(sec.RoleAdmin, sec.TierGold), access.Capability("LAUNCH_ROCKETS")))

	// An unrecognized stored role falls back to guest, an unrecognized tier to level 0.
	assert.False(t, access.Can(approved("superuser", sec.TierBronze), access.ApproveUsers))
	assert.False(t, access.Can(approved(sec.RoleGuest, "diamond"), access.SaveFavorites))
}

func TestCan_Idempotent(t *testing.T) {
	principal := approved(sec.RoleGuest, sec.TierGold)
	for _, capability := range access.Capabilities() {
		assert.Equal(t, access.Can(principal, capability), access.Can(principal, capability))
	}
}
