// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package access

import "github.com/taibuivan/propmap/internal/platform/sec"

// # Capabilities

// Capability is a named action gated by the matrix.
//
// The set is closed: callers reference the constants below, so a misspelled
// capability is a compile error. Adding one means adding a constant and a
// matrix row, nothing else.
type Capability string

const (
	ViewListing      Capability = "VIEW_LISTING"
	SaveFavorites    Capability = "SAVE_FAVORITES"
	ViewKeyMoney     Capability = "VIEW_KEY_MONEY"
	ViewAgentContact Capability = "VIEW_AGENT_CONTACT"
	ViewMarketData   Capability = "VIEW_MARKET_DATA"
	ExportData       Capability = "EXPORT_DATA"
	APIAccess        Capability = "API_ACCESS"
	CreateProperty   Capability = "CREATE_PROPERTY"
	EditProperty     Capability = "EDIT_PROPERTY"
	DeleteProperty   Capability = "DELETE_PROPERTY"
	ApproveUsers     Capability = "APPROVE_USERS"
	ManageUsers      Capability = "MANAGE_USERS"
	ManageSettings   Capability = "MANAGE_SETTINGS"
)

// Capabilities returns every declared capability in a stable order.
func Capabilities() []Capability {
	return []Capability{
		ViewListing, SaveFavorites,
		ViewKeyMoney, ViewAgentContact, ViewMarketData,
		ExportData, APIAccess,
		CreateProperty, EditProperty, DeleteProperty,
		ApproveUsers, ManageUsers, ManageSettings,
	}
}

// # Audience

// audience is the allowed-set of a capability: one bit per tier plus one for
// the agent role. Admin is never listed; it bypasses the matrix.
type audience uint16

const agentBit audience = 1 << 15

func tierBit(t sec.Tier) audience {
	return 1 << uint(sec.TierLevel(t))
}

// tiersFrom admits floor and every tier ranked above it. Building rows this
// way keeps tier-gated capabilities contiguous in the order.
func tiersFrom(floor sec.Tier) audience {
	var set audience
	for _, t := range sec.Tiers() {
		if t.AtLeast(floor) {
			set |= tierBit(t)
		}
	}
	return set
}

func (a audience) hasTier(t sec.Tier) bool { return a&tierBit(t) != 0 }

func (a audience) hasAgent() bool { return a&agentBit != 0 }

// adminOnly is the empty audience.
const adminOnly audience = 0

// matrix is fixed at build time.
var matrix = map[Capability]audience{
	ViewListing:      tiersFrom(sec.TierGuest),
	SaveFavorites:    tiersFrom(sec.TierBronze),
	ViewKeyMoney:     tiersFrom(sec.TierSilver) | agentBit,
	ViewAgentContact: tiersFrom(sec.TierGold) | agentBit,
	ViewMarketData:   tiersFrom(sec.TierPlatinum) | agentBit,
	ExportData:       tiersFrom(sec.TierPlatinum),
	APIAccess:        tiersFrom(sec.TierPremium),
	CreateProperty:   agentBit,
	EditProperty:     agentBit,
	DeleteProperty:   adminOnly,
	ApproveUsers:     adminOnly,
	ManageUsers:      adminOnly,
	ManageSettings:   adminOnly,
}
