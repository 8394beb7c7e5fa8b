// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package access

import (
	"github.com/taibuivan/propmap/internal/platform/sec"
	"github.com/taibuivan/propmap/pkg/slice"
)

// # Evaluation

// Can reports whether p may exercise capability c.
//
// # Flow
//  1. Anonymous or unapproved principals are evaluated as guest/guest.
//  2. Admin is always allowed.
//  3. Agent is allowed iff the capability admits agents.
//  4. Anyone else is allowed iff the capability admits their tier.
//
// Pure and safe for concurrent use.
func Can(p *Principal, c Capability) bool {
	set, declared := matrix[c]
	if !declared {
		return false
	}

	who := p.effective()

	switch who.role {
	case sec.RoleAdmin:
		return true
	case sec.RoleAgent:
		return set.hasAgent()
	default:
		return set.hasTier(who.tier)
	}
}

// Grants lists every capability p holds, in [Capabilities] order.
func Grants(p *Principal) []Capability {
	return slice.Filter(Capabilities(), func(c Capability) bool {
		return Can(p, c)
	})
}
