// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

// # Membership Tiers

// Tier is the paid membership level of an account.
type Tier string

const (
	// Level of anonymous and unapproved viewers. Never stored on an account.
	TierGuest Tier = "guest"

	TierBronze   Tier = "bronze"
	TierSilver   Tier = "silver"
	TierGold     Tier = "gold"
	TierPlatinum Tier = "platinum"
	TierPremium  Tier = "premium"
)

// tierOrder is the one canonical ranking. Every "at least tier X" gate goes
// through [TierLevel].
var tierOrder = map[Tier]int{
	TierGuest:    0,
	TierBronze:   1,
	TierSilver:   2,
	TierGold:     3,
	TierPlatinum: 4,
	TierPremium:  5,
}

// Tiers returns the declared tiers in ascending order.
func Tiers() []Tier {
	return []Tier{TierGuest, TierBronze, TierSilver, TierGold, TierPlatinum, TierPremium}
}

// # Tier Hierarchy

// TierLevel maps a tier to its rank. Unknown names map to 0 so that an
// unrecognized value from storage is never treated as privileged.
func TierLevel(t Tier) int {
	return tierOrder[t]
}

// AtLeast checks if t meets or exceeds the target tier.
func (t Tier) AtLeast(target Tier) bool {
	return TierLevel(t) >= TierLevel(target)
}

// Valid reports whether t is a declared tier.
func (t Tier) Valid() bool {
	_, ok := tierOrder[t]
	return ok
}

// Assignable reports whether t may be stored on an account.
func (t Tier) Assignable() bool {
	return t.Valid() && t != TierGuest
}

// ParseTier maps a stored string to a [Tier]. Unknown values resolve to
// [TierGuest] with ok=false.
func ParseTier(raw string) (Tier, bool) {
	tier := Tier(raw)
	if !tier.Valid() {
		return TierGuest, false
	}
	return tier, true
}
