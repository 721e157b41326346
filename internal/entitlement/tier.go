package entitlement

import (
	"fmt"
	"math"
	"strings"

	"github.com/oggyb/engagement-engine/internal/domain"
)

// Tier is a subscription level.
type Tier uint8

const (
	TierFree Tier = iota
	TierBasic
	TierPremium
	TierVIP

	numTiers
)

var tierNames = [...]string{
	TierFree:    "free",
	TierBasic:   "basic",
	TierPremium: "premium",
	TierVIP:     "vip",
}

// Both tables below must have exactly one entry per tier; these lines stop
// compiling when a tier is added without its entries.
var (
	_ = [1]struct{}{}[len(tierNames)-int(numTiers)]
	_ = [1]struct{}{}[len(featureTable)-int(numTiers)]
)

// Tiers lists every tier, cheapest first.
func Tiers() []Tier {
	out := make([]Tier, 0, numTiers)
	for t := TierFree; t < numTiers; t++ {
		out = append(out, t)
	}
	return out
}

func (t Tier) Valid() bool { return t < numTiers }

func (t Tier) String() string {
	if !t.Valid() {
		return fmt.Sprintf("tier(%d)", uint8(t))
	}
	return tierNames[t]
}

// Paid reports whether the tier can be purchased.
func (t Tier) Paid() bool { return t.Valid() && t != TierFree }

// ParseTier maps a plan id ("premium", "VIP", ...) to its tier.
func ParseTier(s string) (Tier, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for t, name := range tierNames {
		if name == s {
			return Tier(t), nil
		}
	}
	return TierFree, fmt.Errorf("%w: %q", domain.ErrInvalidTier, s)
}

// Unlimited is the sentinel ceiling of uncapped tiers. It keeps the quota
// arithmetic identical for every tier.
const Unlimited int64 = math.MaxInt32

// FeatureSet is what a tier unlocks. It is derived from the tier, never stored.
type FeatureSet struct {
	MaxSwipesPerDay   int64 `json:"maxSwipesPerDay"`
	MaxMessagesPerDay int64 `json:"maxMessagesPerDay"`
	CanSeeWhoLikedYou bool  `json:"canSeeWhoLikedYou"`
	PriorityMatching  bool  `json:"priorityMatching"`
	ProfileBoosts     int64 `json:"profileBoosts"`
	HideAds           bool  `json:"hideAds"`
	VerifiedBadge     bool  `json:"verifiedBadge"`
	CustomTheme       bool  `json:"customTheme"`
}

var featureTable = [...]FeatureSet{
	TierFree: {
		MaxSwipesPerDay:   10,
		MaxMessagesPerDay: 20,
	},
	TierBasic: {
		MaxSwipesPerDay:   50,
		MaxMessagesPerDay: 100,
		ProfileBoosts:     1,
		HideAds:           true,
	},
	TierPremium: {
		MaxSwipesPerDay:   200,
		MaxMessagesPerDay: 500,
		CanSeeWhoLikedYou: true,
		PriorityMatching:  true,
		ProfileBoosts:     5,
		HideAds:           true,
		CustomTheme:       true,
	},
	TierVIP: {
		MaxSwipesPerDay:   Unlimited,
		MaxMessagesPerDay: Unlimited,
		CanSeeWhoLikedYou: true,
		PriorityMatching:  true,
		ProfileBoosts:     10,
		HideAds:           true,
		VerifiedBadge:     true,
		CustomTheme:       true,
	},
}

// FeatureSetFor is the total tier → features mapping. Out-of-range values
// resolve to the Free set.
func FeatureSetFor(t Tier) FeatureSet {
	if !t.Valid() {
		return featureTable[TierFree]
	}
	return featureTable[t]
}

var featureGates = map[string]func(FeatureSet) bool{
	"maxswipesperday":   func(f FeatureSet) bool { return f.MaxSwipesPerDay > 0 },
	"maxmessagesperday": func(f FeatureSet) bool { return f.MaxMessagesPerDay > 0 },
	"canseewholikedyou": func(f FeatureSet) bool { return f.CanSeeWhoLikedYou },
	"prioritymatching":  func(f FeatureSet) bool { return f.PriorityMatching },
	"profileboosts":     func(f FeatureSet) bool { return f.ProfileBoosts > 0 },
	"hideads":           func(f FeatureSet) bool { return f.HideAds },
	"verifiedbadge":     func(f FeatureSet) bool { return f.VerifiedBadge },
	"customtheme":       func(f FeatureSet) bool { return f.CustomTheme },
}

// Allows reports whether the named feature is on (booleans) or non-zero
// (limits). Names are matched case-insensitively, in camelCase or
// snake_case. Unknown names are denied.
func (f FeatureSet) Allows(name string) bool {
	key := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), "_", ""))
	gate, ok := featureGates[key]
	if !ok {
		return false
	}
	return gate(f)
}

// Describe renders the feature list shown on plan cards.
func (f FeatureSet) Describe() []string {
	out := []string{
		limitText(f.MaxSwipesPerDay, "swipes/day"),
		limitText(f.MaxMessagesPerDay, "messages/day"),
	}
	if f.CanSeeWhoLikedYou {
		out = append(out, "See who liked you")
	}
	if f.PriorityMatching {
		out = append(out, "Priority matching")
	}
	if f.ProfileBoosts > 0 {
		out = append(out, fmt.Sprintf("%d profile boosts", f.ProfileBoosts))
	}
	if f.HideAds {
		out = append(out, "No ads")
	}
	if f.VerifiedBadge {
		out = append(out, "Verified badge")
	}
	if f.CustomTheme {
		out = append(out, "Custom themes")
	}
	return out
}

func limitText(n int64, unit string) string {
	if n >= Unlimited {
		return "Unlimited " + unit
	}
	return fmt.Sprintf("%d %s", n, unit)
}
