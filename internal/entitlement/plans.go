package entitlement

import (
	"fmt"

	"github.com/oggyb/engagement-engine/internal/domain"
)

// Prices holds the monthly price of every tier in token base units.
type Prices [numTiers]domain.Amount

// ParsePrices builds the price table; Free is always 0.
func ParsePrices(basic, premium, vip string) (Prices, error) {
	var p Prices
	for tier, raw := range map[Tier]string{TierBasic: basic, TierPremium: premium, TierVIP: vip} {
		a, err := domain.ParseAmount(raw)
		if err != nil {
			return Prices{}, fmt.Errorf("price of %s: %w", tier, err)
		}
		if a.Sign() < 0 {
			return Prices{}, fmt.Errorf("price of %s: %w: negative", tier, domain.ErrInvalidAmount)
		}
		p[tier] = a
	}
	return p, nil
}

// MonthlyRate returns the price of one month of t.
func (p Prices) MonthlyRate(t Tier) domain.Amount {
	if !t.Valid() {
		return domain.Amount{}
	}
	return p[t]
}

// Plan is one purchasable (or free) option as listed to clients.
type Plan struct {
	ID               string
	Name             string
	Tier             Tier
	Price            domain.Amount
	Features         FeatureSet
	Description      []string
	MaxSwipes        int64
	PriorityMatching bool
}

var planNames = map[Tier]string{
	TierFree:    "Free",
	TierBasic:   "Basic",
	TierPremium: "Premium",
	TierVIP:     "VIP",
}

// Plans lists every tier with its monthly price and features.
func (p Prices) Plans() []Plan {
	plans := make([]Plan, 0, numTiers)
	for _, t := range Tiers() {
		fs := FeatureSetFor(t)
		plans = append(plans, Plan{
			ID:               t.String(),
			Name:             planNames[t],
			Tier:             t,
			Price:            p.MonthlyRate(t),
			Features:         fs,
			Description:      fs.Describe(),
			MaxSwipes:        fs.MaxSwipesPerDay,
			PriorityMatching: fs.PriorityMatching,
		})
	}
	return plans
}
