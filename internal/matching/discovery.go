package matching

import (
	"context"
	"fmt"
	"sort"

	"github.com/oggyb/engagement-engine/internal/domain"
	"github.com/oggyb/engagement-engine/internal/entitlement"
	"github.com/oggyb/engagement-engine/internal/repository"
)

const (
	DefaultCandidateLimit = 50
	MaxCandidateLimit     = 200
)

// Candidate is one profile offered for swiping.
type Candidate struct {
	Profile
	// DistanceKm is zero when either side has no location.
	DistanceKm float64
}

// PotentialMatches lists profiles requester may swipe next.
//
// Eligibility is symmetric: ages, genders and distance must satisfy both
// sides' preferences, and profiles the requester already swiped are left
// out. prioritized only reorders the pool, and only for tiers with
// priority matching: people who already liked the requester come first.
func (e *Engine) PotentialMatches(ctx context.Context, requester domain.UserID, prioritized bool, limit int) ([]Candidate, error) {
	me, err := e.GetProfile(ctx, requester)
	if err != nil {
		return nil, err
	}

	if prioritized {
		tier, err := e.entitlements.EffectiveTier(ctx, requester)
		if err != nil {
			return nil, fmt.Errorf("resolve tier: %w", err)
		}
		prioritized = entitlement.FeatureSetFor(tier).PriorityMatching
	}

	filter := repository.CandidateFilter{
		ExcludeUserID: string(requester),
		MinAge:        me.Preferences.MinAge,
		MaxAge:        me.Preferences.MaxAge,
		AcceptsAge:    me.Age,
		AcceptsGender: me.Gender,
	}
	if !anyGender(me.Preferences.Gender) {
		filter.Gender = me.Preferences.Gender
	}
	rows, err := e.profiles.ListCandidates(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}

	swiped, err := e.decisions.SwipedRecipients(ctx, string(requester))
	if err != nil {
		return nil, fmt.Errorf("list swiped: %w", err)
	}
	seen := make(map[string]struct{}, len(swiped))
	for _, id := range swiped {
		seen[id] = struct{}{}
	}

	var out []Candidate
	for _, row := range rows {
		if _, ok := seen[row.UserID]; ok {
			continue
		}
		c := fromProfileRow(row)
		if !compatible(me, c) {
			continue
		}
		cand := Candidate{Profile: c}
		if me.Location.Known() && c.Location.Known() {
			cand.DistanceKm = distanceKm(me.Location, c.Location)
		}
		out = append(out, cand)
	}

	if prioritized && len(out) > 0 {
		ids := make([]string, len(out))
		for i, c := range out {
			ids[i] = string(c.User)
		}
		likers, err := e.decisions.LikedBy(ctx, string(requester), ids)
		if err != nil {
			return nil, fmt.Errorf("load likers: %w", err)
		}
		// Stable: each group keeps the last-active order from the query.
		sort.SliceStable(out, func(i, j int) bool {
			return likers[string(out[i].User)] && !likers[string(out[j].User)]
		})
	}

	return truncate(out, limit), nil
}

func truncate(c []Candidate, limit int) []Candidate {
	switch {
	case limit <= 0:
		limit = DefaultCandidateLimit
	case limit > MaxCandidateLimit:
		limit = MaxCandidateLimit
	}
	if len(c) > limit {
		return c[:limit]
	}
	return c
}
