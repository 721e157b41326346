package matching

import (
	"context"
	"fmt"
	"time"

	"github.com/oggyb/engagement-engine/internal/domain"
	"github.com/oggyb/engagement-engine/internal/entitlement"
	"github.com/oggyb/engagement-engine/internal/utils/pagination"
)

// Liker is someone who liked the requester.
type Liker struct {
	User    domain.UserID
	LikedAt time.Time
}

// LikedYou pages through the users who currently like user, newest first.
// Users that user passed are left out; newOnly also drops mutual likes.
// It needs a tier with canSeeWhoLikedYou.
func (e *Engine) LikedYou(ctx context.Context, user domain.UserID, newOnly bool, pageToken string, limit int) ([]Liker, string, error) {
	tier, err := e.entitlements.EffectiveTier(ctx, user)
	if err != nil {
		return nil, "", fmt.Errorf("resolve tier: %w", err)
	}
	if !entitlement.FeatureSetFor(tier).CanSeeWhoLikedYou {
		return nil, "", fmt.Errorf("%w: %s tier cannot see who liked you", domain.ErrUnauthorized, tier)
	}

	decisions, next, err := e.decisions.GetLikers(ctx, string(user), newOnly, pageToken, pagination.ClampLimit(limit))
	if err != nil {
		return nil, "", err
	}
	out := make([]Liker, 0, len(decisions))
	for _, d := range decisions {
		out = append(out, Liker{User: domain.UserID(d.ActorID), LikedAt: domain.FromNanos(d.UpdatedAt)})
	}
	return out, next, nil
}

// CountLikedYou returns how many users like user. Every tier may read the
// count; it is served from the cache when possible.
func (e *Engine) CountLikedYou(ctx context.Context, user domain.UserID) (int64, error) {
	if n, ok, err := e.likes.GetLikeCount(ctx, string(user)); err == nil && ok {
		return n, nil
	} else if err != nil {
		e.logger.Warn("like count cache read failed", "user", user, "err", err)
	}

	count, err := e.decisions.CountLikers(ctx, string(user))
	if err != nil {
		return 0, fmt.Errorf("count likers: %w", err)
	}
	if err := e.likes.SetLikeCount(ctx, string(user), count); err != nil {
		e.logger.Warn("like count cache write failed", "user", user, "err", err)
	}
	return count, nil
}
