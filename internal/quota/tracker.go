// Package quota caps the swipes a user may issue per UTC day. The ceiling
// comes from the user's tier; the counter lives in a shared Counter store.
package quota

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/oggyb/engagement-engine/internal/domain"
	"github.com/oggyb/engagement-engine/internal/entitlement"
	"github.com/oggyb/engagement-engine/internal/metrics"
)

// Counter is the per-user, per-day counter store. cache.RedisCache
// implements it with an atomic Lua script.
type Counter interface {
	SwipeCount(ctx context.Context, userID, day string) (int64, error)
	// IncrSwipeCountBelow increments only while the count is below limit,
	// in one atomic step. ok is false when nothing was incremented.
	IncrSwipeCountBelow(ctx context.Context, userID, day string, limit int64) (count int64, ok bool, err error)
	DecrSwipeCount(ctx context.Context, userID, day string) error
}

// Usage is the outcome of a successful Consume.
type Usage struct {
	// Day is the bucket the unit was taken from; Release needs it.
	Day       string
	Remaining int64
}

type Tracker struct {
	counter Counter
	clock   domain.Clock
	logger  *slog.Logger
}

func NewTracker(counter Counter, clock domain.Clock, logger *slog.Logger) *Tracker {
	return &Tracker{counter: counter, clock: clock, logger: logger.With("component", "quota")}
}

// Limit is the daily swipe ceiling of tier.
func Limit(tier entitlement.Tier) int64 {
	return entitlement.FeatureSetFor(tier).MaxSwipesPerDay
}

// Remaining returns today's unused swipes of user, floored at 0.
func (t *Tracker) Remaining(ctx context.Context, user domain.UserID, tier entitlement.Tier) (int64, error) {
	used, err := t.counter.SwipeCount(ctx, string(user), t.today())
	if err != nil {
		return 0, fmt.Errorf("read swipe counter: %w", err)
	}
	return max(Limit(tier)-used, 0), nil
}

// Consume takes one swipe from today's allowance. When the allowance is
// used up it fails with domain.ErrQuotaExceeded and the counter is untouched.
func (t *Tracker) Consume(ctx context.Context, user domain.UserID, tier entitlement.Tier) (Usage, error) {
	day := t.today()
	limit := Limit(tier)

	count, ok, err := t.counter.IncrSwipeCountBelow(ctx, string(user), day, limit)
	if err != nil {
		return Usage{}, fmt.Errorf("consume swipe: %w", err)
	}
	if !ok {
		metrics.QuotaRejectionsTotal.Inc()
		t.logger.Debug("swipe quota exhausted", "user", user, "tier", tier.String(), "limit", limit)
		return Usage{Day: day}, fmt.Errorf("%w: %d swipes per day on %s", domain.ErrQuotaExceeded, limit, tier)
	}
	return Usage{Day: day, Remaining: max(limit-count, 0)}, nil
}

// Release hands back a unit taken by Consume whose swipe did not commit.
func (t *Tracker) Release(ctx context.Context, user domain.UserID, u Usage) {
	if err := t.counter.DecrSwipeCount(context.WithoutCancel(ctx), string(user), u.Day); err != nil {
		t.logger.Error("swipe quota release failed", "user", user, "day", u.Day, "err", err)
	}
}

func (t *Tracker) today() string { return domain.DayBucket(t.clock.Now()) }
