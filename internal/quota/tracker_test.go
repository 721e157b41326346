package quota_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/engagement-engine/internal/cache"
	"github.com/oggyb/engagement-engine/internal/config"
	"github.com/oggyb/engagement-engine/internal/domain"
	"github.com/oggyb/engagement-engine/internal/entitlement"
	"github.com/oggyb/engagement-engine/internal/logger"
	"github.com/oggyb/engagement-engine/internal/quota"
)

func newTracker(t *testing.T, now time.Time) (*quota.Tracker, *domain.FakeClock) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()
	c := cache.NewRedisCache(cfg)
	t.Cleanup(func() { _ = c.Close() })

	clock := domain.NewFakeClock(now)
	return quota.NewTracker(c, clock, logger.Discard()), clock
}

func TestFreeTierTenSwipesThenExceeded(t *testing.T) {
	ctx := context.Background()
	tr, _ := newTracker(t, time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC))

	left, err := tr.Remaining(ctx, "u", entitlement.TierFree)
	require.NoError(t, err)
	assert.Equal(t, int64(10), left)

	for i := 1; i <= 10; i++ {
		u, err := tr.Consume(ctx, "u", entitlement.TierFree)
		require.NoError(t, err, "swipe %d", i)
		assert.Equal(t, int64(10-i), u.Remaining)
	}

	_, err = tr.Consume(ctx, "u", entitlement.TierFree)
	require.ErrorIs(t, err, domain.ErrQuotaExceeded)

	left, err = tr.Remaining(ctx, "u", entitlement.TierFree)
	require.NoError(t, err)
	assert.Zero(t, left)
}

func TestQuotaResetsAtUTCMidnight(t *testing.T) {
	ctx := context.Background()
	tr, clock := newTracker(t, time.Date(2026, 5, 4, 23, 59, 59, 0, time.UTC))

	for i := 0; i < 10; i++ {
		_, err := tr.Consume(ctx, "u", entitlement.TierFree)
		require.NoError(t, err)
	}
	_, err := tr.Consume(ctx, "u", entitlement.TierFree)
	require.ErrorIs(t, err, domain.ErrQuotaExceeded)

	clock.Advance(time.Second)
	u, err := tr.Consume(ctx, "u", entitlement.TierFree)
	require.NoError(t, err)
	assert.Equal(t, "20260505", u.Day)
	assert.Equal(t, int64(9), u.Remaining)
}

func TestUpgradeRaisesCeilingSameDay(t *testing.T) {
	ctx := context.Background()
	tr, _ := newTracker(t, time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC))

	for i := 0; i < 10; i++ {
		_, err := tr.Consume(ctx, "u", entitlement.TierFree)
		require.NoError(t, err)
	}
	left, err := tr.Remaining(ctx, "u", entitlement.TierBasic)
	require.NoError(t, err)
	assert.Equal(t, int64(40), left)
}

func TestReleaseGivesUnitBack(t *testing.T) {
	ctx := context.Background()
	tr, _ := newTracker(t, time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC))

	u, err := tr.Consume(ctx, "u", entitlement.TierFree)
	require.NoError(t, err)
	tr.Release(ctx, "u", u)

	left, err := tr.Remaining(ctx, "u", entitlement.TierFree)
	require.NoError(t, err)
	assert.Equal(t, int64(10), left)
}

func TestConcurrentConsumeNeverExceedsLimit(t *testing.T) {
	ctx := context.Background()
	tr, _ := newTracker(t, time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC))

	for _, tier := range []entitlement.Tier{entitlement.TierFree, entitlement.TierBasic} {
		user := domain.UserID(fmt.Sprintf("user-%s", tier))
		var wg sync.WaitGroup
		var granted atomic.Int64
		for i := 0; i < 120; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := tr.Consume(ctx, user, tier); err == nil {
					granted.Add(1)
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, quota.Limit(tier), granted.Load(), tier.String())
	}
}

func TestVIPUsesSentinelCeiling(t *testing.T) {
	ctx := context.Background()
	tr, _ := newTracker(t, time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC))

	u, err := tr.Consume(ctx, "vip", entitlement.TierVIP)
	require.NoError(t, err)
	assert.Equal(t, entitlement.Unlimited-1, u.Remaining)
}
