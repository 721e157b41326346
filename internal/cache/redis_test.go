package cache_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/engagement-engine/internal/cache"
	"github.com/oggyb/engagement-engine/internal/config"
)

func newCache(t *testing.T) (*cache.RedisCache, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()
	cfg.Redis.Password = ""
	cfg.Redis.DB = 0

	c := cache.NewRedisCache(cfg)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestIncrSwipeCountBelowStopsAtLimit(t *testing.T) {
	ctx := context.Background()
	c, mr := newCache(t)

	for i := int64(1); i <= 3; i++ {
		n, ok, err := c.IncrSwipeCountBelow(ctx, "u1", "20260101", 3)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, i, n)
	}

	_, ok, err := c.IncrSwipeCountBelow(ctx, "u1", "20260101", 3)
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := c.SwipeCount(ctx, "u1", "20260101")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n, "rejected attempt must not increment")

	assert.True(t, mr.TTL(c.KeyForSwipeCount("u1", "20260101")) > 0)
}

func TestSwipeCountMissingKeyIsZero(t *testing.T) {
	c, _ := newCache(t)
	n, err := c.SwipeCount(context.Background(), "nobody", "20260101")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestIncrSwipeCountBelowConcurrent(t *testing.T) {
	ctx := context.Background()
	c, _ := newCache(t)

	var wg sync.WaitGroup
	var granted atomic.Int64
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok, err := c.IncrSwipeCountBelow(ctx, "u1", "20260101", 10); err == nil && ok {
				granted.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(10), granted.Load())
}

func TestDecrSwipeCountNeverNegative(t *testing.T) {
	ctx := context.Background()
	c, _ := newCache(t)

	require.NoError(t, c.DecrSwipeCount(ctx, "u1", "20260101"))
	n, err := c.SwipeCount(ctx, "u1", "20260101")
	require.NoError(t, err)
	assert.Zero(t, n)

	_, _, err = c.IncrSwipeCountBelow(ctx, "u1", "20260101", 5)
	require.NoError(t, err)
	require.NoError(t, c.DecrSwipeCount(ctx, "u1", "20260101"))
	n, err = c.SwipeCount(ctx, "u1", "20260101")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestLikeCountCache(t *testing.T) {
	ctx := context.Background()
	c, _ := newCache(t)

	_, ok, err := c.GetLikeCount(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.SetLikeCount(ctx, "u1", 7))
	n, ok, err := c.GetLikeCount(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(7), n)

	require.NoError(t, c.InvalidateLikeCount(ctx, "u1"))
	_, ok, err = c.GetLikeCount(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok)
}
