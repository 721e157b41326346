package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oggyb/engagement-engine/internal/config"
)

const (
	likeCountTTL = time.Hour
	// Counters outlive their UTC day so late readers never see a fresh zero
	// for a day that is still in progress somewhere.
	swipeCounterTTL = 48 * time.Hour
)

// consumeScript increments KEYS[1] only while it is below ARGV[1].
// Returns the new count, or -1 when the cap is already reached.
var consumeScript = redis.NewScript(`
local n = tonumber(redis.call('GET', KEYS[1]) or '0')
if n >= tonumber(ARGV[1]) then
  return -1
end
n = redis.call('INCR', KEYS[1])
redis.call('EXPIRE', KEYS[1], ARGV[2])
return n
`)

// releaseScript decrements KEYS[1] but never below zero.
var releaseScript = redis.NewScript(`
local n = tonumber(redis.call('GET', KEYS[1]) or '0')
if n <= 0 then
  return 0
end
return redis.call('DECR', KEYS[1])
`)

type RedisCache struct {
	Client *redis.Client
}

// NewRedisCache initializes Redis client from config.
// Only Addr is mandatory, Password/DB are optional.
func NewRedisCache(cfg *config.Config) *RedisCache {
	opts := &redis.Options{
		Addr: cfg.Redis.Addr,
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}
	return &RedisCache{Client: redis.NewClient(opts)}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.Client.Close()
}

// KeyForSwipeCount is the per-user, per-UTC-day swipe counter key.
func (c *RedisCache) KeyForSwipeCount(userID, day string) string {
	return fmt.Sprintf("swipes:%s:%s", userID, day)
}

// SwipeCount returns the swipes used by userID on day; a missing key is 0.
func (c *RedisCache) SwipeCount(ctx context.Context, userID, day string) (int64, error) {
	val, err := c.Client.Get(ctx, c.KeyForSwipeCount(userID, day)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	} else if err != nil {
		return 0, err
	}
	return strconv.ParseInt(val, 10, 64)
}

// IncrSwipeCountBelow atomically increments the day counter if it is below
// limit. ok is false (and nothing changes) when the limit is reached.
func (c *RedisCache) IncrSwipeCountBelow(ctx context.Context, userID, day string, limit int64) (count int64, ok bool, err error) {
	key := c.KeyForSwipeCount(userID, day)
	n, err := consumeScript.Run(ctx, c.Client, []string{key}, limit, int64(swipeCounterTTL/time.Second)).Int64()
	if err != nil {
		return 0, false, err
	}
	if n < 0 {
		return limit, false, nil
	}
	return n, true, nil
}

// DecrSwipeCount gives back one unit, used when the swipe that consumed it
// failed to commit.
func (c *RedisCache) DecrSwipeCount(ctx context.Context, userID, day string) error {
	return releaseScript.Run(ctx, c.Client, []string{c.KeyForSwipeCount(userID, day)}).Err()
}

// KeyForLikeCount generates Redis key for a user's like count
func (c *RedisCache) KeyForLikeCount(userID string) string {
	return fmt.Sprintf("likes:count:%s", userID)
}

// GetLikeCount returns the cached liked-you count; ok is false on a miss.
func (c *RedisCache) GetLikeCount(ctx context.Context, userID string) (count int64, ok bool, err error) {
	key := c.KeyForLikeCount(userID)
	val, err := c.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil // cache miss
	} else if err != nil {
		return 0, false, err
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, nil // corrupt entry behaves as a miss
	}
	// refresh TTL on access
	_ = c.Client.Expire(ctx, key, likeCountTTL).Err()
	return n, true, nil
}

func (c *RedisCache) SetLikeCount(ctx context.Context, userID string, count int64) error {
	// Always refresh TTL when updating
	return c.Client.Set(ctx, c.KeyForLikeCount(userID), count, likeCountTTL).Err()
}

// InvalidateLikeCount drops the cached count after a decision on userID.
func (c *RedisCache) InvalidateLikeCount(ctx context.Context, userID string) error {
	return c.Client.Del(ctx, c.KeyForLikeCount(userID)).Err()
}
