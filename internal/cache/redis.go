package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/oggyb/muzz-match/internal/config"
)

// LikeCountTTL is how long a cached inbox counter lives without access.
const LikeCountTTL = time.Hour

type RedisCache struct {
	Client *redis.Client
	sf     singleflight.Group
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

// KeyForLikeCount generates Redis key for a user's pending-likers count.
func (c *RedisCache) KeyForLikeCount(userID string) string {
	return fmt.Sprintf("likes:count:%s", userID)
}

// KeyForPairLock generates Redis key guarding match creation for a pair.
func (c *RedisCache) KeyForPairLock(pairKey string) string {
	return fmt.Sprintf("match:lock:%s", pairKey)
}

// GetLikeCount returns the cached counter. ok is false on a cache miss.
func (c *RedisCache) GetLikeCount(ctx context.Context, userID string) (n int64, ok bool, err error) {
	key := c.KeyForLikeCount(userID)
	val, err := c.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	} else if err != nil {
		return 0, false, err
	}
	n, err = strconv.ParseInt(val, 10, 64)
	if err != nil {
		// corrupt entry → treat as miss
		return 0, false, nil
	}
	// refresh TTL on access
	_ = c.Client.Expire(ctx, key, LikeCountTTL).Err()
	return n, true, nil
}

// SetLikeCount stores the counter and refreshes its TTL.
func (c *RedisCache) SetLikeCount(ctx context.Context, userID string, count int64) error {
	return c.Client.Set(ctx, c.KeyForLikeCount(userID), count, LikeCountTTL).Err()
}

// AdjustLikeCount moves a cached counter by delta. Only existing keys are
// touched so a partial counter is never created from scratch.
func (c *RedisCache) AdjustLikeCount(ctx context.Context, userID string, delta int64) error {
	key := c.KeyForLikeCount(userID)
	n, err := c.Client.Exists(ctx, key).Result()
	if err != nil || n == 0 {
		return err
	}
	if err := c.Client.IncrBy(ctx, key, delta).Err(); err != nil {
		return err
	}
	return c.Client.Expire(ctx, key, LikeCountTTL).Err()
}

// InvalidateLikeCount drops a cached counter.
func (c *RedisCache) InvalidateLikeCount(ctx context.Context, userID string) error {
	return c.Client.Del(ctx, c.KeyForLikeCount(userID)).Err()
}

// GetOrLoadLikeCount is cache-first; concurrent misses for the same user are
// collapsed into a single load.
func (c *RedisCache) GetOrLoadLikeCount(
	ctx context.Context,
	userID string,
	load func(context.Context) (int64, error),
) (int64, error) {
	if n, ok, err := c.GetLikeCount(ctx, userID); err == nil && ok {
		return n, nil
	}

	v, err, _ := c.sf.Do(c.KeyForLikeCount(userID), func() (any, error) {
		n, err := load(ctx)
		if err != nil {
			return int64(0), err
		}
		_ = c.SetLikeCount(ctx, userID, n)
		return n, nil
	})
	if err != nil {
		return 0, err
	}
	return v.(int64), nil
}

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// AcquirePairLock takes a short-lived SET NX lock for a user pair.
// The returned release func deletes the key only if this caller still owns
// it. acquired is false when another holder has the lock.
func (c *RedisCache) AcquirePairLock(ctx context.Context, pairKey string, ttl time.Duration) (release func(), acquired bool, err error) {
	key := c.KeyForPairLock(pairKey)
	token := uuid.NewString()

	ok, err := c.Client.SetNX(ctx, key, token, ttl).Result()
	if err != nil || !ok {
		return func() {}, false, err
	}
	return func() {
		// release with a fresh context so a cancelled request still unlocks
		rctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = releaseScript.Run(rctx, c.Client, []string{key}, token).Err()
	}, true, nil
}

// WaitPairLock retries AcquirePairLock until it succeeds, ctx ends or wait
// elapses.
func (c *RedisCache) WaitPairLock(ctx context.Context, pairKey string, ttl, wait time.Duration) (func(), bool, error) {
	deadline := time.Now().Add(wait)
	for {
		release, ok, err := c.AcquirePairLock(ctx, pairKey, ttl)
		if err != nil || ok {
			return release, ok, err
		}
		if time.Now().After(deadline) {
			return release, false, nil
		}
		select {
		case <-ctx.Done():
			return func() {}, false, ctx.Err()
		case <-time.After(10 * time.Millisecond):
		}
	}
}
