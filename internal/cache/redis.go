package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/doemee-app/match-engine/internal/config"
)

// counterTTL bounds how long a swipe-volume counter lives without
// traffic; the DB column is the durable source of truth.
const counterTTL = time.Hour

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

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return c.Client.Set(ctx, key, value, ttl).Err()
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	return c.Client.Get(ctx, key).Result()
}

func (c *RedisCache) Del(ctx context.Context, key string) error {
	return c.Client.Del(ctx, key).Err()
}

// KeyForOrgSwipes generates the Redis key for an organisation's
// aggregate swipe volume.
func (c *RedisCache) KeyForOrgSwipes(orgID uint64) string {
	return fmt.Sprintf("org:swipes:%d", orgID)
}

// GetOrgSwipeVolume returns the cached swipe volume for an
// organisation. The second return value is false on a cache miss.
func (c *RedisCache) GetOrgSwipeVolume(ctx context.Context, orgID uint64) (uint64, bool, error) {
	key := c.KeyForOrgSwipes(orgID)
	val, err := c.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil // cache miss
	} else if err != nil {
		return 0, false, err
	}
	// refresh TTL on access
	_ = c.Client.Expire(ctx, key, counterTTL).Err()
	n, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, false, nil // treat garbage as a miss
	}
	return n, true, nil
}

// SetOrgSwipeVolume primes the counter after a DB read.
func (c *RedisCache) SetOrgSwipeVolume(ctx context.Context, orgID, volume uint64) error {
	return c.Client.Set(ctx, c.KeyForOrgSwipes(orgID), volume, counterTTL).Err()
}

// IncrOrgSwipeVolume bumps the counter after a swipe. Only keys that
// already exist are bumped; otherwise the next read would serve a
// counter that missed all earlier swipes.
func (c *RedisCache) IncrOrgSwipeVolume(ctx context.Context, orgID uint64) error {
	key := c.KeyForOrgSwipes(orgID)
	exists, err := c.Client.Exists(ctx, key).Result()
	if err != nil || exists == 0 {
		return err
	}
	if err := c.Client.Incr(ctx, key).Err(); err != nil {
		return err
	}
	return c.Client.Expire(ctx, key, counterTTL).Err()
}
