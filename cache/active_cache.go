package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ActiveFlagCache caches per-device "has an open assignment" flags with a
// short TTL. Postgres stays the source of truth: assign/release invalidate
// the key after commit, and a miss always falls through to the ledger.
type ActiveFlagCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewActiveFlagCache(rdb *redis.Client, ttl time.Duration) *ActiveFlagCache {
	return &ActiveFlagCache{rdb: rdb, ttl: ttl}
}

func key(deviceID string) string { return fmt.Sprintf("igd:active:%s", deviceID) }

// Get returns (flag, true) on a hit, (false, false) on a miss or error.
func (c *ActiveFlagCache) Get(ctx context.Context, deviceID string) (bool, bool) {
	v, err := c.rdb.Get(ctx, key(deviceID)).Result()
	if err != nil {
		return false, false
	}
	return v == "1", true
}

func (c *ActiveFlagCache) Set(ctx context.Context, deviceID string, active bool) {
	v := "0"
	if active {
		v = "1"
	}
	// 写失败只是少了一次缓存命中，忽略
	_ = c.rdb.Set(ctx, key(deviceID), v, c.ttl).Err()
}

func (c *ActiveFlagCache) Invalidate(ctx context.Context, deviceID string) {
	_ = c.rdb.Del(ctx, key(deviceID)).Err()
}
