// Package replay keeps an advisory cache of recently seen gateway
// authorization codes. It enriches the audit trail with first-seen
// information on repeated notifications; it is a detection mechanism only
// and must never be used for concurrency control or to fail a validation.
package replay

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client is the subset of redis operations the cache needs.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

const seenTTL = 72 * time.Hour

type Cache struct {
	rdb Client
}

func NewCache(rdb Client) *Cache {
	return &Cache{rdb: rdb}
}

// Observe records an authorization code and reports whether it was already
// seen, returning the first-seen timestamp on repeats. Redis errors degrade
// to "not seen": the cache is advisory and a cache outage must not change
// any validation outcome.
func (c *Cache) Observe(ctx context.Context, gateway, authCode string) (seenBefore bool, firstSeen time.Time) {
	if c == nil || c.rdb == nil || authCode == "" {
		return false, time.Time{}
	}
	key := "paygate:seen:" + gateway + ":" + authCode

	val, err := c.rdb.Get(ctx, key).Result()
	if err == nil {
		if ts, perr := time.Parse(time.RFC3339, val); perr == nil {
			return true, ts
		}
		return true, time.Time{}
	}

	now := time.Now().UTC()
	_ = c.rdb.Set(ctx, key, now.Format(time.RFC3339), seenTTL).Err()
	return false, time.Time{}
}
