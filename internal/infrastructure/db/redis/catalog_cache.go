package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/sweetshop/sweetshop-api/internal/api/metrics"
	"github.com/sweetshop/sweetshop-api/internal/core/domain"
)

const (
	cacheTTL   = 30 * time.Second
	versionKey = "sweets:search:ver"
)

// CatalogCache caches search results in Redis. Entries are keyed by a
// criteria string under a namespace version; invalidation bumps the version
// so stale entries simply expire. Every Redis failure degrades to a cache
// miss — the catalog must keep answering when Redis is down.
type CatalogCache struct {
	client *redis.Client
	log    zerolog.Logger
}

func NewCatalogCache(client *redis.Client, log zerolog.Logger) *CatalogCache {
	return &CatalogCache{client: client, log: log}
}

// Get returns the cached result set for the criteria key, if present.
func (c *CatalogCache) Get(ctx context.Context, key string) ([]domain.Sweet, bool) {
	val, err := c.client.Get(ctx, c.entryKey(ctx, key)).Result()
	if err != nil {
		if err != redis.Nil {
			c.log.Debug().Err(err).Msg("catalog cache get failed")
		}
		metrics.SearchCacheTotal.WithLabelValues("miss").Inc()
		return nil, false
	}

	var sweets []domain.Sweet
	if err := json.Unmarshal([]byte(val), &sweets); err != nil {
		c.log.Debug().Err(err).Msg("catalog cache entry corrupt")
		metrics.SearchCacheTotal.WithLabelValues("miss").Inc()
		return nil, false
	}

	metrics.SearchCacheTotal.WithLabelValues("hit").Inc()
	return sweets, true
}

// Set stores the result set for the criteria key with a short TTL.
func (c *CatalogCache) Set(ctx context.Context, key string, sweets []domain.Sweet) {
	data, err := json.Marshal(sweets)
	if err != nil {
		c.log.Debug().Err(err).Msg("catalog cache marshal failed")
		return
	}
	if err := c.client.Set(ctx, c.entryKey(ctx, key), data, cacheTTL).Err(); err != nil {
		c.log.Debug().Err(err).Msg("catalog cache set failed")
	}
}

// InvalidateAll bumps the namespace version; previous entries become
// unreachable and expire on their own.
func (c *CatalogCache) InvalidateAll(ctx context.Context) {
	if err := c.client.Incr(ctx, versionKey).Err(); err != nil {
		c.log.Debug().Err(err).Msg("catalog cache invalidate failed")
	}
}

func (c *CatalogCache) entryKey(ctx context.Context, key string) string {
	ver, err := c.client.Get(ctx, versionKey).Int64()
	if err != nil && err != redis.Nil {
		c.log.Debug().Err(err).Msg("catalog cache version read failed")
	}
	return fmt.Sprintf("sweets:search:v%d:%s", ver, key)
}
