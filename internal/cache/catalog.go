// Package cache is a small read-through cache for the service catalog,
// the one hot read every client screen starts from. A nil cache or an
// unreachable Redis degrades to uncached reads.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"barberagenda/internal/domain"
)

const servicesKey = "catalog:services:active"

type Catalog struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewCatalog wraps rdb. rdb may be nil; every method then reports a miss.
func NewCatalog(rdb *redis.Client, ttl time.Duration) *Catalog {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Catalog{rdb: rdb, ttl: ttl}
}

func (c *Catalog) GetServices(ctx context.Context) ([]domain.Service, bool) {
	if c == nil || c.rdb == nil {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, servicesKey).Bytes()
	if err != nil {
		return nil, false
	}
	var out []domain.Service
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, false
	}
	return out, true
}

func (c *Catalog) SetServices(ctx context.Context, services []domain.Service) {
	if c == nil || c.rdb == nil {
		return
	}
	raw, err := json.Marshal(services)
	if err != nil {
		return
	}
	_ = c.rdb.Set(ctx, servicesKey, raw, c.ttl).Err()
}

// Invalidate drops the cached listing after any catalog write.
func (c *Catalog) Invalidate(ctx context.Context) {
	if c == nil || c.rdb == nil {
		return
	}
	_ = c.rdb.Del(ctx, servicesKey).Err()
}
