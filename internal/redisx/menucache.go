package redisx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ariefcatur/go-restaurant-api.git/internal/menu"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// MenuCache is a read-through cache for the catalog. Redis failures are
// logged and treated as misses so the store stays the source of truth.
type MenuCache struct {
	rdb *redis.Client
	ttl time.Duration
	log *logrus.Entry
}

func NewMenuCache(rdb *redis.Client, ttl time.Duration, log *logrus.Entry) *MenuCache {
	if ttl <= 0 {
		ttl = TTLMenuCache
	}
	return &MenuCache{rdb: rdb, ttl: ttl, log: log.WithField("component", "menu-cache")}
}

// Items returns the cached list on a hit. On a miss the returned generation
// is the one to pass to StoreItems.
func (c *MenuCache) Items(ctx context.Context) ([]menu.MenuItem, menu.Generation, bool) {
	gen := c.generation(ctx)
	if gen == menu.NoGeneration {
		return nil, gen, false
	}
	var items []menu.MenuItem
	if !c.get(ctx, fmt.Sprintf(KeyMenuItems, gen), &items) {
		return nil, gen, false
	}
	return items, gen, true
}

func (c *MenuCache) StoreItems(ctx context.Context, gen menu.Generation, items []menu.MenuItem) {
	if gen != menu.NoGeneration {
		c.set(ctx, fmt.Sprintf(KeyMenuItems, gen), items)
	}
}

func (c *MenuCache) Item(ctx context.Context, id int64) (menu.MenuItem, menu.Generation, bool) {
	gen := c.generation(ctx)
	if gen == menu.NoGeneration {
		return menu.MenuItem{}, gen, false
	}
	var it menu.MenuItem
	if !c.get(ctx, fmt.Sprintf(KeyMenuItem, gen, id), &it) {
		return menu.MenuItem{}, gen, false
	}
	return it, gen, true
}

func (c *MenuCache) StoreItem(ctx context.Context, gen menu.Generation, it menu.MenuItem) {
	if gen != menu.NoGeneration {
		c.set(ctx, fmt.Sprintf(KeyMenuItem, gen, it.ID), it)
	}
}

// Invalidate bumps the generation; stale keys age out through their TTL.
func (c *MenuCache) Invalidate(ctx context.Context) {
	if err := c.rdb.Incr(ctx, KeyMenuVersion).Err(); err != nil {
		c.log.WithError(err).Warn("invalidate menu cache")
	}
}

func (c *MenuCache) generation(ctx context.Context) menu.Generation {
	v, err := c.rdb.Get(ctx, KeyMenuVersion).Int64()
	if errors.Is(err, redis.Nil) {
		return 0
	}
	if err != nil {
		c.log.WithError(err).Warn("read menu cache version")
		return menu.NoGeneration
	}
	return menu.Generation(v)
}

func (c *MenuCache) get(ctx context.Context, key string, into any) bool {
	b, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.WithError(err).WithField("key", key).Warn("read menu cache")
		}
		return false
	}
	if err := json.Unmarshal(b, into); err != nil {
		c.log.WithError(err).WithField("key", key).Warn("decode menu cache entry")
		return false
	}
	return true
}

func (c *MenuCache) set(ctx context.Context, key string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, b, c.ttl).Err(); err != nil {
		c.log.WithError(err).WithField("key", key).Warn("write menu cache")
	}
}
