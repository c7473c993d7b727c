package catalog

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/numberhero/internal/metrics"
)

const (
	DefaultCacheTTL        = 5 * time.Minute
	defaultCleanupInterval = 10 * time.Minute
)

// Cached is a read-through cache in front of another Catalog. Lookups by
// number and the primary pool are cached. FindOthers samples fresh decoys on
// every call and always passes through. Writes flush the cache.
type Cached struct {
	next  Catalog
	cache *gocache.Cache
}

// NewCached wraps next with a cache whose entries live for ttl.
func NewCached(next Catalog, ttl time.Duration) *Cached {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cached{next: next, cache: gocache.New(ttl, defaultCleanupInterval)}
}

var _ Catalog = (*Cached)(nil)

func (c *Cached) FindByNumber(ctx context.Context, number int) (Association, error) {
	key := fmt.Sprintf("number:%d", number)
	if v, ok := c.cache.Get(key); ok {
		if a, ok := v.(Association); ok {
			metrics.RecordCatalogCache(true)
			log.Debug().Str("key", key).Msg("catalog cache hit")
			return a, nil
		}
	}
	metrics.RecordCatalogCache(false)
	a, err := c.next.FindByNumber(ctx, number)
	if err != nil {
		return Association{}, err
	}
	c.cache.SetDefault(key, a)
	return a, nil
}

func (c *Cached) FindPrimaryCandidates(ctx context.Context, limit int) ([]Association, error) {
	key := fmt.Sprintf("primary:%d", limit)
	if v, ok := c.cache.Get(key); ok {
		if list, ok := v.([]Association); ok {
			metrics.RecordCatalogCache(true)
			log.Debug().Str("key", key).Msg("catalog cache hit")
			return list, nil
		}
	}
	metrics.RecordCatalogCache(false)
	list, err := c.next.FindPrimaryCandidates(ctx, limit)
	if err != nil {
		return nil, err
	}
	c.cache.SetDefault(key, list)
	return list, nil
}

func (c *Cached) FindOthers(ctx context.Context, excludeID int64, limit int) ([]Association, error) {
	return c.next.FindOthers(ctx, excludeID, limit)
}

func (c *Cached) ListByNumber(ctx context.Context, number int) ([]Association, error) {
	return c.next.ListByNumber(ctx, number)
}

func (c *Cached) AdjustRating(ctx context.Context, id int64, delta int) (Association, error) {
	a, err := c.next.AdjustRating(ctx, id, delta)
	if err == nil {
		c.cache.Flush()
	}
	return a, err
}

func (c *Cached) Upsert(ctx context.Context, a Association) (Association, error) {
	out, err := c.next.Upsert(ctx, a)
	if err == nil {
		c.cache.Flush()
	}
	return out, err
}
