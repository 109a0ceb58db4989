package hyperliquid

import (
	"context"
	"sync"
	"time"

	"whaleflow/logger"
)

// universeCache holds one reference universe with a short TTL. A stale slot
// is served when a refresh fails, so transient upstream trouble never blanks
// out instrument resolution.
type universeCache struct {
	mu      sync.Mutex
	value   []string
	fetched time.Time
	ttl     time.Duration
	now     func() time.Time
}

func newUniverseCache(ttl time.Duration) *universeCache {
	return &universeCache{
		ttl: ttl,
		now: time.Now,
	}
}

func (c *universeCache) get(ctx context.Context, fetch func(context.Context) ([]string, error)) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.value != nil && c.now().Sub(c.fetched) < c.ttl {
		logger.IncrementCacheHit()
		return c.value, nil
	}

	logger.IncrementCacheMiss()
	fresh, err := fetch(ctx)
	if err != nil {
		if c.value != nil {
			return c.value, nil
		}
		return nil, err
	}

	c.value = fresh
	c.fetched = c.now()
	return fresh, nil
}
