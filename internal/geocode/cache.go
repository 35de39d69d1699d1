package geocode

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/example/disaster-portal/internal/models"
	"github.com/example/disaster-portal/internal/observability"
)

// Cache fronts a Geocoder so that repeated reports from the same spot do
// not hammer the external service. Degraded results are never cached; a
// later lookup may succeed.
type Cache interface {
	Get(ctx context.Context, coord models.Coordinate) (models.Place, bool)
	Set(ctx context.Context, coord models.Coordinate, place models.Place)
}

// cacheKey rounds to ~11 m so nearby fixes share an entry.
func cacheKey(c models.Coordinate) string {
	return fmt.Sprintf("%.4f,%.4f", c.Lat, c.Lon)
}

// MemoryCache is a tiny in-memory TTL cache keyed by rounded coordinates.
type MemoryCache struct {
	mu    sync.RWMutex
	store map[string]memoryEntry
	ttl   time.Duration
}

type memoryEntry struct {
	p  models.Place
	ts time.Time
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{store: make(map[string]memoryEntry), ttl: ttl}
}

func (c *MemoryCache) Get(_ context.Context, coord models.Coordinate) (models.Place, bool) {
	k := cacheKey(coord)
	c.mu.RLock()
	e, ok := c.store[k]
	c.mu.RUnlock()
	if !ok {
		return models.Place{}, false
	}
	if time.Since(e.ts) > c.ttl {
		c.mu.Lock()
		delete(c.store, k)
		c.mu.Unlock()
		return models.Place{}, false
	}
	return e.p, true
}

func (c *MemoryCache) Set(_ context.Context, coord models.Coordinate, place models.Place) {
	k := cacheKey(coord)
	c.mu.Lock()
	c.store[k] = memoryEntry{p: place, ts: time.Now()}
	c.mu.Unlock()
}

// Cached wraps a Geocoder with a Cache. Still fail-open end to end.
type Cached struct {
	inner Geocoder
	cache Cache
}

func WithCache(inner Geocoder, cache Cache) *Cached {
	return &Cached{inner: inner, cache: cache}
}

func (c *Cached) Reverse(ctx context.Context, coord models.Coordinate) models.Place {
	if p, ok := c.cache.Get(ctx, coord); ok {
		observability.GeocodeCacheHits.Inc()
		return p
	}
	p := c.inner.Reverse(ctx, coord)
	if p != Degraded {
		c.cache.Set(ctx, coord, p)
	}
	return p
}
