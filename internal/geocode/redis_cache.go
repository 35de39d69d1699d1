package geocode

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/example/disaster-portal/internal/models"
)

// RedisCache shares geocode results across portal instances. Errors are
// swallowed: a broken cache degrades to lookups, never to failures.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisCache(addr, password, prefix string, ttl time.Duration) *RedisCache {
	c := redis.NewClient(&redis.Options{Addr: addr, Password: password})
	return &RedisCache{client: c, prefix: prefix, ttl: ttl}
}

func (r *RedisCache) Get(ctx context.Context, coord models.Coordinate) (models.Place, bool) {
	raw, err := r.client.Get(ctx, r.key(coord)).Result()
	if err != nil {
		return models.Place{}, false
	}
	var p models.Place
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return models.Place{}, false
	}
	return p, true
}

func (r *RedisCache) Set(ctx context.Context, coord models.Coordinate, place models.Place) {
	b, err := json.Marshal(place)
	if err != nil {
		return
	}
	_ = r.client.Set(ctx, r.key(coord), b, r.ttl).Err()
}

func (r *RedisCache) Close() error { return r.client.Close() }

func (r *RedisCache) key(coord models.Coordinate) string {
	return r.prefix + ":" + cacheKey(coord)
}
