package roadpath

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"

	"stoprouter/internal/geo"
	"stoprouter/internal/metrics"
)

// Cache stores resolved paths by Key.
type Cache interface {
	Get(ctx context.Context, key string) ([]geo.Point, bool)
	Set(ctx context.Context, key string, pts []geo.Point)
}

type caching struct {
	next  Strategy
	cache Cache
}

// WithCache memoizes successful results of next by the exact input sequence.
// Errors are not cached.
func WithCache(next Strategy, c Cache) Strategy {
	if c == nil {
		return next
	}
	return &caching{next: next, cache: c}
}

func (c *caching) Path(ctx context.Context, pts []geo.Point) ([]geo.Point, error) {
	key := Key(pts)
	if out, ok := c.cache.Get(ctx, key); ok {
		metrics.RoutingCache.WithLabelValues("hit").Inc()
		return clonePoints(out), nil
	}
	metrics.RoutingCache.WithLabelValues("miss").Inc()
	out, err := c.next.Path(ctx, pts)
	if err != nil {
		return nil, err
	}
	c.cache.Set(ctx, key, clonePoints(out))
	return out, nil
}

// MemoryCache is a bounded in-process cache; the oldest entry is evicted first.
type MemoryCache struct {
	mu    sync.Mutex
	max   int
	items map[string][]geo.Point
	order []string
}

func NewMemoryCache(max int) *MemoryCache {
	if max <= 0 {
		max = 64
	}
	return &MemoryCache{max: max, items: map[string][]geo.Point{}}
}

func (m *MemoryCache) Get(_ context.Context, key string) ([]geo.Point, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.items[key]
	return v, ok
}

func (m *MemoryCache) Set(_ context.Context, key string, pts []geo.Point) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[key]; !ok {
		m.order = append(m.order, key)
	}
	m.items[key] = pts
	for len(m.order) > m.max {
		delete(m.items, m.order[0])
		m.order = m.order[1:]
	}
}

// Len returns the number of cached paths.
func (m *MemoryCache) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// RedisCache shares resolved paths between processes. Keys are hashed so
// long routes do not produce oversized Redis keys.
type RedisCache struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedisCache(rdb *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisCache{rdb: rdb, prefix: "roadpath:", ttl: ttl, logger: logger}
}

func (c *RedisCache) redisKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return c.prefix + hex.EncodeToString(sum[:])
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]geo.Point, bool) {
	b, err := c.rdb.Get(ctx, c.redisKey(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("roadpath_cache_get_failed", "error", err)
		}
		return nil, false
	}
	var pts []geo.Point
	if err := json.Unmarshal(b, &pts); err != nil {
		c.logger.Warn("roadpath_cache_decode_failed", "error", err)
		return nil, false
	}
	return pts, true
}

func (c *RedisCache) Set(ctx context.Context, key string, pts []geo.Point) {
	b, err := json.Marshal(pts)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, c.redisKey(key), b, c.ttl).Err(); err != nil {
		c.logger.Warn("roadpath_cache_set_failed", "error", err)
	}
}
