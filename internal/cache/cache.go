package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// TTLConfig holds the per-namespace expiry policy for the entries this
// service writes. Search results are short-lived, suggestions longer,
// facet summaries longest. Item detail entries carry no TTL here: the
// listing service writes them into the shared Redis and owns their expiry;
// search only deletes them on mutation.
type TTLConfig struct {
	Search  time.Duration
	Suggest time.Duration
	Facets  time.Duration
}

// DefaultTTLConfig returns the default expiry policy.
func DefaultTTLConfig() TTLConfig {
	return TTLConfig{
		Search:  5 * time.Minute,
		Suggest: 30 * time.Minute,
		Facets:  time.Hour,
	}
}

// Cache is a capability-checked, cache-aside layer over Redis. Every
// failure is absorbed: a broken cache degrades to a miss, never to a
// failed request. After an operation error the client is marked degraded
// and subsequent operations short-circuit until a probe succeeds.
type Cache struct {
	client        *redis.Client
	logger        *slog.Logger
	ttl           TTLConfig
	degraded      atomic.Bool
	lastProbe     atomic.Int64 // unix nanos of the last availability probe
	probeInterval time.Duration
}

// New creates a cache layer over the given Redis client.
func New(client *redis.Client, ttl TTLConfig, logger *slog.Logger) *Cache {
	return &Cache{
		client:        client,
		logger:        logger,
		ttl:           ttl,
		probeInterval: 15 * time.Second,
	}
}

// TTL exposes the configured expiry policy.
func (c *Cache) TTL() TTLConfig {
	return c.ttl
}

// Ping checks Redis connectivity; used by the readiness endpoint.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// usable reports whether cache operations should be attempted at all.
// While degraded, one probe per interval is allowed through to detect
// recovery; everything else short-circuits to a miss.
func (c *Cache) usable(ctx context.Context) bool {
	if c.client == nil {
		return false
	}
	if !c.degraded.Load() {
		return true
	}

	last := c.lastProbe.Load()
	now := time.Now().UnixNano()
	if now-last < c.probeInterval.Nanoseconds() {
		return false
	}
	if !c.lastProbe.CompareAndSwap(last, now) {
		// Another request is already probing.
		return false
	}

	if err := c.client.Ping(ctx).Err(); err != nil {
		return false
	}

	c.degraded.Store(false)
	c.logger.Info("cache connection recovered")
	return true
}

func (c *Cache) markDegraded(err error) {
	if c.degraded.CompareAndSwap(false, true) {
		c.lastProbe.Store(time.Now().UnixNano())
		c.logger.Warn("cache degraded, falling through to direct compute",
			slog.String("error", err.Error()),
		)
	}
}

// lookup fetches and decodes a cached entry into dest. A miss, a broken
// connection, and a corrupt entry all count as "not found".
func (c *Cache) lookup(ctx context.Context, key string, dest any) bool {
	if !c.usable(ctx) {
		return false
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.markDegraded(err)
		}
		return false
	}

	if err := json.Unmarshal(data, dest); err != nil {
		c.logger.Warn("discarding corrupt cache entry",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return false
	}
	return true
}

// store writes a computed value with the given TTL. Failures are logged
// and dropped without retry.
func (c *Cache) store(ctx context.Context, key string, value any, ttl time.Duration) {
	if !c.usable(ctx) {
		return
	}

	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("failed to marshal cache entry",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		c.markDegraded(err)
	}
}

// GetOrCompute returns the cached value under key when present, otherwise
// calls compute, stores the result with the given TTL, and returns it.
// The bool reports whether the value came from the cache. Compute errors
// are the only errors that propagate.
func GetOrCompute[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, compute func(context.Context) (T, error)) (T, bool, error) {
	var cached T
	if c.lookup(ctx, key, &cached) {
		return cached, true, nil
	}

	value, err := compute(ctx)
	if err != nil {
		var zero T
		return zero, false, err
	}

	c.store(ctx, key, value, ttl)
	return value, false, nil
}

// PurgeNamespaces deletes every key in the given namespaces. Invalidation
// is deliberately coarse: any catalog mutation clears all cached search
// state rather than tracking which results reference which items.
func (c *Cache) PurgeNamespaces(ctx context.Context, namespaces ...string) {
	if !c.usable(ctx) {
		return
	}

	for _, ns := range namespaces {
		pattern := ns + ":*"
		iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()

		var batch []string
		flush := func() {
			if len(batch) == 0 {
				return
			}
			if err := c.client.Del(ctx, batch...).Err(); err != nil {
				c.markDegraded(err)
			}
			batch = batch[:0]
		}

		for iter.Next(ctx) {
			batch = append(batch, iter.Val())
			if len(batch) >= 100 {
				flush()
			}
		}
		flush()

		if err := iter.Err(); err != nil {
			c.markDegraded(err)
			return
		}

		c.logger.Debug("purged cache namespace", slog.String("pattern", pattern))
	}
}

// InvalidateItem removes the per-item detail entry (written by the listing
// service into the shared Redis) and purges the search, suggestion, and
// facet namespaces. Called on every item mutation.
func (c *Cache) InvalidateItem(ctx context.Context, itemID string) {
	if c.usable(ctx) {
		if err := c.client.Del(ctx, ItemKey(itemID)).Err(); err != nil {
			c.markDegraded(err)
		}
	}
	c.PurgeNamespaces(ctx, NamespaceSearch, NamespaceSuggest, NamespaceFacets)
}
