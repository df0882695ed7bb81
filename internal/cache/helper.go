package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"inkwell/internal/middleware"
	"inkwell/internal/observability"
)

// Cache is the read-through layer. A nil *Cache is valid and always reads the source.
type Cache struct {
	store Store
	ttl   time.Duration
}

// New builds a Cache over store. A non-positive ttl falls back to DefaultTTL.
func New(store Store, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{store: store, ttl: ttl}
}

// getJSON loads key into dest. Returns (true, nil) if found and decoded, (false, nil) if absent.
func (c *Cache) getJSON(ctx context.Context, key string, dest any) (bool, error) {
	b, ok, err := c.store.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(b, dest); err != nil {
		return false, err
	}
	return true, nil
}

// setJSON marshals v and stores it under key with the cache TTL.
func (c *Cache) setJSON(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.store.Set(ctx, key, b, c.ttl)
}

// Aside tries the store first; on a miss it calls fetch, which must populate dest,
// then stores dest under key. Presence is decided by the key, so an empty list is a hit.
// Cache failures are logged and never surface to the caller.
func (c *Cache) Aside(ctx context.Context, key string, dest any, fetch func() error) error {
	if c == nil || c.store == nil {
		return fetch()
	}

	kind := kindOf(key)
	found, err := c.getJSON(ctx, key, dest)
	switch {
	case err != nil:
		observability.CacheLookups.WithLabelValues(kind, "error").Inc()
		middleware.Logger.WarnContext(ctx, "cache read failed, falling through to store",
			slog.String("key", key), slog.String("error", err.Error()))
	case found:
		observability.CacheLookups.WithLabelValues(kind, "hit").Inc()
		return nil
	default:
		observability.CacheLookups.WithLabelValues(kind, "miss").Inc()
	}

	if err := fetch(); err != nil {
		return err
	}

	if err := c.setJSON(ctx, key, dest); err != nil {
		middleware.Logger.WarnContext(ctx, "cache write failed",
			slog.String("key", key), slog.String("error", err.Error()))
	}
	return nil
}

// Invalidate deletes keys. It runs after a successful mutation and before the caller returns.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) {
	if c == nil || c.store == nil || len(keys) == 0 {
		return
	}
	if err := c.store.Delete(ctx, keys...); err != nil {
		middleware.Logger.WarnContext(ctx, "cache invalidation failed",
			slog.Any("keys", keys), slog.String("error", err.Error()))
		return
	}
	for _, k := range keys {
		observability.CacheInvalidations.WithLabelValues(kindOf(k)).Inc()
	}
}
