package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/inkvault/backend/internal/logger"
	"github.com/inkvault/backend/internal/metrics"
	"go.uber.org/zap"
)

// EntityCache stores JSON encoded values of T. Backend errors and undecodable
// entries are logged, counted and reported as a miss.
type EntityCache[T any] struct {
	name    string
	backend Backend
	ttl     time.Duration
}

// NewEntityCache creates a cache labelled name in metrics and logs
func NewEntityCache[T any](name string, backend Backend, ttl time.Duration) *EntityCache[T] {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &EntityCache[T]{name: name, backend: backend, ttl: ttl}
}

// Get looks up key. The bool is false on any kind of miss.
func (c *EntityCache[T]) Get(ctx context.Context, key string) (*T, bool) {
	if c == nil || c.backend == nil {
		return nil, false
	}
	m := metrics.Get()

	raw, err := c.backend.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrMiss) {
			c.fail(ctx, "get", key, err)
		}
		m.CacheMissesTotal.WithLabelValues(c.name).Inc()
		return nil, false
	}

	var v T
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		c.fail(ctx, "decode", key, err)
		m.CacheMissesTotal.WithLabelValues(c.name).Inc()
		return nil, false
	}
	m.CacheHitsTotal.WithLabelValues(c.name).Inc()
	return &v, true
}

// Set writes one entry. Failures are logged and returned for callers that care.
func (c *EntityCache[T]) Set(ctx context.Context, key string, v T) error {
	if c == nil || c.backend == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		c.fail(ctx, "encode", key, err)
		return err
	}
	if err := c.backend.SetEx(ctx, key, string(raw), c.ttl); err != nil {
		c.fail(ctx, "set", key, err)
		return err
	}
	return nil
}

// SetMany writes all entries in one backend call
func (c *EntityCache[T]) SetMany(ctx context.Context, entries map[string]T) error {
	if c == nil || c.backend == nil || len(entries) == 0 {
		return nil
	}
	encoded := make(map[string]string, len(entries))
	for k, v := range entries {
		raw, err := json.Marshal(v)
		if err != nil {
			c.fail(ctx, "encode", k, err)
			return err
		}
		encoded[k] = string(raw)
	}
	if err := c.backend.SetManyEx(ctx, encoded, c.ttl); err != nil {
		c.fail(ctx, "set_many", "", err)
		return err
	}
	return nil
}

// Invalidate removes keys
func (c *EntityCache[T]) Invalidate(ctx context.Context, keys ...string) error {
	if c == nil || c.backend == nil || len(keys) == 0 {
		return nil
	}
	if err := c.backend.Del(ctx, keys...); err != nil {
		c.fail(ctx, "del", keys[0], err)
		return err
	}
	return nil
}

func (c *EntityCache[T]) fail(ctx context.Context, op, key string, err error) {
	metrics.Get().CacheErrorsTotal.WithLabelValues(c.name, op).Inc()
	logger.For(ctx).Warn("cache operation failed",
		zap.String("cache", c.name),
		zap.String("operation", op),
		logger.WithCacheKey(key),
		logger.WithError(err))
}
