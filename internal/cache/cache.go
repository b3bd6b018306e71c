// Package cache provides the time-bounded key-value cache shared by the
// source adapters. Values are raw upstream payloads and are never mutated
// after they are stored.
package cache

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Store is the contract the in-memory store and the redis store satisfy.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// ComputeFunc produces the value for a missing key.
type ComputeFunc func(ctx context.Context) ([]byte, error)

// Cache adds get-or-compute semantics on top of a Store. Concurrent misses on
// the same key share one computation.
type Cache struct {
	store  Store
	group  singleflight.Group
	logger *zap.Logger
}

// New creates a Cache backed by store.
func New(store Store, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		store:  store,
		logger: logger,
	}
}

// GetOrCompute returns the value cached under key, or computes, stores and
// returns it. Store failures are logged and treated as a miss; compute errors
// are returned and nothing is stored.
//
// The shared computation is detached from the caller that started it, so one
// caller giving up does not fail the others waiting on the same key. Each
// caller stops waiting when its own ctx ends; compute must bound itself.
func (c *Cache) GetOrCompute(ctx context.Context, key string, ttl time.Duration, compute ComputeFunc) ([]byte, error) {
	if value, ok := c.lookup(ctx, key); ok {
		return value, nil
	}

	ch := c.group.DoChan(key, func() (interface{}, error) {
		sharedCtx := context.WithoutCancel(ctx)

		// Another caller may have populated the key while we waited.
		if value, ok := c.lookup(sharedCtx, key); ok {
			return value, nil
		}

		value, err := compute(sharedCtx)
		if err != nil {
			return nil, err
		}

		if err := c.store.Set(sharedCtx, key, value, ttl); err != nil {
			c.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
		}
		return value, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			c.logger.Debug("cache computation shared", zap.String("key", key))
		}
		value, _ := res.Val.([]byte)
		return value, nil
	}
}

// Evict removes key so the next lookup recomputes it.
func (c *Cache) Evict(ctx context.Context, key string) {
	if err := c.store.Delete(ctx, key); err != nil {
		c.logger.Warn("cache evict failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *Cache) lookup(ctx context.Context, key string) ([]byte, bool) {
	value, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if ok {
		c.logger.Debug("cache hit", zap.String("key", key))
	}
	return value, ok
}
