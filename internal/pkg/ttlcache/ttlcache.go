// Package ttlcache holds a single lazily computed value that expires after a
// fixed wall-clock TTL. There is no explicit invalidation: an expired value is
// simply recomputed on the next Get.
package ttlcache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"product-listing-service/internal/pkg/clock"
)

// LoadFunc computes a fresh value.
type LoadFunc[T any] func(ctx context.Context) (T, error)

// Cache is a get-or-recompute holder for one value of type T.
type Cache[T any] struct {
	ttl   time.Duration
	clock clock.Clock
	group singleflight.Group

	mu        sync.RWMutex
	value     T
	expiresAt time.Time
	loaded    bool
}

// New creates a cache whose values live for ttl. A nil clock uses the system clock.
func New[T any](ttl time.Duration, clk clock.Clock) *Cache[T] {
	if clk == nil {
		clk = clock.NewRealClock()
	}
	return &Cache[T]{ttl: ttl, clock: clk}
}

// Get returns the cached value while it is fresh, otherwise calls load and
// stores its result. Concurrent misses share a single load, which runs detached
// from any one caller's cancellation; each caller still stops waiting when its
// own ctx is done. Errors are not cached.
func (c *Cache[T]) Get(ctx context.Context, load LoadFunc[T]) (T, error) {
	var zero T
	if v, ok := c.fresh(); ok {
		return v, nil
	}

	loadCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan("value", func() (interface{}, error) {
		if v, ok := c.fresh(); ok {
			return v, nil
		}
		v, err := load(loadCtx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.value = v
		c.expiresAt = c.clock.Now().Add(c.ttl)
		c.loaded = true
		c.mu.Unlock()
		return v, nil
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}

func (c *Cache[T]) fresh() (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.loaded && c.clock.Now().Before(c.expiresAt) {
		return c.value, true
	}
	var zero T
	return zero, false
}
