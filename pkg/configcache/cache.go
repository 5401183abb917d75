// Package configcache is a process-wide store of fetched configuration with
// stale-while-revalidate semantics and deduplication of concurrent fetches.
package configcache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/bhatinags-creator/au-api-banking-sub001/pkg/observability/logger"
	"github.com/bhatinags-creator/au-api-banking-sub001/pkg/observability/metrics"
)

// FetchFunc loads the value for a key. It receives a context detached from the
// requester's cancellation and bounded by the fetch timeout.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Options configures a Cache.
type Options struct {
	Clock Clock
	// FetchTimeout bounds every shared fetch. Zero leaves fetches unbounded.
	FetchTimeout time.Duration
	// RefreshLimiter throttles background refreshes. Nil disables throttling.
	RefreshLimiter *rate.Limiter
	Logger         logger.Logger
	Metrics        *metrics.Engine
}

// Cache serves values from a Store and fetches them when missing, stale or evicted.
type Cache[T any] struct {
	store        Store[T]
	clock        Clock
	fetchTimeout time.Duration
	limiter      *rate.Limiter
	log          logger.Logger
	metrics      *metrics.Engine

	group singleflight.Group

	mu         sync.Mutex
	refreshing map[string]struct{}
	wg         sync.WaitGroup

	// generations counts invalidations per key, environment prefix and domain prefix.
	// Held for reading across a fetch's store write.
	genMu       sync.RWMutex
	generations map[string]uint64
}

// New creates a cache over store.
func New[T any](store Store[T], opts Options) *Cache[T] {
	clock := opts.Clock
	if clock == nil {
		clock = SystemClock
	}
	return &Cache[T]{
		store:        store,
		clock:        clock,
		fetchTimeout: opts.FetchTimeout,
		limiter:      opts.RefreshLimiter,
		log:          logger.OrNop(opts.Logger),
		metrics:      opts.Metrics,
		refreshing:   make(map[string]struct{}),
		generations:  make(map[string]uint64),
	}
}

// GetOrFetch returns the value for key.
//
// A fresh entry is returned without calling fetch. A stale entry is returned
// immediately and one background refresh is started for the key. A missing or
// evicted entry is fetched synchronously; concurrent callers for the same key
// share that fetch and its result. If ctx ends first the caller gets ctx.Err()
// while the shared fetch completes and populates the cache.
func (c *Cache[T]) GetOrFetch(ctx context.Context, key Key, fetch FetchFunc[T], policy Policy) (T, error) {
	policy = policy.normalized()
	k := key.String()

	entry, found, err := c.store.Get(ctx, k)
	if err != nil {
		c.metrics.CacheResult(key.Domain, metrics.CacheError)
		c.log.Warn("config cache read failed", "key", k, "error", err)
		found = false
	}

	if found {
		switch entry.StateAt(c.clock.Now()) {
		case StateFresh:
			c.metrics.CacheResult(key.Domain, metrics.CacheHit)
			return entry.Value, nil
		case StateStale:
			c.metrics.CacheResult(key.Domain, metrics.CacheStale)
			c.refreshAsync(ctx, key, fetch, policy)
			return entry.Value, nil
		case StateEvicted:
			if err := c.store.Delete(ctx, k); err != nil {
				c.log.Warn("config cache evict failed", "key", k, "error", err)
			}
		}
	}

	c.metrics.CacheResult(key.Domain, metrics.CacheMiss)
	ch := c.group.DoChan(k, func() (interface{}, error) {
		return c.fetchAndStore(context.WithoutCancel(ctx), key, fetch, policy)
	})

	select {
	case res := <-ch:
		if res.Shared {
			c.metrics.CacheResult(key.Domain, metrics.CacheShared)
		}
		if res.Err != nil {
			var zero T
			return zero, res.Err
		}
		return res.Val.(T), nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// refreshAsync starts a background refresh unless one is already running for key
// or the refresh limiter denies it.
func (c *Cache[T]) refreshAsync(ctx context.Context, key Key, fetch FetchFunc[T], policy Policy) {
	k := key.String()

	c.mu.Lock()
	if _, running := c.refreshing[k]; running {
		c.mu.Unlock()
		return
	}
	if c.limiter != nil && !c.limiter.Allow() {
		c.mu.Unlock()
		c.metrics.CacheResult(key.Domain, metrics.CacheRefreshSkip)
		c.log.Debug("config refresh throttled", "key", k)
		return
	}
	c.refreshing[k] = struct{}{}
	c.wg.Add(1)
	c.mu.Unlock()

	refreshCtx := context.WithoutCancel(ctx)
	go func() {
		defer c.wg.Done()
		defer func() {
			c.mu.Lock()
			delete(c.refreshing, k)
			c.mu.Unlock()
		}()

		_, err, _ := c.group.Do(k, func() (interface{}, error) {
			return c.fetchAndStore(refreshCtx, key, fetch, policy)
		})
		if err != nil {
			c.metrics.CacheResult(key.Domain, metrics.CacheRefreshError)
			c.log.Warn("config refresh failed, serving stale value",
				"domain", key.Domain,
				"environment", key.Environment,
				"selector", key.Selector,
				"error", err,
			)
			return
		}
		c.metrics.CacheResult(key.Domain, metrics.CacheRefresh)
	}()
}

// fetchAndStore runs inside the singleflight group. It rechecks the store so that
// a caller arriving just after a completed fetch does not fetch again. A value whose
// key was invalidated while it was being fetched is returned but not stored.
func (c *Cache[T]) fetchAndStore(ctx context.Context, key Key, fetch FetchFunc[T], policy Policy) (T, error) {
	k := key.String()
	gen := c.generation(key)
	if entry, found, err := c.store.Get(ctx, k); err == nil && found && entry.StateAt(c.clock.Now()) == StateFresh {
		return entry.Value, nil
	}

	fetchCtx := ctx
	if c.fetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, c.fetchTimeout)
		defer cancel()
	}

	value, err := fetch(fetchCtx)
	if err != nil {
		var zero T
		return zero, err
	}

	entry := Entry[T]{
		Value:      value,
		FetchedAt:  c.clock.Now(),
		StaleAfter: policy.StaleAfter,
		EvictAfter: policy.EvictAfter,
	}
	c.genMu.RLock()
	defer c.genMu.RUnlock()
	if c.generationLocked(key) != gen {
		c.log.Debug("discarding fetch of invalidated key", "key", k)
		return value, nil
	}
	if err := c.store.Set(ctx, k, entry); err != nil {
		c.metrics.CacheResult(key.Domain, metrics.CacheError)
		c.log.Warn("config cache write failed", "key", k, "error", err)
	}
	return value, nil
}

func (c *Cache[T]) generation(key Key) uint64 {
	c.genMu.RLock()
	defer c.genMu.RUnlock()
	return c.generationLocked(key)
}

// generationLocked sums the counters that cover key. They only grow, so the sum
// changes whenever any of them does.
func (c *Cache[T]) generationLocked(key Key) uint64 {
	return c.generations[domainPrefix(key.Domain)] +
		c.generations[environmentPrefix(key.Domain, key.Environment)] +
		c.generations[key.String()]
}

func (c *Cache[T]) bump(scope string) {
	c.genMu.Lock()
	c.generations[scope]++
	c.genMu.Unlock()
}

// Invalidate removes the entry for key. The next read fetches synchronously and a
// fetch already running for key does not store its result.
func (c *Cache[T]) Invalidate(ctx context.Context, key Key) error {
	k := key.String()
	c.bump(k)
	c.group.Forget(k)
	return c.store.Delete(ctx, k)
}

// InvalidateDomain removes every entry of domain.
func (c *Cache[T]) InvalidateDomain(ctx context.Context, domain string) error {
	prefix := domainPrefix(domain)
	c.bump(prefix)
	return c.store.DeletePrefix(ctx, prefix)
}

// InvalidateEnvironment removes every entry of domain in environment, whatever the selector.
func (c *Cache[T]) InvalidateEnvironment(ctx context.Context, domain, environment string) error {
	prefix := environmentPrefix(domain, environment)
	c.bump(prefix)
	return c.store.DeletePrefix(ctx, prefix)
}

// Peek returns the stored entry for key without fetching.
func (c *Cache[T]) Peek(ctx context.Context, key Key) (Entry[T], bool, error) {
	return c.store.Get(ctx, key.String())
}

// Wait blocks until background refreshes started so far have finished.
func (c *Cache[T]) Wait() {
	c.wg.Wait()
}

// Close waits for background refreshes and closes the store.
func (c *Cache[T]) Close() error {
	c.wg.Wait()
	return c.store.Close()
}
