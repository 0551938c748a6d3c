// Copyright (c) 2026 Vendaro. All rights reserved.
// Author: dev@vendaro.app

/*
Package cache provides a TTL cache with single-flight refresh and
serve-stale-on-error semantics.

It shields the upstream marketplace API from redundant full-catalog walks:
a fresh entry is served from memory with zero network cost, an expired entry
triggers exactly one producer call no matter how many callers race for it,
and a failing producer falls back to the last known value.

Architecture:

  - Constructor-injected clock and persisted store, so tests can freeze time
    and production can survive process restarts (Redis backing).
  - Entries are replaced wholesale, never mutated in place.
  - A per-key refresh sequence guarantees a superseded in-flight refresh can
    never overwrite a newer completed result.
*/
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"
)

// Producer computes a fresh value for a cache key.
type Producer[T any] func(ctx context.Context) (T, error)

// Options configures a [Cache].
type Options struct {
	// Store is an optional persisted backing store. When set, entries are
	// written through on refresh and restored on a cold memory miss.
	Store Store

	// Now is the clock source. Defaults to [time.Now].
	Now func() time.Time

	// Logger receives refresh and persistence events. Defaults to slog.Default().
	Logger *slog.Logger
}

// memEntry is an immutable snapshot of one cached value.
type memEntry[T any] struct {
	value     T
	fetchedAt time.Time
}

// flight is one in-progress producer invocation that concurrent callers join.
type flight[T any] struct {
	done  chan struct{}
	value T
	err   error
}

// Cache is a process-wide TTL cache for values of type T.
//
// All methods are safe for concurrent use.
type Cache[T any] struct {
	mu      sync.Mutex
	entries map[string]memEntry[T]
	flights map[string]*flight[T]

	// seq hands out refresh generations per key; applied records the newest
	// generation whose result has been written. A completing refresh only
	// writes if its generation is newer than the last applied one, so cache
	// reads never observe a value going backwards in time.
	seq     map[string]uint64
	applied map[string]uint64

	store Store
	now   func() time.Time
	log   *slog.Logger
}

// New constructs a [Cache] from the given options.
func New[T any](opts Options) *Cache[T] {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Cache[T]{
		entries: make(map[string]memEntry[T]),
		flights: make(map[string]*flight[T]),
		seq:     make(map[string]uint64),
		applied: make(map[string]uint64),
		store:   opts.Store,
		now:     now,
		log:     logger,
	}
}

// Get returns the value for key, refreshing it through produce when needed.
//
// # Behavior
//
//   - Fresh entry (age < ttl, not forced): returned without calling produce.
//   - Expired or forced: produce runs under single-flight; concurrent callers
//     of the same key await the one in-flight call instead of stacking more.
//   - Producer failure with a prior entry: the stale value is returned with a
//     nil error (serve-stale-on-error).
//   - Producer failure with no prior entry: the zero value and the error are
//     returned; this is the only case that propagates an error.
func (c *Cache[T]) Get(ctx context.Context, key string, ttl time.Duration, force bool, produce Producer[T]) (T, error) {
	c.mu.Lock()

	entry, hasEntry := c.entries[key]
	if hasEntry && !force && c.now().Sub(entry.fetchedAt) < ttl {
		c.mu.Unlock()
		return entry.value, nil
	}

	// Cold start: the process may have a persisted copy from a previous run.
	if !hasEntry && c.store != nil {
		c.mu.Unlock()
		if restored, ok := c.restore(ctx, key); ok {
			c.mu.Lock()
			if populated, raced := c.entries[key]; raced {
				// Someone else populated the key while we read the store.
				entry, hasEntry = populated, true
			} else {
				c.entries[key] = restored
				entry, hasEntry = restored, true
			}
			if !force && c.now().Sub(entry.fetchedAt) < ttl {
				c.mu.Unlock()
				return entry.value, nil
			}
		} else {
			c.mu.Lock()
		}
	}

	// Join an in-flight refresh unless the caller demands a fresh walk.
	if f, inFlight := c.flights[key]; inFlight && !force {
		c.mu.Unlock()
		return c.await(ctx, key, f)
	}

	f, generation := c.startFlightLocked(key)
	c.mu.Unlock()

	c.runFlight(ctx, key, f, generation, produce)
	return c.await(ctx, key, f)
}

// Peek returns the current entry for key without triggering any refresh.
//
// The second result reports whether the entry is still fresh for the given
// ttl; the third reports whether an entry exists at all. Callers implementing
// stale-while-revalidate use Peek plus [Cache.RefreshAsync].
func (c *Cache[T]) Peek(key string, ttl time.Duration) (T, bool, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		var zero T
		return zero, false, false
	}

	return entry.value, c.now().Sub(entry.fetchedAt) < ttl, true
}

// RefreshAsync starts a background refresh for key unless one is already in
// flight. It never blocks the caller.
func (c *Cache[T]) RefreshAsync(ctx context.Context, key string, produce Producer[T]) {
	c.mu.Lock()
	if _, inFlight := c.flights[key]; inFlight {
		c.mu.Unlock()
		return
	}
	f, generation := c.startFlightLocked(key)
	c.mu.Unlock()

	go c.runFlight(ctx, key, f, generation, produce)
}

// Invalidate drops the entry for key from memory and the persisted store.
func (c *Cache[T]) Invalidate(ctx context.Context, key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()

	if c.store != nil {
		if err := c.store.Delete(ctx, key); err != nil {
			c.log.Warn("cache_store_delete_failed", slog.String("key", key), slog.Any("error", err))
		}
	}
}

// InvalidatePrefix drops every entry whose key starts with prefix.
//
// The relay uses this after a successful mutation to evict all cached reads
// of the affected resource, whatever their query parameters.
func (c *Cache[T]) InvalidatePrefix(ctx context.Context, prefix string) {
	c.mu.Lock()
	var dropped []string
	for key := range c.entries {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			delete(c.entries, key)
			dropped = append(dropped, key)
		}
	}
	c.mu.Unlock()

	if c.store == nil {
		return
	}
	for _, key := range dropped {
		if err := c.store.Delete(ctx, key); err != nil {
			c.log.Warn("cache_store_delete_failed", slog.String("key", key), slog.Any("error", err))
		}
	}
}

// Clear drops every entry from memory. Persisted copies are left to be
// replaced wholesale by the next refresh.
func (c *Cache[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]memEntry[T])
	c.applied = make(map[string]uint64)
}

// # Internals

// startFlightLocked registers a new in-flight refresh. Caller holds c.mu.
func (c *Cache[T]) startFlightLocked(key string) (*flight[T], uint64) {
	c.seq[key]++
	f := &flight[T]{done: make(chan struct{})}
	c.flights[key] = f
	return f, c.seq[key]
}

// runFlight executes the producer and applies its result.
func (c *Cache[T]) runFlight(ctx context.Context, key string, f *flight[T], generation uint64, produce Producer[T]) {
	value, err := produce(ctx)

	c.mu.Lock()
	f.value, f.err = value, err
	if err == nil && generation > c.applied[key] {
		c.applied[key] = generation
		c.entries[key] = memEntry[T]{value: value, fetchedAt: c.now()}
	}
	if c.flights[key] == f {
		delete(c.flights, key)
	}
	fetchedAt := c.now()
	c.mu.Unlock()

	close(f.done)

	if err != nil {
		c.log.Warn("cache_refresh_failed", slog.String("key", key), slog.Any("error", err))
		return
	}
	c.persist(ctx, key, value, fetchedAt)
}

// await blocks until the flight completes, then resolves the caller's value
// with the stale fallback rules.
func (c *Cache[T]) await(ctx context.Context, key string, f *flight[T]) (T, error) {
	select {
	case <-f.done:
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}

	if f.err == nil {
		return f.value, nil
	}

	// Producer failed: a stale value beats an error for every caller of this
	// cache (they all ultimately render UI).
	c.mu.Lock()
	entry, hasEntry := c.entries[key]
	c.mu.Unlock()
	if hasEntry {
		return entry.value, nil
	}

	var zero T
	return zero, f.err
}

// restore loads a persisted entry after a process restart.
func (c *Cache[T]) restore(ctx context.Context, key string) (memEntry[T], bool) {
	stored, err := c.store.Get(ctx, key)
	if err != nil {
		c.log.Warn("cache_store_read_failed", slog.String("key", key), slog.Any("error", err))
		return memEntry[T]{}, false
	}
	if stored == nil {
		return memEntry[T]{}, false
	}

	var value T
	if err := json.Unmarshal(stored.Value, &value); err != nil {
		c.log.Warn("cache_store_decode_failed", slog.String("key", key), slog.Any("error", err))
		return memEntry[T]{}, false
	}

	return memEntry[T]{value: value, fetchedAt: stored.FetchedAt}, true
}

// persist writes an entry through to the backing store, best effort.
func (c *Cache[T]) persist(ctx context.Context, key string, value T, fetchedAt time.Time) {
	if c.store == nil {
		return
	}

	raw, err := json.Marshal(value)
	if err != nil {
		c.log.Warn("cache_store_encode_failed", slog.String("key", key), slog.Any("error", err))
		return
	}

	if err := c.store.Set(ctx, key, &Entry{Value: raw, FetchedAt: fetchedAt}); err != nil {
		c.log.Warn("cache_store_write_failed", slog.String("key", key), slog.Any("error", err))
	}
}
