// Copyright (c) 2026 Vendaro. All rights reserved.
// Author: dev@vendaro.app

package cache_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendaro/vendaro/internal/platform/cache"
)

// fakeClock is a controllable time source.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// memStore is an in-memory persisted store for restore/write-through tests.
type memStore struct {
	mu      sync.Mutex
	entries map[string]*cache.Entry
}

func newMemStore() *memStore {
	return &memStore{entries: make(map[string]*cache.Entry)}
}

func (s *memStore) Get(_ context.Context, key string) (*cache.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries[key], nil
}

func (s *memStore) Set(_ context.Context, key string, entry *cache.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = entry
	return nil
}

func (s *memStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

func newTestCache(clock *fakeClock, store cache.Store) *cache.Cache[string] {
	return cache.New[string](cache.Options{
		Store:  store,
		Now:    clock.Now,
		Logger: slog.New(slog.DiscardHandler),
	})
}

func produceValue(value string, calls *int32) cache.Producer[string] {
	return func(context.Context) (string, error) {
		atomic.AddInt32(calls, 1)
		return value, nil
	}
}

/*
TestCache_FreshHitSkipsProducer verifies that a value inside its TTL is
served from memory without another producer call.
*/
func TestCache_FreshHitSkipsProducer(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(clock, nil)
	ctx := context.Background()

	var calls int32
	first, err := c.Get(ctx, "k", time.Minute, false, produceValue("v1", &calls))
	require.NoError(t, err)
	assert.Equal(t, "v1", first)

	clock.Advance(59 * time.Second) // still inside the TTL
	second, err := c.Get(ctx, "k", time.Minute, false, produceValue("v2", &calls))
	require.NoError(t, err)

	assert.Equal(t, "v1", second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

/*
TestCache_ExpiredEntryRefreshes verifies the freshness boundary: at exactly
the TTL the entry is expired and the producer runs again.
*/
func TestCache_ExpiredEntryRefreshes(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(clock, nil)
	ctx := context.Background()

	var calls int32
	_, err := c.Get(ctx, "k", time.Minute, false, produceValue("v1", &calls))
	require.NoError(t, err)

	clock.Advance(time.Minute) // age == ttl is no longer fresh
	value, err := c.Get(ctx, "k", time.Minute, false, produceValue("v2", &calls))
	require.NoError(t, err)

	assert.Equal(t, "v2", value)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

/*
TestCache_ForceBypassesFreshness verifies the force flag refreshes even a
fresh entry.
*/
func TestCache_ForceBypassesFreshness(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(clock, nil)
	ctx := context.Background()

	var calls int32
	_, err := c.Get(ctx, "k", time.Minute, false, produceValue("v1", &calls))
	require.NoError(t, err)

	value, err := c.Get(ctx, "k", time.Minute, true, produceValue("v2", &calls))
	require.NoError(t, err)

	assert.Equal(t, "v2", value)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

/*
TestCache_SingleFlight verifies that concurrent callers of one cold key
share a single producer invocation and all receive its value.
*/
func TestCache_SingleFlight(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(clock, nil)
	ctx := context.Background()

	var calls int32
	gate := make(chan struct{})
	blocking := func(context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		<-gate
		return "shared", nil
	}

	const workers = 10
	results := make(chan string, workers)
	var waitGroup sync.WaitGroup
	for i := 0; i < workers; i++ {
		waitGroup.Add(1)
		go func() {
			defer waitGroup.Done()
			value, err := c.Get(ctx, "k", time.Minute, false, blocking)
			assert.NoError(t, err)
			results <- value
		}()
	}

	close(gate)
	waitGroup.Wait()
	close(results)

	for value := range results {
		assert.Equal(t, "shared", value)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

/*
TestCache_StaleOnError verifies serve-stale-on-error: a failing refresh
falls back to the previous value with no error.
*/
func TestCache_StaleOnError(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(clock, nil)
	ctx := context.Background()

	var calls int32
	_, err := c.Get(ctx, "k", time.Minute, false, produceValue("good", &calls))
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)
	value, err := c.Get(ctx, "k", time.Minute, false, func(context.Context) (string, error) {
		return "", errors.New("upstream down")
	})

	require.NoError(t, err)
	assert.Equal(t, "good", value)
}

/*
TestCache_ErrorWithoutEntryPropagates verifies the only error case: a cold
key whose producer fails.
*/
func TestCache_ErrorWithoutEntryPropagates(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(clock, nil)

	boom := errors.New("upstream down")
	value, err := c.Get(context.Background(), "k", time.Minute, false, func(context.Context) (string, error) {
		return "", boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Empty(t, value)
}

/*
TestCache_SupersededRefreshNeverWins verifies the generation guard: a slow
refresh that was overtaken by a forced one must not overwrite the newer value.
*/
func TestCache_SupersededRefreshNeverWins(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(clock, nil)
	ctx := context.Background()

	gate := make(chan struct{})
	started := make(chan struct{})
	slowDone := make(chan string, 1)

	go func() {
		value, _ := c.Get(ctx, "k", time.Minute, false, func(context.Context) (string, error) {
			close(started)
			<-gate
			return "old", nil
		})
		slowDone <- value
	}()
	<-started

	// A forced refresh overtakes the slow one.
	fresh, err := c.Get(ctx, "k", time.Minute, true, func(context.Context) (string, error) {
		return "new", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "new", fresh)

	// Let the superseded refresh finish; its result reaches its own caller
	// but must not replace the newer cached value.
	close(gate)
	assert.Equal(t, "old", <-slowDone)

	value, freshNow, ok := c.Peek("k", time.Minute)
	require.True(t, ok)
	assert.True(t, freshNow)
	assert.Equal(t, "new", value)
}

/*
TestCache_PeekAndRefreshAsync verifies the stale-while-revalidate building
blocks: Peek never triggers I/O, RefreshAsync refreshes in the background.
*/
func TestCache_PeekAndRefreshAsync(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(clock, nil)
	ctx := context.Background()

	_, _, ok := c.Peek("k", time.Minute)
	assert.False(t, ok)

	var calls int32
	_, err := c.Get(ctx, "k", time.Minute, false, produceValue("v1", &calls))
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)
	value, fresh, ok := c.Peek("k", time.Minute)
	require.True(t, ok)
	assert.False(t, fresh)
	assert.Equal(t, "v1", value)

	refreshed := make(chan struct{})
	c.RefreshAsync(ctx, "k", func(context.Context) (string, error) {
		defer close(refreshed)
		return "v2", nil
	})
	<-refreshed

	// The refresh applies before the flight is resolved for its awaiters,
	// so a follow-up Get observes the new value.
	value, err = c.Get(ctx, "k", time.Minute, false, produceValue("v3", &calls))
	require.NoError(t, err)
	assert.Equal(t, "v2", value)
}

/*
TestCache_RestoresFromStore verifies that a cold process serves a persisted
entry without hitting the producer.
*/
func TestCache_RestoresFromStore(t *testing.T) {
	clock := newFakeClock()
	store := newMemStore()

	raw, err := json.Marshal("persisted")
	require.NoError(t, err)
	require.NoError(t, store.Set(context.Background(), "k", &cache.Entry{
		Value:     raw,
		FetchedAt: clock.Now().Add(-30 * time.Second),
	}))

	c := newTestCache(clock, store)

	var calls int32
	value, err := c.Get(context.Background(), "k", time.Minute, false, produceValue("fresh", &calls))

	require.NoError(t, err)
	assert.Equal(t, "persisted", value)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

/*
TestCache_RestoredEntryServesAsStaleFallback verifies that a persisted entry
past its TTL still rescues a failing producer after a restart.
*/
func TestCache_RestoredEntryServesAsStaleFallback(t *testing.T) {
	clock := newFakeClock()
	store := newMemStore()

	raw, err := json.Marshal("ancient")
	require.NoError(t, err)
	require.NoError(t, store.Set(context.Background(), "k", &cache.Entry{
		Value:     raw,
		FetchedAt: clock.Now().Add(-48 * time.Hour),
	}))

	c := newTestCache(clock, store)
	value, err := c.Get(context.Background(), "k", time.Minute, false, func(context.Context) (string, error) {
		return "", errors.New("upstream down")
	})

	require.NoError(t, err)
	assert.Equal(t, "ancient", value)
}

/*
TestCache_WriteThroughAndInvalidate verifies store write-through on refresh
and deletion on invalidation.
*/
func TestCache_WriteThroughAndInvalidate(t *testing.T) {
	clock := newFakeClock()
	store := newMemStore()
	c := newTestCache(clock, store)
	ctx := context.Background()

	var calls int32
	_, err := c.Get(ctx, "k", time.Minute, false, produceValue("v1", &calls))
	require.NoError(t, err)

	stored, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.JSONEq(t, `"v1"`, string(stored.Value))

	c.Invalidate(ctx, "k")

	_, _, ok := c.Peek("k", time.Minute)
	assert.False(t, ok)
	stored, err = store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, stored)
}

/*
TestCache_InvalidatePrefix verifies prefix eviction across memory and the
persisted store.
*/
func TestCache_InvalidatePrefix(t *testing.T) {
	clock := newFakeClock()
	store := newMemStore()
	c := newTestCache(clock, store)
	ctx := context.Background()

	var calls int32
	for _, key := range []string{"7:wc/v3/products", "7:wc/v3/products?page=2", "7:wc/v3/orders"} {
		_, err := c.Get(ctx, key, time.Minute, false, produceValue("v", &calls))
		require.NoError(t, err)
	}

	c.InvalidatePrefix(ctx, "7:wc/v3/products")

	_, _, ok := c.Peek("7:wc/v3/products", time.Minute)
	assert.False(t, ok)
	_, _, ok = c.Peek("7:wc/v3/products?page=2", time.Minute)
	assert.False(t, ok)
	_, _, ok = c.Peek("7:wc/v3/orders", time.Minute)
	assert.True(t, ok, "unrelated key must survive")
}
