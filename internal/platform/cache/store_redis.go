// Copyright (c) 2026 Vendaro. All rights reserved.
// Author: dev@vendaro.app

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements [Store] on a Redis client.
//
// Entries are stored without expiry: the cache's own TTL bookkeeping decides
// freshness, and an "expired" persisted entry is still valuable as the stale
// fallback after a restart.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a Redis-backed cache store under the given key prefix.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

// Get returns the entry for key, or (nil, nil) when absent.
func (store *RedisStore) Get(ctx context.Context, key string) (*Entry, error) {

	// Read the serialized entry
	raw, err := store.client.Get(ctx, store.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis_cache_get_failed: %w", err)
	}

	// Decode the envelope
	entry := &Entry{}
	if err := json.Unmarshal(raw, entry); err != nil {
		return nil, fmt.Errorf("redis_cache_decode_failed: %w", err)
	}

	return entry, nil
}

// Set replaces the entry for key wholesale.
func (store *RedisStore) Set(ctx context.Context, key string, entry *Entry) error {

	// Encode the envelope
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("redis_cache_encode_failed: %w", err)
	}

	// Write without expiry; replacement happens on the next refresh
	if err := store.client.Set(ctx, store.prefix+key, raw, 0).Err(); err != nil {
		return fmt.Errorf("redis_cache_set_failed: %w", err)
	}

	return nil
}

// Delete removes the entry for key.
func (store *RedisStore) Delete(ctx context.Context, key string) error {
	if err := store.client.Del(ctx, store.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis_cache_delete_failed: %w", err)
	}
	return nil
}
