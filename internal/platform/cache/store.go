// Copyright (c) 2026 Vendaro. All rights reserved.
// Author: dev@vendaro.app

package cache

import (
	"context"
	"encoding/json"
	"time"
)

// Entry is the serialized form of one cached value.
//
// The raw JSON keeps the store generic: it never needs to know the concrete
// value type a [Cache] instance carries.
type Entry struct {
	Value     json.RawMessage `json:"value"`
	FetchedAt time.Time       `json:"fetched_at"`
}

// Store is a persisted key-value backing for a [Cache].
//
// An in-memory cache works with a nil Store; a Store is only required when
// cached catalogs must survive a process restart.
type Store interface {
	// Get returns the entry for key, or (nil, nil) when absent.
	Get(ctx context.Context, key string) (*Entry, error)

	// Set replaces the entry for key wholesale.
	Set(ctx context.Context, key string, entry *Entry) error

	// Delete removes the entry for key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
