// Copyright (c) 2026 Vendaro. All rights reserved.
// Author: dev@vendaro.app

package queue

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vendaro/vendaro/pkg/uuidv7"
)

// ReplayLock serializes replay passes across processes sharing one store.
// Losing the race is not an error; the loser simply skips its pass.
type ReplayLock interface {
	// Acquire attempts to take the replay lease. On success it returns a
	// release func and true; on contention it returns false.
	Acquire(ctx context.Context) (release func(), acquired bool)
}

// RedisLock is a lease-based [ReplayLock] using SET NX with a TTL, so a
// crashed holder frees the lease once the TTL lapses.
type RedisLock struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisLock constructs a lock on the given key.
func NewRedisLock(client *redis.Client, key string, ttl time.Duration) *RedisLock {
	return &RedisLock{client: client, key: key, ttl: ttl}
}

func (l *RedisLock) Acquire(ctx context.Context) (func(), bool) {
	token := uuidv7.New()

	ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil || !ok {
		// On a redis error we do not replay; the next trigger retries.
		return nil, false
	}

	release := func() {
		// Delete only our own lease; a lapsed TTL may have handed the
		// key to another process.
		current, err := l.client.Get(context.Background(), l.key).Result()
		if err == nil && current == token {
			l.client.Del(context.Background(), l.key)
		}
	}
	return release, true
}
