// Copyright (c) 2026 Vendaro. All rights reserved.
// Author: dev@vendaro.app

/*
Package constants provides centralized, immutable values for the entire platform.

It defines default timeouts, cache lifetimes, fetch limits, and cross-cutting
keys that are shared between different layers of the system.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Upstream Fetching: Page sizes, batch widths, and safety ceilings.
  - Cache Lifetimes: TTLs per catalog resource class.
  - Rate Limiting: Burst capacities and IP tracking TTLs.

Using this package ensures Magic Strings and Magic Numbers are eliminated
from the business logic.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "vendaro-api"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	DefaultWriteTimeout = 60 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for the entire request lifecycle.
	// Full catalog walks can take a while, so it is wider than a CRUD API's.
	GlobalRequestTimeout = 60 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second
)

// # Upstream Fetching

const (
	// DefaultPageSize is the per_page value used for catalog walks.
	DefaultPageSize = 100

	// DefaultMaxPages caps how many pages a single walk may request.
	DefaultMaxPages = 30

	// MaxCatalogEntities is the absolute safety ceiling for one walk.
	// A backend that loops or lies about pagination cannot make us collect
	// more than this many records.
	MaxCatalogEntities = 5000

	// FetchBatchSize is how many pages are fetched concurrently per batch
	// for batch-capable resources (brands, locations).
	FetchBatchSize = 3

	// SequentialPageInterval paces 1-by-1 page walks (attribute terms) so a
	// long walk does not hammer the upstream.
	SequentialPageInterval = 50 * time.Millisecond
)

// # Cache Lifetimes

const (
	// CatalogTTL is the freshness window for full brand/location catalogs.
	CatalogTTL = 24 * time.Hour

	// AttributeTermTTL is the freshness window for attribute term lists.
	AttributeTermTTL = 10 * time.Minute

	// TreeTTL is the freshness window for precomputed hierarchy trees.
	TreeTTL = 5 * time.Minute

	// RelayResponseTTL is the freshness window for proxied GET responses.
	RelayResponseTTL = 2 * time.Minute
)

// # Queue

const (
	// ReplayLockTTL is the lease duration for the replay leader lock. A
	// crashed replayer frees the queue for other processes after this long.
	ReplayLockTTL = 60 * time.Second

	// ConnectivityProbeInterval is how often the upstream is probed while
	// deciding online/offline state.
	ConnectivityProbeInterval = 15 * time.Second
)

// # Rate Limiting

const (
	// DefaultRateLimitRPS is the requests per second allowed per IP.
	DefaultRateLimitRPS = 100.0

	// DefaultRateLimitBurst is the maximum burst allowed for the rate limiter.
	DefaultRateLimitBurst = 150

	// RateLimitCleanupInterval is how often old IP entries are removed from memory.
	RateLimitCleanupInterval = 1 * time.Minute

	// RateLimitClientTTL is how long a client must be idle before its entry is deleted.
	RateLimitClientTTL = 3 * time.Minute
)

// # HTTP Headers

const (
	HeaderXRequestID    = "X-Request-ID"
	HeaderOrigin        = "Origin"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXForwardedFor = "X-Forwarded-For"

	// HeaderWPTotal and HeaderWPTotalPages are the WordPress REST pagination
	// totals. Upstreams are allowed to omit them.
	HeaderWPTotal      = "X-WP-Total"
	HeaderWPTotalPages = "X-WP-TotalPages"
)

// # JSON Field Identifiers

const (
	FieldError = "error"
	FieldCode  = "code"
)

// # Redis Prefixes (Cache Taxonomy)

const (
	RedisPrefixCatalog   = "catalog:"
	RedisPrefixRelayResp = "relay:resp:"
	RedisKeyReplayLock   = "queue:replay_lock"
)
