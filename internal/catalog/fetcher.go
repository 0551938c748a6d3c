// Copyright (c) 2026 Vendaro. All rights reserved.
// Author: dev@vendaro.app

/*
Package catalog aggregates paginated upstream catalog resources (brands,
store locations, attribute terms) into deduplicated flat lists and derived
hierarchy trees, cached per resource.

The aggregation is deliberately fail-soft: a partial catalog is always
preferable to a blocked storefront, so per-page failures cost only that
page's contribution and total failure of a walk falls back to the cache's
stale value.
*/
package catalog

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/time/rate"

	"github.com/vendaro/vendaro/internal/platform/constants"
	"github.com/vendaro/vendaro/internal/upstream"
)

// ErrWalkFailed reports that a walk collected nothing because its very first
// page request failed. Partial failures never produce this error.
var ErrWalkFailed = errors.New("catalog: first page fetch failed")

// FetchMode selects how pages after the first are requested.
type FetchMode int

const (
	// ModeSequential walks pages one by one with a pacing delay between
	// requests. Used for attribute terms, which can span many small pages.
	ModeSequential FetchMode = iota

	// ModeBatched fetches small groups of pages concurrently. Used for
	// brands and locations, where the page count is known to be modest.
	ModeBatched
)

// PageFetcher is the single upstream capability the fetcher needs.
type PageFetcher interface {
	FetchPage(ctx context.Context, resource string, page, perPage int, token string) (*upstream.Page, error)
}

// WalkOptions tunes one collection walk.
type WalkOptions struct {
	// PageSize is the per_page value. Defaults to constants.DefaultPageSize.
	PageSize int

	// MaxPages caps the walk. Defaults to constants.DefaultMaxPages.
	MaxPages int

	// Mode selects sequential or batched fetching of pages 2..N.
	Mode FetchMode

	// Token is forwarded as the Authorization bearer on every page request.
	Token string
}

// Fetcher walks paginated upstream collections.
type Fetcher struct {
	client PageFetcher
	log    *slog.Logger

	// pace throttles sequential walks; batched walks self-limit via batch width.
	pace        *rate.Limiter
	batchSize   int
	maxEntities int
}

// NewFetcher constructs a [Fetcher] with the platform's default limits.
func NewFetcher(client PageFetcher, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		client:      client,
		log:         logger,
		pace:        rate.NewLimiter(rate.Every(constants.SequentialPageInterval), 1),
		batchSize:   constants.FetchBatchSize,
		maxEntities: constants.MaxCatalogEntities,
	}
}

// FetchAll walks resource page by page and returns the deduplicated union of
// every page's normalized entities.
//
// # Termination
//
// The walk ends at the first of: an empty page, a short page (< PageSize
// items), MaxPages requested, or the absolute entity ceiling. A page request
// that fails contributes zero items but does not end the walk; backends
// occasionally 500 on a single page while the rest of the catalog is fine.
//
// # Errors
//
// The only error case is a failed first page, where nothing at all could be
// collected; the caller's cache layer turns that into a stale-value fallback.
func (f *Fetcher) FetchAll(ctx context.Context, resource string, opts WalkOptions) ([]upstream.Entity, error) {
	if opts.PageSize <= 0 {
		opts.PageSize = constants.DefaultPageSize
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = constants.DefaultMaxPages
	}

	collector := newCollector(f.maxEntities)

	firstPage, err := f.client.FetchPage(ctx, resource, 1, opts.PageSize, opts.Token)
	if err != nil {
		f.log.Warn("catalog_walk_aborted",
			slog.String("resource", resource),
			slog.Any("error", err),
		)
		return nil, ErrWalkFailed
	}

	collector.add(firstPage.Items)

	// The common case: the whole resource fits in one page. Short-page
	// detection counts raw records, since normalization may have dropped some.
	if firstPage.RawCount < opts.PageSize || collector.full() {
		return collector.entities, nil
	}

	lastPage := opts.MaxPages
	if firstPage.TotalPages > 0 && firstPage.TotalPages < lastPage {
		lastPage = firstPage.TotalPages
	}

	switch opts.Mode {
	case ModeBatched:
		f.walkBatched(ctx, resource, opts, collector, lastPage)
	default:
		f.walkSequential(ctx, resource, opts, collector, lastPage)
	}

	f.log.Info("catalog_walk_finished",
		slog.String("resource", resource),
		slog.Int("entities", len(collector.entities)),
	)

	return collector.entities, nil
}

// walkSequential fetches pages 2..lastPage one by one, paced.
func (f *Fetcher) walkSequential(ctx context.Context, resource string, opts WalkOptions, collector *collector, lastPage int) {
	for page := 2; page <= lastPage; page++ {
		if err := f.pace.Wait(ctx); err != nil {
			return
		}

		result, err := f.client.FetchPage(ctx, resource, page, opts.PageSize, opts.Token)
		if err != nil {
			// This page contributes nothing; the walk continues.
			f.log.Warn("catalog_page_failed",
				slog.String("resource", resource),
				slog.Int("page", page),
				slog.Any("error", err),
			)
			continue
		}

		collector.add(result.Items)

		if result.RawCount < opts.PageSize || collector.full() {
			return
		}
	}
}

// walkBatched fetches pages 2..lastPage in concurrent batches.
//
// Batch width caps concurrent outbound connections to the upstream. Pages in
// a batch are merged in ascending page order so the dedup outcome matches a
// sequential walk even when responses arrive reordered.
func (f *Fetcher) walkBatched(ctx context.Context, resource string, opts WalkOptions, collector *collector, lastPage int) {
	for batchStart := 2; batchStart <= lastPage; batchStart += f.batchSize {
		batchEnd := batchStart + f.batchSize - 1
		if batchEnd > lastPage {
			batchEnd = lastPage
		}

		pages := make([]*upstream.Page, batchEnd-batchStart+1)
		var waitGroup sync.WaitGroup

		for page := batchStart; page <= batchEnd; page++ {
			waitGroup.Add(1)
			go func(page int) {
				defer waitGroup.Done()
				result, err := f.client.FetchPage(ctx, resource, page, opts.PageSize, opts.Token)
				if err != nil {
					f.log.Warn("catalog_page_failed",
						slog.String("resource", resource),
						slog.Int("page", page),
						slog.Any("error", err),
					)
					return
				}
				pages[page-batchStart] = result
			}(page)
		}
		waitGroup.Wait()

		for _, result := range pages {
			if result == nil {
				// Failed page: zero contribution, keep walking.
				continue
			}

			collector.add(result.Items)

			if result.RawCount < opts.PageSize || collector.full() {
				return
			}
		}
	}
}

// collector accumulates entities with ID dedup and a hard ceiling.
type collector struct {
	entities []upstream.Entity
	seen     map[int64]struct{}
	ceiling  int
}

func newCollector(ceiling int) *collector {
	return &collector{
		entities: make([]upstream.Entity, 0, 64),
		seen:     make(map[int64]struct{}),
		ceiling:  ceiling,
	}
}

// add merges items, silently dropping IDs already collected. Overlapping
// pages are normal after backend-side inserts shift pagination windows.
func (c *collector) add(items []upstream.Entity) {
	for _, item := range items {
		if c.full() {
			return
		}
		if _, dup := c.seen[item.ID]; dup {
			continue
		}
		c.seen[item.ID] = struct{}{}
		c.entities = append(c.entities, item)
	}
}

func (c *collector) full() bool {
	return len(c.entities) >= c.ceiling
}
