// Copyright (c) 2026 Vendaro. All rights reserved.
// Author: dev@vendaro.app

package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vendaro/vendaro/internal/platform/cache"
	"github.com/vendaro/vendaro/internal/platform/constants"
	"github.com/vendaro/vendaro/internal/platform/ctxutil"
	"github.com/vendaro/vendaro/internal/upstream"
	"github.com/vendaro/vendaro/pkg/slice"
)

// Upstream resource paths, relative to the wp-json root.
const (
	resourceBrands    = "wc/v3/products/brands"
	resourceLocations = "dokan/v1/store-locations"
	// resourceTerms is completed with the attribute slug.
	resourceTerms = "wc/v3/products/attributes/%s/terms"
)

// Cache keys. Catalogs are marketplace-global, so keys are not vendor-scoped.
const (
	keyBrands    = "brands"
	keyLocations = "locations"
	keyTermsFmt  = "terms:%s"
	keyBrandTree = "tree:brands"
)

// SyncSummary reports the outcome of a forced catalog re-walk.
type SyncSummary struct {
	Brands     int       `json:"brands"`
	Locations  int       `json:"locations"`
	BrandRoots int       `json:"brand_roots"`
	SyncedAt   time.Time `json:"synced_at"`
}

// Service owns catalog aggregation: it combines the paginated fetcher with
// the TTL caches and the tree builder.
//
// Reads never fail hard: a broken upstream yields the stale cached catalog,
// or an empty list when nothing was ever cached. The storefront must always
// have something to render.
type Service struct {
	fetcher     *Fetcher
	collections *cache.Cache[[]upstream.Entity]
	trees       *cache.Cache[[]*TreeNode]
	log         *slog.Logger
	now         func() time.Time
}

// NewService wires the catalog service.
//
// # Parameters
//   - fetcher: The paginated collection fetcher.
//   - collections: Cache for flat entity lists (may carry a persisted store).
//   - trees: Cache for derived hierarchy trees.
//   - logger: Structured logger.
func NewService(fetcher *Fetcher, collections *cache.Cache[[]upstream.Entity], trees *cache.Cache[[]*TreeNode], logger *slog.Logger) *Service {
	return &Service{
		fetcher:     fetcher,
		collections: collections,
		trees:       trees,
		log:         logger,
		now:         time.Now,
	}
}

// Brands returns the deduplicated brand catalog.
func (service *Service) Brands(ctx context.Context, force bool) []upstream.Entity {
	return service.collection(ctx, keyBrands, resourceBrands, constants.CatalogTTL, ModeBatched, force)
}

// Locations returns the deduplicated store-location catalog.
func (service *Service) Locations(ctx context.Context, force bool) []upstream.Entity {
	return service.collection(ctx, keyLocations, resourceLocations, constants.CatalogTTL, ModeBatched, force)
}

// AttributeTerms returns the terms of one product attribute.
//
// Terms are walked sequentially with pacing: attributes like "size" can span
// dozens of small pages and a concurrent walk would hammer the backend.
func (service *Service) AttributeTerms(ctx context.Context, attribute string, force bool) []upstream.Entity {
	key := fmt.Sprintf(keyTermsFmt, attribute)
	resource := fmt.Sprintf(resourceTerms, attribute)
	return service.collection(ctx, key, resource, constants.AttributeTermTTL, ModeSequential, force)
}

// BrandTree returns the brand hierarchy as a sorted forest.
func (service *Service) BrandTree(ctx context.Context, force bool) []*TreeNode {
	tree, err := service.trees.Get(ctx, keyBrandTree, constants.TreeTTL, force, func(ctx context.Context) ([]*TreeNode, error) {
		return BuildTree(service.Brands(ctx, force), 0), nil
	})
	if err != nil {
		service.log.Warn("catalog_tree_unavailable", slog.Any("error", err))
		return []*TreeNode{}
	}
	return tree
}

// Sync forces a full re-walk of every catalog resource and repopulates the
// caches and the derived tree.
//
// This is the client-facing "pull everything again" operation; force=false
// only refreshes resources whose cache entries have expired.
func (service *Service) Sync(ctx context.Context, force bool) SyncSummary {
	service.log.Info("catalog_sync_started", slog.Bool("force", force))

	brands := service.Brands(ctx, force)
	locations := service.Locations(ctx, force)
	tree := service.BrandTree(ctx, force)

	summary := SyncSummary{
		Brands:     len(brands),
		Locations:  len(locations),
		BrandRoots: len(tree),
		SyncedAt:   service.now(),
	}

	service.log.Info("catalog_sync_finished",
		slog.Int("brands", summary.Brands),
		slog.Int("locations", summary.Locations),
		slog.Int("brand_roots", summary.BrandRoots),
	)

	return summary
}

// Roots filters a flat catalog down to its root entities.
func Roots(entities []upstream.Entity) []upstream.Entity {
	return slice.Filter(entities, func(entity upstream.Entity) bool {
		return entity.Parent == 0
	})
}

// collection serves one flat catalog resource through the TTL cache.
func (service *Service) collection(ctx context.Context, key, resource string, ttl time.Duration, mode FetchMode, force bool) []upstream.Entity {
	entities, err := service.collections.Get(ctx, key, ttl, force, func(ctx context.Context) ([]upstream.Entity, error) {
		return service.fetcher.FetchAll(ctx, resource, WalkOptions{
			Mode:  mode,
			Token: vendorToken(ctx),
		})
	})
	if err != nil {
		// No cache, no stale value: the one unrecoverable case. Render empty.
		service.log.Warn("catalog_unavailable",
			slog.String("resource", resource),
			slog.Any("error", err),
		)
		return []upstream.Entity{}
	}
	return entities
}

// vendorToken extracts the caller's bearer token for upstream forwarding.
func vendorToken(ctx context.Context) string {
	if vendor := ctxutil.GetVendor(ctx); vendor != nil {
		return vendor.Token
	}
	return ""
}
