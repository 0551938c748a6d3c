// Copyright (c) 2026 Vendaro. All rights reserved.
// Author: dev@vendaro.app

package catalog_test

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendaro/vendaro/internal/catalog"
	"github.com/vendaro/vendaro/internal/upstream"
)

// fakePager serves scripted pages and records which pages were requested.
type fakePager struct {
	mu        sync.Mutex
	pages     map[int]*upstream.Page
	fail      map[int]bool
	failAll   bool
	called    []int
	resources []string
}

func newFakePager() *fakePager {
	return &fakePager{
		pages: make(map[int]*upstream.Page),
		fail:  make(map[int]bool),
	}
}

func (f *fakePager) FetchPage(_ context.Context, resource string, page, _ int, _ string) (*upstream.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.called = append(f.called, page)
	f.resources = append(f.resources, resource)
	if f.failAll || f.fail[page] {
		return nil, fmt.Errorf("%w: connection refused", upstream.ErrUnavailable)
	}
	if result, ok := f.pages[page]; ok {
		return result, nil
	}
	return &upstream.Page{Total: -1, TotalPages: -1}, nil
}

func (f *fakePager) requested() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.called...)
}

func (f *fakePager) requestedResources() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.resources...)
}

func (f *fakePager) setFailAll(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failAll = fail
}

// entities builds sequential test entities with IDs from..to inclusive.
func entities(from, to int64) []upstream.Entity {
	out := make([]upstream.Entity, 0, to-from+1)
	for id := from; id <= to; id++ {
		out = append(out, upstream.Entity{ID: id, Name: fmt.Sprintf("entity-%d", id)})
	}
	return out
}

func page(items []upstream.Entity) *upstream.Page {
	return &upstream.Page{Items: items, RawCount: len(items), Total: -1, TotalPages: -1}
}

func newTestFetcher(pager *fakePager) *catalog.Fetcher {
	return catalog.NewFetcher(pager, slog.New(slog.DiscardHandler))
}

/*
TestFetchAll_DeduplicatesOverlappingPages verifies that entities repeated
across shifted pagination windows are collected once.
*/
func TestFetchAll_DeduplicatesOverlappingPages(t *testing.T) {
	pager := newFakePager()
	pager.pages[1] = page(entities(1, 10))
	pager.pages[2] = page(entities(8, 15)) // overlaps 8..10, short page ends the walk

	fetcher := newTestFetcher(pager)
	result, err := fetcher.FetchAll(context.Background(), "wc/v3/products/brands", catalog.WalkOptions{
		PageSize: 10,
	})

	require.NoError(t, err)
	assert.Len(t, result, 15)

	seen := make(map[int64]int)
	for _, entity := range result {
		seen[entity.ID]++
	}
	for id, count := range seen {
		assert.Equal(t, 1, count, "entity %d collected more than once", id)
	}
}

/*
TestFetchAll_ShortFirstPageStopsWalk verifies that a first page below the
page size ends the walk after a single request.
*/
func TestFetchAll_ShortFirstPageStopsWalk(t *testing.T) {
	pager := newFakePager()
	pager.pages[1] = page(entities(1, 3))

	fetcher := newTestFetcher(pager)
	result, err := fetcher.FetchAll(context.Background(), "wc/v3/products/brands", catalog.WalkOptions{
		PageSize: 10,
	})

	require.NoError(t, err)
	assert.Len(t, result, 3)
	assert.Equal(t, []int{1}, pager.requested())
}

/*
TestFetchAll_DroppedRecordsDoNotEndWalk verifies that a page whose raw record
count fills the page size keeps the walk going even when normalization dropped
an unusable record from it.
*/
func TestFetchAll_DroppedRecordsDoNotEndWalk(t *testing.T) {
	pager := newFakePager()
	// Page 1 came back with 3 records but one lacked an ID and was dropped.
	pager.pages[1] = &upstream.Page{Items: entities(1, 2), RawCount: 3, Total: -1, TotalPages: -1}
	pager.pages[2] = page(entities(3, 4)) // short page ends the walk

	fetcher := newTestFetcher(pager)
	result, err := fetcher.FetchAll(context.Background(), "wc/v3/products/brands", catalog.WalkOptions{
		PageSize: 3,
	})

	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, pager.requested())
	assert.Len(t, result, 4)
}

/*
TestFetchAll_EmptyPageStopsWalk verifies that an empty successful page ends
the walk without requesting anything further.
*/
func TestFetchAll_EmptyPageStopsWalk(t *testing.T) {
	pager := newFakePager()
	pager.pages[1] = page(entities(1, 10))
	pager.pages[2] = page(nil)
	pager.pages[3] = page(entities(100, 109))

	fetcher := newTestFetcher(pager)
	result, err := fetcher.FetchAll(context.Background(), "wc/v3/products/brands", catalog.WalkOptions{
		PageSize: 10,
		MaxPages: 5,
	})

	require.NoError(t, err)
	assert.Len(t, result, 10)
	assert.Equal(t, []int{1, 2}, pager.requested())
}

/*
TestFetchAll_FailedMiddlePageContributesNothing verifies failure isolation:
a failed page costs only its own contribution.
*/
func TestFetchAll_FailedMiddlePageContributesNothing(t *testing.T) {
	pager := newFakePager()
	pager.pages[1] = page(entities(1, 10))
	pager.fail[2] = true
	pager.pages[3] = page(entities(21, 25)) // short page, ends the walk

	fetcher := newTestFetcher(pager)
	result, err := fetcher.FetchAll(context.Background(), "wc/v3/products/brands", catalog.WalkOptions{
		PageSize: 10,
		MaxPages: 3,
	})

	require.NoError(t, err)
	assert.Len(t, result, 15)
	assert.Equal(t, []int{1, 2, 3}, pager.requested())
}

/*
TestFetchAll_FirstPageFailureIsFatal verifies the single error case: nothing
could be collected at all.
*/
func TestFetchAll_FirstPageFailureIsFatal(t *testing.T) {
	pager := newFakePager()
	pager.fail[1] = true

	fetcher := newTestFetcher(pager)
	result, err := fetcher.FetchAll(context.Background(), "wc/v3/products/brands", catalog.WalkOptions{})

	assert.Nil(t, result)
	assert.ErrorIs(t, err, catalog.ErrWalkFailed)
}

/*
TestFetchAll_BatchedMergesInPageOrder verifies that concurrently fetched
pages are merged in ascending page order.
*/
func TestFetchAll_BatchedMergesInPageOrder(t *testing.T) {
	pager := newFakePager()
	pager.pages[1] = page(entities(1, 100))
	pager.pages[2] = page(entities(101, 200))
	pager.pages[3] = page(entities(201, 300))
	pager.pages[4] = page(entities(301, 305)) // short tail

	fetcher := newTestFetcher(pager)
	result, err := fetcher.FetchAll(context.Background(), "dokan/v1/store-locations", catalog.WalkOptions{
		PageSize: 100,
		MaxPages: 10,
		Mode:     catalog.ModeBatched,
	})

	require.NoError(t, err)
	require.Len(t, result, 305)
	for i, entity := range result {
		assert.Equal(t, int64(i+1), entity.ID, "entity out of order at index %d", i)
	}
}

/*
TestFetchAll_TotalPagesHeaderCapsWalk verifies that an upstream-reported
page count bounds the walk below MaxPages.
*/
func TestFetchAll_TotalPagesHeaderCapsWalk(t *testing.T) {
	pager := newFakePager()
	pager.pages[1] = &upstream.Page{Items: entities(1, 10), RawCount: 10, Total: 20, TotalPages: 2}
	pager.pages[2] = &upstream.Page{Items: entities(11, 20), RawCount: 10, Total: 20, TotalPages: 2}
	pager.pages[3] = page(entities(900, 909)) // must never be requested

	fetcher := newTestFetcher(pager)
	result, err := fetcher.FetchAll(context.Background(), "wc/v3/products/brands", catalog.WalkOptions{
		PageSize: 10,
		MaxPages: 30,
	})

	require.NoError(t, err)
	assert.Len(t, result, 20)
	assert.Equal(t, []int{1, 2}, pager.requested())
}

/*
TestFetchAll_EntityCeiling verifies that the walk stops at the absolute
entity ceiling even while pages keep coming back full.
*/
func TestFetchAll_EntityCeiling(t *testing.T) {
	pager := newFakePager()
	for p := int64(1); p <= 10; p++ {
		pager.pages[int(p)] = page(entities((p-1)*1000+1, p*1000))
	}

	fetcher := newTestFetcher(pager)
	result, err := fetcher.FetchAll(context.Background(), "wc/v3/products/brands", catalog.WalkOptions{
		PageSize: 1000,
		MaxPages: 10,
	})

	require.NoError(t, err)
	assert.Len(t, result, 5000)
}
