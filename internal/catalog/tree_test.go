// Copyright (c) 2026 Vendaro. All rights reserved.
// Author: dev@vendaro.app

package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendaro/vendaro/internal/catalog"
	"github.com/vendaro/vendaro/internal/upstream"
)

/*
TestBuildTree_Basic verifies parent/child attachment and root selection.
*/
func TestBuildTree_Basic(t *testing.T) {
	flat := []upstream.Entity{
		{ID: 1, Name: "Tools", Parent: 0},
		{ID: 2, Name: "Hand Tools", Parent: 1},
		{ID: 3, Name: "Power Tools", Parent: 1},
		{ID: 4, Name: "Drills", Parent: 3},
		{ID: 5, Name: "Garden", Parent: 0},
	}

	forest := catalog.BuildTree(flat, 0)

	require.Len(t, forest, 2)
	assert.Equal(t, "Garden", forest[0].Name)
	assert.Equal(t, "Tools", forest[1].Name)

	tools := forest[1]
	require.Len(t, tools.Children, 2)
	assert.Equal(t, "Hand Tools", tools.Children[0].Name)
	assert.Equal(t, "Power Tools", tools.Children[1].Name)
	require.Len(t, tools.Children[1].Children, 1)
	assert.Equal(t, "Drills", tools.Children[1].Children[0].Name)
}

/*
TestBuildTree_SiblingSortIsCaseInsensitive verifies locale-aware,
case-insensitive sibling ordering at every level.
*/
func TestBuildTree_SiblingSortIsCaseInsensitive(t *testing.T) {
	flat := []upstream.Entity{
		{ID: 1, Name: "zebra", Parent: 0},
		{ID: 2, Name: "Apple", Parent: 0},
		{ID: 3, Name: "mango", Parent: 0},
	}

	forest := catalog.BuildTree(flat, 0)

	require.Len(t, forest, 3)
	assert.Equal(t, "Apple", forest[0].Name)
	assert.Equal(t, "mango", forest[1].Name)
	assert.Equal(t, "zebra", forest[2].Name)
}

/*
TestBuildTree_DropsUnreachableEntities verifies that dangling parents,
self-parented records, and parent cycles are excluded instead of looping
the build.
*/
func TestBuildTree_DropsUnreachableEntities(t *testing.T) {
	flat := []upstream.Entity{
		{ID: 1, Name: "Root", Parent: 0},
		{ID: 2, Name: "Dangling", Parent: 999}, // parent never fetched
		{ID: 3, Name: "Selfie", Parent: 3},     // self-parented
		{ID: 4, Name: "CycleA", Parent: 5},     // 4 <-> 5 cycle
		{ID: 5, Name: "CycleB", Parent: 4},
	}

	forest := catalog.BuildTree(flat, 0)

	require.Len(t, forest, 1)
	assert.Equal(t, "Root", forest[0].Name)
	assert.Empty(t, forest[0].Children)
}

/*
TestBuildTree_Empty verifies that no input yields an empty forest, not nil.
*/
func TestBuildTree_Empty(t *testing.T) {
	forest := catalog.BuildTree(nil, 0)

	assert.NotNil(t, forest)
	assert.Empty(t, forest)
}

/*
TestBuildTree_Deterministic verifies that shuffled input produces an
identical forest.
*/
func TestBuildTree_Deterministic(t *testing.T) {
	ordered := []upstream.Entity{
		{ID: 1, Name: "A", Parent: 0},
		{ID: 2, Name: "B", Parent: 1},
		{ID: 3, Name: "C", Parent: 1},
		{ID: 4, Name: "D", Parent: 2},
	}
	shuffled := []upstream.Entity{ordered[3], ordered[1], ordered[0], ordered[2]}

	assert.Equal(t, catalog.BuildTree(ordered, 0), catalog.BuildTree(shuffled, 0))
}

/*
TestFlatten_RoundTrip verifies that flattening a built forest visits every
emitted node exactly once, depth-first.
*/
func TestFlatten_RoundTrip(t *testing.T) {
	flat := []upstream.Entity{
		{ID: 1, Name: "Tools", Parent: 0},
		{ID: 2, Name: "Hand Tools", Parent: 1},
		{ID: 3, Name: "Power Tools", Parent: 1},
		{ID: 4, Name: "Drills", Parent: 3},
	}

	forest := catalog.BuildTree(flat, 0)
	nodes := catalog.Flatten(forest)

	require.Len(t, nodes, len(flat))

	names := make([]string, 0, len(nodes))
	for _, node := range nodes {
		names = append(names, node.Name)
	}
	assert.Equal(t, []string{"Tools", "Hand Tools", "Power Tools", "Drills"}, names)
}
