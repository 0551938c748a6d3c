// Copyright (c) 2026 Vendaro. All rights reserved.
// Author: dev@vendaro.app

package catalog

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/vendaro/vendaro/internal/upstream"
)

// TreeNode is one node of a catalog hierarchy.
type TreeNode struct {
	ID       int64       `json:"id"`
	Name     string      `json:"name"`
	Slug     string      `json:"slug"`
	Parent   int64       `json:"parent"`
	Children []*TreeNode `json:"children"`
}

// BuildTree converts a deduplicated flat entity list into a forest rooted at
// entities whose parent equals rootParent.
//
// # Properties
//
//   - Pure and deterministic: no I/O, identical input yields identical output.
//   - Siblings at every level are ordered by name, locale-aware and
//     case-insensitive.
//   - Entirely iterative: depth is bounded by the input size, never by the
//     goroutine stack.
//   - Entities whose parent chain never reaches rootParent (dangling parents,
//     cycles, self-parented records) are dropped from the forest rather than
//     looping the build.
func BuildTree(entities []upstream.Entity, rootParent int64) []*TreeNode {
	if len(entities) == 0 {
		return []*TreeNode{}
	}

	collator := collate.New(language.Und, collate.IgnoreCase)

	// Index children by parent ID. Self-parented records can only be cycle
	// members, so they are excluded up front.
	byParent := make(map[int64][]upstream.Entity)
	nodes := make(map[int64]*TreeNode, len(entities))
	for _, entity := range entities {
		if entity.Parent == entity.ID {
			continue
		}
		byParent[entity.Parent] = append(byParent[entity.Parent], entity)
	}

	for parent := range byParent {
		bucket := byParent[parent]
		sort.SliceStable(bucket, func(i, j int) bool {
			return collator.CompareString(bucket[i].Name, bucket[j].Name) < 0
		})
	}

	makeNode := func(entity upstream.Entity) *TreeNode {
		node := &TreeNode{
			ID:       entity.ID,
			Name:     entity.Name,
			Slug:     entity.Slug,
			Parent:   entity.Parent,
			Children: []*TreeNode{},
		}
		nodes[entity.ID] = node
		return node
	}

	// Explicit work-stack build: attach each sorted bucket to its parent node
	// breadth-down from the roots. An entity is emitted at most once, so
	// cyclic parent pointers terminate naturally.
	roots := make([]*TreeNode, 0, len(byParent[rootParent]))
	stack := make([]int64, 0, len(entities))

	for _, entity := range byParent[rootParent] {
		roots = append(roots, makeNode(entity))
		stack = append(stack, entity.ID)
	}

	for len(stack) > 0 {
		parentID := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		parentNode := nodes[parentID]
		for _, child := range byParent[parentID] {
			if _, emitted := nodes[child.ID]; emitted {
				continue
			}
			parentNode.Children = append(parentNode.Children, makeNode(child))
			stack = append(stack, child.ID)
		}
	}

	return roots
}

// Flatten walks a forest depth-first and returns every node in visit order.
func Flatten(forest []*TreeNode) []*TreeNode {
	var flat []*TreeNode

	stack := make([]*TreeNode, 0, len(forest))
	for i := len(forest) - 1; i >= 0; i-- {
		stack = append(stack, forest[i])
	}

	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		flat = append(flat, node)

		for i := len(node.Children) - 1; i >= 0; i-- {
			stack = append(stack, node.Children[i])
		}
	}

	return flat
}
