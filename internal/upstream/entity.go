// Copyright (c) 2026 Vendaro. All rights reserved.
// Author: dev@vendaro.app

package upstream

import (
	"encoding/json"
	"strconv"

	"github.com/vendaro/vendaro/pkg/slug"
)

// Entity is a normalized catalog record: a brand, a store location, or an
// attribute term.
//
// # Invariant
//
// ID is never zero after normalization; source records without a usable ID
// are dropped. Parent defaults to 0 (root) when absent or falsy.
type Entity struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Slug   string `json:"slug"`
	Parent int64  `json:"parent"`
	Count  int    `json:"count,omitempty"`
}

// Field name candidates, in probe order. Marketplace plugins disagree on
// record shapes: WooCommerce terms use "id"/"name"/"parent", raw taxonomy
// dumps use "term_id", and some vendor plugins capitalize "ID".
var (
	idFields     = []string{"id", "term_id", "ID"}
	nameFields   = []string{"name", "title", "label"}
	parentFields = []string{"parent", "parent_id"}
)

// NormalizeRecord maps a raw upstream record into an [Entity].
//
// The second result is false when the record carries no usable ID, in which
// case the record must be dropped rather than aggregated.
func NormalizeRecord(raw map[string]any) (Entity, bool) {
	id, ok := probeInt(raw, idFields)
	if !ok || id == 0 {
		return Entity{}, false
	}

	entity := Entity{ID: id}

	if name, ok := probeString(raw, nameFields); ok {
		entity.Name = name
	}

	if parent, ok := probeInt(raw, parentFields); ok {
		entity.Parent = parent
	}

	if s, ok := probeString(raw, []string{"slug"}); ok && s != "" {
		entity.Slug = s
	} else if entity.Name != "" {
		// Upstream plugins occasionally omit the slug; backfill it the same
		// way WordPress would have.
		entity.Slug = slug.From(entity.Name)
	}

	if count, ok := probeInt(raw, []string{"count"}); ok {
		entity.Count = int(count)
	}

	return entity, true
}

// probeInt returns the first candidate field holding an integral value.
//
// JSON numbers decode as float64; tolerant backends also ship numeric strings.
func probeInt(raw map[string]any, candidates []string) (int64, bool) {
	for _, field := range candidates {
		value, present := raw[field]
		if !present || value == nil {
			continue
		}

		switch v := value.(type) {
		case float64:
			return int64(v), true
		case json.Number:
			if n, err := v.Int64(); err == nil {
				return n, true
			}
		case string:
			if n, err := strconv.ParseInt(v, 10, 64); err == nil {
				return n, true
			}
		}
	}
	return 0, false
}

// probeString returns the first candidate field holding a non-empty string.
//
// WordPress post-shaped records nest the display name as {"rendered": "..."}.
func probeString(raw map[string]any, candidates []string) (string, bool) {
	for _, field := range candidates {
		value, present := raw[field]
		if !present || value == nil {
			continue
		}

		switch v := value.(type) {
		case string:
			if v != "" {
				return v, true
			}
		case map[string]any:
			if rendered, ok := v["rendered"].(string); ok && rendered != "" {
				return rendered, true
			}
		}
	}
	return "", false
}
