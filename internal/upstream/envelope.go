// Copyright (c) 2026 Vendaro. All rights reserved.
// Author: dev@vendaro.app

package upstream

import (
	"encoding/json"
	"errors"
	"sort"
)

// ErrNoCollection reports that a response body held no recognizable record
// collection in any known envelope shape.
var ErrNoCollection = errors.New("upstream: response carries no record collection")

// Envelope keys probed after the bare-array shape, in priority order. The
// order is part of the decode contract: a backend that ships both "data" and
// "items" gets its "data" array used.
var envelopeKeys = []string{"data", "items", "terms", "results"}

// DecodeCollection extracts the record array from a response body.
//
// # Shape Matching
//
// Upstream plugins wrap collections inconsistently, so shapes are tried in a
// fixed priority order:
//
//  1. Bare JSON array.
//  2. An object with one of the known envelope keys ("data", "items",
//     "terms", "results") holding an array.
//  3. Last resort: the alphabetically first object property holding an array.
//
// Records that are not JSON objects are skipped; normalization decides which
// of the surviving records are usable.
func DecodeCollection(body []byte) ([]map[string]any, error) {

	// 1. Bare array
	var bare []json.RawMessage
	if err := json.Unmarshal(body, &bare); err == nil {
		return decodeRecords(bare), nil
	}

	// 2. Known envelope keys, then 3. generic scan
	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(body, &wrapper); err != nil {
		return nil, ErrNoCollection
	}

	for _, key := range envelopeKeys {
		if raw, ok := wrapper[key]; ok {
			var arr []json.RawMessage
			if err := json.Unmarshal(raw, &arr); err == nil {
				return decodeRecords(arr), nil
			}
		}
	}

	// Generic scan: sorted keys keep the fallback deterministic.
	keys := make([]string, 0, len(wrapper))
	for key := range wrapper {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		var arr []json.RawMessage
		if err := json.Unmarshal(wrapper[key], &arr); err == nil {
			return decodeRecords(arr), nil
		}
	}

	return nil, ErrNoCollection
}

// decodeRecords unmarshals array elements into raw records, skipping
// non-object entries.
func decodeRecords(raw []json.RawMessage) []map[string]any {
	records := make([]map[string]any, 0, len(raw))
	for _, element := range raw {
		var record map[string]any
		if err := json.Unmarshal(element, &record); err != nil {
			continue
		}
		records = append(records, record)
	}
	return records
}
