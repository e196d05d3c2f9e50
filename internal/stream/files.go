// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"sort"
	"strconv"
)

// =============================================================================
// STRUCTURAL FILE DISCOVERY
// =============================================================================

// Discovery contract: a file payload is the first object at any depth
// exhibiting the fields {name: string, type: string, bytes: indexed
// byte map}. The byte map keys are decimal indices; values are byte
// values. Reassembly orders indices ascending to recover the original
// contiguous buffer. The search is depth-first and never assumes a
// fixed top-level key, because the wire shape varies by backend.

// findFilePayloads walks a decoded JSON value depth-first and returns
// every file payload it can extract. Malformed candidates (bad indices,
// out-of-range byte values) are skipped rather than failing the chunk.
func findFilePayloads(v any) []FilePayload {
	var found []FilePayload
	walkForFiles(v, &found)
	return found
}

func walkForFiles(v any, found *[]FilePayload) {
	switch node := v.(type) {
	case map[string]any:
		if fp, ok := fileFromObject(node); ok {
			*found = append(*found, fp)
			// A matched object is a leaf; its bytes map is not a
			// container for further payloads.
			return
		}
		for _, child := range node {
			walkForFiles(child, found)
		}
	case []any:
		for _, child := range node {
			walkForFiles(child, found)
		}
	}
}

// fileFromObject matches the {name, type, bytes} shape on a single
// object and reassembles the indexed byte map.
func fileFromObject(obj map[string]any) (FilePayload, bool) {
	name, ok := obj["name"].(string)
	if !ok || name == "" {
		return FilePayload{}, false
	}
	mimeType, ok := obj["type"].(string)
	if !ok {
		return FilePayload{}, false
	}
	byteMap, ok := obj["bytes"].(map[string]any)
	if !ok || len(byteMap) == 0 {
		return FilePayload{}, false
	}

	data, ok := assembleByteMap(byteMap)
	if !ok {
		return FilePayload{}, false
	}
	return FilePayload{Name: name, MimeType: mimeType, Data: data}, true
}

// assembleByteMap converts an index→value map into a contiguous byte
// buffer in ascending numeric index order.
func assembleByteMap(byteMap map[string]any) ([]byte, bool) {
	indices := make([]int, 0, len(byteMap))
	for key := range byteMap {
		idx, err := strconv.Atoi(key)
		if err != nil || idx < 0 {
			return nil, false
		}
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	data := make([]byte, 0, len(indices))
	for _, idx := range indices {
		raw, ok := byteMap[strconv.Itoa(idx)].(float64)
		if !ok || raw < 0 || raw > 255 || raw != float64(int(raw)) {
			return nil, false
		}
		data = append(data, byte(raw))
	}
	return data, true
}

// =============================================================================
// USAGE DISCOVERY
// =============================================================================

// usageFragment is a partial token count reported by the backend.
// Fragments are summed across chunks, since some backends emit counts
// incrementally.
type usageFragment struct {
	InputTokens  int
	OutputTokens int
}

// findUsage walks a decoded JSON value and sums every usage object at
// any depth: either a map under a "usage" key or a bare fragment whose
// own fields are inputTokens/outputTokens.
func findUsage(v any) (usageFragment, bool) {
	var sum usageFragment
	found := false
	walkForUsage(v, &sum, &found)
	return sum, found
}

func walkForUsage(v any, sum *usageFragment, found *bool) {
	switch node := v.(type) {
	case map[string]any:
		if usage, ok := node["usage"].(map[string]any); ok {
			accumulateUsage(usage, sum, found)
		}
		accumulateUsage(node, sum, found)
		for key, child := range node {
			if key == "usage" {
				continue
			}
			walkForUsage(child, sum, found)
		}
	case []any:
		for _, child := range node {
			walkForUsage(child, sum, found)
		}
	}
}

func accumulateUsage(obj map[string]any, sum *usageFragment, found *bool) {
	in, hasIn := numberField(obj, "inputTokens")
	out, hasOut := numberField(obj, "outputTokens")
	if hasIn || hasOut {
		sum.InputTokens += in
		sum.OutputTokens += out
		*found = true
	}
}

func numberField(obj map[string]any, key string) (int, bool) {
	raw, ok := obj[key].(float64)
	if !ok || raw < 0 {
		return 0, false
	}
	return int(raw), true
}
