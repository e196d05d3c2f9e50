// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package catalog

// =============================================================================
// TOKEN ESTIMATION
// =============================================================================

// EstimateTokens approximates a token count from text length using the
// ~4 characters per token heuristic. It is a documented placeholder for
// backends that report no usage, not a precise tokenizer.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	return (len(text) + 3) / 4
}

// =============================================================================
// REQUEST COST
// =============================================================================

// RequestCost computes the USD cost of one request against the static
// price table. The second return is false when the model is unknown or
// has no per-token pricing.
func RequestCost(modelID string, inputTokens, outputTokens int) (float64, bool) {
	info, ok := Lookup(modelID)
	if !ok || !info.Priced() {
		return 0, false
	}
	cost := info.InputCostPerToken*float64(inputTokens) +
		info.OutputCostPerToken*float64(outputTokens)
	return cost, true
}
