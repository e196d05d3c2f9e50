// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "time"

// =============================================================================
// RESPONSE METRICS
// =============================================================================

// ResponseMetrics is the out-of-band metrics record produced by the
// server alongside a completed assistant turn. All values are
// non-negative; Cost is only meaningful when CostKnown is true (pricing
// is unavailable for models without a per-token price).
type ResponseMetrics struct {
	// FirstTokenTime is the elapsed time to the first text or reasoning
	// delta. Equals ResponseTime when the stream produced no deltas.
	FirstTokenTime time.Duration `json:"first_token_time"`

	// ResponseTime is the elapsed time to end of stream.
	ResponseTime time.Duration `json:"response_time"`

	// Token counts, reported by the backend or estimated client-side.
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`

	// Cost in USD. CostKnown is false when the model has no known
	// per-token price.
	Cost      float64 `json:"cost,omitempty"`
	CostKnown bool    `json:"cost_known,omitempty"`
}

// Add accumulates another metrics record into this one. Timing fields
// are not meaningful across turns and are zeroed. Cost remains known
// only while every contributing record carries a known cost.
func (m ResponseMetrics) Add(other ResponseMetrics) ResponseMetrics {
	sum := ResponseMetrics{
		InputTokens:  m.InputTokens + other.InputTokens,
		OutputTokens: m.OutputTokens + other.OutputTokens,
	}
	if m.CostKnown && other.CostKnown {
		sum.Cost = m.Cost + other.Cost
		sum.CostKnown = true
	} else if m.CostKnown {
		sum.Cost = m.Cost
		sum.CostKnown = true
	} else if other.CostKnown {
		sum.Cost = other.Cost
		sum.CostKnown = true
	}
	return sum
}

// IsZero reports whether the record carries no data.
func (m ResponseMetrics) IsZero() bool {
	return m == ResponseMetrics{}
}
