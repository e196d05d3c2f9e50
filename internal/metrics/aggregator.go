// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package metrics

import (
	"time"

	"github.com/jeranaias/modelgrid-tui/internal/model"
	"github.com/jeranaias/modelgrid-tui/internal/store"
)

// =============================================================================
// AGGREGATION
// =============================================================================

// PanelSummary is the reduction of one panel's annotated responses.
type PanelSummary struct {
	PanelID        string `json:"panelId"`
	ConversationID string `json:"conversationId"`
	ModelID        string `json:"modelId"`
	ModelName      string `json:"modelName"`

	Responses    int `json:"responses"`
	InputTokens  int `json:"inputTokens"`
	OutputTokens int `json:"outputTokens"`

	// TotalCost sums only priced responses; CostComplete is false when
	// any response lacked a published price.
	TotalCost    float64 `json:"totalCost"`
	CostComplete bool    `json:"costComplete"`

	AvgFirstToken   time.Duration `json:"avgFirstTokenNs"`
	AvgResponseTime time.Duration `json:"avgResponseTimeNs"`
}

// ConversationSummary totals the panels of one conversation group.
type ConversationSummary struct {
	ConversationID string  `json:"conversationId"`
	Panels         int     `json:"panels"`
	Responses      int     `json:"responses"`
	InputTokens    int     `json:"inputTokens"`
	OutputTokens   int     `json:"outputTokens"`
	TotalCost      float64 `json:"totalCost"`
	CostComplete   bool    `json:"costComplete"`
}

// Aggregator computes read-side reductions over live store state.
type Aggregator struct {
	store *store.Store
}

// NewAggregator creates an aggregator over the given store.
func NewAggregator(st *store.Store) *Aggregator {
	return &Aggregator{store: st}
}

// Summarize reduces one panel snapshot.
func Summarize(p *store.Panel) PanelSummary {
	info := p.Model()
	out := PanelSummary{
		PanelID:        p.ID,
		ConversationID: p.ConversationID,
		ModelID:        p.ModelID,
		ModelName:      info.Name,
		CostComplete:   true,
	}

	var firstToken, responseTime time.Duration
	for _, m := range p.Messages {
		if m.Role != model.RoleAssistant || m.Annotations == nil {
			continue
		}
		a := m.Annotations
		out.Responses++
		out.InputTokens += a.InputTokens
		out.OutputTokens += a.OutputTokens
		if a.CostKnown {
			out.TotalCost += a.Cost
		} else {
			out.CostComplete = false
		}
		firstToken += a.FirstTokenTime
		responseTime += a.ResponseTime
	}

	if out.Responses > 0 {
		out.AvgFirstToken = firstToken / time.Duration(out.Responses)
		out.AvgResponseTime = responseTime / time.Duration(out.Responses)
	}
	return out
}

// PanelSummaries reduces every panel in display order.
func (a *Aggregator) PanelSummaries() []PanelSummary {
	panels := a.store.Panels()
	out := make([]PanelSummary, len(panels))
	for i, p := range panels {
		out[i] = Summarize(p)
	}
	return out
}

// Conversation totals the panels of one conversation group.
func (a *Aggregator) Conversation(conversationID string) ConversationSummary {
	out := ConversationSummary{
		ConversationID: conversationID,
		CostComplete:   true,
	}
	for _, p := range a.store.PanelsForConversation(conversationID) {
		s := Summarize(p)
		out.Panels++
		out.Responses += s.Responses
		out.InputTokens += s.InputTokens
		out.OutputTokens += s.OutputTokens
		out.TotalCost += s.TotalCost
		if !s.CostComplete {
			out.CostComplete = false
		}
	}
	return out
}
