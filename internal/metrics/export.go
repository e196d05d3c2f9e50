// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package metrics

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jeranaias/modelgrid-tui/internal/util"
)

// =============================================================================
// EXPORT
// =============================================================================

type exportDocument struct {
	ExportedAt time.Time      `json:"exportedAt"`
	Panels     []PanelSummary `json:"panels"`
}

// ExportJSON writes all panel summaries to path as a single JSON
// document. The write is atomic, so a crash never leaves a truncated
// export behind.
func (a *Aggregator) ExportJSON(path string) error {
	doc := exportDocument{
		ExportedAt: time.Now().UTC(),
		Panels:     a.PanelSummaries(),
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode metrics export: %w", err)
	}
	return util.AtomicWriteFile(path, data, 0o644)
}

// ExportCSV writes one row per panel to path.
func (a *Aggregator) ExportCSV(path string) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{
		"panel_id", "conversation_id", "model_id", "model_name",
		"responses", "input_tokens", "output_tokens",
		"total_cost", "cost_complete",
		"avg_first_token_ms", "avg_response_ms",
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write metrics header: %w", err)
	}

	for _, s := range a.PanelSummaries() {
		row := []string{
			s.PanelID,
			s.ConversationID,
			s.ModelID,
			s.ModelName,
			util.IntToString(s.Responses),
			util.IntToString(s.InputTokens),
			util.IntToString(s.OutputTokens),
			util.FloatToStringPrec(s.TotalCost, 6),
			fmt.Sprintf("%t", s.CostComplete),
			util.Int64ToString(s.AvgFirstToken.Milliseconds()),
			util.Int64ToString(s.AvgResponseTime.Milliseconds()),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write metrics row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush metrics export: %w", err)
	}
	return util.AtomicWriteFile(path, buf.Bytes(), 0o644)
}
