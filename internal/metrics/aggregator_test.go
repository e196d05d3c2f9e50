// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package metrics

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/modelgrid-tui/internal/model"
	"github.com/jeranaias/modelgrid-tui/internal/storage"
	"github.com/jeranaias/modelgrid-tui/internal/store"
)

func annotated(text string, in, out int, cost float64, known bool, first, total time.Duration) model.Message {
	return model.NewAssistantMessage(
		[]model.Part{model.TextPart(text)},
		&model.ResponseMetrics{
			FirstTokenTime: first,
			ResponseTime:   total,
			InputTokens:    in,
			OutputTokens:   out,
			Cost:           cost,
			CostKnown:      known,
		},
	)
}

func newMetricsStore(t *testing.T) (*store.Store, string) {
	t.Helper()
	s := store.New(storage.NewMemoryKV(1<<20), "")
	require.NoError(t, s.Load())
	return s, s.Panels()[0].ID
}

func TestSummarizeAveragesAndTotals(t *testing.T) {
	s, panelID := newMetricsStore(t)
	s.AppendMessage(panelID, model.NewUserMessage("q1", nil))
	s.AppendMessage(panelID, annotated("a1", 100, 50, 0.001, true, 200*time.Millisecond, time.Second))
	s.AppendMessage(panelID, model.NewUserMessage("q2", nil))
	s.AppendMessage(panelID, annotated("a2", 300, 150, 0.003, true, 400*time.Millisecond, 3*time.Second))

	p, _ := s.Panel(panelID)
	sum := Summarize(p)

	assert.Equal(t, 2, sum.Responses)
	assert.Equal(t, 400, sum.InputTokens)
	assert.Equal(t, 200, sum.OutputTokens)
	assert.InDelta(t, 0.004, sum.TotalCost, 1e-9)
	assert.True(t, sum.CostComplete)
	assert.Equal(t, 300*time.Millisecond, sum.AvgFirstToken)
	assert.Equal(t, 2*time.Second, sum.AvgResponseTime)
}

func TestSummarizeUnpricedResponseMarksIncomplete(t *testing.T) {
	s, panelID := newMetricsStore(t)
	s.AppendMessage(panelID, annotated("priced", 10, 10, 0.01, true, time.Millisecond, time.Millisecond))
	s.AppendMessage(panelID, annotated("unpriced", 10, 10, 0, false, time.Millisecond, time.Millisecond))

	p, _ := s.Panel(panelID)
	sum := Summarize(p)

	assert.False(t, sum.CostComplete)
	assert.InDelta(t, 0.01, sum.TotalCost, 1e-9, "unpriced responses never contribute")
}

func TestConversationTotals(t *testing.T) {
	s, first := newMetricsStore(t)
	conv := s.ActiveConversation()
	second := s.AddPanel(conv)
	s.AppendMessage(first, annotated("a", 100, 20, 0.002, true, time.Millisecond, time.Second))
	s.AppendMessage(second.ID, annotated("b", 50, 10, 0.001, true, time.Millisecond, time.Second))

	sum := NewAggregator(s).Conversation(conv)
	assert.Equal(t, 2, sum.Panels)
	assert.Equal(t, 2, sum.Responses)
	assert.Equal(t, 150, sum.InputTokens)
	assert.Equal(t, 30, sum.OutputTokens)
	assert.InDelta(t, 0.003, sum.TotalCost, 1e-9)
}

func TestExportJSON(t *testing.T) {
	s, panelID := newMetricsStore(t)
	s.AppendMessage(panelID, annotated("a", 10, 5, 0.001, true, time.Millisecond, time.Second))

	path := filepath.Join(t.TempDir(), "metrics.json")
	require.NoError(t, NewAggregator(s).ExportJSON(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc exportDocument
	require.NoError(t, json.Unmarshal(data, &doc))
	require.Len(t, doc.Panels, 1)
	assert.Equal(t, panelID, doc.Panels[0].PanelID)
	assert.False(t, doc.ExportedAt.IsZero())
}

func TestExportCSV(t *testing.T) {
	s, panelID := newMetricsStore(t)
	s.AppendMessage(panelID, annotated("a", 10, 5, 0.001, true, time.Millisecond, time.Second))

	path := filepath.Join(t.TempDir(), "metrics.csv")
	require.NoError(t, NewAggregator(s).ExportCSV(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	rows, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "panel_id", rows[0][0])
	assert.Equal(t, panelID, rows[1][0])
	assert.Equal(t, "1", rows[1][4])
}
