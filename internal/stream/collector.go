// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"strings"

	"github.com/jeranaias/modelgrid-tui/internal/model"
)

// =============================================================================
// COLLECTOR
// =============================================================================

// Collector accumulates parser events into the ordered part list of a
// finalized assistant message. Consecutive deltas of the same kind are
// merged into one part; a kind switch or a file starts a new part, so
// interleaving is preserved.
type Collector struct {
	parts   []model.Part
	pending strings.Builder
	// pendingKind is the part kind currently accumulating in pending.
	pendingKind model.PartKind
	metrics     *model.ResponseMetrics
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Add consumes one parser event.
func (c *Collector) Add(ev Event) {
	switch ev.Kind {
	case EventTextDelta:
		c.appendDelta(model.PartText, ev.Text)
	case EventReasoningDelta:
		c.appendDelta(model.PartReasoning, ev.Text)
	case EventFile:
		c.flushPending()
		c.parts = append(c.parts, model.FilePart(ev.File.Name, ev.File.MimeType, ev.File.Data))
	case EventMetrics:
		c.metrics = ev.Metrics
	}
}

func (c *Collector) appendDelta(kind model.PartKind, text string) {
	if c.pending.Len() > 0 && c.pendingKind != kind {
		c.flushPending()
	}
	c.pendingKind = kind
	c.pending.WriteString(text)
}

func (c *Collector) flushPending() {
	if c.pending.Len() == 0 {
		return
	}
	switch c.pendingKind {
	case model.PartReasoning:
		c.parts = append(c.parts, model.ReasoningPart(c.pending.String()))
	default:
		c.parts = append(c.parts, model.TextPart(c.pending.String()))
	}
	c.pending.Reset()
}

// Text returns the accumulated response text so far, including the
// unflushed tail. Used for live rendering during streaming.
func (c *Collector) Text() string {
	var sb strings.Builder
	for _, p := range c.parts {
		if p.Kind == model.PartText {
			sb.WriteString(p.Text)
		}
	}
	if c.pending.Len() > 0 && c.pendingKind == model.PartText {
		sb.WriteString(c.pending.String())
	}
	return sb.String()
}

// Reasoning returns the accumulated reasoning text so far.
func (c *Collector) Reasoning() string {
	var sb strings.Builder
	for _, p := range c.parts {
		if p.Kind == model.PartReasoning {
			sb.WriteString(p.Text)
		}
	}
	if c.pending.Len() > 0 && c.pendingKind == model.PartReasoning {
		sb.WriteString(c.pending.String())
	}
	return sb.String()
}

// Metrics returns the final annotation, or nil before stream end.
func (c *Collector) Metrics() *model.ResponseMetrics {
	return c.metrics
}

// Message finalizes the collector into an assistant message carrying
// the ordered parts and the metrics annotation.
func (c *Collector) Message() model.Message {
	c.flushPending()
	return model.NewAssistantMessage(c.parts, c.metrics)
}
