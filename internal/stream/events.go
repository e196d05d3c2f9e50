// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import "github.com/jeranaias/modelgrid-tui/internal/model"

// =============================================================================
// EVENT TYPES
// =============================================================================

// EventKind identifies the type of a parser event.
type EventKind int

const (
	// EventTextDelta carries an incremental fragment of response text.
	EventTextDelta EventKind = iota
	// EventReasoningDelta carries an incremental fragment of the
	// model's reasoning output.
	EventReasoningDelta
	// EventFile carries a complete file produced by the backend.
	EventFile
	// EventMetrics is emitted exactly once, at end of stream, with the
	// synthesized response metrics.
	EventMetrics
)

// String returns the event kind name.
func (k EventKind) String() string {
	switch k {
	case EventTextDelta:
		return "text-delta"
	case EventReasoningDelta:
		return "reasoning-delta"
	case EventFile:
		return "file"
	case EventMetrics:
		return "metrics"
	default:
		return "unknown"
	}
}

// FilePayload is a file discovered in the response stream, reassembled
// into a contiguous byte buffer.
type FilePayload struct {
	Name     string
	MimeType string
	Data     []byte
}

// Event is one typed parser output. Exactly one of Text, File, or
// Metrics is meaningful, selected by Kind.
type Event struct {
	Kind    EventKind
	Text    string
	File    *FilePayload
	Metrics *model.ResponseMetrics
}

// Callback receives parser events in arrival order.
type Callback func(Event)
