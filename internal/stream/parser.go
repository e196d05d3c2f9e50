// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/jeranaias/modelgrid-tui/internal/catalog"
	"github.com/jeranaias/modelgrid-tui/internal/model"
)

// =============================================================================
// PARSER
// =============================================================================

// Parser incrementally decodes one model turn's response stream into
// events. A Parser is single-use: Process consumes the stream to
// completion and cannot be restarted.
type Parser struct {
	modelID     string
	promptChars int

	reader *bufio.Reader

	start      time.Time
	firstToken time.Duration

	// Accumulated output characters, for the chars/4 estimate when the
	// backend reports no usage.
	outputChars int

	usage    usageFragment
	sawUsage bool

	// Dedup of surfaced files by (name, content).
	seen map[string]struct{}
}

// Options configures a Parser.
type Options struct {
	// ModelID selects the price table entry for the cost annotation.
	ModelID string

	// PromptChars is the character length of the submitted prompt, used
	// for the input-token estimate when the backend reports no usage.
	PromptChars int
}

// NewParser creates a parser for one stream.
func NewParser(opts Options) *Parser {
	return &Parser{
		modelID:     opts.ModelID,
		promptChars: opts.PromptChars,
		start:       time.Now(),
		seen:        make(map[string]struct{}),
	}
}

// Process consumes the stream and invokes the callback for each event
// in arrival order. At end of stream it emits exactly one EventMetrics
// and returns nil. Transport failures propagate as errors; malformed
// individual chunks never do.
func (p *Parser) Process(ctx context.Context, r io.Reader, emit Callback) error {
	p.reader = bufio.NewReader(r)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := p.reader.ReadBytes('\n')
		if len(line) > 0 {
			p.handleChunk(line, emit)
		}
		if err != nil {
			if err == io.EOF {
				emit(Event{Kind: EventMetrics, Metrics: p.finalMetrics()})
				return nil
			}
			return err
		}
	}
}

// handleChunk decodes a single logical chunk. Chunks that do not parse
// as JSON are plain UTF-8 text deltas.
func (p *Parser) handleChunk(line []byte, emit Callback) {
	trimmed := strings.TrimRight(string(line), "\r\n")
	if trimmed == "" {
		return
	}

	var decoded any
	if err := json.Unmarshal([]byte(trimmed), &decoded); err != nil {
		p.emitText(EventTextDelta, trimmed, emit)
		return
	}

	switch node := decoded.(type) {
	case string:
		p.emitText(EventTextDelta, node, emit)
	case map[string]any:
		p.handleObject(node, emit)
	default:
		// Numbers, bools, arrays at top level carry no content.
	}
}

// handleObject processes a structured chunk: delta fields first, then a
// structural search for file payloads and usage fragments.
func (p *Parser) handleObject(obj map[string]any, emit Callback) {
	if text, ok := obj["text"].(string); ok && text != "" {
		p.emitText(EventTextDelta, text, emit)
	}
	if reasoning, ok := obj["reasoning"].(string); ok && reasoning != "" {
		p.emitText(EventReasoningDelta, reasoning, emit)
	}

	for _, fp := range findFilePayloads(obj) {
		key := fp.Name + "\x00" + string(fp.Data)
		if _, dup := p.seen[key]; dup {
			continue
		}
		p.seen[key] = struct{}{}
		file := fp
		emit(Event{Kind: EventFile, File: &file})
	}

	if usage, ok := findUsage(obj); ok {
		p.usage.InputTokens += usage.InputTokens
		p.usage.OutputTokens += usage.OutputTokens
		p.sawUsage = true
	}
}

func (p *Parser) emitText(kind EventKind, text string, emit Callback) {
	if p.firstToken == 0 {
		p.firstToken = time.Since(p.start)
	}
	if kind == EventTextDelta {
		p.outputChars += len(text)
	}
	emit(Event{Kind: kind, Text: text})
}

// finalMetrics synthesizes the end-of-stream annotation. Token counts
// fall back to the chars/4 estimate when the backend reported no usage.
func (p *Parser) finalMetrics() *model.ResponseMetrics {
	elapsed := time.Since(p.start)

	firstToken := p.firstToken
	if firstToken == 0 {
		firstToken = elapsed
	}

	inputTokens := p.usage.InputTokens
	outputTokens := p.usage.OutputTokens
	if !p.sawUsage {
		inputTokens = estimateFromChars(p.promptChars)
		outputTokens = estimateFromChars(p.outputChars)
	}

	metrics := &model.ResponseMetrics{
		FirstTokenTime: firstToken,
		ResponseTime:   elapsed,
		InputTokens:    inputTokens,
		OutputTokens:   outputTokens,
	}
	if cost, ok := catalog.RequestCost(p.modelID, inputTokens, outputTokens); ok {
		metrics.Cost = cost
		metrics.CostKnown = true
	}
	return metrics
}

// estimateFromChars applies the ~4 characters per token heuristic to a
// character count.
func estimateFromChars(chars int) int {
	if chars <= 0 {
		return 0
	}
	return (chars + 3) / 4
}
