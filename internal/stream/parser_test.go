// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fragmentedReader yields the stream in fixed-size fragments to model
// transport reads splitting chunks at arbitrary byte offsets.
type fragmentedReader struct {
	data []byte
	size int
}

func (r *fragmentedReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, io.EOF
	}
	n := r.size
	if n > len(r.data) {
		n = len(r.data)
	}
	if n > len(p) {
		n = len(p)
	}
	copy(p, r.data[:n])
	r.data = r.data[n:]
	return n, nil
}

func collectEvents(t *testing.T, body string, opts Options) []Event {
	t.Helper()
	var events []Event
	p := NewParser(opts)
	err := p.Process(context.Background(), strings.NewReader(body), func(ev Event) {
		events = append(events, ev)
	})
	require.NoError(t, err)
	return events
}

func eventsOfKind(events []Event, kind EventKind) []Event {
	var out []Event
	for _, ev := range events {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}

func TestProcessTextDeltas(t *testing.T) {
	body := `{"text":"Hello"}` + "\n" + `{"text":" world"}` + "\n"
	events := collectEvents(t, body, Options{ModelID: "gpt-4o"})

	texts := eventsOfKind(events, EventTextDelta)
	require.Len(t, texts, 2)
	assert.Equal(t, "Hello", texts[0].Text)
	assert.Equal(t, " world", texts[1].Text)

	// Exactly one metrics event, last.
	require.Len(t, eventsOfKind(events, EventMetrics), 1)
	assert.Equal(t, EventMetrics, events[len(events)-1].Kind)
}

func TestProcessInterleavedReasoning(t *testing.T) {
	body := `{"reasoning":"thinking..."}` + "\n" +
		`{"text":"answer"}` + "\n" +
		`{"reasoning":" more"}` + "\n"
	events := collectEvents(t, body, Options{})

	kinds := make([]EventKind, 0, 3)
	for _, ev := range events {
		if ev.Kind != EventMetrics {
			kinds = append(kinds, ev.Kind)
		}
	}
	assert.Equal(t, []EventKind{EventReasoningDelta, EventTextDelta, EventReasoningDelta}, kinds)
}

func TestProcessPlainTextChunks(t *testing.T) {
	body := "raw model output\n" + `{"text":" structured"}` + "\n"
	events := collectEvents(t, body, Options{})

	texts := eventsOfKind(events, EventTextDelta)
	require.Len(t, texts, 2)
	assert.Equal(t, "raw model output", texts[0].Text)
}

func TestProcessQuotedStringChunk(t *testing.T) {
	body := `"just a string delta"` + "\n"
	events := collectEvents(t, body, Options{})

	texts := eventsOfKind(events, EventTextDelta)
	require.Len(t, texts, 1)
	assert.Equal(t, "just a string delta", texts[0].Text)
}

func TestProcessMalformedChunkDoesNotAbort(t *testing.T) {
	body := `{"text":"before"}` + "\n" +
		"{\"text\": truncated\n" +
		`{"text":"after"}` + "\n"
	events := collectEvents(t, body, Options{})

	// The malformed chunk degrades to a raw text delta; the stream
	// keeps going.
	texts := eventsOfKind(events, EventTextDelta)
	require.Len(t, texts, 3)
	assert.Equal(t, "after", texts[2].Text)
}

func TestProcessSurvivesArbitraryFragmentation(t *testing.T) {
	body := `{"text":"The answer "}` + "\n" +
		`{"toolResult":{"file":{"name":"plot.png","type":"image/png","bytes":{"0":137,"1":80,"2":78}}}}` + "\n" +
		`{"text":"is attached."}` + "\n" +
		`{"usage":{"inputTokens":12,"outputTokens":34}}` + "\n"

	for _, size := range []int{1, 2, 3, 7, 16, len(body)} {
		var events []Event
		p := NewParser(Options{ModelID: "gpt-4o"})
		err := p.Process(context.Background(), &fragmentedReader{data: []byte(body), size: size}, func(ev Event) {
			events = append(events, ev)
		})
		require.NoError(t, err, "fragment size %d", size)

		texts := eventsOfKind(events, EventTextDelta)
		require.Len(t, texts, 2, "fragment size %d", size)
		assert.Equal(t, "The answer ", texts[0].Text)

		files := eventsOfKind(events, EventFile)
		require.Len(t, files, 1, "fragment size %d", size)
		assert.Equal(t, []byte{137, 80, 78}, files[0].File.Data)

		metrics := eventsOfKind(events, EventMetrics)
		require.Len(t, metrics, 1, "fragment size %d", size)
		assert.Equal(t, 12, metrics[0].Metrics.InputTokens)
		assert.Equal(t, 34, metrics[0].Metrics.OutputTokens)
	}
}

func TestProcessStreamWithoutTrailingNewline(t *testing.T) {
	body := `{"text":"no newline at end"}`
	events := collectEvents(t, body, Options{})

	texts := eventsOfKind(events, EventTextDelta)
	require.Len(t, texts, 1)
	assert.Equal(t, "no newline at end", texts[0].Text)
}

// =============================================================================
// FILE SURFACING
// =============================================================================

func TestFilePayloadFoundAtAnyDepth(t *testing.T) {
	body := `{"step":{"result":{"output":{"name":"report.csv","type":"text/csv","bytes":{"1":98,"0":97,"2":99}}}}}` + "\n"
	events := collectEvents(t, body, Options{})

	files := eventsOfKind(events, EventFile)
	require.Len(t, files, 1)
	assert.Equal(t, "report.csv", files[0].File.Name)
	assert.Equal(t, "text/csv", files[0].File.MimeType)
	// Byte map keys assemble in ascending numeric index order.
	assert.Equal(t, []byte("abc"), files[0].File.Data)
}

func TestFileDedupByNameAndContent(t *testing.T) {
	file := `{"name":"a.png","type":"image/png","bytes":{"0":1}}`
	sameContent := `{"attachment":` + file + `}`
	differentContent := `{"name":"a.png","type":"image/png","bytes":{"0":2}}`
	body := file + "\n" + sameContent + "\n" + differentContent + "\n"

	events := collectEvents(t, body, Options{})
	files := eventsOfKind(events, EventFile)
	require.Len(t, files, 2)
	assert.Equal(t, []byte{1}, files[0].File.Data)
	assert.Equal(t, []byte{2}, files[1].File.Data)
}

func TestFileShapeRequiresAllFields(t *testing.T) {
	body := `{"name":"a.png","type":"image/png"}` + "\n" + // no bytes
		`{"name":"","type":"image/png","bytes":{"0":1}}` + "\n" + // empty name
		`{"name":"a.png","bytes":{"0":1}}` + "\n" + // no type
		`{"name":"a.png","type":"image/png","bytes":{}}` + "\n" // empty bytes
	events := collectEvents(t, body, Options{})
	assert.Empty(t, eventsOfKind(events, EventFile))
}

func TestFileInvalidByteValuesRejected(t *testing.T) {
	body := `{"name":"a.bin","type":"application/octet-stream","bytes":{"0":256}}` + "\n" +
		`{"name":"b.bin","type":"application/octet-stream","bytes":{"0":1.5}}` + "\n" +
		`{"name":"c.bin","type":"application/octet-stream","bytes":{"x":1}}` + "\n"
	events := collectEvents(t, body, Options{})
	assert.Empty(t, eventsOfKind(events, EventFile))
}

// =============================================================================
// METRICS
// =============================================================================

func TestUsageFragmentsSumAcrossChunks(t *testing.T) {
	body := `{"usage":{"inputTokens":10,"outputTokens":5}}` + "\n" +
		`{"final":{"usage":{"inputTokens":2,"outputTokens":3}}}` + "\n"
	events := collectEvents(t, body, Options{ModelID: "gpt-4o"})

	metrics := eventsOfKind(events, EventMetrics)
	require.Len(t, metrics, 1)
	assert.Equal(t, 12, metrics[0].Metrics.InputTokens)
	assert.Equal(t, 8, metrics[0].Metrics.OutputTokens)
}

func TestBareUsageFragmentChunk(t *testing.T) {
	// Some backends emit the token counts as the whole chunk, with no
	// enclosing "usage" key.
	body := `{"text":"hi"}` + "\n" + `{"inputTokens":5,"outputTokens":2}` + "\n"
	events := collectEvents(t, body, Options{ModelID: "gpt-4o", PromptChars: 100})

	metrics := eventsOfKind(events, EventMetrics)
	require.Len(t, metrics, 1)
	assert.Equal(t, 5, metrics[0].Metrics.InputTokens, "reported usage, not the estimate")
	assert.Equal(t, 2, metrics[0].Metrics.OutputTokens)
}

func TestTokenEstimateWhenNoUsageReported(t *testing.T) {
	// 8 output characters over two deltas.
	body := `{"text":"abcd"}` + "\n" + `{"text":"efgh"}` + "\n"
	events := collectEvents(t, body, Options{ModelID: "gpt-4o", PromptChars: 10})

	m := eventsOfKind(events, EventMetrics)[0].Metrics
	assert.Equal(t, 3, m.InputTokens, "ceil(10/4)")
	assert.Equal(t, 2, m.OutputTokens, "ceil(8/4)")
	assert.Positive(t, m.ResponseTime)
	assert.Positive(t, m.FirstTokenTime)
	assert.LessOrEqual(t, m.FirstTokenTime, m.ResponseTime)
}

func TestCostAnnotatedOnlyForPricedModels(t *testing.T) {
	body := `{"usage":{"inputTokens":1000,"outputTokens":1000}}` + "\n"

	priced := collectEvents(t, body, Options{ModelID: "gpt-4o"})
	m := eventsOfKind(priced, EventMetrics)[0].Metrics
	assert.True(t, m.CostKnown)
	assert.InDelta(t, 0.0000025*1000+0.00001*1000, m.Cost, 1e-12)

	unpriced := collectEvents(t, body, Options{ModelID: "meta/llama3-70b-instruct"})
	m = eventsOfKind(unpriced, EventMetrics)[0].Metrics
	assert.False(t, m.CostKnown)
	assert.Zero(t, m.Cost)
}

func TestEmptyStreamStillEmitsMetrics(t *testing.T) {
	events := collectEvents(t, "", Options{ModelID: "gpt-4o"})
	require.Len(t, events, 1)
	assert.Equal(t, EventMetrics, events[0].Kind)
	assert.Zero(t, events[0].Metrics.OutputTokens)
}

func TestProcessCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := NewParser(Options{})
	err := p.Process(ctx, strings.NewReader(`{"text":"x"}`+"\n"), func(Event) {})
	assert.ErrorIs(t, err, context.Canceled)
}

// =============================================================================
// COLLECTOR
// =============================================================================

func TestCollectorMergesConsecutiveDeltas(t *testing.T) {
	c := NewCollector()
	c.Add(Event{Kind: EventTextDelta, Text: "Hel"})
	c.Add(Event{Kind: EventTextDelta, Text: "lo"})
	c.Add(Event{Kind: EventReasoningDelta, Text: "because"})
	c.Add(Event{Kind: EventTextDelta, Text: "!"})

	msg := c.Message()
	require.Len(t, msg.Parts, 3)
	assert.Equal(t, "Hello", msg.Parts[0].Text)
	assert.Equal(t, "because", msg.Parts[1].Text)
	assert.Equal(t, "!", msg.Parts[2].Text)
}

func TestCollectorLiveTextIncludesPendingTail(t *testing.T) {
	c := NewCollector()
	c.Add(Event{Kind: EventTextDelta, Text: "par"})
	c.Add(Event{Kind: EventTextDelta, Text: "tial"})
	assert.Equal(t, "partial", c.Text())
	assert.Empty(t, c.Reasoning())
}

func TestCollectorFileBreaksPart(t *testing.T) {
	c := NewCollector()
	c.Add(Event{Kind: EventTextDelta, Text: "see "})
	c.Add(Event{Kind: EventFile, File: &FilePayload{Name: "a.png", MimeType: "image/png", Data: []byte{1}}})
	c.Add(Event{Kind: EventTextDelta, Text: "above"})

	msg := c.Message()
	require.Len(t, msg.Parts, 3)
	assert.Equal(t, "a.png", msg.Parts[1].Name)
	assert.Equal(t, "see above", msg.Text())
}
