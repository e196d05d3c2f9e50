// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUserMessage(t *testing.T) {
	m := NewUserMessage("hello", []Attachment{{Name: "a.png", Data: []byte{1}}})
	assert.NotEmpty(t, m.ID)
	assert.Equal(t, RoleUser, m.Role)
	assert.Equal(t, "hello", m.Content)
	assert.WithinDuration(t, time.Now(), m.CreatedAt, time.Second)
}

func TestMessagePartAccessors(t *testing.T) {
	m := NewAssistantMessage([]Part{
		ReasoningPart("let me think"),
		TextPart("the answer "),
		FilePart("plot.png", "image/png", []byte{9}),
		TextPart("is 42"),
	}, nil)

	assert.Equal(t, "the answer is 42", m.Text())
	assert.Equal(t, "let me think", m.Reasoning())
	files := m.Files()
	require.Len(t, files, 1)
	assert.Equal(t, "plot.png", files[0].Name)
}

func TestStripBinary(t *testing.T) {
	m := NewUserMessage("look", []Attachment{{Name: "big.png", Data: []byte{1, 2, 3}}})
	m.Parts = append(m.Parts, FilePart("big.png", "image/png", []byte{1, 2, 3}))

	stripped := m.StripBinary()

	require.Len(t, stripped.Attachments, 1)
	assert.Equal(t, "big.png", stripped.Attachments[0].Name)
	assert.Empty(t, stripped.Attachments[0].Data)
	for _, p := range stripped.Parts {
		assert.Empty(t, p.Data)
	}

	// Original is untouched.
	assert.Equal(t, []byte{1, 2, 3}, m.Attachments[0].Data)
}

func TestResponseMetricsAdd(t *testing.T) {
	a := ResponseMetrics{InputTokens: 10, OutputTokens: 5, Cost: 0.1, CostKnown: true}
	b := ResponseMetrics{InputTokens: 3, OutputTokens: 2, Cost: 0.05, CostKnown: true}
	sum := a.Add(b)
	assert.Equal(t, 13, sum.InputTokens)
	assert.Equal(t, 7, sum.OutputTokens)
	assert.InDelta(t, 0.15, sum.Cost, 1e-9)
	assert.True(t, sum.CostKnown)
	assert.False(t, a.IsZero())
	assert.True(t, ResponseMetrics{}.IsZero())
}
