// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	info, ok := Lookup("gpt-4o")
	require.True(t, ok)
	assert.Equal(t, "OpenAI", info.Provider)

	_, ok = Lookup("does-not-exist")
	assert.False(t, ok)
}

func TestDefaultIsFirstModel(t *testing.T) {
	assert.Equal(t, Models()[0].ID, Default().ID)
}

func TestModalityHelpers(t *testing.T) {
	sonnet, _ := Lookup("anthropic.claude-3-5-sonnet-20241022-v2:0")
	assert.True(t, sonnet.AcceptsText())
	assert.True(t, sonnet.AcceptsImages())

	mistral, _ := Lookup("mistral.mistral-large-2407-v1:0")
	assert.True(t, mistral.AcceptsText())
	assert.False(t, mistral.AcceptsImages())
}

func TestClampConfig(t *testing.T) {
	cfg := GenerationConfig{
		MaxTokens:   100000,
		Temperature: -1,
		TopP:        0.5,
	}
	clamped := DefaultParamSpec.ClampConfig(cfg)
	assert.Equal(t, int(DefaultParamSpec.MaxTokens.Max), clamped.MaxTokens)
	assert.Equal(t, DefaultParamSpec.Temperature.Min, clamped.Temperature)
	assert.Equal(t, 0.5, clamped.TopP)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultParamSpec.DefaultConfig()
	assert.Equal(t, 2048, cfg.MaxTokens)
	assert.Equal(t, 0.7, cfg.Temperature)
	assert.Equal(t, 0.9, cfg.TopP)
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 1, EstimateTokens("ab"))
	assert.Equal(t, 1, EstimateTokens("abcd"))
	assert.Equal(t, 2, EstimateTokens("abcde"))
	assert.Equal(t, 25, EstimateTokens(strings.Repeat("x", 100)))
}

func TestRequestCost(t *testing.T) {
	cost, ok := RequestCost("gpt-4o", 1000, 500)
	require.True(t, ok)
	assert.InDelta(t, 1000*0.0000025+500*0.00001, cost, 1e-12)

	_, ok = RequestCost("meta/llama3-70b-instruct", 1000, 500)
	assert.False(t, ok, "unpriced model has no cost")

	_, ok = RequestCost("unknown-model", 10, 10)
	assert.False(t, ok)
}
