// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

// markdownRenderer wraps glamour with width-aware re-creation. Glamour
// renderers bind word wrap at construction time, so a resize needs a
// fresh renderer.
type markdownRenderer struct {
	renderer *glamour.TermRenderer
	width    int
	dark     bool
}

func newMarkdownRenderer(width int, dark bool) *markdownRenderer {
	m := &markdownRenderer{dark: dark}
	m.resize(width)
	return m
}

func (m *markdownRenderer) resize(width int) {
	if width < 10 {
		width = 10
	}
	if m.renderer != nil && m.width == width {
		return
	}

	style := glamour.WithStandardStyle("dark")
	if !m.dark {
		style = glamour.WithStandardStyle("light")
	}
	r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(width))
	if err != nil {
		// Rendering falls back to raw text.
		m.renderer = nil
		return
	}
	m.renderer = r
	m.width = width
}

// render returns the markdown rendered for the terminal, or the raw
// text when rendering is unavailable.
func (m *markdownRenderer) render(text string) string {
	if m.renderer == nil || text == "" {
		return text
	}
	out, err := m.renderer.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}
