// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the modelgrid
// TUI.
package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds all the styled components for the application. It
// detects the terminal's color capability and adjusts accordingly.
type Theme struct {
	IsDark       bool
	ColorProfile termenv.Profile

	// ==========================================================================
	// APPLICATION CONTAINER STYLES
	// ==========================================================================

	App    lipgloss.Style
	Header lipgloss.Style
	Title  lipgloss.Style

	// ==========================================================================
	// PANEL STYLES
	// ==========================================================================

	Panel         lipgloss.Style
	PanelFocused  lipgloss.Style
	PanelTitle    lipgloss.Style
	PanelSubtitle lipgloss.Style
	SyncOn        lipgloss.Style
	SyncOff       lipgloss.Style

	// ==========================================================================
	// MESSAGE STYLES
	// ==========================================================================

	UserLabel      lipgloss.Style
	AssistantLabel lipgloss.Style
	Reasoning      lipgloss.Style
	FileChip       lipgloss.Style
	Streaming      lipgloss.Style

	// ==========================================================================
	// INPUT AREA STYLES
	// ==========================================================================

	InputContainer lipgloss.Style
	InputPrompt    lipgloss.Style
	TokenCount     lipgloss.Style

	// ==========================================================================
	// STATUS STYLES
	// ==========================================================================

	StatusBar    lipgloss.Style
	ShortcutKey  lipgloss.Style
	ShortcutDesc lipgloss.Style
	Metrics      lipgloss.Style
	ErrorBanner  lipgloss.Style
	Toast        lipgloss.Style
}

// Palette anchors for the two built-in themes.
type palette struct {
	accent    lipgloss.Color
	secondary lipgloss.Color
	muted     lipgloss.Color
	text      lipgloss.Color
	err       lipgloss.Color
	warn      lipgloss.Color
	ok        lipgloss.Color
	border    lipgloss.Color
}

var darkPalette = palette{
	accent:    lipgloss.Color("#7D56F4"),
	secondary: lipgloss.Color("#04B575"),
	muted:     lipgloss.Color("#626262"),
	text:      lipgloss.Color("#FAFAFA"),
	err:       lipgloss.Color("#FF5F87"),
	warn:      lipgloss.Color("#FFAF00"),
	ok:        lipgloss.Color("#04B575"),
	border:    lipgloss.Color("#3C3C3C"),
}

var lightPalette = palette{
	accent:    lipgloss.Color("#5A32D0"),
	secondary: lipgloss.Color("#007A52"),
	muted:     lipgloss.Color("#8A8A8A"),
	text:      lipgloss.Color("#1A1A1A"),
	err:       lipgloss.Color("#D70057"),
	warn:      lipgloss.Color("#AF6700"),
	ok:        lipgloss.Color("#007A52"),
	border:    lipgloss.Color("#C6C6C6"),
}

// NewTheme builds the theme for the named variant ("dark" or "light").
func NewTheme(name string) *Theme {
	isDark := name != "light"
	p := darkPalette
	if !isDark {
		p = lightPalette
	}

	t := &Theme{
		IsDark:       isDark,
		ColorProfile: termenv.ColorProfile(),
	}

	t.App = lipgloss.NewStyle()
	t.Header = lipgloss.NewStyle().
		Foreground(p.text).
		Bold(true).
		Padding(0, 1)
	t.Title = lipgloss.NewStyle().
		Foreground(p.accent).
		Bold(true)

	t.Panel = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.border).
		Padding(0, 1)
	t.PanelFocused = t.Panel.
		BorderForeground(p.accent)
	t.PanelTitle = lipgloss.NewStyle().
		Foreground(p.text).
		Bold(true)
	t.PanelSubtitle = lipgloss.NewStyle().
		Foreground(p.muted)
	t.SyncOn = lipgloss.NewStyle().Foreground(p.ok)
	t.SyncOff = lipgloss.NewStyle().Foreground(p.muted)

	t.UserLabel = lipgloss.NewStyle().
		Foreground(p.secondary).
		Bold(true)
	t.AssistantLabel = lipgloss.NewStyle().
		Foreground(p.accent).
		Bold(true)
	t.Reasoning = lipgloss.NewStyle().
		Foreground(p.muted).
		Italic(true)
	t.FileChip = lipgloss.NewStyle().
		Foreground(p.warn)
	t.Streaming = lipgloss.NewStyle().
		Foreground(p.muted)

	t.InputContainer = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.border).
		Padding(0, 1)
	t.InputPrompt = lipgloss.NewStyle().
		Foreground(p.accent).
		Bold(true)
	t.TokenCount = lipgloss.NewStyle().
		Foreground(p.muted)

	t.StatusBar = lipgloss.NewStyle().
		Foreground(p.muted).
		Padding(0, 1)
	t.ShortcutKey = lipgloss.NewStyle().
		Foreground(p.text).
		Bold(true)
	t.ShortcutDesc = lipgloss.NewStyle().
		Foreground(p.muted)
	t.Metrics = lipgloss.NewStyle().
		Foreground(p.secondary)
	t.ErrorBanner = lipgloss.NewStyle().
		Foreground(p.err).
		Bold(true)
	t.Toast = lipgloss.NewStyle().
		Foreground(p.warn).
		Bold(true)

	return t
}
