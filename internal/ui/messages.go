// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// MESSAGES
// =============================================================================

// panelUpdatedMsg reports that a panel's live stream state changed.
type panelUpdatedMsg struct {
	panelID string
}

// submitFinishedMsg carries the per-panel errors of one submission
// round.
type submitFinishedMsg struct {
	errs map[string]error
}

// toastMsg shows a transient notification.
type toastMsg struct {
	text string
}

// toastExpiredMsg clears a toast after its display window.
type toastExpiredMsg struct {
	seq int
}

// speakFinishedMsg reports the outcome of an audio synthesis.
type speakFinishedMsg struct {
	path string
	err  error
}

const toastDuration = 4 * time.Second

func expireToast(seq int) tea.Cmd {
	return tea.Tick(toastDuration, func(time.Time) tea.Msg {
		return toastExpiredMsg{seq: seq}
	})
}
