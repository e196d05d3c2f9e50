// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/modelgrid-tui/internal/client"
	"github.com/jeranaias/modelgrid-tui/internal/config"
	"github.com/jeranaias/modelgrid-tui/internal/storage"
	"github.com/jeranaias/modelgrid-tui/internal/store"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	st := store.New(storage.NewMemoryKV(1<<20), "")
	require.NoError(t, st.Load())
	return New(config.Default(), st, client.New(nil))
}

func TestBlankSubmissionShowsValidationToast(t *testing.T) {
	a := newTestApp(t)
	panelID := a.store.Panels()[0].ID

	m, _ := a.Update(submitFinishedMsg{errs: map[string]error{
		panelID: client.ErrBlankSubmission,
	}})

	assert.Equal(t, "nothing to send", m.(*App).toast)
}

func TestFailedSubmissionToastNamesModel(t *testing.T) {
	a := newTestApp(t)
	p := a.store.Panels()[0]

	m, _ := a.Update(submitFinishedMsg{errs: map[string]error{
		p.ID: &client.RequestError{Kind: client.KindNetwork, Message: "connection refused"},
	}})

	assert.Equal(t, p.ModelID+": connection refused", m.(*App).toast)
}

func TestSuccessfulSubmissionShowsNoToast(t *testing.T) {
	a := newTestApp(t)

	m, _ := a.Update(submitFinishedMsg{errs: map[string]error{}})

	assert.Empty(t, m.(*App).toast)
}
