// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package panel

import (
	"context"
	"sync"

	"github.com/jeranaias/modelgrid-tui/internal/store"
)

// =============================================================================
// CONTROLLER MANAGER
// =============================================================================

// Manager keeps one controller per live panel. Creating, resetting, or
// re-modeling a panel replaces its id; Prune cancels and drops the
// controllers left behind.
type Manager struct {
	mu sync.Mutex

	store       *store.Store
	streamer    Streamer
	onUpdate    func(panelID string)
	controllers map[string]*Controller
}

// NewManager creates a manager over the given store and streamer.
func NewManager(st *store.Store, streamer Streamer, onUpdate func(panelID string)) *Manager {
	return &Manager{
		store:       st,
		streamer:    streamer,
		onUpdate:    onUpdate,
		controllers: make(map[string]*Controller),
	}
}

// Controller returns the controller for a panel, creating it on first
// use.
func (m *Manager) Controller(panelID string) *Controller {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.controllers[panelID]; ok {
		return c
	}
	c := NewController(m.store, m.streamer, panelID, m.onUpdate)
	m.controllers[panelID] = c
	return c
}

// Prune cancels and drops controllers whose panel id no longer exists
// in the store.
func (m *Manager) Prune() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, c := range m.controllers {
		if !m.store.PanelExists(id) {
			c.Cancel()
			delete(m.controllers, id)
		}
	}
}

// Submit runs a panel's pending input as a request, blocking until the
// stream settles or fails.
func (m *Manager) Submit(ctx context.Context, panelID string) error {
	p, ok := m.store.Panel(panelID)
	if !ok {
		return nil
	}
	return m.Controller(panelID).Submit(ctx, p.PendingInput, p.PendingAttachments)
}

// SubmitMany submits several panels concurrently, each with its own
// pending input, and returns the per-panel errors.
func (m *Manager) SubmitMany(ctx context.Context, panelIDs []string) map[string]error {
	var (
		wg   sync.WaitGroup
		emu  sync.Mutex
		errs = make(map[string]error)
	)
	for _, id := range panelIDs {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if err := m.Submit(ctx, id); err != nil {
				emu.Lock()
				errs[id] = err
				emu.Unlock()
			}
		}(id)
	}
	wg.Wait()
	return errs
}

// CancelAll stops every in-flight stream.
func (m *Manager) CancelAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.controllers {
		c.Cancel()
	}
}
