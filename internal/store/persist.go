// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/jeranaias/modelgrid-tui/internal/catalog"
	"github.com/jeranaias/modelgrid-tui/internal/model"
	"github.com/jeranaias/modelgrid-tui/internal/storage"
)

// =============================================================================
// PERSISTENCE
// =============================================================================

const (
	chatStoreKey         = "chat-store"
	conversationStoreKey = "conversation-store"

	// storeVersion bumps when the persisted shape changes
	// incompatibly. Version 1 serialized model config as an array.
	storeVersion = 2

	// maxPersistedMessages bounds the transcript tail written per
	// panel.
	maxPersistedMessages = 20

	// maxPersistedPanels bounds how many panels survive persistence,
	// ranked by last-message recency.
	maxPersistedPanels = 10

	// recoveryMessages is the transcript tail kept for the active
	// panel when the storage budget is exhausted.
	recoveryMessages = 10
)

type persistedPanel struct {
	ID             string            `json:"id"`
	SessionID      string            `json:"sessionId"`
	ConversationID string            `json:"conversationId"`
	ModelID        string            `json:"modelId"`
	Config         json.RawMessage   `json:"config"`
	PendingInput   string            `json:"pendingInput"`
	Synced         bool              `json:"synced"`
	Messages       []model.Message   `json:"messages"`
	Failed         *FailedSubmission `json:"failed,omitempty"`
}

type persistedChatState struct {
	Version     int              `json:"version"`
	Panels      []persistedPanel `json:"panels"`
	ActivePanel string           `json:"activePanel"`
}

type persistedConversationState struct {
	Version int                 `json:"version"`
	Groups  []ConversationGroup `json:"groups"`
	Active  string              `json:"active"`
}

// persistLocked mirrors current state to storage. Storage failures
// never propagate to callers; the in-memory state is authoritative for
// the running session and quota exhaustion degrades to a reduced
// snapshot.
func (s *Store) persistLocked() {
	chat, conv := s.snapshotLocked()

	convErr := s.kv.Set(conversationStoreKey, conv)
	if convErr != nil && !errors.Is(convErr, storage.ErrQuotaExceeded) {
		s.notifyLocked(fmt.Sprintf("session save failed: %v", convErr))
		return
	}

	err := s.kv.Set(chatStoreKey, chat)
	if err == nil {
		if convErr != nil {
			// The conversation snapshot alone exceeded the budget.
			_ = s.kv.Delete(conversationStoreKey)
			s.notifyLocked("storage full: conversation list could not be saved")
		}
		return
	}
	if !errors.Is(err, storage.ErrQuotaExceeded) {
		s.notifyLocked(fmt.Sprintf("session save failed: %v", err))
		return
	}

	// Storage budget exhausted: drop everything but the active panel
	// with a short transcript tail and free the conversation key.
	_ = s.kv.Delete(conversationStoreKey)
	reduced := s.recoverySnapshotLocked()
	if err := s.kv.Set(chatStoreKey, reduced); err != nil {
		_ = s.kv.Delete(chatStoreKey)
		s.notifyLocked("storage full: session history could not be saved")
		return
	}
	s.notifyLocked("storage full: older sessions were evicted")
}

func (s *Store) notifyLocked(message string) {
	if s.notify != nil {
		s.notify(message)
	}
}

// snapshotLocked builds the persisted forms: attachments and binary
// file bytes stripped, transcripts capped, and panels capped by
// last-message recency.
func (s *Store) snapshotLocked() (chat, conv string) {
	keep := s.panelKeepSetLocked(maxPersistedPanels)

	state := persistedChatState{
		Version:     storeVersion,
		ActivePanel: s.activePanel,
	}
	for _, p := range s.panels {
		if !keep[p.ID] {
			continue
		}
		state.Panels = append(state.Panels, persistPanel(p, maxPersistedMessages))
	}

	convState := persistedConversationState{
		Version: storeVersion,
		Groups:  s.groups,
		Active:  s.activeConversation,
	}

	return marshalState(state), marshalState(convState)
}

// recoverySnapshotLocked keeps only the active panel with a short
// transcript tail.
func (s *Store) recoverySnapshotLocked() string {
	state := persistedChatState{
		Version:     storeVersion,
		ActivePanel: s.activePanel,
	}
	if p := s.findLocked(s.activePanel); p != nil {
		state.Panels = append(state.Panels, persistPanel(p, recoveryMessages))
	}
	return marshalState(state)
}

// panelKeepSetLocked ranks panels by last-message recency, panels with
// no messages last, and returns the ids of the top n.
func (s *Store) panelKeepSetLocked(n int) map[string]bool {
	ranked := make([]*Panel, len(s.panels))
	copy(ranked, s.panels)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].LastMessageAt().After(ranked[j].LastMessageAt())
	})

	keep := make(map[string]bool, n)
	for i, p := range ranked {
		if i >= n {
			break
		}
		keep[p.ID] = true
	}
	return keep
}

func persistPanel(p *Panel, maxMessages int) persistedPanel {
	msgs := p.Messages
	if len(msgs) > maxMessages {
		msgs = msgs[len(msgs)-maxMessages:]
	}
	stripped := make([]model.Message, len(msgs))
	for i, m := range msgs {
		stripped[i] = m.StripBinary()
	}

	cfg, _ := json.Marshal(p.Config)
	return persistedPanel{
		ID:             p.ID,
		SessionID:      p.SessionID,
		ConversationID: p.ConversationID,
		ModelID:        p.ModelID,
		Config:         cfg,
		PendingInput:   p.PendingInput,
		Synced:         p.Synced,
		Messages:       stripped,
		Failed:         p.Failed,
	}
}

func marshalState(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}

// =============================================================================
// REHYDRATION
// =============================================================================

// Load rehydrates persisted state. Missing or undecodable state falls
// back to a fresh default session; a panel whose persisted config
// predates the current shape is reset to its model's defaults.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loadGroupsLocked()
	s.loadPanelsLocked()

	if len(s.groups) == 0 {
		s.groups = append(s.groups, newConversationGroup("Default", ""))
	}
	if s.activeConversation == "" || !s.groupExistsLocked(s.activeConversation) {
		s.activeConversation = s.groups[0].ID
	}

	// Reattach panels whose conversation no longer exists.
	for _, p := range s.panels {
		if !s.groupExistsLocked(p.ConversationID) {
			p.ConversationID = s.activeConversation
		}
	}

	if len(s.panels) == 0 {
		s.panels = append(s.panels, newPanel(s.activeConversation, s.defaultModel))
	}
	if s.activePanel == "" || s.findLocked(s.activePanel) == nil {
		s.activePanel = s.panels[0].ID
	}

	s.persistLocked()
	return nil
}

func (s *Store) loadGroupsLocked() {
	raw, err := s.kv.Get(conversationStoreKey)
	if err != nil || raw == "" {
		return
	}
	var state persistedConversationState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return
	}
	s.groups = state.Groups
	s.activeConversation = state.Active
}

func (s *Store) loadPanelsLocked() {
	raw, err := s.kv.Get(chatStoreKey)
	if err != nil || raw == "" {
		return
	}
	var state persistedChatState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return
	}

	for _, pp := range state.Panels {
		s.panels = append(s.panels, s.restorePanel(pp))
	}
	s.activePanel = state.ActivePanel
}

// restorePanel rebuilds a live panel from its persisted form. A config
// serialized in the legacy array shape indicates a structurally
// incompatible session; the panel is reset to the default model rather
// than carried forward in a corrupt state.
func (s *Store) restorePanel(pp persistedPanel) *Panel {
	p := &Panel{
		ID:             pp.ID,
		SessionID:      pp.SessionID,
		ConversationID: pp.ConversationID,
		ModelID:        pp.ModelID,
		PendingInput:   pp.PendingInput,
		Synced:         pp.Synced,
		Messages:       pp.Messages,
		Failed:         pp.Failed,
	}
	if p.SessionID == "" {
		p.SessionID = p.ID
	}

	if isLegacyConfig(pp.Config) {
		info := s.defaultModel
		p.ModelID = info.ID
		p.Config = info.Params.DefaultConfig()
		p.Messages = nil
		p.Failed = nil
		return p
	}

	var cfg catalog.GenerationConfig
	if len(pp.Config) > 0 && json.Unmarshal(pp.Config, &cfg) == nil {
		p.Config = p.Model().Params.ClampConfig(cfg)
	} else {
		p.Config = p.Model().Params.DefaultConfig()
	}
	return p
}

// isLegacyConfig reports whether a persisted config uses the retired
// array shape.
func isLegacyConfig(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}

func (s *Store) groupExistsLocked(id string) bool {
	for _, g := range s.groups {
		if g.ID == id {
			return true
		}
	}
	return false
}
