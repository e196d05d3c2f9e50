// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/modelgrid-tui/internal/catalog"
	"github.com/jeranaias/modelgrid-tui/internal/model"
	"github.com/jeranaias/modelgrid-tui/internal/storage"
)

// =============================================================================
// SESSION STORE
// =============================================================================

// Store holds all panel and conversation state in memory and mirrors a
// filtered snapshot to the storage boundary after every mutation.
//
// All methods are safe for concurrent use; each mutation runs to
// completion under the store lock, so cross-panel callbacks never
// observe a half-applied change.
type Store struct {
	mu sync.Mutex

	panels []*Panel
	groups []ConversationGroup

	activeConversation string
	activePanel        string

	kv storage.KV

	// defaultModel is the catalog entry new panels start on, and the
	// fallback whenever a model id cannot be resolved.
	defaultModel catalog.ModelInfo

	// notify surfaces storage-layer events (quota eviction) as
	// transient notifications. Never treated as a panel failure.
	notify func(message string)
}

// New creates a store backed by the given KV. New panels start on
// defaultModelID; an empty or unknown id falls back to the catalog
// default. Call Load to rehydrate persisted state before use.
func New(kv storage.KV, defaultModelID string) *Store {
	info, ok := catalog.Lookup(defaultModelID)
	if !ok {
		info = catalog.Default()
	}
	return &Store{kv: kv, defaultModel: info}
}

// SetNotifier installs the callback for transient storage
// notifications.
func (s *Store) SetNotifier(fn func(message string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notify = fn
}

// =============================================================================
// READ ACCESS
// =============================================================================

// Panels returns a snapshot of all panels in display order.
func (s *Store) Panels() []*Panel {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Panel, len(s.panels))
	for i, p := range s.panels {
		out[i] = p.clone()
	}
	return out
}

// Panel returns a snapshot of one panel.
func (s *Store) Panel(id string) (*Panel, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p := s.findLocked(id); p != nil {
		return p.clone(), true
	}
	return nil, false
}

// PanelsForConversation returns snapshots of the panels in one
// conversation group.
func (s *Store) PanelsForConversation(conversationID string) []*Panel {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Panel
	for _, p := range s.panels {
		if p.ConversationID == conversationID {
			out = append(out, p.clone())
		}
	}
	return out
}

// PanelExists reports whether a panel with this exact id is still
// live. Stream callbacks keyed to a replaced id use this to detect
// orphaning.
func (s *Store) PanelExists(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findLocked(id) != nil
}

func (s *Store) findLocked(id string) *Panel {
	for _, p := range s.panels {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// =============================================================================
// ACTIVE PANEL / CONVERSATION
// =============================================================================

// ActivePanelID returns the focused panel id.
func (s *Store) ActivePanelID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activePanel
}

// SetActivePanel records the focused panel. The active panel is the one
// preserved by quota recovery.
func (s *Store) SetActivePanel(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findLocked(id) != nil {
		s.activePanel = id
	}
}

// ActiveConversation returns the id of the active conversation group.
func (s *Store) ActiveConversation() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeConversation
}

// =============================================================================
// PANEL LIFECYCLE
// =============================================================================

// AddPanel creates a panel in the given conversation (or the active one
// when empty) and returns a snapshot.
func (s *Store) AddPanel(conversationID string) *Panel {
	s.mu.Lock()
	defer s.mu.Unlock()

	if conversationID == "" {
		conversationID = s.activeConversation
	}
	p := newPanel(conversationID, s.defaultModel)
	s.panels = append(s.panels, p)
	if s.activePanel == "" {
		s.activePanel = p.ID
	}
	s.persistLocked()
	return p.clone()
}

// RemovePanel deletes a panel. Removing the last panel of a
// conversation auto-creates a replacement so at least one always
// exists.
func (s *Store) RemovePanel(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, p := range s.panels {
		if p.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return
	}

	conversationID := s.panels[idx].ConversationID
	s.panels = append(s.panels[:idx], s.panels[idx+1:]...)

	remaining := 0
	for _, p := range s.panels {
		if p.ConversationID == conversationID {
			remaining++
		}
	}
	if remaining == 0 {
		s.panels = append(s.panels, newPanel(conversationID, s.defaultModel))
	}

	if s.activePanel == id {
		s.activePanel = s.firstPanelLocked(conversationID)
	}
	s.persistLocked()
}

func (s *Store) firstPanelLocked(conversationID string) string {
	for _, p := range s.panels {
		if p.ConversationID == conversationID {
			return p.ID
		}
	}
	if len(s.panels) > 0 {
		return s.panels[0].ID
	}
	return ""
}

// SetModel switches a panel to another model. The panel id regenerates
// and input, attachments, transcript and failure state are discarded;
// any in-flight stream keyed to the old id is orphaned. Returns the new
// id.
func (s *Store) SetModel(id, modelID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.findLocked(id)
	if p == nil {
		return ""
	}

	info, ok := catalog.Lookup(modelID)
	if !ok {
		info = s.defaultModel
	}

	p.ID = uuid.NewString()
	p.ModelID = info.ID
	p.Config = info.Params.DefaultConfig()
	p.PendingInput = ""
	p.PendingAttachments = nil
	p.Messages = nil
	p.Failed = nil

	if s.activePanel == id {
		s.activePanel = p.ID
	}
	s.persistLocked()
	return p.ID
}

// Reset clears a panel's transcript and pending state, keeping the
// model. The id regenerates to orphan any in-flight stream. Returns the
// new id.
func (s *Store) Reset(id string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.findLocked(id)
	if p == nil {
		return ""
	}

	p.ID = uuid.NewString()
	p.PendingInput = ""
	p.PendingAttachments = nil
	p.Messages = nil
	p.Failed = nil

	if s.activePanel == id {
		s.activePanel = p.ID
	}
	s.persistLocked()
	return p.ID
}

// ResetConversation resets every panel in a conversation group (or all
// panels when conversationID is empty).
func (s *Store) ResetConversation(conversationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.panels {
		if conversationID != "" && p.ConversationID != conversationID {
			continue
		}
		oldID := p.ID
		p.ID = uuid.NewString()
		p.PendingInput = ""
		p.PendingAttachments = nil
		p.Messages = nil
		p.Failed = nil
		if s.activePanel == oldID {
			s.activePanel = p.ID
		}
	}
	s.persistLocked()
}

// =============================================================================
// PANEL MUTATIONS
// =============================================================================

// SetInput replaces a panel's pending input. Scope-aware fan-out lives
// in the sync coordinator; this touches exactly one panel.
func (s *Store) SetInput(id, input string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p := s.findLocked(id); p != nil {
		p.PendingInput = input
		s.persistLocked()
	}
}

// SetSynced toggles a panel's participation in sync fan-out.
func (s *Store) SetSynced(id string, synced bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p := s.findLocked(id); p != nil {
		p.Synced = synced
		s.persistLocked()
	}
}

// UpdateParams applies generation parameter changes clamped to the
// model's declared ranges.
func (s *Store) UpdateParams(id string, cfg catalog.GenerationConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p := s.findLocked(id); p != nil {
		p.Config = p.Model().Params.ClampConfig(cfg)
		s.persistLocked()
	}
}

// SetSystemPrompt replaces only the system prompt of a panel's config.
func (s *Store) SetSystemPrompt(id, prompt string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p := s.findLocked(id); p != nil {
		p.Config.SystemPrompt = prompt
		s.persistLocked()
	}
}

// AddAttachment appends a pending attachment, unique by name within the
// panel; a duplicate name replaces the previous data.
func (s *Store) AddAttachment(id string, att model.Attachment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.findLocked(id)
	if p == nil {
		return
	}
	for i, existing := range p.PendingAttachments {
		if existing.Name == att.Name {
			p.PendingAttachments[i] = att
			s.persistLocked()
			return
		}
	}
	p.PendingAttachments = append(p.PendingAttachments, att)
	s.persistLocked()
}

// RemoveAttachment removes a pending attachment by name.
func (s *Store) RemoveAttachment(id, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.findLocked(id)
	if p == nil {
		return
	}
	kept := p.PendingAttachments[:0]
	for _, att := range p.PendingAttachments {
		if att.Name != name {
			kept = append(kept, att)
		}
	}
	p.PendingAttachments = kept
	s.persistLocked()
}

// ClearInput clears pending input and attachments after a submit.
func (s *Store) ClearInput(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p := s.findLocked(id); p != nil {
		p.PendingInput = ""
		p.PendingAttachments = nil
		s.persistLocked()
	}
}

// =============================================================================
// TRANSCRIPT MUTATIONS
// =============================================================================

// AppendMessage appends a message to a panel's transcript.
func (s *Store) AppendMessage(id string, msg model.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p := s.findLocked(id); p != nil {
		p.Messages = append(p.Messages, msg)
		s.persistLocked()
	}
}

// RemoveMessage removes a message by id, used to roll back an
// optimistic user message when its stream fails.
func (s *Store) RemoveMessage(id, messageID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.findLocked(id)
	if p == nil {
		return
	}
	kept := p.Messages[:0]
	for _, m := range p.Messages {
		if m.ID != messageID {
			kept = append(kept, m)
		}
	}
	p.Messages = kept
	s.persistLocked()
}

// SetFailed records a failed submission for retry.
func (s *Store) SetFailed(id string, failed FailedSubmission) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p := s.findLocked(id); p != nil {
		p.Failed = &failed
		s.persistLocked()
	}
}

// ClearFailed discards a panel's failure state.
func (s *Store) ClearFailed(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p := s.findLocked(id); p != nil {
		p.Failed = nil
		s.persistLocked()
	}
}

// =============================================================================
// CONVERSATION GROUPS
// =============================================================================

// Groups returns all conversation groups.
func (s *Store) Groups() []ConversationGroup {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ConversationGroup, len(s.groups))
	copy(out, s.groups)
	return out
}

// AddGroup creates a conversation group, makes it active, and returns
// its id.
func (s *Store) AddGroup(name, description string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := newConversationGroup(name, description)
	s.groups = append(s.groups, g)
	s.activeConversation = g.ID
	s.persistLocked()
	return g.ID
}

// RemoveGroup deletes a conversation group and its panels. The last
// group is never removed.
func (s *Store) RemoveGroup(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.groups) <= 1 {
		return
	}
	idx := -1
	for i, g := range s.groups {
		if g.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return
	}
	s.groups = append(s.groups[:idx], s.groups[idx+1:]...)

	kept := s.panels[:0]
	for _, p := range s.panels {
		if p.ConversationID != id {
			kept = append(kept, p)
		}
	}
	s.panels = kept

	if s.activeConversation == id {
		s.activeConversation = s.groups[0].ID
		s.ensureConversationPanelLocked(s.activeConversation)
	}
	if s.findLocked(s.activePanel) == nil {
		s.activePanel = s.firstPanelLocked(s.activeConversation)
	}
	s.persistLocked()
}

// RenameGroup updates a group's name and description.
func (s *Store) RenameGroup(id, name, description string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.groups {
		if s.groups[i].ID == id {
			s.groups[i].Name = name
			s.groups[i].Description = description
			s.groups[i].UpdatedAt = time.Now()
			s.persistLocked()
			return
		}
	}
}

// SetActiveConversation switches the active group, creating a panel for
// it when it has none.
func (s *Store) SetActiveConversation(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range s.groups {
		if g.ID == id {
			s.activeConversation = id
			s.ensureConversationPanelLocked(id)
			s.activePanel = s.firstPanelLocked(id)
			s.persistLocked()
			return
		}
	}
}

func (s *Store) ensureConversationPanelLocked(conversationID string) {
	for _, p := range s.panels {
		if p.ConversationID == conversationID {
			return
		}
	}
	s.panels = append(s.panels, newPanel(conversationID, s.defaultModel))
}
