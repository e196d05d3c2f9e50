// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package syncer

import (
	"github.com/jeranaias/modelgrid-tui/internal/model"
	"github.com/jeranaias/modelgrid-tui/internal/store"
)

// =============================================================================
// SYNC COORDINATOR
// =============================================================================

// Scope selects which panels an edit fans out to.
type Scope string

const (
	// ScopeConversation fans out within the origin panel's
	// conversation group only.
	ScopeConversation Scope = "conversation"

	// ScopeGlobal fans out across every conversation group.
	ScopeGlobal Scope = "global"
)

// Coordinator applies input edits to the origin panel and mirrors them
// onto synchronized peers.
type Coordinator struct {
	store *store.Store
	scope Scope
	bus   *Bus
}

// New creates a coordinator. A nil bus suppresses signal publishing.
func New(st *store.Store, scope Scope, bus *Bus) *Coordinator {
	if scope != ScopeGlobal {
		scope = ScopeConversation
	}
	return &Coordinator{store: st, scope: scope, bus: bus}
}

// Scope returns the configured fan-out scope.
func (c *Coordinator) Scope() Scope {
	return c.scope
}

// peers returns the synchronized panels sharing the origin's scope,
// origin excluded. Recomputed per call so sync toggles and panel
// replacement apply immediately.
func (c *Coordinator) peers(origin *store.Panel) []*store.Panel {
	var candidates []*store.Panel
	if c.scope == ScopeGlobal {
		candidates = c.store.Panels()
	} else {
		candidates = c.store.PanelsForConversation(origin.ConversationID)
	}

	var out []*store.Panel
	for _, p := range candidates {
		if p.ID == origin.ID || !p.Synced {
			continue
		}
		out = append(out, p)
	}
	return out
}

// SetInput writes input text to the origin panel and mirrors it to
// synchronized peers whose model accepts text input. An origin that is
// itself unsynchronized edits alone.
func (c *Coordinator) SetInput(originPanel, input string) {
	origin, ok := c.store.Panel(originPanel)
	if !ok {
		return
	}
	c.store.SetInput(originPanel, input)

	if !origin.Synced {
		return
	}
	for _, p := range c.peers(origin) {
		if p.Model().AcceptsText() {
			c.store.SetInput(p.ID, input)
		}
	}
}

// AddAttachment attaches a file to the origin panel and mirrors it to
// synchronized peers whose model accepts image input.
func (c *Coordinator) AddAttachment(originPanel string, att model.Attachment) {
	origin, ok := c.store.Panel(originPanel)
	if !ok {
		return
	}
	c.store.AddAttachment(originPanel, att)

	if origin.Synced {
		for _, p := range c.peers(origin) {
			if p.Model().AcceptsImages() {
				c.store.AddAttachment(p.ID, att)
			}
		}
	}
	c.publish(TriggerAttachmentAdded, origin)
}

// RemoveAttachment detaches a file by name from the origin panel and
// from all synchronized peers. Removal is never modality gated, so a
// model change cannot strand a mirrored attachment.
func (c *Coordinator) RemoveAttachment(originPanel, name string) {
	origin, ok := c.store.Panel(originPanel)
	if !ok {
		return
	}
	c.store.RemoveAttachment(originPanel, name)

	if origin.Synced {
		for _, p := range c.peers(origin) {
			c.store.RemoveAttachment(p.ID, name)
		}
	}
	c.publish(TriggerAttachmentRemoved, origin)
}

// SynchronizeSystemPrompt copies the origin panel's system prompt to
// synchronized peers that support one.
func (c *Coordinator) SynchronizeSystemPrompt(originPanel string) {
	origin, ok := c.store.Panel(originPanel)
	if !ok || !origin.Synced {
		return
	}
	for _, p := range c.peers(origin) {
		if p.Model().SystemPromptSupport {
			c.store.SetSystemPrompt(p.ID, origin.Config.SystemPrompt)
		}
	}
}

// SubmitTargets returns the panels a submission from the origin should
// run on: the origin itself plus, when it is synchronized, every
// synchronized peer in scope. Each target submits its own pending
// input; the trigger carries no content.
func (c *Coordinator) SubmitTargets(originPanel string) []string {
	origin, ok := c.store.Panel(originPanel)
	if !ok {
		return nil
	}

	targets := []string{origin.ID}
	if origin.Synced {
		for _, p := range c.peers(origin) {
			targets = append(targets, p.ID)
		}
	}
	c.publish(TriggerSubmit, origin)
	return targets
}

func (c *Coordinator) publish(trigger Trigger, origin *store.Panel) {
	if c.bus == nil {
		return
	}
	c.bus.Publish(Signal{
		Trigger:        trigger,
		ConversationID: origin.ConversationID,
		OriginPanel:    origin.ID,
	})
}
