// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/modelgrid-tui/internal/catalog"
	"github.com/jeranaias/modelgrid-tui/internal/client"
	"github.com/jeranaias/modelgrid-tui/internal/model"
)

// =============================================================================
// PANEL TYPE
// =============================================================================

// Panel is one independent comparison column.
//
// ID regenerates on model change or reset; that replacement is the
// signal that tears down any in-flight stream keyed to the old id.
// SessionID is issued once at creation and survives resets, correlating
// a panel across restarts of a stateful backend conversation.
type Panel struct {
	ID             string `json:"id"`
	SessionID      string `json:"session_id"`
	ConversationID string `json:"conversation_id"`

	ModelID string                   `json:"model_id"`
	Config  catalog.GenerationConfig `json:"config"`

	PendingInput       string             `json:"pending_input"`
	PendingAttachments []model.Attachment `json:"-"`

	Synced   bool            `json:"synced"`
	Messages []model.Message `json:"messages"`

	Failed *FailedSubmission `json:"failed,omitempty"`
}

// FailedSubmission retains a submission that failed before producing a
// persisted assistant message, so retry needs no retyping. Attachments
// are never persisted.
type FailedSubmission struct {
	Content     string             `json:"content"`
	Attachments []model.Attachment `json:"-"`
	Kind        client.ErrorKind   `json:"kind"`
	Message     string             `json:"message"`
}

// newPanel creates a panel bound to a conversation, starting on the
// given model.
func newPanel(conversationID string, info catalog.ModelInfo) *Panel {
	return &Panel{
		ID:             uuid.NewString(),
		SessionID:      uuid.NewString(),
		ConversationID: conversationID,
		ModelID:        info.ID,
		Config:         info.Params.DefaultConfig(),
		Synced:         true,
	}
}

// Model returns the panel's catalog entry, falling back to the default
// when the id is unknown (for example after a catalog change).
func (p *Panel) Model() catalog.ModelInfo {
	if info, ok := catalog.Lookup(p.ModelID); ok {
		return info
	}
	return catalog.Default()
}

// LastMessageAt returns the timestamp of the panel's most recent
// message. Panels with no messages report the zero time, ranking last
// in eviction.
func (p *Panel) LastMessageAt() time.Time {
	if len(p.Messages) == 0 {
		return time.Time{}
	}
	return p.Messages[len(p.Messages)-1].CreatedAt
}

// clone returns a deep-enough copy for safe hand-off outside the store
// lock. Message and attachment slices are copied; byte payloads are
// shared, which is safe because the store never mutates them in place.
func (p *Panel) clone() *Panel {
	cp := *p
	cp.Messages = append([]model.Message(nil), p.Messages...)
	cp.PendingAttachments = append([]model.Attachment(nil), p.PendingAttachments...)
	if p.Failed != nil {
		failed := *p.Failed
		failed.Attachments = append([]model.Attachment(nil), p.Failed.Attachments...)
		cp.Failed = &failed
	}
	return &cp
}

// =============================================================================
// CONVERSATION GROUPS
// =============================================================================

// ConversationGroup is a named grouping scope for panels. Sync fan-out
// is bounded by the group when the scope strategy is "conversation".
type ConversationGroup struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func newConversationGroup(name, description string) ConversationGroup {
	now := time.Now()
	return ConversationGroup{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
