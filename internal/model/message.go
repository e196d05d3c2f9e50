// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	default:
		return string(r)
	}
}

// =============================================================================
// MESSAGE PARTS
// =============================================================================

// PartKind identifies the type of a message content part.
type PartKind string

const (
	PartText      PartKind = "text"
	PartReasoning PartKind = "reasoning"
	PartFile      PartKind = "file"
)

// Part is one typed fragment of a message's content. A single assistant
// message may mix narrative text, a reasoning block, and generated files.
type Part struct {
	Kind PartKind `json:"kind"`

	// Text content (PartText and PartReasoning).
	Text string `json:"text,omitempty"`

	// File content (PartFile).
	MimeType string `json:"mime_type,omitempty"`
	Data     []byte `json:"data,omitempty"`
	Name     string `json:"name,omitempty"`
}

// TextPart creates a plain text part.
func TextPart(text string) Part {
	return Part{Kind: PartText, Text: text}
}

// ReasoningPart creates a reasoning part.
func ReasoningPart(text string) Part {
	return Part{Kind: PartReasoning, Text: text}
}

// FilePart creates a file part.
func FilePart(name, mimeType string, data []byte) Part {
	return Part{Kind: PartFile, Name: name, MimeType: mimeType, Data: data}
}

// =============================================================================
// ATTACHMENT TYPE
// =============================================================================

// Attachment is user-provided inline binary data (typically an image)
// carried alongside a message, unique by name within a panel.
type Attachment struct {
	Name string `json:"name"`
	Data []byte `json:"data,omitempty"`
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single turn in a panel's transcript.
//
// Invariants: only assistant messages carry Annotations; only user
// messages carry Attachments.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`

	// Content is either plain text (Content set, Parts empty) or an
	// ordered list of typed parts.
	Content string `json:"content,omitempty"`
	Parts   []Part `json:"parts,omitempty"`

	// Annotations holds the out-of-band metrics record for a completed
	// assistant turn.
	Annotations *ResponseMetrics `json:"annotations,omitempty"`

	// Attachments carried by a user message, separate from Content.
	Attachments []Attachment `json:"attachments,omitempty"`
}

// NewUserMessage creates a user message with the given content and
// attachments.
func NewUserMessage(content string, attachments []Attachment) Message {
	return Message{
		ID:          uuid.NewString(),
		Role:        RoleUser,
		CreatedAt:   time.Now(),
		Content:     content,
		Attachments: attachments,
	}
}

// NewAssistantMessage creates an assistant message from accumulated parts
// and the final metrics annotation.
func NewAssistantMessage(parts []Part, metrics *ResponseMetrics) Message {
	return Message{
		ID:          uuid.NewString(),
		Role:        RoleAssistant,
		CreatedAt:   time.Now(),
		Parts:       parts,
		Annotations: metrics,
	}
}

// Text returns the readable text of the message: the plain Content if
// set, otherwise all text parts joined in order. Reasoning and file
// parts are excluded.
func (m *Message) Text() string {
	if len(m.Parts) == 0 {
		return m.Content
	}
	var sb strings.Builder
	for _, p := range m.Parts {
		if p.Kind == PartText {
			sb.WriteString(p.Text)
		}
	}
	return sb.String()
}

// Reasoning returns the joined reasoning parts of the message.
func (m *Message) Reasoning() string {
	var sb strings.Builder
	for _, p := range m.Parts {
		if p.Kind == PartReasoning {
			sb.WriteString(p.Text)
		}
	}
	return sb.String()
}

// Files returns the file parts of the message.
func (m *Message) Files() []Part {
	var files []Part
	for _, p := range m.Parts {
		if p.Kind == PartFile {
			files = append(files, p)
		}
	}
	return files
}

// StripBinary returns a copy of the message with attachment bytes and
// file part bytes removed. Used when persisting user messages, where
// binary data is considered ephemeral and re-attachable.
func (m Message) StripBinary() Message {
	if len(m.Attachments) > 0 {
		stripped := make([]Attachment, len(m.Attachments))
		for i, a := range m.Attachments {
			stripped[i] = Attachment{Name: a.Name}
		}
		m.Attachments = stripped
	}
	if m.Role == RoleUser && len(m.Parts) > 0 {
		parts := make([]Part, len(m.Parts))
		copy(parts, m.Parts)
		for i := range parts {
			if parts[i].Kind == PartFile {
				parts[i].Data = nil
			}
		}
		m.Parts = parts
	}
	return m
}
