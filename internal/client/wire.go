// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package client

import (
	"encoding/base64"

	"github.com/jeranaias/modelgrid-tui/internal/model"
)

// =============================================================================
// WIRE MESSAGE CONVERSION
// =============================================================================

// WireMessage is the request representation of one transcript turn.
// Attachments travel base64-encoded; reasoning and file parts of prior
// assistant turns are not replayed to the backend.
type WireMessage struct {
	Role    string      `json:"role"`
	Content string      `json:"content"`
	Images  []WireImage `json:"images,omitempty"`
}

// WireImage is one inline attachment on a user turn.
type WireImage struct {
	Name string `json:"name"`
	Data string `json:"data"`
}

// ToWireMessages converts a transcript to its request representation.
func ToWireMessages(messages []model.Message) []WireMessage {
	out := make([]WireMessage, 0, len(messages))
	for i := range messages {
		msg := &messages[i]
		wire := WireMessage{
			Role:    msg.Role.String(),
			Content: msg.Text(),
		}
		for _, att := range msg.Attachments {
			if len(att.Data) == 0 {
				continue
			}
			wire.Images = append(wire.Images, WireImage{
				Name: att.Name,
				Data: base64.StdEncoding.EncodeToString(att.Data),
			})
		}
		out = append(out, wire)
	}
	return out
}

// PromptChars returns the total character length of the request text,
// used for the input-token estimate when the backend reports no usage.
func PromptChars(messages []WireMessage) int {
	total := 0
	for _, m := range messages {
		total += len(m.Content)
	}
	return total
}
