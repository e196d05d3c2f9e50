// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package syncer

import "sync"

// =============================================================================
// EVENT BUS
// =============================================================================

// Trigger names a cross-panel event published on the bus.
type Trigger string

const (
	// TriggerSubmit announces that synchronized panels should run
	// their pending input.
	TriggerSubmit Trigger = "submit-triggered"

	// TriggerAttachmentAdded announces an attachment fan-out.
	TriggerAttachmentAdded Trigger = "attachment-added"

	// TriggerAttachmentRemoved announces an attachment removal
	// fan-out.
	TriggerAttachmentRemoved Trigger = "attachment-removed"
)

// Signal is one published bus event.
type Signal struct {
	Trigger        Trigger
	ConversationID string
	OriginPanel    string
}

// Bus is a synchronous in-process publish/subscribe channel for sync
// events. Handlers run inline on the publishing goroutine.
type Bus struct {
	mu       sync.Mutex
	handlers []func(Signal)
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a handler for every published signal.
func (b *Bus) Subscribe(fn func(Signal)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, fn)
}

// Publish delivers a signal to all handlers in subscription order.
func (b *Bus) Publish(sig Signal) {
	b.mu.Lock()
	handlers := make([]func(Signal), len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.Unlock()

	for _, fn := range handlers {
		fn(sig)
	}
}
