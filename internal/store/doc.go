// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store owns the durable representation of every chat panel:
// selected model, pending input, attachments, transcript, sync flag and
// failure state. Every mutation is mirrored to the storage boundary
// under a bounded budget, with quota recovery that keeps the active
// conversation usable when the budget is exhausted.
package store
