// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures shared across the chat
// subsystems: messages, message parts, attachments, and the per-response
// metrics record attached to completed assistant turns.
package model
