// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package syncer fans input edits out across panels that opted into
// synchronized input.
//
// The Coordinator recomputes the target set on every operation from
// live store state, so toggling a panel's sync flag mid-session takes
// effect immediately. Text fan-out is gated on text input support and
// attachment fan-out on image input support; attachment removal is
// unconditional so a model swap can never strand an attachment.
// Submission is a broadcast trigger, not content fan-out: each target
// panel submits its own pending input.
package syncer
