// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package metrics reduces per-response annotations into per-panel and
// per-conversation summaries and exports them for offline comparison.
package metrics
