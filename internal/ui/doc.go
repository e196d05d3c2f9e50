// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ui implements the modelgrid terminal interface: a row of
// side-by-side model panels over a shared input line, with live
// streaming output, per-response metrics, and synchronized editing
// across panels.
package ui
