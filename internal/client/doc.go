// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package client talks to the streaming inference endpoint and the
// audio synthesis endpoint. It owns the shared error taxonomy used to
// classify stream failures for the panel retry flow.
package client
