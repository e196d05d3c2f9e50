// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package panel drives the request lifecycle of a single chat panel.
//
// A Controller owns one panel's submission state machine: it appends
// the user message optimistically, opens the model stream, feeds the
// parser, and settles or fails the panel when the stream ends. A
// Manager keeps one controller per live panel and drops controllers
// whose panel id has been replaced, which orphans their in-flight
// streams.
package panel
