// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream decodes one model turn's chunked response into a typed
// event sequence: text deltas, reasoning deltas, produced files, and a
// final synthesized metrics annotation.
//
// The wire format is newline-delimited chunks with no alignment between
// network reads and chunk boundaries. A chunk is either a bare UTF-8
// text fragment, a JSON object carrying a "text" or "reasoning" delta,
// or an arbitrarily nested JSON object that may embed file payloads and
// usage fragments anywhere in its structure. File payloads are
// discovered structurally (see files.go) rather than at a fixed path,
// because the shape varies by backend.
package stream
