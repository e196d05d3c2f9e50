// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides the durable key-value boundary for session
// persistence: a synchronous get/set/delete string store with a finite
// byte budget that reports quota exhaustion as a first-class,
// recoverable error.
package storage
