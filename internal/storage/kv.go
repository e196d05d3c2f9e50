// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

// =============================================================================
// KEY-VALUE BOUNDARY
// =============================================================================

// KV is the durable store consumed by the session layer. Writes are
// idempotent full replacements keyed by string; a write that would
// exceed the store's byte budget fails with ErrQuotaExceeded and leaves
// the previous value intact.
type KV interface {
	// Get returns the value for key, or ErrKeyNotFound.
	Get(key string) (string, error)

	// Set stores value under key, replacing any previous value.
	Set(key, value string) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error

	// Close releases the store.
	Close() error
}

// =============================================================================
// ERRORS
// =============================================================================

// StoreError represents a storage-boundary error. It supports errors.Is
// comparison against the package sentinels.
type StoreError struct {
	Message string
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	return e.Message
}

// Is implements errors.Is support for comparing store errors.
func (e *StoreError) Is(target error) bool {
	t, ok := target.(*StoreError)
	if !ok {
		return false
	}
	return e.Message == t.Message
}

// ErrQuotaExceeded is returned when a write would exceed the store's
// byte budget. Callers are expected to prune and retry.
var ErrQuotaExceeded = &StoreError{Message: "storage quota exceeded"}

// ErrKeyNotFound is returned by Get for a missing key.
var ErrKeyNotFound = &StoreError{Message: "key not found"}

// entrySize is the budget accounting for one key-value pair.
func entrySize(key, value string) int64 {
	return int64(len(key) + len(value))
}
