// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import "sync"

// =============================================================================
// IN-MEMORY STORE
// =============================================================================

// MemoryKV is an in-memory KV with the same quota semantics as the
// durable implementations. Used in tests and as a fallback when no
// state path is configured.
type MemoryKV struct {
	mu     sync.Mutex
	data   map[string]string
	budget int64
}

// NewMemoryKV creates a memory store. A budget of zero means unbounded.
func NewMemoryKV(budget int64) *MemoryKV {
	return &MemoryKV{
		data:   make(map[string]string),
		budget: budget,
	}
}

// Get returns the value for key.
func (m *MemoryKV) Get(key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.data[key]
	if !ok {
		return "", ErrKeyNotFound
	}
	return value, nil
}

// Set stores value under key, enforcing the byte budget.
func (m *MemoryKV) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.budget > 0 {
		var total int64
		for k, v := range m.data {
			if k == key {
				continue
			}
			total += entrySize(k, v)
		}
		if total+entrySize(key, value) > m.budget {
			return ErrQuotaExceeded
		}
	}

	m.data[key] = value
	return nil
}

// Delete removes key.
func (m *MemoryKV) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Close releases the store.
func (m *MemoryKV) Close() error {
	return nil
}

// SetBudget replaces the byte budget. Existing entries are not
// evicted; the new budget applies on the next Set.
func (m *MemoryKV) SetBudget(budget int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.budget = budget
}

// Len returns the number of stored keys.
func (m *MemoryKV) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}
