// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKVContract(t *testing.T, kv KV) {
	t.Helper()

	_, err := kv.Get("missing")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, kv.Set("a", "one"))
	got, err := kv.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "one", got)

	require.NoError(t, kv.Set("a", "two"))
	got, _ = kv.Get("a")
	assert.Equal(t, "two", got)

	require.NoError(t, kv.Delete("a"))
	_, err = kv.Get("a")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	// Deleting a missing key is not an error.
	assert.NoError(t, kv.Delete("a"))
}

func testKVQuota(t *testing.T, kv KV) {
	t.Helper()

	// Budget is 100 bytes of key+value.
	require.NoError(t, kv.Set("k1", strings.Repeat("x", 40)))

	err := kv.Set("k2", strings.Repeat("y", 70))
	assert.ErrorIs(t, err, ErrQuotaExceeded)
	_, err = kv.Get("k2")
	assert.ErrorIs(t, err, ErrKeyNotFound, "rejected write leaves no trace")

	// Replacing an existing key counts the replacement, not both.
	require.NoError(t, kv.Set("k1", strings.Repeat("z", 90)))

	// Freeing space makes room again.
	require.NoError(t, kv.Delete("k1"))
	require.NoError(t, kv.Set("k2", strings.Repeat("y", 70)))
}

func TestMemoryKV(t *testing.T) {
	kv := NewMemoryKV(0)
	defer kv.Close()
	testKVContract(t, kv)
}

func TestMemoryKVQuota(t *testing.T) {
	kv := NewMemoryKV(100)
	defer kv.Close()
	testKVQuota(t, kv)
}

func TestSQLiteKV(t *testing.T) {
	kv, err := OpenSQLite(filepath.Join(t.TempDir(), "state", "sessions.db"), 0)
	require.NoError(t, err)
	defer kv.Close()
	testKVContract(t, kv)
}

func TestSQLiteKVQuota(t *testing.T) {
	kv, err := OpenSQLite(filepath.Join(t.TempDir(), "sessions.db"), 100)
	require.NoError(t, err)
	defer kv.Close()
	testKVQuota(t, kv)
}

func TestSQLiteKVReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.db")

	kv, err := OpenSQLite(path, 0)
	require.NoError(t, err)
	require.NoError(t, kv.Set("chat-store", `{"version":2}`))
	require.NoError(t, kv.Close())

	kv, err = OpenSQLite(path, 0)
	require.NoError(t, err)
	defer kv.Close()
	got, err := kv.Get("chat-store")
	require.NoError(t, err)
	assert.Equal(t, `{"version":2}`, got)
}
