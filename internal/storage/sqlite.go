// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// =============================================================================
// SQLITE STORE
// =============================================================================

// SQLiteKV persists key-value state in a single SQLite database. The
// byte budget is enforced in the application layer so that quota
// exhaustion surfaces as ErrQuotaExceeded rather than a driver error.
type SQLiteKV struct {
	db     *sql.DB
	budget int64
}

// OpenSQLite opens (creating if needed) the state database at path. A
// budget of zero means unbounded.
func OpenSQLite(path string, budget int64) (*SQLiteKV, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open state database: %w", err)
	}

	const schema = `
	CREATE TABLE IF NOT EXISTS kv (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize state schema: %w", err)
	}

	return &SQLiteKV{db: db, budget: budget}, nil
}

// Get returns the value for key.
func (s *SQLiteKV) Get(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrKeyNotFound
	}
	if err != nil {
		return "", fmt.Errorf("read %q: %w", key, err)
	}
	return value, nil
}

// Set stores value under key, enforcing the byte budget.
func (s *SQLiteKV) Set(key, value string) error {
	if s.budget > 0 {
		var existing int64
		err := s.db.QueryRow(
			`SELECT COALESCE(SUM(LENGTH(key) + LENGTH(value)), 0) FROM kv WHERE key != ?`, key,
		).Scan(&existing)
		if err != nil {
			return fmt.Errorf("measure store size: %w", err)
		}
		if existing+entrySize(key, value) > s.budget {
			return ErrQuotaExceeded
		}
	}

	_, err := s.db.Exec(
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("write %q: %w", key, err)
	}
	return nil
}

// Delete removes key.
func (s *SQLiteKV) Delete(key string) error {
	if _, err := s.db.Exec(`DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

// Close releases the database.
func (s *SQLiteKV) Close() error {
	return s.db.Close()
}
