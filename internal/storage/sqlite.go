// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/voicechat/internal/logger"
	"github.com/jeranaias/voicechat/internal/model"
)

// =============================================================================
// SQLITE STORE
// =============================================================================

// DB is a Store backed by a single SQLite file.
type DB struct {
	db     *sql.DB
	path   string
	mu     sync.RWMutex
	closed bool
}

// Open opens (creating if needed) the database at path.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: open: %v", ErrDatabaseError, err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=10000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%w: %s: %v", ErrDatabaseError, pragma, err)
		}
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if _, err := db.Exec(InitMetadata); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize metadata: %w", err)
	}

	return &DB{db: db, path: path}, nil
}

// OpenOrMemory opens the database at path and falls back to an in-memory
// store when that fails.
func OpenOrMemory(path string) Store {
	db, err := Open(path)
	if err != nil {
		logger.L.Warn("sqlite open failed; using in-memory storage", "path", path, "error", err)
		return NewMemory()
	}
	logger.L.Debug("sqlite storage initialized", "path", path)
	return db
}

// Path returns the database file path.
func (s *DB) Path() string {
	return s.path
}

// Close closes the database.
func (s *DB) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func (s *DB) check() error {
	if s.closed {
		return ErrClosed
	}
	return nil
}

// =============================================================================
// KEY-VALUE
// =============================================================================

// Get implements KV.
func (s *DB) Get(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(); err != nil {
		return "", false, err
	}

	var value string
	err := s.db.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: get %s: %v", ErrDatabaseError, key, err)
	}
	return value, true, nil
}

// Set implements KV.
func (s *DB) Set(key, value string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(); err != nil {
		return err
	}

	_, err := s.db.Exec(
		"INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	if err != nil {
		return fmt.Errorf("%w: set %s: %v", ErrDatabaseError, key, err)
	}
	return nil
}

// Remove implements KV.
func (s *DB) Remove(key string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(); err != nil {
		return err
	}

	if _, err := s.db.Exec("DELETE FROM kv WHERE key = ?", key); err != nil {
		return fmt.Errorf("%w: remove %s: %v", ErrDatabaseError, key, err)
	}
	return nil
}

// =============================================================================
// TRANSCRIPT HISTORY
// =============================================================================

// SaveMessage implements History.
func (s *DB) SaveMessage(ctx context.Context, entry Entry) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(); err != nil {
		return err
	}

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	var audio sql.NullString
	if entry.AudioURL != "" {
		audio = sql.NullString{String: entry.AudioURL, Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (session_id, user_id, role, message, audio_url, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entry.SessionID, entry.UserID, entry.Sender.String(), entry.Text, audio, entry.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("%w: save message: %v", ErrDatabaseError, err)
	}
	return nil
}

// ListMessages implements History.
func (s *DB) ListMessages(ctx context.Context, sessionID, userID string, limit int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, user_id, role, message, audio_url, created_at
		FROM messages
		WHERE session_id = ? AND user_id = ?
		ORDER BY id DESC
		LIMIT ?`,
		sessionID, userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: list messages: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e       Entry
			role    string
			audio   sql.NullString
			created int64
		)
		if err := rows.Scan(&e.ID, &e.SessionID, &e.UserID, &role, &e.Text, &audio, &created); err != nil {
			return nil, fmt.Errorf("%w: scan message: %v", ErrDatabaseError, err)
		}
		sender, ok := model.ParseSender(role)
		if !ok {
			continue
		}
		e.Sender = sender
		e.AudioURL = audio.String
		e.CreatedAt = time.UnixMilli(created)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate messages: %v", ErrDatabaseError, err)
	}

	// Newest first from the query; callers want reading order.
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}
