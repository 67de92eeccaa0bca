// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides local persistence for voicechat.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/jeranaias/voicechat/internal/model"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrDatabaseError = errors.New("database error")
	ErrClosed        = errors.New("store closed")
)

// DefaultHistoryLimit is the number of messages History returns when no
// limit is given.
const DefaultHistoryLimit = 10

// =============================================================================
// INTERFACES
// =============================================================================

// KV is persistent string key-value storage.
type KV interface {
	// Get returns the value for key and whether it was present.
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Remove(key string) error
}

// History stores the local transcript.
type History interface {
	SaveMessage(ctx context.Context, entry Entry) error
	// ListMessages returns up to limit of the most recent messages for the
	// (session, user) pair, oldest first.
	ListMessages(ctx context.Context, sessionID, userID string, limit int) ([]Entry, error)
}

// Store is everything the application persists.
type Store interface {
	KV
	History
	Close() error
}

// Entry is one persisted transcript message.
type Entry struct {
	ID        int64
	SessionID string
	UserID    string
	Sender    model.Sender
	Text      string
	AudioURL  string
	CreatedAt time.Time
}

// EntryFromMessage builds an Entry for msg in the given identity.
func EntryFromMessage(sessionID, userID string, msg model.Message) Entry {
	created := msg.Timestamp
	if created.IsZero() {
		created = time.Now()
	}
	return Entry{
		SessionID: sessionID,
		UserID:    userID,
		Sender:    msg.Sender,
		Text:      msg.Text,
		AudioURL:  msg.AudioURL,
		CreatedAt: created,
	}
}

// lastN keeps the trailing n entries of an oldest-first slice.
func lastN(entries []Entry, n int) []Entry {
	if n <= 0 {
		n = DefaultHistoryLimit
	}
	if len(entries) <= n {
		return entries
	}
	return entries[len(entries)-n:]
}
