// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides local persistence for voicechat.
//
// Two things are stored: string key-value pairs (the session and user
// identifiers) and a local transcript of every message shown, keyed by
// session and user.
//
// # Key Types
//
//   - KV: get/set/remove string storage
//   - History: transcript persistence
//   - DB: SQLite implementation of both (modernc.org/sqlite, no cgo)
//   - Memory: in-process fallback used when the database cannot be opened
//
// # Usage
//
//	store := storage.OpenOrMemory(cfg.DatabasePath())
//	defer store.Close()
//	store.Set("sessionId", "session_1700000000000")
//	entries, err := store.ListMessages(ctx, sessionID, userID, storage.DefaultHistoryLimit)
//
// # Storage Location
//
// The database lives at <data_dir>/voicechat.db (default ~/.voicechat).
package storage
