// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package identity manages the session and user identifiers sent with
// every backend request.
//
// Identifiers are "session_<token>" and "user_<token>", where the token is
// the Unix time in milliseconds. Both are persisted in key-value storage
// under the keys "sessionId" and "userId" and are never empty once Load
// has returned.
package identity

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/jeranaias/voicechat/internal/storage"
	"github.com/jeranaias/voicechat/internal/util"
)

// Storage keys and identifier prefixes.
const (
	KeySession = "sessionId"
	KeyUser    = "userId"

	SessionPrefix = "session_"
	UserPrefix    = "user_"
)

// =============================================================================
// IDENTITY
// =============================================================================

// Identity is the (session, user) pair scoping a conversation.
type Identity struct {
	SessionID string
	UserID    string
}

// SessionSuffix returns the session id without its prefix, for display.
func (id Identity) SessionSuffix() string {
	return util.TrimIDPrefix(id.SessionID, SessionPrefix)
}

// UserSuffix returns the user id without its prefix, for display.
func (id Identity) UserSuffix() string {
	return util.TrimIDPrefix(id.UserID, UserPrefix)
}

// Valid reports whether both identifiers are set.
func (id Identity) Valid() bool {
	return id.SessionID != "" && id.UserID != ""
}

// =============================================================================
// GENERATOR
// =============================================================================

// Generator produces time-based tokens that strictly increase within a
// process, even when called twice in the same millisecond.
type Generator struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

// NewGenerator returns a generator using the wall clock.
func NewGenerator() *Generator {
	return &Generator{now: time.Now}
}

// NewGeneratorWithClock returns a generator reading time from now.
func NewGeneratorWithClock(now func() time.Time) *Generator {
	return &Generator{now: now}
}

// Next returns prefix followed by a fresh token.
func (g *Generator) Next(prefix string) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	token := g.now().UnixMilli()
	if token <= g.last {
		token = g.last + 1
	}
	g.last = token
	return prefix + strconv.FormatInt(token, 10)
}

// Observe records an identifier issued earlier, possibly by another
// process, so later tokens are greater than its token. Identifiers without
// a numeric token are ignored.
func (g *Generator) Observe(id, prefix string) {
	token, err := strconv.ParseInt(util.TrimIDPrefix(id, prefix), 10, 64)
	if err != nil {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if token > g.last {
		g.last = token
	}
}

// =============================================================================
// STORE
// =============================================================================

// Store keeps the current identity in memory and mirrors it to storage.
// When storage fails the in-memory identity stays authoritative and the
// error is returned alongside it.
type Store struct {
	mu      sync.Mutex
	kv      storage.KV
	gen     *Generator
	current Identity
}

// NewStore creates a store over kv. A nil gen uses the wall clock.
func NewStore(kv storage.KV, gen *Generator) *Store {
	if gen == nil {
		gen = NewGenerator()
	}
	return &Store{kv: kv, gen: gen}
}

// Load reads both identifiers from storage, generating and persisting any
// that are missing.
func (s *Store) Load() (Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	session, err := s.loadOrCreate(KeySession, SessionPrefix)
	errs = append(errs, err)
	user, err := s.loadOrCreate(KeyUser, UserPrefix)
	errs = append(errs, err)

	s.current = Identity{SessionID: session, UserID: user}
	return s.current, errors.Join(errs...)
}

func (s *Store) loadOrCreate(key, prefix string) (string, error) {
	v, ok, err := s.kv.Get(key)
	if err == nil && ok && v != "" {
		s.gen.Observe(v, prefix)
		return v, nil
	}
	fresh := s.gen.Next(prefix)
	if err != nil {
		return fresh, fmt.Errorf("read %s: %w", key, err)
	}
	if err := s.kv.Set(key, fresh); err != nil {
		return fresh, fmt.Errorf("persist %s: %w", key, err)
	}
	return fresh, nil
}

// Current returns the identity last loaded or reset.
func (s *Store) Current() Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// ResetSession replaces the session id. The user id is unchanged.
func (s *Store) ResetSession() (Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.replace(KeySession, SessionPrefix, &s.current.SessionID)
	return s.current, err
}

// ResetUser replaces both the user id and the session id.
func (s *Store) ResetUser() (Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	errUser := s.replace(KeyUser, UserPrefix, &s.current.UserID)
	errSession := s.replace(KeySession, SessionPrefix, &s.current.SessionID)
	return s.current, errors.Join(errUser, errSession)
}

// replace stores a new id in dst. The new id always differs from the old.
func (s *Store) replace(key, prefix string, dst *string) error {
	s.gen.Observe(*dst, prefix)
	fresh := s.gen.Next(prefix)
	for fresh == *dst {
		fresh = s.gen.Next(prefix)
	}
	*dst = fresh
	if err := s.kv.Remove(key); err != nil {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	if err := s.kv.Set(key, *dst); err != nil {
		return fmt.Errorf("persist %s: %w", key, err)
	}
	return nil
}
