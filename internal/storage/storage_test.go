// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/jeranaias/voicechat/internal/model"
)

// stores runs fn against both implementations.
func stores(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Run("sqlite", func(t *testing.T) {
		db, err := Open(filepath.Join(t.TempDir(), "test.db"))
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		defer db.Close()
		fn(t, db)
	})
	t.Run("memory", func(t *testing.T) {
		fn(t, NewMemory())
	})
}

// =============================================================================
// KEY-VALUE TESTS
// =============================================================================

func TestKV_GetSetRemove(t *testing.T) {
	stores(t, func(t *testing.T, s Store) {
		if _, ok, err := s.Get("sessionId"); err != nil || ok {
			t.Fatalf("Get on empty store = ok %v, err %v", ok, err)
		}

		if err := s.Set("sessionId", "session_1"); err != nil {
			t.Fatalf("Set: %v", err)
		}
		if err := s.Set("sessionId", "session_2"); err != nil {
			t.Fatalf("Set overwrite: %v", err)
		}
		v, ok, err := s.Get("sessionId")
		if err != nil || !ok || v != "session_2" {
			t.Errorf("Get = %q, %v, %v", v, ok, err)
		}

		if err := s.Remove("sessionId"); err != nil {
			t.Fatalf("Remove: %v", err)
		}
		if _, ok, _ := s.Get("sessionId"); ok {
			t.Error("value still present after Remove")
		}
		if err := s.Remove("missing"); err != nil {
			t.Errorf("Remove of missing key: %v", err)
		}
	})
}

func TestDB_PersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persist.db")

	db, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := db.Set("userId", "user_42"); err != nil {
		t.Fatal(err)
	}
	db.Close()

	db, err = Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	if v, ok, _ := db.Get("userId"); !ok || v != "user_42" {
		t.Errorf("Get after reopen = %q, %v", v, ok)
	}
}

func TestDB_ClosedReturnsErr(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "closed.db"))
	if err != nil {
		t.Fatal(err)
	}
	db.Close()
	if err := db.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}

	if err := db.Set("k", "v"); !errors.Is(err, ErrClosed) {
		t.Errorf("Set after Close = %v, want ErrClosed", err)
	}
}

func TestOpenOrMemory_FallsBack(t *testing.T) {
	// A regular file where the parent directory should be makes Open fail.
	blocker := filepath.Join(t.TempDir(), "file")
	db, err := Open(blocker)
	if err != nil {
		t.Fatal(err)
	}
	db.Close()

	s := OpenOrMemory(filepath.Join(blocker, "nested.db"))
	defer s.Close()
	if _, ok := s.(*Memory); !ok {
		t.Errorf("expected *Memory fallback, got %T", s)
	}
}

// =============================================================================
// HISTORY TESTS
// =============================================================================

func TestHistory_ScopedAndOrdered(t *testing.T) {
	stores(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		save := func(session, user string, sender model.Sender, text string) {
			t.Helper()
			err := s.SaveMessage(ctx, EntryFromMessage(session, user, model.NewMessage(sender, text)))
			if err != nil {
				t.Fatalf("SaveMessage: %v", err)
			}
		}

		save("session_1", "user_1", model.SenderUser, "hello")
		save("session_1", "user_1", model.SenderBot, "hi")
		save("session_2", "user_1", model.SenderUser, "other session")
		save("session_1", "user_2", model.SenderUser, "other user")

		entries, err := s.ListMessages(ctx, "session_1", "user_1", 0)
		if err != nil {
			t.Fatalf("ListMessages: %v", err)
		}
		if len(entries) != 2 {
			t.Fatalf("got %d entries, want 2", len(entries))
		}
		if entries[0].Text != "hello" || entries[0].Sender != model.SenderUser {
			t.Errorf("entries[0] = %+v", entries[0])
		}
		if entries[1].Text != "hi" || entries[1].Sender != model.SenderBot {
			t.Errorf("entries[1] = %+v", entries[1])
		}
	})
}

func TestHistory_LimitKeepsNewest(t *testing.T) {
	stores(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		for i := 0; i < 15; i++ {
			entry := Entry{SessionID: "s", UserID: "u", Sender: model.SenderUser, Text: fmt.Sprintf("m%d", i)}
			if err := s.SaveMessage(ctx, entry); err != nil {
				t.Fatal(err)
			}
		}

		entries, err := s.ListMessages(ctx, "s", "u", 0)
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) != DefaultHistoryLimit {
			t.Fatalf("got %d entries, want %d", len(entries), DefaultHistoryLimit)
		}
		if entries[0].Text != "m5" || entries[len(entries)-1].Text != "m14" {
			t.Errorf("window = %q..%q, want m5..m14", entries[0].Text, entries[len(entries)-1].Text)
		}

		three, _ := s.ListMessages(ctx, "s", "u", 3)
		if len(three) != 3 || three[2].Text != "m14" {
			t.Errorf("limit 3 = %+v", three)
		}
	})
}

func TestHistory_AudioURL(t *testing.T) {
	stores(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		msg := model.NewBotMessage("spoken").WithAudio("http://localhost:8000/response_audio/a.wav")
		if err := s.SaveMessage(ctx, EntryFromMessage("s", "u", msg)); err != nil {
			t.Fatal(err)
		}
		entries, _ := s.ListMessages(ctx, "s", "u", 1)
		if len(entries) != 1 || entries[0].AudioURL != msg.AudioURL {
			t.Errorf("entries = %+v", entries)
		}
	})
}
