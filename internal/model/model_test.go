// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "testing"

// =============================================================================
// SENDER TESTS
// =============================================================================

func TestSender_RoundTrip(t *testing.T) {
	for _, s := range []Sender{SenderUser, SenderBot} {
		got, ok := ParseSender(s.String())
		if !ok || got != s {
			t.Errorf("ParseSender(%q) = %v, %v", s.String(), got, ok)
		}
	}
	if _, ok := ParseSender("assistant"); ok {
		t.Error("unexpected sender parsed")
	}
}

func TestSender_DisplayName(t *testing.T) {
	if SenderUser.DisplayName() != "You" || SenderBot.DisplayName() != "Bot" {
		t.Errorf("unexpected display names: %q %q", SenderUser.DisplayName(), SenderBot.DisplayName())
	}
}

// =============================================================================
// MESSAGE TESTS
// =============================================================================

func TestNewMessage_UniqueIDs(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		m := NewUserMessage("x")
		if seen[m.ID] {
			t.Fatalf("duplicate id %s", m.ID)
		}
		seen[m.ID] = true
	}
}

func TestMessage_WithAudio(t *testing.T) {
	m := NewBotMessage("hi")
	if m.HasAudio() {
		t.Error("new message should have no audio")
	}
	withAudio := m.WithAudio("http://h/a.wav")
	if !withAudio.HasAudio() || withAudio.ID != m.ID {
		t.Errorf("WithAudio lost fields: %+v", withAudio)
	}
	if m.HasAudio() {
		t.Error("WithAudio must not mutate the receiver")
	}
}

func TestMessage_Preview(t *testing.T) {
	tests := []struct {
		text string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"hello world", 8, "hello..."},
		{"héllo wörld", 8, "héllo..."},
	}
	for _, tc := range tests {
		if got := (Message{Text: tc.text}).Preview(tc.max); got != tc.want {
			t.Errorf("Preview(%q, %d) = %q, want %q", tc.text, tc.max, got, tc.want)
		}
	}
}

// =============================================================================
// LOG TESTS
// =============================================================================

func TestLog_AppendRemoveOrder(t *testing.T) {
	log := NewLog()
	a, b, c := NewUserMessage("a"), NewUserMessage("b"), NewBotMessage("c")
	log.Append(a)
	log.Append(b)
	log.Append(c)

	if !log.RemoveByID(b.ID) {
		t.Fatal("RemoveByID returned false")
	}
	if log.RemoveByID(b.ID) {
		t.Error("second RemoveByID should return false")
	}

	msgs := log.Messages()
	if len(msgs) != 2 || msgs[0].ID != a.ID || msgs[1].ID != c.ID {
		t.Errorf("unexpected order after removal: %+v", msgs)
	}
}

func TestLog_MessagesIsCopy(t *testing.T) {
	log := NewLog()
	log.Append(NewUserMessage("a"))

	msgs := log.Messages()
	msgs[0].Text = "mutated"

	if got, _ := log.Get(msgs[0].ID); got.Text != "a" {
		t.Errorf("log was mutated through Messages(): %q", got.Text)
	}
}

func TestLog_LastWithAudio(t *testing.T) {
	log := NewLog()
	if _, ok := log.LastWithAudio(); ok {
		t.Error("empty log has no audio")
	}

	first := NewBotMessage("1").WithAudio("file:///a.wav")
	log.Append(first)
	log.Append(NewUserMessage("2"))
	second := NewBotMessage("3").WithAudio("http://h/b.wav")
	log.Append(second)

	got, ok := log.LastWithAudio()
	if !ok || got.ID != second.ID {
		t.Errorf("LastWithAudio = %+v", got)
	}

	log.Clear()
	if log.Len() != 0 {
		t.Errorf("Len after Clear = %d", log.Len())
	}
}
