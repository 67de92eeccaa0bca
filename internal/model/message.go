// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// SENDER TYPE
// =============================================================================

// Sender identifies who produced a message. The set is closed.
type Sender int

const (
	SenderUser Sender = iota
	SenderBot
)

// String returns the role name used in persisted history.
func (s Sender) String() string {
	switch s {
	case SenderUser:
		return "user"
	case SenderBot:
		return "bot"
	default:
		return "unknown"
	}
}

// DisplayName returns a human-readable name for the sender.
func (s Sender) DisplayName() string {
	switch s {
	case SenderUser:
		return "You"
	case SenderBot:
		return "Bot"
	default:
		return "?"
	}
}

// ParseSender maps a persisted role name back to a Sender.
func ParseSender(role string) (Sender, bool) {
	switch role {
	case "user":
		return SenderUser, true
	case "bot":
		return SenderBot, true
	}
	return 0, false
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message is a single entry in the visible conversation.
type Message struct {
	ID        string    `json:"id"`
	Sender    Sender    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`

	// AudioURL references playable audio: file:// for local clips,
	// http(s):// for clips served by the backend. Empty means no audio.
	AudioURL string `json:"audio_url,omitempty"`

	// Transient marks the recording placeholder, which is removed rather
	// than persisted.
	Transient bool `json:"-"`
}

// NewMessage creates a message with a fresh UUID.
func NewMessage(sender Sender, text string) Message {
	return Message{
		ID:        uuid.NewString(),
		Sender:    sender,
		Text:      text,
		Timestamp: time.Now(),
	}
}

// NewUserMessage creates a user message.
func NewUserMessage(text string) Message {
	return NewMessage(SenderUser, text)
}

// NewBotMessage creates a bot message.
func NewBotMessage(text string) Message {
	return NewMessage(SenderBot, text)
}

// WithAudio returns a copy of m referencing audioURL.
func (m Message) WithAudio(audioURL string) Message {
	m.AudioURL = audioURL
	return m
}

// HasAudio reports whether the message can be played.
func (m Message) HasAudio() bool {
	return m.AudioURL != ""
}

// Preview returns the text truncated to maxLen runes.
func (m Message) Preview(maxLen int) string {
	runes := []rune(m.Text)
	if maxLen <= 3 || len(runes) <= maxLen {
		return m.Text
	}
	return string(runes[:maxLen-3]) + "..."
}
