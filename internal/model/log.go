// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// =============================================================================
// MESSAGE LOG
// =============================================================================

// Log is the ordered message list of the current session. It is not safe
// for concurrent use; the controller guards it.
type Log struct {
	messages []Message
}

// NewLog returns an empty log.
func NewLog() *Log {
	return &Log{messages: make([]Message, 0, 16)}
}

// Append adds msg at the end.
func (l *Log) Append(msg Message) {
	l.messages = append(l.messages, msg)
}

// RemoveByID deletes the message with id and reports whether it existed.
// Order of the remaining messages is preserved.
func (l *Log) RemoveByID(id string) bool {
	for i, m := range l.messages {
		if m.ID == id {
			l.messages = append(l.messages[:i], l.messages[i+1:]...)
			return true
		}
	}
	return false
}

// Get returns the message with id.
func (l *Log) Get(id string) (Message, bool) {
	for _, m := range l.messages {
		if m.ID == id {
			return m, true
		}
	}
	return Message{}, false
}

// Clear drops every message.
func (l *Log) Clear() {
	l.messages = l.messages[:0]
}

// Len returns the number of messages.
func (l *Log) Len() int {
	return len(l.messages)
}

// Messages returns a copy of the messages in order.
func (l *Log) Messages() []Message {
	out := make([]Message, len(l.messages))
	copy(out, l.messages)
	return out
}

// LastWithAudio returns the most recent message carrying audio.
func (l *Log) LastWithAudio() (Message, bool) {
	for i := len(l.messages) - 1; i >= 0; i-- {
		if l.messages[i].HasAudio() {
			return l.messages[i], true
		}
	}
	return Message{}, false
}
