// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/jeranaias/voicechat/internal/controller"
	"github.com/jeranaias/voicechat/internal/markdown"
	"github.com/jeranaias/voicechat/internal/ui/styles"
)

// Indicator texts.
const (
	LoadingText   = "⏳ Waiting for the bot…"
	RecordingText = "Recording… stop to send"
	EmptyText     = "No messages yet. Type a message or start recording."
)

// ConversationOptions controls how a snapshot is rendered.
type ConversationOptions struct {
	Theme    *styles.Theme
	Renderer markdown.Renderer

	ShowTimestamps bool
	// NumberMessages prefixes each message with its 1-based index.
	NumberMessages bool
	// Spinner is the current loading animation frame, if any.
	Spinner string
}

// RenderConversation renders the message list of snap in order, followed
// by the recording or loading indicator and the inline error.
func RenderConversation(snap controller.Snapshot, opts ConversationOptions) string {
	theme := opts.Theme
	if theme == nil {
		theme = styles.NewPlainTheme()
	}

	var sections []string
	if len(snap.Messages) == 0 {
		sections = append(sections, theme.Help.Render(EmptyText))
	}
	for i, msg := range snap.Messages {
		bubble := NewMessageBubble(msg, theme, opts.Renderer)
		bubble.Playing = msg.ID == snap.PlayingID && snap.PlayingID != ""
		bubble.ShowTimestamp = opts.ShowTimestamps
		if opts.NumberMessages {
			bubble.Index = i + 1
		}
		sections = append(sections, bubble.View())
	}

	if ind := RenderIndicator(snap, theme, opts.Spinner); ind != "" {
		sections = append(sections, ind)
	}
	if snap.Error != "" {
		sections = append(sections, RenderError(snap.Error, theme))
	}
	return strings.Join(sections, "\n\n")
}

// RenderIndicator returns the recording or loading indicator, or "" when
// the controller is idle.
func RenderIndicator(snap controller.Snapshot, theme *styles.Theme, spinner string) string {
	switch {
	case snap.Recording():
		return theme.Recording.Render(styles.SymbolRecording + " " + RecordingText)
	case snap.Loading():
		text := LoadingText
		if spinner != "" {
			text = spinner + " " + text
		}
		return theme.Loading.Render(text)
	default:
		return ""
	}
}

// RenderError renders the inline error string.
func RenderError(msg string, theme *styles.Theme) string {
	return theme.ErrorText.Render(styles.SymbolError + " " + msg)
}
