// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/jeranaias/voicechat/internal/markdown"
	"github.com/jeranaias/voicechat/internal/model"
	"github.com/jeranaias/voicechat/internal/ui/styles"
)

// =============================================================================
// MESSAGE BUBBLE COMPONENT
// =============================================================================

// TimestampFormat is used when timestamps are shown.
const TimestampFormat = "15:04"

// MessageBubble renders a single message.
type MessageBubble struct {
	Message model.Message
	// Index is the 1-based position shown next to the label, used by the
	// /play N command. Zero hides it.
	Index         int
	Playing       bool
	ShowTimestamp bool

	theme    *styles.Theme
	renderer markdown.Renderer
}

// NewMessageBubble creates a bubble. A nil renderer shows bot text as is.
func NewMessageBubble(msg model.Message, theme *styles.Theme, renderer markdown.Renderer) *MessageBubble {
	if renderer == nil {
		renderer = markdown.Plain{}
	}
	return &MessageBubble{Message: msg, theme: theme, renderer: renderer}
}

// View renders the bubble: a header line followed by the body.
func (b *MessageBubble) View() string {
	return b.header() + "\n" + b.body()
}

func (b *MessageBubble) header() string {
	t := b.theme
	var parts []string

	if b.Index > 0 {
		parts = append(parts, t.Timestamp.Render(fmt.Sprintf("[%d]", b.Index)))
	}

	switch b.Message.Sender {
	case model.SenderUser:
		parts = append(parts, t.UserLabel.Render(b.Message.Sender.DisplayName()))
	case model.SenderBot:
		parts = append(parts, t.BotLabel.Render(b.Message.Sender.DisplayName()))
	}

	if b.Message.HasAudio() {
		parts = append(parts, b.affordance())
	}
	if b.ShowTimestamp && !b.Message.Timestamp.IsZero() {
		parts = append(parts, t.Timestamp.Render(b.Message.Timestamp.Format(TimestampFormat)))
	}
	return strings.Join(parts, " ")
}

// affordance is the play/pause control of a message with audio.
func (b *MessageBubble) affordance() string {
	if b.Playing {
		return b.theme.Playing.Render(styles.SymbolPause + " playing")
	}
	return b.theme.PlayButton.Render(styles.SymbolPlay + " play")
}

func (b *MessageBubble) body() string {
	t := b.theme
	if b.Message.Transient {
		return t.UserBubble.Render(t.Transient.Render(b.Message.Text))
	}

	switch b.Message.Sender {
	case model.SenderBot:
		return t.BotBubble.Render(b.renderer.Render(b.Message.Text))
	case model.SenderUser:
		return t.UserBubble.Render(b.Message.Text)
	default:
		return b.Message.Text
	}
}
