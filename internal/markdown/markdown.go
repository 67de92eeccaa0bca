// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package markdown renders bot replies for the terminal.
//
// Bot messages arrive as markdown. The glamour renderer turns them into
// styled terminal output; the plain renderer passes them through for piped
// output and terminals without color.
package markdown

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"

	"github.com/jeranaias/voicechat/internal/logger"
)

// Theme names accepted by New.
const (
	ThemeAuto  = "auto"
	ThemeDark  = "dark"
	ThemeLight = "light"
	ThemePlain = "plain"
)

// DefaultWordWrap is the wrap width used when none is configured.
const DefaultWordWrap = 80

// Renderer converts markdown into displayable text.
type Renderer interface {
	Render(markdown string) string
}

// Plain returns text unchanged.
type Plain struct{}

// Render implements Renderer.
func (Plain) Render(markdown string) string {
	return markdown
}

// Glamour renders markdown with glamour styles.
type Glamour struct {
	mu sync.Mutex
	tr *glamour.TermRenderer
}

// NewGlamour creates a glamour renderer using the named standard style
// ("dark", "light", "notty", ...).
func NewGlamour(style string, wordWrap int) (*Glamour, error) {
	if wordWrap <= 0 {
		wordWrap = DefaultWordWrap
	}
	tr, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(wordWrap),
		glamour.WithEmoji(),
	)
	if err != nil {
		return nil, err
	}
	return &Glamour{tr: tr}, nil
}

// Render implements Renderer. On failure the source text is returned.
func (g *Glamour) Render(markdown string) string {
	g.mu.Lock()
	out, err := g.tr.Render(markdown)
	g.mu.Unlock()
	if err != nil {
		logger.L.Debug("markdown render failed", "error", err)
		return markdown
	}
	return strings.Trim(out, "\n")
}

// New returns the renderer for theme. Unknown themes behave like auto; a
// glamour failure falls back to Plain.
func New(theme string, wordWrap int) Renderer {
	var style string
	switch strings.ToLower(strings.TrimSpace(theme)) {
	case ThemePlain:
		return Plain{}
	case ThemeDark:
		style = "dark"
	case ThemeLight:
		style = "light"
	case "notty":
		style = "notty"
	default:
		style = DetectStyle()
	}

	g, err := NewGlamour(style, wordWrap)
	if err != nil {
		logger.L.Warn("markdown renderer unavailable, using plain text", "style", style, "error", err)
		return Plain{}
	}
	return g
}

// DetectStyle picks a glamour style from the terminal: "notty" without
// color support, otherwise "dark" or "light" by background.
func DetectStyle() string {
	if termenv.EnvColorProfile() == termenv.Ascii {
		return "notty"
	}
	if termenv.HasDarkBackground() {
		return "dark"
	}
	return "light"
}
