// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/jeranaias/voicechat/internal/controller"
	"github.com/jeranaias/voicechat/internal/ui/styles"
	"github.com/jeranaias/voicechat/internal/util"
)

// =============================================================================
// STATUS BAR COMPONENT
// =============================================================================

// StatusBar shows the identity suffixes and the controller state.
type StatusBar struct {
	Width int
	theme *styles.Theme
}

// NewStatusBar creates a status bar.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{theme: theme}
}

// StateLabel is the display name of a controller state.
func StateLabel(s controller.State) string {
	switch s {
	case controller.StateRecording:
		return "Recording"
	case controller.StateAwaitingResponse:
		return "Waiting"
	default:
		return "Ready"
	}
}

// View renders the bar for snap. When Width is set and the bar does not
// fit, it is truncated and rendered without per-item styling.
func (s *StatusBar) View(snap controller.Snapshot) string {
	t := s.theme
	items := [][2]string{
		{"session", snap.Identity.SessionSuffix()},
		{"user", snap.Identity.UserSuffix()},
		{"status", StateLabel(snap.State)},
	}

	plain := make([]string, len(items))
	styled := make([]string, len(items))
	for i, it := range items {
		plain[i] = it[0] + " " + it[1]
		styled[i] = t.StatusKey.Render(it[0]+" ") + t.StatusValue.Render(it[1])
	}

	line := strings.Join(plain, " · ")
	if s.Width > 0 && runewidth.StringWidth(line) > s.Width {
		return t.StatusBar.Render(util.FitWidth(line, s.Width))
	}
	return t.StatusBar.Render(strings.Join(styled, t.StatusKey.Render(" · ")))
}
