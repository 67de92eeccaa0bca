// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the voicechat TUI.

All colors use Lip Gloss AdaptiveColor for automatic light/dark terminal
detection.

# Colors (colors.go)

  - Cyan - user messages and the input prompt
  - Purple - bot messages and titles
  - Emerald - the message currently playing
  - Rose - errors and the recording indicator
  - Amber - the loading indicator

State is also carried by symbols (SymbolPlay, SymbolPause,
SymbolRecording) so it stays visible without color.

# Theme (theme.go)

Theme bundles every lipgloss.Style used by the renderers. NewTheme detects
the terminal through termenv; NewPlainTheme renders text verbatim and is
used for non-TTY output and golden tests.
*/
package styles
