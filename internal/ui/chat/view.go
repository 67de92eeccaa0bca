// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/voicechat/internal/controller"
	"github.com/jeranaias/voicechat/internal/ui/components"
	"github.com/jeranaias/voicechat/internal/ui/styles"
)

// View renders the model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.viewport.View(),
		m.renderFooter(),
	)
}

func (m Model) renderHeader() string {
	title := m.theme.HeaderTitle.Render(m.title)
	if m.theme.GetLayoutMode() != styles.LayoutNarrow {
		title += m.theme.Help.Render("  text & voice chat")
	}
	return m.theme.Header.Width(m.width).Render(title)
}

// renderFooter renders everything below the transcript: the notice, the
// input box, the status bar and the key help.
func (m Model) renderFooter() string {
	var parts []string

	if m.notice.text != "" {
		if m.notice.isErr {
			parts = append(parts, components.RenderError(m.notice.text, m.theme))
		} else {
			parts = append(parts, m.theme.Help.Render(m.notice.text))
		}
	}

	parts = append(parts,
		m.theme.InputContainer.Width(max(m.width-2, 1)).Render(m.renderInput()),
		m.statusBar.View(m.snap),
		m.help.View(m.keys),
	)
	return strings.Join(parts, "\n")
}

func (m Model) renderInput() string {
	switch m.snap.State {
	case controller.StateRecording:
		return m.theme.Recording.Render(styles.SymbolRecording + " Recording… Ctrl+R to send, Esc to discard")
	case controller.StateAwaitingResponse:
		return m.spinner.View() + " " + m.input.View()
	default:
		return m.input.View()
	}
}
