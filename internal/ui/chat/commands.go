// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/voicechat/internal/commands"
	"github.com/jeranaias/voicechat/internal/controller"
	"github.com/jeranaias/voicechat/internal/logger"
	"github.com/jeranaias/voicechat/internal/markdown"
	"github.com/jeranaias/voicechat/internal/storage"
	"github.com/jeranaias/voicechat/internal/util"
)

// =============================================================================
// COMMANDS
// =============================================================================

// waitForEvent delivers the next controller event.
func waitForEvent(events <-chan controller.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return eventsClosedMsg{}
		}
		return eventMsg{event: ev}
	}
}

// run calls fn off the update loop and reports its result.
func (m Model) run(action string, fn func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return actionDoneMsg{action: action, err: fn(ctx)}
	}
}

// loadHistory reads saved transcript entries for the current identity.
func (m Model) loadHistory(limit int) tea.Cmd {
	ctx := m.ctx
	hist := m.history
	id := m.snap.Identity
	return func() tea.Msg {
		entries, err := hist.ListMessages(ctx, id.SessionID, id.UserID, limit)
		return historyMsg{entries: entries, err: err}
	}
}

// runCommand executes a parsed slash command.
func (m Model) runCommand(res commands.ParseResult) (tea.Model, tea.Cmd) {
	if res.Error != nil {
		m.setNotice(res.Error.Error(), true)
		return m, nil
	}
	m.notice = notice{}

	switch res.Command.Action {
	case commands.ActionHelp:
		m.setNotice(strings.TrimRight(m.registry.Help(), "\n"), false)
		return m, nil

	case commands.ActionQuit:
		return m, tea.Quit

	case commands.ActionRecord:
		return m, m.run("record", m.conv.StartRecording)

	case commands.ActionStop:
		return m, m.run("stop", m.conv.StopRecording)

	case commands.ActionCancel:
		return m, m.run("cancel", func(context.Context) error { return m.conv.CancelRecording() })

	case commands.ActionPlay:
		n, ok := res.Int(0)
		if !ok {
			return m, m.run("play", m.conv.PlayLatest)
		}
		if n > len(m.snap.Messages) {
			m.setNotice(fmt.Sprintf("No message %d.", n), true)
			return m, nil
		}
		id := m.snap.Messages[n-1].ID
		return m, m.run("play", func(ctx context.Context) error { return m.conv.PlayToggle(ctx, id) })

	case commands.ActionResetSession:
		return m, m.run("reset-session", func(context.Context) error { return m.conv.ResetSession() })

	case commands.ActionResetUser:
		return m, m.run("reset-user", func(context.Context) error { return m.conv.ResetUser() })

	case commands.ActionWhoami:
		id := m.snap.Identity
		m.setNotice(fmt.Sprintf("session %s · user %s", id.SessionID, id.UserID), false)
		return m, nil

	case commands.ActionHistory:
		if m.history == nil {
			m.setNotice("History is not available.", true)
			return m, nil
		}
		limit, _ := res.Int(0)
		return m, m.loadHistory(limit)

	case commands.ActionClearError:
		m.conv.ClearError()
		m.layout()
		return m, nil
	}
	return m, nil
}

// =============================================================================
// RESULT HANDLERS
// =============================================================================

func (m Model) handleActionDone(msg actionDoneMsg) (tea.Model, tea.Cmd) {
	m.refresh(false)
	if msg.err == nil {
		return m, nil
	}
	logger.L.Debug("action failed", "action", msg.action, "error", msg.err)

	switch {
	// Already surfaced in the transcript or the error line.
	case errors.Is(msg.err, controller.ErrNetworkFailure),
		errors.Is(msg.err, controller.ErrPermissionDenied),
		errors.Is(msg.err, controller.ErrStaleSession),
		errors.Is(msg.err, controller.ErrEmptyInput),
		errors.Is(msg.err, context.Canceled):
		return m, nil
	case errors.Is(msg.err, controller.ErrNoAudio):
		m.setNotice("That message has no audio.", true)
	case errors.Is(msg.err, controller.ErrNotRecording):
		m.setNotice("Not recording.", true)
	case errors.Is(msg.err, controller.ErrAlreadyRecording):
		m.setNotice("Already recording.", true)
	case errors.Is(msg.err, controller.ErrBusy):
		if msg.action == "send" && msg.input != "" && m.input.Value() == "" {
			m.input.SetValue(msg.input)
			m.input.CursorEnd()
			m.conv.SetInput(msg.input)
			m.setNotice("Wait for the current reply before sending.", true)
			return m, nil
		}
		m.setNotice("Wait for the current reply.", true)
	default:
		m.setNotice(msg.err.Error(), true)
	}
	return m, nil
}

func (m Model) handleHistory(msg historyMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.setNotice("history: "+msg.err.Error(), true)
		return m, nil
	}
	m.setNotice(formatHistory(msg.entries), false)
	return m, nil
}

// formatHistory renders saved entries one per line.
func formatHistory(entries []storage.Entry) string {
	if len(entries) == 0 {
		return "No saved messages for this session."
	}
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, fmt.Sprintf("%s %s: %s", e.CreatedAt.Format("15:04"), e.Sender.DisplayName(), util.OneLine(e.Text)))
	}
	return strings.Join(lines, "\n")
}

func (m Model) handleConfigReloaded(msg ConfigReloadedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		logger.L.Warn("config reload failed", "error", msg.Err)
		m.setNotice("Config reload failed: "+msg.Err.Error(), true)
		return m, nil
	}
	if msg.Config != nil {
		wrap := msg.Config.UI.WordWrap
		if wrap <= 0 {
			wrap = m.wordWrap
		}
		m.renderer = markdown.New(msg.Config.UI.Theme, wrap)
		logger.L.Info("config reloaded", "theme", msg.Config.UI.Theme)
	}
	m.setNotice("Config reloaded.", false)
	m.updateViewport(false)
	return m, nil
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
