// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/voicechat/internal/commands"
	"github.com/jeranaias/voicechat/internal/controller"
	"github.com/jeranaias/voicechat/internal/markdown"
	"github.com/jeranaias/voicechat/internal/storage"
	"github.com/jeranaias/voicechat/internal/ui/components"
	"github.com/jeranaias/voicechat/internal/ui/styles"
)

// =============================================================================
// CONVERSATION
// =============================================================================

// Conversation is the controller surface the view drives.
type Conversation interface {
	Snapshot() controller.Snapshot
	Events() <-chan controller.Event
	SetInput(text string)
	ClearError()

	SendText(ctx context.Context, query string) error
	StartRecording(ctx context.Context) error
	StopRecording(ctx context.Context) error
	CancelRecording() error
	ToggleRecording(ctx context.Context) error
	PlayToggle(ctx context.Context, messageID string) error
	PlayLatest(ctx context.Context) error
	ResetSession() error
	ResetUser() error
}

// =============================================================================
// MODEL
// =============================================================================

// Options configures a Model.
type Options struct {
	Theme    *styles.Theme
	Renderer markdown.Renderer

	// History backs the /history command. Optional.
	History storage.History

	// Title is shown in the header.
	Title string

	ShowTimestamps bool

	// WordWrap is used when the markdown renderer is rebuilt after a
	// config reload.
	WordWrap int
}

// notice is the one-line message under the conversation.
type notice struct {
	text  string
	isErr bool
}

// Model is the conversation view.
type Model struct {
	conv     Conversation
	ctx      context.Context
	registry *commands.Registry
	history  storage.History

	keys     KeyMap
	help     help.Model
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model

	theme     *styles.Theme
	renderer  markdown.Renderer
	statusBar *components.StatusBar

	snap           controller.Snapshot
	notice         notice
	title          string
	wordWrap       int
	showTimestamps bool
	showHelp       bool

	width  int
	height int
	ready  bool
}

// New creates the view for conv. Controller calls issued by the view use
// ctx.
func New(ctx context.Context, conv Conversation, opts Options) Model {
	theme := opts.Theme
	if theme == nil {
		theme = styles.NewTheme()
	}
	renderer := opts.Renderer
	if renderer == nil {
		renderer = markdown.Plain{}
	}
	title := opts.Title
	if title == "" {
		title = "voicechat"
	}

	registry := commands.NewRegistry()

	ti := textinput.New()
	ti.Prompt = "> "
	ti.PromptStyle = theme.InputPrompt
	ti.Placeholder = "Type a message or /help"
	ti.CharLimit = 4000
	ti.ShowSuggestions = true
	ti.SetSuggestions(commands.NewCompleter(registry).Suggestions())
	// Ctrl+N and Ctrl+P belong to the conversation key map.
	ti.KeyMap.NextSuggestion = key.NewBinding(key.WithKeys("down"))
	ti.KeyMap.PrevSuggestion = key.NewBinding(key.WithKeys("up"))
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.Loading

	h := help.New()
	h.ShowAll = false

	m := Model{
		conv:           conv,
		ctx:            ctx,
		registry:       registry,
		history:        opts.History,
		keys:           DefaultKeyMap(),
		help:           h,
		input:          ti,
		viewport:       viewport.New(0, 0),
		spinner:        sp,
		theme:          theme,
		renderer:       renderer,
		statusBar:      components.NewStatusBar(theme),
		title:          title,
		wordWrap:       opts.WordWrap,
		showTimestamps: opts.ShowTimestamps,
		snap:           conv.Snapshot(),
	}
	m.input.SetValue(m.snap.Input)
	return m
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init starts the cursor blink, the spinner and the event loop.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.spinner.Tick,
		waitForEvent(m.conv.Events()),
	)
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case eventMsg:
		m.refresh(msg.event.Type == controller.EventMessageAppended || msg.event.Type == controller.EventReset)
		return m, waitForEvent(m.conv.Events())

	case eventsClosedMsg:
		return m, nil

	case actionDoneMsg:
		return m.handleActionDone(msg)

	case historyMsg:
		return m.handleHistory(msg)

	case ConfigReloadedMsg:
		return m.handleConfigReloaded(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.snap.Loading() {
			m.updateViewport(false)
		}
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// MESSAGE HANDLERS
// =============================================================================

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.ready = true

	m.theme.SetSize(m.width, m.height)
	m.statusBar.Width = m.width
	m.help.Width = m.width

	// Input container: border (2) + padding (2) + prompt.
	inputWidth := m.width - 4 - len(m.input.Prompt) - 1
	if inputWidth < 10 {
		inputWidth = 10
	}
	m.input.Width = inputWidth

	m.viewport.Width = max(m.width, 1)
	m.layout()
	m.updateViewport(true)
	return m, nil
}

// layout sizes the viewport to whatever the header and footer leave.
func (m *Model) layout() {
	if !m.ready {
		return
	}
	reserved := lipgloss.Height(m.renderHeader()) + lipgloss.Height(m.renderFooter())
	m.viewport.Height = max(m.height-reserved, 1)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// While a command name is typed, Up/Down cycle its suggestions.
	if m.completingCommand() && (key.Matches(msg, m.keys.Up) || key.Matches(msg, m.keys.Down)) {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Send):
		return m.submit()

	case key.Matches(msg, m.keys.Record):
		m.notice = notice{}
		return m, m.run("record", m.conv.ToggleRecording)

	case key.Matches(msg, m.keys.Cancel):
		switch {
		case m.snap.Recording():
			return m, m.run("cancel", func(context.Context) error { return m.conv.CancelRecording() })
		case m.snap.Error != "":
			m.conv.ClearError()
			return m, nil
		default:
			m.notice = notice{}
			m.layout()
			return m, nil
		}

	case key.Matches(msg, m.keys.PlayLatest):
		return m, m.run("play", m.conv.PlayLatest)

	case key.Matches(msg, m.keys.NewSession):
		return m, m.run("reset-session", func(context.Context) error { return m.conv.ResetSession() })

	case key.Matches(msg, m.keys.Timestamps):
		m.showTimestamps = !m.showTimestamps
		m.updateViewport(false)
		return m, nil

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp
		m.layout()
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.viewport.LineUp(1)
		return m, nil
	case key.Matches(msg, m.keys.Down):
		m.viewport.LineDown(1)
		return m, nil
	case key.Matches(msg, m.keys.PageUp):
		m.viewport.ViewUp()
		return m, nil
	case key.Matches(msg, m.keys.PageDown):
		m.viewport.ViewDown()
		return m, nil
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if v := m.input.Value(); v != before {
		m.conv.SetInput(v)
	}
	return m, cmd
}

// submit sends the input line, or runs it when it is a slash command.
func (m Model) submit() (tea.Model, tea.Cmd) {
	value := m.input.Value()

	res := m.registry.Parse(value)
	if res.IsCommand {
		m.input.Reset()
		m.conv.SetInput("")
		return m.runCommand(res)
	}

	if isBlank(value) {
		return m, nil
	}
	if m.snap.State != controller.StateIdle {
		m.setNotice("Wait for the current reply before sending.", true)
		return m, nil
	}

	m.notice = notice{}
	m.input.Reset()
	ctx, conv := m.ctx, m.conv
	return m, func() tea.Msg {
		return actionDoneMsg{action: "send", input: value, err: conv.SendText(ctx, value)}
	}
}

func (m Model) completingCommand() bool {
	v := m.input.Value()
	return strings.HasPrefix(v, "/") && !strings.Contains(v, " ")
}

// setNotice replaces the notice line and re-lays out the view.
func (m *Model) setNotice(text string, isErr bool) {
	m.notice = notice{text: text, isErr: isErr}
	m.layout()
}

// refresh pulls a new snapshot from the conversation.
func (m *Model) refresh(follow bool) {
	m.snap = m.conv.Snapshot()
	m.layout()
	m.updateViewport(follow)
}

// updateViewport re-renders the transcript. With follow set, or when the
// view was already at the bottom, it scrolls to the newest message.
func (m *Model) updateViewport(follow bool) {
	atBottom := m.viewport.AtBottom()
	spin := ""
	if m.snap.Loading() {
		spin = m.spinner.View()
	}
	m.viewport.SetContent(components.RenderConversation(m.snap, components.ConversationOptions{
		Theme:          m.theme,
		Renderer:       m.renderer,
		ShowTimestamps: m.showTimestamps,
		NumberMessages: true,
		Spinner:        spin,
	}))
	if follow || atBottom {
		m.viewport.GotoBottom()
	}
}

// Snapshot returns the state the view last rendered.
func (m Model) Snapshot() controller.Snapshot {
	return m.snap
}
