// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - line-mode conversation for "voicechat chat".
//
// Text typed at the prompt is sent to the backend; lines starting with "/"
// are slash commands (see internal/commands). Ctrl+C discards an open
// recording, or exits when nothing is recording. Ctrl+D exits.

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/peterh/liner"

	"github.com/jeranaias/voicechat/internal/commands"
	"github.com/jeranaias/voicechat/internal/config"
	"github.com/jeranaias/voicechat/internal/controller"
	"github.com/jeranaias/voicechat/internal/logger"
	"github.com/jeranaias/voicechat/internal/markdown"
	"github.com/jeranaias/voicechat/internal/storage"
	"github.com/jeranaias/voicechat/internal/ui/components"
	"github.com/jeranaias/voicechat/internal/ui/styles"
)

// =============================================================================
// LINE EDITOR
// =============================================================================

// LineReader reads one line of input. *liner.State implements it.
type LineReader interface {
	Prompt(prompt string) (string, error)
}

// lineEditor wraps liner with persistent history and command completion.
type lineEditor struct {
	*liner.State
	historyFile string
}

func newLineEditor(registry *commands.Registry) *lineEditor {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	completer := commands.NewCompleter(registry)
	line.SetCompleter(completer.Names)

	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	e := &lineEditor{State: line, historyFile: filepath.Join(dir, "chat_history")}
	if f, err := os.Open(e.historyFile); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	return e
}

// Prompt reads a line and records non-blank input in the history.
func (e *lineEditor) Prompt(prompt string) (string, error) {
	input, err := e.State.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		e.AppendHistory(input)
	}
	return input, nil
}

// Close saves the history and restores the terminal.
func (e *lineEditor) Close() error {
	if err := os.MkdirAll(filepath.Dir(e.historyFile), 0700); err == nil {
		if f, err := os.OpenFile(e.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
			e.WriteHistory(f)
			f.Close()
		}
	}
	return e.State.Close()
}

// =============================================================================
// REPL
// =============================================================================

// Repl is the line-mode conversation loop.
type Repl struct {
	conv     *controller.Controller
	history  storage.History
	registry *commands.Registry
	theme    *styles.Theme
	renderer markdown.Renderer

	in  LineReader
	out io.Writer

	quiet   bool
	seen    map[string]bool
	lastErr string
}

// NewRepl creates a loop reading from in and writing to out.
func NewRepl(app *App, in LineReader, out io.Writer) *Repl {
	theme := styles.NewPlainTheme()
	if ColorsEnabled() {
		theme = styles.NewTheme()
	}
	return &Repl{
		conv:     app.Controller,
		history:  app.Store,
		registry: commands.NewRegistry(),
		theme:    theme,
		renderer: app.Renderer,
		in:       in,
		out:      out,
		seen:     make(map[string]bool),
	}
}

// Run reads lines until /quit, end of input or ctx is done.
func (r *Repl) Run(ctx context.Context) error {
	if !r.quiet {
		r.printWelcome()
	}
	r.flush()

	for ctx.Err() == nil {
		prompt := "you> "
		if r.conv.State() == controller.StateRecording {
			prompt = "rec> "
		}

		line, err := r.in.Prompt(prompt)
		switch {
		case errors.Is(err, liner.ErrPromptAborted):
			if r.conv.State() == controller.StateRecording {
				r.conv.CancelRecording()
				fmt.Fprintln(r.out, DimStyle.Render("Recording discarded."))
				continue
			}
			return nil
		case errors.Is(err, io.EOF):
			fmt.Fprintln(r.out)
			return nil
		case err != nil:
			return err
		}

		quit, err := r.Handle(ctx, line)
		if err != nil {
			fmt.Fprintln(r.out, ErrorStyle.Render(styles.SymbolError+" ")+err.Error())
		}
		if quit {
			return nil
		}
	}
	return nil
}

// Handle runs one line of input. quit is true after /quit.
func (r *Repl) Handle(ctx context.Context, line string) (quit bool, err error) {
	res := r.registry.Parse(line)
	if !res.IsCommand {
		if strings.TrimSpace(line) == "" {
			return false, nil
		}
		if !r.quiet {
			fmt.Fprintln(r.out, r.theme.Loading.Render(components.LoadingText))
		}
		err := r.conv.SendText(ctx, line)
		r.flush()
		return false, quietErr(err)
	}
	if res.Error != nil {
		return false, res.Error
	}

	switch res.Command.Action {
	case commands.ActionQuit:
		return true, nil

	case commands.ActionHelp:
		fmt.Fprint(r.out, r.registry.Help())

	case commands.ActionRecord:
		err = r.conv.StartRecording(ctx)
		r.flush()
		if err == nil {
			fmt.Fprintln(r.out, r.theme.Recording.Render(styles.SymbolRecording+" Recording… /stop to send, /cancel to discard"))
		}

	case commands.ActionStop:
		if r.conv.State() == controller.StateRecording && !r.quiet {
			fmt.Fprintln(r.out, r.theme.Loading.Render(components.LoadingText))
		}
		err = r.conv.StopRecording(ctx)
		r.flush()

	case commands.ActionCancel:
		if err = r.conv.CancelRecording(); err == nil {
			fmt.Fprintln(r.out, DimStyle.Render("Recording discarded."))
		}

	case commands.ActionPlay:
		err = r.play(ctx, res)

	case commands.ActionResetSession:
		err = r.conv.ResetSession()
		r.flush()

	case commands.ActionResetUser:
		err = r.conv.ResetUser()
		r.flush()

	case commands.ActionWhoami:
		id := r.conv.Snapshot().Identity
		fmt.Fprintln(r.out, RenderField("session", id.SessionID))
		fmt.Fprintln(r.out, RenderField("user", id.UserID))

	case commands.ActionHistory:
		limit, _ := res.Int(0)
		err = r.printHistory(ctx, limit)

	case commands.ActionClearError:
		r.conv.ClearError()
		r.lastErr = ""
	}
	return false, quietErr(err)
}

func (r *Repl) play(ctx context.Context, res commands.ParseResult) error {
	snap := r.conv.Snapshot()

	n, ok := res.Int(0)
	var err error
	if ok {
		if n > len(snap.Messages) {
			return fmt.Errorf("no message %d", n)
		}
		err = r.conv.PlayToggle(ctx, snap.Messages[n-1].ID)
	} else {
		err = r.conv.PlayLatest(ctx)
	}
	if err != nil {
		return err
	}

	if playing := r.conv.Snapshot().PlayingID; playing != "" {
		fmt.Fprintln(r.out, r.theme.Playing.Render(styles.SymbolPlay+" playing"))
	} else {
		fmt.Fprintln(r.out, DimStyle.Render(styles.SymbolPause+" stopped"))
	}
	return nil
}

func (r *Repl) printHistory(ctx context.Context, limit int) error {
	if r.history == nil {
		return errors.New("history is not available")
	}
	id := r.conv.Snapshot().Identity
	entries, err := r.history.ListMessages(ctx, id.SessionID, id.UserID, limit)
	if err != nil {
		return err
	}
	writeEntries(r.out, entries)
	return nil
}

// flush prints messages not printed yet, then the error line if it changed.
// Transient messages are skipped.
func (r *Repl) flush() {
	snap := r.conv.Snapshot()
	for i, msg := range snap.Messages {
		if msg.Transient || r.seen[msg.ID] {
			continue
		}
		r.seen[msg.ID] = true

		bubble := components.NewMessageBubble(msg, r.theme, r.renderer)
		bubble.Index = i + 1
		fmt.Fprintln(r.out, bubble.View())
	}

	if snap.Error != "" && snap.Error != r.lastErr {
		fmt.Fprintln(r.out, components.RenderError(snap.Error, r.theme))
	}
	r.lastErr = snap.Error
}

func (r *Repl) printWelcome() {
	id := r.conv.Snapshot().Identity
	fmt.Fprintln(r.out, TitleStyle.Render("voicechat")+DimStyle.Render(" · session "+id.SessionSuffix()))
	fmt.Fprintln(r.out, DimStyle.Render("Type a message, /record to talk, /help for commands, Ctrl+D to exit."))
}

// quietErr drops errors the conversation itself already shows.
func quietErr(err error) error {
	switch {
	case err == nil,
		errors.Is(err, controller.ErrEmptyInput),
		errors.Is(err, controller.ErrNetworkFailure),
		errors.Is(err, controller.ErrPermissionDenied),
		errors.Is(err, controller.ErrStaleSession):
		return nil
	}
	return err
}

// =============================================================================
// COMMAND HANDLER
// =============================================================================

// HandleChat runs "voicechat chat".
func HandleChat(args Args) error {
	cfg, err := LoadConfig(args)
	if err != nil {
		return &ConfigError{Err: err}
	}
	initLogging(cfg)
	defer logger.Close()

	app, err := NewApp(cfg, AppOptions{WordWrap: GetTerminalWidth() - 4})
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	repl := NewRepl(app, nil, os.Stdout)
	repl.quiet = args.Quiet

	if IsTTY() {
		editor := newLineEditor(repl.registry)
		defer editor.Close()
		repl.in = editor
	} else {
		repl.in = newScannerReader(os.Stdin)
	}
	return repl.Run(ctx)
}
