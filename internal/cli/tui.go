// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/voicechat/internal/config"
	"github.com/jeranaias/voicechat/internal/logger"
	"github.com/jeranaias/voicechat/internal/ui/chat"
	"github.com/jeranaias/voicechat/internal/ui/styles"
)

// HandleTUI runs the full-screen chat. Without a terminal it falls back to
// line mode.
func HandleTUI(args Args) error {
	if !IsTTY() || !IsStdoutTTY() {
		return HandleChat(args)
	}

	cfg, err := LoadConfig(args)
	if err != nil {
		return &ConfigError{Err: err}
	}
	initLogging(cfg)
	defer logger.Close()

	app, err := NewApp(cfg, AppOptions{WordWrap: GetTerminalWidth() - 8})
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	theme := styles.NewTheme()
	if !ColorsEnabled() {
		theme = styles.NewPlainTheme()
	}

	m := chat.New(ctx, app.Controller, chat.Options{
		Theme:          theme,
		Renderer:       app.Renderer,
		History:        app.Store,
		ShowTimestamps: args.Timestamps,
		WordWrap:       GetTerminalWidth() - 8,
	})

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	go watchConfig(ctx, p, args)

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}

// watchConfig forwards config file edits to the running program until ctx
// is done.
func watchConfig(ctx context.Context, p *tea.Program, args Args) {
	path, err := config.ConfigPathTOML()
	if err != nil {
		return
	}
	w, err := config.NewWatcher(path, config.DefaultWatchDebounce)
	if err != nil {
		logger.L.Debug("config watch disabled", "error", err)
		return
	}
	w.Run(ctx, func(cfg *config.Config, err error) {
		if err == nil {
			applyOverrides(cfg, args)
			err = cfg.Validate()
		}
		if err != nil {
			cfg = nil
		}
		p.Send(chat.ConfigReloadedMsg{Config: cfg, Err: err})
	})
}
