// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"time"

	"github.com/jeranaias/voicechat/internal/audio"
	"github.com/jeranaias/voicechat/internal/backend"
	"github.com/jeranaias/voicechat/internal/config"
	"github.com/jeranaias/voicechat/internal/controller"
	"github.com/jeranaias/voicechat/internal/identity"
	"github.com/jeranaias/voicechat/internal/logger"
	"github.com/jeranaias/voicechat/internal/markdown"
	"github.com/jeranaias/voicechat/internal/storage"
)

// =============================================================================
// CONFIG
// =============================================================================

// LoadConfig loads the config file and applies command-line overrides.
func LoadConfig(args Args) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	applyOverrides(cfg, args)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func applyOverrides(cfg *config.Config, args Args) {
	if args.BackendURL != "" {
		cfg.Backend.URL = args.BackendURL
	}
	if args.Theme != "" {
		cfg.UI.Theme = args.Theme
	}
	if args.Verbose {
		cfg.Log.Level = "debug"
	}
}

// initLogging points the shared logger at the configured log file. A
// failure is reported and logging stays off.
func initLogging(cfg *config.Config) {
	if err := logger.Init(cfg.LogFile(), cfg.Log.Level); err != nil {
		printWarning("logging disabled: " + err.Error())
	}
}

// =============================================================================
// APP
// =============================================================================

// App is the wired application.
type App struct {
	Config     *config.Config
	Store      storage.Store
	Identity   *identity.Store
	Client     *backend.Client
	Controller *controller.Controller
	Renderer   markdown.Renderer
}

// AppOptions tunes NewApp.
type AppOptions struct {
	// Store replaces the sqlite database (tests).
	Store storage.Store

	// Recorder and Player replace the configured device commands.
	Recorder audio.Recorder
	Player   audio.Player

	// Renderer replaces the configured markdown renderer.
	Renderer markdown.Renderer

	// WordWrap overrides cfg.UI.WordWrap for the markdown renderer.
	WordWrap int
}

// NewApp wires storage, identity, the backend client, the audio devices
// and the controller from cfg.
func NewApp(cfg *config.Config, opts AppOptions) (*App, error) {
	store := opts.Store
	if store == nil {
		store = storage.OpenOrMemory(cfg.DatabasePath())
	}

	ids := identity.NewStore(store, identity.NewGenerator())
	if _, err := ids.Load(); err != nil {
		logger.L.Warn("identity not persisted", "error", err)
	}

	client := backend.NewClientWithConfig(&backend.ClientConfig{
		BaseURL:           cfg.Backend.URL,
		APIKey:            cfg.Backend.APIKey,
		Timeout:           time.Duration(cfg.Backend.TimeoutSecs) * time.Second,
		RequestsPerMinute: cfg.Backend.RequestsPerMinute,
	})

	recorder := opts.Recorder
	if recorder == nil {
		recorder = newRecorder(cfg.Audio.RecorderCommand)
	}
	player := opts.Player
	if player == nil {
		player = newPlayer(cfg.Audio.PlayerCommand)
	}

	ctrl, err := controller.New(controller.Config{
		Backend:              client,
		Identity:             ids,
		Recorder:             recorder,
		Player:               player,
		Clips:                audio.NewClipStore(cfg.ClipDir()),
		History:              store,
		RecordingPlaceholder: cfg.UI.RecordingPlaceholder,
	})
	if err != nil {
		store.Close()
		return nil, err
	}

	renderer := opts.Renderer
	if renderer == nil {
		wrap := cfg.UI.WordWrap
		if opts.WordWrap > 0 {
			wrap = opts.WordWrap
		}
		renderer = markdown.New(cfg.UI.Theme, wrap)
	}

	logger.L.Info("voicechat started",
		"backend", client.BaseURL(),
		"session_id", ids.Current().SessionID,
		"user_id", ids.Current().UserID,
	)

	return &App{
		Config:     cfg,
		Store:      store,
		Identity:   ids,
		Client:     client,
		Controller: ctrl,
		Renderer:   renderer,
	}, nil
}

// Close stops audio and closes storage.
func (a *App) Close() error {
	a.Controller.Close()
	return a.Store.Close()
}

// newRecorder returns nil when command is unusable; the controller then
// reports recording as unavailable.
func newRecorder(command string) audio.Recorder {
	if command == "" {
		return nil
	}
	r, err := audio.NewCommandRecorderFromString(command)
	if err != nil {
		logger.L.Warn("recorder disabled", "command", command, "error", err)
		return nil
	}
	return r
}

func newPlayer(command string) audio.Player {
	if command == "" {
		return nil
	}
	p, err := audio.NewCommandPlayerFromString(command)
	if err != nil {
		logger.L.Warn("player disabled", "command", command, "error", err)
		return nil
	}
	return p
}
