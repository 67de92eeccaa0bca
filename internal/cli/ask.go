// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jeranaias/voicechat/internal/logger"
	"github.com/jeranaias/voicechat/internal/model"
	"github.com/jeranaias/voicechat/internal/storage"
)

// askResult is the --json form of an ask.
type askResult struct {
	SessionID  string `json:"session_id"`
	UserID     string `json:"user_id"`
	Query      string `json:"query,omitempty"`
	Transcript string `json:"transcript,omitempty"`
	Reply      string `json:"reply"`
	AudioURL   string `json:"audio_url,omitempty"`
}

// HandleAsk runs "voicechat ask". It sends one text query, or one clip with
// --audio, in the persisted conversation and prints the reply.
func HandleAsk(args Args) error {
	if args.Err != nil {
		return usageError(args.Err)
	}
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runAsk(ctx, app, args, os.Stdout)
}

func runAsk(ctx context.Context, app *App, args Args, out io.Writer) error {
	id := app.Identity.Current()
	res := askResult{SessionID: id.SessionID, UserID: id.UserID}

	var err error
	if args.AudioFile != "" {
		err = askAudio(ctx, app, args.AudioFile, &res)
	} else {
		err = askText(ctx, app, args.Query, &res)
	}

	if args.JSON {
		if err != nil {
			return writeJSONFailure(out, "ask", err)
		}
		return NewJSONResponse("ask", res, nil).Write(out)
	}
	if err != nil {
		return err
	}

	if res.Transcript != "" && !args.Quiet {
		fmt.Fprintln(out, UserStyle.Render(model.SenderUser.DisplayName()+": ")+res.Transcript)
	}
	fmt.Fprintln(out, strings.TrimRight(app.Renderer.Render(res.Reply), "\n"))
	if res.AudioURL != "" && !args.Quiet {
		fmt.Fprintln(out, DimStyle.Render("audio: "+res.AudioURL))
	}
	return nil
}

func askText(ctx context.Context, app *App, query string, res *askResult) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return usageError(fmt.Errorf("empty question"))
	}
	reply, err := app.Client.SendText(ctx, query, res.SessionID, res.UserID)
	if err != nil {
		return err
	}
	res.Query = query
	res.Reply = reply

	saveTurn(ctx, app.Store, res, query, "")
	return nil
}

func askAudio(ctx context.Context, app *App, path string, res *askResult) error {
	clip, err := os.ReadFile(path)
	if err != nil {
		return usageError(fmt.Errorf("read clip: %w", err))
	}
	reply, err := app.Client.SendAudio(ctx, clip, res.SessionID, res.UserID)
	if err != nil {
		return err
	}
	res.Transcript = reply.Transcript
	res.Reply = reply.Message
	res.AudioURL = reply.AudioURL

	saveTurn(ctx, app.Store, res, reply.Transcript, reply.AudioURL)
	return nil
}

// saveTurn appends the question and the reply to the saved transcript.
func saveTurn(ctx context.Context, h storage.History, res *askResult, asked, audioURL string) {
	now := time.Now()
	entries := []storage.Entry{
		{SessionID: res.SessionID, UserID: res.UserID, Sender: model.SenderUser, Text: asked, CreatedAt: now},
		{SessionID: res.SessionID, UserID: res.UserID, Sender: model.SenderBot, Text: res.Reply, AudioURL: audioURL, CreatedAt: now},
	}
	for _, e := range entries {
		if err := h.SaveMessage(ctx, e); err != nil {
			logger.L.Warn("history not saved", "error", err)
			return
		}
	}
}

// writeJSONFailure writes a failed envelope and still returns err so the
// exit code reflects it.
func writeJSONFailure(out io.Writer, command string, err error) error {
	if werr := NewJSONResponse(command, nil, err).Write(out); werr != nil {
		return werr
	}
	return err
}
