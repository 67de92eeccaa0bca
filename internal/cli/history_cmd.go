// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/jeranaias/voicechat/internal/model"
	"github.com/jeranaias/voicechat/internal/storage"
	"github.com/jeranaias/voicechat/internal/util"
)

// historyEntry is the --json form of a saved message.
type historyEntry struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
	Sender    string `json:"sender"`
	Text      string `json:"text"`
	AudioURL  string `json:"audio_url,omitempty"`
	CreatedAt string `json:"created_at"`
}

// HandleHistory runs "voicechat history". The current session is shown
// unless --session names another one.
func HandleHistory(args Args) error {
	if args.Err != nil {
		return usageError(args.Err)
	}
	cfg, err := LoadConfig(args)
	if err != nil {
		return &ConfigError{Err: err}
	}

	store := storage.OpenOrMemory(cfg.DatabasePath())
	defer store.Close()
	return runHistory(context.Background(), store, args, os.Stdout)
}

func runHistory(ctx context.Context, store storage.Store, args Args, out io.Writer) error {
	id, err := currentIdentity(store)
	if err != nil {
		return err
	}
	sessionID := id.SessionID
	if args.SessionID != "" {
		sessionID = args.SessionID
	}

	entries, err := store.ListMessages(ctx, sessionID, id.UserID, args.Limit)
	if err != nil {
		return fmt.Errorf("list history: %w", err)
	}

	if args.JSON {
		data := make([]historyEntry, 0, len(entries))
		for _, e := range entries {
			data = append(data, historyEntry{
				SessionID: e.SessionID,
				UserID:    e.UserID,
				Sender:    e.Sender.String(),
				Text:      e.Text,
				AudioURL:  e.AudioURL,
				CreatedAt: e.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
			})
		}
		return NewJSONResponse("history", data, nil).Write(out)
	}

	if len(entries) == 0 {
		fmt.Fprintln(out, DimStyle.Render("No saved messages for session "+sessionID+"."))
		return nil
	}
	writeEntries(out, entries)
	return nil
}

// writeEntries prints saved messages one per line.
func writeEntries(out io.Writer, entries []storage.Entry) {
	for _, e := range entries {
		name := UserStyle.Render(e.Sender.DisplayName())
		if e.Sender == model.SenderBot {
			name = BotStyle.Render(e.Sender.DisplayName())
		}
		line := DimStyle.Render(e.CreatedAt.Format("2006-01-02 15:04")) + " " + name + ": " + util.OneLine(e.Text)
		if e.AudioURL != "" {
			line += DimStyle.Render(" [audio]")
		}
		fmt.Fprintln(out, line)
	}
}
