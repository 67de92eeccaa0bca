// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jeranaias/voicechat/internal/export"
	"github.com/jeranaias/voicechat/internal/storage"
)

// exportLimit bounds an export when --limit is not given.
const exportLimit = 10000

// HandleExport runs "voicechat export".
func HandleExport(args Args) error {
	if args.Err != nil {
		return usageError(args.Err)
	}
	cfg, err := LoadConfig(args)
	if err != nil {
		return &ConfigError{Err: err}
	}

	store := storage.OpenOrMemory(cfg.DatabasePath())
	defer store.Close()
	return runExport(context.Background(), store, args, os.Stdout)
}

func runExport(ctx context.Context, store storage.Store, args Args, out io.Writer) error {
	exp, err := export.ForFormat(args.Format, export.DefaultOptions())
	if err != nil {
		return usageError(err)
	}

	id, err := currentIdentity(store)
	if err != nil {
		return err
	}
	sessionID := id.SessionID
	if args.SessionID != "" {
		sessionID = args.SessionID
	}
	limit := args.Limit
	if limit <= 0 {
		limit = exportLimit
	}

	entries, err := store.ListMessages(ctx, sessionID, id.UserID, limit)
	if err != nil {
		return fmt.Errorf("list history: %w", err)
	}

	path, err := export.WriteFile(export.NewTranscript(sessionID, id.UserID, entries), exp, args.OutputDir)
	if errors.Is(err, export.ErrEmptyTranscript) {
		err = fmt.Errorf("no saved messages for session %s", sessionID)
	}
	if args.JSON {
		if err != nil {
			return writeJSONFailure(out, "export", err)
		}
		return NewJSONResponse("export", map[string]any{
			"path":     path,
			"format":   exp.MimeType(),
			"messages": len(entries),
		}, nil).Write(out)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(out, SuccessStyle.Render(fmt.Sprintf("Exported %d messages to ", len(entries)))+path)
	return nil
}
