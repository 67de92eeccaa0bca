// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/jeranaias/voicechat/internal/identity"
	"github.com/jeranaias/voicechat/internal/storage"
)

// identityJSON is the --json form of an identity.
type identityJSON struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
}

// currentIdentity loads (creating if needed) the persisted identity.
func currentIdentity(kv storage.KV) (identity.Identity, error) {
	id, err := identity.NewStore(kv, identity.NewGenerator()).Load()
	if err != nil {
		return id, fmt.Errorf("load identity: %w", err)
	}
	return id, nil
}

// HandleIdentity runs "voicechat identity [show|reset-session|reset-user]".
func HandleIdentity(args Args) error {
	cfg, err := LoadConfig(args)
	if err != nil {
		return &ConfigError{Err: err}
	}
	store := storage.OpenOrMemory(cfg.DatabasePath())
	defer store.Close()
	return runIdentity(store, args, os.Stdout)
}

func runIdentity(kv storage.KV, args Args, out io.Writer) error {
	ids := identity.NewStore(kv, identity.NewGenerator())
	id, err := ids.Load()
	if err != nil {
		return fmt.Errorf("load identity: %w", err)
	}

	switch args.Subcommand {
	case "show", "":
	case "reset-session":
		if id, err = ids.ResetSession(); err != nil {
			return err
		}
	case "reset-user":
		if id, err = ids.ResetUser(); err != nil {
			return err
		}
	default:
		return usageError(fmt.Errorf("unknown identity subcommand %q (show, reset-session, reset-user)", args.Subcommand))
	}

	if args.JSON {
		return NewJSONResponse("identity", identityJSON{SessionID: id.SessionID, UserID: id.UserID}, nil).Write(out)
	}
	fmt.Fprintln(out, RenderField("session", id.SessionID))
	fmt.Fprintln(out, RenderField("user", id.UserID))
	return nil
}
