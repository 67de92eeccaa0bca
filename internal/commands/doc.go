// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands provides the slash commands shared by the TUI and the
// line-mode chat.
//
// Commands do not execute anything themselves. Parsing yields a Command
// carrying an Action, and each front end maps the Action onto the
// conversation controller.
//
// # Usage
//
//	reg := commands.NewRegistry()
//	res := reg.Parse("/play 2")
//	if res.IsCommand && res.Error == nil {
//	    switch res.Command.Action {
//	    case commands.ActionPlay:
//	        n, _ := res.Int(0)
//	        ...
//	    }
//	}
//
// Tab completion:
//
//	commands.NewCompleter(reg).Names("/re")
//	// ["/record", "/reset-session", "/reset-user"]
package commands
