// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the voicechat command line.
//
// # Commands
//
//   - tui (default): full-screen conversation
//   - chat: line-mode conversation with history and slash commands
//   - ask: send one text query or one audio file
//   - identity: show or reset the session and user ids
//   - history: print the saved transcript
//   - export: write the saved transcript as Markdown, JSON or HTML
//   - config: show, locate or create the config file
//   - mock-backend: run the local echo backend
//   - version, help
//
// Every conversation command is wired by NewApp, which loads the config,
// opens storage and builds the backend client, the audio devices and the
// controller.
package cli
