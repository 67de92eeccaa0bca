// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the full-screen conversation view.
//
// The Model is a Bubble Tea model over a Conversation (normally a
// *controller.Controller). It never mutates conversation state itself:
// key presses and slash commands become tea.Cmds that call the
// controller, and the controller's event channel drives re-rendering.
//
// # Keys
//
//   - Enter: send the input, or run it as a slash command
//   - Ctrl+R: start recording, or stop and send
//   - Esc: discard the recording, or dismiss the error line
//   - Ctrl+P: play or stop the latest audio
//   - Ctrl+N: new session
//   - Ctrl+T: toggle timestamps
//   - F1: toggle help
//   - Ctrl+C: quit
package chat
