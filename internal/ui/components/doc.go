// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components renders controller state for the terminal.

Every renderer here is a pure function of a controller.Snapshot plus
presentation options: the same snapshot always renders the same text, so
output can be compared against golden strings in tests.

# Components

MessageBubble (message.go) - One message: sender label, play/pause
affordance, and the text. Bot text goes through the markdown renderer;
user text is shown as typed.

Conversation (conversation.go) - The message list in order, followed by the
recording or loading indicator and the inline error.

StatusBar (statusbar.go) - Identity suffixes and the controller state.
*/
package components
