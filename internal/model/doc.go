// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// # Key Types
//
//   - Sender: closed enumeration of message authors (user, bot)
//   - Message: one chat entry with optional audio reference
//   - Log: ordered message list of the current session
//
// # Usage
//
//	log := model.NewLog()
//	log.Append(model.NewUserMessage("Hello"))
//	log.Append(model.NewBotMessage("Hi!").WithAudio("http://host/response_audio/a.wav"))
package model
