// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package backend provides the HTTP client for the chat backend.
//
// Two endpoints are used:
//
//   - POST /api/chat?user_query=..&session_id=..&user_id=.. returns the reply
//     under "message" (or "Message").
//   - POST /api/chat/audio with a multipart body (audio, session_id,
//     user_id) returns {text, message, audio_url}.
//
// Every failure (transport error, timeout, non-2xx status, undecodable body)
// is returned as a *ClientError. Callers that do not care about the cause
// treat any error as a network failure.
//
// # Usage
//
//	client := backend.NewClientWithConfig(&backend.ClientConfig{
//	    BaseURL: cfg.Backend.URL,
//	    APIKey:  cfg.Backend.APIKey,
//	})
//	reply, err := client.SendText(ctx, "What is RAG?", id.SessionID, id.UserID)
//	audio, err := client.SendAudio(ctx, clip, id.SessionID, id.UserID)
package backend
