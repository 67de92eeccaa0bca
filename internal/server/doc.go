// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server implements a local mock of the chat backend.
//
// The mock speaks the same HTTP contract the client expects from the real
// service, which makes it useful for development and end-to-end tests
// without a language model or speech stack behind it.
//
// # Endpoints
//
//   - POST /api/chat               - Text chat; user_query, session_id and
//     user_id as query parameters, replies {"Message": ...}
//   - POST /api/chat/audio         - Voice chat; multipart "audio" file,
//     replies {"text", "message", "audio_url"}
//   - GET  /response_audio/{name}  - Synthesized reply clips
//   - GET  /health                 - Health check
//   - GET  /stats                  - Usage statistics
//
// Replies echo the query with a per-conversation turn number. Voice replies
// carry a short synthesized tone as their audio.
//
// # Middleware
//
//   - Request IDs (chi)
//   - Panic recovery with stack logging
//   - Structured request logging
//   - Optional x_api_key check with constant-time comparison
//   - Optional CORS for browser front ends
//
// # Usage
//
//	srv := server.New(server.Config{Addr: "127.0.0.1:8000"})
//	go srv.Start()
//	defer srv.Shutdown(ctx)
package server
