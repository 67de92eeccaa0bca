// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes saved conversation transcripts to files.
//
// # Supported Formats
//
//   - Markdown: readable transcript with a front-matter header
//   - JSON: the entries as saved, for other tools
//   - HTML: a standalone page with embedded CSS
//
// # Usage
//
//	t := export.NewTranscript(id.SessionID, id.UserID, entries)
//	exp, err := export.ForFormat("md", export.DefaultOptions())
//	path, err := export.WriteFile(t, exp, "/tmp")
package export
