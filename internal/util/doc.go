// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared by the voicechat packages.
//
// # Key Functions
//
//   - WriteFileAtomic: crash-safe file writes (config files, recorded clips)
//   - FitWidth: display-width aware truncation for status lines
//   - TrimIDPrefix: strips the fixed "session_" / "user_" prefixes for display
package util
