// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// FitWidth truncates s so that it occupies at most width terminal columns,
// appending "…" when something was cut. Wide (CJK, emoji) runes count as two.
func FitWidth(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}

// PadRight pads s with spaces up to width columns.
func PadRight(s string, width int) string {
	return runewidth.FillRight(s, width)
}

// TrimIDPrefix strips a fixed identifier prefix such as "session_" for display.
// Identifiers without the prefix are returned unchanged.
func TrimIDPrefix(id, prefix string) string {
	return strings.TrimPrefix(id, prefix)
}

// OneLine collapses newlines so multi-line text fits in a single list row.
func OneLine(s string) string {
	s = strings.ReplaceAll(s, "\r", "")
	return strings.ReplaceAll(s, "\n", " ")
}
