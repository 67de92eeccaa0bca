// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jeranaias/voicechat/internal/storage"
	"github.com/jeranaias/voicechat/internal/util"
)

// ErrEmptyTranscript is returned when there is nothing to export.
var ErrEmptyTranscript = errors.New("transcript has no messages")

// =============================================================================
// TRANSCRIPT
// =============================================================================

// Transcript is one conversation's saved messages, oldest first.
type Transcript struct {
	SessionID  string          `json:"session_id"`
	UserID     string          `json:"user_id"`
	ExportedAt time.Time       `json:"exported_at"`
	Entries    []storage.Entry `json:"entries"`
}

// NewTranscript wraps entries for export.
func NewTranscript(sessionID, userID string, entries []storage.Entry) *Transcript {
	return &Transcript{
		SessionID:  sessionID,
		UserID:     userID,
		ExportedAt: time.Now(),
		Entries:    entries,
	}
}

// Started is the time of the first entry.
func (t *Transcript) Started() time.Time {
	if len(t.Entries) == 0 {
		return time.Time{}
	}
	return t.Entries[0].CreatedAt
}

func (t *Transcript) validate() error {
	if t == nil || len(t.Entries) == 0 {
		return ErrEmptyTranscript
	}
	return nil
}

// =============================================================================
// EXPORTER
// =============================================================================

// Exporter renders a transcript in one format.
type Exporter interface {
	Export(t *Transcript) ([]byte, error)

	// FileExtension includes the dot (".md").
	FileExtension() string

	MimeType() string
}

// Options configures export behavior.
type Options struct {
	// IncludeMetadata adds the session header.
	IncludeMetadata bool

	// IncludeTimestamps adds per-message times.
	IncludeTimestamps bool

	// Theme for HTML export ("light" or "dark").
	Theme string
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		IncludeMetadata:   true,
		IncludeTimestamps: true,
		Theme:             "dark",
	}
}

// Formats lists the names accepted by ForFormat.
func Formats() []string {
	return []string{"md", "json", "html"}
}

// ForFormat returns the exporter for a format name.
func ForFormat(format string, opts *Options) (Exporter, error) {
	switch strings.ToLower(format) {
	case "markdown", "md", "":
		return NewMarkdownExporter(opts), nil
	case "json":
		return NewJSONExporter(opts), nil
	case "html", "htm":
		return NewHTMLExporter(opts), nil
	}
	return nil, fmt.Errorf("unsupported export format %q (%s)", format, strings.Join(Formats(), ", "))
}

// =============================================================================
// FILES
// =============================================================================

// WriteFile exports t into dir and returns the written path. The file name
// is derived from the session id and the export time.
func WriteFile(t *Transcript, exp Exporter, dir string) (string, error) {
	content, err := exp.Export(t)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}
	if dir == "" {
		dir = "."
	}

	name := fmt.Sprintf("voicechat_%s_%s%s",
		sanitizeFilename(t.SessionID),
		t.ExportedAt.Format("20060102_150405"),
		exp.FileExtension(),
	)
	path := filepath.Join(dir, name)
	if err := util.WriteFileAtomic(path, content, 0644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return path, nil
}

// sanitizeFilename replaces characters that are invalid in file names.
func sanitizeFilename(s string) string {
	const maxLen = 50
	if runes := []rune(s); len(runes) > maxLen {
		s = string(runes[:maxLen])
	}

	var b strings.Builder
	for _, r := range s {
		switch {
		case strings.ContainsRune(`/\:*?"<>|`, r):
			b.WriteRune('-')
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			b.WriteRune('_')
		case r < 32 || r == 127:
			b.WriteRune('-')
		default:
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "conversation"
	}
	return b.String()
}

func formatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}

func formatShortTimestamp(t time.Time) string {
	return t.Format("15:04:05")
}
