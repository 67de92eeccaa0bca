// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"time"
)

// JSONExporter exports transcripts to JSON. Options are ignored: the output
// always carries every field.
type JSONExporter struct {
	options *Options
}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter(opts *Options) *JSONExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &JSONExporter{options: opts}
}

type jsonEntry struct {
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	AudioURL  string    `json:"audio_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type jsonTranscript struct {
	SessionID  string      `json:"session_id"`
	UserID     string      `json:"user_id"`
	ExportedAt time.Time   `json:"exported_at"`
	Messages   []jsonEntry `json:"messages"`
}

// Export renders t as indented JSON.
func (e *JSONExporter) Export(t *Transcript) ([]byte, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}
	out := jsonTranscript{
		SessionID:  t.SessionID,
		UserID:     t.UserID,
		ExportedAt: t.ExportedAt,
		Messages:   make([]jsonEntry, 0, len(t.Entries)),
	}
	for _, entry := range t.Entries {
		out.Messages = append(out.Messages, jsonEntry{
			Sender:    entry.Sender.String(),
			Text:      entry.Text,
			AudioURL:  entry.AudioURL,
			CreatedAt: entry.CreatedAt,
		})
	}
	return json.MarshalIndent(out, "", "  ")
}

// FileExtension returns the file extension for JSON.
func (e *JSONExporter) FileExtension() string {
	return ".json"
}

// MimeType returns the MIME type for JSON.
func (e *JSONExporter) MimeType() string {
	return "application/json"
}
