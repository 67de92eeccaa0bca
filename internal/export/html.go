// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"html"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"

	"github.com/jeranaias/voicechat/internal/storage"
)

// =============================================================================
// HTML EXPORTER
// =============================================================================

// HTMLExporter exports transcripts to a standalone HTML page.
type HTMLExporter struct {
	options *Options
}

// NewHTMLExporter creates a new HTML exporter.
func NewHTMLExporter(opts *Options) *HTMLExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &HTMLExporter{options: opts}
}

// Export renders t as HTML. Message text is escaped, fenced code is
// highlighted and messages with audio get an inline player.
func (e *HTMLExporter) Export(t *Transcript) ([]byte, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}

	theme := e.options.Theme
	if theme != "light" {
		theme = "dark"
	}

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	sb.WriteString("    <meta charset=\"UTF-8\">\n")
	sb.WriteString("    <meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	fmt.Fprintf(&sb, "    <title>Conversation %s</title>\n", html.EscapeString(t.SessionID))
	sb.WriteString("    <meta name=\"generator\" content=\"voicechat\">\n")
	sb.WriteString(css)
	sb.WriteString("</head>\n")
	fmt.Fprintf(&sb, "<body class=\"%s-theme\">\n<div class=\"container\">\n", theme)

	if e.options.IncludeMetadata {
		sb.WriteString("    <header class=\"header\">\n")
		fmt.Fprintf(&sb, "        <h1>Conversation %s</h1>\n", html.EscapeString(t.SessionID))
		sb.WriteString("        <div class=\"metadata\">\n")
		fmt.Fprintf(&sb, "            <span><strong>User:</strong> %s</span>\n", html.EscapeString(t.UserID))
		fmt.Fprintf(&sb, "            <span><strong>Started:</strong> %s</span>\n", formatTimestamp(t.Started()))
		fmt.Fprintf(&sb, "            <span><strong>Messages:</strong> %d</span>\n", len(t.Entries))
		sb.WriteString("        </div>\n    </header>\n")
	}

	sb.WriteString("    <main class=\"conversation\">\n")
	for _, entry := range t.Entries {
		sb.WriteString(e.renderEntry(entry))
	}
	sb.WriteString("    </main>\n")

	fmt.Fprintf(&sb, "    <footer class=\"footer\">Exported from <strong>voicechat</strong> on %s</footer>\n",
		t.ExportedAt.Format("January 2, 2006 at 3:04 PM"))
	sb.WriteString("</div>\n</body>\n</html>\n")

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for HTML.
func (e *HTMLExporter) FileExtension() string {
	return ".html"
}

// MimeType returns the MIME type for HTML.
func (e *HTMLExporter) MimeType() string {
	return "text/html"
}

func (e *HTMLExporter) renderEntry(entry storage.Entry) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "        <div class=\"message %s-message\">\n", entry.Sender.String())
	sb.WriteString("            <div class=\"message-header\">\n")
	fmt.Fprintf(&sb, "                <span class=\"role-label\">%s</span>\n", entry.Sender.DisplayName())
	if e.options.IncludeTimestamps {
		fmt.Fprintf(&sb, "                <span class=\"timestamp\">%s</span>\n", formatShortTimestamp(entry.CreatedAt))
	}
	sb.WriteString("            </div>\n")

	sb.WriteString("            <div class=\"message-content\">\n")
	for _, seg := range splitFences(entry.Text) {
		if seg.code {
			sb.WriteString(e.highlight(seg.text, seg.lang))
			continue
		}
		for _, para := range strings.Split(strings.TrimSpace(seg.text), "\n\n") {
			if para = strings.TrimSpace(para); para == "" {
				continue
			}
			text := html.EscapeString(para)
			fmt.Fprintf(&sb, "                <p>%s</p>\n", strings.ReplaceAll(text, "\n", "<br>"))
		}
	}
	if entry.AudioURL != "" {
		fmt.Fprintf(&sb, "                <audio controls preload=\"none\" src=\"%s\"></audio>\n",
			html.EscapeString(entry.AudioURL))
	}
	sb.WriteString("            </div>\n        </div>\n")
	return sb.String()
}

// =============================================================================
// CODE BLOCKS
// =============================================================================

// segment is a run of prose or one fenced code block.
type segment struct {
	text string
	lang string
	code bool
}

// splitFences splits text on ``` fences. An unterminated fence runs to the
// end of the text.
func splitFences(text string) []segment {
	var segs []segment
	var buf []string
	inCode, lang := false, ""

	flush := func() {
		if len(buf) > 0 {
			segs = append(segs, segment{text: strings.Join(buf, "\n"), lang: lang, code: inCode})
		}
		buf = nil
	}

	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); strings.HasPrefix(trimmed, "```") {
			flush()
			if inCode {
				inCode, lang = false, ""
			} else {
				inCode, lang = true, strings.TrimSpace(strings.TrimPrefix(trimmed, "```"))
			}
			continue
		}
		buf = append(buf, line)
	}
	flush()
	return segs
}

// highlight renders code with chroma using inline styles. It falls back to
// an escaped <pre> block.
func (e *HTMLExporter) highlight(code, lang string) string {
	lexer := lexers.Get(lang)
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	styleName := "monokai"
	if e.options.Theme == "light" {
		styleName = "github"
	}
	style := chromaStyles.Get(styleName)
	if style == nil {
		style = chromaStyles.Fallback
	}

	plain := "                <pre><code>" + html.EscapeString(code) + "</code></pre>\n"
	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return plain
	}
	var sb strings.Builder
	if err := chromahtml.New(chromahtml.WithClasses(false)).Format(&sb, style, iterator); err != nil {
		return plain
	}
	return sb.String() + "\n"
}

const css = `    <style>
        body { margin: 0; font-family: -apple-system, "Segoe UI", Roboto, sans-serif; line-height: 1.5; }
        .dark-theme { background: #1e1e2e; color: #cdd6f4; }
        .light-theme { background: #fafafa; color: #1e1e2e; }
        .container { max-width: 820px; margin: 0 auto; padding: 24px; }
        .header h1 { font-size: 1.4em; margin-bottom: 4px; }
        .metadata span { margin-right: 16px; opacity: 0.8; font-size: 0.9em; }
        .message { border-left: 3px solid; padding: 4px 12px; margin: 16px 0; }
        .user-message { border-color: #89dceb; }
        .bot-message { border-color: #cba6f7; }
        .message-header { font-weight: bold; }
        .timestamp { font-weight: normal; opacity: 0.6; margin-left: 8px; font-size: 0.85em; }
        .message-content p { margin: 6px 0; white-space: pre-wrap; }
        .footer { margin-top: 32px; opacity: 0.6; font-size: 0.85em; }
    </style>
`
