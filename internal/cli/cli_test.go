// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/voicechat/internal/audio"
	"github.com/jeranaias/voicechat/internal/backend"
	"github.com/jeranaias/voicechat/internal/config"
	"github.com/jeranaias/voicechat/internal/controller"
	"github.com/jeranaias/voicechat/internal/markdown"
	"github.com/jeranaias/voicechat/internal/model"
	"github.com/jeranaias/voicechat/internal/server"
	"github.com/jeranaias/voicechat/internal/storage"
)

// =============================================================================
// FAKES
// =============================================================================

// scriptReader feeds fixed lines, then io.EOF.
type scriptReader struct {
	lines   []string
	prompts []string
}

func (r *scriptReader) Prompt(prompt string) (string, error) {
	r.prompts = append(r.prompts, prompt)
	if len(r.lines) == 0 {
		return "", io.EOF
	}
	line := r.lines[0]
	r.lines = r.lines[1:]
	return line, nil
}

type fakeCapture struct{ clip []byte }

func (c *fakeCapture) Stop() ([]byte, error) { return c.clip, nil }
func (c *fakeCapture) Abort()                {}

type fakeRecorder struct{ clip []byte }

func (r *fakeRecorder) Start(context.Context) (audio.Capture, error) {
	return &fakeCapture{clip: r.clip}, nil
}

type fakePlayback struct{ done chan struct{} }

func (p *fakePlayback) Stop() {
	select {
	case <-p.done:
	default:
		close(p.done)
	}
}
func (p *fakePlayback) Done() <-chan struct{} { return p.done }

type fakePlayer struct{ urls []string }

func (p *fakePlayer) Play(_ context.Context, url string) (audio.Playback, error) {
	p.urls = append(p.urls, url)
	return &fakePlayback{done: make(chan struct{})}, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func newMockBackend(t *testing.T) *httptest.Server {
	t.Helper()
	srv := server.New(server.Config{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func newTestApp(t *testing.T, backendURL string) (*App, *storage.Memory, *fakePlayer) {
	t.Helper()
	cfg := config.Default()
	cfg.Backend.URL = backendURL
	cfg.Backend.TimeoutSecs = 5
	cfg.Backend.RequestsPerMinute = 0
	cfg.Storage.DataDir = t.TempDir()
	cfg.UI.RecordingPlaceholder = false

	store := storage.NewMemory()
	player := &fakePlayer{}
	app, err := NewApp(cfg, AppOptions{
		Store:    store,
		Recorder: &fakeRecorder{clip: audio.Tone(440, 500*time.Millisecond)},
		Player:   player,
		Renderer: markdown.Plain{},
	})
	require.NoError(t, err)
	t.Cleanup(func() { app.Close() })
	return app, store, player
}

// =============================================================================
// ARGUMENT PARSING
// =============================================================================

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name  string
		argv  []string
		cmd   Command
		check func(t *testing.T, a Args)
	}{
		{"default is tui", nil, CmdTUI, nil},
		{"chat", []string{"chat", "--timestamps"}, CmdChat, func(t *testing.T, a Args) {
			assert.True(t, a.Timestamps)
		}},
		{"ask joins words", []string{"ask", "what", "time", "is", "it"}, CmdAsk, func(t *testing.T, a Args) {
			assert.Equal(t, "what time is it", a.Query)
			assert.NoError(t, a.Err)
		}},
		{"ask audio", []string{"ask", "--audio", "clip.wav"}, CmdAsk, func(t *testing.T, a Args) {
			assert.Equal(t, "clip.wav", a.AudioFile)
			assert.Empty(t, a.Query)
		}},
		{"ask without input", []string{"ask"}, CmdAsk, func(t *testing.T, a Args) {
			assert.Error(t, a.Err)
		}},
		{"identity default", []string{"whoami"}, CmdIdentity, func(t *testing.T, a Args) {
			assert.Equal(t, "show", a.Subcommand)
		}},
		{"identity reset", []string{"identity", "reset-user", "--json"}, CmdIdentity, func(t *testing.T, a Args) {
			assert.Equal(t, "reset-user", a.Subcommand)
			assert.True(t, a.JSON)
		}},
		{"history flags", []string{"history", "--session", "session_1", "--limit", "5"}, CmdHistory, func(t *testing.T, a Args) {
			assert.Equal(t, "session_1", a.SessionID)
			assert.Equal(t, 5, a.Limit)
		}},
		{"history bad limit", []string{"history", "--limit", "zero"}, CmdHistory, func(t *testing.T, a Args) {
			assert.Error(t, a.Err)
		}},
		{"export defaults", []string{"export"}, CmdExport, func(t *testing.T, a Args) {
			assert.Equal(t, "md", a.Format)
			assert.Equal(t, ".", a.OutputDir)
		}},
		{"export flags", []string{"export", "--format", "html", "--output", "/tmp/x"}, CmdExport, func(t *testing.T, a Args) {
			assert.Equal(t, "html", a.Format)
			assert.Equal(t, "/tmp/x", a.OutputDir)
		}},
		{"config get", []string{"config", "get", "backend.url"}, CmdConfig, func(t *testing.T, a Args) {
			assert.Equal(t, "get", a.Subcommand)
			assert.Equal(t, "backend.url", a.Query)
		}},
		{"mock backend", []string{"serve", "--addr", ":9000", "--delay", "250ms"}, CmdMockBackend, func(t *testing.T, a Args) {
			assert.Equal(t, ":9000", a.Addr)
			assert.Equal(t, 250*time.Millisecond, a.Delay)
		}},
		{"global backend trims slash", []string{"chat", "--backend", "http://h:8000/"}, CmdChat, func(t *testing.T, a Args) {
			assert.Equal(t, "http://h:8000", a.BackendURL)
		}},
		{"help flag", []string{"chat", "-h"}, CmdHelp, nil},
		{"version flag", []string{"--version"}, CmdVersion, nil},
		{"unknown", []string{"frobnicate"}, CmdHelp, func(t *testing.T, a Args) {
			assert.Equal(t, "frobnicate", a.Unknown)
			assert.Error(t, a.Err)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, args := ParseArgs(tt.argv)
			assert.Equal(t, tt.cmd, cmd)
			if tt.check != nil {
				tt.check(t, args)
			}
		})
	}
}

func TestArgParser(t *testing.T) {
	p := NewArgParser([]string{"show", "--json", "extra", "--theme=dark", "-s", "abc", "--", "--literal"}, "json")

	assert.Equal(t, "show", p.Positional(0))
	assert.Equal(t, "extra", p.Positional(1))
	assert.Equal(t, "--literal", p.Positional(2))
	assert.Equal(t, "", p.Positional(9))
	assert.Equal(t, []string{"extra", "--literal"}, p.PositionalFrom(1))

	assert.True(t, p.BoolFlag("json"))
	assert.False(t, p.BoolFlag("quiet"))
	assert.Equal(t, "dark", p.Flag("theme"))
	assert.Equal(t, "abc", p.Flag("session", "s"))
	assert.Equal(t, "fallback", p.FlagOrDefault("missing", "fallback"))
}

func TestParseIntWithValidation(t *testing.T) {
	n, err := ParseIntWithValidation("12", "--limit")
	require.NoError(t, err)
	assert.Equal(t, 12, n)

	for _, bad := range []string{"", "x", "0", "-3"} {
		_, err := ParseIntWithValidation(bad, "--limit")
		assert.Error(t, err, bad)
	}
}

func TestCommandString(t *testing.T) {
	assert.Equal(t, "mock-backend", CmdMockBackend.String())
	assert.Equal(t, "tui", CmdTUI.String())
	assert.Equal(t, "help", CmdHelp.String())
}

// =============================================================================
// OUTPUT
// =============================================================================

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, ExitCode(nil))
	assert.Equal(t, ExitConfigError, ExitCode(&ConfigError{Err: errors.New("bad")}))
	assert.Equal(t, ExitUsageError, ExitCode(usageError(errors.New("bad flag"))))
	assert.Equal(t, ExitNetworkError, ExitCode(fmt.Errorf("ask: %w", backend.ErrConnection)))
	assert.Equal(t, ExitGeneralError, ExitCode(errors.New("other")))
}

func TestJSONResponse(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONResponse("identity", map[string]string{"a": "b"}, nil).Write(&buf))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, true, got["success"])
	assert.Equal(t, "identity", got["command"])
	assert.Nil(t, got["error"])

	buf.Reset()
	require.NoError(t, NewJSONResponse("ask", nil, errors.New("boom")).Write(&buf))
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, false, got["success"])
	assert.Equal(t, "boom", got["error"])
}

// =============================================================================
// IDENTITY / HISTORY / CONFIG
// =============================================================================

func TestRunIdentity(t *testing.T) {
	kv := storage.NewMemory()

	var buf bytes.Buffer
	require.NoError(t, runIdentity(kv, Args{Subcommand: "show", JSON: true}, &buf))
	first := decodeIdentity(t, buf.Bytes())
	assert.True(t, strings.HasPrefix(first.SessionID, "session_"))
	assert.True(t, strings.HasPrefix(first.UserID, "user_"))

	buf.Reset()
	require.NoError(t, runIdentity(kv, Args{Subcommand: "reset-session", JSON: true}, &buf))
	second := decodeIdentity(t, buf.Bytes())
	assert.NotEqual(t, first.SessionID, second.SessionID)
	assert.Equal(t, first.UserID, second.UserID)

	buf.Reset()
	require.NoError(t, runIdentity(kv, Args{Subcommand: "reset-user", JSON: true}, &buf))
	third := decodeIdentity(t, buf.Bytes())
	assert.NotEqual(t, second.SessionID, third.SessionID)
	assert.NotEqual(t, second.UserID, third.UserID)

	buf.Reset()
	require.NoError(t, runIdentity(kv, Args{Subcommand: "show"}, &buf))
	assert.Contains(t, buf.String(), third.SessionID)

	err := runIdentity(kv, Args{Subcommand: "rotate"}, &buf)
	assert.Equal(t, ExitUsageError, ExitCode(err))
}

func decodeIdentity(t *testing.T, raw []byte) identityJSON {
	t.Helper()
	var resp struct {
		Data identityJSON `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &resp))
	return resp.Data
}

func TestRunHistory(t *testing.T) {
	store := storage.NewMemory()
	id, err := currentIdentity(store)
	require.NoError(t, err)

	ctx := context.Background()
	at := time.Date(2025, 3, 1, 9, 30, 0, 0, time.Local)
	require.NoError(t, store.SaveMessage(ctx, storage.Entry{
		SessionID: id.SessionID, UserID: id.UserID, Sender: model.SenderUser, Text: "hello", CreatedAt: at,
	}))
	require.NoError(t, store.SaveMessage(ctx, storage.Entry{
		SessionID: id.SessionID, UserID: id.UserID, Sender: model.SenderBot, Text: "hi\nthere",
		AudioURL: "http://h/response_audio/1.wav", CreatedAt: at,
	}))
	require.NoError(t, store.SaveMessage(ctx, storage.Entry{
		SessionID: "session_other", UserID: id.UserID, Sender: model.SenderUser, Text: "elsewhere", CreatedAt: at,
	}))

	var buf bytes.Buffer
	require.NoError(t, runHistory(ctx, store, Args{}, &buf))
	out := buf.String()
	assert.Contains(t, out, "2025-03-01 09:30")
	assert.Contains(t, out, "hello")
	assert.Contains(t, out, "hi there [audio]")
	assert.NotContains(t, out, "elsewhere")

	buf.Reset()
	require.NoError(t, runHistory(ctx, store, Args{SessionID: "session_other", JSON: true}, &buf))
	var resp struct {
		Data []historyEntry `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "elsewhere", resp.Data[0].Text)
	assert.Equal(t, "user", resp.Data[0].Sender)
}

func TestRunConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Backend.URL = "http://backend.test:9000"
	cfg.Backend.APIKey = "secret"

	var buf bytes.Buffer
	require.NoError(t, runConfig(cfg, Args{Subcommand: "get", Query: "backend.url"}, &buf))
	assert.Equal(t, "http://backend.test:9000\n", buf.String())

	buf.Reset()
	require.NoError(t, runConfig(cfg, Args{Subcommand: "show"}, &buf))
	assert.Contains(t, buf.String(), "backend.url")
	assert.NotContains(t, buf.String(), "secret")

	err := runConfig(cfg, Args{Subcommand: "get", Query: "nope.key"}, &buf)
	assert.Equal(t, ExitUsageError, ExitCode(err))

	err = runConfig(cfg, Args{Subcommand: "get"}, &buf)
	assert.Equal(t, ExitUsageError, ExitCode(err))

	err = runConfig(cfg, Args{Subcommand: "explode"}, &buf)
	assert.Equal(t, ExitUsageError, ExitCode(err))
}

func TestInitConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	var buf bytes.Buffer
	require.NoError(t, initConfig(path, &buf))
	assert.Contains(t, buf.String(), path)

	loaded, err := config.LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, config.Default().Backend.URL, loaded.Backend.URL)

	assert.Error(t, initConfig(path, &buf), "existing file is not overwritten")
}

// =============================================================================
// ASK
// =============================================================================

func TestRunAsk_Text(t *testing.T) {
	ts := newMockBackend(t)
	app, store, _ := newTestApp(t, ts.URL)

	var buf bytes.Buffer
	require.NoError(t, runAsk(context.Background(), app, Args{Query: "hello there", JSON: true}, &buf))

	var resp struct {
		Success bool      `json:"success"`
		Data    askResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Contains(t, resp.Data.Reply, "hello there")
	assert.Equal(t, app.Identity.Current().SessionID, resp.Data.SessionID)

	id := app.Identity.Current()
	entries, err := store.ListMessages(context.Background(), id.SessionID, id.UserID, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, model.SenderUser, entries[0].Sender)
	assert.Equal(t, model.SenderBot, entries[1].Sender)
}

func TestRunAsk_Audio(t *testing.T) {
	ts := newMockBackend(t)
	app, _, _ := newTestApp(t, ts.URL)

	clipPath := filepath.Join(t.TempDir(), "clip.wav")
	require.NoError(t, os.WriteFile(clipPath, audio.Tone(440, time.Second), 0600))

	var buf bytes.Buffer
	require.NoError(t, runAsk(context.Background(), app, Args{AudioFile: clipPath}, &buf))
	out := buf.String()
	assert.Contains(t, out, "1.0 seconds of audio")
	assert.Contains(t, out, ts.URL+"/response_audio/")
}

func TestRunAsk_BackendDown(t *testing.T) {
	ts := newMockBackend(t)
	url := ts.URL
	ts.Close()
	app, _, _ := newTestApp(t, url)

	var buf bytes.Buffer
	err := runAsk(context.Background(), app, Args{Query: "anyone?", JSON: true}, &buf)
	require.Error(t, err)
	assert.Equal(t, ExitNetworkError, ExitCode(err))
	assert.Contains(t, buf.String(), `"success": false`)
}

// =============================================================================
// REPL
// =============================================================================

func TestRepl_Conversation(t *testing.T) {
	ts := newMockBackend(t)
	app, store, player := newTestApp(t, ts.URL)

	in := &scriptReader{lines: []string{
		"hello",
		"   ",
		"/whoami",
		"/record",
		"/stop",
		"/play",
		"/quit",
		"never read",
	}}
	var out bytes.Buffer
	repl := NewRepl(app, in, &out)

	require.NoError(t, repl.Run(context.Background()))

	text := out.String()
	assert.Contains(t, text, "hello")
	assert.Contains(t, text, "Echo")
	assert.Contains(t, text, app.Identity.Current().SessionID)
	assert.Contains(t, text, "0.5 seconds of audio")
	assert.Contains(t, text, "playing")
	assert.Equal(t, []string{"you> ", "you> ", "you> ", "you> ", "rec> ", "you> ", "you> "}, in.prompts)
	assert.Equal(t, []string{"never read"}, in.lines)

	require.Len(t, player.urls, 1)
	assert.Contains(t, player.urls[0], "/response_audio/")

	id := app.Identity.Current()
	entries, err := store.ListMessages(context.Background(), id.SessionID, id.UserID, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 4)
}

func TestRepl_Commands(t *testing.T) {
	ts := newMockBackend(t)
	app, _, _ := newTestApp(t, ts.URL)

	var out bytes.Buffer
	repl := NewRepl(app, nil, &out)
	ctx := context.Background()

	quit, err := repl.Handle(ctx, "/help")
	require.NoError(t, err)
	assert.False(t, quit)
	assert.Contains(t, out.String(), "/record")

	_, err = repl.Handle(ctx, "/bogus")
	assert.Error(t, err)

	_, err = repl.Handle(ctx, "/play 3")
	assert.EqualError(t, err, "no message 3")

	_, err = repl.Handle(ctx, "/stop")
	assert.ErrorIs(t, err, controller.ErrNotRecording)

	before := app.Identity.Current()
	_, err = repl.Handle(ctx, "/reset-session")
	require.NoError(t, err)
	assert.NotEqual(t, before.SessionID, app.Identity.Current().SessionID)
	assert.Contains(t, out.String(), controller.SessionResetText)

	quit, err = repl.Handle(ctx, "/q")
	require.NoError(t, err)
	assert.True(t, quit)
}

func TestRepl_BackendDownShowsFallback(t *testing.T) {
	ts := newMockBackend(t)
	url := ts.URL
	ts.Close()
	app, _, _ := newTestApp(t, url)

	var out bytes.Buffer
	repl := NewRepl(app, nil, &out)

	_, err := repl.Handle(context.Background(), "hello?")
	require.NoError(t, err, "network failures are shown in the transcript")
	assert.Contains(t, out.String(), controller.FallbackReply)
}

func TestScannerReader(t *testing.T) {
	r := newScannerReader(strings.NewReader("one\ntwo\n"))

	line, err := r.Prompt("you> ")
	require.NoError(t, err)
	assert.Equal(t, "one", line)

	line, err = r.Prompt("you> ")
	require.NoError(t, err)
	assert.Equal(t, "two", line)

	_, err = r.Prompt("you> ")
	assert.ErrorIs(t, err, io.EOF)
}

// =============================================================================
// EXPORT
// =============================================================================

func TestRunExport(t *testing.T) {
	store := storage.NewMemory()
	id, err := currentIdentity(store)
	require.NoError(t, err)

	ctx := context.Background()
	for _, text := range []string{"one", "two", "three"} {
		require.NoError(t, store.SaveMessage(ctx, storage.Entry{
			SessionID: id.SessionID, UserID: id.UserID, Sender: model.SenderUser, Text: text,
		}))
	}

	dir := t.TempDir()
	var buf bytes.Buffer
	require.NoError(t, runExport(ctx, store, Args{Format: "md", OutputDir: dir, JSON: true}, &buf))

	var resp struct {
		Data struct {
			Path     string `json:"path"`
			Messages int    `json:"messages"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, 3, resp.Data.Messages)
	assert.Equal(t, dir, filepath.Dir(resp.Data.Path))

	data, err := os.ReadFile(resp.Data.Path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "three")

	err = runExport(ctx, store, Args{Format: "pdf", OutputDir: dir}, &buf)
	assert.Equal(t, ExitUsageError, ExitCode(err))

	err = runExport(ctx, store, Args{Format: "json", OutputDir: dir, SessionID: "session_none"}, &buf)
	assert.ErrorContains(t, err, "no saved messages")
}
