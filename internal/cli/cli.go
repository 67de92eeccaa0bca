// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command is the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdChat
	CmdAsk
	CmdIdentity
	CmdHistory
	CmdExport
	CmdConfig
	CmdMockBackend
	CmdVersion
	CmdHelp
)

// String returns the command name as typed.
func (c Command) String() string {
	switch c {
	case CmdTUI:
		return "tui"
	case CmdChat:
		return "chat"
	case CmdAsk:
		return "ask"
	case CmdIdentity:
		return "identity"
	case CmdHistory:
		return "history"
	case CmdExport:
		return "export"
	case CmdConfig:
		return "config"
	case CmdMockBackend:
		return "mock-backend"
	case CmdVersion:
		return "version"
	default:
		return "help"
	}
}

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Quiet      bool
	Verbose    bool
	JSON       bool
	BackendURL string
	Theme      string

	// Command-specific
	Subcommand string
	Query      string
	AudioFile  string
	SessionID  string
	Limit      int
	Timestamps bool

	// export
	Format    string
	OutputDir string

	// mock-backend
	Addr   string
	APIKey string
	Delay  time.Duration

	// Unknown is the unrecognized command name, if any.
	Unknown string

	// Err is the first argument error.
	Err error
}

// boolFlags never take a value.
var boolFlags = []string{"json", "quiet", "q", "verbose", "v", "help", "h", "timestamps", "version"}

const usageText = `voicechat - text and voice chat with a conversational backend

Usage:
  voicechat                          Start the full-screen chat (default)
  voicechat chat                     Line-mode chat with slash commands
  voicechat ask "question"           Ask one question and print the reply
  voicechat ask --audio clip.wav     Send one recorded clip
  voicechat identity [show|reset-session|reset-user]
                                     Show or reset the conversation ids
  voicechat history [--session ID] [--limit N]
                                     Print the saved transcript
  voicechat export [--format md|json|html] [--output DIR] [--session ID]
                                     Write the saved transcript to a file
  voicechat config [show|path|init|get KEY]
                                     Configuration
  voicechat mock-backend [--addr HOST:PORT] [--api-key KEY] [--delay 500ms]
                                     Run the local echo backend
  voicechat version                  Show version
  voicechat help                     Show this help

Global flags:
  --backend URL      Backend origin (overrides config and VOICECHAT_BACKEND_URL)
  --theme NAME       Markdown theme: auto, dark, light, notty, plain
  --json             Machine-readable output where supported
  -q, --quiet        Less output
  -v, --verbose      Debug logging

Chat commands (tui and chat):
  /record, /stop, /cancel, /play [n], /reset-session, /reset-user,
  /whoami, /history [limit], /help, /quit

Environment:
  VOICECHAT_HOME, VOICECHAT_CONFIG, VOICECHAT_BACKEND_URL, VOICECHAT_API_KEY,
  VOICECHAT_TIMEOUT, VOICECHAT_DATA_DIR, VOICECHAT_RECORDER, VOICECHAT_PLAYER,
  VOICECHAT_LOG_LEVEL
`

// PrintUsage prints the usage text.
func PrintUsage() {
	fmt.Print(usageText)
}

// VersionString describes the build.
func VersionString() string {
	return fmt.Sprintf("voicechat %s (commit %s, built %s, %s/%s)",
		Version, GitCommit, BuildDate, runtime.GOOS, runtime.GOARCH)
}

// Parse parses os.Args.
func Parse() (Command, Args) {
	return ParseArgs(os.Args[1:])
}

// ParseArgs parses argv (without the program name).
func ParseArgs(argv []string) (Command, Args) {
	p := NewArgParser(argv, boolFlags...)

	args := Args{
		Quiet:      p.BoolFlag("quiet", "q"),
		Verbose:    p.BoolFlag("verbose", "v"),
		JSON:       p.BoolFlag("json"),
		BackendURL: strings.TrimRight(p.Flag("backend"), "/"),
		Theme:      p.Flag("theme"),
		Timestamps: p.BoolFlag("timestamps"),
	}

	if p.BoolFlag("help", "h") {
		return CmdHelp, args
	}
	if p.BoolFlag("version") {
		return CmdVersion, args
	}

	name := strings.ToLower(p.Positional(0))
	rest := p.PositionalFrom(1)
	if len(rest) > 0 {
		args.Subcommand = rest[0]
	}

	switch name {
	case "", "tui":
		return CmdTUI, args

	case "chat":
		return CmdChat, args

	case "ask":
		args.Subcommand = ""
		args.Query = strings.Join(rest, " ")
		args.AudioFile = p.Flag("audio", "a")
		if args.Query == "" && args.AudioFile == "" {
			args.Err = fmt.Errorf("ask needs a question or --audio FILE")
		}
		return CmdAsk, args

	case "identity", "id", "whoami":
		if args.Subcommand == "" {
			args.Subcommand = "show"
		}
		return CmdIdentity, args

	case "history":
		args.SessionID = p.Flag("session", "s")
		args.Limit, args.Err = p.FlagInt("limit", 0)
		return CmdHistory, args

	case "export":
		args.Format = p.FlagOrDefault("format", "md")
		args.OutputDir = p.FlagOrDefault("output", ".")
		args.SessionID = p.Flag("session", "s")
		args.Limit, args.Err = p.FlagInt("limit", 0)
		return CmdExport, args

	case "config":
		if args.Subcommand == "" {
			args.Subcommand = "show"
		}
		if len(rest) > 1 {
			args.Query = rest[1]
		}
		return CmdConfig, args

	case "mock-backend", "serve":
		args.Addr = p.Flag("addr")
		args.APIKey = p.Flag("api-key")
		if d := p.Flag("delay"); d != "" {
			args.Delay, args.Err = time.ParseDuration(d)
		}
		return CmdMockBackend, args

	case "version":
		return CmdVersion, args

	case "help":
		return CmdHelp, args
	}

	args.Unknown = name
	args.Err = fmt.Errorf("unknown command %q", name)
	return CmdHelp, args
}
