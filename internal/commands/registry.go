// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"fmt"
	"sort"
	"strings"
)

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

// Action is what a command asks the front end to do.
type Action int

const (
	ActionHelp Action = iota
	ActionQuit
	ActionRecord
	ActionStop
	ActionCancel
	ActionPlay
	ActionResetSession
	ActionResetUser
	ActionWhoami
	ActionHistory
	ActionClearError
)

// Command is a slash command.
type Command struct {
	// Name is the primary command name (e.g., "/play")
	Name string

	// Aliases are alternative names (e.g., "/p")
	Aliases []string

	Description string

	// Usage shows argument syntax (e.g., "/play [n]")
	Usage string

	Args []ArgDef

	Action Action

	// Category groups commands in help output
	Category string

	// Hidden commands don't appear in help or completion
	Hidden bool
}

// ArgDef describes one positional argument.
type ArgDef struct {
	Name        string
	Required    bool
	Type        ArgType
	Description string

	// Values for enum types
	Values []string
}

// ArgType determines how an argument is validated.
type ArgType int

const (
	ArgTypeString ArgType = iota
	ArgTypeInt            // positive integer
	ArgTypeEnum           // one of Values
)

// =============================================================================
// COMMAND REGISTRY
// =============================================================================

// Registry holds the known commands.
type Registry struct {
	commands map[string]*Command
	aliases  map[string]*Command
}

// NewRegistry creates a registry with the built-in commands.
func NewRegistry() *Registry {
	r := &Registry{
		commands: make(map[string]*Command),
		aliases:  make(map[string]*Command),
	}
	r.registerBuiltins()
	return r
}

// Register adds cmd, replacing any command with the same name.
func (r *Registry) Register(cmd *Command) {
	r.commands[cmd.Name] = cmd
	for _, alias := range cmd.Aliases {
		r.aliases[alias] = cmd
	}
}

// Get looks a command up by name or alias, ignoring case.
func (r *Registry) Get(name string) *Command {
	name = strings.ToLower(name)
	if cmd, ok := r.commands[name]; ok {
		return cmd
	}
	return r.aliases[name]
}

// All returns every command sorted by name.
func (r *Registry) All() []*Command {
	cmds := make([]*Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		cmds = append(cmds, cmd)
	}
	sort.Slice(cmds, func(i, j int) bool { return cmds[i].Name < cmds[j].Name })
	return cmds
}

// ByCategory groups the visible commands by category.
func (r *Registry) ByCategory() map[string][]*Command {
	result := make(map[string][]*Command)
	for _, cmd := range r.All() {
		if cmd.Hidden {
			continue
		}
		category := cmd.Category
		if category == "" {
			category = "General"
		}
		result[category] = append(result[category], cmd)
	}
	return result
}

// Help renders a plain-text command reference.
func (r *Registry) Help() string {
	groups := r.ByCategory()
	categories := make([]string, 0, len(groups))
	for c := range groups {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	var b strings.Builder
	for i, category := range categories {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(category + ":\n")
		for _, cmd := range groups[category] {
			usage := cmd.Usage
			if usage == "" {
				usage = cmd.Name
			}
			fmt.Fprintf(&b, "  %-18s %s\n", usage, cmd.Description)
		}
	}
	return b.String()
}

// =============================================================================
// BUILT-IN COMMANDS
// =============================================================================

func (r *Registry) registerBuiltins() {
	r.Register(&Command{
		Name:        "/help",
		Aliases:     []string{"/h", "/?"},
		Description: "Show available commands",
		Category:    "General",
		Action:      ActionHelp,
	})
	r.Register(&Command{
		Name:        "/quit",
		Aliases:     []string{"/q", "/exit"},
		Description: "Exit voicechat",
		Category:    "General",
		Action:      ActionQuit,
	})
	r.Register(&Command{
		Name:        "/dismiss",
		Description: "Clear the error line",
		Category:    "General",
		Action:      ActionClearError,
		Hidden:      true,
	})

	r.Register(&Command{
		Name:        "/record",
		Aliases:     []string{"/r"},
		Description: "Start recording a voice message",
		Category:    "Voice",
		Action:      ActionRecord,
	})
	r.Register(&Command{
		Name:        "/stop",
		Aliases:     []string{"/send"},
		Description: "Stop recording and send the clip",
		Category:    "Voice",
		Action:      ActionStop,
	})
	r.Register(&Command{
		Name:        "/cancel",
		Description: "Discard the current recording",
		Category:    "Voice",
		Action:      ActionCancel,
	})
	r.Register(&Command{
		Name:        "/play",
		Aliases:     []string{"/p"},
		Description: "Play or stop a message's audio (default: latest)",
		Usage:       "/play [n]",
		Args: []ArgDef{
			{Name: "n", Type: ArgTypeInt, Description: "message number as shown in the transcript"},
		},
		Category: "Voice",
		Action:   ActionPlay,
	})

	r.Register(&Command{
		Name:        "/reset-session",
		Aliases:     []string{"/new"},
		Description: "Start a new session",
		Category:    "Conversation",
		Action:      ActionResetSession,
	})
	r.Register(&Command{
		Name:        "/reset-user",
		Description: "Start over as a new user",
		Category:    "Conversation",
		Action:      ActionResetUser,
	})
	r.Register(&Command{
		Name:        "/whoami",
		Aliases:     []string{"/id"},
		Description: "Show the session and user ids",
		Category:    "Conversation",
		Action:      ActionWhoami,
	})
	r.Register(&Command{
		Name:        "/history",
		Description: "Show saved messages for this session",
		Usage:       "/history [limit]",
		Args: []ArgDef{
			{Name: "limit", Type: ArgTypeInt, Description: "number of messages"},
		},
		Category: "Conversation",
		Action:   ActionHistory,
	})
}
