// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"sort"
	"strings"
)

// =============================================================================
// COMPLETER
// =============================================================================

// Completion is one candidate for tab completion.
type Completion struct {
	Value       string
	Description string
	// Alias is set when Value is an alias of another command.
	Alias bool
}

// Completer completes command names.
type Completer struct {
	registry *Registry
}

// NewCompleter creates a completer over registry.
func NewCompleter(registry *Registry) *Completer {
	return &Completer{registry: registry}
}

// Complete returns the commands whose name or alias starts with partial.
// Primary names sort before aliases; both groups are alphabetical. Input
// that is not a command, or that already has arguments, completes to
// nothing.
func (c *Completer) Complete(partial string) []Completion {
	if !strings.HasPrefix(partial, "/") || strings.ContainsAny(partial, " \t") {
		return nil
	}
	partial = strings.ToLower(partial)

	var out []Completion
	for _, cmd := range c.registry.All() {
		if cmd.Hidden {
			continue
		}
		if strings.HasPrefix(cmd.Name, partial) {
			out = append(out, Completion{Value: cmd.Name, Description: cmd.Description})
		}
		for _, alias := range cmd.Aliases {
			if strings.HasPrefix(alias, partial) {
				out = append(out, Completion{Value: alias, Description: cmd.Description, Alias: true})
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Alias != out[j].Alias {
			return !out[i].Alias
		}
		return out[i].Value < out[j].Value
	})
	return out
}

// Names returns the completed primary names for partial.
func (c *Completer) Names(partial string) []string {
	var names []string
	for _, comp := range c.Complete(partial) {
		if !comp.Alias {
			names = append(names, comp.Value)
		}
	}
	return names
}

// Suggestions lists every visible primary name, for input widgets that do
// their own prefix matching.
func (c *Completer) Suggestions() []string {
	return c.Names("/")
}
