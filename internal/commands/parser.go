// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ErrUnknownCommand is returned for a slash command that is not registered.
var ErrUnknownCommand = errors.New("unknown command")

// =============================================================================
// PARSE RESULT
// =============================================================================

// ParseResult is the outcome of parsing one line of user input.
type ParseResult struct {
	// IsCommand is true if the input starts with /
	IsCommand bool

	// Command is nil when the name is not registered.
	Command *Command

	// CommandName is the name as typed (e.g., "/p")
	CommandName string

	Args []string

	RawInput string

	// Error is ErrUnknownCommand or a *ValidationError.
	Error error
}

// Int returns argument i as an integer. ok is false when the argument is
// absent.
func (r ParseResult) Int(i int) (n int, ok bool) {
	if i >= len(r.Args) {
		return 0, false
	}
	n, err := strconv.Atoi(r.Args[i])
	return n, err == nil
}

// =============================================================================
// PARSER
// =============================================================================

// Parse parses input against the registry. Input that does not start with
// "/" is chat text and returns IsCommand=false.
func (r *Registry) Parse(input string) ParseResult {
	input = strings.TrimSpace(input)
	result := ParseResult{RawInput: input}

	if !strings.HasPrefix(input, "/") {
		return result
	}
	result.IsCommand = true

	parts := splitCommandLine(input)
	if len(parts) == 0 {
		result.Error = ErrUnknownCommand
		return result
	}
	result.CommandName = parts[0]
	result.Args = parts[1:]

	result.Command = r.Get(result.CommandName)
	if result.Command == nil {
		result.Error = fmt.Errorf("%w: %s", ErrUnknownCommand, result.CommandName)
		return result
	}
	if err := ValidateArgs(result.Command, result.Args); err != nil {
		result.Error = err
	}
	return result
}

// IsCommand reports whether input would be parsed as a command.
func IsCommand(input string) bool {
	return strings.HasPrefix(strings.TrimSpace(input), "/")
}

// splitCommandLine splits a command line into tokens. Single and double
// quotes group words; the quotes themselves are dropped.
func splitCommandLine(input string) []string {
	var tokens []string
	var current strings.Builder
	var quote rune
	inToken := false

	for _, ch := range input {
		switch {
		case quote != 0 && ch == quote:
			quote = 0
		case quote == 0 && (ch == '"' || ch == '\''):
			quote = ch
			inToken = true
		case quote == 0 && unicode.IsSpace(ch):
			if inToken {
				tokens = append(tokens, current.String())
				current.Reset()
				inToken = false
			}
		default:
			current.WriteRune(ch)
			inToken = true
		}
	}
	if inToken {
		tokens = append(tokens, current.String())
	}
	return tokens
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidateArgs checks args against cmd's argument definitions.
func ValidateArgs(cmd *Command, args []string) error {
	if cmd == nil {
		return nil
	}
	if len(args) > len(cmd.Args) {
		return &ValidationError{
			Command: cmd.Name,
			Message: "too many arguments",
			Got:     strings.Join(args[len(cmd.Args):], " "),
		}
	}

	for i, def := range cmd.Args {
		if i >= len(args) {
			if def.Required {
				return &ValidationError{
					Command:  cmd.Name,
					Arg:      def.Name,
					Message:  "required argument missing",
					Expected: def.Description,
				}
			}
			continue
		}

		switch def.Type {
		case ArgTypeInt:
			if n, err := strconv.Atoi(args[i]); err != nil || n < 1 {
				return &ValidationError{
					Command:  cmd.Name,
					Arg:      def.Name,
					Message:  "invalid value",
					Got:      args[i],
					Expected: "a positive number",
				}
			}
		case ArgTypeEnum:
			valid := false
			for _, v := range def.Values {
				if strings.EqualFold(args[i], v) {
					valid = true
					break
				}
			}
			if !valid {
				return &ValidationError{
					Command:  cmd.Name,
					Arg:      def.Name,
					Message:  "invalid value",
					Got:      args[i],
					Expected: strings.Join(def.Values, ", "),
				}
			}
		}
	}
	return nil
}

// ValidationError is an argument error.
type ValidationError struct {
	Command  string
	Arg      string
	Message  string
	Got      string
	Expected string
}

func (e *ValidationError) Error() string {
	msg := e.Command + ": " + e.Message
	if e.Arg != "" {
		msg += " for argument '" + e.Arg + "'"
	}
	if e.Got != "" {
		msg += " (got: " + e.Got + ")"
	}
	if e.Expected != "" {
		msg += ", expected " + e.Expected
	}
	return msg
}
