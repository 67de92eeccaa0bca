// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jeranaias/voicechat/internal/backend"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	ExitSuccess      = 0
	ExitGeneralError = 1
	ExitUsageError   = 2
	ExitConfigError  = 3
	ExitNetworkError = 5
)

// ExitCode maps err onto a process exit code.
func ExitCode(err error) int {
	var cfgErr *ConfigError
	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &cfgErr):
		return ExitConfigError
	case errors.Is(err, backend.ErrConnection),
		errors.Is(err, backend.ErrTimeout),
		errors.Is(err, backend.ErrStatus),
		errors.Is(err, backend.ErrInvalidResponse):
		return ExitNetworkError
	case errors.Is(err, errUsage):
		return ExitUsageError
	default:
		return ExitGeneralError
	}
}

var errUsage = errors.New("usage")

// usageError marks err as a command-line mistake.
func usageError(err error) error {
	return fmt.Errorf("%w: %w", errUsage, err)
}

// ConfigError is a failure to load or validate configuration.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string { return "config: " + e.Err.Error() }
func (e *ConfigError) Unwrap() error { return e.Err }

// =============================================================================
// JSON OUTPUT
// =============================================================================

// JSONResponse is the envelope for --json output.
type JSONResponse struct {
	Success   bool    `json:"success"`
	Command   string  `json:"command"`
	Data      any     `json:"data"`
	Error     *string `json:"error"`
	Timestamp string  `json:"timestamp"`
}

// NewJSONResponse wraps data for command. A non-nil err marks it failed.
func NewJSONResponse(command string, data any, err error) *JSONResponse {
	r := &JSONResponse{
		Success:   err == nil,
		Command:   command,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if err != nil {
		msg := err.Error()
		r.Error = &msg
	}
	return r
}

// Write encodes the response, indented, to w.
func (r *JSONResponse) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// =============================================================================
// MESSAGES
// =============================================================================

func printWarning(msg string) {
	fmt.Fprintln(os.Stderr, WarningStyle.Render("warning: ")+msg)
}

func printError(err error) {
	fmt.Fprintln(os.Stderr, ErrorStyle.Render("error: ")+err.Error())
}
