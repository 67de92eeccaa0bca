// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package audio provides microphone capture, clip storage and playback.
package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/jeranaias/voicechat/internal/logger"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrPermissionDenied means the microphone could not be opened.
	ErrPermissionDenied = errors.New("microphone access denied")

	// ErrEmptyCommand is returned for a blank recorder or player command.
	ErrEmptyCommand = errors.New("empty audio command")
)

// =============================================================================
// INTERFACES
// =============================================================================

// Recorder opens the microphone.
type Recorder interface {
	// Start begins capturing. A failure to acquire the device is reported
	// as ErrPermissionDenied.
	Start(ctx context.Context) (Capture, error)
}

// Capture is an open microphone stream accumulating chunks.
type Capture interface {
	// Stop finalizes the accumulated chunks into one clip and releases the
	// device. The device is released even when an error is returned.
	Stop() ([]byte, error)
	// Abort releases the device and discards the audio.
	Abort()
}

// =============================================================================
// COMMAND RECORDER
// =============================================================================

// startupGrace is how long Start waits for an immediate failure, such as a
// busy or missing device.
var startupGrace = 150 * time.Millisecond

const (
	// stopTimeout bounds how long Stop waits for the recorder to flush
	// after being interrupted.
	stopTimeout = 2 * time.Second
)

// CommandRecorder captures audio by running an external program that
// writes a WAV stream to stdout until interrupted (arecord, sox, ffmpeg).
type CommandRecorder struct {
	name string
	args []string
}

// NewCommandRecorder creates a recorder running name with args.
func NewCommandRecorder(name string, args ...string) *CommandRecorder {
	return &CommandRecorder{name: name, args: args}
}

// ParseCommand splits a configured command line on whitespace. Quoting is
// not supported.
func ParseCommand(command string) (string, []string, error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return "", nil, ErrEmptyCommand
	}
	return fields[0], fields[1:], nil
}

// NewCommandRecorderFromString parses command with ParseCommand.
func NewCommandRecorderFromString(command string) (*CommandRecorder, error) {
	name, args, err := ParseCommand(command)
	if err != nil {
		return nil, err
	}
	return NewCommandRecorder(name, args...), nil
}

// Start implements Recorder.
func (r *CommandRecorder) Start(ctx context.Context) (Capture, error) {
	c := &commandCapture{exited: make(chan struct{})}

	cmd := exec.Command(r.name, r.args...)
	var stderr bytes.Buffer
	cmd.Stdout = &chunkWriter{c: c}
	cmd.Stderr = &stderr
	// Children that inherit stdout must not hold Wait open forever.
	cmd.WaitDelay = 500 * time.Millisecond
	c.cmd = cmd

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	}
	go func() {
		c.waitErr = cmd.Wait()
		close(c.exited)
	}()

	// A recorder that dies immediately never had the device.
	select {
	case <-c.exited:
		if c.waitErr != nil {
			return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, firstLine(stderr.String(), c.waitErr))
		}
	case <-time.After(startupGrace):
	case <-ctx.Done():
		c.Abort()
		return nil, ctx.Err()
	}

	logger.L.Debug("recording started", "command", r.name, "pid", cmd.Process.Pid)
	return c, nil
}

func firstLine(stderr string, fallback error) string {
	line, _, _ := strings.Cut(strings.TrimSpace(stderr), "\n")
	if line == "" {
		return fallback.Error()
	}
	return line
}

// commandCapture accumulates stdout chunks of a running recorder.
type commandCapture struct {
	cmd *exec.Cmd

	mu     sync.Mutex
	chunks [][]byte

	exited  chan struct{}
	waitErr error

	stopOnce sync.Once
}

// chunkWriter receives the recorder's stdout, one chunk per write.
type chunkWriter struct {
	c *commandCapture
}

func (w *chunkWriter) Write(p []byte) (int, error) {
	chunk := make([]byte, len(p))
	copy(chunk, p)
	w.c.mu.Lock()
	w.c.chunks = append(w.c.chunks, chunk)
	w.c.mu.Unlock()
	return len(p), nil
}

// release interrupts the recorder, giving it stopTimeout to flush before
// it is killed. It returns once stdout has been fully copied.
func (c *commandCapture) release() {
	c.stopOnce.Do(func() {
		select {
		case <-c.exited:
			return
		default:
		}
		if err := c.cmd.Process.Signal(os.Interrupt); err != nil {
			c.cmd.Process.Kill()
		}
		select {
		case <-c.exited:
		case <-time.After(stopTimeout):
			logger.L.Warn("recorder did not exit after interrupt; killing", "pid", c.cmd.Process.Pid)
			c.cmd.Process.Kill()
			<-c.exited
		}
	})
}

// Stop implements Capture.
func (c *commandCapture) Stop() ([]byte, error) {
	c.release()

	c.mu.Lock()
	defer c.mu.Unlock()
	clip := bytes.Join(c.chunks, nil)
	c.chunks = nil
	return clip, nil
}

// Abort implements Capture.
func (c *commandCapture) Abort() {
	c.release()
	c.mu.Lock()
	c.chunks = nil
	c.mu.Unlock()
}
