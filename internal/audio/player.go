// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package audio

import (
	"context"
	"fmt"
	"net/url"
	"os/exec"
	"sync"
	"time"

	"github.com/jeranaias/voicechat/internal/logger"
)

// =============================================================================
// INTERFACES
// =============================================================================

// Player starts playback of an audio URL.
type Player interface {
	Play(ctx context.Context, audioURL string) (Playback, error)
}

// Playback is one running playback instance.
type Playback interface {
	// Stop halts playback. Safe to call more than once and after the clip
	// has ended.
	Stop()
	// Done is closed when playback ends, naturally or through Stop.
	Done() <-chan struct{}
}

// =============================================================================
// COMMAND PLAYER
// =============================================================================

// CommandPlayer plays audio by running an external program with the
// location appended as its last argument (ffplay, mpv, afplay, aplay).
// file:// URLs are passed as local paths; http(s) URLs are passed as is.
type CommandPlayer struct {
	name string
	args []string
}

// NewCommandPlayer creates a player running name with args.
func NewCommandPlayer(name string, args ...string) *CommandPlayer {
	return &CommandPlayer{name: name, args: args}
}

// NewCommandPlayerFromString parses command with ParseCommand.
func NewCommandPlayerFromString(command string) (*CommandPlayer, error) {
	name, args, err := ParseCommand(command)
	if err != nil {
		return nil, err
	}
	return NewCommandPlayer(name, args...), nil
}

// Play implements Player.
func (p *CommandPlayer) Play(ctx context.Context, audioURL string) (Playback, error) {
	location, err := playerLocation(audioURL)
	if err != nil {
		return nil, err
	}

	args := append(append([]string(nil), p.args...), location)
	cmd := exec.Command(p.name, args...)
	cmd.WaitDelay = 500 * time.Millisecond
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start player: %w", err)
	}

	pb := &commandPlayback{cmd: cmd, done: make(chan struct{})}
	go func() {
		err := cmd.Wait()
		if err != nil && !pb.stopped() {
			logger.L.Warn("player exited with error", "url", audioURL, "error", err)
		}
		close(pb.done)
	}()

	logger.L.Debug("playback started", "url", audioURL, "pid", cmd.Process.Pid)
	return pb, nil
}

func playerLocation(audioURL string) (string, error) {
	u, err := url.Parse(audioURL)
	if err != nil {
		return "", fmt.Errorf("parse audio url: %w", err)
	}
	switch u.Scheme {
	case "file":
		return LocalPath(audioURL)
	case "http", "https":
		return audioURL, nil
	case "":
		// Plain paths are accepted for local use.
		return audioURL, nil
	default:
		return "", fmt.Errorf("unsupported audio url scheme %q", u.Scheme)
	}
}

type commandPlayback struct {
	cmd  *exec.Cmd
	done chan struct{}

	mu     sync.Mutex
	halted bool
}

func (p *commandPlayback) stopped() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.halted
}

// Stop implements Playback.
func (p *commandPlayback) Stop() {
	p.mu.Lock()
	already := p.halted
	p.halted = true
	p.mu.Unlock()

	if !already {
		select {
		case <-p.done:
			return
		default:
		}
		p.cmd.Process.Kill()
	}
	<-p.done
}

// Done implements Playback.
func (p *commandPlayback) Done() <-chan struct{} {
	return p.done
}
