// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package controller

import (
	"context"
	"errors"
	"fmt"

	"github.com/jeranaias/voicechat/internal/logger"
)

// =============================================================================
// PLAYBACK
// =============================================================================

// PlayToggle stops messageID if it is playing. Otherwise it stops whatever
// is playing and plays messageID from the beginning. Playback state clears
// by itself when the clip ends.
func (c *Controller) PlayToggle(ctx context.Context, messageID string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	msg, ok := c.log.Get(messageID)
	if !ok {
		c.mu.Unlock()
		return ErrUnknownMessage
	}
	if !msg.HasAudio() {
		c.mu.Unlock()
		return ErrNoAudio
	}
	epoch := c.epoch
	prev := c.playing
	c.playing = nil
	c.mu.Unlock()

	if prev != nil {
		prev.playback.Stop()
		if prev.messageID == messageID {
			c.publish(Event{Type: EventPlaybackStopped, MessageID: messageID})
			return nil
		}
		c.publish(Event{Type: EventPlaybackStopped, MessageID: prev.messageID})
	}

	if c.player == nil {
		return errors.New("no audio player configured")
	}
	pb, err := c.player.Play(ctx, msg.AudioURL)
	if err != nil {
		logger.L.Warn("playback failed", "message_id", messageID, "url", msg.AudioURL, "error", err)
		return fmt.Errorf("play %s: %w", messageID, err)
	}

	active := &activePlayback{messageID: messageID, playback: pb}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		pb.Stop()
		return ErrClosed
	}
	if _, still := c.log.Get(messageID); c.epoch != epoch || !still {
		c.mu.Unlock()
		pb.Stop()
		logger.L.Debug("playback discarded after reset", "message_id", messageID)
		return ErrStaleSession
	}
	displaced := c.playing
	c.playing = active
	c.mu.Unlock()

	if displaced != nil {
		displaced.playback.Stop()
		c.publish(Event{Type: EventPlaybackStopped, MessageID: displaced.messageID})
	}
	c.publish(Event{Type: EventPlaybackStarted, MessageID: messageID})

	go c.watchPlayback(active)
	return nil
}

// PlayLatest toggles the most recent message carrying audio.
func (c *Controller) PlayLatest(ctx context.Context) error {
	c.mu.Lock()
	msg, ok := c.log.LastWithAudio()
	c.mu.Unlock()
	if !ok {
		return ErrNoAudio
	}
	return c.PlayToggle(ctx, msg.ID)
}

// watchPlayback clears the playback state when the clip ends on its own.
func (c *Controller) watchPlayback(active *activePlayback) {
	<-active.playback.Done()

	c.mu.Lock()
	ended := c.playing == active
	if ended {
		c.playing = nil
	}
	c.mu.Unlock()

	if ended {
		c.publish(Event{Type: EventPlaybackEnded, MessageID: active.messageID})
	}
}

// StopPlayback stops whatever is playing.
func (c *Controller) StopPlayback() {
	c.mu.Lock()
	prev := c.playing
	c.playing = nil
	c.mu.Unlock()

	if prev != nil {
		prev.playback.Stop()
		c.publish(Event{Type: EventPlaybackStopped, MessageID: prev.messageID})
	}
}
