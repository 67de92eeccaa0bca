// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package controller

import (
	"context"
	"errors"
	"fmt"

	"github.com/jeranaias/voicechat/internal/audio"
	"github.com/jeranaias/voicechat/internal/logger"
	"github.com/jeranaias/voicechat/internal/model"
)

// =============================================================================
// VOICE CHAT
// =============================================================================

// StartRecording opens the microphone. When it cannot be opened the inline
// error is set to PermissionDeniedText, no message is appended and the
// error wraps ErrPermissionDenied.
func (c *Controller) StartRecording(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if s := c.state(); s != StateIdle {
		c.mu.Unlock()
		return busy(s)
	}
	c.fire(triggerStartRecording)
	rec := &recording{}
	c.rec = rec
	c.errText = ""
	c.mu.Unlock()
	c.publish(Event{Type: EventStateChanged})

	var capture audio.Capture
	err := ErrPermissionDenied
	if c.recorder != nil {
		capture, err = c.recorder.Start(ctx)
	}

	c.mu.Lock()
	if c.rec != rec {
		// Reset or closed while the device was opening.
		c.mu.Unlock()
		if capture != nil {
			capture.Abort()
		}
		return ErrStaleSession
	}
	if err != nil {
		c.rec = nil
		c.errText = PermissionDeniedText
		c.fire(triggerAbortRecording)
		c.mu.Unlock()

		logger.L.Warn("microphone unavailable", "error", err)
		c.publish(Event{Type: EventError})
		c.publish(Event{Type: EventStateChanged})
		if errors.Is(err, ErrPermissionDenied) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrPermissionDenied, err)
	}

	rec.capture = capture
	var placeholder model.Message
	if c.placeholder {
		placeholder = model.NewUserMessage(RecordingPlaceholderText)
		placeholder.Transient = true
		rec.placeholderID = placeholder.ID
		c.log.Append(placeholder)
	}
	c.mu.Unlock()

	if placeholder.ID != "" {
		c.publish(Event{Type: EventMessageAppended, MessageID: placeholder.ID})
	}
	return nil
}

// StopRecording finalizes the capture into one clip, releases the
// microphone and submits the clip. On success the transcript is appended
// as a user message referencing the stored clip, followed by the reply
// with its resolved audio. On failure the inline error is set and
// FallbackReply is appended. An empty clip is still submitted.
func (c *Controller) StopRecording(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	rec := c.rec
	if c.state() != StateRecording || rec == nil {
		c.mu.Unlock()
		return ErrNotRecording
	}
	if rec.capture == nil {
		// Still opening the device.
		c.mu.Unlock()
		return ErrBusy
	}
	c.rec = nil
	removed := rec.placeholderID != "" && c.log.RemoveByID(rec.placeholderID)
	c.fire(triggerStopRecording)
	t := c.ticket()
	c.mu.Unlock()

	if removed {
		c.publish(Event{Type: EventMessageRemoved, MessageID: rec.placeholderID})
	}
	c.publish(Event{Type: EventStateChanged})

	clip, err := rec.capture.Stop()
	if err != nil {
		logger.L.Warn("finalizing recording failed", "error", err)
	}

	logger.L.Debug("submitting recording", "bytes", len(clip), "session_id", t.SessionID)
	reply, err := c.backend.SendAudio(ctx, clip, t.SessionID, t.UserID)
	if err != nil {
		logger.L.Warn("voice chat failed", "session_id", t.SessionID, "error", err)
		if cerr := c.complete(t, AudioFailureText, model.NewBotMessage(FallbackReply)); cerr != nil {
			return cerr
		}
		return fmt.Errorf("%w: %w", ErrNetworkFailure, err)
	}

	// The clip is kept only once it belongs to a transcript message.
	clipURL := c.saveClip(clip)
	err = c.complete(t, "",
		model.NewUserMessage(reply.Transcript).WithAudio(clipURL),
		model.NewBotMessage(reply.Message).WithAudio(reply.AudioURL),
	)
	if err != nil && clipURL != "" {
		if rerr := c.clips.Remove(clipURL); rerr != nil {
			logger.L.Warn("failed to remove discarded clip", "url", clipURL, "error", rerr)
		}
	}
	return err
}

func (c *Controller) saveClip(clip []byte) string {
	if c.clips == nil {
		return ""
	}
	clipURL, err := c.clips.Save(clip)
	if err != nil {
		logger.L.Warn("failed to store recorded clip", "error", err)
		return ""
	}
	return clipURL
}

// CancelRecording aborts an open recording without submitting it.
func (c *Controller) CancelRecording() error {
	c.mu.Lock()
	rec := c.rec
	if c.state() != StateRecording || rec == nil || rec.capture == nil {
		c.mu.Unlock()
		return ErrNotRecording
	}
	c.rec = nil
	removed := rec.placeholderID != "" && c.log.RemoveByID(rec.placeholderID)
	c.fire(triggerAbortRecording)
	c.mu.Unlock()

	rec.capture.Abort()
	if removed {
		c.publish(Event{Type: EventMessageRemoved, MessageID: rec.placeholderID})
	}
	c.publish(Event{Type: EventStateChanged})
	return nil
}

// ToggleRecording starts a recording when idle and stops it when recording.
func (c *Controller) ToggleRecording(ctx context.Context) error {
	if c.State() == StateRecording {
		return c.StopRecording(ctx)
	}
	return c.StartRecording(ctx)
}
