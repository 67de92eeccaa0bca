// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package controller

import "github.com/jeranaias/voicechat/internal/logger"

// EventType identifies what changed.
type EventType int

const (
	EventStateChanged EventType = iota
	EventMessageAppended
	EventMessageRemoved
	EventReset
	EventInputChanged
	EventError
	EventPlaybackStarted
	EventPlaybackStopped
	// EventPlaybackEnded is published when a clip finishes on its own.
	EventPlaybackEnded
)

func (t EventType) String() string {
	switch t {
	case EventStateChanged:
		return "state_changed"
	case EventMessageAppended:
		return "message_appended"
	case EventMessageRemoved:
		return "message_removed"
	case EventReset:
		return "reset"
	case EventInputChanged:
		return "input_changed"
	case EventError:
		return "error"
	case EventPlaybackStarted:
		return "playback_started"
	case EventPlaybackStopped:
		return "playback_stopped"
	case EventPlaybackEnded:
		return "playback_ended"
	default:
		return "unknown"
	}
}

// Event notifies front ends that the snapshot changed.
type Event struct {
	Type      EventType
	MessageID string
}

// Events returns the notification channel. Front ends re-read Snapshot on
// each event. Events are dropped when the buffer is full, so consumers
// must not rely on receiving every one.
func (c *Controller) Events() <-chan Event {
	return c.events
}

func (c *Controller) publish(ev Event) {
	select {
	case c.events <- ev:
	default:
		logger.L.Debug("event dropped", "type", ev.Type.String())
	}
}
