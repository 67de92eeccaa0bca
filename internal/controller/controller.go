// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/qmuntal/stateless"
	"golang.org/x/text/unicode/norm"

	"github.com/jeranaias/voicechat/internal/audio"
	"github.com/jeranaias/voicechat/internal/backend"
	"github.com/jeranaias/voicechat/internal/identity"
	"github.com/jeranaias/voicechat/internal/logger"
	"github.com/jeranaias/voicechat/internal/model"
	"github.com/jeranaias/voicechat/internal/storage"
)

// =============================================================================
// COLLABORATORS
// =============================================================================

// Backend is the chat backend as seen by the controller.
type Backend interface {
	SendText(ctx context.Context, query, sessionID, userID string) (string, error)
	SendAudio(ctx context.Context, clip []byte, sessionID, userID string) (*backend.AudioReply, error)
}

// ClipSaver stores recorded clips and returns a playable reference.
// Remove deletes a clip saved earlier.
type ClipSaver interface {
	Save(clip []byte) (string, error)
	Remove(ref string) error
}

// Config wires a Controller to its collaborators.
type Config struct {
	// Backend and Identity are required.
	Backend  Backend
	Identity *identity.Store

	Recorder audio.Recorder
	Player   audio.Player

	// Clips stores recorded clips so user voice messages can be replayed.
	// Without it user voice messages carry no audio.
	Clips ClipSaver

	// History receives every appended message.
	History storage.History

	// RecordingPlaceholder shows a transient user message while recording.
	RecordingPlaceholder bool

	// EventBuffer sizes the event channel (default 64).
	EventBuffer int
}

// =============================================================================
// CONTROLLER
// =============================================================================

// recording is an open microphone capture.
type recording struct {
	capture       audio.Capture
	placeholderID string
}

// activePlayback is the message currently playing.
type activePlayback struct {
	messageID string
	playback  audio.Playback
}

// Controller owns the conversation: the message log, the identity, the
// recording and the playback state.
//
// Every method is safe for concurrent use. Methods that talk to the
// backend or to audio devices block until done; the internal lock is never
// held across that I/O.
type Controller struct {
	backend  Backend
	ids      *identity.Store
	recorder audio.Recorder
	player   audio.Player
	clips    ClipSaver
	history  storage.History

	placeholder bool

	mu      sync.Mutex
	sm      *stateless.StateMachine
	log     *model.Log
	input   string
	errText string
	rec     *recording
	playing *activePlayback
	closed  bool
	// epoch counts resets; a round trip completes only in the epoch it
	// started in.
	epoch  uint64
	events chan Event
}

// ticket identifies the conversation a round trip was issued in.
type ticket struct {
	identity.Identity
	epoch uint64
}

// New creates a Controller. The identity is loaded from storage if it has
// not been already; a storage failure is logged and the in-memory identity
// is used.
func New(cfg Config) (*Controller, error) {
	if cfg.Backend == nil {
		return nil, errors.New("controller: backend is required")
	}
	if cfg.Identity == nil {
		return nil, errors.New("controller: identity store is required")
	}
	if !cfg.Identity.Current().Valid() {
		if _, err := cfg.Identity.Load(); err != nil {
			logger.L.Warn("identity not persisted", "error", err)
		}
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = 64
	}

	return &Controller{
		backend:     cfg.Backend,
		ids:         cfg.Identity,
		recorder:    cfg.Recorder,
		player:      cfg.Player,
		clips:       cfg.Clips,
		history:     cfg.History,
		placeholder: cfg.RecordingPlaceholder,
		sm:          newMachine(),
		log:         model.NewLog(),
		events:      make(chan Event, cfg.EventBuffer),
	}, nil
}

// state returns the current machine state. Caller holds c.mu.
func (c *Controller) state() State {
	return c.sm.MustState().(State)
}

// fire moves the machine. Caller holds c.mu and has checked the
// precondition, so a refusal is a programming error and is only logged.
func (c *Controller) fire(t trigger) {
	if err := c.sm.Fire(t); err != nil {
		logger.L.Error("invalid state transition", "trigger", t, "state", c.state(), "error", err)
	}
}

// busy maps a non-idle state onto the error returned to callers.
func busy(s State) error {
	if s == StateRecording {
		return ErrAlreadyRecording
	}
	return ErrBusy
}

// =============================================================================
// SNAPSHOT / INPUT
// =============================================================================

// Snapshot is a consistent copy of the controller state for rendering.
type Snapshot struct {
	State     State
	Messages  []model.Message
	Identity  identity.Identity
	PlayingID string
	Input     string
	// Error is the inline error string, empty when there is none.
	Error string
}

// Loading reports whether a backend round trip is pending.
func (s Snapshot) Loading() bool { return s.State == StateAwaitingResponse }

// Recording reports whether the microphone is open.
func (s Snapshot) Recording() bool { return s.State == StateRecording }

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		State:    c.state(),
		Messages: c.log.Messages(),
		Identity: c.ids.Current(),
		Input:    c.input,
		Error:    c.errText,
	}
	if c.playing != nil {
		snap.PlayingID = c.playing.messageID
	}
	return snap
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state()
}

// SetInput replaces the input buffer.
func (c *Controller) SetInput(text string) {
	c.mu.Lock()
	c.input = text
	c.mu.Unlock()
	c.publish(Event{Type: EventInputChanged})
}

// Input returns the input buffer.
func (c *Controller) Input() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.input
}

// ClearError dismisses the inline error string.
func (c *Controller) ClearError() {
	c.mu.Lock()
	c.errText = ""
	c.mu.Unlock()
	c.publish(Event{Type: EventError})
}

// =============================================================================
// TEXT CHAT
// =============================================================================

// normalizeQuery trims and NFC-normalizes user input.
func normalizeQuery(query string) string {
	return norm.NFC.String(strings.TrimSpace(query))
}

// SendText sends query to the backend. It appends the user message and
// clears the input buffer before the request, then appends the reply, or
// FallbackReply when the request fails. Blank queries return ErrEmptyInput
// without any state change.
func (c *Controller) SendText(ctx context.Context, query string) error {
	text := normalizeQuery(query)
	if text == "" {
		return ErrEmptyInput
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.state() != StateIdle {
		c.mu.Unlock()
		return ErrBusy
	}
	c.fire(triggerSend)
	t := c.ticket()
	id := t.Identity
	userMsg := model.NewUserMessage(text)
	c.log.Append(userMsg)
	c.input = ""
	c.errText = ""
	c.mu.Unlock()

	c.persist(ctx, id, userMsg)
	c.publish(Event{Type: EventMessageAppended, MessageID: userMsg.ID})
	c.publish(Event{Type: EventStateChanged})

	reply, err := c.backend.SendText(ctx, text, id.SessionID, id.UserID)

	if err != nil {
		logger.L.Warn("text chat failed", "session_id", id.SessionID, "error", err)
		reply = FallbackReply
	}
	if cerr := c.complete(t, "", model.NewBotMessage(reply)); cerr != nil {
		return cerr
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNetworkFailure, err)
	}
	return nil
}

// complete finishes a round trip issued under id: it appends msgs, sets
// the inline error string and returns to Idle. When the session has been
// reset in the meantime nothing changes and ErrStaleSession is returned.
func (c *Controller) complete(t ticket, errText string, msgs ...model.Message) error {
	id := t.Identity
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.ids.Current().SessionID != id.SessionID || c.epoch != t.epoch {
		c.mu.Unlock()
		logger.L.Info("discarding response for stale session", "session_id", id.SessionID)
		return ErrStaleSession
	}
	for _, m := range msgs {
		c.log.Append(m)
	}
	c.errText = errText
	c.fire(triggerResponse)
	c.mu.Unlock()

	c.persist(context.Background(), id, msgs...)
	for _, m := range msgs {
		c.publish(Event{Type: EventMessageAppended, MessageID: m.ID})
	}
	if errText != "" {
		c.publish(Event{Type: EventError})
	}
	c.publish(Event{Type: EventStateChanged})
	return nil
}

// ticket captures the current conversation. Caller holds c.mu.
func (c *Controller) ticket() ticket {
	return ticket{Identity: c.ids.Current(), epoch: c.epoch}
}

// persist writes msgs to the transcript history. Failures are logged.
func (c *Controller) persist(ctx context.Context, id identity.Identity, msgs ...model.Message) {
	if c.history == nil {
		return
	}
	for _, m := range msgs {
		if m.Transient {
			continue
		}
		if err := c.history.SaveMessage(ctx, storage.EntryFromMessage(id.SessionID, id.UserID, m)); err != nil {
			logger.L.Warn("failed to save message", "message_id", m.ID, "error", err)
		}
	}
}

// =============================================================================
// RESET
// =============================================================================

// ResetSession starts a new session: a new session id, an empty log with
// a single confirmation message. The user id is unchanged. An open
// recording is aborted and playback stops.
func (c *Controller) ResetSession() error {
	id, err := c.ids.ResetSession()
	c.reset(id, SessionResetText)
	if err != nil {
		return fmt.Errorf("reset session: %w", err)
	}
	return nil
}

// ResetUser starts over as a new user with a new session.
func (c *Controller) ResetUser() error {
	id, err := c.ids.ResetUser()
	c.reset(id, UserResetText)
	if err != nil {
		return fmt.Errorf("reset user: %w", err)
	}
	return nil
}

func (c *Controller) reset(id identity.Identity, confirmation string) {
	msg := model.NewBotMessage(confirmation)

	c.mu.Lock()
	rec := c.rec
	c.rec = nil
	pb := c.playing
	c.playing = nil
	c.fire(triggerReset)
	c.epoch++
	c.log.Clear()
	c.log.Append(msg)
	c.errText = ""
	c.mu.Unlock()

	if rec != nil && rec.capture != nil {
		rec.capture.Abort()
	}
	if pb != nil {
		pb.playback.Stop()
	}

	logger.L.Info("conversation reset", "session_id", id.SessionID, "user_id", id.UserID)
	c.persist(context.Background(), id, msg)
	c.publish(Event{Type: EventReset})
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// Close aborts any recording and stops playback. Later operations return
// ErrClosed.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	rec := c.rec
	c.rec = nil
	pb := c.playing
	c.playing = nil
	c.mu.Unlock()

	if rec != nil && rec.capture != nil {
		rec.capture.Abort()
	}
	if pb != nil {
		pb.playback.Stop()
	}
	return nil
}
