// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package controller

import "errors"

// Sentinel errors returned by Controller operations. Check with errors.Is.
var (
	// ErrEmptyInput is returned by SendText for blank queries. Callers
	// treat it as a no-op.
	ErrEmptyInput = errors.New("empty input")

	// ErrPermissionDenied means the microphone could not be opened.
	ErrPermissionDenied = errors.New("microphone permission denied")

	// ErrNetworkFailure wraps every failed backend round trip: transport
	// errors, timeouts, non-2xx statuses and undecodable bodies.
	ErrNetworkFailure = errors.New("network failure")

	// ErrBusy is returned when an action needs the controller idle.
	ErrBusy = errors.New("controller busy")

	ErrNotRecording     = errors.New("not recording")
	ErrAlreadyRecording = errors.New("already recording")

	ErrUnknownMessage = errors.New("unknown message")
	ErrNoAudio        = errors.New("message has no audio")

	// ErrStaleSession is returned when a response arrives after the session
	// it was issued under has been reset. The response is dropped.
	ErrStaleSession = errors.New("session changed while awaiting response")

	ErrClosed = errors.New("controller closed")
)

// Fixed user-facing texts.
const (
	FallbackReply = "Sorry, something went wrong."

	PermissionDeniedText = "Microphone access denied. Please allow microphone permissions."
	AudioFailureText     = "Error processing audio. Please check if backend is running and try again."

	SessionResetText = "Session reset. Start a new conversation!"
	UserResetText    = "User and session reset. Welcome back!"

	RecordingPlaceholderText = "🎤 Recording audio…"
)
