// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package controller implements the conversation controller: the message
// log and its synchronization with the backend, the microphone and audio
// playback.
//
// # States
//
//	Idle -> AwaitingResponse -> Idle            (SendText)
//	Idle -> Recording -> AwaitingResponse -> Idle (StartRecording, StopRecording)
//
// Only one round trip is in flight at a time; actions that need the
// controller idle return ErrBusy. Resets are always accepted: they abort
// an open recording, stop playback and move back to Idle. A response that
// arrives after a reset is discarded.
//
// # Front ends
//
// Operations block until their I/O finishes, so front ends run them off
// the UI goroutine and re-render from Snapshot whenever Events delivers a
// notification.
package controller
