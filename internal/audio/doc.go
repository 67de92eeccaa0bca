// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package audio provides microphone capture, clip storage and playback.
//
// Capture and playback are delegated to external programs configured by
// the user, so the package works anywhere a command-line recorder and
// player exist:
//
//	recorder_command = "arecord -q -f S16_LE -r 16000 -c 1 -t wav -"
//	player_command   = "ffplay -nodisp -autoexit -loglevel quiet"
//
// # Key Types
//
//   - Recorder / Capture: open the microphone, accumulate chunks, finalize
//     them into one clip
//   - Player / Playback: play a file:// or http(s):// URL, signal the end
//   - ClipStore: persist recorded clips and return file:// references
//
// A recorder that cannot be started, or exits immediately, is reported as
// ErrPermissionDenied.
package audio
