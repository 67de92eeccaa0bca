// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package controller

import (
	"github.com/qmuntal/stateless"
)

// State is a controller state.
type State string

const (
	StateIdle             State = "Idle"
	StateRecording        State = "Recording"
	StateAwaitingResponse State = "AwaitingResponse"
)

type trigger string

const (
	triggerSend           trigger = "Send"
	triggerStartRecording trigger = "StartRecording"
	triggerStopRecording  trigger = "StopRecording"
	triggerAbortRecording trigger = "AbortRecording"
	triggerResponse       trigger = "Response"
	triggerReset          trigger = "Reset"
)

// newMachine builds the controller state machine.
//
//	Idle             --Send-----------> AwaitingResponse
//	Idle             --StartRecording-> Recording
//	Recording        --StopRecording--> AwaitingResponse
//	Recording        --Abort/Reset----> Idle
//	AwaitingResponse --Response/Reset-> Idle
//
// Composing is not a machine state; it is the input buffer being non-empty
// while Idle.
func newMachine() *stateless.StateMachine {
	sm := stateless.NewStateMachine(StateIdle)

	sm.Configure(StateIdle).
		Permit(triggerSend, StateAwaitingResponse).
		Permit(triggerStartRecording, StateRecording).
		Ignore(triggerReset)

	sm.Configure(StateRecording).
		Permit(triggerStopRecording, StateAwaitingResponse).
		Permit(triggerAbortRecording, StateIdle).
		Permit(triggerReset, StateIdle)

	sm.Configure(StateAwaitingResponse).
		Permit(triggerResponse, StateIdle).
		Permit(triggerReset, StateIdle)

	return sm
}
