// Copyright © 2021-2025 The Gomon Project.

package monitor

import (
	"context"

	"github.com/looplab/fsm"
)

type (
	// Outcome identifies why a session stopped.
	Outcome string
)

const (
	// session states
	stateStarting = "starting"
	stateRunning  = "running"

	// session events
	eventRun    = "run"
	eventExit   = "exit"
	eventDeny   = "deny"
	eventCancel = "cancel"
)

const (
	// Exited reports that the process ended, whether it exited or was killed.
	Exited Outcome = "exited"
	// Denied reports that the process' memory counters could not be read.
	Denied Outcome = "denied"
	// Cancelled reports that the operator stopped monitoring.
	Cancelled Outcome = "cancelled"
)

// String formats an outcome to comply with the fmt.Stringer interface.
func (o Outcome) String() string {
	return string(o)
}

// newMachine defines the session lifecycle. Each stopped state is named for its Outcome.
func newMachine(callbacks fsm.Callbacks) *fsm.FSM {
	return fsm.NewFSM(
		stateStarting,
		fsm.Events{
			{Name: eventRun, Src: []string{stateStarting}, Dst: stateRunning},
			{Name: eventExit, Src: []string{stateRunning}, Dst: string(Exited)},
			{Name: eventDeny, Src: []string{stateRunning}, Dst: string(Denied)},
			{Name: eventCancel, Src: []string{stateRunning}, Dst: string(Cancelled)},
		},
		callbacks,
	)
}

// transition moves the machine to the next state. Cancellation of the session's context must
// not abort the transition into the cancelled state.
func (s *Session) transition(ctx context.Context, event string) {
	if err := s.fsm.Event(context.WithoutCancel(ctx), event); err != nil {
		panic(err) // the loop only fires valid events
	}
}
