package supervisor

import (
	"fmt"
	"time"
)

// ControlEvent is a lifecycle request delivered by the platform bridge.
// Events are consumed exactly once, in delivery order.
type ControlEvent int

const (
	ControlStop ControlEvent = iota
	ControlPause
	ControlContinue
)

func (c ControlEvent) String() string {
	switch c {
	case ControlStop:
		return "stop"
	case ControlPause:
		return "pause"
	case ControlContinue:
		return "continue"
	default:
		return fmt.Sprintf("control(%d)", int(c))
	}
}

// State is the lifecycle state reported to the service control manager.
// Transitions are monotonic within a run: StartPending, Running,
// StopPending, Stopped. No state is re-entered.
type State int

const (
	StateStartPending State = iota
	StateRunning
	StateStopPending
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateStartPending:
		return "start-pending"
	case StateRunning:
		return "running"
	case StateStopPending:
		return "stop-pending"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Accepted is the set of controls a status report advertises.
type Accepted uint32

const (
	AcceptStop Accepted = 1 << iota
	AcceptPauseContinue
)

// Status is one report to the service control manager. Each report
// supersedes the previous one; WaitHint bounds how long the manager
// should wait in a pending state before assuming failure.
type Status struct {
	State      State
	Accepts    Accepted
	CheckPoint uint32
	WaitHint   time.Duration
	PID        int
}

// StatusReporter delivers status reports to the service control
// manager. The run loop issues reports sequentially, never
// concurrently.
type StatusReporter interface {
	Report(Status) error
}
