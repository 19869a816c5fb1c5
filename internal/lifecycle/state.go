// Package lifecycle implements the service status state machine and the
// handshake between the SCM control thread and the hosted workload.
//
// Nothing in this package talks to the operating system directly. The OS
// "register control handler" and "set service status" calls reach it through
// Registrar and StatusSink, which internal/service binds to the Windows SCM.
package lifecycle

import (
	"fmt"
	"math"
	"time"
)

// State is a service lifecycle state. Values match the SCM's SERVICE_* constants.
type State uint32

const (
	Stopped         State = 1
	StartPending    State = 2
	StopPending     State = 3
	Running         State = 4
	ContinuePending State = 5
	PausePending    State = 6
	Paused          State = 7
)

var stateNames = map[State]string{
	Stopped:         "STOPPED",
	StartPending:    "START_PENDING",
	StopPending:     "STOP_PENDING",
	Running:         "RUNNING",
	ContinuePending: "CONTINUE_PENDING",
	PausePending:    "PAUSE_PENDING",
	Paused:          "PAUSED",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("STATE(%d)", uint32(s))
}

// resetsCheckPoint reports whether entering s clears the checkpoint counter.
func (s State) resetsCheckPoint() bool {
	return s == Running || s == Stopped
}

// Cmd is a control code delivered by the SCM.
type Cmd uint32

const (
	Stop        Cmd = 1
	Pause       Cmd = 2
	Continue    Cmd = 3
	Interrogate Cmd = 4
	Shutdown    Cmd = 5
)

func (c Cmd) String() string {
	switch c {
	case Stop:
		return "STOP"
	case Pause:
		return "PAUSE"
	case Continue:
		return "CONTINUE"
	case Interrogate:
		return "INTERROGATE"
	case Shutdown:
		return "SHUTDOWN"
	}
	return fmt.Sprintf("CMD(%d)", uint32(c))
}

// Accepted is a bitmask of control codes the service accepts.
type Accepted uint32

// AcceptStop is the only control the service advertises.
const AcceptStop Accepted = 1

// ServiceType mirrors SERVICE_WIN32_OWN_PROCESS and friends.
type ServiceType uint32

// OwnProcess is a service that runs in its own process.
const OwnProcess ServiceType = 0x10

// DefaultWaitHint is how long the SCM waits for the next checkpoint change.
const DefaultWaitHint = 3000 * time.Millisecond

// MaxWaitHint is the largest wait hint SERVICE_STATUS can carry, in whole
// milliseconds.
const MaxWaitHint = time.Duration(math.MaxUint32) * time.Millisecond

// Status is the full record pushed to the SCM on every update.
type Status struct {
	Type                    ServiceType
	State                   State
	Accepts                 Accepted
	CheckPoint              uint32
	WaitHint                time.Duration
	Win32ExitCode           uint32
	ServiceSpecificExitCode uint32
}

// StatusSink is the OS "set current service status" call bound to one
// registered status handle.
type StatusSink interface {
	SetStatus(Status) error
}

// StatusSinkFunc adapts a function to StatusSink.
type StatusSinkFunc func(Status) error

// SetStatus calls f(st).
func (f StatusSinkFunc) SetStatus(st Status) error { return f(st) }

// ControlHandler receives control codes on the OS control thread.
type ControlHandler func(Cmd)

// Registrar registers a control handler for the named service and returns
// the status sink bound to it.
type Registrar func(name string, handler ControlHandler) (StatusSink, error)
