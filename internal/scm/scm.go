// Package scm is a client for the service control manager's database: it
// installs, queries, starts, stops and deletes named service entries.
//
// Following the SCM handle model, a Manager owns the database connection and
// every Service borrows it, so a Service must not outlive its Manager.
// Construction never fails outright; callers check OK before proceeding.
package scm

import (
	"errors"

	"servicehost/internal/lifecycle"
)

var (
	ErrUnsupported     = errors.New("service control manager is not available on this platform")
	ErrNotOpen         = errors.New("service handle is not open")
	ErrExists          = errors.New("service already exists")
	ErrNotExist        = errors.New("service does not exist")
	ErrMarkedForDelete = errors.New("service has been marked for deletion")
	ErrAlreadyRunning  = errors.New("service is already running")
	ErrNotActive       = errors.New("service has not been started")
)

// StartType values match SERVICE_AUTO_START and friends.
type StartType uint32

const (
	StartAuto     StartType = 2
	StartManual   StartType = 3
	StartDisabled StartType = 4
)

// ErrorControl values match SERVICE_ERROR_IGNORE and friends.
type ErrorControl uint32

const (
	ErrorIgnore ErrorControl = 0
	ErrorNormal ErrorControl = 1
)

// EntryConfig is the persistent configuration of one service entry.
type EntryConfig struct {
	DisplayName  string
	BinaryPath   string
	ServiceType  lifecycle.ServiceType
	StartType    StartType
	ErrorControl ErrorControl
	Dependencies []string
	Account      string // empty means LocalSystem
}

// Backend opens connections to a service control manager.
type Backend interface {
	Connect(machine string) (Conn, error)
}

// Conn is an open connection to the service database.
type Conn interface {
	CreateService(name string, cfg EntryConfig) (Handle, error)
	OpenService(name string) (Handle, error)
	Close() error
}

// Handle is an open handle to one service entry.
type Handle interface {
	Delete() error
	Query() (lifecycle.State, error)
	Config() (EntryConfig, error)
	SetStartType(StartType) error
	Start(args ...string) error
	Control(cmd lifecycle.Cmd) (lifecycle.State, error)
	Close() error
}

// osError carries an OS error while matching one of the sentinels above.
type osError struct {
	sentinel error
	err      error
}

func (e *osError) Error() string        { return e.err.Error() }
func (e *osError) Unwrap() error        { return e.err }
func (e *osError) Is(target error) bool { return target == e.sentinel }
