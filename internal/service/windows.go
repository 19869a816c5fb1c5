//go:build windows
// +build windows

package service

import (
	"sync"
	"time"

	"golang.org/x/sys/windows/svc"
	"golang.org/x/sys/windows/svc/debug"

	"servicehost/internal/lifecycle"
	"servicehost/internal/logger"
)

// StartDispatcher registers entry with the service control dispatcher and
// blocks until the service has stopped. When the process was not started by
// the SCM the same handler runs under svc/debug, which turns Ctrl+C into STOP.
//
// A dispatcher registration failure is returned as the windows.Errno the OS
// reported.
func StartDispatcher(entry lifecycle.Entry) error {
	h := &windowsHandler{entry: entry}

	var err error
	if IsService() {
		err = svc.Run(entry.Name(), h)
	} else {
		err = debug.Run(entry.Name(), h)
	}
	if err != nil {
		return err
	}
	return h.result()
}

// IsService returns true if running as a Windows service.
func IsService() bool {
	isService, err := svc.IsWindowsService()
	if err != nil {
		return false
	}
	return isService
}

// windowsHandler implements svc.Handler on top of a lifecycle.Entry.
type windowsHandler struct {
	entry lifecycle.Entry

	mu  sync.Mutex
	err error
}

func (h *windowsHandler) result() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// Execute implements the svc.Handler interface. Control requests are read on
// this goroutine and passed to the entry's control handler; entry.Main runs
// on its own goroutine and pushes status through changes.
func (h *windowsHandler) Execute(args []string, r <-chan svc.ChangeRequest, changes chan<- svc.Status) (svcSpecificEC bool, exitCode uint32) {
	log := logger.WithComponent("windows-service")

	b := newBinding(statusChannel(changes))
	done := make(chan error, 1)
	go func() {
		done <- h.entry.Main(args, b.register)
	}()

	log.Info().Str("service", h.entry.Name()).Strs("args", args).Msg("Service dispatched")

	for {
		select {
		case c := <-r:
			if !b.deliver(lifecycle.Cmd(c.Cmd)) {
				// Not registered yet: answer INTERROGATE with what the SCM already knows.
				changes <- c.CurrentStatus
			}

		case err := <-done:
			if err != nil {
				log := logger.WithComponent("windows-service")
				log.Error().Err(err).Msg("Service entry point failed")
				h.mu.Lock()
				h.err = err
				h.mu.Unlock()
				return true, 1
			}
			return false, 0
		}
	}
}

// statusChannel adapts the svc changes channel to lifecycle.StatusSink.
// svc applies each status with SetServiceStatus on its own goroutine and does
// not report failures back, so SetStatus never returns an error.
type statusChannel chan<- svc.Status

func (c statusChannel) SetStatus(st lifecycle.Status) error {
	c <- svc.Status{
		State:                   svc.State(st.State),
		Accepts:                 svc.Accepted(st.Accepts),
		CheckPoint:              st.CheckPoint,
		WaitHint:                uint32(st.WaitHint / time.Millisecond),
		Win32ExitCode:           st.Win32ExitCode,
		ServiceSpecificExitCode: st.ServiceSpecificExitCode,
	}
	return nil
}
