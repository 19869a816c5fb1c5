// Package service binds lifecycle entry points to the operating system's
// service dispatcher.
//
// On Windows StartDispatcher hands the entry to the Service Control Manager
// (or to svc/debug when started from a console). Elsewhere it runs a console
// stand-in that turns SIGINT/SIGTERM into STOP and SIGHUP into INTERROGATE,
// which is enough to exercise a service host during development.
package service

import (
	"errors"
	"sync"
	"syscall"

	"servicehost/internal/lifecycle"
)

// ExitCode maps a StartDispatcher result to a process exit code: 0 for
// success, the OS error number for a dispatcher registration failure, 1 for
// anything else.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return int(errno)
	}
	return 1
}

// binding connects one entry point's control handler to the dispatcher
// goroutine that receives control requests from the OS.
type binding struct {
	sink lifecycle.StatusSink

	mu      sync.Mutex
	name    string
	handler lifecycle.ControlHandler
}

func newBinding(sink lifecycle.StatusSink) *binding {
	return &binding{sink: sink}
}

// register is the lifecycle.Registrar handed to the entry point.
func (b *binding) register(name string, h lifecycle.ControlHandler) (lifecycle.StatusSink, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.name = name
	b.handler = h
	return b.sink, nil
}

// deliver passes cmd to the registered handler and reports whether there was one.
func (b *binding) deliver(cmd lifecycle.Cmd) bool {
	b.mu.Lock()
	h := b.handler
	b.mu.Unlock()
	if h == nil {
		return false
	}
	h(cmd)
	return true
}

// serve runs entry.Main on its own goroutine and delivers control codes from
// controls until Main returns.
func serve(entry lifecycle.Entry, args []string, b *binding, controls <-chan lifecycle.Cmd) error {
	done := make(chan error, 1)
	go func() {
		done <- entry.Main(args, b.register)
	}()

	for {
		select {
		case cmd := <-controls:
			b.deliver(cmd)
		case err := <-done:
			return err
		}
	}
}
