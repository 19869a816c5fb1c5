package service

import (
	"errors"
	"fmt"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/goleak"

	"servicehost/internal/lifecycle"
)

func quietOptions(name string) lifecycle.Options {
	nop := zerolog.Nop()
	return lifecycle.Options{Name: name, Logger: &nop}
}

func TestExitCode(t *testing.T) {
	if got := ExitCode(nil); got != 0 {
		t.Errorf("ExitCode(nil) = %d, want 0", got)
	}
	// ERROR_FAILED_SERVICE_CONTROLLER_CONNECT
	errno := syscall.Errno(1063)
	if got := ExitCode(fmt.Errorf("dispatch: %w", errno)); got != 1063 {
		t.Errorf("ExitCode(errno) = %d, want 1063", got)
	}
	if got := ExitCode(errors.New("boom")); got != 1 {
		t.Errorf("ExitCode(other) = %d, want 1", got)
	}
}

func TestBinding_DeliverBeforeRegister(t *testing.T) {
	b := newBinding(lifecycle.StatusSinkFunc(func(lifecycle.Status) error { return nil }))
	if b.deliver(lifecycle.Interrogate) {
		t.Error("deliver succeeded with no handler registered")
	}

	var got []lifecycle.Cmd
	sink, err := b.register("demo", func(c lifecycle.Cmd) { got = append(got, c) })
	if err != nil || sink == nil {
		t.Fatalf("register = %v, %v", sink, err)
	}
	if !b.deliver(lifecycle.Stop) {
		t.Error("deliver failed after register")
	}
	if len(got) != 1 || got[0] != lifecycle.Stop {
		t.Errorf("delivered %v, want [STOP]", got)
	}
}

// TestServe_DirectWorker runs a direct-dispatch entry through serve with
// control codes fed from a channel, the way both dispatchers do.
func TestServe_DirectWorker(t *testing.T) {
	defer goleak.VerifyNone(t)

	var states []lifecycle.State
	statesCh := make(chan lifecycle.State, 16)
	sink := lifecycle.StatusSinkFunc(func(st lifecycle.Status) error {
		statesCh <- st.State
		return nil
	})

	stop := make(chan struct{})
	worker := &chanWorker{stop: stop}
	entry := lifecycle.NewDirect(worker, quietOptions("demo"))

	controls := make(chan lifecycle.Cmd)
	errCh := make(chan error, 1)
	go func() { errCh <- serve(entry, []string{"demo"}, newBinding(sink), controls) }()

	if s := <-statesCh; s != lifecycle.Running {
		t.Fatalf("first state = %v, want RUNNING", s)
	}
	states = append(states, lifecycle.Running)

	controls <- lifecycle.Interrogate
	controls <- lifecycle.Stop

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("serve: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("serve did not return after STOP")
	}
	close(statesCh)
	for s := range statesCh {
		states = append(states, s)
	}

	want := []lifecycle.State{lifecycle.Running, lifecycle.Running, lifecycle.StopPending, lifecycle.Stopped}
	if fmt.Sprint(states) != fmt.Sprint(want) {
		t.Errorf("states = %v, want %v", states, want)
	}
}

func TestServe_EntryErrorIsReturned(t *testing.T) {
	entry := lifecycle.NewDirect(&chanWorker{stop: make(chan struct{})}, quietOptions("demo"))
	// Dispatch once so the second serve fails immediately.
	running := make(chan struct{})
	var once sync.Once
	b := newBinding(lifecycle.StatusSinkFunc(func(lifecycle.Status) error {
		once.Do(func() { close(running) })
		return nil
	}))
	go func() { _ = entry.Main(nil, b.register) }()
	<-running

	err := serve(entry, nil, newBinding(lifecycle.StatusSinkFunc(func(lifecycle.Status) error { return nil })), nil)
	if !errors.Is(err, lifecycle.ErrAlreadyDispatched) {
		t.Errorf("serve error = %v, want ErrAlreadyDispatched", err)
	}
	b.deliver(lifecycle.Stop)
}

// chanWorker blocks in Start until Stop closes its channel.
type chanWorker struct {
	stop   chan struct{}
	closed bool
}

func (w *chanWorker) Start(args []string) { <-w.stop }

func (w *chanWorker) Stop() {
	if !w.closed {
		w.closed = true
		close(w.stop)
	}
}
