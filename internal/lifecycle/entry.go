package lifecycle

import (
	"errors"
	"fmt"
	"sync"
)

// ErrAlreadyDispatched is returned when an entry point is run a second time.
// The handshake signals are one-shot, so one entry serves one start/stop cycle.
var ErrAlreadyDispatched = errors.New("service entry point already dispatched")

// Entry is the service main function handed to the dispatcher.
type Entry interface {
	// Name is the service name the control handler is registered under.
	Name() string

	// Main runs one service lifetime: it registers the control handler,
	// reports RUNNING, hands control to the workload and reports STOPPED
	// once the workload is done.
	Main(args []string, register Registrar) error
}

// attach registers a controller for opts.Name and binds it to a fresh reporter.
func attach(opts Options, register Registrar, stop func()) (*Reporter, error) {
	ctl := newController(stop, opts)

	sink, err := register(opts.Name, ctl.Handle)
	if err != nil {
		return nil, fmt.Errorf("register control handler for %q: %w", opts.Name, err)
	}

	r := NewReporter(sink, opts)
	ctl.bind(r)
	return r, nil
}

// startHeartbeat re-asserts pending states every opts.Heartbeat until the
// returned function is called. The returned function waits for the ticker
// goroutine to exit and is safe to call more than once.
func startHeartbeat(opts Options, r *Reporter) func() {
	if opts.Heartbeat <= 0 {
		return func() {}
	}

	ticker := opts.Clock.Ticker(opts.Heartbeat)
	quit := make(chan struct{})
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer ticker.Stop()
		for {
			select {
			case <-quit:
				return
			case <-ticker.C:
				r.ReassertPending()
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(quit)
			wg.Wait()
		})
	}
}
