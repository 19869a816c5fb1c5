package lifecycle

import (
	"sync"
	"sync/atomic"
)

// Controller is the control callback registered with the SCM. It runs on the
// OS control thread and never blocks: all it can reach is the reporter and a
// stop function that must return promptly.
type Controller struct {
	reporter atomic.Pointer[Reporter]
	stop     func()
	opts     Options
}

func newController(stop func(), opts Options) *Controller {
	return &Controller{stop: stop, opts: opts}
}

func (c *Controller) bind(r *Reporter) {
	c.reporter.Store(r)
}

// Handle processes one control code.
func (c *Controller) Handle(cmd Cmd) {
	r := c.reporter.Load()
	log := c.opts.log()

	if cmd == Stop {
		log.Info().Msg("Received stop request from service control manager")
		if r != nil {
			_ = r.SetState(StopPending)
		}
		c.stop()
		return
	}

	if r == nil {
		log.Debug().Stringer("cmd", cmd).Msg("Control request before status handle was bound")
		return
	}
	log.Debug().Stringer("cmd", cmd).Msg("Re-reporting current status")
	_ = r.Reassert()
}

// signal is a one-shot binary semaphore: created unsignaled, released at
// most once, and consumed by exactly one wait. A wait on a consumed signal
// blocks forever.
type signal struct {
	once sync.Once
	ch   chan struct{}
}

func newSignal() *signal {
	return &signal{ch: make(chan struct{}, 1)}
}

func (s *signal) release() {
	s.once.Do(func() { s.ch <- struct{}{} })
}

func (s *signal) wait() {
	<-s.ch
}

// latch is closed once and observed by any number of waiters.
type latch struct {
	once sync.Once
	ch   chan struct{}
}

func newLatch() *latch {
	return &latch{ch: make(chan struct{})}
}

func (l *latch) close() {
	l.once.Do(func() { close(l.ch) })
}

func (l *latch) done() <-chan struct{} {
	return l.ch
}
