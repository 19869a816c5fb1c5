package lifecycle

import (
	"errors"
	"sync"
)

// ErrStopPending is returned by SetState(Running) once a stop is under way.
// The record stays in STOP_PENDING and nothing is pushed.
var ErrStopPending = errors.New("service stop is pending")

// Reporter owns the status record of one service and pushes it to the SCM.
// It is the only place the record is mutated.
type Reporter struct {
	mu     sync.Mutex
	sink   StatusSink
	status Status
	opts   Options
}

// NewReporter returns a reporter for an own-process service that accepts
// STOP only. The record starts in START_PENDING with checkpoint 0; nothing is
// pushed until the first SetState.
func NewReporter(sink StatusSink, opts Options) *Reporter {
	opts = opts.withDefaults()
	return &Reporter{
		sink: sink,
		status: Status{
			Type:     OwnProcess,
			State:    StartPending,
			Accepts:  AcceptStop,
			WaitHint: opts.WaitHint,
		},
		opts: opts,
	}
}

// SetState moves the record to s and pushes it. The checkpoint is cleared on
// RUNNING and STOPPED and incremented on anything else.
//
// A failed push is logged and returned; the record keeps the new state.
// RUNNING is refused with ErrStopPending after STOP_PENDING, which happens
// when STOP arrives between registration and the first RUNNING report.
func (r *Reporter) SetState(s State) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s == Running && r.status.State == StopPending {
		return ErrStopPending
	}
	return r.setLocked(s)
}

// Reassert re-reports the current state without a transition.
func (r *Reporter) Reassert() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.setLocked(r.status.State)
}

// Status returns a snapshot of the record.
func (r *Reporter) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

func (r *Reporter) setLocked(s State) error {
	if s.resetsCheckPoint() {
		r.status.CheckPoint = 0
	} else {
		r.status.CheckPoint++
	}
	r.status.State = s

	log := r.opts.log()
	if err := r.sink.SetStatus(r.status); err != nil {
		log.Warn().
			Err(err).
			Stringer("state", s).
			Uint32("checkpoint", r.status.CheckPoint).
			Msg("Failed to report service status")
		return err
	}

	log.Debug().
		Stringer("state", s).
		Uint32("checkpoint", r.status.CheckPoint).
		Msg("Service status reported")
	return nil
}

// ReassertPending re-reports the current state if it is a pending one and
// reports whether it did.
func (r *Reporter) ReassertPending() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.status.State {
	case StartPending, StopPending, PausePending, ContinuePending:
		_ = r.setLocked(r.status.State)
		return true
	}
	return false
}
