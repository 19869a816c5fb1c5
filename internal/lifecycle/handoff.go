package lifecycle

import (
	"errors"
	"sync/atomic"
)

// Handoff is the callback-handoff entry point. The workload runs on a
// goroutine of the caller's choosing and learns about lifecycle events by
// blocking on WaitForStart and WaitForStop; it tells the entry point it has
// finished with AcknowledgeStop.
//
//	h := lifecycle.NewHandoff(opts)
//	go func() {
//		h.WaitForStart()
//		// run
//	}()
//	go func() {
//		h.WaitForStop()
//		// clean up
//		h.AcknowledgeStop()
//	}()
//	err := service.StartDispatcher(h)
type Handoff struct {
	opts Options

	startAck    *signal
	stopRequest *signal
	stopAck     *signal
	stopSeen    *latch

	dispatched atomic.Bool
}

// NewHandoff prepares the three handshake signals, all unsignaled.
func NewHandoff(opts Options) *Handoff {
	return &Handoff{
		opts:        opts.withDefaults(),
		startAck:    newSignal(),
		stopRequest: newSignal(),
		stopAck:     newSignal(),
		stopSeen:    newLatch(),
	}
}

// Name returns the service name.
func (h *Handoff) Name() string { return h.opts.Name }

// WaitForStart blocks until the entry point has reported RUNNING.
func (h *Handoff) WaitForStart() { h.startAck.wait() }

// WaitForStop blocks until a STOP control has been received.
func (h *Handoff) WaitForStop() { h.stopRequest.wait() }

// AcknowledgeStop tells the entry point the workload has shut down. It may be
// called before WaitForStop returns; STOPPED is still only reported after a
// STOP control arrived.
func (h *Handoff) AcknowledgeStop() { h.stopAck.release() }

// requestStop is the controller's stop function. Both operations are
// non-blocking.
func (h *Handoff) requestStop() {
	h.stopSeen.close()
	h.stopRequest.release()
}

// Main implements Entry.
func (h *Handoff) Main(args []string, register Registrar) error {
	if !h.dispatched.CompareAndSwap(false, true) {
		return ErrAlreadyDispatched
	}

	r, err := attach(h.opts, register, h.requestStop)
	if err != nil {
		return err
	}
	stopHeartbeat := startHeartbeat(h.opts, r)
	defer stopHeartbeat()

	if err := r.SetState(Running); !errors.Is(err, ErrStopPending) {
		log := h.opts.log()
		log.Info().Strs("args", args).Msg("Service running")
	}
	h.startAck.release()

	<-h.stopSeen.done()
	h.stopAck.wait()

	stopHeartbeat()
	_ = r.SetState(Stopped)
	log := h.opts.log()
	log.Info().Msg("Service stopped")
	return nil
}
