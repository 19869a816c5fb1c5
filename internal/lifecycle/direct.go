package lifecycle

import (
	"context"
	"errors"
	"sync/atomic"
)

// Worker is the workload of the direct-dispatch variant.
type Worker interface {
	// Start runs the workload and returns once a stop has been requested.
	Start(args []string)

	// Stop requests Start to return. It is called on the SCM control thread
	// and must not block.
	Stop()
}

// RunFunc is a workload that runs until ctx is cancelled.
type RunFunc func(ctx context.Context, args []string) error

type funcWorker struct {
	run    RunFunc
	ctx    context.Context
	cancel context.CancelFunc
	opts   Options
}

// WorkerFromFunc wraps run as a Worker whose Stop cancels run's context.
// An error returned by run is logged.
func WorkerFromFunc(run RunFunc, opts Options) Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &funcWorker{run: run, ctx: ctx, cancel: cancel, opts: opts.withDefaults()}
}

func (w *funcWorker) Start(args []string) {
	defer w.cancel()
	if err := w.run(w.ctx, args); err != nil && !errors.Is(err, context.Canceled) {
		log := w.opts.log()
		log.Error().Err(err).Msg("Service workload exited with error")
	}
}

func (w *funcWorker) Stop() { w.cancel() }

// Direct is the direct-dispatch entry point: the worker runs on the dispatch
// goroutine and the control callback calls its Stop.
type Direct struct {
	opts       Options
	worker     Worker
	dispatched atomic.Bool
}

// NewDirect returns an entry point that runs worker.
func NewDirect(worker Worker, opts Options) *Direct {
	return &Direct{opts: opts.withDefaults(), worker: worker}
}

// Name returns the service name.
func (d *Direct) Name() string { return d.opts.Name }

// Main implements Entry.
func (d *Direct) Main(args []string, register Registrar) error {
	if !d.dispatched.CompareAndSwap(false, true) {
		return ErrAlreadyDispatched
	}

	r, err := attach(d.opts, register, d.worker.Stop)
	if err != nil {
		return err
	}
	stopHeartbeat := startHeartbeat(d.opts, r)
	defer stopHeartbeat()

	if err := r.SetState(Running); !errors.Is(err, ErrStopPending) {
		log := d.opts.log()
		log.Info().Strs("args", args).Msg("Service running")
	}

	d.worker.Start(args)

	stopHeartbeat()
	_ = r.SetState(Stopped)
	log := d.opts.log()
	log.Info().Msg("Service stopped")
	return nil
}
