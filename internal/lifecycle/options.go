package lifecycle

import (
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"

	"servicehost/internal/logger"
)

// Options configures an entry point.
type Options struct {
	// Name is the service name passed to the control handler registration.
	Name string

	// WaitHint is reported with every status update. Defaults to DefaultWaitHint.
	WaitHint time.Duration

	// Heartbeat re-asserts STOP_PENDING at this interval while the worker
	// shuts down, so the SCM sees the checkpoint move. Zero disables it.
	Heartbeat time.Duration

	// Clock drives the heartbeat. Defaults to the wall clock.
	Clock clock.Clock

	// Logger overrides the global logger. When nil every message goes
	// through logger.WithComponent("lifecycle") at the time it is logged.
	Logger *zerolog.Logger
}

func (o Options) withDefaults() Options {
	if o.WaitHint <= 0 {
		o.WaitHint = DefaultWaitHint
	}
	if o.WaitHint > MaxWaitHint {
		o.WaitHint = MaxWaitHint
	}
	if o.Clock == nil {
		o.Clock = clock.New()
	}
	return o
}

// log returns the logger for this service's messages.
func (o Options) log() zerolog.Logger {
	l := o.Logger
	if l == nil {
		c := logger.WithComponent("lifecycle")
		l = &c
	}
	return l.With().Str("service", o.Name).Logger()
}
