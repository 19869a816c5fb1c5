//go:build !windows
// +build !windows

package service

import (
	"os"
	"os/signal"
	"syscall"

	"servicehost/internal/lifecycle"
	"servicehost/internal/logger"
)

// StartDispatcher runs entry in the foreground until it reports STOPPED.
// SIGINT and SIGTERM are delivered as STOP, SIGHUP as INTERROGATE.
func StartDispatcher(entry lifecycle.Entry) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigChan)

	controls := make(chan lifecycle.Cmd)
	quit := make(chan struct{})
	defer close(quit)

	go func() {
		for {
			select {
			case sig := <-sigChan:
				cmd := lifecycle.Stop
				if sig == syscall.SIGHUP {
					cmd = lifecycle.Interrogate
				}
				select {
				case controls <- cmd:
				case <-quit:
					return
				}
			case <-quit:
				return
			}
		}
	}()

	return runConsole(entry, []string{entry.Name()}, controls)
}

// runConsole serves entry with a status sink that logs every update.
func runConsole(entry lifecycle.Entry, args []string, controls <-chan lifecycle.Cmd) error {
	sink := lifecycle.StatusSinkFunc(func(st lifecycle.Status) error {
		log := logger.WithComponent("console-service")
		log.Info().
			Str("service", entry.Name()).
			Stringer("state", st.State).
			Uint32("checkpoint", st.CheckPoint).
			Dur("wait_hint", st.WaitHint).
			Msg("Service status")
		return nil
	})

	log := logger.WithComponent("console-service")
	log.Info().Str("service", entry.Name()).Msg("Running in console mode")
	return serve(entry, args, newBinding(sink), controls)
}

// IsService reports false: outside Windows there is no service control
// manager to be started by.
func IsService() bool {
	return false
}
