// Package main is the entry point for the ServiceHost demo service. It runs
// the selfstat sampler as a service workload in either the handoff or the
// direct hosting mode.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"servicehost/internal/config"
	"servicehost/internal/lifecycle"
	"servicehost/internal/logger"
	"servicehost/internal/selfstat"
	"servicehost/internal/service"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

const startupErrorLogDir = "log/ServiceHost"

func main() {
	var (
		configPath  = flag.String("config", "conf/ServiceHost/ServiceHost.json", "Path to main configuration file")
		loggingPath = flag.String("logging", "conf/ServiceHost/Logging.json", "Path to logging configuration file")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("ServiceHost %s (built %s)\n", version, buildTime)
		os.Exit(0)
	}

	// A service starts in C:\Windows\System32. An absolute config path is
	// <base>\conf\ServiceHost\ServiceHost.json, so chdir to <base>.
	if filepath.IsAbs(*configPath) {
		basePath := filepath.Dir(filepath.Dir(filepath.Dir(*configPath)))
		if err := os.Chdir(basePath); err != nil {
			fail("ServiceHost", fmt.Errorf("failed to chdir to %s: %w", basePath, err))
		}
	}

	if service.IsService() {
		logger.SetServiceMode(true)
	}

	cfg, lc, err := config.LoadSplit(*configPath, *loggingPath)
	if err != nil {
		fail("ServiceHost", err)
	}
	if err := logger.Init(*lc); err != nil {
		fail(cfg.ServiceName, fmt.Errorf("failed to initialize logger: %w", err))
	}

	log := logger.WithComponent("main")
	log.Info().
		Str("version", version).
		Str("service", cfg.ServiceName).
		Str("mode", cfg.Mode).
		Str("config", *configPath).
		Str("logging", *loggingPath).
		Msg("Starting ServiceHost")

	stopWatcher := watchLogging(*loggingPath)

	src, err := selfstat.NewSelfSource()
	if err != nil {
		fail(cfg.ServiceName, fmt.Errorf("failed to open own process: %w", err))
	}
	sampler := selfstat.NewSampler(src, cfg.SampleInterval, nil)

	entry, wait := newEntry(cfg, func(ctx context.Context, _ []string) error {
		return sampler.Run(ctx)
	})

	err = service.StartDispatcher(entry)
	wait(err)
	if err != nil {
		log.Error().Err(err).Msg("Service dispatcher failed")
	} else {
		log.Info().Msg("ServiceHost stopped")
	}

	code := service.ExitCode(err)
	logger.Close()
	stopWatcher()
	os.Exit(code)
}

// fail reports a startup error everywhere it may be seen and exits.
func fail(serviceName string, err error) {
	service.ReportStartupError(serviceName, err)
	service.WriteStartupErrorFile(startupErrorLogDir, err)
	fmt.Fprintf(os.Stderr, "ServiceHost failed to start: %v\n", err)
	os.Exit(1)
}

func entryOptions(cfg *config.Config) lifecycle.Options {
	return lifecycle.Options{
		Name:      cfg.ServiceName,
		WaitHint:  cfg.WaitHint,
		Heartbeat: cfg.Heartbeat,
	}
}

// newEntry builds the entry point for cfg.Mode. The returned wait takes the
// dispatcher's result and blocks until the goroutines serving the entry have
// finished.
func newEntry(cfg *config.Config, workload lifecycle.RunFunc) (lifecycle.Entry, func(error)) {
	opts := entryOptions(cfg)
	if cfg.Mode == config.ModeDirect {
		return lifecycle.NewDirect(lifecycle.WorkerFromFunc(workload, opts), opts), func(error) {}
	}
	h := lifecycle.NewHandoff(opts)
	return h, hostHandoff(h, workload)
}

// hostHandoff runs workload between the handoff's start and stop signals:
// a starter goroutine waits for start and runs it, a stopper goroutine waits
// for stop, cancels it and acknowledges once it has returned.
func hostHandoff(h *lifecycle.Handoff, workload lifecycle.RunFunc) func(error) {
	ctx, cancel := context.WithCancel(context.Background())
	finished := make(chan struct{})
	stopped := make(chan struct{})

	go func() {
		defer close(finished)
		h.WaitForStart()
		log := logger.WithComponent("main")
		log.Info().Msg("Workload starting")
		if err := workload(ctx, nil); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("Workload failed")
		}
	}()

	go func() {
		defer close(stopped)
		h.WaitForStop()
		log := logger.WithComponent("main")
		log.Info().Msg("Stop requested, stopping workload")
		cancel()
		<-finished
		h.AcknowledgeStop()
	}()

	return func(dispatchErr error) {
		if dispatchErr != nil {
			// Main never reached RUNNING, nobody will request a stop.
			cancel()
			return
		}
		<-stopped
	}
}

func watchLogging(path string) func() {
	log := logger.WithComponent("main")

	w, err := config.NewLoggingWatcher(path, func(lc *logger.Config) {
		log := logger.WithComponent("main")
		log.Info().Msg("Applying logging configuration changes")
		if err := logger.Init(*lc); err != nil {
			log.Error().Err(err).Msg("Failed to update logging configuration")
			return
		}
		log.Info().Msg("Logging configuration updated")
	})
	if err != nil {
		log.Warn().Err(err).Msg("Failed to create logging watcher, hot reload disabled")
		return func() {}
	}
	if err := w.Start(); err != nil {
		log.Warn().Err(err).Msg("Failed to start logging watcher")
		if err := w.Stop(); err != nil {
			log.Error().Err(err).Msg("Error stopping logging watcher")
		}
		return func() {}
	}
	return func() {
		if err := w.Stop(); err != nil {
			log.Error().Err(err).Msg("Error stopping logging watcher")
		}
	}
}
