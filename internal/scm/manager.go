package scm

import (
	"fmt"

	"github.com/rs/zerolog"

	"servicehost/internal/lifecycle"
	"servicehost/internal/logger"
)

// Manager owns a connection to the service control manager.
type Manager struct {
	conn    Conn
	err     error
	machine string
}

// Connect opens the service control manager on machine ("" for the local
// one) with the platform backend. Check OK before use.
func Connect(machine string) *Manager {
	return ConnectWith(DefaultBackend(), machine)
}

// ConnectWith is Connect with an explicit backend.
func ConnectWith(b Backend, machine string) *Manager {
	m := &Manager{machine: machine}
	m.conn, m.err = b.Connect(machine)
	if m.err != nil {
		log := m.logger()
		log.Debug().Err(m.err).Msg("Failed to open service control manager")
	}
	return m
}

// OK reports whether the connection is open.
func (m *Manager) OK() bool { return m.conn != nil }

// Err returns the connection error, if any.
func (m *Manager) Err() error { return m.err }

// Close releases the connection. Services opened from m become unusable.
func (m *Manager) Close() error {
	if m.conn == nil {
		return nil
	}
	err := m.conn.Close()
	m.conn = nil
	return err
}

// Service opens the entry called name. The result is not OK when the entry
// does not exist, access is denied or the manager itself is not OK; it can
// still be used to Install.
func (m *Manager) Service(name string) *Service {
	s := &Service{mgr: m, name: name}
	if m.conn == nil {
		s.err = fmt.Errorf("open service %q: %w", name, m.errOrNotOpen())
		return s
	}
	s.h, s.err = m.conn.OpenService(name)
	if s.err != nil {
		log := s.logger()
		log.Debug().Err(s.err).Msg("Failed to open service")
	}
	return s
}

func (m *Manager) logger() zerolog.Logger {
	return logger.WithComponent("scm").With().Str("machine", m.machine).Logger()
}

func (m *Manager) errOrNotOpen() error {
	if m.err != nil {
		return m.err
	}
	return ErrNotOpen
}

// Service is a handle to one named entry in the service database.
type Service struct {
	mgr  *Manager
	name string
	h    Handle
	err  error
}

// OK reports whether the handle is open.
func (s *Service) OK() bool { return s.h != nil }

// Err returns the error from the last open or install.
func (s *Service) Err() error { return s.err }

// Name returns the entry's service name.
func (s *Service) Name() string { return s.name }

// Install creates a new entry and makes s refer to it. The entry starts
// automatically, runs in its own process under LocalSystem, uses normal
// error control and has no dependencies. It fails if the name is taken or
// access is denied; OK reflects the outcome.
func (s *Service) Install(name, displayName, binaryPath string) error {
	s.closeHandle()
	s.name = name
	log := s.logger()

	if s.mgr.conn == nil {
		s.err = fmt.Errorf("install %q: %w", name, s.mgr.errOrNotOpen())
		return s.err
	}

	h, err := s.mgr.conn.CreateService(name, EntryConfig{
		DisplayName:  displayName,
		BinaryPath:   binaryPath,
		ServiceType:  lifecycle.OwnProcess,
		StartType:    StartAuto,
		ErrorControl: ErrorNormal,
	})
	if err != nil {
		s.err = fmt.Errorf("install %q: %w", name, err)
		log.Debug().Err(err).Str("path", binaryPath).Msg("Failed to create service")
		return s.err
	}

	s.h, s.err = h, nil
	log.Info().Str("path", binaryPath).Msg("Service installed")
	return nil
}

// Destroy deletes the entry. A running service is only marked for deletion
// and disappears once it stops.
func (s *Service) Destroy() error {
	if s.h == nil {
		return s.notOpen("delete")
	}
	log := s.logger()
	if err := s.h.Delete(); err != nil {
		log.Debug().Err(err).Msg("Failed to delete service")
		return fmt.Errorf("delete %q: %w", s.name, err)
	}
	log.Info().Msg("Service deleted")
	return nil
}

// Start sets the entry's start type to automatic and asks the SCM to launch
// it. It does not wait for the service to report RUNNING.
func (s *Service) Start() error {
	if s.h == nil {
		return s.notOpen("start")
	}
	log := s.logger()
	if err := s.h.SetStartType(StartAuto); err != nil {
		log.Warn().Err(err).Msg("Failed to set automatic start")
	}
	if err := s.h.Start(); err != nil {
		log.Debug().Err(err).Msg("Failed to start service")
		return fmt.Errorf("start %q: %w", s.name, err)
	}
	return nil
}

// Stop sends STOP and returns without waiting for the service to stop.
func (s *Service) Stop() error {
	if s.h == nil {
		return s.notOpen("stop")
	}
	if _, err := s.h.Control(lifecycle.Stop); err != nil {
		log := s.logger()
		log.Debug().Err(err).Msg("Failed to stop service")
		return fmt.Errorf("stop %q: %w", s.name, err)
	}
	return nil
}

// State returns the entry's current state, or 0 if it cannot be queried.
func (s *Service) State() lifecycle.State {
	if s.h == nil {
		return 0
	}
	st, err := s.h.Query()
	if err != nil {
		log := s.logger()
		log.Debug().Err(err).Msg("Failed to query service status")
		return 0
	}
	return st
}

// IsStarted reports whether the entry is RUNNING. False when the query fails.
func (s *Service) IsStarted() bool { return s.State() == lifecycle.Running }

// IsStopped reports whether the entry is STOPPED. False when the query fails.
func (s *Service) IsStopped() bool { return s.State() == lifecycle.Stopped }

// Config returns the entry's stored configuration.
func (s *Service) Config() (EntryConfig, error) {
	if s.h == nil {
		return EntryConfig{}, s.notOpen("query config of")
	}
	return s.h.Config()
}

// Close releases the handle.
func (s *Service) Close() error {
	return s.closeHandle()
}

func (s *Service) closeHandle() error {
	if s.h == nil {
		return nil
	}
	err := s.h.Close()
	s.h = nil
	return err
}

func (s *Service) logger() zerolog.Logger {
	l := s.mgr.logger()
	return l.With().Str("service", s.name).Logger()
}

func (s *Service) notOpen(op string) error {
	if s.err != nil {
		return fmt.Errorf("%s %q: %w", op, s.name, s.err)
	}
	return fmt.Errorf("%s %q: %w", op, s.name, ErrNotOpen)
}
