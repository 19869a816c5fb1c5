//go:build windows
// +build windows

package scm

import (
	"errors"

	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/svc"
	"golang.org/x/sys/windows/svc/mgr"

	"servicehost/internal/lifecycle"
)

// DefaultBackend returns the Windows SCM backend.
func DefaultBackend() Backend {
	return mgrBackend{}
}

type mgrBackend struct{}

func (mgrBackend) Connect(machine string) (Conn, error) {
	var (
		m   *mgr.Mgr
		err error
	)
	if machine == "" {
		m, err = mgr.Connect()
	} else {
		m, err = mgr.ConnectRemote(machine)
	}
	if err != nil {
		return nil, translate(err)
	}
	return &mgrConn{m: m}, nil
}

type mgrConn struct {
	m *mgr.Mgr
}

func (c *mgrConn) CreateService(name string, cfg EntryConfig) (Handle, error) {
	s, err := c.m.CreateService(name, cfg.BinaryPath, mgr.Config{
		ServiceType:      uint32(cfg.ServiceType),
		StartType:        uint32(cfg.StartType),
		ErrorControl:     uint32(cfg.ErrorControl),
		DisplayName:      cfg.DisplayName,
		Dependencies:     cfg.Dependencies,
		ServiceStartName: cfg.Account,
	})
	if err != nil {
		return nil, translate(err)
	}
	return &mgrHandle{s: s}, nil
}

func (c *mgrConn) OpenService(name string) (Handle, error) {
	s, err := c.m.OpenService(name)
	if err != nil {
		return nil, translate(err)
	}
	return &mgrHandle{s: s}, nil
}

func (c *mgrConn) Close() error {
	return c.m.Disconnect()
}

type mgrHandle struct {
	s *mgr.Service
}

func (h *mgrHandle) Delete() error {
	return translate(h.s.Delete())
}

func (h *mgrHandle) Query() (lifecycle.State, error) {
	st, err := h.s.Query()
	if err != nil {
		return 0, translate(err)
	}
	return lifecycle.State(st.State), nil
}

func (h *mgrHandle) Config() (EntryConfig, error) {
	c, err := h.s.Config()
	if err != nil {
		return EntryConfig{}, translate(err)
	}
	return EntryConfig{
		DisplayName:  c.DisplayName,
		BinaryPath:   c.BinaryPathName,
		ServiceType:  lifecycle.ServiceType(c.ServiceType),
		StartType:    StartType(c.StartType),
		ErrorControl: ErrorControl(c.ErrorControl),
		Dependencies: c.Dependencies,
		Account:      c.ServiceStartName,
	}, nil
}

// SetStartType rewrites the stored configuration with only the start type
// changed, the mgr equivalent of ChangeServiceConfig with SERVICE_NO_CHANGE.
func (h *mgrHandle) SetStartType(t StartType) error {
	c, err := h.s.Config()
	if err != nil {
		return translate(err)
	}
	c.StartType = uint32(t)
	return translate(h.s.UpdateConfig(c))
}

func (h *mgrHandle) Start(args ...string) error {
	return translate(h.s.Start(args...))
}

func (h *mgrHandle) Control(cmd lifecycle.Cmd) (lifecycle.State, error) {
	st, err := h.s.Control(svc.Cmd(cmd))
	if err != nil {
		return 0, translate(err)
	}
	return lifecycle.State(st.State), nil
}

func (h *mgrHandle) Close() error {
	return h.s.Close()
}

var errnoSentinels = map[windows.Errno]error{
	windows.ERROR_SERVICE_EXISTS:            ErrExists,
	windows.ERROR_SERVICE_DOES_NOT_EXIST:    ErrNotExist,
	windows.ERROR_SERVICE_MARKED_FOR_DELETE: ErrMarkedForDelete,
	windows.ERROR_SERVICE_ALREADY_RUNNING:   ErrAlreadyRunning,
	windows.ERROR_SERVICE_NOT_ACTIVE:        ErrNotActive,
}

// translate keeps the OS error but makes it match the package sentinels.
func translate(err error) error {
	if err == nil {
		return nil
	}
	var errno windows.Errno
	if errors.As(err, &errno) {
		if sentinel, ok := errnoSentinels[errno]; ok {
			return &osError{sentinel: sentinel, err: err}
		}
	}
	return err
}
