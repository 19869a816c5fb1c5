// Package scmtest provides an in-memory service control manager for tests.
package scmtest

import (
	"errors"
	"sync"

	"servicehost/internal/lifecycle"
	"servicehost/internal/scm"
)

// ErrInvalidHandle is returned for operations on a closed handle.
var ErrInvalidHandle = errors.New("the handle is invalid")

// Backend is an in-memory service database with SCM deletion semantics: a
// deleted entry that is not stopped lingers, marked for deletion, until it
// reports STOPPED.
type Backend struct {
	// ConnectErr, when set, is returned by every Connect.
	ConnectErr error

	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	cfg    scm.EntryConfig
	state  lifecycle.State
	marked bool
}

// New returns an empty database.
func New() *Backend {
	return &Backend{entries: make(map[string]*entry)}
}

// Lookup returns the configuration and state of the entry called name.
func (b *Backend) Lookup(name string) (scm.EntryConfig, lifecycle.State, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.entries[name]
	if !ok {
		return scm.EntryConfig{}, 0, false
	}
	return e.cfg, e.state, true
}

// Report sets the state of name as if its service process had reported it.
// A marked entry is removed once it reports STOPPED.
func (b *Backend) Report(name string, state lifecycle.State) {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.entries[name]
	if !ok {
		return
	}
	e.state = state
	if state == lifecycle.Stopped && e.marked {
		delete(b.entries, name)
	}
}

// Connect implements scm.Backend.
func (b *Backend) Connect(string) (scm.Conn, error) {
	if b.ConnectErr != nil {
		return nil, b.ConnectErr
	}
	return &conn{b: b}, nil
}

type conn struct {
	b      *Backend
	closed bool
}

func (c *conn) CreateService(name string, cfg scm.EntryConfig) (scm.Handle, error) {
	if c.closed {
		return nil, ErrInvalidHandle
	}
	c.b.mu.Lock()
	defer c.b.mu.Unlock()

	if e, ok := c.b.entries[name]; ok {
		if e.marked {
			return nil, scm.ErrMarkedForDelete
		}
		return nil, scm.ErrExists
	}
	c.b.entries[name] = &entry{cfg: cfg, state: lifecycle.Stopped}
	return &handle{b: c.b, name: name}, nil
}

func (c *conn) OpenService(name string) (scm.Handle, error) {
	if c.closed {
		return nil, ErrInvalidHandle
	}
	c.b.mu.Lock()
	defer c.b.mu.Unlock()

	if _, ok := c.b.entries[name]; !ok {
		return nil, scm.ErrNotExist
	}
	return &handle{b: c.b, name: name}, nil
}

func (c *conn) Close() error {
	c.closed = true
	return nil
}

type handle struct {
	b      *Backend
	name   string
	closed bool
}

// lookup must be called with b.mu held.
func (h *handle) lookup() (*entry, error) {
	if h.closed {
		return nil, ErrInvalidHandle
	}
	e, ok := h.b.entries[h.name]
	if !ok {
		return nil, scm.ErrNotExist
	}
	return e, nil
}

func (h *handle) Delete() error {
	h.b.mu.Lock()
	defer h.b.mu.Unlock()
	e, err := h.lookup()
	if err != nil {
		return err
	}
	if e.marked {
		return scm.ErrMarkedForDelete
	}
	e.marked = true
	if e.state == lifecycle.Stopped {
		delete(h.b.entries, h.name)
	}
	return nil
}

func (h *handle) Query() (lifecycle.State, error) {
	h.b.mu.Lock()
	defer h.b.mu.Unlock()
	e, err := h.lookup()
	if err != nil {
		return 0, err
	}
	return e.state, nil
}

func (h *handle) Config() (scm.EntryConfig, error) {
	h.b.mu.Lock()
	defer h.b.mu.Unlock()
	e, err := h.lookup()
	if err != nil {
		return scm.EntryConfig{}, err
	}
	return e.cfg, nil
}

func (h *handle) SetStartType(t scm.StartType) error {
	h.b.mu.Lock()
	defer h.b.mu.Unlock()
	e, err := h.lookup()
	if err != nil {
		return err
	}
	e.cfg.StartType = t
	return nil
}

func (h *handle) Start(args ...string) error {
	h.b.mu.Lock()
	defer h.b.mu.Unlock()
	e, err := h.lookup()
	if err != nil {
		return err
	}
	if e.marked {
		return scm.ErrMarkedForDelete
	}
	if e.state != lifecycle.Stopped {
		return scm.ErrAlreadyRunning
	}
	e.state = lifecycle.StartPending
	return nil
}

func (h *handle) Control(cmd lifecycle.Cmd) (lifecycle.State, error) {
	h.b.mu.Lock()
	defer h.b.mu.Unlock()
	e, err := h.lookup()
	if err != nil {
		return 0, err
	}
	if e.state == lifecycle.Stopped {
		return e.state, scm.ErrNotActive
	}
	if cmd == lifecycle.Stop {
		e.state = lifecycle.StopPending
	}
	return e.state, nil
}

func (h *handle) Close() error {
	h.closed = true
	return nil
}
