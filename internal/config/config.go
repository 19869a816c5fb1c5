// Package config provides configuration management for the ServiceHost.
package config

import (
	"fmt"
	"strings"
	"time"

	"servicehost/internal/lifecycle"
)

// Hosting modes.
const (
	ModeHandoff = "handoff"
	ModeDirect  = "direct"
)

// Config is the root configuration structure (ServiceHost.json).
type Config struct {
	ServiceName    string        `json:"ServiceName"`
	Mode           string        `json:"Mode"` // "handoff" or "direct"
	WaitHint       time.Duration `json:"WaitHint"`
	Heartbeat      time.Duration `json:"Heartbeat"` // 0 disables
	SampleInterval time.Duration `json:"SampleInterval"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		ServiceName:    "ServiceHost",
		Mode:           ModeHandoff,
		WaitHint:       3 * time.Second,
		SampleInterval: 30 * time.Second,
	}
}

// Merge applies non-zero values from other to this config.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}
	if other.ServiceName != "" {
		c.ServiceName = other.ServiceName
	}
	if other.Mode != "" {
		c.Mode = strings.ToLower(other.Mode)
	}
	if other.WaitHint != 0 {
		c.WaitHint = other.WaitHint
	}
	if other.Heartbeat != 0 {
		c.Heartbeat = other.Heartbeat
	}
	if other.SampleInterval != 0 {
		c.SampleInterval = other.SampleInterval
	}
}

// Validate rejects values the host cannot run with.
func (c *Config) Validate() error {
	if c.ServiceName == "" {
		return fmt.Errorf("ServiceName must not be empty")
	}
	switch c.Mode {
	case ModeHandoff, ModeDirect:
	default:
		return fmt.Errorf("unknown Mode %q (want %q or %q)", c.Mode, ModeHandoff, ModeDirect)
	}
	if c.WaitHint < 0 || c.Heartbeat < 0 {
		return fmt.Errorf("WaitHint and Heartbeat must not be negative")
	}
	if c.WaitHint > lifecycle.MaxWaitHint {
		return fmt.Errorf("WaitHint %s exceeds the maximum of %s", c.WaitHint, lifecycle.MaxWaitHint)
	}
	if c.SampleInterval <= 0 {
		return fmt.Errorf("SampleInterval must be positive, got %s", c.SampleInterval)
	}
	return nil
}
