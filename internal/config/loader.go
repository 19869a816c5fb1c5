package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"servicehost/internal/logger"
)

// rawConfig is used for JSON unmarshaling with duration strings.
type rawConfig struct {
	ServiceName    string `json:"ServiceName"`
	Mode           string `json:"Mode"`
	WaitHint       string `json:"WaitHint"`
	Heartbeat      string `json:"Heartbeat"`
	SampleInterval string `json:"SampleInterval"`
}

type rawLoggingConfig struct {
	Level      string `json:"Level"`
	FilePath   string `json:"FilePath"`
	MaxSizeMB  int    `json:"MaxSizeMB"`
	MaxBackups int    `json:"MaxBackups"`
	MaxAgeDays int    `json:"MaxAgeDays"`
	Compress   *bool  `json:"Compress"`
	Console    bool   `json:"Console"`
	Format     string `json:"Format"`
}

// Load reads configuration from the specified file path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses configuration from JSON bytes and validates the result.
func Parse(data []byte) (*Config, error) {
	var raw rawConfig
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	parsed, err := convertRawConfig(&raw)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	cfg.Merge(parsed)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func convertRawConfig(raw *rawConfig) (*Config, error) {
	cfg := &Config{
		ServiceName: raw.ServiceName,
		Mode:        raw.Mode,
	}

	durations := []struct {
		name string
		src  string
		dst  *time.Duration
	}{
		{"WaitHint", raw.WaitHint, &cfg.WaitHint},
		{"Heartbeat", raw.Heartbeat, &cfg.Heartbeat},
		{"SampleInterval", raw.SampleInterval, &cfg.SampleInterval},
	}
	for _, d := range durations {
		if d.src == "" {
			continue
		}
		v, err := time.ParseDuration(d.src)
		if err != nil {
			return nil, fmt.Errorf("invalid %s duration: %w", d.name, err)
		}
		*d.dst = v
	}

	return cfg, nil
}

// LoadLogging reads logging configuration from the specified file path.
func LoadLogging(path string) (*logger.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read logging config file: %w", err)
	}
	return ParseLogging(data)
}

// ParseLogging parses logging configuration from JSON bytes.
func ParseLogging(data []byte) (*logger.Config, error) {
	var raw rawLoggingConfig
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse logging config JSON: %w", err)
	}

	def := logger.DefaultConfig()
	if raw.Level != "" {
		def.Level = raw.Level
	}
	if raw.FilePath != "" {
		def.FilePath = raw.FilePath
	}
	if raw.MaxSizeMB != 0 {
		def.MaxSizeMB = raw.MaxSizeMB
	}
	if raw.MaxBackups != 0 {
		def.MaxBackups = raw.MaxBackups
	}
	if raw.MaxAgeDays != 0 {
		def.MaxAgeDays = raw.MaxAgeDays
	}
	if raw.Compress != nil {
		def.Compress = *raw.Compress
	}
	if raw.Format != "" {
		def.Format = raw.Format
	}
	def.Console = raw.Console

	return &def, nil
}

// LoadSplit loads ServiceHost.json and Logging.json.
func LoadSplit(configPath, loggingPath string) (*Config, *logger.Config, error) {
	cfg, err := Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	lc, err := LoadLogging(loggingPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load logging config: %w", err)
	}

	return cfg, lc, nil
}
