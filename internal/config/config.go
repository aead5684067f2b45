// Package config loads and validates statsgod's JSON configuration file,
// then layers environment-variable overrides on top of it. Validation
// happens against an embedded JSON Schema before the document is decoded
// into Go structs, so a malformed config fails fast with a schema error
// rather than partway through startup with a nil-pointer panic.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// DefaultPath is the conffile statsgod opens when -f is not given.
const DefaultPath = "/etc/statsd.conf"

// SinkConfig describes one outbound TCP connection to a Graphite-speaking
// carbon line receiver: the primary metrics sink, or the secondary sink
// statsgod's own self-telemetry is written to.
type SinkConfig struct {
	Host              string `json:"host"`
	Port              int    `json:"port"`
	ReconnectInterval int    `json:"reconnect_interval"` // seconds
	FlushInterval     int    `json:"flush_interval"`     // seconds
	Prefix            string `json:"prefix"`
}

// HTTPConfig describes the admin HTTP listener.
type HTTPConfig struct {
	Addr string `json:"addr"`
}

// LogConfig describes the leveled logger's minimum severity.
type LogConfig struct {
	Level string `json:"level"`
}

// Config is the fully decoded, validated configuration document.
type Config struct {
	Listen   []string   `json:"listen"`
	Graphite SinkConfig `json:"graphite"`
	Stats    SinkConfig `json:"stats"`
	HTTP     HTTPConfig `json:"http"`
	Log      LogConfig  `json:"log"`
}

// Load reads path, validates it against Schema, applies STATSGOD_*
// environment overrides, and returns the decoded configuration. A .env
// file in the current directory, if present, is loaded into the process
// environment first (and never overrides a variable already set), mirroring
// the teacher's optional development-environment overlay.
func Load(path string) (*Config, error) {
	_ = godotenv.Load(".env")

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if err := Validate(Schema, raw); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("config: decoding %s: %w", path, err)
	}

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8126"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Graphite.FlushInterval == 0 {
		cfg.Graphite.FlushInterval = 10
	}
	if cfg.Graphite.ReconnectInterval == 0 {
		cfg.Graphite.ReconnectInterval = 5
	}
	if cfg.Stats.FlushInterval == 0 {
		cfg.Stats.FlushInterval = cfg.Graphite.FlushInterval
	}
	if cfg.Stats.ReconnectInterval == 0 {
		cfg.Stats.ReconnectInterval = cfg.Graphite.ReconnectInterval
	}
}

// applyEnvOverrides lets deployment tooling override both sink hosts, the
// primary sink's port, the admin address and the log level without
// rewriting the conffile (the stats sink's port has no override), the same override-over-file precedence
// the teacher's runtime environment loader gives .env values.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("STATSGOD_GRAPHITE_HOST"); v != "" {
		cfg.Graphite.Host = v
	}
	if v := os.Getenv("STATSGOD_GRAPHITE_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Graphite.Port = p
		}
	}
	if v := os.Getenv("STATSGOD_STATS_HOST"); v != "" {
		cfg.Stats.Host = v
	}
	if v := os.Getenv("STATSGOD_HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := os.Getenv("STATSGOD_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}
