// Package config loads Terry's YAML-backed configuration, adapted from
// the teacher's internal/config: a documented DefaultConfig, Load from
// disk with fall-through to defaults when the file is absent, and Save.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"terry/internal/sqlchan"
	"terry/internal/terrylog"
)

// Config holds every knob SPEC_FULL.md's ambient stack names: SQL
// backend selection, the statement timeout spec.md §5 calls an
// "externally-imposed" knob, the driver's defensive iteration cap
// (spec.md §7), logging, and the benchmark test_run id.
type Config struct {
	SQL     SQLConfig     `yaml:"sql"`
	Driver  DriverConfig  `yaml:"driver"`
	Logging LoggingConfig `yaml:"logging"`
	TestRun int           `yaml:"test_run"`
}

// SQLConfig selects the backing driver and connection string.
type SQLConfig struct {
	Dialect string `yaml:"dialect"` // "sqlite3" (cgo) or "sqlite" (modernc, pure Go)
	DSN     string `yaml:"dsn"`
	// StatementTimeout is parsed by StatementTimeoutDuration; no channel or
	// command applies it, so statements run without a timeout.
	StatementTimeout string `yaml:"statement_timeout"`
}

// DriverConfig controls the semi-naive driver's defensive limits.
type DriverConfig struct {
	IterationCap int `yaml:"iteration_cap"`
}

// LoggingConfig controls terrylog's output.
type LoggingConfig struct {
	Dir   string `yaml:"dir"`
	Level string `yaml:"level"` // debug|info|warn|error
}

// DefaultConfig mirrors the teacher's pattern of a fully-populated
// zero-value default that Load falls back to when no file is present.
func DefaultConfig() *Config {
	return &Config{
		SQL: SQLConfig{
			Dialect:          string(sqlchan.DialectSQLite),
			DSN:              "terry.db",
			StatementTimeout: "30s",
		},
		Driver: DriverConfig{
			IterationCap: 10_000,
		},
		Logging: LoggingConfig{
			Dir:   "logs",
			Level: "info",
		},
		TestRun: 0,
	}
}

// Load reads path as YAML over DefaultConfig's values. A missing file is
// not an error: the defaults are returned as-is.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path as YAML, creating parent directories as needed.
func (c *Config) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// StatementTimeoutDuration parses StatementTimeout, defaulting to 30s on
// a malformed or empty value.
func (c *Config) StatementTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.SQL.StatementTimeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// LogLevel maps Logging.Level to a terrylog.Level, defaulting to info.
func (c *Config) LogLevel() terrylog.Level {
	switch c.Logging.Level {
	case "debug":
		return terrylog.LevelDebug
	case "warn", "warning":
		return terrylog.LevelWarn
	case "error":
		return terrylog.LevelError
	default:
		return terrylog.LevelInfo
	}
}
