// Package config loads hoswatch configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configurable engine parameters.
type Config struct {
	// StateDir holds the database and audit log. Defaults to ~/.hoswatch.
	StateDir string `yaml:"state_dir"`

	// RuleFile is the rule-content YAML the file provider reads. Empty
	// means StateDir/rules.yaml; a missing file falls back to bundled
	// defaults.
	RuleFile string `yaml:"rule_file"`

	// ProviderURL switches rule sync to the HTTP backend when set.
	ProviderURL string `yaml:"provider_url"`

	// DriverID identifies the driver on override records.
	DriverID string `yaml:"driver_id"`

	// Interval is the monitoring cadence.
	Interval time.Duration `yaml:"interval"`

	// AlertCap bounds the in-memory alert list.
	AlertCap int `yaml:"alert_cap"`

	// HistoryCap bounds the persisted rule-update history.
	HistoryCap int `yaml:"history_cap"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return &Config{
		StateDir:   filepath.Join(home, ".hoswatch"),
		Interval:   30 * time.Second,
		AlertCap:   20,
		HistoryCap: 50,
	}
}

// Load reads configuration from a YAML file. Empty path falls back to
// ~/.hoswatch/config.yaml. Missing file returns defaults; invalid YAML
// returns an error.
func Load(path string) (*Config, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return DefaultConfig(), nil
		}
		path = filepath.Join(home, ".hoswatch", "config.yaml")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Start with defaults, YAML overwrites only specified fields.
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// RulePath resolves the rule-content file location.
func (c *Config) RulePath() string {
	if c.RuleFile != "" {
		return c.RuleFile
	}
	return filepath.Join(c.StateDir, "rules.yaml")
}

// DatabasePath resolves the SQLite database location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.StateDir, "hoswatch.db")
}

// AuditLogPath resolves the override audit log location.
func (c *Config) AuditLogPath() string {
	return filepath.Join(c.StateDir, "overrides.jsonl")
}

// DutyStatePath resolves the duty-state feed file the monitoring loop
// reads. The ELD integration writes this file; hoswatch only reads it.
func (c *Config) DutyStatePath() string {
	return filepath.Join(c.StateDir, "duty.json")
}
