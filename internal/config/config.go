// Package config loads and saves pocketbank.yaml.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FileName is the config file name inside the data directory.
const FileName = "pocketbank.yaml"

// Config represents the top-level pocketbank.yaml configuration.
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Ledger  LedgerConfig  `yaml:"ledger"`
	Logger  LoggerConfig  `yaml:"logger"`
}

// StorageConfig selects and configures the persistence adapter.
type StorageConfig struct {
	// Backend is "json" (snapshot files in the data directory) or
	// "postgres".
	Backend     string `yaml:"backend"`
	PostgresDSN string `yaml:"postgres_dsn,omitempty"`
}

// LedgerConfig tunes ledger engine behavior.
type LedgerConfig struct {
	WelcomeBonus string `yaml:"welcome_bonus"` // decimal string, e.g. "100.00"
	MinPINLength int    `yaml:"min_pin_length"`
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// Load reads a pocketbank.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new data
// directory.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			Backend: "json",
		},
		Ledger: LedgerConfig{
			WelcomeBonus: "100.00",
			MinPINLength: 4,
		},
		Logger: LoggerConfig{
			Level: "info",
		},
	}
}

// Validate checks the loaded values.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "json":
	case "postgres":
		if c.Storage.PostgresDSN == "" {
			return fmt.Errorf("postgres backend requires storage.postgres_dsn")
		}
	default:
		return fmt.Errorf("unknown storage backend %q (must be json or postgres)", c.Storage.Backend)
	}
	if c.Ledger.MinPINLength < 1 {
		return fmt.Errorf("min_pin_length must be at least 1, got %d", c.Ledger.MinPINLength)
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logger.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}
	return nil
}
