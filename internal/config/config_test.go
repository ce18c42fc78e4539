package config

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Storage.Backend = "postgres"
	cfg.Storage.PostgresDSN = "host=localhost dbname=pocketbank sslmode=disable"
	cfg.Ledger.WelcomeBonus = "250.00"

	path := filepath.Join(t.TempDir(), FileName)
	err := Save(path, cfg)
	require.NoError(t, err)

	got, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, cfg.Storage.Backend, got.Storage.Backend)
	assert.Equal(t, cfg.Storage.PostgresDSN, got.Storage.PostgresDSN)
	assert.Equal(t, cfg.Ledger.WelcomeBonus, got.Ledger.WelcomeBonus)
	assert.Equal(t, cfg.Ledger.MinPINLength, got.Ledger.MinPINLength)
	assert.Equal(t, cfg.Logger.Level, got.Logger.Level)
}

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "json", cfg.Storage.Backend)
	assert.Empty(t, cfg.Storage.PostgresDSN)
	assert.Equal(t, "100.00", cfg.Ledger.WelcomeBonus)
	assert.Equal(t, 4, cfg.Ledger.MinPINLength)
	assert.Equal(t, "info", cfg.Logger.Level)
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown backend", func(c *Config) { c.Storage.Backend = "sqlite" }},
		{"postgres without dsn", func(c *Config) { c.Storage.Backend = "postgres" }},
		{"zero pin length", func(c *Config) { c.Ledger.MinPINLength = 0 }},
		{"bad log level", func(c *Config) { c.Logger.Level = "verbose" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestYAMLFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	err := Save(path, Default())
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	contents := string(data)

	assert.Contains(t, contents, "backend: json")
	assert.Contains(t, contents, "welcome_bonus: \"100.00\"")
	assert.Contains(t, contents, "min_pin_length: 4")
	assert.Contains(t, contents, "level: info")
}

func TestNewLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	lc := LoggerConfig{Level: "warn"}
	logger := lc.NewLogger(&buf)

	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.True(t, logger.Enabled(context.Background(), slog.LevelError))
}
