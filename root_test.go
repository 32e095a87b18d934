package main

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/obdsentry/obdsentryd/internal/config"
)

func TestBuildLogger_Default(t *testing.T) {
	logger := buildLogger(nil)

	assert.True(t, logger.Handler().Enabled(context.Background(), slog.LevelWarn))
	assert.False(t, logger.Handler().Enabled(context.Background(), slog.LevelInfo))
}

func TestBuildLogger_VerboseFlagOverrides(t *testing.T) {
	flagVerbose = true
	defer func() { flagVerbose = false }()

	cfg := &config.Config{}
	cfg.Logging.LogLevel = "error"

	logger := buildLogger(cfg)

	assert.True(t, logger.Handler().Enabled(context.Background(), slog.LevelDebug))
}

func TestBuildLogger_ConfigLevel(t *testing.T) {
	tests := []struct {
		level     string
		wantInfo  bool
		wantDebug bool
	}{
		{"debug", true, true},
		{"info", true, false},
		{"warn", false, false},
		{"error", false, false},
		{"", false, false},
	}

	for _, tc := range tests {
		t.Run(tc.level, func(t *testing.T) {
			cfg := &config.Config{}
			cfg.Logging.LogLevel = tc.level

			logger := buildLogger(cfg)

			assert.Equal(t, tc.wantInfo, logger.Handler().Enabled(context.Background(), slog.LevelInfo))
			assert.Equal(t, tc.wantDebug, logger.Handler().Enabled(context.Background(), slog.LevelDebug))
		})
	}
}

func TestNewRootCmd_Subcommands(t *testing.T) {
	cmd := newRootCmd()

	expected := []string{"daemon", "status", "reload"}
	for _, name := range expected {
		_, _, err := cmd.Find([]string{name})
		assert.NoError(t, err, "expected subcommand %q not found", name)
	}
}

func TestNewRootCmd_PersistentFlags(t *testing.T) {
	cmd := newRootCmd()

	expectedFlags := []string{"config", "env-file", "simulate", "dry-run", "verbose"}
	for _, name := range expectedFlags {
		flag := cmd.PersistentFlags().Lookup(name)
		assert.NotNil(t, flag, "expected persistent flag %q not found", name)
	}
}

func TestCliOverrides_ReflectsFlags(t *testing.T) {
	flagConfigPath = "/tmp/cfg.toml"
	flagEnvFile = "/tmp/.env"
	flagSimulate = true
	flagDryRun = true
	flagVerbose = true

	defer func() {
		flagConfigPath = ""
		flagEnvFile = ""
		flagSimulate = false
		flagDryRun = false
		flagVerbose = false
	}()

	got := cliOverrides()

	assert.Equal(t, "/tmp/cfg.toml", got.ConfigPath)
	assert.Equal(t, "/tmp/.env", got.EnvFile)
	assert.True(t, got.Simulate)
	assert.True(t, got.DryRun)
	assert.True(t, got.Verbose)
}

func TestExitCodeError_Error(t *testing.T) {
	err := exitCodeError(4)
	assert.Contains(t, err.Error(), "4")
}
