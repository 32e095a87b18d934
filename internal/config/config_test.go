package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestDefaultConfig_Validates(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Simulator.Enabled = true // headless defaults have no bluetooth.mac

	err := Validate(cfg)
	require.NoError(t, err)
}

func TestValidate_MissingBluetoothMac(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Simulator.Enabled = false
	cfg.Bluetooth.Mac = ""

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bluetooth.mac")
}

func TestValidate_AccumulatesAllErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Database.Path = ""
	cfg.Database.Synchronous = "bogus"
	cfg.Logging.LogLevel = "loud"

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.path")
	assert.Contains(t, err.Error(), "database.synchronous")
	assert.Contains(t, err.Error(), "logging.log_level")
}

func TestExpandPlaceholders_Default(t *testing.T) {
	t.Setenv("DOES_NOT_EXIST_XYZ", "")
	os.Unsetenv("DOES_NOT_EXIST_XYZ")

	out := expandPlaceholders(`path = "${DOES_NOT_EXIST_XYZ:/var/lib/obd.db}"`)
	assert.Equal(t, `path = "/var/lib/obd.db"`, out)
}

func TestExpandPlaceholders_EnvOverridesDefault(t *testing.T) {
	t.Setenv("OBDSENTRYD_TEST_VAR", "custom")

	out := expandPlaceholders(`path = "${OBDSENTRYD_TEST_VAR:fallback}"`)
	assert.Equal(t, `path = "custom"`, out)
}

func TestLoadOrDefault_MissingFile(t *testing.T) {
	tmp := t.TempDir()

	cfg, err := LoadOrDefault(filepath.Join(tmp, "nonexistent.toml"), testLogger())
	require.NoError(t, err)
	assert.Equal(t, defaultDBPath, cfg.Database.Path)
}

func TestLoad_UnknownKeyRejected(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("bogus_top_level_key = true\n"), 0o600))

	_, err := Load(path, testLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown config key")
}

func TestLoad_ValidOverridesDefaults(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "config.toml")
	content := `
[simulator]
enabled = true

[database]
path = "` + filepath.Join(tmp, "custom.db") + `"
synchronous = "FULL"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path, testLogger())
	require.NoError(t, err)
	assert.Equal(t, "FULL", cfg.Database.Synchronous)
	assert.True(t, cfg.Simulator.Enabled)
}

func TestResolve_EnvOverridesFile(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[simulator]\nenabled = true\n"), 0o600))

	t.Setenv(EnvLogLevel, "debug")

	cfg, err := Resolve(CLIOverrides{ConfigPath: path}, testLogger())
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.LogLevel)
}

func TestResolve_CLIOverridesEnv(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[simulator]\nenabled = true\n"), 0o600))

	t.Setenv(EnvLogLevel, "error")

	cfg, err := Resolve(CLIOverrides{ConfigPath: path, Verbose: true}, testLogger())
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.LogLevel)
}

func TestResolveConfigPath_CLIBeatsDefault(t *testing.T) {
	got := ResolveConfigPath(CLIOverrides{ConfigPath: "/tmp/explicit.toml"})
	assert.Equal(t, "/tmp/explicit.toml", got)
}
