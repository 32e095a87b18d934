package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/BurntSushi/toml"
)

// Load reads and decodes a TOML config file, expanding ${VAR}/${VAR:default}
// placeholders against the environment first, then validates the result.
// Unknown keys are treated as a Configuration error via the TOML decoder's
// metadata.
func Load(path string, logger *slog.Logger) (*Config, error) {
	logger.Debug("loading config file", "path", path)

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	expanded := expandPlaceholders(string(data))

	md, err := toml.Decode(expanded, cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		var errs []error
		for _, key := range undecoded {
			errs = append(errs, fmt.Errorf("unknown config key %q", key.String()))
		}

		return nil, fmt.Errorf("config file %s: %w", path, errors.Join(errs...))
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	logger.Debug("config file parsed successfully", "path", path)

	return cfg, nil
}

// LoadOrDefault reads path if it exists, otherwise returns DefaultConfig.
// This supports running headless with --simulate and no config file. The
// defaults are not validated here: Resolve validates them once the env and
// CLI overrides (such as --simulate or OBD_BT_MAC) have been applied.
func LoadOrDefault(path string, logger *slog.Logger) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		logger.Debug("config file not found, using defaults", "path", path)

		return DefaultConfig(), nil
	}

	return Load(path, logger)
}

// Resolve loads configuration and applies the four-layer override chain:
// defaults (already embedded via DefaultConfig) -> config file -> env ->
// CLI flags. Returns the frozen Config handed once to the orchestrator.
func Resolve(cli CLIOverrides, logger *slog.Logger) (*Config, error) {
	envFilePath := ResolveEnvFilePath(cli)
	if err := LoadEnvFile(envFilePath); err != nil {
		return nil, fmt.Errorf("loading env file: %w", err)
	}

	path := ResolveConfigPath(cli)

	cfg, err := LoadOrDefault(path, logger)
	if err != nil {
		return nil, err
	}

	env := ReadEnvOverrides()
	env.apply(cfg)
	cli.apply(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed after overrides: %w", err)
	}

	logger.Debug("config resolved",
		slog.String("db_path", cfg.Database.Path),
		slog.String("active_profile", cfg.Profiles.ActiveProfile),
		slog.Bool("simulate", cfg.Simulator.Enabled),
	)

	return cfg, nil
}
