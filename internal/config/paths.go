package config

import (
	"os"
	"path/filepath"
)

// executableDir resolves the directory containing the running binary. The
// config file must resolve correctly regardless of the process's current
// working directory, so path defaults are anchored here rather than on an
// XDG base directory. obdsentryd is an always-on daemon installed
// alongside its config, so the binary's own directory is the stable
// anchor.
func executableDir() string {
	exe, err := os.Executable()
	if err != nil {
		// Fall back to the working directory — os.Executable only fails on
		// exotic platforms/sandboxes; a relative "." keeps the daemon
		// usable rather than crashing before logging is even up.
		return "."
	}

	resolved, err := filepath.EvalSymlinks(exe)
	if err != nil {
		resolved = exe
	}

	return filepath.Dir(resolved)
}

// DefaultConfigPath returns config.toml next to the binary.
func DefaultConfigPath() string {
	return filepath.Join(executableDir(), "config.toml")
}

// DefaultEnvFilePath returns .env next to the binary.
func DefaultEnvFilePath() string {
	return filepath.Join(executableDir(), ".env")
}

// ResolveConfigPath determines the config file path using CLI > default
// priority (there is no environment variable for the config path itself —
// OBD_BT_MAC and friends configure values inside the file, not the file's
// location).
func ResolveConfigPath(cli CLIOverrides) string {
	if cli.ConfigPath != "" {
		return cli.ConfigPath
	}

	return DefaultConfigPath()
}

// ResolveEnvFilePath determines the .env file path using CLI > default
// priority.
func ResolveEnvFilePath(cli CLIOverrides) string {
	if cli.EnvFile != "" {
		return cli.EnvFile
	}

	return DefaultEnvFilePath()
}
