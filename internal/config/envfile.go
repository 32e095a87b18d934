package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// LoadEnvFile parses a simple KEY=VALUE .env file and sets each variable in
// the process environment, without overwriting a variable already set —
// actual environment wins over the file, matching the precedence a
// systemd-unit EnvironmentFile directive would give. Missing path is not an
// error: --env-file is optional, and most deployments rely on the unit
// file's own Environment= lines instead.
func LoadEnvFile(path string) error {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("opening env file %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("env file %s: malformed line %q", path, line)
		}

		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		if _, set := os.LookupEnv(key); !set {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("env file %s: setting %s: %w", path, key, err)
			}
		}
	}

	return scanner.Err()
}
