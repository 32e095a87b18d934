package config

import (
	"fmt"
	"time"

	"github.com/obdsentry/obdsentryd/internal/classify"
)

// Duration parses a Go duration string from the config, wrapping parse
// failures as a Configuration error that names the offending key.
func Duration(key, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, classify.New(classify.Configuration, fmt.Errorf("%s: invalid duration %q: %w", key, value, err))
	}

	return d, nil
}

// MustDuration parses value or panics. Only used for compiled-in defaults
// that are validated by their own tests, never for user-supplied values.
func MustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		panic(fmt.Sprintf("invalid built-in duration %q: %v", value, err))
	}

	return d
}
