package config

import (
	"errors"
	"fmt"

	"github.com/obdsentry/obdsentryd/internal/classify"
)

// Validate accumulates every configuration problem rather than stopping at
// the first — a user fixing one typo at a time against single-error
// feedback is the worst possible config-editing loop.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Database.Path == "" {
		errs = append(errs, fmt.Errorf("database.path: must not be empty"))
	}

	switch cfg.Database.Synchronous {
	case "NORMAL", "FULL", "OFF":
	default:
		errs = append(errs, fmt.Errorf("database.synchronous: invalid value %q (want NORMAL, FULL, or OFF)", cfg.Database.Synchronous))
	}

	if cfg.Database.RetentionDays <= 0 {
		errs = append(errs, fmt.Errorf("database.retention_days: must be positive, got %d", cfg.Database.RetentionDays))
	}

	if !cfg.Simulator.Enabled && cfg.Bluetooth.Mac == "" {
		errs = append(errs, fmt.Errorf("bluetooth.mac: required when simulator.enabled is false (set OBD_BT_MAC or simulator.enabled=true)"))
	}

	switch cfg.Logging.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.log_level: invalid value %q", cfg.Logging.LogLevel))
	}

	if cfg.Profiles.ActiveProfile == "" {
		errs = append(errs, fmt.Errorf("profiles.activeProfile: must not be empty"))
	} else if _, ok := cfg.Profiles.Definitions[cfg.Profiles.ActiveProfile]; !ok && len(cfg.Profiles.Definitions) > 0 {
		errs = append(errs, fmt.Errorf("profiles.activeProfile: %q is not defined under [profiles.profile.*]", cfg.Profiles.ActiveProfile))
	}

	for id, entry := range cfg.Profiles.Definitions {
		if entry.PollIntervalMs <= 0 {
			errs = append(errs, fmt.Errorf("profiles.profile.%s.poll_interval_ms: must be positive, got %d", id, entry.PollIntervalMs))
		}
	}

	for profileID, thresholds := range cfg.Alerts {
		for i, th := range thresholds {
			if th.Parameter == "" {
				errs = append(errs, fmt.Errorf("alerts.%s[%d].parameter: must not be empty", profileID, i))
			}

			if th.Direction != "above" && th.Direction != "below" {
				errs = append(errs, fmt.Errorf("alerts.%s[%d].direction: must be \"above\" or \"below\", got %q", profileID, i, th.Direction))
			}

			if th.CooldownMs < 0 {
				errs = append(errs, fmt.Errorf("alerts.%s[%d].cooldown_ms: must not be negative", profileID, i))
			}
		}
	}

	if cfg.Analysis.StartHoldSec <= 0 {
		errs = append(errs, fmt.Errorf("analysis.start_hold_sec: must be positive"))
	}

	if cfg.Analysis.EndHoldSec <= 0 {
		errs = append(errs, fmt.Errorf("analysis.end_hold_sec: must be positive"))
	}

	if cfg.AiAnalysis.Enabled && cfg.AiAnalysis.BaseURL == "" {
		errs = append(errs, fmt.Errorf("aiAnalysis.base_url: required when aiAnalysis.enabled is true"))
	}

	switch cfg.Backup.Uploader {
	case "fs", "s3":
	default:
		errs = append(errs, fmt.Errorf("backup.uploader: invalid value %q (want fs or s3)", cfg.Backup.Uploader))
	}

	if cfg.Backup.Uploader == "s3" && cfg.Backup.S3.Bucket == "" {
		errs = append(errs, fmt.Errorf("backup.s3.bucket: required when backup.uploader = \"s3\""))
	}

	if cfg.Backup.MaxBackups < 1 {
		errs = append(errs, fmt.Errorf("backup.max_backups: must be at least 1"))
	}

	switch cfg.Hardware.DisplayDriver {
	case "headless", "text", "websocket":
	default:
		errs = append(errs, fmt.Errorf("hardware.display_driver: invalid value %q", cfg.Hardware.DisplayDriver))
	}

	if cfg.Hardware.DisplayDriver == "websocket" && cfg.Hardware.DisplayWsAddr == "" {
		errs = append(errs, fmt.Errorf("hardware.display_ws_addr: required when hardware.display_driver = \"websocket\""))
	}

	if cfg.Hardware.LowSocPct < 0 || cfg.Hardware.LowSocPct > 100 {
		errs = append(errs, fmt.Errorf("hardware.low_soc_pct: must be within 0..100, got %d", cfg.Hardware.LowSocPct))
	}

	if len(errs) == 0 {
		return nil
	}

	return classify.New(classify.Configuration, errors.Join(errs...))
}
