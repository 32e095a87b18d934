// Package config implements TOML configuration loading, placeholder
// expansion, environment/CLI overrides, and validation for obdsentryd.
package config

// Config is the top-level configuration structure, decoded from TOML and
// then resolved against environment and CLI overrides into a frozen value.
// No component ever sees a mutable Config — the orchestrator resolves it
// once at startup and hands every component only the sections it needs.
type Config struct {
	Application  ApplicationConfig     `toml:"application"`
	Database     DatabaseConfig        `toml:"database"`
	Bluetooth    BluetoothConfig       `toml:"bluetooth"`
	Logging      LoggingConfig         `toml:"logging"`
	Profiles     ProfilesConfig        `toml:"profiles"`
	RealtimeData RealtimeDataConfig    `toml:"realtimeData"`
	Analysis     AnalysisConfig        `toml:"analysis"`
	Alerts       map[string][]Threshold `toml:"alerts"`
	AiAnalysis   AiAnalysisConfig      `toml:"aiAnalysis"`
	Backup       BackupConfig          `toml:"backup"`
	Hardware     HardwareConfig        `toml:"hardware"`
	Simulator    SimulatorConfig       `toml:"simulator"`
}

// ApplicationConfig names the deployment environment and instance.
type ApplicationConfig struct {
	Name        string `toml:"name"`
	Environment string `toml:"environment"`
	VIN         string `toml:"vin"` // empty disables VinResolver entirely
}

// DatabaseConfig controls the Store's connection and retention policy.
type DatabaseConfig struct {
	Path            string `toml:"path"`
	Synchronous     string `toml:"synchronous"`
	BusyTimeoutMs   int    `toml:"busy_timeout_ms"`
	RetentionDays   int    `toml:"retention_days"`
	VacuumInterval  string `toml:"vacuum_interval"`
}

// BluetoothConfig addresses the ELM327-compatible dongle.
type BluetoothConfig struct {
	Mac            string `toml:"mac"`
	ConnectTimeout string `toml:"connect_timeout"`
	ReadTimeout    string `toml:"read_timeout"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	LogLevel  string `toml:"log_level"`
	LogFile   string `toml:"log_file"`
	LogFormat string `toml:"log_format"`
}

// ProfilesConfig selects the active profile and lists the ones available.
type ProfilesConfig struct {
	ActiveProfile     string                  `toml:"activeProfile"`
	AvailableProfiles []string                `toml:"availableProfiles"`
	Definitions       map[string]ProfileEntry `toml:"profile"`
}

// ProfileEntry is one named tuning profile's poll interval. Its thresholds
// live in the top-level Alerts map keyed by the same profile id.
type ProfileEntry struct {
	Name           string `toml:"name"`
	PollIntervalMs int    `toml:"poll_interval_ms"`
}

// Threshold is one AlertEngine rule.
type Threshold struct {
	ID         string  `toml:"id"`
	Parameter  string  `toml:"parameter"`
	Direction  string  `toml:"direction"` // "above" or "below"
	Value      float64 `toml:"value"`
	CooldownMs int     `toml:"cooldown_ms"`
}

// RealtimeDataConfig lists the parameters Poller samples and the default
// interval, overridden per-profile by ProfileEntry.PollIntervalMs.
type RealtimeDataConfig struct {
	Parameters        []string `toml:"parameters"`
	PollIntervalMs    int      `toml:"poll_interval_ms"`
}

// AnalysisConfig holds DriveDetector's RPM thresholds.
type AnalysisConfig struct {
	StartRpm     float64 `toml:"start_rpm"`
	StartHoldSec int     `toml:"start_hold_sec"`
	EndRpm       float64 `toml:"end_rpm"`
	EndHoldSec   int     `toml:"end_hold_sec"`
}

// AiAnalysisConfig configures the optional remote analysis host.
type AiAnalysisConfig struct {
	Enabled    bool   `toml:"enabled"`
	BaseURL    string `toml:"base_url"`
	Model      string `toml:"model"`
	APIKey     string `toml:"api_key"`
	TimeoutSec int    `toml:"timeout_sec"`
}

// BackupConfig drives BackupCoordinator.
type BackupConfig struct {
	FolderPath     string   `toml:"folder_path"`
	ScheduleTime   string   `toml:"schedule_time"` // "HH:MM" local
	CatchupDays    int      `toml:"catchup_days"`
	MaxBackups     int      `toml:"max_backups"`
	Gzip           bool     `toml:"gzip"`
	Uploader       string   `toml:"uploader"` // "fs" or "s3"
	BandwidthLimit string   `toml:"bandwidth_limit"` // e.g. "5MB/s"; empty means unlimited
	S3             S3Config `toml:"s3"`
}

// S3Config configures the S3 uploader when backup.uploader = "s3".
type S3Config struct {
	Bucket string `toml:"bucket"`
	Region string `toml:"region"`
	Prefix string `toml:"prefix"`
}

// HardwareConfig configures HardwareSup's three optional subdevices plus
// the Orchestrator's metrics endpoint.
type HardwareConfig struct {
	I2CBus           string `toml:"i2c_bus"`
	I2CAddr          int    `toml:"i2c_addr"`
	GpioButtonPin    int    `toml:"gpio_button_pin"`
	AlertIndicatorPin int   `toml:"alert_indicator_pin"` // 0 disables LED/haptic alert feedback
	UpsPollInterval  string `toml:"ups_poll_interval"`
	ShutdownDelaySec int    `toml:"shutdown_delay_sec"`
	LowSocPct        int    `toml:"low_soc_pct"`
	DisplayEnabled   bool   `toml:"display_enabled"`
	DisplayDriver    string `toml:"display_driver"` // "headless", "text", "websocket"
	DisplayRefreshMs int    `toml:"display_refresh_ms"`
	DisplayWsAddr    string `toml:"display_ws_addr"`
	MetricsAddr      string `toml:"metrics_addr"`
	MaxErrorStreak   int    `toml:"max_error_streak"`
	MaxBackoff       string `toml:"max_backoff"`
}

// SimulatorConfig is used in place of a real dongle when --simulate is set
// or simulator.enabled is true.
type SimulatorConfig struct {
	Enabled bool    `toml:"enabled"`
	Seed    int64   `toml:"seed"`
	BaseRpm float64 `toml:"base_rpm"`
}
