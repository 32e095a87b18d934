package config

// Default values for configuration options — the "layer 0" of the
// four-layer override chain (defaults -> file -> env -> CLI). Chosen to be
// safe starting points that run headless with a simulator and no config
// file at all.
const (
	defaultDBPath          = "obdsentry.db"
	defaultSynchronous     = "NORMAL"
	defaultBusyTimeoutMs   = 5000
	defaultRetentionDays   = 365
	defaultVacuumInterval  = "24h"

	defaultBTConnectTimeout = "10s"
	defaultBTReadTimeout    = "5s"

	defaultLogLevel  = "info"
	defaultLogFormat = "text"

	defaultActiveProfile  = "daily"
	defaultPollIntervalMs = 1000

	defaultStartRpm     = 500
	defaultStartHoldSec = 10
	defaultEndRpm       = 0
	defaultEndHoldSec   = 60

	defaultAiTimeoutSec = 120

	defaultBackupSchedule    = "03:00"
	defaultCatchupDays       = 2
	defaultMaxBackups        = 30
	defaultUploader          = "fs"

	defaultI2CBus          = "/dev/i2c-1"
	defaultI2CAddr         = 0x36
	defaultUpsPollInterval = "5s"
	defaultShutdownDelay   = 30
	defaultLowSocPct       = 10
	defaultDisplayDriver   = "headless"
	defaultDisplayRefresh  = 1000
	defaultMaxErrorStreak  = 3
	defaultMaxBackoff      = "60s"
)

// DefaultConfig returns a Config populated with all default values. It is
// the starting point both for TOML decoding (so unset fields keep their
// default) and for a fully config-less run with --simulate.
func DefaultConfig() *Config {
	return &Config{
		Application: ApplicationConfig{
			Name:        "obdsentryd",
			Environment: "production",
		},
		Database: DatabaseConfig{
			Path:           defaultDBPath,
			Synchronous:    defaultSynchronous,
			BusyTimeoutMs:  defaultBusyTimeoutMs,
			RetentionDays:  defaultRetentionDays,
			VacuumInterval: defaultVacuumInterval,
		},
		Bluetooth: BluetoothConfig{
			ConnectTimeout: defaultBTConnectTimeout,
			ReadTimeout:    defaultBTReadTimeout,
		},
		Logging: LoggingConfig{
			LogLevel:  defaultLogLevel,
			LogFormat: defaultLogFormat,
		},
		Profiles: ProfilesConfig{
			ActiveProfile:     defaultActiveProfile,
			AvailableProfiles: []string{"daily", "performance"},
			Definitions: map[string]ProfileEntry{
				"daily":       {Name: "daily", PollIntervalMs: defaultPollIntervalMs},
				"performance": {Name: "performance", PollIntervalMs: 250},
			},
		},
		RealtimeData: RealtimeDataConfig{
			Parameters:     []string{"RPM", "SPEED", "COOLANT_TEMP", "THROTTLE_POS"},
			PollIntervalMs: defaultPollIntervalMs,
		},
		Analysis: AnalysisConfig{
			StartRpm:     defaultStartRpm,
			StartHoldSec: defaultStartHoldSec,
			EndRpm:       defaultEndRpm,
			EndHoldSec:   defaultEndHoldSec,
		},
		Alerts: map[string][]Threshold{},
		AiAnalysis: AiAnalysisConfig{
			TimeoutSec: defaultAiTimeoutSec,
		},
		Backup: BackupConfig{
			ScheduleTime: defaultBackupSchedule,
			CatchupDays:  defaultCatchupDays,
			MaxBackups:   defaultMaxBackups,
			Uploader:     defaultUploader,
		},
		Hardware: HardwareConfig{
			I2CBus:           defaultI2CBus,
			I2CAddr:          defaultI2CAddr,
			UpsPollInterval:  defaultUpsPollInterval,
			ShutdownDelaySec: defaultShutdownDelay,
			LowSocPct:        defaultLowSocPct,
			DisplayDriver:    defaultDisplayDriver,
			DisplayRefreshMs: defaultDisplayRefresh,
			MaxErrorStreak:   defaultMaxErrorStreak,
			MaxBackoff:       defaultMaxBackoff,
		},
	}
}
