package config

import "os"

// Environment variable names recognized as config overrides.
const (
	EnvBTMac        = "OBD_BT_MAC"
	EnvDBPath       = "DB_PATH"
	EnvLogLevel     = "LOG_LEVEL"
	EnvLogFile      = "LOG_FILE"
	EnvExportDir    = "EXPORT_DIR"
	EnvOllamaURL    = "OLLAMA_BASE_URL"
	EnvAiModel      = "AI_MODEL"
	EnvEnvironment  = "APP_ENVIRONMENT"
)

// EnvOverrides holds values read from the environment. ReadEnvOverrides
// never mutates Config — callers apply the relevant fields during Resolve.
type EnvOverrides struct {
	BTMac       string
	DBPath      string
	LogLevel    string
	LogFile     string
	ExportDir   string
	OllamaURL   string
	AiModel     string
	Environment string
}

// ReadEnvOverrides reads the recognized environment variables.
func ReadEnvOverrides() EnvOverrides {
	return EnvOverrides{
		BTMac:       os.Getenv(EnvBTMac),
		DBPath:      os.Getenv(EnvDBPath),
		LogLevel:    os.Getenv(EnvLogLevel),
		LogFile:     os.Getenv(EnvLogFile),
		ExportDir:   os.Getenv(EnvExportDir),
		OllamaURL:   os.Getenv(EnvOllamaURL),
		AiModel:     os.Getenv(EnvAiModel),
		Environment: os.Getenv(EnvEnvironment),
	}
}

// apply layers env onto cfg. Called after the file layer and before CLI,
// matching the four-layer order defaults -> file -> env -> CLI.
func (e EnvOverrides) apply(cfg *Config) {
	if e.BTMac != "" {
		cfg.Bluetooth.Mac = e.BTMac
	}

	if e.DBPath != "" {
		cfg.Database.Path = e.DBPath
	}

	if e.LogLevel != "" {
		cfg.Logging.LogLevel = e.LogLevel
	}

	if e.LogFile != "" {
		cfg.Logging.LogFile = e.LogFile
	}

	if e.OllamaURL != "" {
		cfg.AiAnalysis.BaseURL = e.OllamaURL
	}

	if e.AiModel != "" {
		cfg.AiAnalysis.Model = e.AiModel
	}

	if e.Environment != "" {
		cfg.Application.Environment = e.Environment
	}
}

// CLIOverrides holds values from command-line flags — the final, highest
// priority layer.
type CLIOverrides struct {
	ConfigPath string
	EnvFile    string
	Simulate   bool
	DryRun     bool
	Verbose    bool
}

func (c CLIOverrides) apply(cfg *Config) {
	if c.Simulate {
		cfg.Simulator.Enabled = true
	}

	if c.Verbose {
		cfg.Logging.LogLevel = "debug"
	}
}
