package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/obdsentry/obdsentryd/internal/config"
)

// version is set at build time via ldflags.
var version = "dev"

// Persistent flags, bound in newRootCmd and read by every subcommand.
var (
	flagConfigPath string
	flagEnvFile    string
	flagSimulate   bool
	flagDryRun     bool
	flagVerbose    bool
)

// cliOverrides collects the bound flag values into the config package's
// override type, once PersistentPreRunE has parsed them.
func cliOverrides() config.CLIOverrides {
	return config.CLIOverrides{
		ConfigPath: flagConfigPath,
		EnvFile:    flagEnvFile,
		Simulate:   flagSimulate,
		DryRun:     flagDryRun,
		Verbose:    flagVerbose,
	}
}

// newRootCmd builds and returns the fully-assembled root command with all
// subcommands registered. Called once from main().
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "obdsentryd",
		Short:   "Vehicle telemetry daemon",
		Long:    "obdsentryd polls an OBD-II Bluetooth dongle, detects drives, evaluates alert thresholds, and backs up its database on a schedule.",
		Version: version,
		// Silence Cobra's default error/usage printing — we handle it ourselves.
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "config file path (default: config.toml next to the binary)")
	cmd.PersistentFlags().StringVar(&flagEnvFile, "env-file", "", "dotenv file path (default: .env next to the binary)")
	cmd.PersistentFlags().BoolVar(&flagSimulate, "simulate", false, "use the built-in OBD-II/UPS simulator instead of real hardware")
	cmd.PersistentFlags().BoolVar(&flagDryRun, "dry-run", false, "validate configuration and exit without starting any component")
	cmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(newDaemonCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newReloadCmd())
	cmd.AddCommand(newProfileCmd())

	return cmd
}

// buildLogger returns a logger writing to cfg.Logging.LogFile (plus a
// sibling "-error" file for Error-level records) when set, otherwise
// stderr, at the level named by cfg.Logging.LogLevel. Stderr
// output is plain text when attached to a terminal and JSON otherwise (e.g.
// under systemd, where journald timestamps each line itself).
func buildLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelWarn

	if cfg != nil {
		switch cfg.Logging.LogLevel {
		case "debug":
			level = slog.LevelDebug
		case "info":
			level = slog.LevelInfo
		case "error":
			level = slog.LevelError
		default:
			level = slog.LevelWarn
		}
	}

	if flagVerbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg == nil || cfg.Logging.LogFile == "" {
		w := os.Stderr
		if isatty.IsTerminal(w.Fd()) {
			return slog.New(slog.NewTextHandler(w, opts))
		}

		return slog.New(slog.NewJSONHandler(w, opts))
	}

	primaryFile, err := openLogFile(cfg.Logging.LogFile)
	if err != nil {
		fallback := slog.New(slog.NewJSONHandler(os.Stderr, opts))
		fallback.Warn("failed to open configured log file, logging to stderr", "path", cfg.Logging.LogFile, "error", err)

		return fallback
	}

	errPath := strings.TrimSuffix(cfg.Logging.LogFile, filepath.Ext(cfg.Logging.LogFile)) + "-error" + filepath.Ext(cfg.Logging.LogFile)

	errFile, err := openLogFile(errPath)
	if err != nil {
		return slog.New(slog.NewJSONHandler(primaryFile, opts))
	}

	primary := slog.NewJSONHandler(primaryFile, opts)
	errHandler := slog.NewJSONHandler(errFile, &slog.HandlerOptions{Level: slog.LevelError})

	return slog.New(newErrorTeeHandler(primary, errHandler))
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}
