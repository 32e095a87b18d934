package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/obdsentry/obdsentryd/internal/classify"
	"github.com/obdsentry/obdsentryd/internal/config"
	"github.com/obdsentry/obdsentryd/internal/orchestrator"
)

// newDaemonCmd builds the long-running `obdsentryd daemon` command: the
// spec's implicit "run forever" mode, performing the full 14-step startup
// sequence and blocking until a shutdown is triggered.
func newDaemonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run the telemetry daemon in the foreground",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDaemon(cmd.Context())
		},
	}
}

func runDaemon(ctx context.Context) error {
	cli := cliOverrides()

	cfgPath := config.ResolveConfigPath(cli)

	bootLogger := buildLogger(nil)

	cfg, err := config.Resolve(cli, bootLogger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)

		return exitCodeError(classify.ExitCode(classify.Configuration))
	}

	logger := buildLogger(cfg)

	if flagDryRun {
		logger.Info("configuration is valid", "config_path", cfgPath)

		return nil
	}

	pidPath := filepath.Join(filepath.Dir(cfg.Database.Path), "obdsentryd.pid")

	cleanup, err := writePIDFile(pidPath)
	if err != nil {
		logger.Error("failed to acquire PID file lock", "path", pidPath, "error", err)

		return exitCodeError(classify.ExitCode(classify.System))
	}
	defer cleanup()

	runCtx := shutdownContext(ctx, logger)

	orch, err := orchestrator.New(runCtx, cfg, cfgPath, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)

		return exitCodeError(classify.ExitCode(classify.Classify(err)))
	}

	watchSighup(runCtx, orch)
	watchConfigFile(runCtx, cfgPath, orch, logger)

	code := orch.Run(runCtx)
	if code != 0 {
		return exitCodeError(code)
	}

	return nil
}

// watchSighup relays SIGHUP to the orchestrator's reload path until ctx is
// done, supporting profile/threshold edits without a restart.
func watchSighup(ctx context.Context, orch *orchestrator.Orchestrator) {
	sigCh := sighupChannel()

	go func() {
		defer signal.Stop(sigCh)

		for {
			select {
			case <-ctx.Done():
				return
			case <-sigCh:
				orch.RequestReload()
			}
		}
	}()
}

// sighupChannel returns a channel registered to receive SIGHUP.
func sighupChannel() chan os.Signal {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP)

	return sigCh
}

// watchConfigFile watches the resolved config file for edits and triggers
// the same reload path as SIGHUP, so a saved profile/threshold change takes
// effect without the operator needing to find the daemon's PID. A missing
// or unwatchable path just disables the watch; SIGHUP remains available.
func watchConfigFile(ctx context.Context, cfgPath string, orch *orchestrator.Orchestrator, logger *slog.Logger) {
	if cfgPath == "" {
		return
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Warn("config file watch disabled", "error", err)

		return
	}

	if err := watcher.Add(filepath.Dir(cfgPath)); err != nil {
		logger.Warn("config file watch disabled", "path", cfgPath, "error", err)
		watcher.Close()

		return
	}

	go func() {
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}

				if filepath.Clean(ev.Name) == filepath.Clean(cfgPath) && ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
					orch.RequestReload()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}

				logger.Warn("config file watch error", "error", err)
			}
		}
	}()
}
