package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/obdsentry/obdsentryd/internal/classify"
	"github.com/obdsentry/obdsentryd/internal/config"
)

// newReloadCmd builds `obdsentryd reload`: sends SIGHUP to the running
// daemon's PID file, which reloads profile and threshold edits without a
// restart (internal/orchestrator's RequestReload/handleReload).
func newReloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reload",
		Short: "Reload profile and threshold config in the running daemon",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runReload()
		},
	}
}

func runReload() error {
	cli := cliOverrides()
	logger := buildLogger(nil)

	cfg, err := config.Resolve(cli, logger)
	if err != nil {
		fmt.Println("Error:", err)

		return exitCodeError(classify.ExitCode(classify.Configuration))
	}

	pidPath := filepath.Join(filepath.Dir(cfg.Database.Path), "obdsentryd.pid")

	if err := sendSIGHUP(pidPath); err != nil {
		fmt.Println("Error:", err)

		return exitCodeError(classify.ExitCode(classify.System))
	}

	fmt.Println("reload signal sent")

	return nil
}
