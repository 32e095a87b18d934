package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/obdsentry/obdsentryd/internal/classify"
	"github.com/obdsentry/obdsentryd/internal/config"
)

const profileHTTPTimeout = 3 * time.Second

// newProfileCmd builds `obdsentryd profile <id>`: queues a profile switch
// against a running daemon over HTTP (internal/orchestrator's
// profileHandler), applied at the next drive_end by
// internal/profile.Switcher.ApplyPending.
func newProfileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profile <id>",
		Short: "Queue a profile switch on the running daemon, applied at the next drive end",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProfileSwitch(cmd.Context(), args[0])
		},
	}
}

func runProfileSwitch(ctx context.Context, id string) error {
	cli := cliOverrides()
	logger := buildLogger(nil)

	cfg, err := config.Resolve(cli, logger)
	if err != nil {
		fmt.Println("Error:", err)

		return exitCodeError(classify.ExitCode(classify.Configuration))
	}

	if cfg.Hardware.MetricsAddr == "" {
		fmt.Println("Error: hardware.metrics_addr is not configured, so there is no running daemon to reach")

		return exitCodeError(classify.ExitCode(classify.Configuration))
	}

	if err := postProfileSwitch(ctx, cfg.Hardware.MetricsAddr, id); err != nil {
		fmt.Println("Error:", err)

		return exitCodeError(classify.ExitCode(classify.System))
	}

	fmt.Printf("profile switch to %q queued for the next drive end\n", id)

	return nil
}

func postProfileSwitch(ctx context.Context, addr, id string) error {
	ctx, cancel := context.WithTimeout(ctx, profileHTTPTimeout)
	defer cancel()

	body, err := json.Marshal(map[string]string{"id": id})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "http://"+addr+"/profile", bytes.NewReader(body))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)

		return fmt.Errorf("daemon returned %d: %s", resp.StatusCode, msg)
	}

	return nil
}
