package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/obdsentry/obdsentryd/internal/classify"
	"github.com/obdsentry/obdsentryd/internal/config"
	"github.com/obdsentry/obdsentryd/internal/orchestrator"
	"github.com/obdsentry/obdsentryd/internal/store"
)

const statusHTTPTimeout = 3 * time.Second

// newStatusCmd builds `obdsentryd status`: it queries a running daemon's
// HTTP status endpoint when reachable, and falls back to reading the
// database directly otherwise (live call vs. local-state read).
func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the daemon's current status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd.Context())
		},
	}
}

func runStatus(ctx context.Context) error {
	cli := cliOverrides()
	logger := buildLogger(nil)

	cfg, err := config.Resolve(cli, logger)
	if err != nil {
		fmt.Println("Error:", err)

		return exitCodeError(classify.ExitCode(classify.Configuration))
	}

	if cfg.Hardware.MetricsAddr != "" {
		if snap, err := fetchRemoteStatus(ctx, cfg.Hardware.MetricsAddr); err == nil {
			printRemoteStatus(snap)

			return nil
		}
	}

	return printLocalStatus(ctx, cfg)
}

func fetchRemoteStatus(ctx context.Context, addr string) (orchestrator.StatusSnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, statusHTTPTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+addr+"/status", nil)
	if err != nil {
		return orchestrator.StatusSnapshot{}, err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return orchestrator.StatusSnapshot{}, err
	}
	defer resp.Body.Close()

	var snap orchestrator.StatusSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return orchestrator.StatusSnapshot{}, err
	}

	return snap, nil
}

func printRemoteStatus(snap orchestrator.StatusSnapshot) {
	fmt.Printf("daemon:            running (live)\n")
	fmt.Printf("connection:        %s\n", snap.ConnectionState)
	fmt.Printf("uptime:            %.0fs\n", snap.UptimeSec)
	fmt.Printf("active profile:    %s\n", snap.ActiveProfile)
	fmt.Printf("readings total:    %d (%.1f/min)\n", snap.ReadingsTotal, snap.ReadingsPerMin)

	if snap.OpenDriveID != "" {
		fmt.Printf("open drive:        %s\n", snap.OpenDriveID)
	}

	for kind, n := range snap.ErrorCounts {
		fmt.Printf("errors[%s]:        %d\n", kind, n)
	}
}

// printLocalStatus reads whatever the database shows without a live
// daemon: the active profile from config, any open drive session, and the
// time of the most recent successful database backup.
func printLocalStatus(ctx context.Context, cfg *config.Config) error {
	s, err := store.Open(ctx, cfg.Database.Path, cfg.Database.Synchronous, cfg.Database.BusyTimeoutMs, buildLogger(nil))
	if err != nil {
		fmt.Println("Error opening database:", err)

		return exitCodeError(classify.ExitCode(classify.System))
	}
	defer s.Close()

	fmt.Printf("daemon:            not reachable (reading database directly)\n")
	fmt.Printf("active profile:    %s\n", cfg.Profiles.ActiveProfile)

	driveID, err := s.OpenDriveSessionID(ctx)
	if err == nil && driveID != "" {
		fmt.Printf("open drive:        %s\n", driveID)
	} else {
		fmt.Printf("open drive:        none\n")
	}

	lastBackup, err := s.LastSuccessfulBackup(ctx, store.BackupDatabase)
	if err == nil && lastBackup > 0 {
		fmt.Printf("last backup:       %s\n", time.UnixMilli(lastBackup).Format(time.RFC3339))
	} else {
		fmt.Printf("last backup:       never\n")
	}

	return nil
}
