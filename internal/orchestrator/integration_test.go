package orchestrator

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obdsentry/obdsentryd/internal/config"
	"github.com/obdsentry/obdsentryd/internal/store"
)

// TestOrchestrator_ColdBootAndOrderlyShutdown drives the full Run() event
// loop end-to-end against the built-in simulator (S1 cold boot, happy
// path) and then cancels the run context like a delivered SIGINT (S5
// orderly shutdown): exit code 0, no open drive session left behind.
func TestOrchestrator_ColdBootAndOrderlyShutdown(t *testing.T) {
	dir := t.TempDir()

	cfg := config.DefaultConfig()
	cfg.Database.Path = filepath.Join(dir, "obdsentry.db")
	cfg.Backup.FolderPath = filepath.Join(dir, "backups")
	cfg.Simulator.Enabled = true
	cfg.Simulator.Seed = 1
	cfg.Simulator.BaseRpm = 800
	cfg.RealtimeData.PollIntervalMs = 100
	cfg.Profiles.Definitions["daily"] = config.ProfileEntry{Name: "daily", PollIntervalMs: 100}

	logger := discardLogger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	o, err := New(ctx, cfg, "", logger)
	require.NoError(t, err)

	exitCode := make(chan int, 1)

	go func() {
		exitCode <- o.Run(ctx)
	}()

	// S1: give the poller time to connect and deliver several readings.
	require.Eventually(t, func() bool {
		snap := o.Status()

		return snap.ConnectionState == "connected" && snap.ReadingsTotal > 0
	}, 3*time.Second, 20*time.Millisecond, "expected the simulator link to connect and readings to be delivered")

	// S5: deliver an orderly shutdown signal equivalent (SIGINT cancels
	// the run context in signal.go's shutdownContext).
	cancel()

	select {
	case code := <-exitCode:
		assert.Equal(t, 0, code)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return within the shutdown budget")
	}

	s, err := store.Open(context.Background(), cfg.Database.Path, "NORMAL", 5000, logger)
	require.NoError(t, err)
	defer s.Close()

	driveID, err := s.OpenDriveSessionID(context.Background())
	require.NoError(t, err)
	assert.Empty(t, driveID, "an orderly shutdown must not leave an open drive session")
}
