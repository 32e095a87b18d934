package profile

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obdsentry/obdsentryd/internal/config"
	"github.com/obdsentry/obdsentryd/internal/store"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()

	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	s, err := store.Open(context.Background(), filepath.Join(dir, "test.db"), "NORMAL", 5000, logger)
	require.NoError(t, err)

	t.Cleanup(func() { s.Close() })

	return s
}

func TestLoad_DefaultsToDaily(t *testing.T) {
	s := openTestStore(t)
	cfg := config.DefaultConfig()
	cfg.Profiles.AvailableProfiles = nil
	cfg.Profiles.ActiveProfile = "daily"

	ps, err := Load(context.Background(), s, cfg)
	require.NoError(t, err)

	_, ok := ps.Get("daily")
	assert.True(t, ok)
}

func TestLoad_RejectsUnknownActiveProfile(t *testing.T) {
	s := openTestStore(t)
	cfg := config.DefaultConfig()
	cfg.Profiles.AvailableProfiles = []string{"daily"}
	cfg.Profiles.ActiveProfile = "nonexistent"

	_, err := Load(context.Background(), s, cfg)
	assert.Error(t, err)
}

func TestLoad_SeedsThresholds(t *testing.T) {
	s := openTestStore(t)
	cfg := config.DefaultConfig()
	cfg.Profiles.AvailableProfiles = []string{"daily"}
	cfg.Alerts = map[string][]config.Threshold{
		"daily": {{Parameter: "RPM", Direction: "above", Value: 1000, CooldownMs: 30000}},
	}

	ps, err := Load(context.Background(), s, cfg)
	require.NoError(t, err)

	p, ok := ps.Get("daily")
	require.True(t, ok)
	require.Len(t, p.Thresholds, 1)
	assert.Equal(t, "RPM", p.Thresholds[0].Parameter)
}

func TestSwitcher_AppliesOnlyWhenQueued(t *testing.T) {
	sw := NewSwitcher()
	assert.Equal(t, "", sw.ApplyPending())

	sw.Queue("performance")
	assert.Equal(t, "performance", sw.ApplyPending())
	assert.Equal(t, "", sw.ApplyPending(), "ApplyPending must clear the queue")
}

func TestActiveProfile_GetSet(t *testing.T) {
	ap := NewActiveProfile("daily")
	assert.Equal(t, "daily", ap.Get())

	ap.Set("performance")
	assert.Equal(t, "performance", ap.Get())
}
