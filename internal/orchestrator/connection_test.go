package orchestrator

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obdsentry/obdsentryd/internal/obd"
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

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

func TestConnState_String(t *testing.T) {
	assert.Equal(t, "disconnected", Disconnected.String())
	assert.Equal(t, "connecting", Connecting.String())
	assert.Equal(t, "connected", Connected.String())
	assert.Equal(t, "degraded", Degraded.String())
	assert.Equal(t, "reconnecting", Reconnecting.String())
}

func TestConnection_ConnectsAndReportsState(t *testing.T) {
	s := openTestStore(t)
	link := obd.NewSimulator(1, 800)

	var connected, disconnected int

	c := NewConnection(link, s, func() { connected++ }, func() { disconnected++ }, discardLogger())
	assert.Equal(t, Disconnected, c.State())

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return c.State() == Connected }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, connected)

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}

	assert.Equal(t, Disconnected, c.State())
}

func TestNewReconnectBackoff_GrowsAndCaps(t *testing.T) {
	b := newReconnectBackoff()

	first, _ := b.Next()
	assert.GreaterOrEqual(t, first, backoffBase)

	var last time.Duration
	for i := 0; i < 10; i++ {
		d, _ := b.Next()
		last = d
	}

	assert.Greater(t, last, first)
	assert.LessOrEqual(t, last, backoffCap)
}
