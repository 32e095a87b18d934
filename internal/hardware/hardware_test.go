package hardware

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obdsentry/obdsentryd/internal/display"
	"github.com/obdsentry/obdsentryd/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func openTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.Open(context.Background(), t.TempDir()+"/test.db", "NORMAL", 5000, testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	return s
}

// failingUps always errors, to exercise the backoff tracker.
type failingUps struct{ calls int }

func (f *failingUps) Read(_ context.Context) (store.UpsSample, error) {
	f.calls++

	return store.UpsSample{}, errFake
}

func (f *failingUps) Close() error { return nil }

var errFake = errors.New("simulated UPS read failure")

func TestSup_LowBatterySignalsShutdown(t *testing.T) {
	s := openTestStore(t)
	sim := NewSimUps(1)
	sim.soc = 5 // below default low-SoC threshold

	sup := New(sim, NoButton{}, NoIndicator{}, s, display.NewHeadless(testLogger()), Config{
		PollInterval: time.Millisecond,
		LowSocPct:    10,
		MaxBackoff:   time.Second,
	}, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	go sup.Run(ctx)

	select {
	case req := <-sup.Shutdown:
		assert.Equal(t, "low battery", req.Reason)
	case <-time.After(time.Second):
		t.Fatal("expected a low-battery shutdown request")
	}
}

func TestTracker_BacksOffAfterThreshold(t *testing.T) {
	tr := newTracker(time.Minute, testLogger())

	base := 100 * time.Millisecond

	var last time.Duration
	for i := 0; i < failureThreshold+2; i++ {
		last = tr.recordFailure("ups", base, errFake)
	}

	assert.Greater(t, last, base, "interval should have doubled past the threshold")
}

func TestTracker_SuccessResetsStreak(t *testing.T) {
	tr := newTracker(time.Minute, testLogger())

	base := 100 * time.Millisecond
	tr.recordFailure("ups", base, errFake)
	tr.recordFailure("ups", base, errFake)

	reset := tr.recordSuccess("ups")
	assert.Equal(t, base, reset)
}

func TestSup_ButtonLongPressSignalsShutdown(t *testing.T) {
	s := openTestStore(t)

	sup := New(NewSimUps(1), stubButton{pressed: true}, NoIndicator{}, s, display.NewHeadless(testLogger()), Config{
		PollInterval: time.Hour,
		MaxBackoff:   time.Second,
	}, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	go sup.Run(ctx)

	select {
	case req := <-sup.Shutdown:
		assert.Equal(t, "button held", req.Reason)
	case <-time.After(time.Second):
		t.Fatal("expected a button-held shutdown request")
	}
}

type stubButton struct{ pressed bool }

func (s stubButton) WaitForLongPress(ctx context.Context, _ time.Duration) (bool, error) {
	if s.pressed {
		return true, nil
	}

	<-ctx.Done()

	return false, nil
}
