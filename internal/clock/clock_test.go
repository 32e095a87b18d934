package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIntervalTicker_PauseBlocksForever(t *testing.T) {
	ticker := NewIntervalTicker(5 * time.Millisecond)
	ticker.Pause()

	select {
	case <-ticker.C():
		t.Fatal("paused ticker must not deliver a tick")
	case <-time.After(30 * time.Millisecond):
	}
}

func TestIntervalTicker_ResumeDoesNotReplayAccumulatedTicks(t *testing.T) {
	ticker := NewIntervalTicker(5 * time.Millisecond)
	ticker.Pause()

	time.Sleep(30 * time.Millisecond) // time passes with nothing accumulating

	ticker.Resume()

	start := time.Now()
	<-ticker.C()
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, 4*time.Millisecond, "first tick after resume must be a fresh interval, not immediate")
}

func TestIntervalTicker_SetIntervalWhileRunning(t *testing.T) {
	ticker := NewIntervalTicker(time.Hour)
	ticker.SetInterval(5 * time.Millisecond)

	select {
	case <-ticker.C():
	case <-time.After(100 * time.Millisecond):
		t.Fatal("expected a tick at the new shorter interval")
	}
}

func TestReal_NowAndAfter(t *testing.T) {
	r := Real{}
	before := r.Now()

	<-r.After(time.Millisecond)

	assert.True(t, r.Now().After(before) || r.Now().Equal(before))
}
