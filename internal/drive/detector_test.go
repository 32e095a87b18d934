package drive

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		StartRpm:  500,
		StartHold: 10 * time.Second,
		EndRpm:    0,
		EndHold:   60 * time.Second,
	}
}

func TestDetector_StartsAfterHold(t *testing.T) {
	d := New(testConfig())
	base := time.Unix(0, 0)

	assert.Equal(t, Stopped, d.State())

	tr := d.Feed(base, 800)
	assert.False(t, tr.Start)
	assert.Equal(t, Starting, d.State())

	tr = d.Feed(base.Add(5*time.Second), 800)
	assert.False(t, tr.Start)

	tr = d.Feed(base.Add(10*time.Second), 800)
	require.True(t, tr.Start)
	assert.Equal(t, Running, d.State())
}

func TestDetector_DipResetsStartHold(t *testing.T) {
	d := New(testConfig())
	base := time.Unix(0, 0)

	d.Feed(base, 800)
	d.Feed(base.Add(9*time.Second), 200) // dip below start_rpm resets

	assert.Equal(t, Stopped, d.State())

	tr := d.Feed(base.Add(9*time.Second), 800)
	assert.False(t, tr.Start)
	assert.Equal(t, Starting, d.State())

	tr = d.Feed(base.Add(19*time.Second), 800)
	require.True(t, tr.Start)
}

func TestDetector_EndsAfterHold(t *testing.T) {
	d := New(testConfig())
	base := time.Unix(0, 0)

	d.Feed(base, 800)
	d.Feed(base.Add(10*time.Second), 800)
	require.Equal(t, Running, d.State())

	tr := d.Feed(base.Add(20*time.Second), 0)
	assert.False(t, tr.End)
	assert.Equal(t, Stopping, d.State())

	tr = d.Feed(base.Add(80*time.Second), 0)
	require.True(t, tr.End)
	assert.Equal(t, Stopped, d.State())
}

func TestDetector_BlipDuringStoppingReturnsToRunning(t *testing.T) {
	d := New(testConfig())
	base := time.Unix(0, 0)

	d.Feed(base, 800)
	d.Feed(base.Add(10*time.Second), 800)
	d.Feed(base.Add(20*time.Second), 0)
	require.Equal(t, Stopping, d.State())

	tr := d.Feed(base.Add(30*time.Second), 800)
	assert.False(t, tr.End)
	assert.Equal(t, Running, d.State())
}
