package alert

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obdsentry/obdsentryd/internal/store"
)

func TestEvaluate_FiresOnBreach(t *testing.T) {
	e := New()
	e.Reload([]store.Threshold{
		{ID: "t1", Parameter: "COOLANT_TEMP", Direction: "above", Value: 100, CooldownMs: 60000},
	})

	now := time.Unix(0, 0)
	fired := e.Evaluate(now, store.Reading{Parameter: "COOLANT_TEMP", Value: 105, TimestampMs: 1})
	require.Len(t, fired, 1)
	assert.Equal(t, "t1", fired[0].ThresholdID)
}

func TestEvaluate_NoFireBelowThreshold(t *testing.T) {
	e := New()
	e.Reload([]store.Threshold{
		{ID: "t1", Parameter: "COOLANT_TEMP", Direction: "above", Value: 100, CooldownMs: 60000},
	})

	fired := e.Evaluate(time.Unix(0, 0), store.Reading{Parameter: "COOLANT_TEMP", Value: 90})
	assert.Empty(t, fired)
}

func TestEvaluate_RespectsCooldown(t *testing.T) {
	e := New()
	e.Reload([]store.Threshold{
		{ID: "t1", Parameter: "COOLANT_TEMP", Direction: "above", Value: 100, CooldownMs: 60000},
	})

	base := time.Unix(0, 0)
	r := store.Reading{Parameter: "COOLANT_TEMP", Value: 105}

	require.Len(t, e.Evaluate(base, r), 1)
	assert.Empty(t, e.Evaluate(base.Add(30*time.Second), r), "still within cooldown")

	fired := e.Evaluate(base.Add(61*time.Second), r)
	assert.Len(t, fired, 1, "cooldown elapsed, fires again")
}

func TestEvaluate_BelowDirection(t *testing.T) {
	e := New()
	e.Reload([]store.Threshold{
		{ID: "t1", Parameter: "VOLTAGE", Direction: "below", Value: 11.5, CooldownMs: 1000},
	})

	fired := e.Evaluate(time.Unix(0, 0), store.Reading{Parameter: "VOLTAGE", Value: 11.0})
	require.Len(t, fired, 1)
}

func TestReload_ResetsCooldownState(t *testing.T) {
	e := New()
	th := store.Threshold{ID: "t1", Parameter: "COOLANT_TEMP", Direction: "above", Value: 100, CooldownMs: 60000}
	e.Reload([]store.Threshold{th})

	base := time.Unix(0, 0)
	r := store.Reading{Parameter: "COOLANT_TEMP", Value: 105}
	require.Len(t, e.Evaluate(base, r), 1)

	e.Reload([]store.Threshold{th})
	assert.Len(t, e.Evaluate(base.Add(time.Second), r), 1, "reload forgets prior cooldown")
}
