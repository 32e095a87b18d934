package obd

import (
	"context"
	"testing"

	"github.com/obdsentry/obdsentryd/internal/classify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulator_QueryRequiresConnect(t *testing.T) {
	sim := NewSimulator(1, 800)

	_, err := sim.Query(context.Background(), "RPM")
	require.Error(t, err)
	assert.Equal(t, classify.Retryable, classify.Classify(err))
}

func TestSimulator_QueryKnownParameter(t *testing.T) {
	sim := NewSimulator(1, 800)
	require.NoError(t, sim.Connect(context.Background(), 0))

	sample, err := sim.Query(context.Background(), "RPM")
	require.NoError(t, err)
	assert.Equal(t, "rpm", sample.Unit)
	assert.Greater(t, sample.Value, 0.0)
}

func TestSimulator_UnsupportedParameter(t *testing.T) {
	sim := NewSimulator(1, 800)
	require.NoError(t, sim.Connect(context.Background(), 0))

	_, err := sim.Query(context.Background(), "OIL_PRESSURE")
	require.Error(t, err)
	assert.Equal(t, classify.Data, classify.Classify(err))
}

func TestDecodeResponse_RPM(t *testing.T) {
	value, unit, err := decodeResponse("RPM", "41 0C 1A F8")
	require.NoError(t, err)
	assert.Equal(t, "rpm", unit)
	assert.InDelta(t, (0x1A*256+0xF8)/4.0, value, 0.001)
}

func TestDecodeResponse_Malformed(t *testing.T) {
	_, _, err := decodeResponse("RPM", "41 0C")
	assert.Error(t, err)
}
