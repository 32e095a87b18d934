package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obdsentry/obdsentryd/internal/store"
)

func TestCompute_OneRowPerParameter(t *testing.T) {
	readings := []store.Reading{
		{Parameter: "RPM", Value: 800},
		{Parameter: "RPM", Value: 1200},
		{Parameter: "SPEED", Value: 60},
	}

	results := Compute("drive-1", readings)
	require.Len(t, results, 2)

	byParam := map[string]store.AnalysisResult{}
	for _, r := range results {
		byParam[r.Parameter] = r
	}

	rpm := byParam["RPM"]
	assert.Equal(t, 800.0, rpm.Min)
	assert.Equal(t, 1200.0, rpm.Max)
	assert.Equal(t, 1000.0, rpm.Avg)
}

func TestSummarize_OutlierBand(t *testing.T) {
	result := summarize("drive-1", "RPM", []float64{800, 800, 800, 800})

	assert.Equal(t, 0.0, result.Std1, "identical values have zero spread")
	assert.Equal(t, result.Avg, result.OutlierLo)
	assert.Equal(t, result.Avg, result.OutlierHi)
}

func TestSummarize_OutlierBandIsTwoStdDev(t *testing.T) {
	result := summarize("drive-1", "RPM", []float64{100, 200, 300, 400, 500})

	assert.Equal(t, result.Avg-result.Std2, result.OutlierLo)
	assert.Equal(t, result.Avg+result.Std2, result.OutlierHi)
	assert.InDelta(t, result.Std1*2, result.Std2, 0.0001)
}

func TestMode_PicksMostFrequentBucket(t *testing.T) {
	got := mode([]float64{1.0, 1.0, 2.0, 1.0, 3.0})
	assert.Equal(t, 1.0, got)
}
