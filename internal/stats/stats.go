// Package stats implements StatsEngine: post-drive statistical
// aggregation over a drive's Readings, one AnalysisResult per parameter.
// Hand-rolled rather than built on a statistics library — see DESIGN.md
// for why gonum/stat was considered and rejected.
package stats

import (
	"math"
	"sort"

	"github.com/obdsentry/obdsentryd/internal/store"
)

// Compute groups readings by parameter and returns one AnalysisResult per
// parameter for driveID: one row per (drive, parameter).
func Compute(driveID string, readings []store.Reading) []store.AnalysisResult {
	byParam := make(map[string][]float64)

	for _, r := range readings {
		byParam[r.Parameter] = append(byParam[r.Parameter], r.Value)
	}

	results := make([]store.AnalysisResult, 0, len(byParam))

	for parameter, values := range byParam {
		results = append(results, summarize(driveID, parameter, values))
	}

	return results
}

// summarize computes min, max, avg, mode, 1 and 2 standard deviations, and
// the 2-sigma outlier band for a single parameter's values.
func summarize(driveID, parameter string, values []float64) store.AnalysisResult {
	if len(values) == 0 {
		return store.AnalysisResult{DriveID: driveID, Parameter: parameter}
	}

	min, max, sum := values[0], values[0], 0.0

	for _, v := range values {
		if v < min {
			min = v
		}

		if v > max {
			max = v
		}

		sum += v
	}

	avg := sum / float64(len(values))

	var sqDiffSum float64
	for _, v := range values {
		d := v - avg
		sqDiffSum += d * d
	}

	std1 := math.Sqrt(sqDiffSum / float64(len(values)))
	std2 := std1 * 2

	return store.AnalysisResult{
		DriveID:   driveID,
		Parameter: parameter,
		Min:       min,
		Max:       max,
		Avg:       avg,
		Mode:      mode(values),
		Std1:      std1,
		Std2:      std2,
		OutlierLo: avg - std2,
		OutlierHi: avg + std2,
	}
}

// mode buckets values to 2 decimal places (readings are floating-point
// sensor samples, so an exact-match mode would almost always be 1) and
// returns the most frequent bucket's representative value.
func mode(values []float64) float64 {
	counts := make(map[float64]int)
	buckets := make(map[float64]float64)

	for _, v := range values {
		bucket := math.Round(v*100) / 100
		counts[bucket]++
		buckets[bucket] = v
	}

	keys := make([]float64, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}

	sort.Float64s(keys)

	best := keys[0]
	bestCount := counts[best]

	for _, k := range keys[1:] {
		if counts[k] > bestCount {
			best = k
			bestCount = counts[k]
		}
	}

	return buckets[best]
}
