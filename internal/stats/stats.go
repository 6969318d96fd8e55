// Package stats holds the population statistics used by the anomaly detectors.
package stats

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Mean returns the arithmetic mean of values, or 0 when values is empty.
func Mean(values []int64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(toFloats(values), nil)
}

// StdDev returns the population standard deviation of values about mean,
// or 0 when values is empty.
func StdDev(values []int64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return math.Sqrt(stat.MomentAbout(2, toFloats(values), mean, nil))
}

// ZScore returns how many standard deviations value lies from mean.
// Callers must ensure std > 0.
func ZScore(value int64, mean, std float64) float64 {
	return stat.StdScore(float64(value), mean, std)
}

func toFloats(values []int64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out
}
