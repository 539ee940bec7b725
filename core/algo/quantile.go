// Package algo has the pure numeric routines used by the timeline pipeline.
package algo

import (
	"math"
	"slices"
)

// Quantile returns the linearly interpolated p-quantile of values.
// The input is not modified. It returns false for an empty sequence.
// p is clamped to [0, 1].
func Quantile(values []float64, p float64) (float64, bool) {
	n := len(values)
	if n == 0 {
		return 0, false
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	if n == 1 {
		return sorted[0], true
	}

	p = math.Max(0, math.Min(1, p))
	k := float64(n-1) * p
	f := int(math.Floor(k))
	c := min(f+1, n-1)
	return sorted[f] + (sorted[c]-sorted[f])*(k-float64(f)), true
}

// Median is Quantile at p = 0.5.
func Median(values []float64) (float64, bool) {
	return Quantile(values, 0.5)
}

// MedianPtr returns the median as an optional value, nil for an empty sequence.
func MedianPtr(values []float64) *float64 {
	v, ok := Median(values)
	if !ok {
		return nil
	}
	return &v
}
