// Package numeric holds the rounding and coercion helpers shared by every
// insight engine so that precision is identical across all outputs.
// Standard deviations are population deviations (divide by n).
package numeric

import (
	"cmp"
	"math"
	"slices"

	"github.com/shopspring/decimal"
)

// Output precisions used across the insight engines.
const (
	PrecisionAverage = 3
	PrecisionRate    = 1
	PrecisionScore   = 1
	PrecisionCount   = 0
)

var half = decimal.NewFromFloat(0.5)

// Round rounds n half-up (towards +Inf) at the given number of decimal places.
// Non-finite input rounds to 0. Arithmetic is done in decimal so values such
// as 1.005 round to 1.01 instead of falling victim to binary representation.
func Round(n float64, places int) float64 {
	n = SafeNumber(n, 0)
	shift := int32(places)
	d := decimal.NewFromFloat(n).Shift(shift).Add(half).Floor().Shift(-shift)
	return d.InexactFloat64()
}

// Clamp restricts val to the range [lo, hi].
func Clamp[T cmp.Ordered](val, lo, hi T) T {
	return max(lo, min(val, hi))
}

// SafeNumber returns v when it is finite, fallback otherwise.
func SafeNumber(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}

// Mean returns the arithmetic mean of values, 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// PopStdDev returns the population standard deviation of values.
// Returns 0 for an empty slice.
func PopStdDev(values []float64) float64 {
	count := len(values)
	if count == 0 {
		return 0
	}
	mean := Mean(values)
	var sumSq float64
	for _, v := range values {
		diff := v - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(count))
}

// Quantile returns the p-th quantile of values using linear interpolation
// between closest ranks (idx = p*(n-1)). p is clamped to [0, 1]. The input
// slice is not modified. Returns 0 for an empty slice.
func Quantile(values []float64, p float64) float64 {
	count := len(values)
	if count == 0 {
		return 0
	}
	p = Clamp(SafeNumber(p, 0), 0, 1)

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	idx := p * float64(count-1)
	lower := int(math.Floor(idx))
	upper := int(math.Ceil(idx))
	if lower == upper || upper >= count {
		return sorted[lower]
	}
	frac := idx - float64(lower)
	return sorted[lower]*(1-frac) + sorted[upper]*frac
}

// Scale maps x linearly from [lo, hi] onto [0, 100], clamping outside values.
// A zero-width (or inverted) band yields the midpoint 50.
func Scale(x, lo, hi float64) float64 {
	width := hi - lo
	if !(width > 0) {
		return 50
	}
	return Clamp((x-lo)/width*100, 0, 100)
}
