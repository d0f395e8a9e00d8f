// Package formulas holds small numeric helpers shared by the valuation modules.
package formulas

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Sanitize replaces ±Inf with NaN and then NaN with 0.
func Sanitize(x float64) float64 {
	if math.IsInf(x, 0) || math.IsNaN(x) {
		return 0
	}
	return x
}

// PopMeanStdDev returns the mean and the population (biased) standard deviation.
func PopMeanStdDev(data []float64) (float64, float64) {
	if len(data) == 0 {
		return 0, 0
	}
	return stat.PopMeanStdDev(data, nil)
}

// MinMaxScale rescales values into [0, 1]. A constant vector maps to all zeros.
func MinMaxScale(values []float64) []float64 {
	scaled := make([]float64, len(values))
	if len(values) == 0 {
		return scaled
	}

	lo, hi := floats.Min(values), floats.Max(values)
	span := hi - lo
	if span == 0 || math.IsNaN(span) {
		return scaled
	}

	for i, v := range values {
		scaled[i] = (v - lo) / span
	}
	return scaled
}
