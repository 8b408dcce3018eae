// Package metrics provides NaN-safe numeric primitives and descriptive
// statistics over per-sample error rates.
package metrics

import (
	"math"
	"sort"
)

// SafeFloat returns def when v is NaN or infinite.
func SafeFloat(v, def float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return def
	}
	return v
}

// SafeFloatPtr returns def when v is nil, NaN or infinite.
func SafeFloatPtr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return SafeFloat(*v, def)
}

// SafeDivide returns a/b, or def when b is zero, an operand is NaN, or the
// result is not finite.
func SafeDivide(a, b, def float64) float64 {
	if b == 0 || math.IsNaN(a) || math.IsNaN(b) {
		return def
	}
	return SafeFloat(a/b, def)
}

// Percent returns part/whole*100, or 0 when whole is zero.
func Percent(part, whole int) float64 {
	return SafeDivide(float64(part), float64(whole), 0) * 100
}

// Round2 rounds v to two decimals. Non-finite values become 0.
func Round2(v float64) float64 {
	v = SafeFloat(v, 0)
	return math.Round(v*100) / 100
}

// Mean returns the arithmetic mean, or 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return SafeFloat(sum/float64(len(values)), 0)
}

// Variance returns the sample variance (n-1 denominator), or 0 when fewer
// than two values are given.
func Variance(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := Mean(values)
	var ss float64
	for _, v := range values {
		d := v - m
		ss += d * d
	}
	return SafeFloat(ss/float64(len(values)-1), 0)
}

// Std returns the sample standard deviation.
func Std(values []float64) float64 {
	return math.Sqrt(Variance(values))
}

// Median returns the middle value, or 0 for an empty slice.
func Median(values []float64) float64 {
	return Percentile(values, 50)
}

// Percentile returns the p-th percentile using linear interpolation between
// the closest ranks. The input is not modified.
func Percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// MinMax returns the smallest and largest values, or zeros when empty.
func MinMax(values []float64) (lo, hi float64) {
	if len(values) == 0 {
		return 0, 0
	}
	lo, hi = values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// CV returns the coefficient of variation std/mean*100, or 0 when the mean
// is not positive.
func CV(mean, std float64) float64 {
	if mean <= 0 {
		return 0
	}
	return SafeDivide(std, mean, 0) * 100
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 || len(values) == 0 {
		copy(out, values)
		return out
	}
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}
