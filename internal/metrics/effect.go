package metrics

import "math"

// EffectSize labels the magnitude of a standardized mean difference.
type EffectSize string

const (
	EffectNegligible EffectSize = "negligible"
	EffectSmall      EffectSize = "small"
	EffectMedium     EffectSize = "medium"
	EffectLarge      EffectSize = "large"
)

// CohensD returns the standardized mean difference of a and b using the
// pooled standard deviation. It is positive when mean(a) > mean(b) and 0 when
// either sample has fewer than two values or the pooled deviation is zero.
func CohensD(a, b []float64) float64 {
	n1, n2 := len(a), len(b)
	if n1 < 2 || n2 < 2 {
		return 0
	}
	pooled := math.Sqrt((float64(n1-1)*Variance(a) + float64(n2-1)*Variance(b)) / float64(n1+n2-2))
	if pooled == 0 || math.IsNaN(pooled) {
		return 0
	}
	return SafeFloat((Mean(a)-Mean(b))/pooled, 0)
}

// InterpretEffectSize maps |d| onto Cohen's conventional thresholds.
func InterpretEffectSize(d float64) EffectSize {
	switch d = math.Abs(d); {
	case d < 0.2:
		return EffectNegligible
	case d < 0.5:
		return EffectSmall
	case d < 0.8:
		return EffectMedium
	default:
		return EffectLarge
	}
}

// Summary holds descriptive statistics of one sample.
type Summary struct {
	N      int     `json:"n" yaml:"n"`
	Mean   float64 `json:"mean" yaml:"mean"`
	Median float64 `json:"median" yaml:"median"`
	Std    float64 `json:"std" yaml:"std"`
	Min    float64 `json:"min" yaml:"min"`
	Max    float64 `json:"max" yaml:"max"`
	CV     float64 `json:"cv" yaml:"cv"`
}

// Summarize computes descriptive statistics. Std uses the n-1 denominator.
func Summarize(values []float64) Summary {
	s := Summary{N: len(values)}
	if len(values) == 0 {
		return s
	}
	s.Mean = Mean(values)
	s.Median = Median(values)
	s.Std = Std(values)
	s.Min, s.Max = MinMax(values)
	s.CV = CV(s.Mean, s.Std)
	return s
}
