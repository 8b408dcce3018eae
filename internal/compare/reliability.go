package compare

import (
	"github.com/dysgair/capteval/internal/metrics"
	"github.com/dysgair/capteval/internal/model"
)

// Reliability ratings.
const (
	RatingHigh   = "High"
	RatingMedium = "Medium"
	RatingLow    = "Low"
	RatingNone   = "N/A"
)

// ReliabilityStats describes how consistent a system's error rates are.
type ReliabilityStats struct {
	N                int     `json:"n" yaml:"n"`
	Mean             float64 `json:"mean" yaml:"mean"`
	Std              float64 `json:"std_dev" yaml:"std_dev"`
	Variance         float64 `json:"variance" yaml:"variance"`
	IQR              float64 `json:"iqr" yaml:"iqr"`
	Percentile95     float64 `json:"percentile_95" yaml:"percentile_95"`
	CV               float64 `json:"coefficient_of_variation" yaml:"coefficient_of_variation"`
	Rating           string  `json:"reliability_rating" yaml:"reliability_rating"`
	InsufficientData string  `json:"insufficient_data,omitempty" yaml:"insufficient_data,omitempty"`
}

// Reliability summarizes the spread of values and rates it: High when the
// mean is under 10 and CV under 50, Medium when under 25 and 75, else Low.
// Values are rounded to two decimals.
func Reliability(values []float64) ReliabilityStats {
	if len(values) == 0 {
		return ReliabilityStats{Rating: RatingNone, InsufficientData: "no values"}
	}
	mean := metrics.Mean(values)
	std := metrics.Std(values)
	cv := metrics.CV(mean, std)
	rating := RatingLow
	switch {
	case mean < 10 && cv < 50:
		rating = RatingHigh
	case mean < 25 && cv < 75:
		rating = RatingMedium
	}
	return ReliabilityStats{
		N:            len(values),
		Mean:         metrics.Round2(mean),
		Std:          metrics.Round2(std),
		Variance:     metrics.Round2(metrics.Variance(values)),
		IQR:          metrics.Round2(metrics.Percentile(values, 75) - metrics.Percentile(values, 25)),
		Percentile95: metrics.Round2(metrics.Percentile(values, 95)),
		CV:           metrics.Round2(cv),
		Rating:       rating,
	}
}

// ConsistencyReliability computes Reliability of CER for every source,
// keyed by source key such as "a_raw".
func (c *Comparator) ConsistencyReliability(samples []model.Sample) map[string]ReliabilityStats {
	out := make(map[string]ReliabilityStats, len(model.Sources))
	for _, src := range model.Sources {
		out[src.Key()] = Reliability(collect(samples, cerOf(src)))
	}
	return out
}
