package compare

import (
	"github.com/dysgair/capteval/internal/metrics"
	"github.com/dysgair/capteval/internal/model"
)

// Difference describes how far apart two means are.
type Difference struct {
	Mean                      float64 `json:"mean" yaml:"mean"`
	PercentagePointDifference float64 `json:"percentage_point_difference" yaml:"percentage_point_difference"`
	RelativeImprovement       float64 `json:"relative_improvement" yaml:"relative_improvement"`
}

// EffectSize is Cohen's d with its conventional label.
type EffectSize struct {
	CohensD        float64            `json:"cohens_d" yaml:"cohens_d"`
	Interpretation metrics.EffectSize `json:"interpretation" yaml:"interpretation"`
}

// Paired compares two paired samples of error rates.
type Paired struct {
	N                int             `json:"n" yaml:"n"`
	A                metrics.Summary `json:"a" yaml:"a"`
	B                metrics.Summary `json:"b" yaml:"b"`
	Difference       Difference      `json:"difference" yaml:"difference"`
	EffectSize       EffectSize      `json:"effect_size" yaml:"effect_size"`
	SuperiorityRate  float64         `json:"a_superiority_rate" yaml:"a_superiority_rate"`
	InsufficientData string          `json:"insufficient_data,omitempty" yaml:"insufficient_data,omitempty"`
}

// PairedComparison compares a and b index by index. The longer slice is
// truncated; callers guarantee that equal indices refer to the same sample.
// The superiority rate is the percentage of pairs where a < b.
func PairedComparison(a, b []float64) Paired {
	n := min(len(a), len(b))
	if n == 0 {
		return Paired{InsufficientData: "no paired values"}
	}
	a, b = a[:n], b[:n]
	p := Paired{
		N: n,
		A: metrics.Summarize(a),
		B: metrics.Summarize(b),
	}
	diff := p.A.Mean - p.B.Mean
	pp := diff
	if pp < 0 {
		pp = -pp
	}
	p.Difference = Difference{
		Mean:                      diff,
		PercentagePointDifference: pp,
		RelativeImprovement:       metrics.SafeDivide(pp, max(p.A.Mean, p.B.Mean), 0) * 100,
	}
	d := metrics.CohensD(a, b)
	p.EffectSize = EffectSize{CohensD: d, Interpretation: metrics.InterpretEffectSize(d)}
	better := 0
	for i := range a {
		if a[i] < b[i] {
			better++
		}
	}
	p.SuperiorityRate = metrics.Percent(better, n)
	return p
}

// MetricPair holds paired comparisons of CER and WER for one mode.
type MetricPair struct {
	CER Paired `json:"cer" yaml:"cer"`
	WER Paired `json:"wer" yaml:"wer"`
}

// ModelComparisonResult compares both systems in both modes.
type ModelComparisonResult struct {
	SampleSize int        `json:"sample_size" yaml:"sample_size"`
	Raw        MetricPair `json:"raw" yaml:"raw"`
	Lenient    MetricPair `json:"lenient" yaml:"lenient"`
}

// ModelComparison runs PairedComparison on CER and WER for both modes. Only
// samples where both systems carry the metric are paired.
func (c *Comparator) ModelComparison(samples []model.Sample) ModelComparisonResult {
	res := ModelComparisonResult{SampleSize: len(samples)}
	for _, mode := range model.Modes {
		srcA := model.Source{System: model.SystemA, Mode: mode}
		srcB := model.Source{System: model.SystemB, Mode: mode}
		pair := MetricPair{
			CER: PairedComparison(pairUp(samples, cerOf(srcA), cerOf(srcB))),
			WER: PairedComparison(pairUp(samples, werOf(srcA), werOf(srcB))),
		}
		if mode == model.ModeLenient {
			res.Lenient = pair
		} else {
			res.Raw = pair
		}
	}
	c.logger.Debug("model comparison", "samples", len(samples),
		"raw_cer_pairs", res.Raw.CER.N, "lenient_cer_pairs", res.Lenient.CER.N)
	return res
}

func pairUp(samples []model.Sample, pickA, pickB func(model.Sample) *float64) ([]float64, []float64) {
	a := make([]float64, 0, len(samples))
	b := make([]float64, 0, len(samples))
	for _, s := range samples {
		va, vb := pickA(s), pickB(s)
		if va == nil || vb == nil {
			continue
		}
		a = append(a, metrics.SafeFloat(*va, 0))
		b = append(b, metrics.SafeFloat(*vb, 0))
	}
	return a, b
}
