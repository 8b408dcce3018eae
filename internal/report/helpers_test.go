package report

import "github.com/dysgair/capteval/internal/model"

// scored builds a sample with raw hypotheses and CERs in model.Sources
// order; negative values mean missing.
func scored(text, hypA, hypB string, aRaw, aLenient, bRaw, bLenient float64) model.Sample {
	s := model.Sample{Text: text}
	hyps := []string{hypA, hypA, hypB, hypB}
	for i, v := range []float64{aRaw, aLenient, bRaw, bLenient} {
		src := model.Sources[i]
		variant := model.Variant{Hypothesis: hyps[i]}
		if v >= 0 {
			variant.CER = model.Float(v)
			variant.WER = model.Float(v)
		}
		s = s.WithVariant(src, variant)
	}
	return s
}
