package compare

import "github.com/dysgair/capteval/internal/model"

// cers builds a sample with CER values in model.Sources order; negative
// values mean missing.
func cers(text string, aRaw, aLenient, bRaw, bLenient float64) model.Sample {
	s := model.Sample{Text: text}
	for i, v := range []float64{aRaw, aLenient, bRaw, bLenient} {
		if v < 0 {
			continue
		}
		src := model.Sources[i]
		variant := s.Variant(src)
		variant.CER = model.Float(v)
		s = s.WithVariant(src, variant)
	}
	return s
}

func labelled(text, hyp string, label model.Attribution, src model.Source) model.Sample {
	s := model.Sample{Text: text}
	return s.WithVariant(src, model.Variant{Hypothesis: hyp, Attribution: label})
}

var (
	rawA = model.Source{System: model.SystemA, Mode: model.ModeRaw}
	rawB = model.Source{System: model.SystemB, Mode: model.ModeRaw}
)
