package batch

import (
	"unicode/utf8"

	"github.com/dysgair/capteval/internal/align"
	"github.com/dysgair/capteval/internal/compare"
	"github.com/dysgair/capteval/internal/model"
	"github.com/dysgair/capteval/internal/textproc"
)

// Enrich returns a copy of samples with missing metrics computed from the
// texts. For each system with a raw hypothesis it fills strict CER and WER,
// the normalized lenient hypothesis with lenient CER and WER, and, when a
// human transcription is present, the attribution labels. Values already
// present are kept.
//
// System A's lenient metrics are computed on its hypothesis capped to the
// longer of the target and system B's hypothesis, in bytes, so trailing
// hallucinated text does not inflate its lenient rates.
func Enrich(samples []model.Sample) []model.Sample {
	out := make([]model.Sample, len(samples))
	for i, s := range samples {
		for _, sys := range model.Systems {
			s = enrichSystem(s, sys)
		}
		out[i] = s
	}
	return out
}

func enrichSystem(s model.Sample, sys model.System) model.Sample {
	hyp := s.Output(sys).Raw.Hypothesis
	if hyp == "" || s.Text == "" {
		return s
	}
	rawSrc := model.Source{System: sys, Mode: model.ModeRaw}
	raw := s.Variant(rawSrc)
	if raw.CER == nil {
		raw.CER = model.Float(align.CERStrict(s.Text, hyp))
	}
	if raw.WER == nil {
		raw.WER = model.Float(align.WERStrict(s.Text, hyp))
	}
	if raw.Attribution == model.AttributionNone {
		raw.Attribution = compare.Attribute(s.Text, hyp, s.Human, model.ModeRaw)
	}
	s = s.WithVariant(rawSrc, raw)

	capped := hyp
	if sys == model.SystemA {
		capped = capHypothesis(hyp, s.Text, s.B.Raw.Hypothesis)
	}
	lenSrc := model.Source{System: sys, Mode: model.ModeLenient}
	lenient := s.Variant(lenSrc)
	if lenient.Hypothesis == "" {
		_, lenient.Hypothesis = textproc.LenientMatch(textproc.Normalize(s.Text), textproc.Normalize(capped))
	}
	if lenient.CER == nil {
		lenient.CER = model.Float(align.CERLenient(s.Text, capped))
	}
	if lenient.WER == nil {
		lenient.WER = model.Float(align.WERLenient(s.Text, capped))
	}
	if lenient.Attribution == model.AttributionNone {
		lenient.Attribution = compare.Attribute(s.Text, hyp, s.Human, model.ModeLenient)
	}
	return s.WithVariant(lenSrc, lenient)
}

// capHypothesis truncates hyp to max(len(target), len(other)) bytes. Without
// an other hypothesis there is nothing to bound against and hyp is returned.
func capHypothesis(hyp, target, other string) string {
	if other == "" {
		return hyp
	}
	return truncateBytes(hyp, max(len(target), len(other)))
}

// truncateBytes cuts s to at most n bytes without splitting a rune.
func truncateBytes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	s = s[:n]
	for len(s) > 0 && !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s
}
