package compare

import (
	"github.com/dysgair/capteval/internal/metrics"
	"github.com/dysgair/capteval/internal/model"
	"github.com/dysgair/capteval/internal/textproc"
)

// AgreementCounts partitions samples by which systems were correct.
type AgreementCounts struct {
	BothCorrect   int `json:"both_correct" yaml:"both_correct"`
	BothIncorrect int `json:"both_incorrect" yaml:"both_incorrect"`
	OnlyA         int `json:"only_a_correct" yaml:"only_a_correct"`
	OnlyB         int `json:"only_b_correct" yaml:"only_b_correct"`
}

// AgreementCER is the mean of both systems' CER per partition.
type AgreementCER struct {
	WhenAgree     float64 `json:"avg_cer_when_agree" yaml:"avg_cer_when_agree"`
	WhenDisagree  float64 `json:"avg_cer_when_disagree" yaml:"avg_cer_when_disagree"`
	BothCorrect   float64 `json:"avg_cer_both_correct" yaml:"avg_cer_both_correct"`
	BothIncorrect float64 `json:"avg_cer_both_incorrect" yaml:"avg_cer_both_incorrect"`
	OnlyA         float64 `json:"avg_cer_only_a" yaml:"avg_cer_only_a"`
	OnlyB         float64 `json:"avg_cer_only_b" yaml:"avg_cer_only_b"`
	Difference    float64 `json:"cer_difference" yaml:"cer_difference"`
}

// AgreementResult reports how often the systems agree on correctness.
type AgreementResult struct {
	SampleSize       int             `json:"sample_size" yaml:"sample_size"`
	AgreementRate    float64         `json:"agreement_rate" yaml:"agreement_rate"`
	Counts           AgreementCounts `json:"agreement_counts" yaml:"agreement_counts"`
	CER              AgreementCER    `json:"cer_breakdown" yaml:"cer_breakdown"`
	InsufficientData string          `json:"insufficient_data,omitempty" yaml:"insufficient_data,omitempty"`
}

// Agreement judges each system correct when its raw output, normalized and
// leniently matched, equals the reference. The reference is the human
// transcription when present and the target otherwise; samples whose
// reference normalizes to empty are skipped. Per-sample CER is the mean of
// both systems' lenient CER, falling back to raw, then 0.
func (c *Comparator) Agreement(samples []model.Sample) AgreementResult {
	var res AgreementResult
	var agree, disagree, both, neither, onlyA, onlyB []float64
	for _, s := range samples {
		ref := s.Human
		if ref == "" {
			ref = s.Text
		}
		ref = textproc.Normalize(ref)
		if ref == "" {
			continue
		}
		correctA := lenientEqual(ref, textproc.Normalize(s.A.Raw.Hypothesis))
		correctB := lenientEqual(ref, textproc.Normalize(s.B.Raw.Hypothesis))
		cer := (fallbackCER(s.A) + fallbackCER(s.B)) / 2
		res.SampleSize++
		switch {
		case correctA && correctB:
			res.Counts.BothCorrect++
			both = append(both, cer)
			agree = append(agree, cer)
		case !correctA && !correctB:
			res.Counts.BothIncorrect++
			neither = append(neither, cer)
			agree = append(agree, cer)
		case correctA:
			res.Counts.OnlyA++
			onlyA = append(onlyA, cer)
			disagree = append(disagree, cer)
		default:
			res.Counts.OnlyB++
			onlyB = append(onlyB, cer)
			disagree = append(disagree, cer)
		}
	}
	if res.SampleSize == 0 {
		res.InsufficientData = "no samples with a reference text"
		return res
	}
	res.AgreementRate = metrics.Round2(metrics.Percent(len(agree), res.SampleSize))
	res.CER = AgreementCER{
		WhenAgree:     metrics.Round2(metrics.Mean(agree)),
		WhenDisagree:  metrics.Round2(metrics.Mean(disagree)),
		BothCorrect:   metrics.Round2(metrics.Mean(both)),
		BothIncorrect: metrics.Round2(metrics.Mean(neither)),
		OnlyA:         metrics.Round2(metrics.Mean(onlyA)),
		OnlyB:         metrics.Round2(metrics.Mean(onlyB)),
	}
	res.CER.Difference = metrics.Round2(metrics.Mean(disagree) - metrics.Mean(agree))
	return res
}

func fallbackCER(out model.SystemOutput) float64 {
	if out.Lenient.CER != nil {
		return metrics.SafeFloat(*out.Lenient.CER, 0)
	}
	return metrics.SafeFloatPtr(out.Raw.CER, 0)
}
