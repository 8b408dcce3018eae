package report

import (
	"sort"
	"strings"

	"github.com/antzucaro/matchr"

	"github.com/dysgair/capteval/internal/metrics"
	"github.com/dysgair/capteval/internal/model"
)

const (
	correctCER      = 10.0
	divergentCER    = 30.0
	maxExamplesEach = 10
)

// Example is one sample shown side by side for both systems.
type Example struct {
	Target         string  `json:"target" yaml:"target"`
	TranscriptionA string  `json:"a_transcription" yaml:"a_transcription"`
	TranscriptionB string  `json:"b_transcription" yaml:"b_transcription"`
	CERA           float64 `json:"a_cer" yaml:"a_cer"`
	CERB           float64 `json:"b_cer" yaml:"b_cer"`
	Similarity     float64 `json:"similarity" yaml:"similarity"`
	Delta          float64 `json:"delta,omitempty" yaml:"delta,omitempty"`
}

// ExampleCounts are the category sizes before truncation.
type ExampleCounts struct {
	BothCorrect   int `json:"both_correct" yaml:"both_correct"`
	OnlyA         int `json:"only_a" yaml:"only_a"`
	OnlyB         int `json:"only_b" yaml:"only_b"`
	BothIncorrect int `json:"both_incorrect" yaml:"both_incorrect"`
	Interesting   int `json:"interesting_cases" yaml:"interesting_cases"`
}

// Examples groups representative samples for discussion.
type Examples struct {
	BothCorrect   []Example     `json:"both_correct" yaml:"both_correct"`
	OnlyA         []Example     `json:"only_a" yaml:"only_a"`
	OnlyB         []Example     `json:"only_b" yaml:"only_b"`
	BothIncorrect []Example     `json:"both_incorrect" yaml:"both_incorrect"`
	Interesting   []Example     `json:"interesting_cases" yaml:"interesting_cases"`
	Counts        ExampleCounts `json:"counts" yaml:"counts"`
}

// QualitativeExamples sorts samples into agreement categories, where a
// system is correct when its lenient CER (raw when missing) is under 10.
// Samples whose CERs differ by more than 30 points are also listed as
// interesting, most divergent first. Each list keeps at most ten entries.
// Similarity is the Jaro-Winkler similarity of the two raw transcriptions.
func QualitativeExamples(samples []model.Sample) Examples {
	ex := Examples{
		BothCorrect:   []Example{},
		OnlyA:         []Example{},
		OnlyB:         []Example{},
		BothIncorrect: []Example{},
		Interesting:   []Example{},
	}
	for _, s := range samples {
		target := strings.TrimSpace(s.Text)
		if target == "" {
			continue
		}
		cerA := exampleCER(s.A)
		cerB := exampleCER(s.B)
		e := Example{
			Target:         target,
			TranscriptionA: s.A.Raw.Hypothesis,
			TranscriptionB: s.B.Raw.Hypothesis,
			CERA:           metrics.Round2(cerA),
			CERB:           metrics.Round2(cerB),
			Similarity:     similarity(s.A.Raw.Hypothesis, s.B.Raw.Hypothesis),
		}
		okA, okB := cerA < correctCER, cerB < correctCER
		switch {
		case okA && okB:
			ex.BothCorrect = append(ex.BothCorrect, e)
		case okA:
			ex.OnlyA = append(ex.OnlyA, e)
		case okB:
			ex.OnlyB = append(ex.OnlyB, e)
		default:
			ex.BothIncorrect = append(ex.BothIncorrect, e)
		}
		delta := cerA - cerB
		if delta < 0 {
			delta = -delta
		}
		if delta > divergentCER {
			e.Delta = metrics.Round2(delta)
			ex.Interesting = append(ex.Interesting, e)
		}
	}
	sort.SliceStable(ex.Interesting, func(i, j int) bool {
		return ex.Interesting[i].Delta > ex.Interesting[j].Delta
	})

	ex.Counts = ExampleCounts{
		BothCorrect:   len(ex.BothCorrect),
		OnlyA:         len(ex.OnlyA),
		OnlyB:         len(ex.OnlyB),
		BothIncorrect: len(ex.BothIncorrect),
		Interesting:   len(ex.Interesting),
	}
	ex.BothCorrect = truncate(ex.BothCorrect)
	ex.OnlyA = truncate(ex.OnlyA)
	ex.OnlyB = truncate(ex.OnlyB)
	ex.BothIncorrect = truncate(ex.BothIncorrect)
	ex.Interesting = truncate(ex.Interesting)
	return ex
}

func exampleCER(out model.SystemOutput) float64 {
	if out.Lenient.CER != nil {
		return metrics.SafeFloat(*out.Lenient.CER, 0)
	}
	return metrics.SafeFloatPtr(out.Raw.CER, 0)
}

func similarity(a, b string) float64 {
	a, b = strings.ToLower(strings.TrimSpace(a)), strings.ToLower(strings.TrimSpace(b))
	if a == "" && b == "" {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}
	return metrics.Round2(matchr.JaroWinkler(a, b, false))
}

func truncate(list []Example) []Example {
	if len(list) > maxExamplesEach {
		return list[:maxExamplesEach]
	}
	return list
}
