package wordstats

import (
	"testing"

	"github.com/dysgair/capteval/internal/model"
)

func withRates(text string, cerA, cerB, werA, werB float64) model.Sample {
	s := model.Sample{Text: text}
	s.A.Raw = model.Variant{Hypothesis: text, CER: model.Float(cerA), WER: model.Float(werA)}
	s.B.Raw = model.Variant{Hypothesis: text, CER: model.Float(cerB), WER: model.Float(werB)}
	return s
}

func TestWordDifficulty(t *testing.T) {
	samples := []model.Sample{
		withRates("cath", 10, 30, 100, 100),
		withRates(" cath ", 30, 50, 100, 100),
		withRates("ci", 0, 0, 0, 0),
		withRates("llwybr", 95, 100, 100, 100),
		withRates("", 50, 50, 50, 50),
	}
	res := WordDifficulty(samples)
	raw := res.Raw
	if raw.TotalUniqueWords != 3 {
		t.Fatalf("expected 3 unique words, got %d", raw.TotalUniqueWords)
	}
	if raw.MostDifficult[0].Word != "llwybr" || raw.Easiest[0].Word != "ci" {
		t.Fatalf("unexpected ordering: %+v", raw.AllWords)
	}
	cath := raw.AllWords[1]
	if cath.Word != "cath" || cath.Attempts != 2 || cath.AvgCERA != 20 || cath.AvgCERB != 40 {
		t.Fatalf("unexpected cath ranking: %+v", cath)
	}
	if raw.Distribution.A[9] != 1 || raw.Distribution.B[9] != 1 || raw.Distribution.A[2] != 1 {
		t.Fatalf("unexpected distribution: %+v", raw.Distribution)
	}
	if raw.Distribution.Buckets[0] != "0-10%" || raw.Distribution.Buckets[9] != "90-100%" {
		t.Fatalf("unexpected bucket labels: %v", raw.Distribution.Buckets)
	}
	if res.Lenient.AllWords[0].AvgCERA != 0 {
		t.Fatalf("lenient metrics are missing and should average to 0")
	}
}

func TestWordLength(t *testing.T) {
	samples := []model.Sample{
		withRates("ci", 10, 20, 0, 0),
		withRates("tŷ", 30, 40, 0, 0),
		withRates("llwybr", 50, 50, 100, 100),
		withRates("gwasanaethau", 5, 15, 100, 0),
		withRates("", 100, 100, 100, 100),
	}
	res := WordLength(samples)
	if len(res.Raw) != 4 {
		t.Fatalf("expected 4 buckets, got %d", len(res.Raw))
	}
	short := res.Raw[0]
	if short.Label != "1-3" || short.Count != 2 || short.AvgCERA != 20 || short.AvgCERB != 30 {
		t.Fatalf("unexpected short bucket: %+v", short)
	}
	if res.Raw[1].Count != 1 || res.Raw[2].Count != 0 || res.Raw[3].Count != 1 {
		t.Fatalf("unexpected counts: %+v", res.Raw)
	}
	if res.Raw[3].Label != "10+" || res.Raw[3].AvgWERA != 100 {
		t.Fatalf("unexpected long bucket: %+v", res.Raw[3])
	}
}

func TestOverTranscription(t *testing.T) {
	samples := []model.Sample{
		withRates("rhyw", 0, 0, 200, 0),
		withRates("cath", 25, 25, 100, 40),
		withRates("ci", 50, 50, 60, 60),
		{Text: "dyn"},
	}
	res := OverTranscription(samples, DefaultOverTranscriptionThreshold)
	if res.Count != 2 || res.Percentage != 50 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Anomalies[0].DeltaA != 200 || res.Anomalies[1].Target != "cath" {
		t.Fatalf("unexpected anomalies: %+v", res.Anomalies)
	}
	if empty := OverTranscription(nil, 20); empty.Count != 0 || empty.Percentage != 0 || empty.Anomalies == nil {
		t.Fatalf("unexpected empty result: %+v", empty)
	}
}
