package batch

import (
	"testing"

	"github.com/dysgair/capteval/internal/model"
)

func TestEnrichFillsMissing(t *testing.T) {
	s := model.Sample{Text: "Bore da", Human: "bore da"}
	s.A.Raw.Hypothesis = "bore-da."
	s.B.Raw = model.Variant{Hypothesis: "bore", CER: model.Float(99)}
	in := []model.Sample{s}
	out := Enrich(in)

	a := out[0].A
	if a.Raw.CER == nil || *a.Raw.CER != 28.57 {
		t.Fatalf("unexpected strict CER: %v", a.Raw.CER)
	}
	if a.Raw.WER == nil || *a.Raw.WER != 100 {
		t.Fatalf("unexpected strict WER: %v", a.Raw.WER)
	}
	if a.Lenient.Hypothesis != "bore da" || *a.Lenient.CER != 0 || *a.Lenient.WER != 0 {
		t.Fatalf("unexpected lenient variant: %+v", a.Lenient)
	}
	if a.Raw.Attribution != model.AttributionASRError || a.Lenient.Attribution != model.AttributionCorrect {
		t.Fatalf("unexpected labels: %q %q", a.Raw.Attribution, a.Lenient.Attribution)
	}
	if *out[0].B.Raw.CER != 99 {
		t.Fatalf("existing values must be kept")
	}
	if in[0].A.Raw.CER != nil {
		t.Fatalf("input must not be modified")
	}
}

func TestEnrichSkipsMissingHypothesis(t *testing.T) {
	out := Enrich([]model.Sample{{Text: "cath"}})
	if out[0].A.Raw.CER != nil || out[0].A.Lenient.Hypothesis != "" {
		t.Fatalf("expected no metrics without a hypothesis: %+v", out[0].A)
	}
	out = Enrich([]model.Sample{{Text: "cath", A: model.SystemOutput{Raw: model.Variant{Hypothesis: "cath"}}}})
	if out[0].A.Raw.Attribution != model.AttributionNone {
		t.Fatalf("expected no label without a human transcription")
	}
}

func TestEnrichCapsSystemALenientHypothesis(t *testing.T) {
	s := model.Sample{Text: "bore da"}
	s.A.Raw.Hypothesis = "bore dda iawn"
	s.B.Raw.Hypothesis = "bore da"
	out := Enrich([]model.Sample{s})[0]
	if out.A.Lenient.Hypothesis != "bore dd" {
		t.Fatalf("expected capped lenient hypothesis, got %q", out.A.Lenient.Hypothesis)
	}
	if *out.A.Lenient.CER != 14.29 || *out.A.Lenient.WER != 50 {
		t.Fatalf("unexpected capped rates: %v %v", *out.A.Lenient.CER, *out.A.Lenient.WER)
	}
	if *out.A.Raw.CER != 85.71 {
		t.Fatalf("raw CER must use the full hypothesis, got %v", *out.A.Raw.CER)
	}

	s.B.Raw.Hypothesis = ""
	out = Enrich([]model.Sample{s})[0]
	if *out.A.Lenient.CER != 85.71 {
		t.Fatalf("expected uncapped lenient CER without system B, got %v", *out.A.Lenient.CER)
	}
}

func TestTruncateBytesKeepsRunes(t *testing.T) {
	cases := []struct {
		in   string
		n    int
		want string
	}{
		{"tŷ", 2, "t"},
		{"tŷ", 3, "tŷ"},
		{"cath", 10, "cath"},
		{"ŵ", 1, ""},
	}
	for _, tc := range cases {
		if got := truncateBytes(tc.in, tc.n); got != tc.want {
			t.Fatalf("truncateBytes(%q, %d) = %q, want %q", tc.in, tc.n, got, tc.want)
		}
	}
}
