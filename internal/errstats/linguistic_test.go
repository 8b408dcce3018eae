package errstats

import (
	"testing"

	"github.com/dysgair/capteval/internal/model"
	"github.com/dysgair/capteval/internal/textproc"
)

func sample(text, aRaw, aLenient, bRaw, bLenient string) model.Sample {
	s := model.Sample{Text: text}
	s.A.Raw.Hypothesis = aRaw
	s.A.Lenient.Hypothesis = aLenient
	s.B.Raw.Hypothesis = bRaw
	s.B.Lenient.Hypothesis = bLenient
	return s
}

func newWelshAnalyzer() *Analyzer {
	return NewAnalyzer(textproc.NewTokenizer(textproc.Welsh()), WithNames(model.Names{A: "Alpha", B: "Beta"}))
}

func TestCategoryBreakdown(t *testing.T) {
	samples := []model.Sample{
		sample("llan", "lan", "", "", ""),
		sample("", "x", "", "", ""),
	}
	bd := newWelshAnalyzer().CategoryBreakdown(samples, model.Source{System: model.SystemA, Mode: model.ModeRaw})
	if bd.Processed != 1 || bd.Skipped != 1 {
		t.Fatalf("unexpected counts: %+v", bd)
	}
	clusters := bd.Categories[BucketClusters]
	if clusters.Total != 1 || clusters.Errors != 1 || clusters.ErrorRate != 100 {
		t.Fatalf("unexpected cluster stats: %+v", clusters)
	}
	if clusters.Confusion[0].Expected != "ll" || clusters.Confusion[0].Actual != "l" {
		t.Fatalf("unexpected cluster confusion: %+v", clusters.Confusion)
	}
	overall := bd.Categories[BucketOverall]
	if overall.Total != 3 || overall.Errors != 1 {
		t.Fatalf("unexpected overall stats: %+v", overall)
	}
	if bd.Categories[BucketVowels].Total != 1 || bd.Categories[BucketConsonants].Total != 1 {
		t.Fatalf("unexpected vowel/consonant totals: %+v", bd.Categories)
	}
}

func TestCategoryBreakdownLenientUsesStoredHypothesis(t *testing.T) {
	samples := []model.Sample{sample("Bore da!", "bore da", "bore da", "", "")}
	a := newWelshAnalyzer()
	raw := a.CategoryBreakdown(samples, model.Source{System: model.SystemA, Mode: model.ModeRaw})
	lenient := a.CategoryBreakdown(samples, model.Source{System: model.SystemA, Mode: model.ModeLenient})
	if raw.Categories[BucketOverall].Errors != 1 {
		t.Fatalf("expected the exclamation mark to count in raw mode: %+v", raw.Categories[BucketOverall])
	}
	if lenient.Categories[BucketOverall].Errors != 0 {
		t.Fatalf("expected no lenient errors: %+v", lenient.Categories[BucketOverall])
	}
}

func TestCategoryBreakdownTopN(t *testing.T) {
	samples := []model.Sample{sample("abcdefgh", "ijklmnop", "", "", "")}
	a := NewAnalyzer(textproc.NewTokenizer(textproc.Plain()), WithTopN(3))
	bd := a.CategoryBreakdown(samples, model.Source{System: model.SystemA, Mode: model.ModeRaw})
	if got := len(bd.Categories[BucketOverall].Confusion); got != 3 {
		t.Fatalf("expected 3 confusion entries, got %d", got)
	}
}

func TestLinguisticPatterns(t *testing.T) {
	samples := []model.Sample{
		sample("cath", "cat", "cath", "cath", "cath"),
		sample("dyn", "din", "dyn", "dyn", "dyn"),
	}
	p := newWelshAnalyzer().LinguisticPatterns(samples)
	cmp := p.Raw.Comparison[BucketOverall]
	if cmp.Winner != "Beta" || cmp.Difference <= 1 {
		t.Fatalf("expected Beta to win raw overall, got %+v", cmp)
	}
	if w := p.Lenient.Comparison[BucketOverall].Winner; w != model.Comparable {
		t.Fatalf("expected comparable lenient overall, got %s", w)
	}
	imp := p.Improvement["a"][BucketOverall]
	if imp.Absolute <= 0 || imp.Relative != 100 {
		t.Fatalf("unexpected improvement: %+v", imp)
	}
	if p.Improvement["b"][BucketOverall].Relative != 0 {
		t.Fatalf("expected zero relative improvement when raw rate is zero")
	}
}

func TestCharacterErrors(t *testing.T) {
	samples := []model.Sample{
		sample("Llanelli", "lanelli", "", "", ""),
		sample("rhyw", "rhyw reswm", "", "", ""),
	}
	res := newWelshAnalyzer().CharacterErrors(samples, model.SystemA)
	if st := res.PerUnit["ll"]; st.Total != 2 || st.Errors != 1 {
		t.Fatalf("unexpected ll stats: %+v", st)
	}
	if st := res.PerUnit["rh"]; st.Errors != 0 {
		t.Fatalf("expected first-word lenient match for rhyw: %+v", st)
	}
	if empty := newWelshAnalyzer().CharacterErrors(samples, model.SystemB); len(empty.PerUnit) != 0 {
		t.Fatalf("expected no units for missing hypotheses")
	}
}
