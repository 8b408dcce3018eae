package compare

import (
	"math"
	"testing"

	"github.com/dysgair/capteval/internal/metrics"
	"github.com/dysgair/capteval/internal/model"
)

func TestPairedComparison(t *testing.T) {
	a := []float64{10, 20, 30, 40}
	b := []float64{20, 30, 40, 50, 99}
	p := PairedComparison(a, b)
	if p.N != 4 {
		t.Fatalf("expected truncation to 4, got %d", p.N)
	}
	if p.Difference.Mean != -10 || p.Difference.PercentagePointDifference != 10 {
		t.Fatalf("unexpected difference: %+v", p.Difference)
	}
	if math.Abs(p.Difference.RelativeImprovement-10.0/35*100) > 1e-9 {
		t.Fatalf("unexpected relative improvement: %v", p.Difference.RelativeImprovement)
	}
	if p.SuperiorityRate != 100 {
		t.Fatalf("expected A better on every pair, got %v", p.SuperiorityRate)
	}
	if p.EffectSize.CohensD >= 0 || p.EffectSize.Interpretation != metrics.EffectMedium {
		t.Fatalf("unexpected effect size: %+v", p.EffectSize)
	}
}

func TestPairedComparisonEmpty(t *testing.T) {
	p := PairedComparison(nil, []float64{1})
	if p.InsufficientData == "" || p.N != 0 {
		t.Fatalf("expected insufficient data marker, got %+v", p)
	}
}

func TestModelComparisonPairsOnlyComplete(t *testing.T) {
	samples := []model.Sample{
		cers("a", 10, 5, 20, 10),
		cers("b", 30, -1, -1, 10),
		cers("c", 50, 0, 40, 0),
	}
	res := New().ModelComparison(samples)
	if res.SampleSize != 3 {
		t.Fatalf("unexpected sample size %d", res.SampleSize)
	}
	if res.Raw.CER.N != 2 || res.Lenient.CER.N != 2 {
		t.Fatalf("unexpected pair counts: raw=%d lenient=%d", res.Raw.CER.N, res.Lenient.CER.N)
	}
	if res.Raw.CER.A.Mean != 30 || res.Raw.CER.B.Mean != 30 {
		t.Fatalf("unexpected raw means: %+v %+v", res.Raw.CER.A, res.Raw.CER.B)
	}
	if res.Raw.WER.InsufficientData == "" {
		t.Fatalf("expected WER to be marked insufficient")
	}
}
