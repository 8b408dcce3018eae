package metrics

import (
	"math"
	"testing"
)

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestSafeDivide(t *testing.T) {
	for _, x := range []float64{0, 1, -3.5, math.Inf(1), math.NaN()} {
		if got := SafeDivide(x, 0, -1); got != -1 {
			t.Fatalf("SafeDivide(%v, 0) = %v, want default", x, got)
		}
	}
	if got := SafeDivide(math.Inf(1), 1, 7); got != 7 {
		t.Fatalf("expected default for infinite result, got %v", got)
	}
	if got := SafeDivide(1, 4, 0); got != 0.25 {
		t.Fatalf("expected 0.25, got %v", got)
	}
}

func TestSafeFloat(t *testing.T) {
	if SafeFloat(math.NaN(), 2) != 2 || SafeFloat(math.Inf(-1), 3) != 3 || SafeFloat(1.5, 0) != 1.5 {
		t.Fatalf("unexpected SafeFloat results")
	}
	if SafeFloatPtr(nil, 4) != 4 {
		t.Fatalf("expected default for missing value")
	}
	v := 12.0
	if SafeFloatPtr(&v, 0) != 12 {
		t.Fatalf("expected 12")
	}
}

func TestPercentile(t *testing.T) {
	values := []float64{4, 1, 3, 2}
	cases := map[float64]float64{0: 1, 25: 1.75, 50: 2.5, 75: 3.25, 95: 3.85, 100: 4}
	for p, want := range cases {
		if got := Percentile(values, p); !near(got, want) {
			t.Fatalf("Percentile(%v) = %v, want %v", p, got, want)
		}
	}
	if values[0] != 4 {
		t.Fatalf("input was modified")
	}
	if Percentile(nil, 50) != 0 {
		t.Fatalf("expected 0 for empty input")
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	if s.N != 8 || s.Mean != 5 || s.Median != 4.5 || s.Min != 2 || s.Max != 9 {
		t.Fatalf("unexpected summary: %+v", s)
	}
	if !near(s.Std, 2.138089935) {
		t.Fatalf("unexpected std: %v", s.Std)
	}
	if !near(s.CV, s.Std/5*100) {
		t.Fatalf("unexpected cv: %v", s.CV)
	}
	single := Summarize([]float64{3})
	if single.Std != 0 || single.Mean != 3 {
		t.Fatalf("unexpected single-value summary: %+v", single)
	}
	if zero := Summarize([]float64{0, 0}); zero.CV != 0 {
		t.Fatalf("expected zero cv for zero mean, got %v", zero.CV)
	}
}

func TestCohensD(t *testing.T) {
	a := []float64{10, 20, 30, 40}
	b := []float64{5, 15, 20, 25}
	if d := CohensD(a, a); d != 0 {
		t.Fatalf("expected 0 for identical samples, got %v", d)
	}
	d := CohensD(a, b)
	if d <= 0 {
		t.Fatalf("expected positive d, got %v", d)
	}
	if !near(d, -CohensD(b, a)) {
		t.Fatalf("expected antisymmetry")
	}
	if CohensD([]float64{1}, b) != 0 {
		t.Fatalf("expected 0 for short sample")
	}
	if CohensD([]float64{3, 3}, []float64{3, 3}) != 0 {
		t.Fatalf("expected 0 for zero pooled std")
	}
}

func TestInterpretEffectSize(t *testing.T) {
	cases := map[float64]EffectSize{
		0.1: EffectNegligible, -0.3: EffectSmall, 0.5: EffectMedium, -0.79: EffectMedium, 0.8: EffectLarge, 2: EffectLarge,
	}
	for d, want := range cases {
		if got := InterpretEffectSize(d); got != want {
			t.Fatalf("InterpretEffectSize(%v) = %s, want %s", d, got, want)
		}
	}
}

func TestMovingAverage(t *testing.T) {
	values := []float64{1, 2, 3, 4}
	out := MovingAverage(values, 2)
	expected := []float64{1, 1.5, 2.5, 3.5}
	for i, v := range expected {
		if !near(out[i], v) {
			t.Fatalf("index %d: expected %.2f got %.2f", i, v, out[i])
		}
	}
	out = MovingAverage(values, 1)
	out[0] = 9
	if values[0] != 1 {
		t.Fatalf("expected a copy for window 1")
	}
}

func TestRound2(t *testing.T) {
	if Round2(33.3333) != 33.33 || Round2(math.NaN()) != 0 || Round2(1.005) > 1.01 {
		t.Fatalf("unexpected rounding")
	}
	if Percent(1, 3) <= 33.3 || Percent(1, 0) != 0 {
		t.Fatalf("unexpected percent")
	}
}
