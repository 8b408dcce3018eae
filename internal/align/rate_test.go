package align

import "testing"

func TestCER(t *testing.T) {
	cases := []struct {
		ref, hyp string
		want     float64
	}{
		{"cat", "car", 33.33},
		{"", "", 0},
		{"", "abc", 100},
		{"abc", "", 100},
		{"tŷ", "ty", 50},
		{"bore da", "bore da", 0},
	}
	for _, tc := range cases {
		if got := CER(tc.ref, tc.hyp); got != tc.want {
			t.Fatalf("CER(%q, %q) = %v, want %v", tc.ref, tc.hyp, got, tc.want)
		}
	}
}

func TestWER(t *testing.T) {
	if got := WER("bore da iawn", "bore da"); got != 33.33 {
		t.Fatalf("expected 33.33, got %v", got)
	}
	if got := WER("bore da", "da bore"); got != 100 {
		t.Fatalf("expected two word substitutions, got %v", got)
	}
	if got := WER("", "helo"); got != 100 {
		t.Fatalf("expected 100, got %v", got)
	}
}

func TestStrictAndLenientRates(t *testing.T) {
	if got := CERStrict("Bore da.", "bore da"); got != 12.5 {
		t.Fatalf("expected 12.5, got %v", got)
	}
	if got := CERLenient("Bore da.", "bore-da"); got != 0 {
		t.Fatalf("expected 0, got %v", got)
	}
	if got := CERLenient("rhyw", "rhyw reswm wrth"); got != 0 {
		t.Fatalf("expected first-word match to score 0, got %v", got)
	}
	if got := WERLenient("hello world", "hel lo wor ld"); got != 0 {
		t.Fatalf("expected spacing-only difference to score 0, got %v", got)
	}
	if got := WERStrict("hello world", "hel lo wor ld"); got != 200 {
		t.Fatalf("expected 200, got %v", got)
	}
}
