package textproc

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Bore da!", "bore da"},
		{"  well-known   word. ", "well known word"},
		{"“Dyma’r” … tŷ", "dymar tŷ"},
		{"Ŵy + $5", "ŵy 5"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := Normalize(tc.in); got != tc.want {
			t.Fatalf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeComposesDiacritics(t *testing.T) {
	decomposed := "w\u0302"
	if got := Normalize(decomposed); got != "\u0175" {
		t.Fatalf("expected composed ŵ, got %q", got)
	}
}

func TestLenientMatch(t *testing.T) {
	cases := []struct {
		ref, hyp         string
		wantRef, wantHyp string
	}{
		{"hello world", "hel lo wor ld", "hello world", "hello world"},
		{"rhyw", "rhyw reswm wrth", "rhyw", "rhyw"},
		{"rhyw", "rhywbeth", "rhyw", "rhywbeth"},
		{"test", "demo", "test", "demo"},
		{"bore da", "bore da iawn", "bore da", "bore da iawn"},
		{"", "", "", ""},
	}
	for _, tc := range cases {
		gotRef, gotHyp := LenientMatch(tc.ref, tc.hyp)
		if gotRef != tc.wantRef || gotHyp != tc.wantHyp {
			t.Fatalf("LenientMatch(%q, %q) = (%q, %q), want (%q, %q)",
				tc.ref, tc.hyp, gotRef, gotHyp, tc.wantRef, tc.wantHyp)
		}
	}
}
