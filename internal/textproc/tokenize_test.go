package textproc

import (
	"reflect"
	"strings"
	"testing"
)

func TestTokenizeWelshClusters(t *testing.T) {
	tok := NewTokenizer(Welsh())
	got := tok.Tokenize("Llanelli ddoe")
	want := []string{"⟨ll⟩", "a", "n", "e", "⟨ll⟩", "i", "⟨dd⟩", "o", "e"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected tokens: %q", got)
	}
}

func TestTokenizeNeverSplitsClusters(t *testing.T) {
	tok := NewTokenizer(Welsh())
	for _, text := range []string{"rhthll", "ngh", "cchh", "ffff", "phth"} {
		tokens := tok.Tokenize(text)
		var b strings.Builder
		for _, token := range tokens {
			b.WriteString(Display(token))
		}
		if b.String() != text {
			t.Fatalf("tokens %q do not rebuild %q", tokens, text)
		}
		for _, token := range tokens {
			if strings.ContainsRune(token, markerOpen) && !IsCluster(token) {
				t.Fatalf("malformed token %q in %q", token, text)
			}
		}
	}
	if got := tok.Tokenize("ffff"); !reflect.DeepEqual(got, []string{"⟨ff⟩", "⟨ff⟩"}) {
		t.Fatalf("unexpected tokens for ffff: %q", got)
	}
}

func TestTokenizeCustomProfileAvoidsDoubleSubstitution(t *testing.T) {
	p, err := NewProfile("test", []string{"ab", "bc"}, "a", "bc")
	if err != nil {
		t.Fatalf("new profile: %v", err)
	}
	got := NewTokenizer(p).Tokenize("abc")
	want := []string{"⟨ab⟩", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestClassify(t *testing.T) {
	tok := NewTokenizer(Welsh())
	cases := map[string]Category{
		"a":    CategoryVowel,
		"W":    CategoryVowel,
		"ŵ":    CategoryVowel,
		"w":    CategoryVowel,
		"ẃ":    CategoryVowel,
		"á":    CategoryVowel,
		"ÿ":    CategoryVowel,
		"b":    CategoryConsonant,
		"⟨ll⟩": CategoryCluster,
		"1":    CategoryOther,
		"'":    CategoryOther,
		"ab":   CategoryOther,
		"":     CategoryOther,
	}
	for token, want := range cases {
		if got := tok.Classify(token); got != want {
			t.Fatalf("Classify(%q) = %s, want %s", token, got, want)
		}
	}
}

func TestNewProfileRejectsBadClusters(t *testing.T) {
	if _, err := NewProfile("bad", []string{"abc"}, "a", "b"); err == nil {
		t.Fatalf("expected error for three-letter cluster")
	}
	if _, err := NewProfile("bad", []string{"a⟩"}, "a", "b"); err == nil {
		t.Fatalf("expected error for reserved character")
	}
}

func TestLookup(t *testing.T) {
	p, err := Lookup("CY")
	if err != nil {
		t.Fatalf("lookup cy: %v", err)
	}
	if len(p.Clusters()) != 8 {
		t.Fatalf("expected 8 Welsh clusters, got %d", len(p.Clusters()))
	}
	if !p.ContainsCluster("Rhyl") {
		t.Fatalf("expected Rhyl to contain a cluster")
	}
	if _, err := Lookup("xx"); err == nil {
		t.Fatalf("expected error for unknown profile")
	}
}
