package wordlist

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dysgair/capteval/internal/model"
)

func TestLoadWordsSkipsBlankAndComments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "words.txt")
	content := "# week one\ncath\n\n  Bore da  \n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	words, err := LoadWords(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(words) != 2 || words[0] != "cath" || words[1] != "Bore da" {
		t.Fatalf("unexpected words: %q", words)
	}
}

func TestLoadWordsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "words.txt")
	if err := os.WriteFile(path, []byte("# nothing\n\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadWords(path); err == nil {
		t.Fatalf("expected error for empty list")
	}
	if _, err := LoadWords(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestSetFilter(t *testing.T) {
	set := NewSet([]string{"Cath", "bore-da", "  "})
	if len(set) != 2 {
		t.Fatalf("expected two entries, got %v", set)
	}
	samples := []model.Sample{{Text: "llan"}, {Text: "cath!"}, {Text: "Bore da"}, {Text: "ci"}}
	kept := set.Filter(samples)
	if len(kept) != 2 || kept[0].Text != "cath!" || kept[1].Text != "Bore da" {
		t.Fatalf("unexpected filtered samples: %+v", kept)
	}

	var none Set
	if got := none.Filter(samples); len(got) != len(samples) {
		t.Fatalf("nil set should keep every sample")
	}
}
