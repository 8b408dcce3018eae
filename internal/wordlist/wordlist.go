// Package wordlist restricts analysis to a vocabulary of practice targets.
package wordlist

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/dysgair/capteval/internal/model"
	"github.com/dysgair/capteval/internal/textproc"
)

// LoadWords reads one target per line from the provided file path. Blank
// lines and lines starting with # are skipped.
func LoadWords(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open word list: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only word list.
			_ = cerr
		}
	}()

	var words []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read word list: %w", err)
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("word list is empty")
	}
	return words, nil
}

// Set is a vocabulary of normalized targets.
type Set map[string]struct{}

// NewSet normalizes words so that case, composition and punctuation do not
// affect membership.
func NewSet(words []string) Set {
	set := make(Set, len(words))
	for _, w := range words {
		if key := textproc.Normalize(w); key != "" {
			set[key] = struct{}{}
		}
	}
	return set
}

// Load reads a word list file into a Set.
func Load(path string) (Set, error) {
	words, err := LoadWords(path)
	if err != nil {
		return nil, err
	}
	return NewSet(words), nil
}

// Contains reports whether the normalized text is in the set.
func (s Set) Contains(text string) bool {
	_, ok := s[textproc.Normalize(text)]
	return ok
}

// Filter keeps samples whose target text is in the set, preserving order.
// A nil set keeps every sample.
func (s Set) Filter(samples []model.Sample) []model.Sample {
	if s == nil {
		return samples
	}
	kept := make([]model.Sample, 0, len(samples))
	for _, sample := range samples {
		if s.Contains(sample.Text) {
			kept = append(kept, sample)
		}
	}
	return kept
}
