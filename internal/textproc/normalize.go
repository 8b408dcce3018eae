package textproc

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Normalize canonicalizes text for metric comparison: NFC composition,
// lowercase, hyphens split words, punctuation and symbols removed, and
// whitespace collapsed.
func Normalize(text string) string {
	text = strings.ToLower(norm.NFC.String(text))
	text = strings.ReplaceAll(text, "-", " ")
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// StrictNormalize lowercases and trims only, preserving punctuation and spacing.
func StrictNormalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// LenientMatch credits segmentation-only differences. Both inputs should
// already be normalized. When the texts are equal ignoring spaces, or the
// reference is a single word equal to the first word of the hypothesis, the
// reference is returned for both; otherwise the inputs are returned unchanged.
func LenientMatch(reference, hypothesis string) (string, string) {
	refCompact := strings.ReplaceAll(reference, " ", "")
	if refCompact != "" && refCompact == strings.ReplaceAll(hypothesis, " ", "") {
		return reference, reference
	}
	trimmed := strings.TrimSpace(reference)
	if trimmed != "" && !strings.Contains(trimmed, " ") {
		words := strings.Fields(hypothesis)
		if len(words) > 0 && words[0] == reference {
			return reference, reference
		}
	}
	return reference, hypothesis
}
