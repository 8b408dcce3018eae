package align

import (
	"math"
	"strings"

	"github.com/texttheater/golang-levenshtein/levenshtein"

	"github.com/dysgair/capteval/internal/textproc"
)

// CER returns the character error rate of hyp against ref as a percentage
// rounded to two decimals. Characters are runes, spaces included.
func CER(ref, hyp string) float64 {
	return rate([]rune(ref), []rune(hyp))
}

// WER returns the word error rate of hyp against ref as a percentage rounded
// to two decimals. Words are whitespace separated.
func WER(ref, hyp string) float64 {
	r, h := intern(strings.Fields(ref), strings.Fields(hyp))
	return rate(r, h)
}

// CERStrict is CER after lowercasing and trimming only.
func CERStrict(ref, hyp string) float64 {
	return CER(textproc.StrictNormalize(ref), textproc.StrictNormalize(hyp))
}

// WERStrict is WER after lowercasing and trimming only.
func WERStrict(ref, hyp string) float64 {
	return WER(textproc.StrictNormalize(ref), textproc.StrictNormalize(hyp))
}

// CERLenient is CER after full normalization and lenient matching.
func CERLenient(ref, hyp string) float64 {
	return CER(textproc.LenientMatch(textproc.Normalize(ref), textproc.Normalize(hyp)))
}

// WERLenient is WER after full normalization and lenient matching.
func WERLenient(ref, hyp string) float64 {
	return WER(textproc.LenientMatch(textproc.Normalize(ref), textproc.Normalize(hyp)))
}

// Distance returns the unit-cost edit distance between two token sequences.
func Distance(ref, hyp []string) int {
	r, h := intern(ref, hyp)
	return distance(r, h)
}

// distance counts substitutions as one edit; the library default charges two.
func distance(ref, hyp []rune) int {
	return levenshtein.DistanceForStrings(ref, hyp, levenshtein.DefaultOptionsWithSub)
}

// intern maps each distinct token to its own rune so token sequences can be
// compared with the rune-based distance.
func intern(ref, hyp []string) ([]rune, []rune) {
	ids := make(map[string]rune, len(ref)+len(hyp))
	encode := func(tokens []string) []rune {
		out := make([]rune, len(tokens))
		for i, tok := range tokens {
			id, ok := ids[tok]
			if !ok {
				id = rune(len(ids))
				ids[tok] = id
			}
			out[i] = id
		}
		return out
	}
	return encode(ref), encode(hyp)
}

func rate(ref, hyp []rune) float64 {
	if len(ref) == 0 {
		if len(hyp) == 0 {
			return 0
		}
		return 100
	}
	pct := float64(distance(ref, hyp)) / float64(len(ref)) * 100
	return math.Round(pct*100) / 100
}
