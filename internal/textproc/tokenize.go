package textproc

import (
	"strings"
	"unicode"
)

const (
	markerOpen  = '⟨'
	markerClose = '⟩'
)

// Category is the linguistic class of a token.
type Category string

const (
	CategoryVowel     Category = "vowel"
	CategoryConsonant Category = "consonant"
	CategoryCluster   Category = "cluster"
	CategoryOther     Category = "other"
)

// Categories lists the classes reported by linguistic breakdowns.
var Categories = []Category{CategoryVowel, CategoryConsonant, CategoryCluster}

// Tokenizer splits text into comparison units using a Profile.
type Tokenizer struct {
	profile Profile
}

// NewTokenizer returns a Tokenizer for the profile.
func NewTokenizer(p Profile) *Tokenizer {
	return &Tokenizer{profile: p}
}

// Profile returns the tokenizer's profile.
func (t *Tokenizer) Profile() Profile {
	return t.profile
}

// Tokenize returns the ordered units of text. Clusters become a single
// bracketed token such as "⟨ll⟩"; whitespace is dropped.
func (t *Tokenizer) Tokenize(text string) []string {
	text = strings.ToLower(strings.TrimSpace(text))
	for _, c := range t.profile.clusters {
		text = replaceOutsideMarkers(text, c)
	}
	runes := []rune(text)
	tokens := make([]string, 0, len(runes))
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r == markerOpen {
			if end := indexRune(runes, markerClose, i+1); end != -1 {
				tokens = append(tokens, string(runes[i:end+1]))
				i = end
				continue
			}
		}
		if unicode.IsSpace(r) {
			continue
		}
		tokens = append(tokens, string(r))
	}
	return tokens
}

// Classify returns the category of a token.
func (t *Tokenizer) Classify(token string) Category {
	if IsCluster(token) {
		return CategoryCluster
	}
	runes := []rune(token)
	if len(runes) != 1 {
		return CategoryOther
	}
	r := unicode.ToLower(runes[0])
	if _, ok := t.profile.vowels[r]; ok {
		return CategoryVowel
	}
	if _, ok := t.profile.consonants[r]; ok {
		return CategoryConsonant
	}
	return CategoryOther
}

// IsCluster reports whether token is a bracketed cluster marker.
func IsCluster(token string) bool {
	runes := []rune(token)
	return len(runes) >= 2 && runes[0] == markerOpen && runes[len(runes)-1] == markerClose
}

// Display strips cluster brackets from a token.
func Display(token string) string {
	return strings.TrimFunc(token, func(r rune) bool {
		return r == markerOpen || r == markerClose
	})
}

// replaceOutsideMarkers wraps every occurrence of cluster in markers, leaving
// text already inside a marker untouched.
func replaceOutsideMarkers(text, cluster string) string {
	if !strings.Contains(text, cluster) {
		return text
	}
	var b strings.Builder
	b.Grow(len(text) + 8)
	rest := text
	for rest != "" {
		open := strings.IndexRune(rest, markerOpen)
		plain := rest
		if open != -1 {
			plain = rest[:open]
		}
		b.WriteString(strings.ReplaceAll(plain, cluster, string(markerOpen)+cluster+string(markerClose)))
		if open == -1 {
			break
		}
		rest = rest[open:]
		closeIdx := strings.IndexRune(rest, markerClose)
		if closeIdx == -1 {
			b.WriteString(strings.ReplaceAll(rest, cluster, string(markerOpen)+cluster+string(markerClose)))
			break
		}
		end := closeIdx + len(string(markerClose))
		b.WriteString(rest[:end])
		rest = rest[end:]
	}
	return b.String()
}

func indexRune(runes []rune, target rune, from int) int {
	for i := from; i < len(runes); i++ {
		if runes[i] == target {
			return i
		}
	}
	return -1
}
