// Package textproc normalizes, tokenizes, and classifies transcription text.
package textproc

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Profile describes the orthography of a language: which two-letter clusters
// count as one unit and which letters are vowels or consonants.
type Profile struct {
	name       string
	clusters   []string
	vowels     map[rune]struct{}
	consonants map[rune]struct{}
}

// Welsh returns the built-in Welsh profile. Plain w and y are vowels in
// Welsh, and every circumflex, grave, acute and diaeresis form of a vowel
// counts as that vowel, so w never lands in the other category.
func Welsh() Profile {
	p, _ := NewProfile("cy",
		[]string{"ll", "ch", "dd", "ff", "ng", "rh", "ph", "th"},
		"aeiouwyâêîôûŵŷàèìòùẁỳáéíóúẃýäëïöüẅÿ",
		"bcdfghjklmnpqrstvxz",
	)
	return p
}

// Plain returns a profile with no clusters and Latin vowels.
func Plain() Profile {
	p, _ := NewProfile("plain", nil, "aeiou", "bcdfghjklmnpqrstvwxyz")
	return p
}

var builtinProfiles = map[string]func() Profile{
	"cy":    Welsh,
	"plain": Plain,
}

// BuiltinNames returns the names of the built-in profiles.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtinProfiles))
	for name := range builtinProfiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns a built-in profile by name.
func Lookup(name string) (Profile, error) {
	ctor, ok := builtinProfiles[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Profile{}, fmt.Errorf("unknown language profile %q (available: %s)", name, strings.Join(BuiltinNames(), ", "))
	}
	return ctor(), nil
}

// NewProfile builds a profile. Clusters must be exactly two letters each and
// are applied in the given order.
func NewProfile(name string, clusters []string, vowels, consonants string) (Profile, error) {
	p := Profile{
		name:       name,
		vowels:     runeSet(vowels),
		consonants: runeSet(consonants),
	}
	seen := map[string]struct{}{}
	for _, c := range clusters {
		c = strings.ToLower(strings.TrimSpace(c))
		if utf8.RuneCountInString(c) != 2 {
			return Profile{}, fmt.Errorf("cluster %q must be two characters", c)
		}
		for _, r := range c {
			if unicode.IsSpace(r) || r == markerOpen || r == markerClose {
				return Profile{}, fmt.Errorf("cluster %q contains a reserved character", c)
			}
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		p.clusters = append(p.clusters, c)
	}
	return p, nil
}

// Name returns the profile name.
func (p Profile) Name() string {
	return p.name
}

// Clusters returns a copy of the ordered cluster list.
func (p Profile) Clusters() []string {
	return append([]string(nil), p.clusters...)
}

// Vowels returns the vowel letters in sorted order.
func (p Profile) Vowels() string {
	return setString(p.vowels)
}

// Consonants returns the consonant letters in sorted order.
func (p Profile) Consonants() string {
	return setString(p.consonants)
}

// ContainsCluster reports whether text contains any cluster of the profile.
func (p Profile) ContainsCluster(text string) bool {
	text = strings.ToLower(text)
	for _, c := range p.clusters {
		if strings.Contains(text, c) {
			return true
		}
	}
	return false
}

func runeSet(s string) map[rune]struct{} {
	set := make(map[rune]struct{}, len(s))
	for _, r := range strings.ToLower(s) {
		if unicode.IsSpace(r) {
			continue
		}
		set[r] = struct{}{}
	}
	return set
}

func setString(set map[rune]struct{}) string {
	runes := make([]rune, 0, len(set))
	for r := range set {
		runes = append(runes, r)
	}
	sort.Slice(runes, func(i, j int) bool { return runes[i] < runes[j] })
	return string(runes)
}
