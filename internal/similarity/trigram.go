package similarity

import (
	"strings"
	"unicode"
)

// Normalize lowercases text, strips everything but letters, digits and
// spaces, and collapses runs of whitespace. Both the dedup gate and the
// corpus index normalize through here so scores are comparable.
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	lastSpace := true
	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		case unicode.IsSpace(r):
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimRight(b.String(), " ")
}

// Trigrams returns the set of three-rune sequences of the normalized text.
// Text shorter than three runes yields the text itself as a single entry so
// very short strings still compare non-trivially.
func Trigrams(text string) map[string]struct{} {
	runes := []rune(Normalize(text))
	set := make(map[string]struct{})
	if len(runes) == 0 {
		return set
	}
	if len(runes) < 3 {
		set[string(runes)] = struct{}{}
		return set
	}
	for i := 0; i+3 <= len(runes); i++ {
		set[string(runes[i:i+3])] = struct{}{}
	}
	return set
}

// Score is the Jaccard similarity of the trigram sets of a and b, in [0,1].
func Score(a, b string) float64 {
	return scoreSets(Trigrams(a), Trigrams(b))
}

func scoreSets(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	intersection := 0
	for t := range small {
		if _, ok := large[t]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}
