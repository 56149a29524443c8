// Package matching implements scoring and classification of bank-to-ledger matches.
package matching

import (
	"strings"
	"unicode/utf8"

	"github.com/texttheater/golang-levenshtein/levenshtein"
)

// containmentScore is returned when one description contains the other.
const containmentScore = 0.8

// unitCost weighs insertion, deletion and substitution equally.
var unitCost = levenshtein.Options{
	InsCost: 1,
	DelCost: 1,
	SubCost: 1,
	Matches: levenshtein.IdenticalRunes,
}

// Similarity returns a score in [0,1] describing how alike two descriptions are.
// Comparison is case-insensitive and ignores surrounding whitespace.
func Similarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))

	if a == b {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return containmentScore
	}

	ra, rb := []rune(a), []rune(b)
	distance := levenshtein.DistanceForStrings(ra, rb, unitCost)

	maxLen := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > maxLen {
		maxLen = n
	}

	score := 1.0 - float64(distance)/float64(maxLen)
	if score < 0 {
		return 0
	}
	return score
}
