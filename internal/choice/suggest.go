package choice

import (
	"slices"
)

// SuggestThreshold is the minimum similarity for a declared code to be
// offered as a suggestion.
const SuggestThreshold = 0.5

// Suggestion is a declared source code close to an unknown value.
type Suggestion struct {
	Source string
	Score  float64 // normalized Levenshtein similarity (0-1)
}

// Suggest ranks the declared codes by similarity to raw and returns at
// most n of those scoring at least SuggestThreshold. Ties keep declaration
// order.
func (v *Vocabulary) Suggest(raw string, n int) []Suggestion {
	if n <= 0 {
		return nil
	}

	want := NormalizeIdent(raw)

	var out []Suggestion

	for _, src := range v.sources {
		score := LevenshteinNormalized(want, NormalizeIdent(src))
		if score >= SuggestThreshold {
			out = append(out, Suggestion{Source: src, Score: score})
		}
	}

	slices.SortStableFunc(out, func(a, b Suggestion) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})

	if len(out) > n {
		out = out[:n]
	}

	return out
}

// Levenshtein computes the edit distance between two strings: the minimum
// number of single-byte insertions, deletions or substitutions turning one
// into the other.
//
// Time complexity: O(len(a) * len(b))
// Space complexity: O(min(len(a), len(b))).
func Levenshtein(a, b string) int {
	if a == b {
		return 0
	}

	if len(a) == 0 {
		return len(b)
	}

	if len(b) == 0 {
		return len(a)
	}

	// a is the shorter string
	if len(a) > len(b) {
		a, b = b, a
	}

	prev := make([]int, len(a)+1)
	curr := make([]int, len(a)+1)

	for i := range prev {
		prev[i] = i
	}

	for j := 1; j <= len(b); j++ {
		curr[0] = j

		for i := 1; i <= len(a); i++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}

			curr[i] = min(
				prev[i]+1,      // deletion
				curr[i-1]+1,    // insertion
				prev[i-1]+cost, // substitution
			)
		}

		prev, curr = curr, prev
	}

	return prev[len(a)]
}

// LevenshteinNormalized computes a similarity score between 0 and 1.
// 1.0 means identical strings, 0.0 means completely different.
// The score is: 1 - (distance / max(len(a), len(b))).
func LevenshteinNormalized(a, b string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}

	maxLen := max(len(b), len(a))

	return 1.0 - float64(Levenshtein(a, b))/float64(maxLen)
}
