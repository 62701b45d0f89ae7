// Package suggest finds the closest match of a misspelled path.
package suggest

import (
	"strings"

	"github.com/agext/levenshtein"
)

// Closest returns the candidate with the smallest edit distance to target,
// or an empty string if none is close enough. Ties keep the first candidate.
func Closest(target string, candidates []string) string {
	target = normalize(target)
	best, bestDistance := "", -1
	for _, candidate := range candidates {
		d := levenshtein.Distance(target, normalize(candidate), nil)
		if bestDistance < 0 || d < bestDistance {
			best, bestDistance = candidate, d
		}
	}
	if best == "" || bestDistance == 0 || bestDistance > maxDistance(target) {
		return ""
	}
	return best
}

// Annotate appends a "did you mean" hint to a warning.
func Annotate(warning string, target string, candidates []string) string {
	if s := Closest(target, candidates); s != "" {
		return warning + ", did you mean `" + s + "`?"
	}
	return warning
}

func maxDistance(s string) int {
	if n := len(s) / 3; n > 2 {
		return n
	}
	return 2
}

func normalize(p string) string {
	return strings.TrimPrefix(p, "./")
}
