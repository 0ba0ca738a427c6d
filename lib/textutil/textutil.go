package textutil

import (
	"regexp"
	"strings"

	"github.com/antzucaro/matchr"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

func NormalizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.Trim(name, " \n\t")
	name = whitespaceRegex.ReplaceAllString(name, "")
	return name
}

// MostSimilar returns the candidate closest to `name` by Jaro-Winkler
// similarity of their normalized forms, along with that similarity.
// Candidates that are exactly equal to `name` are skipped.
func MostSimilar(name string, candidates []string) (string, float64) {
	normalized := NormalizeName(name)

	var best string
	var bestSimilarity float64
	for _, c := range candidates {
		if c == name || c == "" {
			continue
		}
		similarity := matchr.JaroWinkler(normalized, NormalizeName(c), false)
		if similarity > bestSimilarity {
			bestSimilarity = similarity
			best = c
		}
	}
	return best, bestSimilarity
}
