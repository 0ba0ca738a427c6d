package tracker

import (
	"pfetracker/lib/textutil"
)

const DefaultHintThreshold = 0.92

// Hint pairs a newly appended name with a suspiciously similar existing one.
type Hint struct {
	Name       string
	Existing   string
	Similarity float64
}

// NearDuplicates looks for existing names that closely resemble appended
// ones, e.g. the same company posted under a slightly different title.
// It is advisory only.
func NearDuplicates(existing Dataset, appended []Record, threshold float64) []Hint {
	if threshold <= 0 {
		threshold = DefaultHintThreshold
	}

	candidates := make([]string, 0, len(existing))
	for _, r := range existing {
		candidates = append(candidates, r.Name)
	}

	var hints []Hint
	for _, r := range appended {
		best, similarity := textutil.MostSimilar(r.Name, candidates)
		if best == "" || similarity < threshold {
			continue
		}
		hints = append(hints, Hint{
			Name:       r.Name,
			Existing:   best,
			Similarity: similarity,
		})
	}
	return hints
}
