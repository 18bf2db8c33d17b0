package memory

import (
	"cmp"
	"slices"
	"strings"
)

const defaultSearchK = 10

// Ranker scores a record's relevance to a query. Higher scores rank
// earlier; a zero score excludes the record from results. Implementations
// must be pure so repeated searches rank identically.
//
// The baseline is keyword matching. A similarity-based ranker can be
// substituted without changing any caller.
type Ranker interface {
	Score(q Query, rec Record) float64
}

// KeywordRanker is the baseline relevance function: the fraction of query
// terms found in the record's key or content, weighted by the record's
// importance so that important entries outrank incidental ones at equal
// term coverage.
type KeywordRanker struct{}

// Score implements Ranker. An empty query text matches every record,
// ranking purely by importance.
func (KeywordRanker) Score(q Query, rec Record) float64 {
	terms := strings.Fields(strings.ToLower(q.Text))
	coverage := 1.0

	if len(terms) > 0 {
		haystack := strings.ToLower(rec.Key + " " + rec.Content)

		matched := 0

		for _, term := range terms {
			if strings.Contains(haystack, term) {
				matched++
			}
		}

		coverage = float64(matched) / float64(len(terms))
	}

	return coverage * (1 + rec.Importance)
}

// sortScored orders results by descending score, breaking ties by newest
// first and then by key so rankings are deterministic.
func sortScored(results []Scored) {
	slices.SortStableFunc(results, func(a, b Scored) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}

		if c := b.Record.CreatedAt.Compare(a.Record.CreatedAt); c != 0 {
			return c
		}

		if c := cmp.Compare(a.Record.Key, b.Record.Key); c != 0 {
			return c
		}

		return cmp.Compare(a.Record.ID, b.Record.ID)
	})
}
