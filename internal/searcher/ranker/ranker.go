// Package ranker scores documents with additive TF-IDF:
//
//	score(d) = Σ over query terms t of tf(t, d) * ln(N / df(t))
//
// IDF is not smoothed. A term found in every document scores zero, and one
// whose document frequency exceeds N scores negative.
package ranker

import (
	"math"
	"slices"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/hashmap"
)

type SearchResult struct {
	DocID uint32  `json:"doc_id"`
	Score float64 `json:"score"`
}

// PostingSource is the view of an index the scorer reads.
type PostingSource interface {
	Postings(term string) index.PostingList
	TotalDocs() uint64
}

// Search scores every document containing at least one of terms. Unknown
// terms are skipped; a repeated term contributes once per occurrence.
// If allowed is non-nil only documents in it are scored; it must be sorted
// ascending. Results are ordered by score descending; the order of equal
// scores is unspecified.
func Search(terms []string, idx PostingSource, allowed []uint32) []SearchResult {
	scores := hashmap.NewUint32[float64](0)
	n := float64(idx.TotalDocs())
	for _, term := range terms {
		postings := idx.Postings(term)
		if postings == nil {
			continue
		}
		idf := IDF(n, len(postings))
		for _, p := range postings {
			if allowed != nil {
				if _, found := slices.BinarySearch(allowed, p.DocID); !found {
					continue
				}
			}
			score := float64(p.TermFrequency) * idf
			if cur := scores.Get(p.DocID); cur != nil {
				*cur += score
			} else {
				scores.Insert(p.DocID, score)
			}
		}
	}

	results := make([]SearchResult, 0, scores.Len())
	for id, score := range scores.All() {
		results = append(results, SearchResult{DocID: id, Score: score})
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results
}

// IDF returns ln(totalDocs / docFreq).
func IDF(totalDocs float64, docFreq int) float64 {
	return math.Log(totalDocs / float64(docFreq))
}
