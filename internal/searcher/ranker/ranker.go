package ranker

import (
	"math"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/index"
)

const (
	// MaxResultDocumentCount caps every result list.
	MaxResultDocumentCount = 5
	// RelevanceEpsilon is the tolerance under which two relevances tie.
	RelevanceEpsilon = 1e-6
)

type ScoredDoc struct {
	ID        int     `json:"id"`
	Relevance float64 `json:"relevance"`
	Rating    int     `json:"rating"`
}

// Predicate decides whether a document may contribute to a result list.
type Predicate func(id int, status index.Status, rating int) bool

// ByStatus keeps documents with exactly the given status.
func ByStatus(want index.Status) Predicate {
	return func(_ int, status index.Status, _ int) bool {
		return status == want
	}
}

// MinRating keeps documents rated at least min.
func MinRating(min int) Predicate {
	return func(_ int, _ index.Status, rating int) bool {
		return rating >= min
	}
}

// All keeps documents accepted by every predicate.
func All(preds ...Predicate) Predicate {
	return func(id int, status index.Status, rating int) bool {
		for _, p := range preds {
			if !p(id, status, rating) {
				return false
			}
		}
		return true
	}
}

// TermPostings pairs a query term with its postings.
type TermPostings struct {
	Term     string
	Postings index.PostingList
}

type RankParams struct {
	TotalDocs int
}

type DocInfo struct {
	Status index.Status
	Rating int
}

// Rank scores every document that has a posting under a plus term and passes
// pred with TF-IDF, drops every document that has a posting in any of the
// excluded lists, sorts and truncates to limit. Plus terms are scored in the
// order given, so a stable input order gives bit-identical relevances.
func Rank(
	plus []TermPostings,
	excluded []index.PostingList,
	params RankParams,
	getDocInfo func(id int) DocInfo,
	pred Predicate,
	limit int,
) []ScoredDoc {
	scores := make(map[int]float64)
	for _, tp := range plus {
		if len(tp.Postings) == 0 {
			continue
		}
		idf := ComputeIDF(params.TotalDocs, len(tp.Postings))
		for _, posting := range tp.Postings {
			info := getDocInfo(posting.DocID)
			if pred(posting.DocID, info.Status, info.Rating) {
				scores[posting.DocID] += posting.TermFreq * idf
			}
		}
	}
	for _, postings := range excluded {
		for _, posting := range postings {
			delete(scores, posting.DocID)
		}
	}

	result := make([]ScoredDoc, 0, len(scores))
	for docID, score := range scores {
		result = append(result, ScoredDoc{
			ID:        docID,
			Relevance: score,
			Rating:    getDocInfo(docID).Rating,
		})
	}
	Sort(result)
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result
}

// Sort orders docs by descending relevance. Relevances closer than
// RelevanceEpsilon tie and fall back to descending rating, then ascending id.
func Sort(docs []ScoredDoc) {
	sort.SliceStable(docs, func(i, j int) bool {
		a, b := docs[i], docs[j]
		if math.Abs(a.Relevance-b.Relevance) >= RelevanceEpsilon {
			return a.Relevance > b.Relevance
		}
		if a.Rating != b.Rating {
			return a.Rating > b.Rating
		}
		return a.ID < b.ID
	})
}

// ComputeIDF is ln(totalDocs / docFreq).
func ComputeIDF(totalDocs int, docFreq int) float64 {
	if docFreq <= 0 || totalDocs <= 0 {
		return 0
	}
	return math.Log(float64(totalDocs) / float64(docFreq))
}
