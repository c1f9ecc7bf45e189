package index

import (
	"net/http"
	"sort"

	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
)

// MemoryIndex is the inverted index: term -> document id -> term frequency,
// plus the stored documents and their insertion order.
//
// MemoryIndex does no locking. Callers that share one across goroutines must
// serialize writes and must not read while a write is in progress.
type MemoryIndex struct {
	index map[string]map[int]float64
	docs  map[int]Document
	order []int
	size  int64
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		index: make(map[string]map[int]float64),
		docs:  make(map[int]Document),
	}
}

// AddDocument stores a document whose terms have already been tokenized,
// validated and stripped of stop words. It rejects negative and duplicate
// ids and leaves the index untouched when it does.
func (m *MemoryIndex) AddDocument(id int, terms []string, status Status, ratings []int) error {
	if id < 0 {
		return apperrors.InvalidArgumentf("document id %d is negative", id)
	}
	if _, exists := m.docs[id]; exists {
		return apperrors.DocumentExists(id)
	}

	stored := make([]string, len(terms))
	copy(stored, terms)
	m.docs[id] = Document{
		ID:     id,
		Status: status,
		Rating: AverageRating(ratings),
		Terms:  stored,
	}
	m.order = append(m.order, id)

	if len(stored) == 0 {
		return nil
	}
	inv := 1.0 / float64(len(stored))
	for _, term := range stored {
		docs, exists := m.index[term]
		if !exists {
			docs = make(map[int]float64)
			m.index[term] = docs
		}
		if _, seen := docs[id]; !seen {
			m.size += int64(len(term) + 16)
		}
		docs[id] += inv
	}
	m.size += int64(len(stored)*8 + 64)
	return nil
}

// Postings returns the term's postings ordered by document id, or nil when
// the term is not indexed.
func (m *MemoryIndex) Postings(term string) PostingList {
	docs, exists := m.index[term]
	if !exists {
		return nil
	}
	result := make(PostingList, 0, len(docs))
	for id, tf := range docs {
		result = append(result, Posting{DocID: id, TermFreq: tf})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].DocID < result[j].DocID
	})
	return result
}

// DocFreq is the number of documents containing term.
func (m *MemoryIndex) DocFreq(term string) int {
	return len(m.index[term])
}

// TermFreq returns the frequency of term in document id.
func (m *MemoryIndex) TermFreq(term string, id int) (float64, bool) {
	tf, ok := m.index[term][id]
	return tf, ok
}

func (m *MemoryIndex) Document(id int) (Document, bool) {
	doc, ok := m.docs[id]
	return doc, ok
}

func (m *MemoryIndex) DocCount() int {
	return len(m.docs)
}

// DocumentID returns the id of the document inserted at position ordinal.
func (m *MemoryIndex) DocumentID(ordinal int) (int, error) {
	if ordinal < 0 || ordinal >= len(m.order) {
		return 0, apperrors.Newf(apperrors.ErrOutOfRange, http.StatusRequestedRangeNotSatisfiable,
			"ordinal %d outside [0, %d)", ordinal, len(m.order))
	}
	return m.order[ordinal], nil
}

func (m *MemoryIndex) TermCount() int {
	return len(m.index)
}

// Snapshot returns every term with its postings, ordered by term.
func (m *MemoryIndex) Snapshot() []TermEntry {
	entries := make([]TermEntry, 0, len(m.index))
	for term := range m.index {
		entries = append(entries, TermEntry{
			Term:     term,
			Postings: m.Postings(term),
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Term < entries[j].Term
	})
	return entries
}

// Size is a rough estimate of the index's memory footprint in bytes.
func (m *MemoryIndex) Size() int64 {
	return m.size
}
