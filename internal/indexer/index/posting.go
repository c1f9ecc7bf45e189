package index

import "sort"

// Posting is one document's entry under a term.
type Posting struct {
	DocID    int     `json:"doc_id"`
	TermFreq float64 `json:"tf"`
}

// PostingList is ordered by ascending DocID.
type PostingList []Posting

type TermEntry struct {
	Term     string
	Postings PostingList
}

// Contains reports whether docID has a posting in the list.
func (pl PostingList) Contains(docID int) bool {
	idx := sort.Search(len(pl), func(i int) bool {
		return pl[i].DocID >= docID
	})
	return idx < len(pl) && pl[idx].DocID == docID
}
