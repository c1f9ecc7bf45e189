// Package parser turns raw query text into plus and minus term sets.
package parser

import (
	"sort"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
)

// Query is a parsed query. PlusTerms and MinusTerms are sorted and hold no
// duplicates; a term may sit in both when the raw query carries it with and
// without a leading minus.
type Query struct {
	PlusTerms  []string
	MinusTerms []string
	RawQuery   string
}

// Empty reports whether the query has no plus terms, in which case it can
// match nothing.
func (q *Query) Empty() bool {
	return len(q.PlusTerms) == 0
}

// Parse splits text with the default tokenizer and classifies each term.
func Parse(text string, stop tokenizer.StopWords) (*Query, error) {
	return ParseTerms(text, tokenizer.Split(text), stop)
}

// ParseTerms classifies already-split words. A leading '-' marks a minus
// term. It fails with ErrInvalidArgument when a word is a bare '-', starts
// with "--", or is otherwise not a valid term. Stop words are dropped.
func ParseTerms(raw string, words []string, stop tokenizer.StopWords) (*Query, error) {
	plus := make(map[string]struct{})
	minus := make(map[string]struct{})
	for _, word := range words {
		term, isMinus := strings.CutPrefix(word, "-")
		if isMinus && term == "" {
			return nil, apperrors.InvalidArgumentf("query word %q has no text after '-'", word)
		}
		if strings.HasPrefix(term, "-") {
			return nil, apperrors.InvalidArgumentf("query word %q has more than one leading '-'", word)
		}
		if !tokenizer.IsValidWord(term) {
			return nil, apperrors.InvalidArgumentf("query word %q contains invalid characters", word)
		}
		if stop.Contains(term) {
			continue
		}
		if isMinus {
			minus[term] = struct{}{}
		} else {
			plus[term] = struct{}{}
		}
	}
	return &Query{
		PlusTerms:  sortedKeys(plus),
		MinusTerms: sortedKeys(minus),
		RawQuery:   raw,
	}, nil
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
