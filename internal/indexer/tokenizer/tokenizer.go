// Package tokenizer splits document and query text into terms, validates
// term well-formedness and holds the stop-word set shared by indexing and
// query parsing.
package tokenizer

import (
	"sort"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
)

// DefaultDelimiters are the bytes that separate terms.
const DefaultDelimiters = " \t\n\r\v\f"

// Split breaks text into terms on DefaultDelimiters. Runs of delimiters never
// produce empty terms.
func Split(text string) []string {
	return splitOn(text, DefaultDelimiters)
}

// SplitFunc returns a splitter that uses delims instead of DefaultDelimiters.
func SplitFunc(delims string) func(string) []string {
	return func(text string) []string {
		return splitOn(text, delims)
	}
}

func splitOn(text string, delims string) []string {
	terms := make([]string, 0, strings.Count(text, " ")+1)
	pos := 0
	for pos < len(text) {
		start := indexNotAny(text, delims, pos)
		if start < 0 {
			break
		}
		end := strings.IndexAny(text[start:], delims)
		if end < 0 {
			terms = append(terms, text[start:])
			break
		}
		terms = append(terms, text[start:start+end])
		pos = start + end
	}
	return terms
}

// indexNotAny returns the index of the first byte at or after from that is
// not in delims, or -1.
func indexNotAny(text string, delims string, from int) int {
	for i := from; i < len(text); i++ {
		if strings.IndexByte(delims, text[i]) < 0 {
			return i
		}
	}
	return -1
}

// IsValidWord reports whether term may be indexed or queried. The first byte
// must be a letter and every other byte printable. Bytes with the high bit
// set belong to multi-byte runes and are always accepted.
func IsValidWord(term string) bool {
	if term == "" {
		return false
	}
	for i := 0; i < len(term); i++ {
		c := term[i]
		if c >= 0x80 {
			continue
		}
		if isControl(c) {
			return false
		}
		if i == 0 && !isAlpha(c) {
			return false
		}
		if !isPrint(c) {
			return false
		}
	}
	return true
}

func isControl(c byte) bool { return c < 0x20 || c == 0x7f }

func isPrint(c byte) bool { return c >= 0x20 && c < 0x7f }

func isAlpha(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }

// StopWords is a set of terms ignored both when indexing and when parsing
// queries. The zero value is an empty, usable set.
type StopWords map[string]struct{}

// NewStopWords builds a set from words. It fails with ErrInvalidArgument on
// the first word that is not a valid term.
func NewStopWords(words ...string) (StopWords, error) {
	sw := make(StopWords, len(words))
	for _, w := range words {
		if !IsValidWord(w) {
			return nil, apperrors.InvalidArgumentf("stop word %q contains invalid characters", w)
		}
		sw[w] = struct{}{}
	}
	return sw, nil
}

func (s StopWords) Contains(term string) bool {
	_, ok := s[term]
	return ok
}

// Words returns the set in lexicographic order.
func (s StopWords) Words() []string {
	words := make([]string, 0, len(s))
	for w := range s {
		words = append(words, w)
	}
	sort.Strings(words)
	return words
}

// Merge returns a new set holding the words of s and other.
func (s StopWords) Merge(other StopWords) StopWords {
	merged := make(StopWords, len(s)+len(other))
	for w := range s {
		merged[w] = struct{}{}
	}
	for w := range other {
		merged[w] = struct{}{}
	}
	return merged
}
