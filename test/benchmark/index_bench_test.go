// Package benchmark measures indexing and query throughput of the search
// engine.
package benchmark

import (
	"fmt"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/tokenizer"
)

var vocabulary = strings.Fields(`cat dog bird fluffy groomed white black city park
tail collar eyes starling plane pig crimson rosso porco lights bright big kyle
fashion expressive evgen river stone house garden window`)

func docText(i, words int) string {
	var b strings.Builder
	for w := 0; w < words; w++ {
		if w > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(vocabulary[(i*7+w*13)%len(vocabulary)])
	}
	return b.String()
}

func newEngine(b *testing.B, docs int) *indexer.Engine {
	b.Helper()
	e := indexer.NewEngine()
	if err := e.SetStopWords("and", "in", "on", "the"); err != nil {
		b.Fatal(err)
	}
	for i := 0; i < docs; i++ {
		if err := e.AddDocument(i, docText(i, 12), index.Status(i%4), []int{i % 10, 5}); err != nil {
			b.Fatal(err)
		}
	}
	return e
}

func BenchmarkEngineAddDocument(b *testing.B) {
	e := indexer.NewEngine()
	text := docText(3, 20)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := e.AddDocument(i, text, index.StatusActual, []int{1, 2, 3}); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkMemoryIndexAdd(b *testing.B) {
	for _, size := range []int{10, 100, 1000} {
		b.Run(fmt.Sprintf("terms_%d", size), func(b *testing.B) {
			terms := strings.Fields(docText(1, size))
			mi := index.NewMemoryIndex()
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if err := mi.AddDocument(i, terms, index.StatusActual, nil); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkMemoryIndexPostings(b *testing.B) {
	e := newEngine(b, 10000)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.View(func(idx *index.MemoryIndex, _ tokenizer.StopWords) {
			_ = idx.Postings(vocabulary[i%len(vocabulary)])
		})
	}
}
