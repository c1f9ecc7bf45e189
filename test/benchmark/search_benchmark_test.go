package benchmark

import (
	"fmt"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/ranker"
)

func BenchmarkQueryParse(b *testing.B) {
	queries := []struct {
		name  string
		query string
	}{
		{"single", "cat"},
		{"plus", "fluffy groomed cat"},
		{"minus", "cat dog -city -park"},
		{"duplicates", "cat cat dog dog -cat bird bird"},
		{"long", docText(5, 40)},
	}
	for _, q := range queries {
		b.Run(q.name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := parser.Parse(q.query, nil); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkRank(b *testing.B) {
	for _, numDocs := range []int{100, 1000, 10000} {
		b.Run(fmt.Sprintf("docs_%d", numDocs), func(b *testing.B) {
			pl := make(index.PostingList, numDocs)
			for i := range pl {
				pl[i] = index.Posting{DocID: i, TermFreq: float64(i%10+1) / 20}
			}
			plus := []ranker.TermPostings{{Term: "cat", Postings: pl}}
			info := func(id int) ranker.DocInfo { return ranker.DocInfo{Status: index.StatusActual, Rating: id % 7} }
			params := ranker.RankParams{TotalDocs: numDocs * 2}
			pred := ranker.ByStatus(index.StatusActual)
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				ranker.Rank(plus, nil, params, info, pred, ranker.MaxResultDocumentCount)
			}
		})
	}
}

func BenchmarkFindTopDocuments(b *testing.B) {
	for _, numDocs := range []int{1000, 10000} {
		ex := executor.New(newEngine(b, numDocs))
		for _, query := range []string{"cat", "fluffy groomed cat", "cat dog bird -city -park"} {
			b.Run(fmt.Sprintf("docs_%d/%s", numDocs, query), func(b *testing.B) {
				b.ReportAllocs()
				for i := 0; i < b.N; i++ {
					if _, err := ex.FindTopDocumentsDefault(query); err != nil {
						b.Fatal(err)
					}
				}
			})
		}
	}
}

func BenchmarkFindTopDocumentsParallel(b *testing.B) {
	ex := executor.New(newEngine(b, 10000))
	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := ex.FindTopDocumentsDefault("fluffy groomed cat -city"); err != nil {
				b.Fatal(err)
			}
		}
	})
}

func BenchmarkMatchDocument(b *testing.B) {
	ex := executor.New(newEngine(b, 10000))
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, _, err := ex.MatchDocument("fluffy groomed cat -city", i%10000); err != nil {
			b.Fatal(err)
		}
	}
}
