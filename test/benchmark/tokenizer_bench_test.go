package benchmark

import (
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/tokenizer"
)

var sampleTexts = map[string]string{
	"short":  "the quick brown fox jumps over the lazy dog",
	"medium": docText(11, 200),
	"long":   strings.Repeat(docText(17, 100)+" ", 50),
}

func BenchmarkSplit(b *testing.B) {
	for name, text := range sampleTexts {
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(text)))
			for i := 0; i < b.N; i++ {
				_ = tokenizer.Split(text)
			}
		})
	}
}

func BenchmarkSplitCustomDelimiters(b *testing.B) {
	split := tokenizer.SplitFunc(" ,.;")
	text := strings.ReplaceAll(sampleTexts["medium"], " ", ", ")
	b.ReportAllocs()
	b.SetBytes(int64(len(text)))
	for i := 0; i < b.N; i++ {
		_ = split(text)
	}
}

func BenchmarkIsValidWord(b *testing.B) {
	words := tokenizer.Split(sampleTexts["medium"])
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = tokenizer.IsValidWord(words[i%len(words)])
	}
}

func BenchmarkSplitParallel(b *testing.B) {
	text := sampleTexts["medium"]
	b.ReportAllocs()
	b.SetBytes(int64(len(text)))
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_ = tokenizer.Split(text)
		}
	})
}
