package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/ranker"
)

const (
	formatText = "text"
	formatJSON = "json"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatDocument renders a result as
// "{ document_id = 2, relevance = 0.274653, rating = 1 }".
func formatDocument(d ranker.ScoredDoc) string {
	return fmt.Sprintf("{ document_id = %d, relevance = %.6g, rating = %d }", d.ID, d.Relevance, d.Rating)
}

func writeResults(w io.Writer, format string, docs []ranker.ScoredDoc) error {
	if format == formatJSON {
		return writeJSON(w, docs)
	}
	var b strings.Builder
	for _, d := range docs {
		b.WriteString(formatDocument(d))
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}
