package ingestion

import (
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/index"
)

type LoadResult struct {
	Loaded   int `json:"loaded"`
	Rejected int `json:"rejected"`
}

// ApplyAll applies docs in order. A rejected document is logged and skipped.
func ApplyAll(idx Indexer, docs []Document, defaultStatus index.Status, logger *slog.Logger) LoadResult {
	var res LoadResult
	for _, doc := range docs {
		if err := Apply(idx, doc, defaultStatus); err != nil {
			res.Rejected++
			logger.Warn("document rejected", "doc_id", docID(doc), "error", err)
			continue
		}
		res.Loaded++
	}
	return res
}

func docID(doc Document) any {
	if doc.ID == nil {
		return nil
	}
	return *doc.ID
}
