// Package loader bulk-loads documents from the Postgres documents table.
package loader

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/resilience"
	"github.com/lib/pq"
)

const selectDocuments = `SELECT id, body, status, ratings FROM documents ORDER BY id`

type Loader struct {
	db     *postgres.Client
	retry  resilience.RetryConfig
	logger *slog.Logger
}

func New(db *postgres.Client) *Loader {
	return &Loader{
		db:     db,
		retry:  resilience.RetryConfig{MaxAttempts: 5},
		logger: slog.Default().With("component", "pg-loader"),
	}
}

// Fetch reads every row in one read-only snapshot, retrying transient
// failures with backoff.
func (l *Loader) Fetch(ctx context.Context) ([]ingestion.Document, error) {
	var docs []ingestion.Document
	err := resilience.Retry(ctx, "load-documents", l.retry, func() error {
		return l.db.InTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}, func(tx *sql.Tx) error {
			rows, err := tx.QueryContext(ctx, selectDocuments)
			if err != nil {
				return fmt.Errorf("querying documents: %w", err)
			}
			defer rows.Close()
			docs, err = scanDocuments(rows)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// Load fetches the table and adds every row to idx. Rows that fail
// validation or indexing are logged and skipped.
func (l *Loader) Load(ctx context.Context, idx ingestion.Indexer, defaultStatus index.Status) (ingestion.LoadResult, error) {
	docs, err := l.Fetch(ctx)
	if err != nil {
		return ingestion.LoadResult{}, err
	}
	res := ingestion.ApplyAll(idx, docs, defaultStatus, l.logger)
	l.logger.Info("documents loaded from postgres", "loaded", res.Loaded, "rejected", res.Rejected)
	return res, nil
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanDocuments(rows rowScanner) ([]ingestion.Document, error) {
	var docs []ingestion.Document
	for rows.Next() {
		var (
			id      int64
			body    string
			status  sql.NullString
			ratings pq.Int64Array
		)
		if err := rows.Scan(&id, &body, &status, &ratings); err != nil {
			return nil, fmt.Errorf("scanning document row: %w", err)
		}
		doc := ingestion.Document{
			ID:     ingestion.IntPtr(int(id)),
			Text:   body,
			Status: status.String,
		}
		if len(ratings) > 0 {
			doc.Ratings = make([]int, len(ratings))
			for i, r := range ratings {
				doc.Ratings[i] = int(r)
			}
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating document rows: %w", err)
	}
	return docs, nil
}
