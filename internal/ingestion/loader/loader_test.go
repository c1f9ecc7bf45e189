package loader

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/ingestion"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRows feeds raw driver values through the real Scanner implementations,
// the way database/sql does.
type fakeRows struct {
	rows [][]any
	pos  int
	err  error
}

func (r *fakeRows) Next() bool {
	r.pos++
	return r.pos <= len(r.rows)
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.rows[r.pos-1]
	for i, d := range dest {
		switch v := d.(type) {
		case sql.Scanner:
			if err := v.Scan(row[i]); err != nil {
				return err
			}
		case *int64:
			*v = row[i].(int64)
		case *string:
			*v = row[i].(string)
		default:
			return errors.New("unsupported destination")
		}
	}
	return nil
}

func (r *fakeRows) Err() error { return r.err }

func TestScanDocuments(t *testing.T) {
	rows := &fakeRows{rows: [][]any{
		{int64(2), "white cat and fashion collar", "ACTUAL", []byte("{8,-3}")},
		{int64(10), "groomed starling evgen", nil, []byte("{}")},
		{int64(11), "red spider", "banned", nil},
	}}
	docs, err := scanDocuments(rows)
	require.NoError(t, err)
	require.Len(t, docs, 3)

	assert.Equal(t, ingestion.Document{
		ID: ingestion.IntPtr(2), Text: "white cat and fashion collar", Status: "ACTUAL", Ratings: []int{8, -3},
	}, docs[0])
	assert.Equal(t, "", docs[1].Status)
	assert.Nil(t, docs[1].Ratings)
	assert.Equal(t, "banned", docs[2].Status)
}

func TestScanDocumentsErrors(t *testing.T) {
	_, err := scanDocuments(&fakeRows{rows: [][]any{
		{int64(1), "cat", "ACTUAL", []byte("{not-a-number}")},
	}})
	assert.Error(t, err)

	_, err = scanDocuments(&fakeRows{err: errors.New("connection reset")})
	assert.ErrorContains(t, err, "connection reset")
}
