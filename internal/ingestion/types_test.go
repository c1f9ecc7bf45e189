package ingestion

import (
	"testing"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type added struct {
	id      int
	text    string
	status  index.Status
	ratings []int
}

type recordingIndexer struct {
	docs []added
	err  error
}

func (r *recordingIndexer) AddDocument(id int, text string, status index.Status, ratings []int) error {
	if r.err != nil {
		return r.err
	}
	r.docs = append(r.docs, added{id, text, status, ratings})
	return nil
}

func TestApply(t *testing.T) {
	idx := &recordingIndexer{}

	require.NoError(t, Apply(idx, Document{ID: IntPtr(4), Text: "cat", Ratings: []int{1}}, index.StatusActual))
	require.NoError(t, Apply(idx, Document{ID: IntPtr(5), Text: "dog", Status: "removed"}, index.StatusActual))
	require.NoError(t, Apply(idx, Document{ID: IntPtr(6), Text: "bird"}, index.StatusBanned))

	assert.Equal(t, []added{
		{4, "cat", index.StatusActual, []int{1}},
		{5, "dog", index.StatusRemoved, nil},
		{6, "bird", index.StatusBanned, nil},
	}, idx.docs)
}

func TestApplyRejectsInvalidPayload(t *testing.T) {
	idx := &recordingIndexer{}
	err := Apply(idx, Document{Text: "cat"}, index.StatusActual)
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
	assert.Empty(t, idx.docs)
}

func TestApplyPropagatesIndexError(t *testing.T) {
	idx := &recordingIndexer{err: apperrors.DocumentExists(1)}
	err := Apply(idx, Document{ID: IntPtr(1), Text: "cat"}, index.StatusActual)
	assert.ErrorIs(t, err, apperrors.ErrDocumentExists)
}
