package consumer

import (
	"context"
	"errors"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/index"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleMessage(t *testing.T) {
	e := indexer.NewEngine()
	handle := HandleMessage(e, index.StatusActual)
	ctx := context.Background()

	require.NoError(t, handle(ctx, []byte("2"), []byte(`{"id":2,"text":"cat in the city","ratings":[3,1,-1]}`)))
	require.NoError(t, handle(ctx, []byte("7"), []byte(`{"id":7,"text":"pig","status":"BANNED","source":"cli"}`)))

	doc, err := e.Document(2)
	require.NoError(t, err)
	assert.Equal(t, index.StatusActual, doc.Status)
	assert.Equal(t, 1, doc.Rating)

	doc, err = e.Document(7)
	require.NoError(t, err)
	assert.Equal(t, index.StatusBanned, doc.Status)
}

func TestHandleMessageAcknowledgesBadEvents(t *testing.T) {
	e := indexer.NewEngine()
	handle := HandleMessage(e, index.StatusActual)
	ctx := context.Background()

	for _, payload := range []string{
		`not json`,
		`{"text":"no id"}`,
		`{"id":1,"text":"bad -word"}`,
		`{"id":1,"text":"cat","status":"archived"}`,
	} {
		assert.NoError(t, handle(ctx, nil, []byte(payload)), payload)
	}
	assert.Equal(t, 0, e.DocumentCount())

	require.NoError(t, handle(ctx, nil, []byte(`{"id":1,"text":"cat"}`)))
	assert.NoError(t, handle(ctx, nil, []byte(`{"id":1,"text":"dog"}`)), "duplicate is acknowledged")
	assert.Equal(t, 1, e.DocumentCount())
}

type failingIndexer struct{}

func (failingIndexer) AddDocument(int, string, index.Status, []int) error {
	return errors.New("index unavailable")
}

func TestHandleMessageReturnsUnexpectedErrors(t *testing.T) {
	handle := HandleMessage(failingIndexer{}, index.StatusActual)
	err := handle(context.Background(), nil, []byte(`{"id":1,"text":"cat"}`))
	assert.Error(t, err)
}
