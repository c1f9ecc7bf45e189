package kafka

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/resilience"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	msgs      []kafka.Message
	committed []int64
	closed    bool
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.msgs) == 0 {
		return kafka.Message{}, io.EOF
	}
	msg := r.msgs[0]
	r.msgs = r.msgs[1:]
	return msg, nil
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error {
	r.closed = true
	return nil
}

var fastRetry = resilience.RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond}

func TestConsumerStopsOnMessageThatKeepsFailing(t *testing.T) {
	r := &fakeReader{msgs: []kafka.Message{
		{Offset: 1, Value: []byte("ok")},
		{Offset: 2, Value: []byte("fail")},
		{Offset: 3, Value: []byte("ok")},
	}}
	var seen []string
	c := newConsumer(r, "document-ingest", func(_ context.Context, _ []byte, value []byte) error {
		seen = append(seen, string(value))
		if string(value) == "fail" {
			return errors.New("boom")
		}
		return nil
	})
	c.retry = fastRetry

	err := c.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "offset 2")
	assert.Equal(t, []string{"ok", "fail", "fail", "fail"}, seen)
	// Offset 3 is never committed, so the group resumes at the failed message.
	assert.Equal(t, []int64{1}, r.committed)

	require.NoError(t, c.Close())
	assert.True(t, r.closed)
}

func TestConsumerRetriesTransientFailures(t *testing.T) {
	r := &fakeReader{msgs: []kafka.Message{{Offset: 7, Value: []byte("doc")}}}
	attempts := 0
	c := newConsumer(r, "document-ingest", func(context.Context, []byte, []byte) error {
		attempts++
		if attempts < 2 {
			return errors.New("temporarily unavailable")
		}
		return nil
	})
	c.retry = fastRetry

	require.NoError(t, c.Start(context.Background()))
	assert.Equal(t, 2, attempts)
	assert.Equal(t, []int64{7}, r.committed)
}

// fakeBroker keeps one topic log and the committed offset of each group.
// A group reader starts after its group's commit, or at the first offset.
type fakeBroker struct {
	log       []kafka.Message
	committed map[string]int64
}

func (b *fakeBroker) reader(cfg kafka.ReaderConfig) *groupReader {
	next := 0
	if off, ok := b.committed[cfg.GroupID]; ok {
		next = int(off) + 1
	}
	return &groupReader{broker: b, group: cfg.GroupID, next: next}
}

type groupReader struct {
	broker *fakeBroker
	group  string
	next   int
}

func (r *groupReader) FetchMessage(context.Context) (kafka.Message, error) {
	if r.next >= len(r.broker.log) {
		return kafka.Message{}, io.EOF
	}
	msg := r.broker.log[r.next]
	r.next++
	return msg, nil
}

func (r *groupReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	for _, m := range msgs {
		r.broker.committed[r.group] = m.Offset
	}
	return nil
}

func (r *groupReader) Close() error { return nil }

func TestReplayConsumerRebuildsFromFirstOffset(t *testing.T) {
	broker := &fakeBroker{committed: make(map[string]int64)}
	for i := 0; i < 3; i++ {
		broker.log = append(broker.log, kafka.Message{Offset: int64(i), Value: []byte{byte('a' + i)}})
	}
	cfg := config.KafkaConfig{Brokers: []string{"localhost:9092"}, ConsumerGroup: "searchserver-group"}

	run := func(rc kafka.ReaderConfig) []string {
		var indexed []string
		c := newConsumer(broker.reader(rc), "document-ingest", func(_ context.Context, _ []byte, value []byte) error {
			indexed = append(indexed, string(value))
			return nil
		})
		require.NoError(t, c.Start(context.Background()))
		return indexed
	}

	first := replayReaderConfig(cfg, "document-ingest")
	assert.Equal(t, []string{"a", "b", "c"}, run(first))

	// A restarted process starts over with an empty index and must see
	// every document again.
	second := replayReaderConfig(cfg, "document-ingest")
	assert.NotEqual(t, first.GroupID, second.GroupID)
	assert.Equal(t, []string{"a", "b", "c"}, run(second))

	// A shared group resumes after its commit instead.
	assert.Empty(t, run(readerConfig(cfg, "document-ingest", first.GroupID)))
}

func TestReplayReaderConfig(t *testing.T) {
	cfg := config.KafkaConfig{Brokers: []string{"b1:9092"}, ConsumerGroup: "searchserver-group"}
	rc := replayReaderConfig(cfg, "document-ingest")
	assert.True(t, strings.HasPrefix(rc.GroupID, "searchserver-group-"))
	assert.Equal(t, kafka.FirstOffset, rc.StartOffset)
	assert.Equal(t, "document-ingest", rc.Topic)
	assert.Equal(t, []string{"b1:9092"}, rc.Brokers)

	shared := readerConfig(cfg, "search-events", cfg.ConsumerGroup)
	assert.Equal(t, "searchserver-group", shared.GroupID)
}

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func TestProducerPublishBatch(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, "search-events")

	err := p.PublishBatch(context.Background(), []Event{
		{Key: "a", Value: map[string]int{"n": 1}},
		{Key: "b", Value: []string{"x"}},
	})
	require.NoError(t, err)
	require.Len(t, w.msgs, 2)
	assert.Equal(t, "a", string(w.msgs[0].Key))
	assert.JSONEq(t, `{"n":1}`, string(w.msgs[0].Value))

	err = p.Publish(context.Background(), Event{Key: "bad", Value: make(chan int)})
	assert.Error(t, err)
	assert.Len(t, w.msgs, 2)

	w.err = errors.New("broker down")
	assert.Error(t, p.Publish(context.Background(), Event{Key: "c", Value: 1}))
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		ID int `json:"id"`
	}
	got, err := DecodeJSON[payload]([]byte(`{"id":9}`))
	require.NoError(t, err)
	assert.Equal(t, 9, got.ID)

	_, err = DecodeJSON[payload]([]byte(`{`))
	assert.Error(t, err)
}
