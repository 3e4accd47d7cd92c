package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Colossus92/eazy-recycling-sub004/internal/core/id"
	"github.com/Colossus92/eazy-recycling-sub004/internal/infrastructure/storage/postgres"
)

type recordingWriter struct {
	topic  string
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func newTestPublisher() (*Publisher, map[string]*recordingWriter) {
	writers := map[string]*recordingWriter{}
	p := NewPublisher(Config{Brokers: []string{"localhost:9092"}, TopicPrefix: "eazy."})
	p.newWriter = func(topic string) messageWriter {
		w := &recordingWriter{topic: topic}
		writers[topic] = w
		return w
	}
	return p, writers
}

func TestPublisher_Handle(t *testing.T) {
	p, writers := newTestPublisher()
	msg := &postgres.OutboxMessage{
		ID:            id.New(),
		AggregateType: "lma_declaration",
		AggregateID:   "198080000001",
		EventType:     "declaration.submitted",
		Payload:       []byte(`{"reference":"LMA-1"}`),
		CreatedAt:     time.Date(2025, 12, 1, 6, 0, 0, 0, time.UTC),
	}

	require.NoError(t, p.Handle(context.Background(), msg))
	require.NoError(t, p.Handle(context.Background(), msg))

	require.Contains(t, writers, "eazy.lma_declaration")
	w := writers["eazy.lma_declaration"]
	require.Len(t, w.msgs, 2)
	assert.Equal(t, []byte("198080000001"), w.msgs[0].Key)
	assert.Equal(t, msg.Payload, w.msgs[0].Value)
	assert.Equal(t, "event-type", w.msgs[0].Headers[1].Key)
	assert.Equal(t, []byte("declaration.submitted"), w.msgs[0].Headers[1].Value)
	assert.Len(t, writers, 1)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestPublisher_HandleError(t *testing.T) {
	p, _ := newTestPublisher()
	p.newWriter = func(topic string) messageWriter {
		return &recordingWriter{topic: topic, err: errors.New("broker down")}
	}

	err := p.Handle(context.Background(), &postgres.OutboxMessage{AggregateType: "waste_stream", EventType: "x"})
	assert.ErrorContains(t, err, "publish x to eazy.waste_stream")
}
