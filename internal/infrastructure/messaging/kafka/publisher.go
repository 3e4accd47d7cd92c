// Package kafka delivers outbox messages to Kafka topics.
package kafka

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Colossus92/eazy-recycling-sub004/internal/infrastructure/storage/postgres"
)

// Config holds producer settings.
type Config struct {
	Brokers      []string
	TopicPrefix  string
	BatchTimeout time.Duration
	WriteTimeout time.Duration
}

// messageWriter is the part of *kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher implements postgres.OutboxHandler. Each aggregate type gets
// its own topic; the aggregate id is the message key so events of one
// aggregate stay ordered.
type Publisher struct {
	cfg       Config
	newWriter func(topic string) messageWriter

	mu      sync.Mutex
	writers map[string]messageWriter
}

var _ postgres.OutboxHandler = (*Publisher)(nil)

// NewPublisher creates a publisher for cfg.Brokers.
func NewPublisher(cfg Config) *Publisher {
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = 10 * time.Millisecond
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	p := &Publisher{cfg: cfg, writers: make(map[string]messageWriter)}
	p.newWriter = func(topic string) messageWriter {
		return &kafka.Writer{
			Addr:                   kafka.TCP(cfg.Brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			BatchTimeout:           cfg.BatchTimeout,
			WriteTimeout:           cfg.WriteTimeout,
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
		}
	}
	return p
}

// Topic returns the topic of an aggregate type.
func (p *Publisher) Topic(aggregateType string) string {
	return strings.TrimSuffix(p.cfg.TopicPrefix, ".") + "." + aggregateType
}

func (p *Publisher) writer(topic string) messageWriter {
	p.mu.Lock()
	defer p.mu.Unlock()
	if w, ok := p.writers[topic]; ok {
		return w
	}
	w := p.newWriter(topic)
	p.writers[topic] = w
	return w
}

// Handle implements postgres.OutboxHandler.
func (p *Publisher) Handle(ctx context.Context, msg *postgres.OutboxMessage) error {
	topic := p.Topic(msg.AggregateType)
	err := p.writer(topic).WriteMessages(ctx, kafka.Message{
		Key:   []byte(msg.AggregateID),
		Value: msg.Payload,
		Time:  msg.CreatedAt,
		Headers: []kafka.Header{
			{Key: "event-id", Value: []byte(msg.ID.String())},
			{Key: "event-type", Value: []byte(msg.EventType)},
			{Key: "aggregate-type", Value: []byte(msg.AggregateType)},
		},
	})
	if err != nil {
		return fmt.Errorf("publish %s to %s: %w", msg.EventType, topic, err)
	}
	return nil
}

// Close flushes and closes every writer.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var firstErr error
	for topic, w := range p.writers {
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close writer %s: %w", topic, err)
		}
	}
	p.writers = make(map[string]messageWriter)
	return firstErr
}
