package domain

import (
	"context"
)

// Event is a domain event written to the transactional outbox.
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       any
}

// EventPublisher stores events in the current transaction.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}
