package ports

import "context"

// EventPublisher is the outbound domain-event publish port.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, payload []byte, partitionKey string) error
}

// SMSSender delivers a single text message to one phone number.
type SMSSender interface {
	Send(ctx context.Context, to, body string) error
}
