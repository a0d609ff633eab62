// Package eventbus publishes domain events to a message broker so other
// systems can react to billing activity. A no-op publisher keeps the rest
// of the application broker-agnostic when RabbitMQ is not configured.
package eventbus

import (
	"context"
	"log/slog"
	"sync"
)

// Publisher defines the interface for publishing events to a message broker.
type Publisher interface {
	// Publish sends a message to the event bus.
	Publish(ctx context.Context, routingKey string, payload []byte) error

	// Close closes the publisher connection.
	Close() error
}

// NoopPublisher is a publisher that discards everything. Used when no broker
// is configured and in tests.
type NoopPublisher struct {
	logger *slog.Logger
}

// NewNoopPublisher creates a publisher that does nothing.
func NewNoopPublisher(logger *slog.Logger) *NoopPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &NoopPublisher{logger: logger}
}

// Publish logs the message but doesn't actually publish.
func (p *NoopPublisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	p.logger.Debug("noop publish",
		"routing_key", routingKey,
		"size", len(payload),
	)
	return nil
}

// Close is a no-op.
func (p *NoopPublisher) Close() error {
	return nil
}

// RecordedMessage is one message captured by a MemoryPublisher.
type RecordedMessage struct {
	RoutingKey string
	Payload    []byte
}

// MemoryPublisher records published messages in memory for inspection.
type MemoryPublisher struct {
	mu       sync.Mutex
	messages []RecordedMessage
}

// NewMemoryPublisher creates an in-memory recording publisher.
func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{}
}

// Publish records the message.
func (p *MemoryPublisher) Publish(_ context.Context, routingKey string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	body := make([]byte, len(payload))
	copy(body, payload)
	p.messages = append(p.messages, RecordedMessage{RoutingKey: routingKey, Payload: body})
	return nil
}

// Messages returns a snapshot of everything published so far.
func (p *MemoryPublisher) Messages() []RecordedMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]RecordedMessage, len(p.messages))
	copy(out, p.messages)
	return out
}

// Close is a no-op.
func (p *MemoryPublisher) Close() error {
	return nil
}
