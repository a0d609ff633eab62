package eventbus

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/payved/internal/shared/domain"
)

// Envelope is the wire format for published domain events. The event's own
// fields are nested under "data" so consumers can route on the metadata
// without knowing every event type.
type Envelope struct {
	EventID       string          `json:"event_id"`
	AggregateID   string          `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	RoutingKey    string          `json:"routing_key"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Data          json.RawMessage `json:"data"`
}

// Dispatch publishes each event on its own routing key. Publishing is a
// best-effort side channel: a broker failure is logged but never fails the
// business operation that raised the events.
func Dispatch(ctx context.Context, pub Publisher, logger *slog.Logger, events ...domain.DomainEvent) {
	if pub == nil || len(events) == 0 {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}

	for _, event := range events {
		payload, err := marshalEnvelope(event)
		if err != nil {
			logger.Error("failed to marshal domain event",
				"routing_key", event.RoutingKey(),
				"aggregate_id", event.AggregateID(),
				"error", err,
			)
			continue
		}

		if err := pub.Publish(ctx, event.RoutingKey(), payload); err != nil {
			logger.Error("failed to publish domain event",
				"routing_key", event.RoutingKey(),
				"aggregate_id", event.AggregateID(),
				"error", err,
			)
		}
	}
}

func marshalEnvelope(event domain.DomainEvent) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{
		EventID:       event.EventID().String(),
		AggregateID:   event.AggregateID().String(),
		AggregateType: event.AggregateType(),
		RoutingKey:    event.RoutingKey(),
		OccurredAt:    event.OccurredAt(),
		Data:          data,
	})
}
