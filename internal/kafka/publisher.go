package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/ariefcatur/go-restaurant-api.git/internal/orders"
	"github.com/segmentio/kafka-go"
)

// EventPublisher puts order envelopes on the order-events topic, keyed by
// order id.
type EventPublisher struct {
	P *Producer
}

func (e *EventPublisher) Publish(_ context.Context, env orders.Envelope) error {
	value, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	return e.P.Publish(orders.PartitionKey(env.OrderID), value,
		kafka.Header{Key: "x-event-type", Value: []byte(env.EventType)},
		kafka.Header{Key: "x-event-version", Value: []byte(strconv.Itoa(env.EventVersion))},
	)
}
