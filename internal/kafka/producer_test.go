package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/ariefcatur/go-restaurant-api.git/internal/logging"
	"github.com/ariefcatur/go-restaurant-api.git/internal/orders"
)

func TestPublishBuffersWithoutBlocking(t *testing.T) {
	p := NewProducer([]string{"127.0.0.1:9"}, orders.TopicOrderEvents, 1, logging.Discard())

	if err := p.Publish([]byte("k"), []byte("v")); err != nil {
		t.Fatal(err)
	}
	if err := p.Publish([]byte("k"), []byte("v")); !errors.Is(err, ErrBufferFull) {
		t.Fatalf("err = %v, want ErrBufferFull", err)
	}
	p.Close()
	p.Close()
	if err := p.Publish([]byte("k"), []byte("v")); !errors.Is(err, ErrClosed) {
		t.Fatalf("err = %v, want ErrClosed", err)
	}
}

func TestEventPublisherKeysByOrder(t *testing.T) {
	p := NewProducer([]string{"127.0.0.1:9"}, orders.TopicOrderEvents, 4, logging.Discard())
	ep := &EventPublisher{P: p}
	env := orders.Envelope{
		EventID:      "e-1",
		EventType:    orders.EventOrderDeleted,
		EventVersion: 1,
		OccurredAt:   time.Now().UTC(),
		OrderID:      42,
		Payload:      MustMarshal(orders.OrderDeletedPayload{OrderID: 42, By: 1}),
	}
	if err := ep.Publish(context.Background(), env); err != nil {
		t.Fatal(err)
	}

	m := <-p.inbox
	if string(m.Key) != string(orders.PartitionKey(42)) {
		t.Errorf("key = %q", m.Key)
	}
	headers := map[string]string{}
	for _, h := range m.Headers {
		headers[h.Key] = string(h.Value)
	}
	if headers["x-event-type"] != orders.EventOrderDeleted || headers["x-event-version"] != "1" {
		t.Errorf("headers = %v", headers)
	}

	var got orders.Envelope
	if err := UnmarshalEnvelope(m.Value, &got); err != nil {
		t.Fatal(err)
	}
	payload, err := UnwrapPayload[orders.OrderDeletedPayload](got.Payload)
	if err != nil {
		t.Fatal(err)
	}
	if got.EventID != "e-1" || payload.OrderID != 42 {
		t.Errorf("envelope = %+v payload = %+v", got, payload)
	}
}

func TestUnwrapPayloadRejectsWrongShape(t *testing.T) {
	if _, err := UnwrapPayload[orders.OrderCreatedPayload](json.RawMessage(`"nope"`)); err == nil {
		t.Error("expected error")
	}
	if err := UnmarshalEnvelope([]byte("{"), &orders.Envelope{}); err == nil {
		t.Error("expected error")
	}
}
