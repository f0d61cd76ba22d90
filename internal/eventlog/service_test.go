package eventlog

import (
	"context"
	"errors"
	"testing"
	"time"

	kafkax "github.com/ariefcatur/go-restaurant-api.git/internal/kafka"
	"github.com/ariefcatur/go-restaurant-api.git/internal/orders"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

type memDedup struct {
	seen map[string]bool
	err  error
}

func (d *memDedup) FirstSeen(_ context.Context, id string) (bool, error) {
	if d.err != nil {
		return false, d.err
	}
	if d.seen[id] {
		return false, nil
	}
	d.seen[id] = true
	return true, nil
}

func newService() (*Service, *test.Hook, *memDedup) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	d := &memDedup{seen: map[string]bool{}}
	return &Service{Dedup: d, Log: logrus.NewEntry(logger)}, hook, d
}

func message(eventID, eventType string, payload any) kafkago.Message {
	return kafkago.Message{Value: kafkax.MustMarshal(orders.Envelope{
		EventID:    eventID,
		EventType:  eventType,
		OccurredAt: time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC),
		Producer:   "api",
		OrderID:    9,
		Payload:    kafkax.MustMarshal(payload),
	})}
}

func infoEntries(h *test.Hook) []*logrus.Entry {
	var out []*logrus.Entry
	for _, e := range h.AllEntries() {
		if e.Level == logrus.InfoLevel {
			out = append(out, e)
		}
	}
	return out
}

func TestHandleOrderEventLogsOncePerEvent(t *testing.T) {
	svc, hook, _ := newService()
	crew := int64(2)
	m := message("e-1", orders.EventOrderAssigned, orders.OrderAssignedPayload{OrderID: 9, DeliveryCrew: &crew, By: 1})

	for i := 0; i < 2; i++ {
		if err := svc.HandleOrderEvent(context.Background(), m); err != nil {
			t.Fatal(err)
		}
	}
	entries := infoEntries(hook)
	if len(entries) != 1 {
		t.Fatalf("info entries = %d, want 1", len(entries))
	}
	f := entries[0].Data
	if f["event_type"] != orders.EventOrderAssigned || f["order_id"] != int64(9) || f["delivery_crew"] != int64(2) {
		t.Errorf("fields = %v", f)
	}
}

func TestHandleOrderEventPayloads(t *testing.T) {
	tests := []struct {
		name      string
		eventType string
		payload   any
		key       string
		want      any
	}{
		{"status", orders.EventOrderStatusChanged, orders.OrderStatusChangedPayload{From: orders.StatusUnfulfilled, To: orders.StatusDelivered}, "to", "DELIVERED"},
		{"deleted", orders.EventOrderDeleted, orders.OrderDeletedPayload{OrderID: 9, By: 1}, "by", int64(1)},
		{"unassigned", orders.EventOrderAssigned, orders.OrderAssignedPayload{OrderID: 9, By: 1}, "delivery_crew", nil},
		{"unknown type", "Refunded", map[string]int{"x": 1}, "unknown_type", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, hook, _ := newService()
			if err := svc.HandleOrderEvent(context.Background(), message("id-"+tt.name, tt.eventType, tt.payload)); err != nil {
				t.Fatal(err)
			}
			entries := infoEntries(hook)
			if len(entries) != 1 {
				t.Fatalf("info entries = %d", len(entries))
			}
			if got := entries[0].Data[tt.key]; got != tt.want {
				t.Errorf("%s = %v, want %v", tt.key, got, tt.want)
			}
		})
	}
}

func TestHandleOrderEventSkipsGarbage(t *testing.T) {
	svc, hook, d := newService()

	if err := svc.HandleOrderEvent(context.Background(), kafkago.Message{Value: []byte("not json")}); err != nil {
		t.Fatalf("undecodable envelope: %v", err)
	}
	bad := message("e-2", orders.EventOrderCreated, "a string, not an object")
	if err := svc.HandleOrderEvent(context.Background(), bad); err != nil {
		t.Fatalf("undecodable payload: %v", err)
	}
	if len(infoEntries(hook)) != 0 {
		t.Error("garbage must not produce audit lines")
	}
	if len(d.seen) != 0 {
		t.Error("garbage must not be marked as seen")
	}
}

func TestHandleOrderEventDedupFailure(t *testing.T) {
	svc, _, d := newService()
	d.err = errors.New("redis down")
	err := svc.HandleOrderEvent(context.Background(), message("e-3", orders.EventOrderDeleted, orders.OrderDeletedPayload{}))
	if !errors.Is(err, d.err) {
		t.Fatalf("err = %v, want dedup error", err)
	}
}
