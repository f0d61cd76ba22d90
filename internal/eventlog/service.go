// Package eventlog consumes order lifecycle events and writes one audit log
// line per event, skipping redeliveries.
package eventlog

import (
	"context"
	"fmt"

	kafkax "github.com/ariefcatur/go-restaurant-api.git/internal/kafka"
	"github.com/ariefcatur/go-restaurant-api.git/internal/orders"
	"github.com/ariefcatur/go-restaurant-api.git/internal/redisx"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// Deduper reports whether an event id is seen for the first time.
type Deduper interface {
	FirstSeen(ctx context.Context, eventID string) (bool, error)
}

type RedisDeduper struct {
	Redis   *redis.Client
	Service string
}

func (d *RedisDeduper) FirstSeen(ctx context.Context, eventID string) (bool, error) {
	return redisx.MarkOnce(ctx, d.Redis, fmt.Sprintf(redisx.KeyDedup, d.Service, eventID), redisx.TTLDedup)
}

type Service struct {
	Dedup Deduper
	Log   *logrus.Entry
}

// HandleOrderEvent is installed as the kafka consumer handler.
func (s *Service) HandleOrderEvent(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := kafkax.UnmarshalEnvelope(m.Value, &env); err != nil {
		s.Log.WithError(err).WithFields(logrus.Fields{
			"partition": m.Partition,
			"offset":    m.Offset,
		}).Error("skip undecodable message")
		return nil
	}

	fields, err := describe(env)
	if err != nil {
		s.Log.WithError(err).WithField("event_id", env.EventID).Error("skip undecodable payload")
		return nil
	}

	first, err := s.Dedup.FirstSeen(ctx, env.EventID)
	if err != nil {
		return fmt.Errorf("dedup %s: %w", env.EventID, err)
	}
	if !first {
		s.Log.WithField("event_id", env.EventID).Debug("duplicate event")
		return nil
	}

	fields["event_id"] = env.EventID
	fields["event_type"] = env.EventType
	fields["order_id"] = env.OrderID
	fields["producer"] = env.Producer
	fields["occurred_at"] = env.OccurredAt
	if env.TraceID != "" {
		fields["trace_id"] = env.TraceID
	}
	s.Log.WithFields(fields).Info("order event")
	return nil
}

func describe(env orders.Envelope) (logrus.Fields, error) {
	switch env.EventType {
	case orders.EventOrderCreated:
		p, err := kafkax.UnwrapPayload[orders.OrderCreatedPayload](env.Payload)
		if err != nil {
			return nil, err
		}
		return logrus.Fields{"user_id": p.UserID, "lines": len(p.Items), "total": p.Total.String(), "date": p.Date}, nil

	case orders.EventOrderAssigned:
		p, err := kafkax.UnwrapPayload[orders.OrderAssignedPayload](env.Payload)
		if err != nil {
			return nil, err
		}
		f := logrus.Fields{"by": p.By, "delivery_crew": nil}
		if p.DeliveryCrew != nil {
			f["delivery_crew"] = *p.DeliveryCrew
		}
		return f, nil

	case orders.EventOrderStatusChanged:
		p, err := kafkax.UnwrapPayload[orders.OrderStatusChangedPayload](env.Payload)
		if err != nil {
			return nil, err
		}
		return logrus.Fields{"from": p.From.String(), "to": p.To.String(), "by": p.By}, nil

	case orders.EventOrderDeleted:
		p, err := kafkax.UnwrapPayload[orders.OrderDeletedPayload](env.Payload)
		if err != nil {
			return nil, err
		}
		return logrus.Fields{"by": p.By}, nil
	}
	return logrus.Fields{"unknown_type": true}, nil
}
