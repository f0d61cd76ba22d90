// Package amqp publishes order events to a RabbitMQ topic exchange, as an
// alternative to the Kafka transport.
package amqp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/ariefcatur/go-restaurant-api.git/internal/orders"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

const Exchange = "restaurant.orders"

type Publisher struct {
	conn *amqp.Connection
	log  *logrus.Entry

	mu sync.Mutex
	ch *amqp.Channel
}

// Dial connects and declares the durable topic exchange.
func Dial(url string, log *logrus.Entry) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	p := &Publisher{conn: conn, log: log.WithField("component", "amqp-publisher")}
	ch, err := p.channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if err := ch.ExchangeDeclare(Exchange, "topic", true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}
	return p, nil
}

// RoutingKey is order.<event type>, e.g. order.orderstatuschanged.
func RoutingKey(eventType string) string {
	return "order." + strings.ToLower(eventType)
}

func (p *Publisher) Publish(ctx context.Context, env orders.Envelope) error {
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	ch, err := p.channel()
	if err != nil {
		return err
	}
	err = ch.PublishWithContext(ctx, Exchange, RoutingKey(env.EventType), false, false, amqp.Publishing{
		DeliveryMode:  amqp.Persistent,
		ContentType:   "application/json",
		MessageId:     env.EventID,
		CorrelationId: env.CorrelationID,
		Timestamp:     env.OccurredAt,
		Type:          env.EventType,
		AppId:         env.Producer,
		Body:          body,
	})
	if err != nil {
		p.dropChannel()
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

func (p *Publisher) Close() error {
	p.dropChannel()
	if p.conn != nil && !p.conn.IsClosed() {
		return p.conn.Close()
	}
	return nil
}

// channel reuses one channel and reopens it after a failure.
func (p *Publisher) channel() (*amqp.Channel, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	ch, err := p.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	p.ch = ch
	return ch, nil
}

func (p *Publisher) dropChannel() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil {
		if err := p.ch.Close(); err != nil {
			p.log.WithError(err).Debug("close channel")
		}
		p.ch = nil
	}
}
