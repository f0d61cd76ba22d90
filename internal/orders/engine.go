package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/ariefcatur/go-restaurant-api.git/internal/access"
	"github.com/ariefcatur/go-restaurant-api.git/internal/apperr"
	"github.com/ariefcatur/go-restaurant-api.git/internal/cart"
	"github.com/ariefcatur/go-restaurant-api.git/internal/metrics"
	"github.com/ariefcatur/go-restaurant-api.git/internal/roles"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Publisher hands an order event to the event transport. Engine calls it
// after the store has committed; errors are logged and dropped.
type Publisher interface {
	Publish(ctx context.Context, env Envelope) error
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Envelope) error { return nil }

// Engine runs the order lifecycle. Callers arrive already authorized by the
// access gate; the engine only re-checks what the store can enforce
// atomically (delivery assignment on status updates).
type Engine struct {
	store   Store
	users   roles.Users
	pub     Publisher
	metrics *metrics.Metrics
	log     *logrus.Entry
	service string
	now     func() time.Time
}

type Option func(*Engine)

func WithPublisher(p Publisher) Option { return func(e *Engine) { e.pub = p } }

func WithMetrics(m *metrics.Metrics) Option { return func(e *Engine) { e.metrics = m } }

func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

func NewEngine(store Store, users roles.Users, service string, log *logrus.Entry, opts ...Option) *Engine {
	e := &Engine{
		store:   store,
		users:   users,
		pub:     NopPublisher{},
		log:     log.WithField("component", "orders"),
		service: service,
		now:     time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// CreateOrder drains the caller's cart into a new order.
func (e *Engine) CreateOrder(ctx context.Context, c *access.Caller) (Order, error) {
	now := e.now()
	o, err := e.store.Checkout(ctx, c.ID, func(lines []cart.Line) Order {
		return FromCart(c.ID, lines, now)
	})
	if err != nil {
		if errors.Is(err, apperr.ErrEmptyCart) {
			return Order{}, err
		}
		return Order{}, fmt.Errorf("checkout: %w", err)
	}
	e.metrics.OrderCreated()
	e.log.WithFields(logrus.Fields{
		"order_id": o.ID,
		"user_id":  c.ID,
		"lines":    len(o.Lines),
		"total":    o.Total.String(),
	}).Info("order created")

	items := make([]ItemPrice, 0, len(o.Lines))
	for _, l := range o.Lines {
		items = append(items, ItemPrice{MenuItemID: l.MenuItem.ID, Qty: l.Quantity, UnitPrice: l.UnitPrice, Price: l.Price})
	}
	e.publish(ctx, EventOrderCreated, o.ID, OrderCreatedPayload{
		OrderID: o.ID,
		UserID:  o.UserID,
		Items:   items,
		Total:   o.Total,
		Date:    o.Date.String(),
	})
	return o, nil
}

// ListOrders returns every order to a manager and only their own orders to
// anyone else.
func (e *Engine) ListOrders(ctx context.Context, c *access.Caller) ([]Order, error) {
	f := Filter{}
	if !c.Is(roles.Manager) {
		f.Owner = &c.ID
	}
	return e.list(ctx, f)
}

func (e *Engine) ListAssigned(ctx context.Context, c *access.Caller) ([]Order, error) {
	return e.list(ctx, Filter{DeliveryCrew: &c.ID})
}

func (e *Engine) GetOrder(ctx context.Context, c *access.Caller, id int64) (Order, error) {
	return e.store.Get(ctx, id)
}

// UpdateOrder applies a manager patch. Absent fields are left alone;
// delivery_crew null unassigns.
func (e *Engine) UpdateOrder(ctx context.Context, c *access.Caller, id int64, p Patch) (Order, error) {
	cur, err := e.store.Get(ctx, id)
	if err != nil {
		return Order{}, err
	}

	ch := Change{SetDeliveryCrew: p.SetDeliveryCrew, DeliveryCrew: p.DeliveryCrew}
	if p.Status != nil {
		s, err := ParseStatus(*p.Status)
		if err != nil {
			return Order{}, err
		}
		if !CanTransition(cur.Status, s) {
			return Order{}, apperr.ErrInvalidStatus
		}
		ch.Status = &s
	}
	if p.SetDeliveryCrew && p.DeliveryCrew != nil {
		ok, err := e.users.UserExists(ctx, *p.DeliveryCrew)
		if err != nil {
			return Order{}, fmt.Errorf("lookup delivery crew: %w", err)
		}
		if !ok {
			return Order{}, apperr.ErrUserNotFound
		}
	}
	if !ch.SetDeliveryCrew && ch.Status == nil {
		return cur, nil
	}

	o, err := e.store.Update(ctx, id, ch)
	if err != nil {
		return Order{}, err
	}

	if ch.SetDeliveryCrew && !sameCrew(cur.DeliveryCrew, o.DeliveryCrew) {
		e.metrics.OrderUpdated("assign")
		e.log.WithFields(logrus.Fields{"order_id": id, "delivery_crew": crewField(o.DeliveryCrew), "by": c.ID}).
			Info("delivery crew assigned")
		e.publish(ctx, EventOrderAssigned, id, OrderAssignedPayload{
			OrderID: id, DeliveryCrew: o.DeliveryCrew, Previous: cur.DeliveryCrew, By: c.ID,
		})
	}
	if o.Status != cur.Status {
		e.statusChanged(ctx, id, cur.Status, o.Status, c.ID)
	}
	return o, nil
}

func (e *Engine) DeleteOrder(ctx context.Context, c *access.Caller, id int64) error {
	if err := e.store.Delete(ctx, id); err != nil {
		return err
	}
	e.metrics.OrderUpdated("delete")
	e.log.WithFields(logrus.Fields{"order_id": id, "by": c.ID}).Info("order deleted")
	e.publish(ctx, EventOrderDeleted, id, OrderDeletedPayload{OrderID: id, By: c.ID})
	return nil
}

// UpdateStatus lets the assigned delivery crew flip the delivered flag.
// Assignment is checked before the status value.
func (e *Engine) UpdateStatus(ctx context.Context, c *access.Caller, id int64, status *int) (Order, error) {
	cur, err := e.store.Get(ctx, id)
	if err != nil {
		return Order{}, err
	}
	if cur.DeliveryCrew == nil || *cur.DeliveryCrew != c.ID {
		return Order{}, fmt.Errorf("%w: order %d is not assigned to you", apperr.ErrForbidden, id)
	}
	if status == nil {
		return Order{}, apperr.Invalid("status", "this field is required")
	}
	s, err := ParseStatus(*status)
	if err != nil {
		return Order{}, err
	}

	o, err := e.store.SetStatus(ctx, id, c.ID, s)
	if err != nil {
		return Order{}, err
	}
	if o.Status != cur.Status {
		e.statusChanged(ctx, id, cur.Status, o.Status, c.ID)
	}
	return o, nil
}

func (e *Engine) list(ctx context.Context, f Filter) ([]Order, error) {
	out, err := e.store.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	if out == nil {
		out = []Order{}
	}
	return out, nil
}

func (e *Engine) statusChanged(ctx context.Context, id int64, from, to Status, by int64) {
	e.metrics.OrderUpdated("status")
	e.log.WithFields(logrus.Fields{"order_id": id, "from": from.String(), "to": to.String(), "by": by}).
		Info("order status changed")
	e.publish(ctx, EventOrderStatusChanged, id, OrderStatusChangedPayload{OrderID: id, From: from, To: to, By: by})
}

func (e *Engine) publish(ctx context.Context, eventType string, orderID int64, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		e.log.WithError(err).WithField("event_type", eventType).Error("encode event payload")
		return
	}
	env := Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    e.now().UTC(),
		Producer:      e.service,
		TraceID:       middleware.GetReqID(ctx),
		CorrelationID: strconv.FormatInt(orderID, 10),
		OrderID:       orderID,
		Payload:       body,
	}
	err = e.pub.Publish(ctx, env)
	e.metrics.Published(eventType, err)
	if err != nil {
		e.log.WithError(err).WithFields(logrus.Fields{
			"event_type": eventType,
			"event_id":   env.EventID,
			"order_id":   orderID,
		}).Warn("publish order event")
	}
}

func sameCrew(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func crewField(c *int64) any {
	if c == nil {
		return nil
	}
	return *c
}
