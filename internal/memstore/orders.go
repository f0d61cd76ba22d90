package memstore

import (
	"context"
	"sort"

	"github.com/ariefcatur/go-restaurant-api.git/internal/apperr"
	"github.com/ariefcatur/go-restaurant-api.git/internal/cart"
	"github.com/ariefcatur/go-restaurant-api.git/internal/orders"
)

type Orders struct{ s *Store }

// Checkout holds the store lock for the whole drain, which serializes
// concurrent checkouts of the same cart.
func (o *Orders) Checkout(_ context.Context, userID int64, build func([]cart.Line) orders.Order) (orders.Order, error) {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()
	lines := o.s.cartLines(userID)
	if len(lines) == 0 {
		return orders.Order{}, apperr.ErrEmptyCart
	}
	ord := build(lines)
	row := &orderRow{
		id:     o.s.next(),
		userID: ord.UserID,
		status: ord.Status,
		total:  ord.Total,
		date:   ord.Date.Time,
	}
	o.s.orders[row.id] = row
	for _, l := range ord.Lines {
		o.s.lines = append(o.s.lines, &orderLineRow{
			id:         o.s.next(),
			orderID:    row.id,
			menuItemID: l.MenuItem.ID,
			qty:        l.Quantity,
			unitPrice:  l.UnitPrice,
			price:      l.Price,
		})
	}
	o.s.clearCart(userID)
	return o.s.order(row), nil
}

func (o *Orders) List(_ context.Context, f orders.Filter) ([]orders.Order, error) {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()
	var out []orders.Order
	for _, row := range o.s.orders {
		if f.Owner != nil && row.userID != *f.Owner {
			continue
		}
		if f.DeliveryCrew != nil && (row.crew == nil || *row.crew != *f.DeliveryCrew) {
			continue
		}
		out = append(out, o.s.order(row))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (o *Orders) Get(_ context.Context, id int64) (orders.Order, error) {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()
	row, ok := o.s.orders[id]
	if !ok {
		return orders.Order{}, apperr.ErrNotFound
	}
	return o.s.order(row), nil
}

func (o *Orders) Parties(_ context.Context, id int64) (int64, *int64, error) {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()
	row, ok := o.s.orders[id]
	if !ok {
		return 0, nil, apperr.ErrNotFound
	}
	return row.userID, copyID(row.crew), nil
}

func (o *Orders) Update(_ context.Context, id int64, ch orders.Change) (orders.Order, error) {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()
	row, ok := o.s.orders[id]
	if !ok {
		return orders.Order{}, apperr.ErrNotFound
	}
	if ch.SetDeliveryCrew {
		if ch.DeliveryCrew != nil {
			if _, ok := o.s.users[*ch.DeliveryCrew]; !ok {
				return orders.Order{}, apperr.ErrUserNotFound
			}
		}
		row.crew = copyID(ch.DeliveryCrew)
	}
	if ch.Status != nil {
		row.status = *ch.Status
	}
	return o.s.order(row), nil
}

func (o *Orders) SetStatus(_ context.Context, id, crew int64, st orders.Status) (orders.Order, error) {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()
	row, ok := o.s.orders[id]
	if !ok {
		return orders.Order{}, apperr.ErrNotFound
	}
	if row.crew == nil || *row.crew != crew {
		return orders.Order{}, apperr.ErrForbidden
	}
	row.status = st
	return o.s.order(row), nil
}

func (o *Orders) Delete(_ context.Context, id int64) error {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()
	if _, ok := o.s.orders[id]; !ok {
		return apperr.ErrNotFound
	}
	delete(o.s.orders, id)
	kept := o.s.lines[:0]
	for _, l := range o.s.lines {
		if l.orderID != id {
			kept = append(kept, l)
		}
	}
	o.s.lines = kept
	return nil
}

// callers hold s.mu

func (s *Store) order(row *orderRow) orders.Order {
	out := orders.Order{
		ID:           row.id,
		UserID:       row.userID,
		DeliveryCrew: copyID(row.crew),
		Status:       row.status,
		Total:        row.total,
		Date:         orders.DateOf(row.date),
		Lines:        []orders.Line{},
	}
	for _, l := range s.lines {
		if l.orderID != row.id {
			continue
		}
		out.Lines = append(out.Lines, orders.Line{
			ID:        l.id,
			OrderID:   l.orderID,
			MenuItem:  s.item(l.menuItemID),
			Quantity:  l.qty,
			UnitPrice: l.unitPrice,
			Price:     l.price,
		})
	}
	return out
}

func copyID(p *int64) *int64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
