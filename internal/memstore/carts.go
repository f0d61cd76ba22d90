package memstore

import (
	"context"

	"github.com/ariefcatur/go-restaurant-api.git/internal/apperr"
	"github.com/ariefcatur/go-restaurant-api.git/internal/cart"
)

type Carts struct{ s *Store }

func (c *Carts) Lines(_ context.Context, userID int64) ([]cart.Line, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	return c.s.cartLines(userID), nil
}

// Add upserts under the store lock, so concurrent adds of the same item
// always sum.
func (c *Carts) Add(_ context.Context, userID, menuItemID int64, qty int) (cart.Line, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	it, ok := c.s.items[menuItemID]
	if !ok {
		return cart.Line{}, apperr.ErrNotFound
	}
	for _, r := range c.s.carts {
		if r.userID != userID || r.menuItemID != menuItemID {
			continue
		}
		if r.qty+qty > cart.MaxQuantity {
			return cart.Line{}, cart.ErrQuantityOverflow
		}
		r.qty += qty
		r.unitPrice = it.price
		r.price = it.price.Mul(r.qty)
		return c.s.cartLine(r), nil
	}
	r := &cartRow{
		id:         c.s.next(),
		userID:     userID,
		menuItemID: menuItemID,
		qty:        qty,
		unitPrice:  it.price,
		price:      it.price.Mul(qty),
	}
	c.s.carts = append(c.s.carts, r)
	return c.s.cartLine(r), nil
}

func (c *Carts) Clear(_ context.Context, userID int64) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	c.s.clearCart(userID)
	return nil
}

// callers hold s.mu

func (s *Store) cartLines(userID int64) []cart.Line {
	var out []cart.Line
	for _, r := range s.carts {
		if r.userID == userID {
			out = append(out, s.cartLine(r))
		}
	}
	return out
}

func (s *Store) cartLine(r *cartRow) cart.Line {
	return cart.Line{
		ID:        r.id,
		UserID:    r.userID,
		MenuItem:  s.item(r.menuItemID),
		Quantity:  r.qty,
		UnitPrice: r.unitPrice,
		Price:     r.price,
	}
}

func (s *Store) clearCart(userID int64) {
	kept := s.carts[:0]
	for _, r := range s.carts {
		if r.userID != userID {
			kept = append(kept, r)
		}
	}
	s.carts = kept
}
