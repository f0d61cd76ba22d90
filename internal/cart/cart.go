package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/ariefcatur/go-restaurant-api.git/internal/apperr"
	"github.com/ariefcatur/go-restaurant-api.git/internal/menu"
	"github.com/ariefcatur/go-restaurant-api.git/internal/money"
	"github.com/sirupsen/logrus"
)

// MaxQuantity is the SMALLINT ceiling of cart and order line quantities.
const MaxQuantity = 32767

// Line is one (user, menu item) row. Price is always Quantity × UnitPrice.
type Line struct {
	ID        int64         `json:"id"`
	UserID    int64         `json:"user"`
	MenuItem  menu.MenuItem `json:"menuitem"`
	Quantity  int           `json:"quantity"`
	UnitPrice money.Amount  `json:"unit_price"`
	Price     money.Amount  `json:"price"`
}

// Store must make Add an atomic upsert-with-increment keyed on
// (user, menu item) so concurrent adds never lose quantity.
type Store interface {
	Lines(ctx context.Context, userID int64) ([]Line, error)
	Add(ctx context.Context, userID, menuItemID int64, qty int) (Line, error)
	Clear(ctx context.Context, userID int64) error
}

// ErrQuantityOverflow is returned by stores when a merge would exceed MaxQuantity.
var ErrQuantityOverflow = errors.New("merged quantity exceeds maximum")

type Service struct {
	store Store
	log   *logrus.Entry
}

func NewService(store Store, log *logrus.Entry) *Service {
	return &Service{store: store, log: log.WithField("component", "cart")}
}

func (s *Service) List(ctx context.Context, userID int64) ([]Line, error) {
	lines, err := s.store.Lines(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list cart: %w", err)
	}
	if lines == nil {
		lines = []Line{}
	}
	return lines, nil
}

// Add captures the menu item's current price. An existing line for the same
// item is merged: quantity is incremented and the line is repriced.
func (s *Service) Add(ctx context.Context, userID, menuItemID int64, qty int) (Line, error) {
	v := &apperr.ValidationError{}
	if menuItemID <= 0 {
		v.Add("menuitem_id", "this field is required")
	}
	if qty < 1 {
		v.Add("quantity", "ensure this value is greater than or equal to 1")
	} else if qty > MaxQuantity {
		v.Add("quantity", fmt.Sprintf("ensure this value is less than or equal to %d", MaxQuantity))
	}
	if err := v.Err(); err != nil {
		return Line{}, err
	}

	line, err := s.store.Add(ctx, userID, menuItemID, qty)
	switch {
	case errors.Is(err, ErrQuantityOverflow):
		return Line{}, apperr.Invalid("quantity", fmt.Sprintf("cart quantity for this item would exceed %d", MaxQuantity))
	case errors.Is(err, apperr.ErrNotFound):
		return Line{}, apperr.Invalid("menuitem_id", fmt.Sprintf("invalid pk %d - object does not exist", menuItemID))
	case err != nil:
		return Line{}, fmt.Errorf("add to cart: %w", err)
	}
	s.log.WithFields(logrus.Fields{
		"user_id":      userID,
		"menu_item_id": menuItemID,
		"quantity":     line.Quantity,
	}).Debug("cart line upserted")
	return line, nil
}

// Clear is idempotent.
func (s *Service) Clear(ctx context.Context, userID int64) error {
	if err := s.store.Clear(ctx, userID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

// Total sums line prices.
func Total(lines []Line) money.Amount {
	prices := make([]money.Amount, len(lines))
	for i, l := range lines {
		prices[i] = l.Price
	}
	return money.Sum(prices...)
}
