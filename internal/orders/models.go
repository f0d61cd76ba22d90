package orders

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"

	"github.com/ariefcatur/go-restaurant-api.git/internal/apperr"
	"github.com/ariefcatur/go-restaurant-api.git/internal/cart"
	"github.com/ariefcatur/go-restaurant-api.git/internal/menu"
	"github.com/ariefcatur/go-restaurant-api.git/internal/money"
)

type Order struct {
	ID           int64        `json:"id"`
	UserID       int64        `json:"user"`
	DeliveryCrew *int64       `json:"delivery_crew"`
	Status       Status       `json:"status"`
	Total        money.Amount `json:"total"`
	Date         Date         `json:"date"`
	Lines        []Line       `json:"order_items"`
}

// Line is a snapshot of a cart line taken at checkout. It is never repriced.
type Line struct {
	ID        int64         `json:"id"`
	OrderID   int64         `json:"order"`
	MenuItem  menu.MenuItem `json:"menuitem"`
	Quantity  int           `json:"quantity"`
	UnitPrice money.Amount  `json:"unit_price"`
	Price     money.Amount  `json:"price"`
}

const dateLayout = "2006-01-02"

// Date is a calendar day rendered as YYYY-MM-DD.
type Date struct{ time.Time }

func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func (d Date) String() string { return d.Format(dateLayout) }

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s, err := strconv.Unquote(string(b))
	if err != nil {
		return err
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// FromCart builds the unsaved order for a checkout: one line per cart line,
// total = sum of line prices.
func FromCart(userID int64, lines []cart.Line, now time.Time) Order {
	o := Order{
		UserID: userID,
		Status: StatusUnfulfilled,
		Date:   DateOf(now),
		Lines:  make([]Line, 0, len(lines)),
	}
	for _, cl := range lines {
		o.Lines = append(o.Lines, Line{
			MenuItem:  cl.MenuItem,
			Quantity:  cl.Quantity,
			UnitPrice: cl.UnitPrice,
			Price:     cl.Price,
		})
	}
	o.Total = cart.Total(lines)
	return o
}

// Filter narrows List; a zero Filter matches every order.
type Filter struct {
	Owner        *int64
	DeliveryCrew *int64
}

// Patch is a partial update body. delivery_crew distinguishes absent from
// null: null unassigns. Status is kept raw so the engine can reject values
// other than 0 and 1.
type Patch struct {
	SetDeliveryCrew bool
	DeliveryCrew    *int64
	Status          *int
}

func (p *Patch) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	v := &apperr.ValidationError{}
	if rc, ok := raw["delivery_crew"]; ok {
		p.SetDeliveryCrew = true
		if !isNull(rc) {
			id, err := decodeInt(rc)
			if err != nil {
				v.Add("delivery_crew", "incorrect type, expected pk value")
			} else {
				id64 := int64(id)
				p.DeliveryCrew = &id64
			}
		}
	}
	if rs, ok := raw["status"]; ok && !isNull(rs) {
		n, err := decodeStatus(rs)
		if err != nil {
			v.Add("status", "must be 0 or 1")
		} else {
			p.Status = &n
		}
	}
	return v.Err()
}

// StatusBody is the delivery crew's update body. Only "status" is decoded;
// it must be a JSON number or boolean.
type StatusBody struct {
	Status *int
}

func (b *StatusBody) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	rs, ok := raw["status"]
	if !ok || isNull(rs) {
		return nil
	}
	var flag bool
	if err := json.Unmarshal(rs, &flag); err == nil {
		n := 0
		if flag {
			n = 1
		}
		b.Status = &n
		return nil
	}
	var n int
	if err := json.Unmarshal(rs, &n); err != nil {
		return apperr.Invalid("status", "must be 0 or 1")
	}
	b.Status = &n
	return nil
}

// Change is a validated Patch as handed to the Store.
type Change struct {
	SetDeliveryCrew bool
	DeliveryCrew    *int64
	Status          *Status
}

func isNull(b json.RawMessage) bool { return bytes.Equal(bytes.TrimSpace(b), []byte("null")) }

func decodeInt(b json.RawMessage) (int, error) {
	var n int
	if err := json.Unmarshal(b, &n); err == nil {
		return n, nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return 0, err
	}
	return strconv.Atoi(s)
}

// decodeStatus also takes true/false.
func decodeStatus(b json.RawMessage) (int, error) {
	var flag bool
	if err := json.Unmarshal(b, &flag); err == nil {
		if flag {
			return 1, nil
		}
		return 0, nil
	}
	return decodeInt(b)
}
