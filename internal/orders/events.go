package orders

import (
	"encoding/json"
	"time"

	"github.com/ariefcatur/go-restaurant-api.git/internal/money"
)

const (
	EventOrderCreated       = "OrderCreated"
	EventOrderAssigned      = "OrderAssigned"
	EventOrderStatusChanged = "OrderStatusChanged"
	EventOrderDeleted       = "OrderDeleted"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order id
	OrderID       int64           `json:"order_id"`
	Payload       json.RawMessage `json:"payload"`
}

type ItemPrice struct {
	MenuItemID int64        `json:"menuitem_id"`
	Qty        int          `json:"qty"`
	UnitPrice  money.Amount `json:"unit_price"`
	Price      money.Amount `json:"price"`
}

type OrderCreatedPayload struct {
	OrderID int64        `json:"order_id"`
	UserID  int64        `json:"user_id"`
	Items   []ItemPrice  `json:"items"`
	Total   money.Amount `json:"total"`
	Date    string       `json:"date"`
}

type OrderAssignedPayload struct {
	OrderID      int64  `json:"order_id"`
	DeliveryCrew *int64 `json:"delivery_crew"` // null = unassigned
	Previous     *int64 `json:"previous,omitempty"`
	By           int64  `json:"by"`
}

type OrderStatusChangedPayload struct {
	OrderID int64  `json:"order_id"`
	From    Status `json:"from"`
	To      Status `json:"to"`
	By      int64  `json:"by"`
}

type OrderDeletedPayload struct {
	OrderID int64 `json:"order_id"`
	By      int64 `json:"by"`
}
