package orders

import "github.com/ariefcatur/go-restaurant-api.git/internal/apperr"

// Status is the delivery flag of an order, stored as 0/1.
type Status int

const (
	StatusUnfulfilled Status = 0
	StatusDelivered   Status = 1
)

// Both states may move to either state; re-applying the current state is a no-op.
var validNext = map[Status]map[Status]bool{
	StatusUnfulfilled: {StatusUnfulfilled: true, StatusDelivered: true},
	StatusDelivered:   {StatusDelivered: true, StatusUnfulfilled: true},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

// ParseStatus accepts exactly 0 or 1.
func ParseStatus(v int) (Status, error) {
	s := Status(v)
	if _, ok := validNext[s]; !ok {
		return 0, apperr.ErrInvalidStatus
	}
	return s, nil
}

func (s Status) String() string {
	switch s {
	case StatusUnfulfilled:
		return "UNFULFILLED"
	case StatusDelivered:
		return "DELIVERED"
	}
	return "UNKNOWN"
}
