package orderbookv1

import (
	"errors"
)

var (
	// ErrNilOrder is returned when a nil order is passed to the book.
	ErrNilOrder = errors.New("order cannot be nil")
	// ErrInvalidPrice is returned when a limit order carries a non-positive price.
	ErrInvalidPrice = errors.New("price must be positive")
	// ErrInvalidSize is returned when an order carries a non-positive size.
	ErrInvalidSize = errors.New("size must be positive")
	// ErrMissingOrderID is returned when an order carries no ID.
	ErrMissingOrderID = errors.New("order ID cannot be empty")
	// ErrDuplicateOrderID is returned when an order ID is already resting in the book.
	ErrDuplicateOrderID = errors.New("order ID already resting")
	// ErrUnknownOrderType is returned for an order type outside the closed set.
	ErrUnknownOrderType = errors.New("unknown order type")
)

// PriceLevel is the FIFO queue of resting orders at a single price.
// Orders are enqueued at the tail in arrival order, so the head is
// always the order with the lowest arrival sequence at this price.
// Locking is owned by the enclosing book.
type PriceLevel struct {
	Price       int64    `json:"price"`
	Orders      []*Order `json:"orders"`
	TotalVolume int64    `json:"totalVolume"`
}

// NewPriceLevel creates an empty price level at the given price.
func NewPriceLevel(price int64) *PriceLevel {
	return &PriceLevel{
		Price:  price,
		Orders: make([]*Order, 0, 4),
	}
}

// Enqueue appends an order to the tail of the level.
func (l *PriceLevel) Enqueue(order *Order) {
	l.Orders = append(l.Orders, order)
	l.TotalVolume += order.Remaining
}

// Head returns the first order in time priority, or nil when empty.
func (l *PriceLevel) Head() *Order {
	if len(l.Orders) == 0 {
		return nil
	}
	return l.Orders[0]
}

// PopHead removes and returns the head order.
func (l *PriceLevel) PopHead() *Order {
	if len(l.Orders) == 0 {
		return nil
	}
	order := l.Orders[0]
	l.Orders = l.Orders[1:]
	l.TotalVolume -= order.Remaining
	return order
}

// Reduce subtracts an executed quantity from the level's running volume.
// The head order's Remaining must already have been decremented.
func (l *PriceLevel) Reduce(size int64) {
	l.TotalVolume -= size
}

// Remove removes the order with the given ID from the level.
// Reports false when no such order rests here; a linear scan is fine
// for the handful of orders a single price level holds.
func (l *PriceLevel) Remove(orderID string) bool {
	for i, order := range l.Orders {
		if order.ID == orderID {
			l.Orders = append(l.Orders[:i], l.Orders[i+1:]...)
			l.TotalVolume -= order.Remaining
			return true
		}
	}
	return false
}

// IsEmpty checks if the level has no resting orders.
func (l *PriceLevel) IsEmpty() bool {
	return len(l.Orders) == 0
}

// OrderCount returns the number of resting orders at this level.
func (l *PriceLevel) OrderCount() int {
	return len(l.Orders)
}
