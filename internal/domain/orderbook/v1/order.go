package orderbookv1

import (
	"time"
)

// Side represents the side of an order.
type Side string

const (
	// SideBuy represents a buy order.
	SideBuy Side = "buy"
	// SideSell represents a sell order.
	SideSell Side = "sell"
)

// Opposite returns the opposing side.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// OrderType represents the type of order.
type OrderType string

const (
	// OrderTypeMarket represents a market order.
	OrderTypeMarket OrderType = "market"
	// OrderTypeLimit represents a limit order.
	OrderTypeLimit OrderType = "limit"
	// OrderTypeCancel represents a cancel request.
	OrderTypeCancel OrderType = "cancel"
)

// Order represents a single order in the order book.
//
// Size is immutable after construction; Remaining starts equal to Size
// and only ever decreases. An order with Remaining == 0 never rests.
type Order struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userID"`
	Side      Side      `json:"side"`
	Type      OrderType `json:"type"`
	Price     int64     `json:"price"` // price ticks, limit orders only
	Size      int64     `json:"size"`
	Remaining int64     `json:"remaining"`
	Sequence  uint64    `json:"sequence"` // arrival sequence, time-priority tie-break
	Timestamp int64     `json:"timestamp"`
}

// PlaceOrderRequest represents a request to place an order in the order book.
type PlaceOrderRequest struct {
	OrderID string    `json:"orderID"`
	UserID  string    `json:"userID"`
	Type    OrderType `json:"type"`
	Side    Side      `json:"side"`
	Size    int64     `json:"size"`
	Price   int64     `json:"price"`
	Offset  int64     `json:"offset"` // offset of the request in the order stream
}

// NewOrder creates a new order with the given parameters.
func NewOrder(id, userID string, side Side, orderType OrderType, price, size int64) *Order {
	return &Order{
		ID:        id,
		UserID:    userID,
		Side:      side,
		Type:      orderType,
		Price:     price,
		Size:      size,
		Remaining: size,
		Timestamp: time.Now().UnixNano(),
	}
}

// IsBid checks if the order is a bid (buy) order.
func (o *Order) IsBid() bool {
	return o.Side == SideBuy
}

// IsAsk checks if the order is an ask (sell) order.
func (o *Order) IsAsk() bool {
	return o.Side == SideSell
}

// IsFilled checks if the order has no remaining quantity.
func (o *Order) IsFilled() bool {
	return o.Remaining == 0
}

// Filled returns the executed quantity of the order.
func (o *Order) Filled() int64 {
	return o.Size - o.Remaining
}
