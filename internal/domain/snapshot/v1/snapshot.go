package snapshotv1

import (
	orderbookv1 "github.com/dizhouwu/QuantBeat/internal/domain/orderbook/v1"
)

// BookOrder is the flattened form of one resting order inside a snapshot.
type BookOrder struct {
	OrderID   string           `json:"orderID"`
	UserID    string           `json:"userID"`
	Side      orderbookv1.Side `json:"side"`
	Price     int64            `json:"price"`
	Size      int64            `json:"size"`
	Remaining int64            `json:"remaining"`
	Sequence  uint64           `json:"sequence"`
	Timestamp int64            `json:"timestamp"`
}

// OrderBookSnapshot captures all resting orders plus the book's
// monotonic counters so a restore continues the same sequences.
type OrderBookSnapshot struct {
	Orders          []BookOrder `json:"orders"`
	TradeSequence   uint64      `json:"tradeSequence"`
	ArrivalSequence uint64      `json:"arrivalSequence"`
}

// Snapshot is one persisted engine checkpoint.
type Snapshot struct {
	// OrderOffset is the order-stream offset the book state reflects.
	OrderOffset       int64             `json:"orderOffset"`
	OrderBookSnapshot OrderBookSnapshot `json:"orderBookSnapshot"`
}
