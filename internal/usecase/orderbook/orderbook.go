package orderbook

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/tidwall/btree"

	orderbookv1 "github.com/dizhouwu/QuantBeat/internal/domain/orderbook/v1"
	snapshotv1 "github.com/dizhouwu/QuantBeat/internal/domain/snapshot/v1"
)

// Orderbook is the single-instrument limit order book and matching core.
//
// It is a single-writer state machine: every mutating call holds the
// book lock for its whole duration, so submissions and cancellations
// are applied in one global order and trade output is deterministic.
type Orderbook struct {
	mu sync.RWMutex

	// Price levels per side, best price first (bids descending,
	// asks ascending), so Min() is always the top of book.
	bids *btree.BTreeG[*orderbookv1.PriceLevel]
	asks *btree.BTreeG[*orderbookv1.PriceLevel]

	// Resting orders by ID, for cancel lookup.
	orders map[string]*orderbookv1.Order

	// Resting-order bookkeeping per side.
	bidOrders int
	askOrders int
	bidVolume int64
	askVolume int64

	// Monotonic counters. arrivalSeq breaks time-priority ties even
	// under equal wall-clock timestamps; tradeSeq numbers executions.
	arrivalSeq uint64
	tradeSeq   uint64
}

// NewOrderbook creates an empty orderbook.
func NewOrderbook() *Orderbook {
	bids := btree.NewBTreeG(func(a, b *orderbookv1.PriceLevel) bool {
		return a.Price > b.Price
	})
	asks := btree.NewBTreeG(func(a, b *orderbookv1.PriceLevel) bool {
		return a.Price < b.Price
	})
	return &Orderbook{
		bids:   bids,
		asks:   asks,
		orders: make(map[string]*orderbookv1.Order),
	}
}

// Submit validates an incoming order, matches it against the opposing
// side under price-time priority and returns the trades generated, in
// creation order. A limit remainder rests; a market remainder is
// discarded, market orders never rest.
//
// Validation failures reject the order before any book mutation.
func (ob *Orderbook) Submit(order *orderbookv1.Order) ([]orderbookv1.Trade, error) {
	if order == nil {
		return nil, orderbookv1.ErrNilOrder
	}
	if order.ID == "" {
		return nil, orderbookv1.ErrMissingOrderID
	}
	if order.Size <= 0 || order.Remaining != order.Size {
		return nil, fmt.Errorf("%w: got %d", orderbookv1.ErrInvalidSize, order.Size)
	}
	switch order.Type {
	case orderbookv1.OrderTypeLimit:
		if order.Price <= 0 {
			return nil, fmt.Errorf("%w: got %d", orderbookv1.ErrInvalidPrice, order.Price)
		}
	case orderbookv1.OrderTypeMarket:
	default:
		return nil, fmt.Errorf("%w: %q", orderbookv1.ErrUnknownOrderType, order.Type)
	}

	ob.mu.Lock()
	defer ob.mu.Unlock()

	if _, exists := ob.orders[order.ID]; exists {
		return nil, fmt.Errorf("%w: %s", orderbookv1.ErrDuplicateOrderID, order.ID)
	}

	ob.arrivalSeq++
	order.Sequence = ob.arrivalSeq

	trades := ob.match(order)

	if order.Type == orderbookv1.OrderTypeLimit && order.Remaining > 0 {
		ob.rest(order)
	}

	return trades, nil
}

// match runs the crossing loop against the side opposing the taker.
func (ob *Orderbook) match(taker *orderbookv1.Order) []orderbookv1.Trade {
	opposing := ob.asks
	if taker.IsAsk() {
		opposing = ob.bids
	}

	var trades []orderbookv1.Trade
	for taker.Remaining > 0 {
		best, ok := opposing.Min()
		if !ok {
			break
		}
		if taker.Type == orderbookv1.OrderTypeLimit && !crosses(taker, best.Price) {
			break
		}

		maker := best.Head()
		executed := min(taker.Remaining, maker.Remaining)

		taker.Remaining -= executed
		maker.Remaining -= executed
		best.Reduce(executed)
		ob.reduceVolume(maker.Side, executed)

		// Price improvement always favors the resting side.
		ob.tradeSeq++
		trades = append(trades, orderbookv1.Trade{
			Sequence:     ob.tradeSeq,
			TakerSide:    taker.Side,
			Price:        best.Price,
			Size:         executed,
			TakerOrderID: taker.ID,
			MakerOrderID: maker.ID,
			TakerUserID:  taker.UserID,
			MakerUserID:  maker.UserID,
			Timestamp:    time.Now().UnixNano(),
		})

		if maker.IsFilled() {
			best.PopHead()
			delete(ob.orders, maker.ID)
			ob.decCount(maker.Side)
		}
		if best.IsEmpty() {
			opposing.Delete(best)
		}
	}
	return trades
}

// crosses reports whether a limit taker is marketable against the
// opposing best price.
func crosses(taker *orderbookv1.Order, bestPrice int64) bool {
	if taker.IsBid() {
		return taker.Price >= bestPrice
	}
	return taker.Price <= bestPrice
}

// rest inserts a limit remainder into its own side.
func (ob *Orderbook) rest(order *orderbookv1.Order) {
	side := ob.bids
	if order.IsAsk() {
		side = ob.asks
	}

	probe := &orderbookv1.PriceLevel{Price: order.Price}
	level, ok := side.Get(probe)
	if !ok {
		level = orderbookv1.NewPriceLevel(order.Price)
		side.Set(level)
	}
	level.Enqueue(order)
	ob.orders[order.ID] = order

	if order.IsBid() {
		ob.bidOrders++
		ob.bidVolume += order.Remaining
	} else {
		ob.askOrders++
		ob.askVolume += order.Remaining
	}
}

// Cancel removes a resting order by ID and returns it with its
// remaining quantity at cancellation time. Not-found is a normal
// outcome, not an error: cancels race against matching.
func (ob *Orderbook) Cancel(orderID string) (*orderbookv1.Order, bool) {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	order, exists := ob.orders[orderID]
	if !exists {
		return nil, false
	}

	side := ob.bids
	if order.IsAsk() {
		side = ob.asks
	}

	probe := &orderbookv1.PriceLevel{Price: order.Price}
	if level, ok := side.Get(probe); ok {
		if level.Remove(orderID) {
			ob.reduceVolume(order.Side, order.Remaining)
			ob.decCount(order.Side)
		}
		if level.IsEmpty() {
			side.Delete(level)
		}
	}
	delete(ob.orders, orderID)

	return order, true
}

// BestBid returns the top-priority resting bid, or false when the bid
// side is empty.
func (ob *Orderbook) BestBid() (*orderbookv1.Order, bool) {
	ob.mu.RLock()
	defer ob.mu.RUnlock()

	level, ok := ob.bids.Min()
	if !ok {
		return nil, false
	}
	return level.Head(), true
}

// BestAsk returns the top-priority resting ask, or false when the ask
// side is empty.
func (ob *Orderbook) BestAsk() (*orderbookv1.Order, bool) {
	ob.mu.RLock()
	defer ob.mu.RUnlock()

	level, ok := ob.asks.Min()
	if !ok {
		return nil, false
	}
	return level.Head(), true
}

// Depth returns the count of resting orders on a side.
func (ob *Orderbook) Depth(side orderbookv1.Side) int {
	ob.mu.RLock()
	defer ob.mu.RUnlock()

	if side == orderbookv1.SideBuy {
		return ob.bidOrders
	}
	return ob.askOrders
}

// BidTotalVolume returns the total resting bid quantity.
func (ob *Orderbook) BidTotalVolume() int64 {
	ob.mu.RLock()
	defer ob.mu.RUnlock()
	return ob.bidVolume
}

// AskTotalVolume returns the total resting ask quantity.
func (ob *Orderbook) AskTotalVolume() int64 {
	ob.mu.RLock()
	defer ob.mu.RUnlock()
	return ob.askVolume
}

// CreateSnapshot produces a read-only view of the book: asks in
// ascending priority order, then bids in descending price order,
// with the monotonic counters needed to resume after a restore.
func (ob *Orderbook) CreateSnapshot() *snapshotv1.Snapshot {
	ob.mu.RLock()
	defer ob.mu.RUnlock()

	var bookOrders []snapshotv1.BookOrder
	collect := func(level *orderbookv1.PriceLevel) bool {
		for _, order := range level.Orders {
			bookOrders = append(bookOrders, snapshotv1.BookOrder{
				OrderID:   order.ID,
				UserID:    order.UserID,
				Side:      order.Side,
				Price:     level.Price,
				Size:      order.Size,
				Remaining: order.Remaining,
				Sequence:  order.Sequence,
				Timestamp: order.Timestamp,
			})
		}
		return true
	}
	ob.asks.Scan(collect)
	ob.bids.Scan(collect)

	return &snapshotv1.Snapshot{
		OrderBookSnapshot: snapshotv1.OrderBookSnapshot{
			Orders:          bookOrders,
			TradeSequence:   ob.tradeSeq,
			ArrivalSequence: ob.arrivalSeq,
		},
	}
}

// RestoreOrderbook rebuilds the book from a snapshot, re-inserting
// orders in arrival-sequence order so time priority survives the
// round trip.
func (ob *Orderbook) RestoreOrderbook(snapshot *snapshotv1.Snapshot) error {
	if snapshot == nil {
		return fmt.Errorf("snapshot cannot be nil")
	}

	ob.mu.Lock()
	defer ob.mu.Unlock()

	ob.bids.Clear()
	ob.asks.Clear()
	ob.orders = make(map[string]*orderbookv1.Order)
	ob.bidOrders, ob.askOrders = 0, 0
	ob.bidVolume, ob.askVolume = 0, 0

	bookOrders := make([]snapshotv1.BookOrder, len(snapshot.OrderBookSnapshot.Orders))
	copy(bookOrders, snapshot.OrderBookSnapshot.Orders)
	sort.Slice(bookOrders, func(i, j int) bool {
		return bookOrders[i].Sequence < bookOrders[j].Sequence
	})

	for _, bookOrder := range bookOrders {
		if bookOrder.Remaining <= 0 {
			return fmt.Errorf("order %s in snapshot has no remaining quantity", bookOrder.OrderID)
		}
		order := &orderbookv1.Order{
			ID:        bookOrder.OrderID,
			UserID:    bookOrder.UserID,
			Side:      bookOrder.Side,
			Type:      orderbookv1.OrderTypeLimit,
			Price:     bookOrder.Price,
			Size:      bookOrder.Size,
			Remaining: bookOrder.Remaining,
			Sequence:  bookOrder.Sequence,
			Timestamp: bookOrder.Timestamp,
		}
		if _, exists := ob.orders[order.ID]; exists {
			return fmt.Errorf("%w: %s", orderbookv1.ErrDuplicateOrderID, order.ID)
		}
		ob.rest(order)
	}

	ob.tradeSeq = snapshot.OrderBookSnapshot.TradeSequence
	ob.arrivalSeq = snapshot.OrderBookSnapshot.ArrivalSequence

	return nil
}

func (ob *Orderbook) reduceVolume(side orderbookv1.Side, size int64) {
	if side == orderbookv1.SideBuy {
		ob.bidVolume -= size
	} else {
		ob.askVolume -= size
	}
}

func (ob *Orderbook) decCount(side orderbookv1.Side) {
	if side == orderbookv1.SideBuy {
		ob.bidOrders--
	} else {
		ob.askOrders--
	}
}
