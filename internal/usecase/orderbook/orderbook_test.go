package orderbook

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	orderbookv1 "github.com/dizhouwu/QuantBeat/internal/domain/orderbook/v1"
)

// Helper function to create a limit order with a specific ID
func createLimitOrder(orderID, userID string, side orderbookv1.Side, price, size int64) *orderbookv1.Order {
	return orderbookv1.NewOrder(orderID, userID, side, orderbookv1.OrderTypeLimit, price, size)
}

// Helper function to create a market order with a specific ID
func createMarketOrder(orderID, userID string, side orderbookv1.Side, size int64) *orderbookv1.Order {
	return orderbookv1.NewOrder(orderID, userID, side, orderbookv1.OrderTypeMarket, 0, size)
}

// Test 1: Basic constructor
func TestNewOrderbook(t *testing.T) {
	ob := NewOrderbook()

	assert.NotNil(t, ob)
	assert.Equal(t, 0, ob.Depth(orderbookv1.SideBuy))
	assert.Equal(t, 0, ob.Depth(orderbookv1.SideSell))
	assert.Equal(t, int64(0), ob.BidTotalVolume())
	assert.Equal(t, int64(0), ob.AskTotalVolume())

	_, ok := ob.BestBid()
	assert.False(t, ok)
	_, ok = ob.BestAsk()
	assert.False(t, ok)
}

// Test 2: Limit order into an empty book rests without trading
func TestOrderbook_Submit_RestsOnEmptyBook(t *testing.T) {
	ob := NewOrderbook()

	order := createLimitOrder("buy1", "user1", orderbookv1.SideBuy, 100, 10)
	trades, err := ob.Submit(order)

	require.NoError(t, err)
	assert.Empty(t, trades)
	assert.Equal(t, 1, ob.Depth(orderbookv1.SideBuy))
	assert.Equal(t, int64(10), ob.BidTotalVolume())

	best, ok := ob.BestBid()
	require.True(t, ok)
	assert.Equal(t, "buy1", best.ID)
	assert.Equal(t, int64(100), best.Price)
	assert.Equal(t, int64(10), best.Remaining)
}

// Test 3: Validation failures reject before any book mutation
func TestOrderbook_Submit_Validation(t *testing.T) {
	ob := NewOrderbook()

	t.Run("nil order", func(t *testing.T) {
		_, err := ob.Submit(nil)
		assert.ErrorIs(t, err, orderbookv1.ErrNilOrder)
	})

	t.Run("missing order ID", func(t *testing.T) {
		order := createLimitOrder("", "user1", orderbookv1.SideBuy, 100, 10)
		_, err := ob.Submit(order)
		assert.ErrorIs(t, err, orderbookv1.ErrMissingOrderID)
	})

	t.Run("non-positive size", func(t *testing.T) {
		order := createLimitOrder("buy1", "user1", orderbookv1.SideBuy, 100, 0)
		_, err := ob.Submit(order)
		assert.ErrorIs(t, err, orderbookv1.ErrInvalidSize)
	})

	t.Run("limit order without price", func(t *testing.T) {
		order := createLimitOrder("buy1", "user1", orderbookv1.SideBuy, 0, 10)
		_, err := ob.Submit(order)
		assert.ErrorIs(t, err, orderbookv1.ErrInvalidPrice)
	})

	t.Run("unknown order type", func(t *testing.T) {
		order := createLimitOrder("buy1", "user1", orderbookv1.SideBuy, 100, 10)
		order.Type = orderbookv1.OrderType("stop")
		_, err := ob.Submit(order)
		assert.ErrorIs(t, err, orderbookv1.ErrUnknownOrderType)
	})

	t.Run("duplicate resting order ID", func(t *testing.T) {
		first := createLimitOrder("dup", "user1", orderbookv1.SideBuy, 100, 10)
		_, err := ob.Submit(first)
		require.NoError(t, err)

		second := createLimitOrder("dup", "user2", orderbookv1.SideSell, 200, 5)
		_, err = ob.Submit(second)
		assert.ErrorIs(t, err, orderbookv1.ErrDuplicateOrderID)

		// The rejected order left the book untouched.
		assert.Equal(t, 0, ob.Depth(orderbookv1.SideSell))
	})
}

// Test 4: Marketable limit buy executes at the resting price and rests
// its remainder
func TestOrderbook_Submit_PartialFillRestsRemainder(t *testing.T) {
	ob := NewOrderbook()

	sell := createLimitOrder("sell1", "seller", orderbookv1.SideSell, 101, 5)
	_, err := ob.Submit(sell)
	require.NoError(t, err)

	buy := createLimitOrder("buy1", "buyer", orderbookv1.SideBuy, 102, 10)
	trades, err := ob.Submit(buy)

	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, int64(101), trades[0].Price) // resting price, not taker's
	assert.Equal(t, int64(5), trades[0].Size)
	assert.Equal(t, orderbookv1.SideBuy, trades[0].TakerSide)
	assert.Equal(t, "buy1", trades[0].TakerOrderID)
	assert.Equal(t, "sell1", trades[0].MakerOrderID)
	assert.Equal(t, "buyer", trades[0].TakerUserID)
	assert.Equal(t, "seller", trades[0].MakerUserID)

	// Ask side fully consumed, buy remainder rests at its own price.
	assert.Equal(t, 0, ob.Depth(orderbookv1.SideSell))
	assert.Equal(t, 1, ob.Depth(orderbookv1.SideBuy))

	best, ok := ob.BestBid()
	require.True(t, ok)
	assert.Equal(t, "buy1", best.ID)
	assert.Equal(t, int64(102), best.Price)
	assert.Equal(t, int64(5), best.Remaining)
}

// Test 5: Market buy sweeps equal-priced sellers in arrival order
func TestOrderbook_Submit_MarketOrderTimePriority(t *testing.T) {
	ob := NewOrderbook()

	first := createLimitOrder("sell1", "seller1", orderbookv1.SideSell, 100, 5)
	second := createLimitOrder("sell2", "seller2", orderbookv1.SideSell, 100, 5)
	_, err := ob.Submit(first)
	require.NoError(t, err)
	_, err = ob.Submit(second)
	require.NoError(t, err)

	market := createMarketOrder("buy1", "buyer", orderbookv1.SideBuy, 7)
	trades, err := ob.Submit(market)

	require.NoError(t, err)
	require.Len(t, trades, 2)

	// Earlier arrival fills first and fully, later arrival fills the rest.
	assert.Equal(t, "sell1", trades[0].MakerOrderID)
	assert.Equal(t, int64(5), trades[0].Size)
	assert.Equal(t, "sell2", trades[1].MakerOrderID)
	assert.Equal(t, int64(2), trades[1].Size)
	assert.Equal(t, int64(100), trades[0].Price)
	assert.Equal(t, int64(100), trades[1].Price)

	// Later seller keeps its unfilled remainder.
	best, ok := ob.BestAsk()
	require.True(t, ok)
	assert.Equal(t, "sell2", best.ID)
	assert.Equal(t, int64(3), best.Remaining)

	// Market taker never rests.
	assert.Equal(t, 0, ob.Depth(orderbookv1.SideBuy))
}

// Test 6: Non-marketable limit order rests without crossing
func TestOrderbook_Submit_NoCrossRests(t *testing.T) {
	ob := NewOrderbook()

	sell := createLimitOrder("sell1", "seller", orderbookv1.SideSell, 100, 5)
	_, err := ob.Submit(sell)
	require.NoError(t, err)

	buy := createLimitOrder("buy1", "buyer", orderbookv1.SideBuy, 99, 5)
	trades, err := ob.Submit(buy)

	require.NoError(t, err)
	assert.Empty(t, trades)
	assert.Equal(t, 1, ob.Depth(orderbookv1.SideBuy))
	assert.Equal(t, 1, ob.Depth(orderbookv1.SideSell))

	bestBid, ok := ob.BestBid()
	require.True(t, ok)
	assert.Equal(t, int64(99), bestBid.Price)
	bestAsk, ok := ob.BestAsk()
	require.True(t, ok)
	assert.Equal(t, int64(100), bestAsk.Price)
}

// Test 7: Market order on an empty opposing side trades nothing and
// discards its quantity
func TestOrderbook_Submit_MarketOrderEmptyBook(t *testing.T) {
	ob := NewOrderbook()

	market := createMarketOrder("buy1", "buyer", orderbookv1.SideBuy, 10)
	trades, err := ob.Submit(market)

	require.NoError(t, err)
	assert.Empty(t, trades)
	assert.Equal(t, 0, ob.Depth(orderbookv1.SideBuy))
	assert.Equal(t, 0, ob.Depth(orderbookv1.SideSell))
	assert.Equal(t, int64(10), market.Remaining)
}

// Test 8: Market sell sweeps bids from highest price down
func TestOrderbook_Submit_MarketSellSweepsBestBidsFirst(t *testing.T) {
	ob := NewOrderbook()

	_, err := ob.Submit(createLimitOrder("buy1", "b1", orderbookv1.SideBuy, 98, 5))
	require.NoError(t, err)
	_, err = ob.Submit(createLimitOrder("buy2", "b2", orderbookv1.SideBuy, 100, 5))
	require.NoError(t, err)
	_, err = ob.Submit(createLimitOrder("buy3", "b3", orderbookv1.SideBuy, 99, 5))
	require.NoError(t, err)

	market := createMarketOrder("sell1", "seller", orderbookv1.SideSell, 12)
	trades, err := ob.Submit(market)

	require.NoError(t, err)
	require.Len(t, trades, 3)
	assert.Equal(t, int64(100), trades[0].Price)
	assert.Equal(t, int64(5), trades[0].Size)
	assert.Equal(t, int64(99), trades[1].Price)
	assert.Equal(t, int64(5), trades[1].Size)
	assert.Equal(t, int64(98), trades[2].Price)
	assert.Equal(t, int64(2), trades[2].Size)

	best, ok := ob.BestBid()
	require.True(t, ok)
	assert.Equal(t, "buy1", best.ID)
	assert.Equal(t, int64(3), best.Remaining)
}

// Test 9: A limit taker stops at its own price even with depth beyond it
func TestOrderbook_Submit_LimitTakerStopsAtOwnPrice(t *testing.T) {
	ob := NewOrderbook()

	_, err := ob.Submit(createLimitOrder("sell1", "s1", orderbookv1.SideSell, 100, 5))
	require.NoError(t, err)
	_, err = ob.Submit(createLimitOrder("sell2", "s2", orderbookv1.SideSell, 102, 5))
	require.NoError(t, err)

	buy := createLimitOrder("buy1", "buyer", orderbookv1.SideBuy, 101, 10)
	trades, err := ob.Submit(buy)

	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, int64(100), trades[0].Price)
	assert.Equal(t, int64(5), trades[0].Size)

	// Remainder rests at 101 below the surviving 102 ask.
	assert.Equal(t, int64(5), buy.Remaining)
	bestBid, ok := ob.BestBid()
	require.True(t, ok)
	assert.Equal(t, "buy1", bestBid.ID)
	bestAsk, ok := ob.BestAsk()
	require.True(t, ok)
	assert.Equal(t, "sell2", bestAsk.ID)
}

// Test 10: Trade sequences are strictly increasing across submissions
func TestOrderbook_Submit_TradeSequenceMonotonic(t *testing.T) {
	ob := NewOrderbook()

	for i := 0; i < 5; i++ {
		_, err := ob.Submit(createLimitOrder(
			fmt.Sprintf("sell%d", i), "seller", orderbookv1.SideSell, 100, 1,
		))
		require.NoError(t, err)
	}

	var sequences []uint64
	for i := 0; i < 5; i++ {
		trades, err := ob.Submit(createMarketOrder(
			fmt.Sprintf("buy%d", i), "buyer", orderbookv1.SideBuy, 1,
		))
		require.NoError(t, err)
		require.Len(t, trades, 1)
		sequences = append(sequences, trades[0].Sequence)
	}

	for i := 1; i < len(sequences); i++ {
		assert.Greater(t, sequences[i], sequences[i-1])
	}
}

// Test 11: Quantity conservation and no over-fill across a heavy sweep
func TestOrderbook_Submit_QuantityConservation(t *testing.T) {
	ob := NewOrderbook()

	var restingTotal int64
	for i := 0; i < 10; i++ {
		size := int64(i%3 + 1)
		restingTotal += size
		_, err := ob.Submit(createLimitOrder(
			fmt.Sprintf("sell%d", i), "seller", orderbookv1.SideSell, int64(100+i), size,
		))
		require.NoError(t, err)
	}
	require.Equal(t, restingTotal, ob.AskTotalVolume())

	taker := createLimitOrder("buy1", "buyer", orderbookv1.SideBuy, 200, restingTotal+5)
	trades, err := ob.Submit(taker)
	require.NoError(t, err)

	var executed int64
	for _, trade := range trades {
		assert.Positive(t, trade.Size)
		executed += trade.Size
	}

	assert.Equal(t, restingTotal, executed)
	assert.Equal(t, restingTotal, taker.Filled())
	assert.Equal(t, int64(5), taker.Remaining)
	assert.Equal(t, int64(0), ob.AskTotalVolume())
	assert.Equal(t, 0, ob.Depth(orderbookv1.SideSell))

	// The unfilled remainder rests on the bid side.
	assert.Equal(t, int64(5), ob.BidTotalVolume())
}

// Test 12: Cancel removes a resting order and reports remaining quantity
func TestOrderbook_Cancel(t *testing.T) {
	t.Run("cancel resting order", func(t *testing.T) {
		ob := NewOrderbook()
		order := createLimitOrder("buy1", "user1", orderbookv1.SideBuy, 100, 10)
		_, err := ob.Submit(order)
		require.NoError(t, err)

		cancelled, found := ob.Cancel("buy1")

		require.True(t, found)
		assert.Equal(t, "buy1", cancelled.ID)
		assert.Equal(t, int64(10), cancelled.Remaining)
		assert.Equal(t, 0, ob.Depth(orderbookv1.SideBuy))
		assert.Equal(t, int64(0), ob.BidTotalVolume())

		_, ok := ob.BestBid()
		assert.False(t, ok)
	})

	t.Run("cancel partially filled order reports what is left", func(t *testing.T) {
		ob := NewOrderbook()
		_, err := ob.Submit(createLimitOrder("sell1", "seller", orderbookv1.SideSell, 100, 10))
		require.NoError(t, err)
		trades, err := ob.Submit(createMarketOrder("buy1", "buyer", orderbookv1.SideBuy, 4))
		require.NoError(t, err)
		require.Len(t, trades, 1)

		cancelled, found := ob.Cancel("sell1")

		require.True(t, found)
		assert.Equal(t, int64(6), cancelled.Remaining)
		assert.Equal(t, int64(0), ob.AskTotalVolume())
	})

	t.Run("cancel unknown order is not found", func(t *testing.T) {
		ob := NewOrderbook()
		_, found := ob.Cancel("missing")
		assert.False(t, found)
	})

	t.Run("cancel after full fill is not found", func(t *testing.T) {
		ob := NewOrderbook()
		_, err := ob.Submit(createLimitOrder("sell1", "seller", orderbookv1.SideSell, 100, 5))
		require.NoError(t, err)
		trades, err := ob.Submit(createMarketOrder("buy1", "buyer", orderbookv1.SideBuy, 5))
		require.NoError(t, err)
		require.Len(t, trades, 1)

		_, found := ob.Cancel("sell1")
		assert.False(t, found)
	})

	t.Run("cancel twice is not found the second time", func(t *testing.T) {
		ob := NewOrderbook()
		_, err := ob.Submit(createLimitOrder("buy1", "user1", orderbookv1.SideBuy, 100, 10))
		require.NoError(t, err)

		_, found := ob.Cancel("buy1")
		require.True(t, found)
		_, found = ob.Cancel("buy1")
		assert.False(t, found)
	})

	t.Run("cancelled order ID can be reused", func(t *testing.T) {
		ob := NewOrderbook()
		_, err := ob.Submit(createLimitOrder("buy1", "user1", orderbookv1.SideBuy, 100, 10))
		require.NoError(t, err)
		_, found := ob.Cancel("buy1")
		require.True(t, found)

		_, err = ob.Submit(createLimitOrder("buy1", "user1", orderbookv1.SideBuy, 101, 5))
		assert.NoError(t, err)
	})
}

// Test 13: Cancelling the head promotes the next order in time priority
func TestOrderbook_Cancel_PromotesNextInQueue(t *testing.T) {
	ob := NewOrderbook()

	_, err := ob.Submit(createLimitOrder("sell1", "s1", orderbookv1.SideSell, 100, 5))
	require.NoError(t, err)
	_, err = ob.Submit(createLimitOrder("sell2", "s2", orderbookv1.SideSell, 100, 5))
	require.NoError(t, err)

	_, found := ob.Cancel("sell1")
	require.True(t, found)

	best, ok := ob.BestAsk()
	require.True(t, ok)
	assert.Equal(t, "sell2", best.ID)

	trades, err := ob.Submit(createMarketOrder("buy1", "buyer", orderbookv1.SideBuy, 5))
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, "sell2", trades[0].MakerOrderID)
}

// Test 14: Best bid and ask track the top of book through mutations
func TestOrderbook_BestBidAsk(t *testing.T) {
	ob := NewOrderbook()

	_, err := ob.Submit(createLimitOrder("buy1", "b1", orderbookv1.SideBuy, 99, 5))
	require.NoError(t, err)
	_, err = ob.Submit(createLimitOrder("buy2", "b2", orderbookv1.SideBuy, 100, 5))
	require.NoError(t, err)
	_, err = ob.Submit(createLimitOrder("sell1", "s1", orderbookv1.SideSell, 102, 5))
	require.NoError(t, err)
	_, err = ob.Submit(createLimitOrder("sell2", "s2", orderbookv1.SideSell, 101, 5))
	require.NoError(t, err)

	bestBid, ok := ob.BestBid()
	require.True(t, ok)
	assert.Equal(t, int64(100), bestBid.Price)

	bestAsk, ok := ob.BestAsk()
	require.True(t, ok)
	assert.Equal(t, int64(101), bestAsk.Price)

	// Equal prices resolve to the earlier arrival.
	_, err = ob.Submit(createLimitOrder("buy3", "b3", orderbookv1.SideBuy, 100, 5))
	require.NoError(t, err)
	bestBid, ok = ob.BestBid()
	require.True(t, ok)
	assert.Equal(t, "buy2", bestBid.ID)
}

// Test 15: Snapshot and restore round trip preserves price-time priority
func TestOrderbook_SnapshotRestore(t *testing.T) {
	ob := NewOrderbook()

	_, err := ob.Submit(createLimitOrder("sell1", "s1", orderbookv1.SideSell, 101, 5))
	require.NoError(t, err)
	_, err = ob.Submit(createLimitOrder("sell2", "s2", orderbookv1.SideSell, 101, 7))
	require.NoError(t, err)
	_, err = ob.Submit(createLimitOrder("buy1", "b1", orderbookv1.SideBuy, 99, 10))
	require.NoError(t, err)

	// Partially fill the head ask so a non-trivial Remaining survives
	// the round trip.
	trades, err := ob.Submit(createMarketOrder("mkt1", "taker", orderbookv1.SideBuy, 2))
	require.NoError(t, err)
	require.Len(t, trades, 1)

	snapshot := ob.CreateSnapshot()
	require.Len(t, snapshot.OrderBookSnapshot.Orders, 3)

	restored := NewOrderbook()
	require.NoError(t, restored.RestoreOrderbook(snapshot))

	assert.Equal(t, ob.Depth(orderbookv1.SideBuy), restored.Depth(orderbookv1.SideBuy))
	assert.Equal(t, ob.Depth(orderbookv1.SideSell), restored.Depth(orderbookv1.SideSell))
	assert.Equal(t, ob.BidTotalVolume(), restored.BidTotalVolume())
	assert.Equal(t, ob.AskTotalVolume(), restored.AskTotalVolume())

	best, ok := restored.BestAsk()
	require.True(t, ok)
	assert.Equal(t, "sell1", best.ID)
	assert.Equal(t, int64(3), best.Remaining)

	// Time priority survives: the partially filled head still trades first.
	moreTrades, err := restored.Submit(createMarketOrder("mkt2", "taker", orderbookv1.SideBuy, 4))
	require.NoError(t, err)
	require.Len(t, moreTrades, 2)
	assert.Equal(t, "sell1", moreTrades[0].MakerOrderID)
	assert.Equal(t, int64(3), moreTrades[0].Size)
	assert.Equal(t, "sell2", moreTrades[1].MakerOrderID)
	assert.Equal(t, int64(1), moreTrades[1].Size)

	// Counters resume past the snapshot, never backwards.
	assert.Greater(t, moreTrades[0].Sequence, trades[0].Sequence)
}

// Test 16: Restore rejects bad snapshots
func TestOrderbook_RestoreOrderbook_Invalid(t *testing.T) {
	t.Run("nil snapshot", func(t *testing.T) {
		ob := NewOrderbook()
		assert.Error(t, ob.RestoreOrderbook(nil))
	})

	t.Run("order with no remaining quantity", func(t *testing.T) {
		donor := NewOrderbook()
		_, err := donor.Submit(createLimitOrder("buy1", "b1", orderbookv1.SideBuy, 100, 5))
		require.NoError(t, err)
		snapshot := donor.CreateSnapshot()
		snapshot.OrderBookSnapshot.Orders[0].Remaining = 0

		ob := NewOrderbook()
		assert.Error(t, ob.RestoreOrderbook(snapshot))
	})
}

// Test 17: Concurrent submissions keep the book consistent
func TestOrderbook_ConcurrentSubmissions(t *testing.T) {
	ob := NewOrderbook()

	const workers = 8
	const perWorker = 50

	done := make(chan struct{})
	for w := 0; w < workers; w++ {
		go func(w int) {
			defer func() { done <- struct{}{} }()
			for i := 0; i < perWorker; i++ {
				side := orderbookv1.SideBuy
				price := int64(90 + i%5)
				if w%2 == 0 {
					side = orderbookv1.SideSell
					price = int64(110 + i%5)
				}
				order := createLimitOrder(
					fmt.Sprintf("w%d-o%d", w, i), fmt.Sprintf("user%d", w), side, price, 1,
				)
				_, err := ob.Submit(order)
				assert.NoError(t, err)
			}
		}(w)
	}
	for w := 0; w < workers; w++ {
		<-done
	}

	// Sides never cross, so everything rests.
	assert.Equal(t, workers/2*perWorker, ob.Depth(orderbookv1.SideBuy))
	assert.Equal(t, workers/2*perWorker, ob.Depth(orderbookv1.SideSell))
	assert.Equal(t, int64(workers/2*perWorker), ob.BidTotalVolume())
	assert.Equal(t, int64(workers/2*perWorker), ob.AskTotalVolume())
}
