package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	matchpublisherv1 "github.com/dizhouwu/QuantBeat/internal/domain/match-publisher/v1"
	orderreaderv1 "github.com/dizhouwu/QuantBeat/internal/domain/order-reader/v1"
	orderbookv1 "github.com/dizhouwu/QuantBeat/internal/domain/orderbook/v1"
	snapshotv1 "github.com/dizhouwu/QuantBeat/internal/domain/snapshot/v1"
	tradejournalv1 "github.com/dizhouwu/QuantBeat/internal/domain/trade-journal/v1"
	"github.com/dizhouwu/QuantBeat/internal/usecase/orderbook"
	"github.com/dizhouwu/QuantBeat/pkg/config"
	"github.com/dizhouwu/QuantBeat/pkg/errors"
	"github.com/dizhouwu/QuantBeat/pkg/logger"
	"github.com/dizhouwu/QuantBeat/pkg/util"
)

// Engine drives the matching core from the order stream: it consumes
// validated order requests, applies them to the book in arrival order,
// journals and publishes the resulting trades, and checkpoints the book
// to the snapshot store.
//
// All order flow goes through a single consumer goroutine, which keeps
// the book a single-writer state machine.
type Engine struct {
	orderbook      *orderbook.Orderbook
	orderReader    orderreaderv1.OrderReader
	snapshotStore  snapshotv1.Store
	matchPublisher matchpublisherv1.MatchPublisher
	journal        tradejournalv1.Journal
	logger         *logger.Logger
	config         *config.Config
	options        *Options

	ctx context.Context

	mu                 sync.RWMutex
	orderOffset        int64
	lastSnapshotOffset int64
	totalMatches       int64
}

// NewEngine wires the matching engine's dependencies.
func NewEngine(
	ob *orderbook.Orderbook,
	orderReader orderreaderv1.OrderReader,
	snapshotStore snapshotv1.Store,
	matchPublisher matchpublisherv1.MatchPublisher,
	journal tradejournalv1.Journal,
	log *logger.Logger,
	cfg *config.Config,
	opts ...*Options,
) *Engine {
	options := DefaultEngineOptions()
	if len(opts) > 0 && opts[0] != nil {
		options = opts[0]
	}

	return &Engine{
		orderbook:      ob,
		orderReader:    orderReader,
		snapshotStore:  snapshotStore,
		matchPublisher: matchPublisher,
		journal:        journal,
		logger:         log,
		config:         cfg,
		options:        options,

		orderOffset:        -1,
		lastSnapshotOffset: -1,
	}
}

// Run restores the last checkpoint and consumes the order stream until
// ctx is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	e.ctx = ctx

	if err := e.restoreSnapshot(ctx); err != nil {
		return err
	}

	go e.snapshotLoop(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		msg, request, err := e.orderReader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			continue
		}

		if err := e.processOrder(request); err != nil {
			// Validation failures are final for that request; the
			// stream position still advances.
			e.logger.Warn("order rejected",
				logger.Field{Key: "orderID", Value: request.OrderID},
				logger.Field{Key: "offset", Value: request.Offset},
				logger.Field{Key: "reason", Value: err.Error()},
			)
		}

		if err := e.orderReader.CommitMessages(ctx, msg); err != nil {
			e.logger.Error(errors.TracerFromError(err),
				logger.Field{Key: "offset", Value: msg.Offset},
			)
		}
	}
}

// processOrder dispatches one request against the book. The order-type
// set is closed, so dispatch is an explicit switch.
func (e *Engine) processOrder(request *orderbookv1.PlaceOrderRequest) error {
	switch request.Type {
	case orderbookv1.OrderTypeCancel:
		e.processCancel(request)

	case orderbookv1.OrderTypeLimit, orderbookv1.OrderTypeMarket:
		orderID := request.OrderID
		if orderID == "" {
			orderID = ulid.Make().String()
		}
		order := orderbookv1.NewOrder(orderID, request.UserID, request.Side, request.Type, request.Price, request.Size)

		trades, err := e.orderbook.Submit(order)
		if err != nil {
			return err
		}

		for _, trade := range trades {
			e.publishTrade(trade)
		}
		if len(trades) > 0 {
			e.addMatches(int64(len(trades)))
		}

		if request.Type == orderbookv1.OrderTypeMarket && order.Remaining > 0 {
			// Market remainder is discarded, never rested.
			e.logger.Debug("market order partially unfilled",
				logger.Field{Key: "orderID", Value: order.ID},
				logger.Field{Key: "unfilled", Value: order.Remaining},
			)
		}

	default:
		return fmt.Errorf("%w: %q", orderbookv1.ErrUnknownOrderType, request.Type)
	}

	e.setOrderOffset(request.Offset)
	return nil
}

func (e *Engine) processCancel(request *orderbookv1.PlaceOrderRequest) {
	cancelled, found := e.orderbook.Cancel(request.OrderID)
	if !found {
		// Expected race outcome: already filled, already cancelled, or
		// never existed.
		e.logger.Debug("cancel target not resting",
			logger.Field{Key: "orderID", Value: request.OrderID},
		)
		return
	}
	e.logger.Info("order cancelled",
		logger.Field{Key: "orderID", Value: cancelled.ID},
		logger.Field{Key: "remaining", Value: cancelled.Remaining},
	)
}

// publishTrade journals the trade, then publishes it. A failed publish
// leaves the journal record pending for the broadcaster to retry.
func (e *Engine) publishTrade(trade orderbookv1.Trade) {
	payload := matchpublisherv1.FromTrade(e.config.Pair, trade)

	if err := e.journal.Append(trade.Sequence, matchpublisherv1.ToBytes(payload)); err != nil {
		e.logger.Error(errors.TracerFromError(err),
			logger.Field{Key: "tradeSequence", Value: trade.Sequence},
		)
	}

	if err := e.matchPublisher.PublishMatchEvent(e.ctx, payload); err != nil {
		e.logger.Warn("match publish failed, left pending for rebroadcast",
			logger.Field{Key: "tradeSequence", Value: trade.Sequence},
		)
		return
	}

	if err := e.journal.MarkPublished(trade.Sequence); err != nil {
		e.logger.Error(errors.TracerFromError(err),
			logger.Field{Key: "tradeSequence", Value: trade.Sequence},
		)
	}
}

// restoreSnapshot rebuilds the book from the last checkpoint and
// repositions the order stream just past it.
func (e *Engine) restoreSnapshot(ctx context.Context) error {
	ctx = util.WithRequestID(ctx, "")

	snapshot, err := e.snapshotStore.LoadStore(ctx)
	if err != nil {
		return err
	}
	if snapshot == nil {
		e.logger.InfoContext(ctx, "no snapshot found, starting with an empty book",
			logger.Field{Key: "pair", Value: e.config.Pair},
		)
		return nil
	}

	if err := e.orderbook.RestoreOrderbook(snapshot); err != nil {
		return err
	}
	e.setOrderOffset(snapshot.OrderOffset)
	e.setLastSnapshotOffset(snapshot.OrderOffset)

	if err := e.orderReader.SetOffset(snapshot.OrderOffset + 1); err != nil {
		return err
	}

	e.logger.InfoContext(ctx, "orderbook restored from snapshot",
		logger.Field{Key: "pair", Value: e.config.Pair},
		logger.Field{Key: "orderOffset", Value: snapshot.OrderOffset},
		logger.Field{Key: "restingOrders", Value: len(snapshot.OrderBookSnapshot.Orders)},
	)
	return nil
}

// snapshotLoop checkpoints the book every SnapshotInterval, but only
// once the stream has advanced at least SnapshotOffsetDelta past the
// previous checkpoint.
func (e *Engine) snapshotLoop(ctx context.Context) {
	ticker := time.NewTicker(e.options.SnapshotInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if e.GetOrderOffset()-e.GetLastSnapshotOffset() < e.options.SnapshotOffsetDelta {
				continue
			}
			e.createAndStoreSnapshot()
		}
	}
}

func (e *Engine) createAndStoreSnapshot() {
	snapshot := e.orderbook.CreateSnapshot()
	snapshot.OrderOffset = e.GetOrderOffset()

	if err := e.snapshotStore.Store(e.ctx, snapshot); err != nil {
		e.logger.Error(errors.TracerFromError(err),
			logger.Field{Key: "orderOffset", Value: snapshot.OrderOffset},
		)
		return
	}
	e.setLastSnapshotOffset(snapshot.OrderOffset)
}

// GetOrderOffset returns the offset of the last applied order request.
func (e *Engine) GetOrderOffset() int64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.orderOffset
}

func (e *Engine) setOrderOffset(offset int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.orderOffset = offset
}

// GetLastSnapshotOffset returns the order offset of the last stored snapshot.
func (e *Engine) GetLastSnapshotOffset() int64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lastSnapshotOffset
}

func (e *Engine) setLastSnapshotOffset(offset int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastSnapshotOffset = offset
}

// GetTotalMatches returns the number of trades generated since start.
func (e *Engine) GetTotalMatches() int64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.totalMatches
}

func (e *Engine) addMatches(n int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.totalMatches += n
}
