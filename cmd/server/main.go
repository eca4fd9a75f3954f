package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dizhouwu/QuantBeat/internal/app/broadcaster"
	"github.com/dizhouwu/QuantBeat/internal/app/engine"
	matchpublisher "github.com/dizhouwu/QuantBeat/internal/usecase/match-publisher"
	orderreader "github.com/dizhouwu/QuantBeat/internal/usecase/order-reader"
	"github.com/dizhouwu/QuantBeat/internal/usecase/orderbook"
	"github.com/dizhouwu/QuantBeat/internal/usecase/snapshot"
	tradejournal "github.com/dizhouwu/QuantBeat/internal/usecase/trade-journal"
	"github.com/dizhouwu/QuantBeat/pkg/config"
	"github.com/dizhouwu/QuantBeat/pkg/logger"
	"github.com/dizhouwu/QuantBeat/pkg/redis"
)

var cfg *config.Config
var log *logger.Logger

func init() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		panic(err)
	}

	log, err = logger.NewLogger()
	if err != nil {
		panic(err)
	}
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	rclient := redis.NewClient(log, &cfg.Redis)
	if err := rclient.Connect(ctx); err != nil {
		log.Error(err, logger.Field{Key: "action", Value: "connect_redis"})
		return
	}

	journal, err := tradejournal.Open(cfg.Journal.Dir, log)
	if err != nil {
		log.Error(err, logger.Field{Key: "action", Value: "open_trade_journal"})
		return
	}

	ob := orderbook.NewOrderbook()
	oReader := orderreader.NewReader(cfg.Kafka, log)
	snapshotStore := snapshot.NewSnapshotStore(rclient, cfg.Pair, log)
	publisher := matchpublisher.NewPublisher(cfg.MatchPublisher, log)

	rebroadcaster, err := broadcaster.NewBroadcaster(journal, cfg.Broadcaster, log)
	if err != nil {
		log.Error(err, logger.Field{Key: "action", Value: "create_broadcaster"})
		return
	}

	matchingEngine := engine.NewEngine(
		ob,
		oReader,
		snapshotStore,
		publisher,
		journal,
		log,
		cfg,
	)

	wg := sync.WaitGroup{}

	wg.Add(1)
	go func() {
		defer wg.Done()
		rebroadcaster.Run(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := matchingEngine.Run(ctx); err != nil {
			log.Error(err, logger.Field{Key: "action", Value: "run_engine"})
			cancel()
		}
	}()

	log.Info("Matching engine started", logger.Field{Key: "pair", Value: cfg.Pair})

	select {
	case sig := <-sigChan:
		log.Info("Received shutdown signal", logger.Field{Key: "signal", Value: sig.String()})
	case <-ctx.Done():
	}

	cancel()
	wg.Wait()

	if err := rebroadcaster.Close(); err != nil {
		log.Error(err, logger.Field{Key: "action", Value: "close_broadcaster"})
	}
	if err := publisher.Close(); err != nil {
		log.Error(err, logger.Field{Key: "action", Value: "close_publisher"})
	}
	if err := oReader.Close(); err != nil {
		log.Error(err, logger.Field{Key: "action", Value: "close_order_reader"})
	}
	if err := journal.Close(); err != nil {
		log.Error(err, logger.Field{Key: "action", Value: "close_trade_journal"})
	}
	if err := rclient.Disconnect(context.Background()); err != nil {
		log.Error(err, logger.Field{Key: "action", Value: "disconnect_redis"})
	}

	log.Info("Matching engine shutdown complete")
}
