package broadcaster

import (
	"context"
	"time"

	"github.com/IBM/sarama"

	tradejournalv1 "github.com/dizhouwu/QuantBeat/internal/domain/trade-journal/v1"
	"github.com/dizhouwu/QuantBeat/pkg/config"
	"github.com/dizhouwu/QuantBeat/pkg/errors"
	"github.com/dizhouwu/QuantBeat/pkg/logger"
)

// Broadcaster replays pending trade journal records to the matches
// topic. It backs up the engine's inline publish path: any trade whose
// first publish failed stays pending in the journal until a replay
// round delivers it.
type Broadcaster struct {
	journal  tradejournalv1.Journal
	producer sarama.SyncProducer
	topic    string
	interval time.Duration
	logger   *logger.Logger
}

// NewBroadcaster connects a synchronous producer for the replay job.
func NewBroadcaster(journal tradejournalv1.Journal, cfg config.BroadcasterConfig, log *logger.Logger) (*Broadcaster, error) {
	saramaCfg := sarama.NewConfig()
	saramaCfg.Producer.Return.Successes = true
	saramaCfg.Producer.RequiredAcks = sarama.WaitForAll
	saramaCfg.Producer.Retry.Max = 5

	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaCfg)
	if err != nil {
		return nil, errors.NewTracer("failed to create rebroadcast producer").Wrap(err)
	}

	return &Broadcaster{
		journal:  journal,
		producer: producer,
		topic:    cfg.Topic,
		interval: cfg.Interval,
		logger:   log,
	}, nil
}

// Run replays pending records on every tick until ctx is cancelled.
func (b *Broadcaster) Run(ctx context.Context) {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := b.replayOnce(); err != nil {
				b.logger.Error(errors.TracerFromError(err))
			}
		}
	}
}

// replayOnce walks pending records in sequence order and publishes
// each one. A send failure stops the round; the record stays pending
// and the next tick retries from it.
func (b *Broadcaster) replayOnce() error {
	return b.journal.ScanPending(func(rec tradejournalv1.Record) error {
		msg := &sarama.ProducerMessage{
			Topic: b.topic,
			Value: sarama.ByteEncoder(rec.Payload),
		}

		if _, _, err := b.producer.SendMessage(msg); err != nil {
			b.logger.Warn("pending trade replay failed, will retry",
				logger.Field{Key: "tradeSequence", Value: rec.Sequence},
				logger.Field{Key: "retries", Value: rec.Retries},
			)
			return err
		}

		if err := b.journal.MarkPublished(rec.Sequence); err != nil {
			return err
		}

		b.logger.Info("pending trade rebroadcast",
			logger.Field{Key: "tradeSequence", Value: rec.Sequence},
		)
		return nil
	})
}

// Close shuts down the underlying producer.
func (b *Broadcaster) Close() error {
	return b.producer.Close()
}
