package matchpublisher

import (
	"context"

	"github.com/segmentio/kafka-go"

	matchpublisherv1 "github.com/dizhouwu/QuantBeat/internal/domain/match-publisher/v1"
	"github.com/dizhouwu/QuantBeat/pkg/config"
	"github.com/dizhouwu/QuantBeat/pkg/errors"
	"github.com/dizhouwu/QuantBeat/pkg/logger"
)

// Publisher publishes match events to the matches topic.
type Publisher struct {
	kafkaWriter *kafka.Writer
	logger      *logger.Logger
}

// NewPublisher creates a new Kafka publisher for match events.
func NewPublisher(cfg config.MatchPublisherConfig, log *logger.Logger) *Publisher {
	kafkaWriter := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		RequiredAcks: kafka.RequireAll,
	}

	return &Publisher{
		kafkaWriter: kafkaWriter,
		logger:      log,
	}
}

// PublishMatchEvent publishes a match event to the Kafka topic.
func (p *Publisher) PublishMatchEvent(ctx context.Context, matchEvent *matchpublisherv1.MatchEventPayload) error {
	msg := kafka.Message{
		Key:   []byte(matchEvent.Pair),
		Value: matchpublisherv1.ToBytes(matchEvent),
	}

	if err := p.kafkaWriter.WriteMessages(ctx, msg); err != nil {
		p.logger.Error(err,
			logger.Field{Key: "sequence", Value: matchEvent.Sequence},
			logger.Field{Key: "pair", Value: matchEvent.Pair},
		)
		return errors.NewTracer("failed to publish match event").Wrap(err)
	}
	return nil
}

// Close closes the underlying Kafka writer.
func (p *Publisher) Close() error {
	return p.kafkaWriter.Close()
}
