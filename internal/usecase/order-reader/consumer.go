package orderreader

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	orderbookv1 "github.com/dizhouwu/QuantBeat/internal/domain/orderbook/v1"
	"github.com/dizhouwu/QuantBeat/pkg/config"
	"github.com/dizhouwu/QuantBeat/pkg/logger"
)

// Reader consumes order requests from the orders topic.
type Reader struct {
	kafkaReader *kafka.Reader
	logger      *logger.Logger
}

// NewReader creates a new Kafka reader for the order topic.
// It returns an implementation of the OrderReader interface.
func NewReader(cfg config.KafkaConfig, log *logger.Logger) Reader {
	kafkaReader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       cfg.Topic,
		Partition:   0,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafka.LastOffset,
	})

	return Reader{
		kafkaReader: kafkaReader,
		logger:      log,
	}
}

func (r Reader) logError(err error, operation string) {
	r.logger.Error(err,
		logger.Field{Key: "operation", Value: operation},
	)
}

// SetOffset sets the offset for the Kafka reader.
func (r Reader) SetOffset(offset int64) error {
	if err := r.kafkaReader.SetOffset(offset); err != nil {
		r.logError(err, "SetOffset")
		return err
	}
	return nil
}

// ReadMessage reads a message from the Kafka topic and parses it as an
// order request. The message offset is stamped onto the request so the
// engine can track its position in the order stream.
func (r Reader) ReadMessage(ctx context.Context) (kafka.Message, *orderbookv1.PlaceOrderRequest, error) {
	msg, err := r.kafkaReader.ReadMessage(ctx)
	if err != nil {
		r.logError(err, "ReadMessage")
		return kafka.Message{}, nil, err
	}

	var request orderbookv1.PlaceOrderRequest
	if err := json.Unmarshal(msg.Value, &request); err != nil {
		r.logError(err, "UnmarshalOrder")
		return kafka.Message{}, nil, err
	}

	r.logger.Debug("ReadMessage",
		logger.Field{Key: "orderID", Value: request.OrderID},
		logger.Field{Key: "userID", Value: request.UserID},
		logger.Field{Key: "type", Value: request.Type},
		logger.Field{Key: "side", Value: request.Side},
		logger.Field{Key: "size", Value: request.Size},
		logger.Field{Key: "price", Value: request.Price},
	)

	request.Offset = msg.Offset

	return msg, &request, nil
}

// CommitMessages is a no-op. The reader is bound to an explicit
// partition without a consumer group, and kafka-go rejects commits on
// group-less readers; resume is snapshot-driven through SetOffset.
func (r Reader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	return nil
}

// Close properly closes the Kafka reader.
func (r Reader) Close() error {
	if err := r.kafkaReader.Close(); err != nil {
		r.logError(err, "Close")
		return err
	}
	return nil
}
