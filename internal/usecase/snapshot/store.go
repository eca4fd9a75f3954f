package snapshot

import (
	"context"
	"encoding/json"
	"fmt"

	snapshotv1 "github.com/dizhouwu/QuantBeat/internal/domain/snapshot/v1"
	"github.com/dizhouwu/QuantBeat/pkg/errors"
	"github.com/dizhouwu/QuantBeat/pkg/logger"
	"github.com/dizhouwu/QuantBeat/pkg/redis"
)

// Store persists order book snapshots in Redis, keyed by pair.
type Store struct {
	pair        string
	logger      *logger.Logger
	redisclient redis.Client
}

// NewSnapshotStore creates a new snapshot store for the given pair.
func NewSnapshotStore(redisclient redis.Client, pair string, logger *logger.Logger) *Store {
	return &Store{
		pair:        pair,
		redisclient: redisclient,
		logger:      logger,
	}
}

// Store stores the snapshot in Redis.
func (s *Store) Store(ctx context.Context, snapshot *snapshotv1.Snapshot) error {
	buf, err := json.Marshal(snapshot)
	if err != nil {
		s.logger.ErrorContext(ctx, err, logger.Field{
			Key:   "pair",
			Value: s.pair,
		})
		return errors.NewTracer("snapshot_marshal_error").Wrap(err)
	}

	if err := s.setWithReconnect(ctx, buf); err != nil {
		s.logger.ErrorContext(ctx, err, logger.Field{
			Key:   "pair",
			Value: s.pair,
		})
		return errors.NewTracer("snapshot_store_error").Wrap(err)
	}

	s.logger.InfoContext(ctx, "snapshot stored",
		logger.Field{Key: "pair", Value: s.pair},
		logger.Field{Key: "orderOffset", Value: snapshot.OrderOffset},
		logger.Field{Key: "restingOrders", Value: len(snapshot.OrderBookSnapshot.Orders)},
	)
	return nil
}

// LoadStore loads the snapshot from Redis. A missing snapshot is not an
// error; it returns nil on a fresh pair.
func (s *Store) LoadStore(ctx context.Context) (*snapshotv1.Snapshot, error) {
	data, err := s.redisclient.Get(ctx, s.key())
	if err != nil {
		s.logger.ErrorContext(ctx, err, logger.Field{
			Key:   "pair",
			Value: s.pair,
		})
		return nil, errors.NewTracer("snapshot_load_error").Wrap(err)
	}

	if data == "" {
		s.logger.WarnContext(ctx, fmt.Sprintf("No snapshot found for pair %s", s.pair), logger.Field{
			Key:   "pair",
			Value: s.pair,
		})
		return nil, nil
	}

	var snapshot snapshotv1.Snapshot
	if err := json.Unmarshal([]byte(data), &snapshot); err != nil {
		s.logger.ErrorContext(ctx, err, logger.Field{
			Key:   "pair",
			Value: s.pair,
		})
		return nil, errors.NewTracer("snapshot_unmarshal_error").Wrap(err)
	}

	return &snapshot, nil
}

// setWithReconnect writes the snapshot document, reconnecting and
// retrying once when the first write fails. Snapshots run in the
// background, so riding out a transient redis outage here is cheaper
// than skipping a checkpoint.
func (s *Store) setWithReconnect(ctx context.Context, buf []byte) error {
	err := s.redisclient.Set(ctx, s.key(), buf, 0)
	if err == nil {
		return nil
	}

	s.logger.WarnContext(ctx, "snapshot write failed, reconnecting",
		logger.Field{Key: "pair", Value: s.pair},
	)
	if !s.redisclient.Reconnect(ctx) {
		return err
	}
	return s.redisclient.Set(ctx, s.key(), buf, 0)
}

func (s *Store) key() string {
	return fmt.Sprintf("orderbook:snapshot:%s", s.pair)
}
