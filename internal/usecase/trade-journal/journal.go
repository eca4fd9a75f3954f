package tradejournal

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/cockroachdb/pebble"

	tradejournalv1 "github.com/dizhouwu/QuantBeat/internal/domain/trade-journal/v1"
	"github.com/dizhouwu/QuantBeat/pkg/errors"
	"github.com/dizhouwu/QuantBeat/pkg/logger"
)

const keyPrefix = "trade/"

// Journal is a pebble-backed trade outbox. Records are keyed by trade
// sequence with a fixed-width key so iteration order equals sequence
// order.
type Journal struct {
	db     *pebble.DB
	logger *logger.Logger
}

// Open opens (or creates) the journal at dir.
func Open(dir string, log *logger.Logger) (*Journal, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, errors.NewTracer("trade_journal_open_error").Wrap(err)
	}
	return &Journal{db: db, logger: log}, nil
}

// Close closes the underlying store.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Append stores a new pending record for a trade sequence. The write is
// synced: a trade is never considered executed downstream before it is
// durable here.
func (j *Journal) Append(sequence uint64, payload []byte) error {
	rec := tradejournalv1.Record{
		Sequence: sequence,
		State:    tradejournalv1.StatePending,
		Payload:  payload,
	}
	if err := j.db.Set(keyFor(sequence), encodeRecord(rec), pebble.Sync); err != nil {
		return errors.NewTracer("trade_journal_append_error").Wrap(err)
	}
	return nil
}

// MarkPublished transitions a record to the published state.
func (j *Journal) MarkPublished(sequence uint64) error {
	rec, err := j.Get(sequence)
	if err != nil {
		return err
	}
	rec.State = tradejournalv1.StatePublished
	rec.Retries++
	rec.LastAttempt = time.Now().UnixNano()
	if err := j.db.Set(keyFor(sequence), encodeRecord(rec), pebble.Sync); err != nil {
		return errors.NewTracer("trade_journal_mark_error").Wrap(err)
	}
	return nil
}

// Get returns the record for a sequence.
func (j *Journal) Get(sequence uint64) (tradejournalv1.Record, error) {
	val, closer, err := j.db.Get(keyFor(sequence))
	if err == pebble.ErrNotFound {
		return tradejournalv1.Record{}, tradejournalv1.ErrRecordNotFound
	}
	if err != nil {
		return tradejournalv1.Record{}, errors.NewTracer("trade_journal_get_error").Wrap(err)
	}
	defer closer.Close()

	return decodeRecord(val)
}

// ScanPending iterates all pending records in sequence order.
func (j *Journal) ScanPending(fn func(rec tradejournalv1.Record) error) error {
	iter, err := j.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(keyPrefix),
		UpperBound: []byte(keyPrefix + "~"),
	})
	if err != nil {
		return errors.NewTracer("trade_journal_scan_error").Wrap(err)
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		rec, err := decodeRecord(iter.Value())
		if err != nil {
			return err
		}
		if rec.State != tradejournalv1.StatePending {
			continue
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return iter.Error()
}

// binary encoding: [seq:8][state:1][retries:4][lastAttempt:8][payload:rest]
func encodeRecord(rec tradejournalv1.Record) []byte {
	buf := make([]byte, 21+len(rec.Payload))
	binary.BigEndian.PutUint64(buf[0:8], rec.Sequence)
	buf[8] = byte(rec.State)
	binary.BigEndian.PutUint32(buf[9:13], rec.Retries)
	binary.BigEndian.PutUint64(buf[13:21], uint64(rec.LastAttempt))
	copy(buf[21:], rec.Payload)
	return buf
}

func decodeRecord(b []byte) (tradejournalv1.Record, error) {
	if len(b) < 21 {
		return tradejournalv1.Record{}, fmt.Errorf("invalid journal record length %d", len(b))
	}
	rec := tradejournalv1.Record{
		Sequence:    binary.BigEndian.Uint64(b[0:8]),
		State:       tradejournalv1.State(b[8]),
		Retries:     binary.BigEndian.Uint32(b[9:13]),
		LastAttempt: int64(binary.BigEndian.Uint64(b[13:21])),
	}
	if len(b) > 21 {
		rec.Payload = make([]byte, len(b)-21)
		copy(rec.Payload, b[21:])
	}
	return rec, nil
}

func keyFor(sequence uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d", keyPrefix, sequence))
}
