package tradejournalv1

import "errors"

// ErrRecordNotFound is returned when no journal record exists for a sequence.
var ErrRecordNotFound = errors.New("journal record not found")

// State tracks a journaled trade through the publication outbox.
type State uint8

const (
	// StatePending marks a trade journaled but not yet acknowledged downstream.
	StatePending State = iota
	// StatePublished marks a trade acknowledged by the matches topic.
	StatePublished
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "PENDING"
	case StatePublished:
		return "PUBLISHED"
	default:
		return "UNKNOWN"
	}
}

// Record is one durable outbox entry keyed by trade sequence.
type Record struct {
	Sequence    uint64
	State       State
	Retries     uint32
	LastAttempt int64
	Payload     []byte
}

// Journal is the durable trade outbox. Every trade is appended before
// publication; pending records are retried until marked published.
//
//go:generate mockgen -source interface.go -destination=mock/interface_mock.go -package=tradejournalv1_mock
type Journal interface {
	// Append stores a new pending record for a trade sequence
	Append(sequence uint64, payload []byte) error
	// MarkPublished transitions a record to the published state
	MarkPublished(sequence uint64) error
	// Get returns the record for a sequence
	Get(sequence uint64) (Record, error)
	// ScanPending iterates all pending records in sequence order
	ScanPending(fn func(rec Record) error) error
	// Close releases the underlying store
	Close() error
}
