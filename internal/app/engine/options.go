package engine

import "time"

const (
	defaultSnapshotInterval    = 30 * time.Second
	defaultSnapshotOffsetDelta = 500
)

// Options tunes the engine's checkpointing.
type Options struct {
	// SnapshotInterval is the period of the snapshot ticker.
	SnapshotInterval time.Duration
	// SnapshotOffsetDelta is the minimum order-stream advance since the
	// last stored snapshot before a new one is written. An idle book is
	// never re-snapshotted.
	SnapshotOffsetDelta int64
}

// DefaultEngineOptions returns the default checkpoint policy.
func DefaultEngineOptions() *Options {
	return &Options{
		SnapshotInterval:    defaultSnapshotInterval,
		SnapshotOffsetDelta: defaultSnapshotOffsetDelta,
	}
}
