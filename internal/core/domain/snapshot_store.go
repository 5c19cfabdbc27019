package domain

import (
	"context"
	"errors"
)

var (
	ErrSnapshotNotFound = errors.New("analytics snapshot not cached")
	ErrSnapshotStale    = errors.New("analytics snapshot outdated by a newer write")
)

// SnapshotStore memoises computed snapshots per user. Entries are
// disposable: a miss only means the snapshot has to be recomputed.
//
// Every user has a generation counter that Delete advances. A writer reads
// the generation before loading the sessions it computes from and hands it
// back to Set, so a snapshot built from a list older than the last Delete is
// never stored.
type SnapshotStore interface {
	// Get returns ErrSnapshotNotFound on a miss.
	Get(ctx context.Context, userID string) (*Snapshot, error)

	// Generation returns the user's current generation.
	Generation(ctx context.Context, userID string) (uint64, error)

	// Set stores snapshot if the generation still equals gen, and returns
	// ErrSnapshotStale without storing anything otherwise.
	Set(ctx context.Context, userID string, gen uint64, snapshot *Snapshot) error

	// Delete drops the snapshot and advances the generation.
	Delete(ctx context.Context, userID string) error
}
