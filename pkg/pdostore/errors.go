package pdostore

import "fmt"

// ShardOverflow is returned when a shard is at capacity and cannot accept
// another entry.
type ShardOverflow struct {
	ShardID int
	PdoID   string
}

func (e *ShardOverflow) Error() string {
	return fmt.Sprintf("pdostore: shard %d is full, cannot store %q", e.ShardID, e.PdoID)
}

// DuplicateEntry is returned when pdo_id already exists in the store with
// the same content hash — a harmless re-store, surfaced rather than
// silently ignored.
type DuplicateEntry struct{ PdoID string }

func (e *DuplicateEntry) Error() string {
	return fmt.Sprintf("pdostore: %q already stored with the same content hash", e.PdoID)
}

// ImmutabilityViolation is returned when pdo_id already exists in the
// store with a different content hash: a write attempting to mutate an
// immutable entry.
type ImmutabilityViolation struct{ PdoID string }

func (e *ImmutabilityViolation) Error() string {
	return fmt.Sprintf("pdostore: %q already stored with a different content hash", e.PdoID)
}

// IndexCorruption is returned by ValidateIntegrity when the primary or a
// secondary index disagrees with the shard contents.
type IndexCorruption struct{ Detail string }

func (e *IndexCorruption) Error() string {
	return fmt.Sprintf("pdostore: index corruption: %s", e.Detail)
}
