package record

// Iterator is the common polymorphism point across memtables, SSTs, and
// merge output: every component that produces an ordered key stream
// implements it, so
// internal/compaction's k-way merge heap and pkg/ignite's Iter both
// operate on one interface regardless of the underlying source.
type Iterator interface {
	// Seek positions the iterator just before the first entry with
	// key >= target, so that the next Next call lands on that entry.
	// Key/Value are not valid after Seek until Next returns true.
	Seek(target []byte)

	// Next advances to the next entry in ascending key order, returning
	// false once exhausted.
	Next() bool

	// Key returns the current entry's key. Valid only after Next returns
	// true.
	Key() []byte

	// Value returns the current entry's ValueStatus.
	Value() ValueStatus

	// Close releases resources (open file handles, reference counts)
	// held by the iterator.
	Close() error
}
