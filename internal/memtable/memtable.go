// Package memtable implements the ordered in-memory map that buffers
// writes ahead of flushing to an SST: a byte-keyed skip list (grounded on
// FlashLog's memtable/skip_list.go) wrapped with the size accounting and
// locking the engine needs to let reads proceed without the writer mutex.
package memtable

import (
	"sync"
	"sync/atomic"

	"github.com/ignitedb/ignite/internal/record"
)

// Memtable is a concurrent-safe ordered map from key to ValueStatus. Put
// and Delete are called by the engine under its writer mutex; Get and
// NewIterator take their own RWMutex so reads can proceed concurrently
// with a flush snapshotting the table for write to an SST.
type Memtable struct {
	mu        sync.RWMutex
	sl        *skipList
	sizeBytes atomic.Int64
	frozen    atomic.Bool
}

// New returns an empty, writable Memtable.
func New() *Memtable {
	return &Memtable{sl: newSkipList()}
}

// Put inserts or overwrites key's value. Overwrites first subtract the
// replaced entry's contribution to SizeBytes so the running total
// reflects live, not cumulative, bytes.
func (m *Memtable) Put(key []byte, value record.ValueStatus) {
	if m.frozen.Load() {
		panic("memtable: Put on a frozen table")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	old, existed := m.sl.put(key, value)

	delta := int64(len(key) + value.Size())
	if existed {
		delta -= int64(len(key) + old.Size())
	}
	m.sizeBytes.Add(delta)
}

// Delete records a tombstone for key. A memtable never truly removes an
// entry — the tombstone itself is the delete marker, propagated through
// compaction until it reaches the deepest level holding the key.
func (m *Memtable) Delete(key []byte, seq uint64) {
	m.Put(key, record.Tombstone(seq))
}

// Get returns the ValueStatus for key, if present (including tombstones;
// callers distinguish "absent from this table" from "deleted" via the
// bool versus ValueStatus.IsTombstone()).
func (m *Memtable) Get(key []byte) (record.ValueStatus, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sl.get(key)
}

// SizeBytes returns the current accounted size of all live entries.
func (m *Memtable) SizeBytes() int64 {
	return m.sizeBytes.Load()
}

// Freeze marks the table immutable: the active table the engine is still
// writing to becomes a frozen table queued for flush to an SST. Put and
// Delete on a frozen Memtable panic, since the engine must never route
// new writes to a table it has already queued for flush.
func (m *Memtable) Freeze() {
	m.frozen.Store(true)
}

// Frozen reports whether Freeze has been called.
func (m *Memtable) Frozen() bool {
	return m.frozen.Load()
}

// Entries iterates all (key, ValueStatus) pairs in ascending key order.
// The callback is invoked under the read lock; it must not call back
// into the Memtable.
func (m *Memtable) Entries(yield func(key []byte, value record.ValueStatus) bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	m.sl.entries(yield)
}

// Len returns the number of live entries (tombstones count as entries).
func (m *Memtable) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sl.size
}
