// Package ignite provides an embedded, ordered key/value data store with
// key/value separation (WiscKey-style): small keys and value pointers
// live in a write-ahead-logged memtable and compacted SSTs, while values
// above a configurable size are appended to a separate value log and
// reclaimed by a background garbage collector. It is designed for
// applications needing durable, crash-safe local storage with range
// scans — caches, indexes, and embedded metadata stores — without the
// operational overhead of a separate database process.
package ignite

import (
	"context"

	"github.com/ignitedb/ignite/internal/engine"
	"github.com/ignitedb/ignite/internal/record"
	"github.com/ignitedb/ignite/pkg/logger"
	"github.com/ignitedb/ignite/pkg/metrics"
	"github.com/ignitedb/ignite/pkg/options"
)

// Instance represents an instance of the Ignite key/value data store.
// It encapsulates the core engine responsible for data handling and the
// configuration options for this specific database instance.
//
// Instance is the primary entry point for interacting with the Ignite
// store, providing methods for putting, getting, deleting, and scanning
// key/value pairs.
type Instance struct {
	engine  *engine.Engine
	options *options.Options
}

// NewInstance creates and initializes a new Ignite DB instance, opening
// (or recovering) the store at the configured data directory and
// starting its background flush/compaction/GC workers. Metrics are
// disabled; use NewInstanceWithMetrics to export Prometheus collectors.
func NewInstance(ctx context.Context, service string, opts ...options.OptionFunc) (*Instance, error) {
	return newInstance(ctx, service, nil, opts...)
}

// NewInstanceWithMetrics is NewInstance, additionally registering the
// engine's operation/background-job/level collectors with reg.
func NewInstanceWithMetrics(ctx context.Context, service string, reg *metrics.Registry, opts ...options.OptionFunc) (*Instance, error) {
	return newInstance(ctx, service, reg, opts...)
}

func newInstance(ctx context.Context, service string, reg *metrics.Registry, opts ...options.OptionFunc) (*Instance, error) {
	log := logger.New(service)

	defaultOpts := options.NewDefaultOptions()
	for _, opt := range opts {
		opt(&defaultOpts)
	}

	eng, err := engine.New(ctx, &engine.Config{Logger: log, Options: &defaultOpts, Metrics: reg})
	if err != nil {
		return nil, err
	}

	return &Instance{engine: eng, options: &defaultOpts}, nil
}

// Put stores a key-value pair in the database. If the key already
// exists, its value is overwritten. The write is durable once Put
// returns when SyncWrites is enabled; otherwise it is durable within one
// SyncInterval tick.
func (i *Instance) Put(key string, value []byte) error {
	return i.engine.Put([]byte(key), value)
}

// Get retrieves the value associated with the given key. The second
// return value is false if the key does not exist or has been deleted.
func (i *Instance) Get(key string) ([]byte, bool, error) {
	return i.engine.Get([]byte(key))
}

// Delete removes a key-value pair from the database. The delete is
// recorded as a tombstone and is only physically reclaimed once
// compaction carries it down to the deepest level that still holds the
// key.
func (i *Instance) Delete(key string) error {
	return i.engine.Delete([]byte(key))
}

// Iterator exposes an ascending scan over the store's current contents,
// resolving value-log pointers transparently as it advances.
type Iterator struct {
	it record.Iterator
	e  *engine.Engine
}

// NewIterator returns an Iterator over the half-open key range [lo, hi).
// A nil lo or hi leaves that bound unrestricted. The iterator reflects a
// snapshot of the memtables and SSTs live at the time it was created;
// writes that land afterward are not visible to it.
func (i *Instance) NewIterator(lo, hi []byte) (*Iterator, error) {
	it, err := i.engine.NewIterator(lo, hi)
	if err != nil {
		return nil, err
	}
	return &Iterator{it: it, e: i.engine}, nil
}

// Seek repositions the iterator at the first key >= target.
func (it *Iterator) Seek(target []byte) { it.it.Seek(target) }

// Next advances the iterator and reports whether a further entry is
// available. Tombstoned keys are surfaced, not skipped — callers that
// only want live entries should check Value().
func (it *Iterator) Next() bool { return it.it.Next() }

// Key returns the current entry's key. Valid only after a Next call that
// returned true.
func (it *Iterator) Key() []byte { return it.it.Key() }

// Value resolves and returns the current entry's value, reading through
// to the value log when the entry stores a pointer rather than an
// inline value. ok is false for a tombstoned entry.
func (it *Iterator) Value() ([]byte, bool, error) {
	return it.e.Resolve(it.it.Value())
}

// Close releases the iterator's SST reader handles back to the engine's
// cache.
func (it *Iterator) Close() error { return it.it.Close() }

// Close gracefully shuts down the Ignite DB instance, stopping
// background workers, flushing what's required for a clean shutdown, and
// releasing all open file handles.
func (i *Instance) Close() error {
	return i.engine.Close()
}

// LevelStats mirrors engine.LevelStats, re-exported so callers outside
// this module can inspect the LSM's shape without importing internal/engine.
type LevelStats = engine.LevelStats

// Stats returns the current per-level live SST file counts.
func (i *Instance) Stats() []LevelStats {
	return i.engine.Stats()
}

// PendingFlushes reports how many frozen memtable generations are
// awaiting a background flush.
func (i *Instance) PendingFlushes() int {
	return i.engine.PendingFlushes()
}

// CompactLevel runs one compaction pass at level synchronously,
// bypassing the background scheduler.
func (i *Instance) CompactLevel(level int) error {
	return i.engine.CompactLevel(level)
}

// RunGC runs one value-log garbage collection pass synchronously,
// bypassing the background scheduler.
func (i *Instance) RunGC() error {
	return i.engine.RunGC()
}
