package engine

import (
	"time"

	"github.com/ignitedb/ignite/internal/manifest"
	"github.com/ignitedb/ignite/internal/memtable"
	"github.com/ignitedb/ignite/internal/record"
	ignerrors "github.com/ignitedb/ignite/pkg/errors"
)

// Put inserts or overwrites key's value. Values at or under
// InlineValueMaxBytes are stored directly in the memtable/SST entry;
// larger values are appended to the value log first and only the
// resulting Pointer is carried through the write path, the WiscKey
// key/value separation.
func (e *Engine) Put(key, value []byte) error {
	start := time.Now()
	err := e.put(key, value)
	e.metrics.ObserveOp("put", time.Since(start).Seconds(), err)
	return err
}

func (e *Engine) put(key, value []byte) error {
	if e.closed.Load() {
		return ErrEngineClosed
	}
	if len(key) == 0 {
		return ignerrors.NewValidationError(
			nil, ignerrors.ErrorCodeInvalidInput, "Key must not be empty",
		).WithField("key").WithRule("required")
	}

	seq := e.seq.Add(1)

	var vs record.ValueStatus
	if uint32(len(value)) <= e.opts.InlineValueMaxBytes {
		vs = record.FromInline(value, seq)
	} else {
		ptr, rotatedTo, err := e.vlogMgr.Append(key, value)
		if err != nil {
			return err
		}
		if rotatedTo != 0 {
			if err := e.applyVlogRotate(rotatedTo); err != nil {
				return err
			}
		}
		vs = record.FromPointer(ptr, seq)
	}

	return e.apply(key, vs)
}

// applyVlogRotate durably records that segmentID is now (or was briefly,
// for a mid-batch GC rotation) the active value-log segment, keeping the
// manifest's live vlog segment set authoritative rather than relying on
// vlog.Manager's private in-memory bookkeeping alone.
func (e *Engine) applyVlogRotate(segmentID uint32) error {
	return e.man.Apply(manifest.Edit{Kind: manifest.EditVlogRotate, SegmentID: segmentID})
}

// Delete records a tombstone for key. The tombstone itself is the delete
// marker; it is only physically dropped once compaction carries it down
// to the deepest level that still holds the key.
func (e *Engine) Delete(key []byte) error {
	start := time.Now()
	err := e.delete(key)
	e.metrics.ObserveOp("delete", time.Since(start).Seconds(), err)
	return err
}

func (e *Engine) delete(key []byte) error {
	if e.closed.Load() {
		return ErrEngineClosed
	}
	if len(key) == 0 {
		return ignerrors.NewValidationError(
			nil, ignerrors.ErrorCodeInvalidInput, "Key must not be empty",
		).WithField("key").WithRule("required")
	}

	seq := e.seq.Add(1)
	return e.apply(key, record.Tombstone(seq))
}

// apply appends (key, vs) to the active WAL generation and the active
// memtable under the writer mutex, freezing and scheduling a flush if
// the memtable has grown past its byte threshold.
func (e *Engine) apply(key []byte, vs record.ValueStatus) error {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	if _, err := e.activeWAL.Append(key, vs); err != nil {
		return err
	}
	e.active.Put(key, vs)
	e.metrics.SetMemtableBytes(e.active.SizeBytes())

	if uint64(e.active.SizeBytes()) >= e.opts.MemtableMaxBytes {
		return e.freezeLocked()
	}
	return nil
}

// freezeLocked retires the active memtable into the frozen queue, opens
// a fresh WAL generation and memtable, and schedules a background flush.
// Callers must hold writeMu.
func (e *Engine) freezeLocked() error {
	e.active.Freeze()
	e.frozen = append(e.frozen, generation{walID: e.activeWALID, mt: e.active})

	newID := e.activeWALID + 1
	newWAL, err := e.wal.OpenWriter(newID, e.opts.SyncWrites)
	if err != nil {
		return err
	}

	if err := e.activeWAL.Sync(); err != nil {
		newWAL.Close()
		return err
	}
	if err := e.activeWAL.Close(); err != nil {
		newWAL.Close()
		return err
	}

	e.activeWAL = newWAL
	e.activeWALID = newID
	e.active = memtable.New()
	e.metrics.SetMemtableBytes(0)

	e.enqueue(job{kind: jobFlush})
	return nil
}
