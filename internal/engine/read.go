package engine

import (
	"path/filepath"
	"sort"
	"time"

	"github.com/ignitedb/ignite/internal/compaction"
	"github.com/ignitedb/ignite/internal/memtable"
	"github.com/ignitedb/ignite/internal/record"
	"github.com/ignitedb/ignite/internal/sstable"
)

// lookup resolves key to its current ValueStatus by searching, in
// freshness order, the active memtable, frozen memtables newest-first,
// and each manifest level 0..N (within a level, highest file id first,
// since only L0 can hold overlapping ranges). It deliberately doesn't
// build a full compaction.MergeIterator for a single key — that would
// touch every live SST just to answer one point lookup — and reserves
// that machinery for NewIterator's range-scan path.
func (e *Engine) lookup(key []byte) (record.ValueStatus, bool, error) {
	e.writeMu.Lock()
	active := e.active
	frozen := append([]generation(nil), e.frozen...)
	e.writeMu.Unlock()

	return e.lookupLayers(active, frozen, key)
}

// lookupLayers performs the same search as lookup but against caller-
// supplied active/frozen snapshots, letting callers that already hold
// writeMu (the GC CAS-reapply path) avoid re-entering the mutex.
func (e *Engine) lookupLayers(active *memtable.Memtable, frozen []generation, key []byte) (record.ValueStatus, bool, error) {
	if vs, ok := active.Get(key); ok {
		return vs, true, nil
	}
	for i := len(frozen) - 1; i >= 0; i-- {
		if vs, ok := frozen[i].mt.Get(key); ok {
			return vs, true, nil
		}
	}

	view := e.man.View()
	hiExclusive := append(append([]byte(nil), key...), 0)
	sstDir := filepath.Join(e.dataDir, sstDirName)

	for level, files := range view.Levels {
		candidates := make([]int, 0, len(files))
		for i, f := range files {
			if f.Overlaps(key, hiExclusive) {
				candidates = append(candidates, i)
			}
		}
		sort.Slice(candidates, func(a, b int) bool {
			return files[candidates[a]].FileID > files[candidates[b]].FileID
		})

		for _, i := range candidates {
			f := files[i]
			path := compaction.SSTPath(sstDir, level, f.FileID)
			r, err := e.readers.Acquire(level, f.FileID, path)
			if err != nil {
				return record.ValueStatus{}, false, err
			}
			vs, found, err := r.Get(key)
			e.readers.Release(r)
			if err != nil {
				return record.ValueStatus{}, false, err
			}
			if found {
				return vs, true, nil
			}
		}
	}

	return record.ValueStatus{}, false, nil
}

// Get returns the current value for key, resolving value-log pointers
// transparently. It returns (nil, false, nil) for both an absent key and
// a tombstoned one — callers at this layer don't need to distinguish the
// two.
func (e *Engine) Get(key []byte) ([]byte, bool, error) {
	start := time.Now()
	value, ok, err := e.get(key)
	e.metrics.ObserveOp("get", time.Since(start).Seconds(), err)
	return value, ok, err
}

func (e *Engine) get(key []byte) ([]byte, bool, error) {
	if e.closed.Load() {
		return nil, false, ErrEngineClosed
	}

	vs, ok, err := e.lookup(key)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	return e.Resolve(vs)
}

// Resolve materializes the byte value a ValueStatus represents, reading
// through to the value log for pointer entries. It returns (nil, false,
// nil) for a tombstone, letting callers at this layer treat "deleted"
// and "absent" the same way. Exported so pkg/ignite's range iterator can
// resolve values a compaction.MergeIterator surfaces without reaching
// into the engine's unexported value-log handle.
func (e *Engine) Resolve(vs record.ValueStatus) ([]byte, bool, error) {
	if vs.IsTombstone() {
		return nil, false, nil
	}

	switch vs.Kind {
	case record.KindInline:
		return vs.Inline, true, nil
	case record.KindPointer:
		value, err := e.vlogMgr.Read(vs.Pointer)
		if err != nil {
			return nil, false, err
		}
		return value, true, nil
	default:
		return nil, false, nil
	}
}

// rangeIterator composes a compaction.MergeIterator over every memtable
// and SST source live at the time NewIterator was called, releasing its
// acquired SST reader handles back to the cache on Close.
type rangeIterator struct {
	mi      *compaction.MergeIterator
	hi      []byte
	readers []*sstable.Reader
	cache   interface{ Release(*sstable.Reader) }
}

func (r *rangeIterator) Seek(target []byte)        { r.mi.Seek(target) }
func (r *rangeIterator) Next() bool {
	if !r.mi.Next() {
		return false
	}
	return r.hi == nil || record.Compare(r.mi.Key(), r.hi) < 0
}
func (r *rangeIterator) Key() []byte               { return r.mi.Key() }
func (r *rangeIterator) Value() record.ValueStatus { return r.mi.Value() }

func (r *rangeIterator) Close() error {
	err := r.mi.Close()
	for _, rd := range r.readers {
		r.cache.Release(rd)
	}
	return err
}

// NewIterator returns an ascending record.Iterator over [lo, hi), merging
// the active memtable, every frozen memtable, and every SST whose key
// range could overlap the bound. Memtables are assigned Level values
// below zero so compaction.Source's "lower level wins" tie-break makes
// any in-memory version dominate any on-disk one without a separate code
// path: the active table gets the lowest (freshest) level, frozen tables
// next in recency order, and SST levels 0..N keep their natural ranking.
func (e *Engine) NewIterator(lo, hi []byte) (record.Iterator, error) {
	if e.closed.Load() {
		return nil, ErrEngineClosed
	}

	e.writeMu.Lock()
	active := e.active
	frozen := append([]generation(nil), e.frozen...)
	e.writeMu.Unlock()

	n := len(frozen)
	var sources []compaction.Source

	activeIter := active.NewIterator()
	activeIter.Seek(lo)
	sources = append(sources, compaction.Source{Iter: activeIter, Level: -(n + 1)})

	for i, g := range frozen {
		it := g.mt.NewIterator()
		it.Seek(lo)
		sources = append(sources, compaction.Source{Iter: it, Level: -(i + 1)})
	}

	view := e.man.View()
	sstDir := filepath.Join(e.dataDir, sstDirName)
	var acquired []*sstable.Reader

	releaseAll := func() {
		for _, r := range acquired {
			e.readers.Release(r)
		}
	}

	for level, files := range view.Levels {
		for _, f := range files {
			if !f.Overlaps(lo, hi) {
				continue
			}
			path := compaction.SSTPath(sstDir, level, f.FileID)
			r, err := e.readers.Acquire(level, f.FileID, path)
			if err != nil {
				releaseAll()
				return nil, err
			}
			acquired = append(acquired, r)
			sources = append(sources, compaction.Source{Iter: r.NewIterator(lo, hi), Level: level, FileID: f.FileID})
		}
	}

	return &rangeIterator{mi: compaction.NewMergeIterator(sources), hi: hi, readers: acquired, cache: e.readers}, nil
}
