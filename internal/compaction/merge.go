// Package compaction implements leveled compaction: input selection,
// the k-way merge over memtable/SST sources, the tombstone-drop rule,
// and the two-phase (write-files-then-manifest-edits) commit that keeps a
// crash from losing data. The commit is a run of separate edits, outputs
// added before inputs are removed: a crash partway through leaves both
// outputs and inputs live, holding the same keys twice until a later
// compaction merges them again. The merge heap is also reused by
// pkg/ignite's Iter and by the engine's read path, since every source —
// memtable, SST, or another merge's output — satisfies the same
// record.Iterator capability set.
package compaction

import (
	"container/heap"

	"github.com/ignitedb/ignite/internal/record"
)

// Source wraps one input to a merge with the freshness metadata the
// merge needs to resolve duplicate keys: Level ranks sources from
// freshest (0) to oldest, and FileID breaks ties within the same Level
// (higher wins): lower level wins, and within a level the higher file id
// (fresher) wins. The same rule applies on the GC rewrite path.
type Source struct {
	Iter   record.Iterator
	Level  int
	FileID uint64
}

// fresherThan reports whether a is the surviving entry when a and b
// carry the same key.
func (a Source) fresherThan(b Source) bool {
	if a.Level != b.Level {
		return a.Level < b.Level
	}
	return a.FileID > b.FileID
}

type heapItem struct {
	src Source
}

type sourceHeap []heapItem

func (h sourceHeap) Len() int { return len(h) }
func (h sourceHeap) Less(i, j int) bool {
	ki, kj := h[i].src.Iter.Key(), h[j].src.Iter.Key()
	cmp := record.Compare(ki, kj)
	if cmp != 0 {
		return cmp < 0
	}
	return h[i].src.fresherThan(h[j].src)
}
func (h sourceHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *sourceHeap) Push(x any)        { *h = append(*h, x.(heapItem)) }
func (h *sourceHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// MergeIterator merges any number of ascending Sources into a single
// ascending stream, deduplicated by key: when multiple sources carry the
// same key, only the freshest survives (Source.fresherThan). It
// satisfies record.Iterator itself, so a compaction's output can feed
// directly into another merge (e.g. the engine composing a read across
// memtables and every level).
type MergeIterator struct {
	h          sourceHeap
	key        []byte
	value      record.ValueStatus
	sources    []Source
	started    bool
}

// NewMergeIterator builds a merge over sources. Callers must have
// already positioned each source's iterator with Seek (or left it
// unseeked to scan from the beginning) before passing it in; Next drives
// every source itself from then on.
func NewMergeIterator(sources []Source) *MergeIterator {
	return &MergeIterator{sources: sources}
}

// Seek repositions every source at target and forgets any heap state;
// the next Next() call re-seeds the heap from each source's new
// position, the same lazy-start path used on the very first Next().
func (m *MergeIterator) Seek(target []byte) {
	for _, s := range m.sources {
		s.Iter.Seek(target)
	}
	m.h = m.h[:0]
	m.started = false
}

// Next advances to the next distinct key across all sources, skipping
// any source's entries that are shadowed by a fresher duplicate.
func (m *MergeIterator) Next() bool {
	if !m.started {
		m.started = true
		for i := range m.sources {
			if m.sources[i].Iter.Next() {
				heap.Push(&m.h, heapItem{src: m.sources[i]})
			}
		}
	}

	for {
		if m.h.Len() == 0 {
			return false
		}

		top := m.h[0].src
		m.key = append(m.key[:0], top.Iter.Key()...)
		m.value = top.Iter.Value()

		// Drain every source currently holding this same key: all but
		// the freshest (top) are shadowed duplicates.
		for m.h.Len() > 0 && record.Compare(m.h[0].src.Iter.Key(), m.key) == 0 {
			item := heap.Pop(&m.h).(heapItem)
			if item.src.Iter.Next() {
				heap.Push(&m.h, heapItem{src: item.src})
			}
		}

		return true
	}
}

func (m *MergeIterator) Key() []byte               { return m.key }
func (m *MergeIterator) Value() record.ValueStatus { return m.value }

func (m *MergeIterator) Close() error {
	var firstErr error
	for _, s := range m.sources {
		if err := s.Iter.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
