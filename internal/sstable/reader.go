package sstable

import (
	"bytes"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/bits-and-blooms/bloom/v3"

	"github.com/ignitedb/ignite/internal/codec"
	"github.com/ignitedb/ignite/internal/record"
)

// Reader opens an immutable SST for point lookups and range scans. Its
// index and bloom filter are loaded once at Open and held for the
// Reader's lifetime; refs is the atomic reference count that makes a
// compaction's unlink of this file wait for in-flight readers (a
// counting refcount rather than a closed-flag, since many concurrent
// readers — not just one writer — share an SST handle).
type Reader struct {
	f              *os.File
	path           string
	index          []indexEntry
	bloom          *bloom.BloomFilter
	minKey, maxKey []byte
	refs           atomic.Int32
}

// Open reads path's footer, index block, and bloom filter, and returns a
// Reader with an initial reference count of 1.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.Size() < footerSize {
		f.Close()
		return nil, fmt.Errorf("sstable: %s is smaller than the footer", path)
	}

	footerBuf := make([]byte, footerSize)
	if _, err := f.ReadAt(footerBuf, info.Size()-footerSize); err != nil {
		f.Close()
		return nil, err
	}
	ft, err := decodeFooter(footerBuf)
	if err != nil {
		f.Close()
		return nil, err
	}

	indexBlock, err := codec.ReadBlockAt(f, ft.indexOffset)
	if err != nil {
		f.Close()
		return nil, err
	}
	indexPayload, err := codec.Decode(indexBlock)
	if err != nil {
		f.Close()
		return nil, err
	}
	index, err := decodeIndexBlock(indexPayload)
	if err != nil {
		f.Close()
		return nil, err
	}

	bloomBlock, err := codec.ReadBlockAt(f, ft.bloomOffset)
	if err != nil {
		f.Close()
		return nil, err
	}
	bloomPayload, err := codec.Decode(bloomBlock)
	if err != nil {
		f.Close()
		return nil, err
	}
	filter := &bloom.BloomFilter{}
	if _, err := filter.ReadFrom(bytes.NewReader(bloomPayload)); err != nil {
		f.Close()
		return nil, err
	}

	minKey := make([]byte, ft.minKeySize)
	if _, err := f.ReadAt(minKey, ft.minKeyOffset); err != nil {
		f.Close()
		return nil, err
	}
	maxKey := make([]byte, ft.maxKeySize)
	if _, err := f.ReadAt(maxKey, ft.maxKeyOffset); err != nil {
		f.Close()
		return nil, err
	}

	r := &Reader{f: f, path: path, index: index, bloom: filter, minKey: minKey, maxKey: maxKey}
	r.refs.Store(1)
	return r, nil
}

// Path returns the SST's file path.
func (r *Reader) Path() string { return r.path }

// MinKey and MaxKey return the smallest/largest key in the table,
// letting the compactor and manifest prune files by range without
// opening them.
func (r *Reader) MinKey() []byte { return r.minKey }
func (r *Reader) MaxKey() []byte { return r.maxKey }

// Ref increments the reader's reference count; callers holding a
// manifest View() call this before reading and Unref after.
func (r *Reader) Ref() { r.refs.Add(1) }

// Unref decrements the reference count and returns the result; a caller
// that drives it to zero is responsible for Close and, for a file the
// manifest has already dropped, for removing it from disk.
func (r *Reader) Unref() int32 { return r.refs.Add(-1) }

// Close closes the underlying file handle. Callers must ensure no other
// reference is outstanding (Unref reached 0) before calling this.
func (r *Reader) Close() error {
	return r.f.Close()
}

// blockIndexFor returns the index of the data block that may contain
// key: the last sparse index entry whose first key is <= key. Returns
// -1 if key is below the table's minimum key.
func (r *Reader) blockIndexFor(key []byte) int {
	lo, hi := 0, len(r.index)
	for lo < hi {
		mid := (lo + hi) / 2
		if record.Compare(r.index[mid].key, key) <= 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo - 1
}

func (r *Reader) readDataBlock(idx int) ([]record.Entry, error) {
	e := r.index[idx]
	block, err := codec.ReadBlockAt(r.f, e.blockOffset)
	if err != nil {
		return nil, err
	}
	payload, err := codec.Decode(block)
	if err != nil {
		return nil, err
	}
	return decodeDataBlock(payload)
}

// Get looks up key, checking the bloom filter first so a miss costs no
// extra I/O.
func (r *Reader) Get(key []byte) (record.ValueStatus, bool, error) {
	if !r.bloom.Test(key) {
		return record.ValueStatus{}, false, nil
	}

	idx := r.blockIndexFor(key)
	if idx < 0 {
		return record.ValueStatus{}, false, nil
	}

	entries, err := r.readDataBlock(idx)
	if err != nil {
		return record.ValueStatus{}, false, err
	}

	value, ok := findInDataBlock(entries, key)
	return value, ok, nil
}

// NewIterator returns a forward cursor over [lo, hi); a nil lo starts at
// the first key, a nil hi runs to the last key.
func (r *Reader) NewIterator(lo, hi []byte) record.Iterator {
	return &iterator{reader: r, lo: lo, hi: hi, blockIdx: -1}
}

type iterator struct {
	reader   *Reader
	lo, hi   []byte
	blockIdx int
	entries  []record.Entry
	pos      int
}

func (it *iterator) loadBlock(idx int) error {
	if idx < 0 || idx >= len(it.reader.index) {
		it.entries = nil
		return nil
	}
	entries, err := it.reader.readDataBlock(idx)
	if err != nil {
		return err
	}
	it.blockIdx = idx
	it.entries = entries
	it.pos = -1
	return nil
}

func (it *iterator) Seek(target []byte) {
	if target == nil {
		target = it.lo
	}
	idx := it.reader.blockIndexFor(target)
	if idx < 0 {
		idx = 0
	}
	if err := it.loadBlock(idx); err != nil {
		it.entries = nil
		return
	}
	for it.pos+1 < len(it.entries) && record.Compare(it.entries[it.pos+1].Key, target) < 0 {
		it.pos++
	}
}

func (it *iterator) Next() bool {
	if it.blockIdx == -1 {
		it.Seek(it.lo)
	}

	for {
		if it.pos+1 < len(it.entries) {
			it.pos++
			if it.hi != nil && record.Compare(it.entries[it.pos].Key, it.hi) >= 0 {
				return false
			}
			return true
		}
		if err := it.loadBlock(it.blockIdx + 1); err != nil || it.entries == nil {
			return false
		}
	}
}

func (it *iterator) Key() []byte {
	return it.entries[it.pos].Key
}

func (it *iterator) Value() record.ValueStatus {
	return it.entries[it.pos].Value
}

func (it *iterator) Close() error {
	return nil
}
