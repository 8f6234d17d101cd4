package sstable

import (
	"bytes"
	"os"

	"github.com/bits-and-blooms/bloom/v3"

	"github.com/ignitedb/ignite/internal/codec"
	"github.com/ignitedb/ignite/internal/record"
)

// Writer builds one SST file from a strictly ascending stream of
// entries. It is used both by the engine's flush path (draining a frozen
// Memtable) and by internal/compaction (draining a k-way merge), which is
// why Add takes a plain key and record.ValueStatus rather than assuming a
// particular upstream iterator type.
type Writer struct {
	f                 *os.File
	path              string
	maxDataBlockBytes int
	pending           []record.Entry
	pendingBytes      int
	index             []indexEntry
	bloom             *bloom.BloomFilter
	minKey, maxKey    []byte
	offset            int64
	hasEntry          bool
	lastKey           []byte
}

// NewWriter creates path and returns a Writer ready for Add calls.
// expectedEntries sizes the bloom filter. The flush path passes the
// source memtable's Len(); the compactor passes a fixed 1024 per output
// file.
func NewWriter(path string, expectedEntries int) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	if expectedEntries < 1 {
		expectedEntries = 1
	}

	return &Writer{
		f:                 f,
		path:              path,
		maxDataBlockBytes: defaultDataBlockSize,
		bloom:             bloom.NewWithEstimates(uint(expectedEntries), 0.01),
	}, nil
}

// Add appends one entry. Keys must be strictly ascending; a violation
// panics, since only the flush and compaction paths call Add and both
// already guarantee order upstream — a violation here is a programming
// error, never a data error.
func (w *Writer) Add(key []byte, value record.ValueStatus) error {
	if w.hasEntry && record.Compare(key, w.lastKey) <= 0 {
		panic("sstable: Add called with non-ascending key")
	}

	keyCopy := append([]byte(nil), key...)
	w.lastKey = keyCopy
	w.hasEntry = true

	if w.minKey == nil {
		w.minKey = keyCopy
	}
	w.maxKey = keyCopy

	entrySize := 4 + len(key) + value.Size()
	if w.pendingBytes > 0 && w.pendingBytes+entrySize > w.maxDataBlockBytes {
		if err := w.flushDataBlock(); err != nil {
			return err
		}
	}

	w.pending = append(w.pending, record.Entry{Key: keyCopy, Value: value})
	w.pendingBytes += entrySize
	w.bloom.Add(key)

	return nil
}

func (w *Writer) flushDataBlock() error {
	if len(w.pending) == 0 {
		return nil
	}

	payload := encodeDataBlock(w.pending)
	block := codec.Encode(payload, false)

	blockOffset := w.offset
	if _, err := w.f.WriteAt(block, blockOffset); err != nil {
		return err
	}
	w.offset += int64(len(block))

	w.index = append(w.index, indexEntry{
		key:         w.pending[0].Key,
		blockOffset: blockOffset,
		blockSize:   uint32(len(block)),
	})

	w.pending = w.pending[:0]
	w.pendingBytes = 0
	return nil
}

// Finish flushes any buffered entries, writes the index, bloom filter,
// and footer, and closes the file. The Writer must not be used
// afterward.
func (w *Writer) Finish() error {
	if err := w.flushDataBlock(); err != nil {
		return err
	}

	indexOffset := w.offset
	indexBlock := codec.Encode(encodeIndexBlock(w.index), false)
	if _, err := w.f.WriteAt(indexBlock, indexOffset); err != nil {
		return err
	}
	w.offset += int64(len(indexBlock))

	bloomOffset := w.offset
	var bloomBuf bytes.Buffer
	if _, err := w.bloom.WriteTo(&bloomBuf); err != nil {
		return err
	}
	bloomBlock := codec.Encode(bloomBuf.Bytes(), false)
	if _, err := w.f.WriteAt(bloomBlock, bloomOffset); err != nil {
		return err
	}
	w.offset += int64(len(bloomBlock))

	minKeyOffset := w.offset
	if _, err := w.f.WriteAt(w.minKey, minKeyOffset); err != nil {
		return err
	}
	w.offset += int64(len(w.minKey))

	maxKeyOffset := w.offset
	if _, err := w.f.WriteAt(w.maxKey, maxKeyOffset); err != nil {
		return err
	}
	w.offset += int64(len(w.maxKey))

	ft := footer{
		indexOffset:  indexOffset,
		indexSize:    uint32(len(indexBlock)),
		bloomOffset:  bloomOffset,
		bloomSize:    uint32(len(bloomBlock)),
		minKeyOffset: minKeyOffset,
		minKeySize:   uint16(len(w.minKey)),
		maxKeyOffset: maxKeyOffset,
		maxKeySize:   uint16(len(w.maxKey)),
	}
	if _, err := w.f.WriteAt(ft.encode(), w.offset); err != nil {
		return err
	}

	if err := w.f.Sync(); err != nil {
		return err
	}
	return w.f.Close()
}

// Abort closes and removes a partially-written SST, used when a flush or
// compaction fails partway through.
func (w *Writer) Abort() error {
	_ = w.f.Close()
	return os.Remove(w.path)
}

// Path returns the file path this Writer was created with.
func (w *Writer) Path() string { return w.path }

// MinKey and MaxKey report the smallest/largest key seen so far.
func (w *Writer) MinKey() []byte { return w.minKey }
func (w *Writer) MaxKey() []byte { return w.maxKey }

// Empty reports whether Add has never been called.
func (w *Writer) Empty() bool { return !w.hasEntry }
