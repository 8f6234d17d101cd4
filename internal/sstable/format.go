// Package sstable implements the immutable, sorted, on-disk table that
// memtable flushes and compaction outputs are written as. Layout
// (data blocks, sparse index, bloom filter, fixed footer) is grounded on
// FlashLog's sst/writer.go, generalized to carry a record.ValueStatus per
// entry instead of a raw value/tombstone-byte pair, and reusing
// internal/codec's block framing instead of FlashLog's hand-rolled
// per-block CRC so every on-disk file in this store shares one codec.
package sstable

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
)

// magic identifies a file as belonging to this store, checked on Open so
// a stray file in sst/ fails fast instead of corrupting reads.
const magic = 0x49474e54 // "IGNT"

const formatVersion = 1

// footerSize is the fixed on-disk size of the trailing footer:
// indexOffset(8) indexSize(4) bloomOffset(8) bloomSize(4) minKeyOffset(8)
// minKeySize(2) maxKeyOffset(8) maxKeySize(2) magic(4) version(2) crc32(4).
const footerSize = 8 + 4 + 8 + 4 + 8 + 2 + 8 + 2 + 4 + 2 + 4

// defaultDataBlockSize targets ~4KB data blocks, the same target FlashLog's
// SST writer uses.
const defaultDataBlockSize = 4 * 1024

type footer struct {
	indexOffset  int64
	indexSize    uint32
	bloomOffset  int64
	bloomSize    uint32
	minKeyOffset int64
	minKeySize   uint16
	maxKeyOffset int64
	maxKeySize   uint16
}

func (f footer) encode() []byte {
	buf := make([]byte, footerSize)
	binary.LittleEndian.PutUint64(buf[0:8], uint64(f.indexOffset))
	binary.LittleEndian.PutUint32(buf[8:12], f.indexSize)
	binary.LittleEndian.PutUint64(buf[12:20], uint64(f.bloomOffset))
	binary.LittleEndian.PutUint32(buf[20:24], f.bloomSize)
	binary.LittleEndian.PutUint64(buf[24:32], uint64(f.minKeyOffset))
	binary.LittleEndian.PutUint16(buf[32:34], f.minKeySize)
	binary.LittleEndian.PutUint64(buf[34:42], uint64(f.maxKeyOffset))
	binary.LittleEndian.PutUint16(buf[42:44], f.maxKeySize)
	binary.LittleEndian.PutUint32(buf[44:48], magic)
	binary.LittleEndian.PutUint16(buf[48:50], formatVersion)
	binary.LittleEndian.PutUint32(buf[50:54], crc32.ChecksumIEEE(buf[:50]))
	return buf
}

func decodeFooter(buf []byte) (footer, error) {
	if len(buf) != footerSize {
		return footer{}, fmt.Errorf("sstable: footer has %d bytes, want %d", len(buf), footerSize)
	}

	gotMagic := binary.LittleEndian.Uint32(buf[44:48])
	if gotMagic != magic {
		return footer{}, fmt.Errorf("sstable: bad magic %#x", gotMagic)
	}

	version := binary.LittleEndian.Uint16(buf[48:50])
	if version != formatVersion {
		return footer{}, fmt.Errorf("sstable: unsupported format version %d", version)
	}

	wantCRC := binary.LittleEndian.Uint32(buf[50:54])
	if crc32.ChecksumIEEE(buf[:50]) != wantCRC {
		return footer{}, fmt.Errorf("sstable: footer checksum mismatch")
	}

	return footer{
		indexOffset:  int64(binary.LittleEndian.Uint64(buf[0:8])),
		indexSize:    binary.LittleEndian.Uint32(buf[8:12]),
		bloomOffset:  int64(binary.LittleEndian.Uint64(buf[12:20])),
		bloomSize:    binary.LittleEndian.Uint32(buf[20:24]),
		minKeyOffset: int64(binary.LittleEndian.Uint64(buf[24:32])),
		minKeySize:   binary.LittleEndian.Uint16(buf[32:34]),
		maxKeyOffset: int64(binary.LittleEndian.Uint64(buf[34:42])),
		maxKeySize:   binary.LittleEndian.Uint16(buf[42:44]),
	}, nil
}

type indexEntry struct {
	key         []byte
	blockOffset int64
	blockSize   uint32
}

func encodeIndexBlock(entries []indexEntry) []byte {
	size := 4
	for _, e := range entries {
		size += 4 + len(e.key) + 8 + 4
	}

	buf := make([]byte, size)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(len(entries)))
	pos := 4
	for _, e := range entries {
		binary.LittleEndian.PutUint32(buf[pos:pos+4], uint32(len(e.key)))
		pos += 4
		copy(buf[pos:], e.key)
		pos += len(e.key)
		binary.LittleEndian.PutUint64(buf[pos:pos+8], uint64(e.blockOffset))
		pos += 8
		binary.LittleEndian.PutUint32(buf[pos:pos+4], e.blockSize)
		pos += 4
	}
	return buf
}

func decodeIndexBlock(buf []byte) ([]indexEntry, error) {
	if len(buf) < 4 {
		return nil, fmt.Errorf("sstable: truncated index block")
	}
	n := binary.LittleEndian.Uint32(buf[0:4])
	entries := make([]indexEntry, 0, n)

	pos := 4
	for i := uint32(0); i < n; i++ {
		if pos+4 > len(buf) {
			return nil, fmt.Errorf("sstable: truncated index entry %d", i)
		}
		keyLen := int(binary.LittleEndian.Uint32(buf[pos : pos+4]))
		pos += 4
		if pos+keyLen+12 > len(buf) {
			return nil, fmt.Errorf("sstable: truncated index entry %d", i)
		}
		key := make([]byte, keyLen)
		copy(key, buf[pos:pos+keyLen])
		pos += keyLen

		off := int64(binary.LittleEndian.Uint64(buf[pos : pos+8]))
		pos += 8
		size := binary.LittleEndian.Uint32(buf[pos : pos+4])
		pos += 4

		entries = append(entries, indexEntry{key: key, blockOffset: off, blockSize: size})
	}
	return entries, nil
}
