package sstable

import (
	"encoding/binary"
	"fmt"

	"github.com/ignitedb/ignite/internal/record"
)

// encodeDataBlock serializes a run of sorted entries into one data
// block payload: key_len(4) | key | value_status(variable), repeated.
func encodeDataBlock(entries []record.Entry) []byte {
	size := 0
	bufs := make([][]byte, len(entries))
	for i, e := range entries {
		vb := record.Encode(nil, e.Value)
		bufs[i] = vb
		size += 4 + len(e.Key) + len(vb)
	}

	buf := make([]byte, size)
	pos := 0
	for i, e := range entries {
		binary.LittleEndian.PutUint32(buf[pos:pos+4], uint32(len(e.Key)))
		pos += 4
		copy(buf[pos:], e.Key)
		pos += len(e.Key)
		copy(buf[pos:], bufs[i])
		pos += len(bufs[i])
	}
	return buf
}

// decodeDataBlock parses a data block payload back into entries, in
// on-disk (ascending key) order.
func decodeDataBlock(buf []byte) ([]record.Entry, error) {
	var entries []record.Entry
	pos := 0
	for pos < len(buf) {
		if pos+4 > len(buf) {
			return nil, fmt.Errorf("sstable: truncated data block entry")
		}
		keyLen := int(binary.LittleEndian.Uint32(buf[pos : pos+4]))
		pos += 4
		if pos+keyLen > len(buf) {
			return nil, fmt.Errorf("sstable: truncated data block key")
		}
		key := make([]byte, keyLen)
		copy(key, buf[pos:pos+keyLen])
		pos += keyLen

		value, n, err := record.Decode(buf[pos:])
		if err != nil {
			return nil, err
		}
		pos += n

		entries = append(entries, record.Entry{Key: key, Value: value})
	}
	return entries, nil
}

// findInDataBlock binary-searches a decoded data block for key.
func findInDataBlock(entries []record.Entry, key []byte) (record.ValueStatus, bool) {
	lo, hi := 0, len(entries)
	for lo < hi {
		mid := (lo + hi) / 2
		switch {
		case record.Compare(entries[mid].Key, key) < 0:
			lo = mid + 1
		case record.Compare(entries[mid].Key, key) > 0:
			hi = mid
		default:
			return entries[mid].Value, true
		}
	}
	return record.ValueStatus{}, false
}
