// Package walrec implements the write-ahead log: the record format, the
// append-only writer, and the front-to-back, torn-tail-tolerant reader
// used to recover a memtable generation after a crash.
package walrec

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"

	"github.com/ignitedb/ignite/internal/record"
)

// headerSize is crc32(4) + total_len(4) + key_len(4).
const headerSize = 12

// Record pairs a key with its ValueStatus, the unit appended to the WAL
// and replayed into a fresh memtable on open.
type Record struct {
	Key   []byte
	Value record.ValueStatus
}

// Encode serializes r into the CRC-framed, length-prefixed WAL format:
//
//	crc32(4) | total_len(4) | key_len(4) | key | value_status(variable)
//
// total_len covers key_len|key|value_status; the CRC covers everything
// after itself, so a torn write is detectable from the first four bytes.
func Encode(r Record) []byte {
	valueBuf := record.Encode(nil, r.Value)

	body := make([]byte, 4+len(r.Key)+len(valueBuf))
	binary.LittleEndian.PutUint32(body[0:4], uint32(len(r.Key)))
	copy(body[4:], r.Key)
	copy(body[4+len(r.Key):], valueBuf)

	out := make([]byte, 8+len(body))
	binary.LittleEndian.PutUint32(out[4:8], uint32(len(body)))
	copy(out[8:], body)

	crc := crc32.ChecksumIEEE(out[4:])
	binary.LittleEndian.PutUint32(out[0:4], crc)

	return out
}

// Decode reads one Record from the front of src, returning the number of
// bytes consumed. ErrTorn signals a record that was only partially
// written (truncated buffer or CRC mismatch); callers treat it as the
// end of a valid WAL rather than a fatal error.
func Decode(src []byte) (Record, int, error) {
	if len(src) < headerSize {
		return Record{}, 0, ErrTorn
	}

	wantCRC := binary.LittleEndian.Uint32(src[0:4])
	totalLen := binary.LittleEndian.Uint32(src[4:8])

	if uint64(8)+uint64(totalLen) > uint64(len(src)) {
		return Record{}, 0, ErrTorn
	}

	end := 8 + int(totalLen)
	if crc32.ChecksumIEEE(src[4:end]) != wantCRC {
		return Record{}, 0, ErrTorn
	}

	keyLen := binary.LittleEndian.Uint32(src[8:12])
	pos := 12
	if uint64(pos)+uint64(keyLen) > uint64(end) {
		return Record{}, 0, ErrTorn
	}

	key := make([]byte, keyLen)
	copy(key, src[pos:pos+int(keyLen)])
	pos += int(keyLen)

	value, n, err := record.Decode(src[pos:end])
	if err != nil {
		return Record{}, 0, fmt.Errorf("%w: %v", ErrTorn, err)
	}
	if pos+n != end {
		return Record{}, 0, ErrTorn
	}

	return Record{Key: key, Value: value}, end, nil
}
