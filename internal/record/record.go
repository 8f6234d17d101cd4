// Package record defines the per-key value representation shared by the
// memtable, WAL, and SST layers: ValueStatus, the tagged variant that
// distinguishes inline values, value-log pointers, and tombstones.
package record

import (
	"encoding/binary"
	"fmt"
)

// Kind tags the variant carried by a ValueStatus.
type Kind uint8

const (
	// KindInline means the value bytes are carried inside the entry itself.
	KindInline Kind = iota
	// KindPointer means the value lives in the value log.
	KindPointer
	// KindTombstone marks the key as deleted; dominates older versions.
	KindTombstone
)

func (k Kind) String() string {
	switch k {
	case KindInline:
		return "inline"
	case KindPointer:
		return "pointer"
	case KindTombstone:
		return "tombstone"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Pointer addresses a value stored in the value log.
type Pointer struct {
	SegmentID uint32
	Offset    uint64
	Length    uint32
}

// ValueStatus is the tagged variant stored per key in the memtable and SST
// layers. Seq is the write sequence number, recorded with every entry.
// Nothing orders entries by it: a memtable keeps one entry per key (the
// latest write replaces the earlier one), and merges pick the freshest
// of several entries for a key by level and file id alone.
type ValueStatus struct {
	Kind    Kind
	Inline  []byte
	Pointer Pointer
	Seq     uint64
}

// Tombstone builds a deletion marker for the given sequence number.
func Tombstone(seq uint64) ValueStatus {
	return ValueStatus{Kind: KindTombstone, Seq: seq}
}

// FromInline builds an inline ValueStatus.
func FromInline(value []byte, seq uint64) ValueStatus {
	return ValueStatus{Kind: KindInline, Inline: value, Seq: seq}
}

// FromPointer builds a pointer ValueStatus.
func FromPointer(ptr Pointer, seq uint64) ValueStatus {
	return ValueStatus{Kind: KindPointer, Pointer: ptr, Seq: seq}
}

// IsTombstone reports whether this entry represents a deletion.
func (v ValueStatus) IsTombstone() bool {
	return v.Kind == KindTombstone
}

// Size is the approximate in-memory/on-disk footprint of the ValueStatus,
// used by the memtable's accounting byte counter.
func (v ValueStatus) Size() int {
	switch v.Kind {
	case KindInline:
		return 1 + 8 + len(v.Inline)
	case KindPointer:
		return 1 + 8 + 4 + 8 + 4
	default:
		return 1 + 8
	}
}

// Encode serializes a ValueStatus into dst, returning the extended slice.
// Layout: kind(1) | seq(8) | <variant-specific>
//
//	inline:    len(4) bytes
//	pointer:   segmentID(4) offset(8) length(4)
//	tombstone: (nothing)
func Encode(dst []byte, v ValueStatus) []byte {
	dst = append(dst, byte(v.Kind))
	dst = binary.LittleEndian.AppendUint64(dst, v.Seq)

	switch v.Kind {
	case KindInline:
		dst = binary.LittleEndian.AppendUint32(dst, uint32(len(v.Inline)))
		dst = append(dst, v.Inline...)
	case KindPointer:
		dst = binary.LittleEndian.AppendUint32(dst, v.Pointer.SegmentID)
		dst = binary.LittleEndian.AppendUint64(dst, v.Pointer.Offset)
		dst = binary.LittleEndian.AppendUint32(dst, v.Pointer.Length)
	case KindTombstone:
		// no payload
	}

	return dst
}

// Decode reads a ValueStatus from the front of src, returning the number
// of bytes consumed.
func Decode(src []byte) (ValueStatus, int, error) {
	if len(src) < 9 {
		return ValueStatus{}, 0, fmt.Errorf("record: truncated value status")
	}

	kind := Kind(src[0])
	seq := binary.LittleEndian.Uint64(src[1:9])
	pos := 9

	switch kind {
	case KindInline:
		if len(src) < pos+4 {
			return ValueStatus{}, 0, fmt.Errorf("record: truncated inline length")
		}
		length := int(binary.LittleEndian.Uint32(src[pos : pos+4]))
		pos += 4
		if len(src) < pos+length {
			return ValueStatus{}, 0, fmt.Errorf("record: truncated inline value")
		}
		value := make([]byte, length)
		copy(value, src[pos:pos+length])
		pos += length
		return ValueStatus{Kind: KindInline, Inline: value, Seq: seq}, pos, nil

	case KindPointer:
		if len(src) < pos+16 {
			return ValueStatus{}, 0, fmt.Errorf("record: truncated pointer")
		}
		ptr := Pointer{
			SegmentID: binary.LittleEndian.Uint32(src[pos : pos+4]),
			Offset:    binary.LittleEndian.Uint64(src[pos+4 : pos+12]),
			Length:    binary.LittleEndian.Uint32(src[pos+12 : pos+16]),
		}
		pos += 16
		return ValueStatus{Kind: KindPointer, Pointer: ptr, Seq: seq}, pos, nil

	case KindTombstone:
		return ValueStatus{Kind: KindTombstone, Seq: seq}, pos, nil

	default:
		return ValueStatus{}, 0, fmt.Errorf("record: unknown kind %d", kind)
	}
}

// Entry pairs a key with its ValueStatus, the unit stored in memtables,
// SST data blocks, and replayed from the WAL.
type Entry struct {
	Key   []byte
	Value ValueStatus
}

// Less orders entries by key using unsigned lexicographic comparison, the
// total order used for all keys in the system.
func Less(a, b []byte) bool {
	return compareBytes(a, b) < 0
}

// Compare returns -1, 0, or 1 comparing a and b unsigned-lexicographically.
func Compare(a, b []byte) int {
	return compareBytes(a, b)
}

func compareBytes(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}
