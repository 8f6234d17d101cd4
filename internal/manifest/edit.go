// Package manifest implements the level manifest: the append-only edit
// log plus periodic snapshot that is the single source of truth for
// which SST and value-log files currently constitute the database,
// Edit framing reuses internal/codec
// the same way every other on-disk file in this store does.
package manifest

import (
	"encoding/binary"
	"fmt"
)

// EditKind tags the variant carried by an Edit.
type EditKind uint8

const (
	// EditAddSST records a new SST published into a level.
	EditAddSST EditKind = iota
	// EditRemoveSST records an SST no longer live (compacted away).
	EditRemoveSST
	// EditVlogRotate records a new active value-log segment.
	EditVlogRotate
	// EditVlogRemove records a value-log segment fully reclaimed by GC.
	EditVlogRemove
	// EditFlushRecord records that a memtable generation was durably
	// flushed to an SST, letting WAL replay on open skip that generation.
	EditFlushRecord
)

func (k EditKind) String() string {
	switch k {
	case EditAddSST:
		return "add_sst"
	case EditRemoveSST:
		return "remove_sst"
	case EditVlogRotate:
		return "vlog_rotate"
	case EditVlogRemove:
		return "vlog_remove"
	case EditFlushRecord:
		return "flush_record"
	default:
		return fmt.Sprintf("edit(%d)", uint8(k))
	}
}

// Edit is a single durable state transition. Only the fields relevant to
// Kind are meaningful; this mirrors record.ValueStatus's tagged-variant
// shape rather than one struct per kind, since every edit is small and
// the manifest log is append-only (no in-place rewrites to worry about).
type Edit struct {
	Kind EditKind

	Level  int    // AddSST, RemoveSST
	FileID uint64 // AddSST, RemoveSST
	MinKey []byte // AddSST
	MaxKey []byte // AddSST

	SegmentID uint32 // VlogRotate, VlogRemove

	MemtableID uint64 // FlushRecord
}

// Encode serializes an Edit: kind(1) | level(4) | fileID(8) |
// minKeyLen(4) minKey | maxKeyLen(4) maxKey | segmentID(4) |
// memtableID(8). Unused fields for a given kind are still written as
// zero/empty so Decode doesn't need kind-conditional framing.
func Encode(e Edit) []byte {
	buf := make([]byte, 0, 1+4+8+4+len(e.MinKey)+4+len(e.MaxKey)+4+8)
	buf = append(buf, byte(e.Kind))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(e.Level))
	buf = binary.LittleEndian.AppendUint64(buf, e.FileID)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(e.MinKey)))
	buf = append(buf, e.MinKey...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(e.MaxKey)))
	buf = append(buf, e.MaxKey...)
	buf = binary.LittleEndian.AppendUint32(buf, e.SegmentID)
	buf = binary.LittleEndian.AppendUint64(buf, e.MemtableID)
	return buf
}

// Decode parses an Edit from buf, which must hold exactly one encoded
// edit (the caller's codec block framing already delimited it).
func Decode(buf []byte) (Edit, error) {
	if len(buf) < 1+4+8+4 {
		return Edit{}, fmt.Errorf("manifest: truncated edit")
	}

	var e Edit
	e.Kind = EditKind(buf[0])
	pos := 1

	e.Level = int(binary.LittleEndian.Uint32(buf[pos : pos+4]))
	pos += 4
	e.FileID = binary.LittleEndian.Uint64(buf[pos : pos+8])
	pos += 8

	minLen := int(binary.LittleEndian.Uint32(buf[pos : pos+4]))
	pos += 4
	if pos+minLen > len(buf) {
		return Edit{}, fmt.Errorf("manifest: truncated min key")
	}
	if minLen > 0 {
		e.MinKey = append([]byte(nil), buf[pos:pos+minLen]...)
	}
	pos += minLen

	if pos+4 > len(buf) {
		return Edit{}, fmt.Errorf("manifest: truncated edit")
	}
	maxLen := int(binary.LittleEndian.Uint32(buf[pos : pos+4]))
	pos += 4
	if pos+maxLen > len(buf) {
		return Edit{}, fmt.Errorf("manifest: truncated max key")
	}
	if maxLen > 0 {
		e.MaxKey = append([]byte(nil), buf[pos:pos+maxLen]...)
	}
	pos += maxLen

	if pos+4+8 > len(buf) {
		return Edit{}, fmt.Errorf("manifest: truncated edit tail")
	}
	e.SegmentID = binary.LittleEndian.Uint32(buf[pos : pos+4])
	pos += 4
	e.MemtableID = binary.LittleEndian.Uint64(buf[pos : pos+8])

	return e, nil
}
