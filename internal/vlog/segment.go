// Package vlog implements the value log: append-only segment files that
// hold the (key, value) tuples separated out of the SSTs, the WiscKey
// technique this store builds on. Segment rotation and naming follow
// FlashLog's segmentmanager/disk.go; the lifecycle states and the
// key-alongside-value payload are load-bearing additions a plain
// Bitcask-style segment doesn't need.
package vlog

import (
	"encoding/binary"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/ignitedb/ignite/internal/codec"
	"github.com/ignitedb/ignite/internal/record"
)

// State is a segment's position in the Active -> Sealed -> Draining ->
// removed lifecycle.
type State int32

const (
	// StateActive accepts new appends; at most one segment is Active.
	StateActive State = iota
	// StateSealed is read-only; still counted as live by the manifest.
	StateSealed
	// StateDraining is being rewritten by GC; still readable until the
	// rewrite commits and the segment is removed.
	StateDraining
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateSealed:
		return "sealed"
	case StateDraining:
		return "draining"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Segment is one vlog file: a sequence of codec blocks whose payload is
// key_len(4) | key | value. Storing the key alongside the value (not
// just the value) lets GC resolve a block's key and re-propose it
// against the live index without a side structure.
type Segment struct {
	id    uint32
	path  string
	f     *os.File
	state atomic.Int32
	// size is the current end-of-file write offset; only meaningful
	// while the segment is Active, when it grows with every Append.
	size atomic.Int64
}

func openSegment(path string, id uint32, forWrite bool) (*Segment, error) {
	flag := os.O_RDONLY
	if forWrite {
		flag = os.O_CREATE | os.O_RDWR
	}

	f, err := os.OpenFile(path, flag, 0o644)
	if err != nil {
		return nil, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	s := &Segment{id: id, path: path, f: f}
	s.size.Store(info.Size())
	if forWrite {
		s.state.Store(int32(StateActive))
	} else {
		s.state.Store(int32(StateSealed))
	}
	return s, nil
}

// ID returns the segment's numeric identifier, used in Pointer.SegmentID.
func (s *Segment) ID() uint32 { return s.id }

// Path returns the segment file's path on disk.
func (s *Segment) Path() string { return s.path }

// Size returns the segment's current byte length.
func (s *Segment) Size() int64 { return s.size.Load() }

// State returns the segment's current lifecycle state.
func (s *Segment) State() State { return State(s.state.Load()) }

func (s *Segment) setState(st State) { s.state.Store(int32(st)) }

// blockPayload builds the key_len(4) | key | value payload a vlog block
// carries; storing the key lets GC recover it from a raw block scan.
func blockPayload(key, value []byte) []byte {
	buf := make([]byte, 4+len(key)+len(value))
	binary.LittleEndian.PutUint32(buf[0:4], uint32(len(key)))
	copy(buf[4:], key)
	copy(buf[4+len(key):], value)
	return buf
}

func splitBlockPayload(payload []byte) (key, value []byte, err error) {
	if len(payload) < 4 {
		return nil, nil, fmt.Errorf("vlog: truncated block payload")
	}
	keyLen := binary.LittleEndian.Uint32(payload[0:4])
	if uint64(4)+uint64(keyLen) > uint64(len(payload)) {
		return nil, nil, fmt.Errorf("vlog: block payload key length overruns buffer")
	}
	key = payload[4 : 4+keyLen]
	value = payload[4+keyLen:]
	return key, value, nil
}

// append writes one block at the segment's current end-of-file offset
// and returns the Pointer addressing it. Only called on the Active
// segment, and only ever from the engine's single writer path, so no
// internal locking beyond the atomic size counter (read concurrently by
// Size()) is required.
func (s *Segment) append(key, value []byte) (record.Pointer, error) {
	block := codec.Encode(blockPayload(key, value), false)
	off := s.size.Load()

	if _, err := s.f.WriteAt(block, off); err != nil {
		return record.Pointer{}, err
	}
	s.size.Add(int64(len(block)))

	return record.Pointer{SegmentID: s.id, Offset: uint64(off), Length: uint32(len(block))}, nil
}

func (s *Segment) sync() error {
	return s.f.Sync()
}

// readAt reads and decodes the block at offset, returning its key and
// value. The stored Pointer.Length is not used for framing (the block's
// own length header is authoritative).
func (s *Segment) readAt(offset int64) (key, value []byte, err error) {
	block, err := codec.ReadBlockAt(s.f, offset)
	if err != nil {
		return nil, nil, err
	}
	payload, err := codec.Decode(block)
	if err != nil {
		return nil, nil, err
	}
	return splitBlockPayload(payload)
}

// scan calls fn for every (offset, key, value) block in the segment from
// the beginning, used by GC to walk a sealed segment. It stops at the
// first decode error, which for a sealed (never-appended-to-again-after-
// close) segment indicates true corruption rather than a torn tail.
func (s *Segment) scan(fn func(offset int64, key, value []byte) error) error {
	var offset int64
	limit := s.size.Load()

	for offset < limit {
		key, value, err := s.readAt(offset)
		if err != nil {
			return err
		}
		if err := fn(offset, key, value); err != nil {
			return err
		}
		// Recompute the block's on-disk length the same way append did,
		// by re-encoding the payload length rather than re-reading it.
		offset += int64(codec.Size(4 + len(key) + len(value)))
	}
	return nil
}

func (s *Segment) close() error {
	return s.f.Close()
}

func (s *Segment) remove() error {
	if err := s.f.Close(); err != nil && !os.IsNotExist(err) {
		return err
	}
	return os.Remove(s.path)
}
