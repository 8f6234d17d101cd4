package vlog

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"sync"

	"github.com/ignitedb/ignite/internal/record"
)

const segmentExt = ".vlg"

var segmentNamePattern = regexp.MustCompile(`^(\d+)\.vlg$`)

func idToPath(dir string, id uint32) string {
	return filepath.Join(dir, fmt.Sprintf("%010d%s", id, segmentExt))
}

// Manager owns the set of value-log segments under one directory: the
// single Active segment writes go to, plus every Sealed or Draining
// segment still reachable by a live pointer. Rotation and directory
// scanning on open follow FlashLog's segmentmanager.DiskSegmentManager;
// the Active/Sealed/Draining lifecycle on top of it is this store's own.
type Manager struct {
	mu       sync.Mutex
	dir      string
	maxBytes int64
	active   *Segment
	sealed   map[uint32]*Segment
	nextID   uint32
}

// Open scans dir for existing segment files, reopens the highest-numbered
// one for appending, and reopens the rest read-only as Sealed. An empty
// or absent directory is initialized with a fresh segment 1.
func Open(dir string, maxBytes int64) (*Manager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var ids []uint32
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		m := segmentNamePattern.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		n, err := strconv.ParseUint(m[1], 10, 32)
		if err != nil {
			continue
		}
		ids = append(ids, uint32(n))
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	m := &Manager{dir: dir, maxBytes: maxBytes, sealed: make(map[uint32]*Segment)}

	if len(ids) == 0 {
		return m, m.rotateLocked()
	}

	for _, id := range ids[:len(ids)-1] {
		seg, err := openSegment(idToPath(dir, id), id, false)
		if err != nil {
			return nil, err
		}
		seg.setState(StateSealed)
		m.sealed[id] = seg
	}

	lastID := ids[len(ids)-1]
	seg, err := openSegment(idToPath(dir, lastID), lastID, true)
	if err != nil {
		return nil, err
	}
	m.active = seg
	m.nextID = lastID

	return m, nil
}

// rotateLocked seals the current active segment (if any) and opens a
// fresh one with the next id. Callers must hold m.mu.
func (m *Manager) rotateLocked() error {
	if m.active != nil {
		if err := m.active.sync(); err != nil {
			return err
		}
		m.active.setState(StateSealed)
		m.sealed[m.active.id] = m.active
	}

	m.nextID++
	seg, err := openSegment(idToPath(m.dir, m.nextID), m.nextID, true)
	if err != nil {
		return err
	}
	m.active = seg
	return nil
}

// Append writes (key, value) to the active segment, rotating to a new
// segment first if the write would cross maxBytes. maxBytes is a soft
// ceiling checked before the write, so one record is allowed to exceed it
// rather than being rejected outright. The second return value is the
// new active segment's id if this call rotated, or 0 if it didn't (valid
// segment ids start at 1); callers use it to durably record the rotation
// in the manifest's live vlog segment set.
func (m *Manager) Append(key, value []byte) (record.Pointer, uint32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var rotatedTo uint32
	if m.active.Size() > 0 && m.active.Size()+int64(len(key)+len(value)) > m.maxBytes {
		if err := m.rotateLocked(); err != nil {
			return record.Pointer{}, 0, err
		}
		rotatedTo = m.active.id
	}

	ptr, err := m.active.append(key, value)
	return ptr, rotatedTo, err
}

// Rotate forces a segment rotation regardless of size. The engine does
// not call it; tests use it to seal a segment on demand.
func (m *Manager) Rotate() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rotateLocked()
}

func (m *Manager) segment(id uint32) (*Segment, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active != nil && m.active.id == id {
		return m.active, true
	}
	seg, ok := m.sealed[id]
	return seg, ok
}

// Read resolves ptr to its stored value.
func (m *Manager) Read(ptr record.Pointer) ([]byte, error) {
	seg, ok := m.segment(ptr.SegmentID)
	if !ok {
		return nil, fmt.Errorf("vlog: unknown segment %d", ptr.SegmentID)
	}
	_, value, err := seg.readAt(int64(ptr.Offset))
	if err != nil {
		return nil, err
	}
	return value, nil
}

// SegmentInfo describes one sealed segment for the GC subsystem.
type SegmentInfo struct {
	ID    uint32
	Path  string
	Bytes int64
	State State
}

// SealedSegments returns info for every Sealed or Draining segment,
// the candidate set internal/gc picks reclaim targets from.
func (m *Manager) SealedSegments() []SegmentInfo {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]SegmentInfo, 0, len(m.sealed))
	for _, seg := range m.sealed {
		out = append(out, SegmentInfo{ID: seg.ID(), Path: seg.Path(), Bytes: seg.Size(), State: seg.State()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Scan walks every (offset, key, value) block of sealed segment id,
// used by GC to find candidates to rewrite.
func (m *Manager) Scan(id uint32, fn func(offset int64, key, value []byte) error) error {
	seg, ok := m.segment(id)
	if !ok {
		return fmt.Errorf("vlog: unknown segment %d", id)
	}
	return seg.scan(fn)
}

// MarkDraining transitions a Sealed segment to Draining, signaling that
// GC has started rewriting its live entries elsewhere.
func (m *Manager) MarkDraining(id uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	seg, ok := m.sealed[id]
	if !ok {
		return fmt.Errorf("vlog: unknown segment %d", id)
	}
	seg.setState(StateDraining)
	return nil
}

// Remove deletes a Draining segment's file once GC has rewritten and
// durably committed every still-live entry it held.
func (m *Manager) Remove(id uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	seg, ok := m.sealed[id]
	if !ok {
		return fmt.Errorf("vlog: unknown segment %d", id)
	}
	if err := seg.remove(); err != nil {
		return err
	}
	delete(m.sealed, id)
	return nil
}

// Close syncs and closes every open segment file.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var firstErr error
	if m.active != nil {
		if err := m.active.sync(); err != nil && firstErr == nil {
			firstErr = err
		}
		if err := m.active.close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	for _, seg := range m.sealed {
		if err := seg.close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// ActiveID returns the current active segment's id, used by the engine
// to tag new manifest entries with a rotation point.
func (m *Manager) ActiveID() uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active.id
}
