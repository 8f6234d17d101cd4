package manifest

import "github.com/ignitedb/ignite/internal/record"

// FileMeta describes one live SST: its id and key range, enough for the
// compactor and the engine's read path to prune files by range without
// opening them.
type FileMeta struct {
	FileID uint64
	MinKey []byte
	MaxKey []byte
}

// Overlaps reports whether [lo, hi) could contain any key in f's range.
// A nil lo/hi bound is treated as unbounded.
func (f FileMeta) Overlaps(lo, hi []byte) bool {
	if hi != nil && record.Compare(f.MinKey, hi) >= 0 {
		return false
	}
	if lo != nil && record.Compare(f.MaxKey, lo) < 0 {
		return false
	}
	return true
}

// State is the manifest's full in-memory view: which SSTs are live per
// level, which value-log segments are live, and the id counters new
// files are allocated from. It is rebuilt on open from a snapshot plus
// any edits appended after it, and copied out by View() for lock-light
// reads.
type State struct {
	Levels        [][]FileMeta
	VlogSegments  map[uint32]bool
	NextFileID    uint64
	NextMemtableID uint64
}

func newState() State {
	return State{VlogSegments: make(map[uint32]bool)}
}

// clone deep-copies the state so a View() snapshot is immune to later
// mutation by Apply.
func (s State) clone() State {
	out := State{
		NextFileID:     s.NextFileID,
		NextMemtableID: s.NextMemtableID,
		VlogSegments:   make(map[uint32]bool, len(s.VlogSegments)),
	}
	out.Levels = make([][]FileMeta, len(s.Levels))
	for i, level := range s.Levels {
		out.Levels[i] = append([]FileMeta(nil), level...)
	}
	for id, live := range s.VlogSegments {
		out.VlogSegments[id] = live
	}
	return out
}

func (s *State) ensureLevel(n int) {
	for len(s.Levels) <= n {
		s.Levels = append(s.Levels, nil)
	}
}

// apply mutates s in place per edit's kind. Called only after the edit
// has already been durably appended to the log.
func (s *State) apply(e Edit) {
	switch e.Kind {
	case EditAddSST:
		s.ensureLevel(e.Level)
		s.Levels[e.Level] = append(s.Levels[e.Level], FileMeta{FileID: e.FileID, MinKey: e.MinKey, MaxKey: e.MaxKey})
		if e.FileID >= s.NextFileID {
			s.NextFileID = e.FileID + 1
		}

	case EditRemoveSST:
		s.ensureLevel(e.Level)
		level := s.Levels[e.Level]
		for i, f := range level {
			if f.FileID == e.FileID {
				s.Levels[e.Level] = append(level[:i], level[i+1:]...)
				break
			}
		}

	case EditVlogRotate:
		s.VlogSegments[e.SegmentID] = true

	case EditVlogRemove:
		delete(s.VlogSegments, e.SegmentID)

	case EditFlushRecord:
		if e.MemtableID >= s.NextMemtableID {
			s.NextMemtableID = e.MemtableID + 1
		}
	}
}

// LiveFileIDs returns every SST file id reachable from the current
// state, across all levels, used on open to identify orphan files.
func (s State) LiveFileIDs() map[uint64]bool {
	out := make(map[uint64]bool)
	for _, level := range s.Levels {
		for _, f := range level {
			out[f.FileID] = true
		}
	}
	return out
}
