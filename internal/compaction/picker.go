package compaction

import (
	"github.com/ignitedb/ignite/internal/manifest"
	"github.com/ignitedb/ignite/internal/record"
)

// PickTrigger inspects state and returns the lowest level that needs
// compacting, if any. L0 (files may overlap each other) triggers once
// its file count reaches l0Trigger; every level below triggers once its
// file count exceeds fanout, approximating the classic per-level size
// ratio with a file-count budget — appropriate for an embedded store
// where the compactor has no separate stats pass computing per-level
// byte totals ahead of a compaction decision.
func PickTrigger(state manifest.State, fanout, l0Trigger int) (level int, ok bool) {
	if len(state.Levels) > 0 && len(state.Levels[0]) >= l0Trigger {
		return 0, true
	}
	for i := 1; i < len(state.Levels); i++ {
		if len(state.Levels[i]) > fanout {
			return i, true
		}
	}
	return 0, false
}

// selectInputs returns the manifest file metadata a compaction of level
// should merge: every file at level (L0's files can overlap each other,
// so all of them participate whenever L0 triggers; L_i, i>=1, are
// disjoint so only overlap-selection matters there too, but taking all
// of them is still correct, just coarser) plus every file at level+1
// whose key range overlaps the combined range of the level's inputs.
func selectInputs(state manifest.State, level int) (inputLevel, inputNext []manifest.FileMeta) {
	if level >= len(state.Levels) {
		return nil, nil
	}
	inputLevel = append([]manifest.FileMeta(nil), state.Levels[level]...)
	if len(inputLevel) == 0 {
		return nil, nil
	}

	var lo, hi []byte
	for _, f := range inputLevel {
		if lo == nil || record.Compare(f.MinKey, lo) < 0 {
			lo = f.MinKey
		}
		if hi == nil || record.Compare(hi, f.MaxKey) < 0 {
			hi = f.MaxKey
		}
	}

	// Overlaps treats its hi bound as exclusive; append a zero byte so
	// the inclusive upper key hi itself still counts as in range.
	next := level + 1
	if next < len(state.Levels) {
		hiExclusive := append(append([]byte(nil), hi...), 0)
		for _, f := range state.Levels[next] {
			if f.Overlaps(lo, hiExclusive) {
				inputNext = append(inputNext, f)
			}
		}
	}

	return inputLevel, inputNext
}

// deepestLevel reports whether target is the last level holding any
// data beyond it, the condition under which a compaction writing into
// target may safely drop tombstones: no older SST outside this
// compaction's input set can still shadow the deleted key.
func deepestLevel(state manifest.State, target int) bool {
	for lv := target + 1; lv < len(state.Levels); lv++ {
		if len(state.Levels[lv]) > 0 {
			return false
		}
	}
	return true
}
