package engine

// LevelStats summarizes one manifest level's live SST population: the
// file count reportLevelStats also pushes to Prometheus (the byte totals
// it pushes are not included) — exposed here so pkg/ignite and
// cmd/ignitectl can print it without a metrics backend.
type LevelStats struct {
	Level int
	Files int
}

// Stats returns the current per-level file counts. The number of
// still-pending (not yet flushed) memtable generations is reported
// separately by PendingFlushes.
func (e *Engine) Stats() []LevelStats {
	view := e.man.View()
	out := make([]LevelStats, len(view.Levels))
	for level, files := range view.Levels {
		out[level] = LevelStats{Level: level, Files: len(files)}
	}
	return out
}

// PendingFlushes reports how many frozen memtable generations are
// awaiting a background flush.
func (e *Engine) PendingFlushes() int {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()
	return len(e.frozen)
}

// CompactLevel runs one compaction pass at level synchronously,
// bypassing the background scheduler — useful for an operator-triggered
// compaction via cmd/ignitectl rather than waiting for PickTrigger.
func (e *Engine) CompactLevel(level int) error {
	if e.closed.Load() {
		return ErrEngineClosed
	}
	return e.handleCompact(level)
}

// RunGC runs one value-log GC pass synchronously, bypassing the
// background scheduler.
func (e *Engine) RunGC() error {
	if e.closed.Load() {
		return ErrEngineClosed
	}
	return e.handleGC()
}
