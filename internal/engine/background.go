package engine

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ignitedb/ignite/internal/compaction"
	"github.com/ignitedb/ignite/internal/gc"
	"github.com/ignitedb/ignite/internal/manifest"
	"github.com/ignitedb/ignite/internal/record"
	"github.com/ignitedb/ignite/internal/sstable"
)

// workerLoop drains background jobs until the jobs channel is closed.
// Job errors are logged rather than returned: a failed flush, compaction,
// or GC pass leaves the offending generation/level/segment exactly as it
// was, instead of tearing down the whole engine over one bad pass. A
// failed compaction or GC pass is retried on the next maintenance tick; a
// failed flush is retried when the next memtable freeze enqueues a flush
// job, since the maintenance tick does not enqueue flushes.
func (e *Engine) workerLoop(ctx context.Context) {
	for j := range e.jobs {
		if ctxDone(ctx) {
			continue
		}

		start := time.Now()
		var err error
		var kind string
		switch j.kind {
		case jobFlush:
			kind = "flush"
			err = e.handleFlush()
		case jobCompact:
			kind = "compact"
			err = e.handleCompact(j.level)
		case jobGC:
			kind = "gc"
			err = e.handleGC()
		}
		e.metrics.ObserveBackground(kind, time.Since(start).Seconds(), err)
		if err != nil {
			e.log.Errorw("Background job failed", "kind", j.kind, "level", j.level, "error", err)
		}
	}
}

// maintenanceLoop periodically polls the compactor and GC collector for
// work that a foreground write didn't already trigger — a database that
// has gone quiet still needs its level structure and vlog compacted down.
func (e *Engine) maintenanceLoop(ctx context.Context) {
	ticker := time.NewTicker(e.opts.CompactInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if level, ok := e.comp.PickTrigger(); ok {
				e.enqueue(job{kind: jobCompact, level: level})
			}
			e.enqueue(job{kind: jobGC})
			e.reportLevelStats()
		}
	}
}

// reportLevelStats refreshes the per-level file/byte gauges and the
// sealed value-log byte gauge from the manifest's current view. It has
// no effect if the engine was built without a metrics.Registry.
func (e *Engine) reportLevelStats() {
	if e.metrics == nil {
		return
	}

	view := e.man.View()
	sstDir := filepath.Join(e.dataDir, sstDirName)
	for level, files := range view.Levels {
		var bytes int64
		for _, f := range files {
			if info, err := os.Stat(compaction.SSTPath(sstDir, level, f.FileID)); err == nil {
				bytes += info.Size()
			}
		}
		e.metrics.SetLevelStats(level, len(files), bytes)
	}

	var sealed int64
	for _, info := range e.vlogMgr.SealedSegments() {
		sealed += info.Bytes
	}
	e.metrics.SetVlogSealedBytes(sealed)
}

// syncLoop periodically syncs the active WAL generation when SyncWrites
// is false, bounding how much unsynced data a crash can lose to
// SyncInterval's worth of writes.
func (e *Engine) syncLoop(ctx context.Context) {
	ticker := time.NewTicker(e.opts.SyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.writeMu.Lock()
			if err := e.activeWAL.Sync(); err != nil {
				e.log.Errorw("Periodic WAL sync failed", "error", err)
			}
			e.writeMu.Unlock()
		}
	}
}

// handleFlush writes the oldest pending frozen generation out as an SST,
// durably records the flush in the manifest, retires the generation, and
// removes its now-redundant WAL file.
func (e *Engine) handleFlush() error {
	e.writeMu.Lock()
	if len(e.frozen) == 0 {
		e.writeMu.Unlock()
		return nil
	}
	gen := e.frozen[0]
	e.writeMu.Unlock()

	sstDir := filepath.Join(e.dataDir, sstDirName, "0")
	if err := os.MkdirAll(sstDir, 0o755); err != nil {
		return err
	}

	fileID := e.man.AllocFileID()
	path := compaction.SSTPath(filepath.Join(e.dataDir, sstDirName), 0, fileID)

	w, err := sstable.NewWriter(path, gen.mt.Len())
	if err != nil {
		return err
	}

	var writeErr error
	gen.mt.Entries(func(key []byte, value record.ValueStatus) bool {
		if writeErr = w.Add(key, value); writeErr != nil {
			return false
		}
		return true
	})
	if writeErr != nil {
		w.Abort()
		return writeErr
	}

	if w.Empty() {
		if err := w.Abort(); err != nil {
			return err
		}
	} else {
		if err := w.Finish(); err != nil {
			return err
		}
		if err := e.man.Apply(manifest.Edit{
			Kind:   manifest.EditAddSST,
			Level:  0,
			FileID: fileID,
			MinKey: w.MinKey(),
			MaxKey: w.MaxKey(),
		}); err != nil {
			return err
		}
	}

	if err := e.man.Apply(manifest.Edit{Kind: manifest.EditFlushRecord, MemtableID: gen.walID}); err != nil {
		return err
	}

	if err := e.wal.Remove(gen.walID); err != nil {
		e.log.Errorw("Failed to remove flushed WAL generation", "walID", gen.walID, "error", err)
	}

	e.writeMu.Lock()
	e.frozen = e.frozen[1:]
	e.writeMu.Unlock()

	if level, ok := e.comp.PickTrigger(); ok {
		e.enqueue(job{kind: jobCompact, level: level})
	}
	return nil
}

// handleCompact runs one compaction pass at level, then evicts and
// unlinks the inputs it obsoleted. Eviction happens after the manifest
// edit committing the new output files, so a crash between the two
// leaves the old inputs orphaned on disk rather than missing — an orphan
// is merely wasted space, a missing live file is data loss.
func (e *Engine) handleCompact(level int) error {
	sstDir := filepath.Join(e.dataDir, sstDirName)
	if err := os.MkdirAll(filepath.Join(sstDir, strconv.Itoa(level+1)), 0o755); err != nil {
		return err
	}

	res, err := e.comp.Run(level)
	if err != nil {
		return err
	}
	for _, obs := range res.ObsoleteInputs {
		e.readers.Evict(obs.Level, obs.FileID)
		path := compaction.SSTPath(sstDir, obs.Level, obs.FileID)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			e.log.Errorw("Failed to remove compacted SST", "path", path, "error", err)
		}
	}

	if next, ok := e.comp.PickTrigger(); ok {
		e.enqueue(job{kind: jobCompact, level: next})
	}
	return nil
}

// handleGC runs one value-log GC pass: pick the best sealed segment,
// relocate its still-live entries into the active segment, then drop the
// drained segment once every relocation attempt (accepted or not) has
// been durably reflected.
func (e *Engine) handleGC() error {
	plan, ok, err := e.gcColl.PickSegment()
	if err != nil || !ok {
		return err
	}

	applied, err := gc.Relocate(e.vlogMgr, plan.Proposals, e.reapplyRelocation, e.applyVlogRotate)
	if err != nil {
		return err
	}

	accepted, rejected := 0, 0
	for _, ap := range applied {
		if ap.Accepted {
			accepted++
		} else {
			rejected++
		}
	}
	e.log.Infow("Value log GC pass complete", "segment", plan.SegmentID, "accepted", accepted, "rejected", rejected)

	if err := e.vlogMgr.MarkDraining(plan.SegmentID); err != nil {
		return err
	}
	if err := e.man.Apply(manifest.Edit{Kind: manifest.EditVlogRemove, SegmentID: plan.SegmentID}); err != nil {
		return err
	}
	return e.vlogMgr.Remove(plan.SegmentID)
}

// reapplyRelocation is gc.Relocate's CAS-reapply callback: it commits a
// proposal's relocated pointer as a new write only if the key's current
// authoritative value still points at the exact (segment, offset) GC
// scanned. A concurrent foreground write that already overwrote or
// deleted the key wins the race and the relocation is simply dropped.
func (e *Engine) reapplyRelocation(ap gc.AppliedProposal) (bool, error) {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	cur, ok, err := e.lookupLayers(e.active, e.frozen, ap.Key)
	if err != nil {
		return false, err
	}
	if !ok || cur.Kind != record.KindPointer || cur.Pointer != ap.OldPointer {
		return false, nil
	}

	newSeq := e.seq.Add(1)
	newVS := record.FromPointer(ap.NewPointer, newSeq)

	if _, err := e.activeWAL.Append(ap.Key, newVS); err != nil {
		return false, err
	}
	e.active.Put(ap.Key, newVS)

	if uint64(e.active.SizeBytes()) >= e.opts.MemtableMaxBytes {
		if err := e.freezeLocked(); err != nil {
			return false, err
		}
	}

	return true, nil
}
