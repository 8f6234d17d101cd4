// Package engine binds the write-ahead log, memtable, manifest, value
// log, and SST/compaction/GC subsystems into the single embedded store
// pkg/ignite exposes to callers. Open recovers from whatever the WAL and
// manifest left on disk, rebuilding memtable generations and the level
// structure from the durable state before accepting new writes.
package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ignitedb/ignite/internal/compaction"
	"github.com/ignitedb/ignite/internal/gc"
	"github.com/ignitedb/ignite/internal/index"
	"github.com/ignitedb/ignite/internal/manifest"
	"github.com/ignitedb/ignite/internal/memtable"
	"github.com/ignitedb/ignite/internal/record"
	"github.com/ignitedb/ignite/internal/storage"
	"github.com/ignitedb/ignite/internal/vlog"
	"github.com/ignitedb/ignite/internal/walrec"
	ignerrors "github.com/ignitedb/ignite/pkg/errors"
	"github.com/ignitedb/ignite/pkg/filesys"
	"github.com/ignitedb/ignite/pkg/seginfo"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrEngineClosed is returned when attempting to perform operations on a closed engine.
	ErrEngineClosed = ignerrors.ErrShutdown
)

const (
	walDirName  = "wal"
	sstDirName  = "sst"
	vlogDirName = "vlog"
)

// New validates config, opens (or recovers) every on-disk subsystem under
// config.Options.DataDir, and starts the background flush/compaction/GC
// worker pool.
func New(ctx context.Context, config *Config) (*Engine, error) {
	if config == nil || config.Options == nil || config.Logger == nil {
		return nil, ignerrors.NewValidationError(
			nil, ignerrors.ErrorCodeInvalidInput, "Engine configuration is required",
		).WithField("config").WithRule("required").WithProvided(config)
	}
	if ctxDone(ctx) {
		return nil, ctx.Err()
	}

	opts := config.Options
	log := config.Logger
	dataDir := opts.DataDir

	log.Infow("Opening ignite engine", "dataDir", dataDir)

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, ignerrors.NewStorageError(err, ignerrors.ErrorCodeIO, "Failed to create data directory").WithPath(dataDir)
	}

	dirLock, err := filesys.AcquireLock(dataDir)
	if err != nil {
		if errors.Is(err, filesys.ErrAlreadyLocked) {
			return nil, ignerrors.ErrAlreadyOpen
		}
		return nil, ignerrors.NewStorageError(err, ignerrors.ErrorCodeIO, "Failed to acquire directory lock").WithPath(dataDir)
	}

	man, err := manifest.Open(dataDir)
	if err != nil {
		dirLock.Release()
		return nil, ignerrors.NewStorageError(err, ignerrors.ErrorCodeIO, "Failed to open manifest").WithPath(dataDir)
	}

	vlogMgr, err := vlog.Open(filepath.Join(dataDir, vlogDirName), int64(opts.SegmentOptions.Size))
	if err != nil {
		man.Close()
		dirLock.Release()
		return nil, ignerrors.NewStorageError(err, ignerrors.ErrorCodeIO, "Failed to open value log").WithPath(dataDir)
	}

	wal, err := storage.Open(&storage.Config{Dir: filepath.Join(dataDir, walDirName), Ext: ".log", Logger: log})
	if err != nil {
		vlogMgr.Close()
		man.Close()
		dirLock.Release()
		return nil, err
	}

	readers, err := index.New(ctx, &index.Config{SSTDir: filepath.Join(dataDir, sstDirName), Logger: log})
	if err != nil {
		vlogMgr.Close()
		man.Close()
		dirLock.Release()
		return nil, err
	}

	if initialSegment := vlogMgr.ActiveID(); !man.View().VlogSegments[initialSegment] {
		if err := man.Apply(manifest.Edit{Kind: manifest.EditVlogRotate, SegmentID: initialSegment}); err != nil {
			readers.Close()
			vlogMgr.Close()
			man.Close()
			dirLock.Release()
			return nil, err
		}
	}

	e := &Engine{
		log:     log,
		opts:    opts,
		dataDir: dataDir,
		dirLock: dirLock,
		wal:     wal,
		man:     man,
		vlogMgr: vlogMgr,
		readers: readers,
		metrics: config.Metrics,
		comp: compaction.NewCompactor(
			filepath.Join(dataDir, sstDirName), man, opts.LevelFanout, opts.L0FileTrigger, int64(opts.SSTMaxBytes),
		),
		jobs: make(chan job, 32),
	}
	e.gcColl = gc.NewCollector(vlogMgr, engineLookup{e}, int64(opts.VlogGCByteCeiling), opts.VlogGCDeadRatio)

	if err := e.recover(); err != nil {
		man.Close()
		vlogMgr.Close()
		readers.Close()
		dirLock.Release()
		return nil, err
	}

	bgCtx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	group, gctx := errgroup.WithContext(bgCtx)
	e.workers = group

	n := opts.BackgroundWorkers
	if n < 1 {
		n = 1
	}
	for i := 0; i < n; i++ {
		group.Go(func() error {
			e.workerLoop(gctx)
			return nil
		})
	}
	group.Go(func() error {
		e.maintenanceLoop(gctx)
		return nil
	})
	if !opts.SyncWrites {
		group.Go(func() error {
			e.syncLoop(gctx)
			return nil
		})
	}

	log.Infow("Ignite engine opened", "dataDir", dataDir, "backgroundWorkers", n)
	return e, nil
}

// recover replays every WAL generation the manifest hasn't already
// accounted for via a FlushRecord edit, then opens a fresh active
// generation to write to.
func (e *Engine) recover() error {
	ids, err := e.wal.Generations()
	if err != nil {
		return err
	}

	view := e.man.View()
	nextID := view.NextMemtableID

	if err := e.sweepOrphanSSTs(view); err != nil {
		return err
	}

	for _, id := range ids {
		if id < view.NextMemtableID {
			// Already durably flushed; this generation's SST is already
			// in the manifest, so its WAL file is pure garbage.
			if err := e.wal.Remove(id); err != nil {
				return err
			}
			continue
		}

		mt := memtable.New()
		path := e.wal.Path(id)
		if _, err := walrec.Replay(path, func(r walrec.Record) error {
			mt.Put(r.Key, r.Value)
			return nil
		}); err != nil {
			return ignerrors.NewStorageError(err, ignerrors.ErrorCodeRecoveryFailed, "Failed to replay WAL generation").WithPath(path)
		}
		mt.Freeze()
		e.frozen = append(e.frozen, generation{walID: id, mt: mt})

		if id >= nextID {
			nextID = id + 1
		}
	}

	activeWAL, err := e.wal.OpenWriter(nextID, e.opts.SyncWrites)
	if err != nil {
		return err
	}
	e.active = memtable.New()
	e.activeWAL = activeWAL
	e.activeWALID = nextID

	for range e.frozen {
		e.enqueue(job{kind: jobFlush})
	}

	return nil
}

// sweepOrphanSSTs removes every SST file on disk whose id isn't reachable
// from view (the manifest state just replayed on open). These are files
// a crash left behind between "write the new SST" and "commit the
// manifest edit publishing it" — the edit never landed, so the file was
// never live and nothing will ever reference it.
func (e *Engine) sweepOrphanSSTs(view manifest.State) error {
	sstDir := filepath.Join(e.dataDir, sstDirName)
	entries, err := os.ReadDir(sstDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	live := view.LiveFileIDs()
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		level, err := strconv.Atoi(entry.Name())
		if err != nil {
			continue
		}

		levelDir := filepath.Join(sstDir, entry.Name())
		ids, err := seginfo.ListSimpleSegments(levelDir, ".sst")
		if err != nil {
			return err
		}
		for _, id := range ids {
			if live[id] {
				continue
			}
			path := compaction.SSTPath(sstDir, level, id)
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				return err
			}
			e.log.Infow("Removed orphan SST left by an incomplete flush or compaction", "level", level, "fileID", id)
		}
	}
	return nil
}

// Close stops background workers and closes every open subsystem. A
// second call is a no-op and returns nil.
func (e *Engine) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return nil
	}

	e.log.Infow("Closing ignite engine")

	e.cancel()
	close(e.jobs)
	e.workers.Wait()

	e.writeMu.Lock()
	var firstErr error
	if !e.opts.SyncWrites {
		if err := e.activeWAL.Sync(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := e.activeWAL.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	e.writeMu.Unlock()

	if err := e.man.Snapshot(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := e.man.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := e.vlogMgr.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := e.readers.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := e.dirLock.Release(); err != nil && firstErr == nil {
		firstErr = err
	}

	e.log.Infow("Ignite engine closed")
	return firstErr
}

// enqueue submits a background job without blocking the caller; a full
// queue drops the request. A dropped compaction or GC job is re-enqueued
// on the next maintenance tick; a dropped flush only on the next memtable
// freeze, whose flush job then takes the oldest pending generation.
func (e *Engine) enqueue(j job) {
	select {
	case e.jobs <- j:
	default:
		e.log.Debugw("Background job queue full, dropping request", "kind", j.kind)
	}
}

// engineLookup adapts Engine's read path to gc.IndexLookup without
// internal/gc importing internal/engine (which would cycle back, since
// Engine itself drives internal/gc).
type engineLookup struct{ e *Engine }

func (l engineLookup) Lookup(key []byte) (record.Pointer, bool) {
	vs, ok, err := l.e.lookup(key)
	if err != nil || !ok || vs.Kind != record.KindPointer {
		return record.Pointer{}, false
	}
	return vs.Pointer, true
}
