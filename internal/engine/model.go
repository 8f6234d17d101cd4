package engine

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/ignitedb/ignite/internal/compaction"
	"github.com/ignitedb/ignite/internal/gc"
	"github.com/ignitedb/ignite/internal/index"
	"github.com/ignitedb/ignite/internal/manifest"
	"github.com/ignitedb/ignite/internal/memtable"
	"github.com/ignitedb/ignite/internal/storage"
	"github.com/ignitedb/ignite/internal/vlog"
	"github.com/ignitedb/ignite/internal/walrec"
	"github.com/ignitedb/ignite/pkg/filesys"
	"github.com/ignitedb/ignite/pkg/metrics"
	"github.com/ignitedb/ignite/pkg/options"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// generation pairs a frozen (immutable) memtable with the WAL file it was
// built from; the pair is retired together once the memtable is durably
// flushed to an SST and the manifest's FlushRecord edit commits.
type generation struct {
	walID uint64
	mt    *memtable.Memtable
}

// Engine binds the write-ahead log, memtable, manifest, value log, SST
// reader cache, and the compaction/GC subsystems into one embedded
// store, binding storage and indexing together across a WiscKey-style
// key/value-separated LSM stack.
type Engine struct {
	log     *zap.SugaredLogger
	opts    *options.Options
	dataDir string
	closed  atomic.Bool

	dirLock *filesys.Lock
	wal     *storage.WALSet
	man     *manifest.Manifest
	vlogMgr *vlog.Manager
	readers *index.Cache
	comp    *compaction.Compactor
	gcColl  *gc.Collector
	metrics *metrics.Registry

	// writeMu serializes Put/Delete, WAL append, memtable freeze, and the
	// accounting that decides when a freeze is due.
	writeMu     sync.Mutex
	active      *memtable.Memtable
	activeWAL   *walrec.Writer
	activeWALID uint64
	frozen      []generation // oldest first, newest last

	seq atomic.Uint64

	jobs    chan job
	cancel  context.CancelFunc
	workers *errgroup.Group
}

// Config encapsulates the configuration parameters required to
// initialize an Engine. Metrics is optional; a nil Registry disables
// instrumentation without requiring callers to thread a no-op through.
type Config struct {
	Options *options.Options
	Logger  *zap.SugaredLogger
	Metrics *metrics.Registry
}

type jobKind int

const (
	jobFlush jobKind = iota
	jobCompact
	jobGC
)

type job struct {
	kind  jobKind
	level int // jobCompact
}

// ctxDone reports whether ctx has already been cancelled; Open uses it to
// fail fast on a cancelled context before doing any I/O.
func ctxDone(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}
