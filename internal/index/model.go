package index

import (
	"sync"

	"github.com/ignitedb/ignite/internal/sstable"
	"go.uber.org/zap"
)

// handleKey identifies an SST file by its level and file id — the two
// coordinates the manifest uses to name a file, and the same pair
// internal/compaction.SSTPath needs to resolve a path.
type handleKey struct {
	level  int
	fileID uint64
}

// Cache holds one open *sstable.Reader per live SST file, refcounted so a
// reader that's mid-iteration for some caller survives a concurrent Evict
// triggered by compaction replacing that file underneath it. It replaces
// the Bitcask key→disk-offset hash map this package used to hold: that
// exact responsibility — mapping a key to where its value lives — now
// belongs to the memtable/manifest/SST stack, and what the engine instead
// needs is a place to keep SST file handles open across repeated lookups
// without reopening them on every Get.
type Cache struct {
	sstDir string
	log    *zap.SugaredLogger

	mu      sync.Mutex
	handles map[handleKey]*sstable.Reader
}

// Config encapsulates the configuration parameters required to
// initialize a Cache.
type Config struct {
	SSTDir string             // Directory SST files live under (the sst/ subtree).
	Logger *zap.SugaredLogger // Structured logger for operational visibility.
}
