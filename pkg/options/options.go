// Package options provides data structures and functions for configuring
// the Ignite database. It defines every parameter that controls Ignite's
// write path, flush/compaction scheduling, value-log segmentation, and
// durability guarantees.
package options

import (
	"runtime"
	"strings"
	"time"
)

// Defines configurable parameters for value-log segments. The value log
// is the system's only segmented, append-only stream, so it keeps the
// teacher's original segment-naming vocabulary (directory + prefix +
// rotation size).
type segmentOptions struct {
	// Defines the maximum size a segment can grow to before rotation.
	// When a segment reaches this size, a new segment will be created.
	//
	//  - Default: 128MB
	//  - Maximum: 4GB
	//  - Minimum: 4MB
	Size uint64 `json:"maxSegmentSize"`

	// Names a directory for segment files, relative to DataDir. The
	// engine does not read it: segment files always live in DataDir/vlog.
	//
	// Default: "vlog"
	Directory string `json:"directory"`

	// Names a filename prefix for segment files. The engine does not read
	// it: segment files are always named `NNNNNNNNNN.vlg` (zero-padded id).
	//
	// Default: "segment"
	Prefix string `json:"prefix"`
}

// Defines the configuration parameters for Ignite DB.
// It provides control over storage, performance, and maintenance aspects.
type Options struct {
	// Specifies the base path where files will be stored.
	//
	// Default: "/var/lib/ignitedb"
	DataDir string `json:"dataDir"`

	// Defines how often the compaction process runs to
	// merge old segments. More frequent compaction means more
	// optimal storage but higher overhead.
	//
	// Default: 5h
	CompactInterval time.Duration `json:"compactInterval"`

	// Configures value-log segment management: size limits and naming.
	SegmentOptions *segmentOptions `json:"segmentOptions"`

	// MemtableMaxBytes is the accounting-byte threshold that triggers
	// freezing the active memtable and scheduling a flush to L0.
	//
	// Default: 16MiB
	MemtableMaxBytes uint64 `json:"memtableMaxBytes"`

	// SSTMaxBytes caps the size of a single SST file produced by a flush
	// or compaction; larger inputs are split across multiple output files.
	//
	// Default: 64MiB
	SSTMaxBytes uint64 `json:"sstMaxBytes"`

	// InlineValueMaxBytes is the threshold below which values are stored
	// directly in the index instead of the value log. Values exactly at
	// the threshold are always inlined (deterministic, per spec).
	//
	// Default: 128B
	InlineValueMaxBytes uint32 `json:"inlineValueMaxBytes"`

	// LevelFanout is the file-count budget of every level L_i (i >= 1): a
	// level compacts once it holds more than this many SST files. It is
	// the same for every level and does not scale by byte size.
	//
	// Default: 10
	LevelFanout int `json:"levelFanout"`

	// L0FileTrigger is the number of L0 files that triggers an L0->L1
	// compaction.
	//
	// Default: 4
	L0FileTrigger int `json:"l0FileTrigger"`

	// VlogGCDeadRatio is the fraction of dead bytes in a sealed segment
	// that triggers GC of that segment.
	//
	// Default: 0.5
	VlogGCDeadRatio float64 `json:"vlogGcDeadRatio"`

	// VlogGCByteCeiling is the aggregate sealed-segment byte count that
	// triggers a GC pass regardless of any single segment's dead ratio.
	//
	// Default: 1GiB
	VlogGCByteCeiling uint64 `json:"vlogGcByteCeiling"`

	// SyncWrites controls whether every Put/Delete syncs the WAL before
	// acknowledging. When false, sync is deferred to SyncInterval.
	//
	// Default: true
	SyncWrites bool `json:"syncWrites"`

	// SyncInterval is the periodic sync tick used when SyncWrites is
	// false.
	//
	// Default: 1s
	SyncInterval time.Duration `json:"syncInterval"`

	// BlockCompression enables the block codec's flate-based compression.
	//
	// Default: false
	BlockCompression bool `json:"blockCompression"`

	// BackgroundWorkers sizes the flush/compaction/GC worker pool.
	//
	// Default: min(4, GOMAXPROCS)
	BackgroundWorkers int `json:"backgroundWorkers"`
}

// OptionFunc is a function type that modifies the Ignite system's configuration.
type OptionFunc func(*Options)

// Applies a predefined set of default configuration values to the Options struct.
func WithDefaultOptions() OptionFunc {
	return func(o *Options) {
		opts := NewDefaultOptions()
		*o = opts
	}
}

// Sets the primary data directory for Ignite.
func WithDataDir(directory string) OptionFunc {
	return func(o *Options) {
		directory = strings.TrimSpace(directory)
		if directory != "" {
			o.DataDir = directory
		}
	}
}

// Sets the interval at which Ignite performs compaction operations.
func WithCompactInterval(interval time.Duration) OptionFunc {
	return func(o *Options) {
		if interval > 0 {
			o.CompactInterval = interval
		}
	}
}

// Sets the directory specifically for storing value-log segment files.
func WithSegmentDir(directory string) OptionFunc {
	return func(o *Options) {
		directory = strings.TrimSpace(directory)
		if directory != "" {
			o.SegmentOptions.Directory = directory
		}
	}
}

// Sets the file name prefix for value-log segment files.
func WithSegmentPrefix(prefix string) OptionFunc {
	return func(o *Options) {
		prefix = strings.TrimSpace(prefix)
		if prefix != "" {
			o.SegmentOptions.Prefix = prefix
		}
	}
}

// Sets the maximum size of individual value-log segment files.
func WithSegmentSize(size uint64) OptionFunc {
	return func(o *Options) {
		if size >= MinSegmentSize && size <= MaxSegmentSize {
			o.SegmentOptions.Size = size
		}
	}
}

// WithMemtableMaxBytes sets the flush threshold.
func WithMemtableMaxBytes(n uint64) OptionFunc {
	return func(o *Options) {
		if n > 0 {
			o.MemtableMaxBytes = n
		}
	}
}

// WithSSTMaxBytes sets the per-file output cap for flush/compaction.
func WithSSTMaxBytes(n uint64) OptionFunc {
	return func(o *Options) {
		if n > 0 {
			o.SSTMaxBytes = n
		}
	}
}

// WithInlineValueMaxBytes sets the inline/vlog threshold.
func WithInlineValueMaxBytes(n uint32) OptionFunc {
	return func(o *Options) {
		o.InlineValueMaxBytes = n
	}
}

// WithLevelFanout sets the per-level file-count budget.
func WithLevelFanout(n int) OptionFunc {
	return func(o *Options) {
		if n >= 2 {
			o.LevelFanout = n
		}
	}
}

// WithL0FileTrigger sets the L0->L1 compaction trigger.
func WithL0FileTrigger(n int) OptionFunc {
	return func(o *Options) {
		if n >= 1 {
			o.L0FileTrigger = n
		}
	}
}

// WithVlogGCDeadRatio sets the dead-byte fraction that triggers segment GC.
func WithVlogGCDeadRatio(ratio float64) OptionFunc {
	return func(o *Options) {
		if ratio > 0 && ratio <= 1 {
			o.VlogGCDeadRatio = ratio
		}
	}
}

// WithVlogGCByteCeiling sets the aggregate sealed-byte GC trigger.
func WithVlogGCByteCeiling(n uint64) OptionFunc {
	return func(o *Options) {
		if n > 0 {
			o.VlogGCByteCeiling = n
		}
	}
}

// WithSyncWrites toggles per-write WAL sync.
func WithSyncWrites(sync bool) OptionFunc {
	return func(o *Options) {
		o.SyncWrites = sync
	}
}

// WithSyncInterval sets the periodic sync tick used when SyncWrites=false.
func WithSyncInterval(d time.Duration) OptionFunc {
	return func(o *Options) {
		if d > 0 {
			o.SyncInterval = d
		}
	}
}

// WithBlockCompression toggles block codec compression.
func WithBlockCompression(enabled bool) OptionFunc {
	return func(o *Options) {
		o.BlockCompression = enabled
	}
}

// WithBackgroundWorkers sizes the background worker pool.
func WithBackgroundWorkers(n int) OptionFunc {
	return func(o *Options) {
		if n >= 1 {
			o.BackgroundWorkers = n
		}
	}
}

// defaultBackgroundWorkers mirrors min(4, GOMAXPROCS).
func defaultBackgroundWorkers() int {
	if n := runtime.GOMAXPROCS(0); n < 4 {
		return n
	}
	return 4
}
