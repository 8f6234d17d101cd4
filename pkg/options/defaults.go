package options

import "time"

const (
	// Specifies the default base directory where IgniteDB will store its data files.
	DefaultDataDir = "/var/lib/ignitedb"

	// Defines the default time duration between automatic compaction sweeps.
	DefaultCompactInterval = time.Hour * 5

	// Represents the minimum allowed size for a value-log segment (4MB).
	MinSegmentSize uint64 = 4 * 1024 * 1024

	// Represents the maximum allowed size for a value-log segment (4GB).
	MaxSegmentSize uint64 = 4 * 1024 * 1024 * 1024

	// Specifies the default target size for a value-log segment (128MB).
	DefaultSegmentSize uint64 = 128 * 1024 * 1024

	// Specifies the default subdirectory for value-log segment files.
	DefaultSegmentDirectory = "vlog"

	// Defines the default prefix for value-log segment file names.
	DefaultSegmentPrefix = "segment"

	// DefaultMemtableMaxBytes is the default flush threshold (16MiB).
	DefaultMemtableMaxBytes uint64 = 16 * 1024 * 1024

	// DefaultSSTMaxBytes is the default per-file output cap (64MiB).
	DefaultSSTMaxBytes uint64 = 64 * 1024 * 1024

	// DefaultInlineValueMaxBytes is the default inline/vlog threshold.
	DefaultInlineValueMaxBytes uint32 = 128

	// DefaultLevelFanout is the default per-level size ratio.
	DefaultLevelFanout = 10

	// DefaultL0FileTrigger is the default L0->L1 compaction trigger.
	DefaultL0FileTrigger = 4

	// DefaultVlogGCDeadRatio is the default dead-byte fraction GC trigger.
	DefaultVlogGCDeadRatio = 0.5

	// DefaultVlogGCByteCeiling is the default aggregate sealed-byte GC trigger (1GiB).
	DefaultVlogGCByteCeiling uint64 = 1 * 1024 * 1024 * 1024

	// DefaultSyncWrites controls whether every write syncs the WAL.
	DefaultSyncWrites = true

	// DefaultSyncInterval is the periodic sync tick when SyncWrites=false.
	DefaultSyncInterval = time.Second

	// DefaultBlockCompression controls whether blocks are flate-compressed.
	DefaultBlockCompression = false
)

// NewDefaultOptions returns the fully populated default configuration.
func NewDefaultOptions() Options {
	return Options{
		DataDir:         DefaultDataDir,
		CompactInterval: DefaultCompactInterval,
		SegmentOptions: &segmentOptions{
			Size:      DefaultSegmentSize,
			Prefix:    DefaultSegmentPrefix,
			Directory: DefaultSegmentDirectory,
		},
		MemtableMaxBytes:    DefaultMemtableMaxBytes,
		SSTMaxBytes:         DefaultSSTMaxBytes,
		InlineValueMaxBytes: DefaultInlineValueMaxBytes,
		LevelFanout:         DefaultLevelFanout,
		L0FileTrigger:       DefaultL0FileTrigger,
		VlogGCDeadRatio:     DefaultVlogGCDeadRatio,
		VlogGCByteCeiling:   DefaultVlogGCByteCeiling,
		SyncWrites:          DefaultSyncWrites,
		SyncInterval:        DefaultSyncInterval,
		BlockCompression:    DefaultBlockCompression,
		BackgroundWorkers:   defaultBackgroundWorkers(),
	}
}
