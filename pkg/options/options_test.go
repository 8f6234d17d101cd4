package options

import "testing"

func TestDefaultOptionsAreValid(t *testing.T) {
	o := NewDefaultOptions()

	if o.MemtableMaxBytes == 0 {
		t.Fatal("MemtableMaxBytes must be positive")
	}
	if o.SegmentOptions.Size < MinSegmentSize || o.SegmentOptions.Size > MaxSegmentSize {
		t.Fatalf("default segment size %d out of bounds", o.SegmentOptions.Size)
	}
	if o.LevelFanout < 2 {
		t.Fatalf("default level fanout must be >= 2, got %d", o.LevelFanout)
	}
	if o.BackgroundWorkers < 1 {
		t.Fatalf("default background workers must be >= 1, got %d", o.BackgroundWorkers)
	}
}

func TestOptionFuncsApplyOverDefaults(t *testing.T) {
	o := NewDefaultOptions()
	WithDataDir("/tmp/ignite-test")(&o)
	WithMemtableMaxBytes(1 << 20)(&o)
	WithSyncWrites(false)(&o)
	WithLevelFanout(1)(&o) // invalid, must be rejected

	if o.DataDir != "/tmp/ignite-test" {
		t.Fatalf("DataDir not applied: %q", o.DataDir)
	}
	if o.MemtableMaxBytes != 1<<20 {
		t.Fatalf("MemtableMaxBytes not applied: %d", o.MemtableMaxBytes)
	}
	if o.SyncWrites {
		t.Fatal("SyncWrites should be false")
	}
	if o.LevelFanout != DefaultLevelFanout {
		t.Fatalf("invalid LevelFanout should have been rejected, got %d", o.LevelFanout)
	}
}

func TestWithSegmentSizeRejectsOutOfRange(t *testing.T) {
	o := NewDefaultOptions()
	before := o.SegmentOptions.Size
	WithSegmentSize(MaxSegmentSize + 1)(&o)
	if o.SegmentOptions.Size != before {
		t.Fatalf("out-of-range segment size should have been rejected")
	}
}
