package gc

import (
	"testing"

	"github.com/ignitedb/ignite/internal/record"
	"github.com/ignitedb/ignite/internal/vlog"
)

type fakeIndex struct {
	live map[string]record.Pointer
}

func (f fakeIndex) Lookup(key []byte) (record.Pointer, bool) {
	ptr, ok := f.live[string(key)]
	return ptr, ok
}

func TestScanSegmentClassifiesLiveAndDead(t *testing.T) {
	dir := t.TempDir()
	mgr, err := vlog.Open(dir, 1<<20)
	if err != nil {
		t.Fatal(err)
	}
	defer mgr.Close()

	ptrA, _, err := mgr.Append([]byte("a"), []byte("alive-value"))
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := mgr.Append([]byte("b"), []byte("overwritten-elsewhere")); err != nil {
		t.Fatal(err)
	}

	if err := mgr.Rotate(); err != nil {
		t.Fatal(err)
	}

	sealed := mgr.SealedSegments()
	if len(sealed) != 1 {
		t.Fatalf("expected one sealed segment, got %d", len(sealed))
	}
	segID := sealed[0].ID

	idx := fakeIndex{live: map[string]record.Pointer{"a": ptrA}}

	plan, err := ScanSegment(mgr, segID, idx)
	if err != nil {
		t.Fatal(err)
	}
	if len(plan.Proposals) != 1 || string(plan.Proposals[0].Key) != "a" {
		t.Fatalf("proposals = %+v, want exactly key \"a\"", plan.Proposals)
	}
	if plan.LiveBytes == 0 || plan.LiveBytes >= plan.TotalBytes {
		t.Fatalf("LiveBytes=%d TotalBytes=%d, want 0 < live < total", plan.LiveBytes, plan.TotalBytes)
	}
}

func TestCollectorPicksSegmentOverDeadRatio(t *testing.T) {
	dir := t.TempDir()
	mgr, err := vlog.Open(dir, 1<<20)
	if err != nil {
		t.Fatal(err)
	}
	defer mgr.Close()

	if _, _, err := mgr.Append([]byte("a"), []byte("dead")); err != nil {
		t.Fatal(err)
	}
	if _, _, err := mgr.Append([]byte("b"), []byte("also-dead")); err != nil {
		t.Fatal(err)
	}
	if err := mgr.Rotate(); err != nil {
		t.Fatal(err)
	}

	idx := fakeIndex{live: map[string]record.Pointer{}}
	c := NewCollector(mgr, idx, 1<<30, 0.5)

	plan, ok, err := c.PickSegment()
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatalf("expected a candidate segment (100%% dead)")
	}
	if len(plan.Proposals) != 0 {
		t.Fatalf("fully dead segment should have no proposals, got %d", len(plan.Proposals))
	}
}

func TestRelocateAppliesReapplyPerProposal(t *testing.T) {
	dir := t.TempDir()
	mgr, err := vlog.Open(dir, 1<<20)
	if err != nil {
		t.Fatal(err)
	}
	defer mgr.Close()

	proposals := []Proposal{
		{Key: []byte("a"), Value: []byte("va"), OldPointer: record.Pointer{SegmentID: 1, Offset: 0}},
		{Key: []byte("b"), Value: []byte("vb"), OldPointer: record.Pointer{SegmentID: 1, Offset: 100}},
	}

	var seen []AppliedProposal
	applied, err := Relocate(mgr, proposals, func(ap AppliedProposal) (bool, error) {
		seen = append(seen, ap)
		return string(ap.Key) == "a", nil
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(applied) != 2 {
		t.Fatalf("applied = %d, want 2", len(applied))
	}
	if !applied[0].Accepted {
		t.Fatalf("proposal %q should have been accepted", applied[0].Key)
	}
	if applied[1].Accepted {
		t.Fatalf("proposal %q should have been rejected", applied[1].Key)
	}
	if applied[0].NewPointer == applied[1].NewPointer {
		t.Fatalf("expected distinct relocated offsets, got %+v and %+v", applied[0].NewPointer, applied[1].NewPointer)
	}
}
