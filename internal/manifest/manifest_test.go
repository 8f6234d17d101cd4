package manifest

import (
	"os"
	"path/filepath"
	"testing"
)

func TestApplyAndViewReflectsEdits(t *testing.T) {
	dir := t.TempDir()
	m, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer m.Close()

	if err := m.Apply(Edit{Kind: EditAddSST, Level: 0, FileID: 1, MinKey: []byte("a"), MaxKey: []byte("m")}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if err := m.Apply(Edit{Kind: EditVlogRotate, SegmentID: 1}); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	view := m.View()
	if len(view.Levels) != 1 || len(view.Levels[0]) != 1 {
		t.Fatalf("view.Levels = %+v, want one file at L0", view.Levels)
	}
	if view.Levels[0][0].FileID != 1 {
		t.Fatalf("file id = %d, want 1", view.Levels[0][0].FileID)
	}
	if !view.VlogSegments[1] {
		t.Fatalf("segment 1 not marked live")
	}
	if view.NextFileID != 2 {
		t.Fatalf("NextFileID = %d, want 2", view.NextFileID)
	}
}

func TestRemoveSSTDropsFile(t *testing.T) {
	dir := t.TempDir()
	m, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer m.Close()

	_ = m.Apply(Edit{Kind: EditAddSST, Level: 1, FileID: 5, MinKey: []byte("a"), MaxKey: []byte("z")})
	_ = m.Apply(Edit{Kind: EditRemoveSST, Level: 1, FileID: 5})

	view := m.View()
	if len(view.Levels) > 1 && len(view.Levels[1]) != 0 {
		t.Fatalf("expected L1 empty after remove, got %+v", view.Levels[1])
	}
}

func TestReopenReplaysEditLog(t *testing.T) {
	dir := t.TempDir()
	m1, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	_ = m1.Apply(Edit{Kind: EditAddSST, Level: 0, FileID: 7, MinKey: []byte("a"), MaxKey: []byte("b")})
	_ = m1.Apply(Edit{Kind: EditVlogRotate, SegmentID: 3})
	if err := m1.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	m2, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer m2.Close()

	view := m2.View()
	if len(view.Levels) != 1 || len(view.Levels[0]) != 1 || view.Levels[0][0].FileID != 7 {
		t.Fatalf("replayed state missing file 7: %+v", view.Levels)
	}
	if !view.VlogSegments[3] {
		t.Fatalf("replayed state missing segment 3")
	}
}

func TestSnapshotThenReopen(t *testing.T) {
	dir := t.TempDir()
	m1, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	_ = m1.Apply(Edit{Kind: EditAddSST, Level: 2, FileID: 42, MinKey: []byte("k0"), MaxKey: []byte("k9")})
	if err := m1.Snapshot(); err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	_ = m1.Apply(Edit{Kind: EditVlogRotate, SegmentID: 9})
	if err := m1.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "MANIFEST.snapshot")); err != nil {
		t.Fatalf("expected snapshot file to exist: %v", err)
	}

	m2, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer m2.Close()

	view := m2.View()
	if len(view.Levels) < 3 || len(view.Levels[2]) != 1 || view.Levels[2][0].FileID != 42 {
		t.Fatalf("state from snapshot missing file 42: %+v", view.Levels)
	}
	if !view.VlogSegments[9] {
		t.Fatalf("edit applied after snapshot was lost")
	}
}

