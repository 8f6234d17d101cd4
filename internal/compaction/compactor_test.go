package compaction

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ignitedb/ignite/internal/manifest"
	"github.com/ignitedb/ignite/internal/record"
	"github.com/ignitedb/ignite/internal/sstable"
)

func writeSST(t *testing.T, path string, entries map[string]string) (minKey, maxKey []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	w, err := sstable.NewWriter(path, len(entries))
	if err != nil {
		t.Fatal(err)
	}
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	for i := 0; i < len(keys); i++ {
		for j := i + 1; j < len(keys); j++ {
			if keys[j] < keys[i] {
				keys[i], keys[j] = keys[j], keys[i]
			}
		}
	}
	for _, k := range keys {
		if err := w.Add([]byte(k), record.FromInline([]byte(entries[k]), 1)); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Finish(); err != nil {
		t.Fatal(err)
	}
	return w.MinKey(), w.MaxKey()
}

func TestCompactorMergesLevelIntoNext(t *testing.T) {
	dir := t.TempDir()
	sstDir := filepath.Join(dir, "sst")

	man, err := manifest.Open(filepath.Join(dir, "manifest"))
	if err != nil {
		t.Fatal(err)
	}
	defer man.Close()

	l0a := man.AllocFileID()
	minA, maxA := writeSST(t, SSTPath(sstDir, 0, l0a), map[string]string{"a": "fresh-a", "b": "fresh-b"})
	if err := man.Apply(manifest.Edit{Kind: manifest.EditAddSST, Level: 0, FileID: l0a, MinKey: minA, MaxKey: maxA}); err != nil {
		t.Fatal(err)
	}

	l1a := man.AllocFileID()
	minB, maxB := writeSST(t, SSTPath(sstDir, 1, l1a), map[string]string{"a": "stale-a", "c": "stale-c"})
	if err := man.Apply(manifest.Edit{Kind: manifest.EditAddSST, Level: 1, FileID: l1a, MinKey: minB, MaxKey: maxB}); err != nil {
		t.Fatal(err)
	}

	c := NewCompactor(sstDir, man, 4, 1, 1<<20)
	res, err := c.Run(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.ObsoleteInputs) != 2 {
		t.Fatalf("ObsoleteInputs = %v, want 2 entries", res.ObsoleteInputs)
	}

	state := man.View()
	if len(state.Levels[0]) != 0 {
		t.Fatalf("level 0 should be empty after compaction, got %v", state.Levels[0])
	}
	if len(state.Levels[1]) != 1 {
		t.Fatalf("level 1 should hold exactly one merged file, got %v", state.Levels[1])
	}

	out := state.Levels[1][0]
	r, err := sstable.Open(SSTPath(sstDir, 1, out.FileID))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	want := map[string]string{"a": "fresh-a", "b": "fresh-b", "c": "stale-c"}
	for k, v := range want {
		got, ok, err := r.Get([]byte(k))
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			t.Fatalf("key %q missing from compacted output", k)
		}
		if string(got.Inline) != v {
			t.Fatalf("key %q = %q, want %q", k, got.Inline, v)
		}
	}
}

func TestCompactorDropsTombstonesAtDeepestLevel(t *testing.T) {
	dir := t.TempDir()
	sstDir := filepath.Join(dir, "sst")

	man, err := manifest.Open(filepath.Join(dir, "manifest"))
	if err != nil {
		t.Fatal(err)
	}
	defer man.Close()

	id := man.AllocFileID()
	path := SSTPath(sstDir, 0, id)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	w, err := sstable.NewWriter(path, 2)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Add([]byte("a"), record.FromInline([]byte("alive"), 1)); err != nil {
		t.Fatal(err)
	}
	if err := w.Add([]byte("b"), record.Tombstone(2)); err != nil {
		t.Fatal(err)
	}
	if err := w.Finish(); err != nil {
		t.Fatal(err)
	}
	if err := man.Apply(manifest.Edit{Kind: manifest.EditAddSST, Level: 0, FileID: id, MinKey: []byte("a"), MaxKey: []byte("b")}); err != nil {
		t.Fatal(err)
	}

	c := NewCompactor(sstDir, man, 4, 1, 1<<20)
	if _, err := c.Run(0); err != nil {
		t.Fatal(err)
	}

	state := man.View()
	if len(state.Levels) < 2 || len(state.Levels[1]) != 1 {
		t.Fatalf("expected one output file at level 1, got %v", state.Levels)
	}
	r, err := sstable.Open(SSTPath(sstDir, 1, state.Levels[1][0].FileID))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	if _, ok, err := r.Get([]byte("b")); err != nil {
		t.Fatal(err)
	} else if ok {
		t.Fatalf("tombstone for %q should have been dropped at the deepest level", "b")
	}
	if _, ok, err := r.Get([]byte("a")); err != nil {
		t.Fatal(err)
	} else if !ok {
		t.Fatalf("live key %q should have survived compaction", "a")
	}
}

func TestPickTriggerOnL0FileCount(t *testing.T) {
	state := manifest.State{Levels: [][]manifest.FileMeta{
		{{FileID: 1}, {FileID: 2}},
	}}
	level, ok := PickTrigger(state, 4, 2)
	if !ok || level != 0 {
		t.Fatalf("PickTrigger = (%d, %v), want (0, true)", level, ok)
	}

	state = manifest.State{Levels: [][]manifest.FileMeta{
		{{FileID: 1}},
	}}
	if _, ok := PickTrigger(state, 4, 2); ok {
		t.Fatalf("PickTrigger should not trigger below l0Trigger")
	}
}
