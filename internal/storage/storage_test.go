package storage

import (
	"path/filepath"
	"testing"

	"github.com/ignitedb/ignite/internal/record"
	"github.com/ignitedb/ignite/pkg/logger"
)

func TestOpenCreatesDirAndListsGenerations(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "wal")
	w, err := Open(&Config{Dir: dir, Ext: ".log", Logger: logger.Nop()})
	if err != nil {
		t.Fatal(err)
	}

	ids, err := w.Generations()
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 0 {
		t.Fatalf("expected no generations in a fresh directory, got %v", ids)
	}

	writer, err := w.OpenWriter(3, true)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := writer.Append([]byte("k"), record.FromInline([]byte("v"), 1)); err != nil {
		t.Fatal(err)
	}
	if err := writer.Close(); err != nil {
		t.Fatal(err)
	}

	ids, err = w.Generations()
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 1 || ids[0] != 3 {
		t.Fatalf("Generations() = %v, want [3]", ids)
	}
}

func TestRemoveDeletesGenerationFile(t *testing.T) {
	dir := t.TempDir()
	w, err := Open(&Config{Dir: dir, Ext: ".log", Logger: logger.Nop()})
	if err != nil {
		t.Fatal(err)
	}

	writer, err := w.OpenWriter(1, true)
	if err != nil {
		t.Fatal(err)
	}
	writer.Close()

	if err := w.Remove(1); err != nil {
		t.Fatal(err)
	}
	ids, err := w.Generations()
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 0 {
		t.Fatalf("expected generation removed, got %v", ids)
	}

	// Removing an already-removed generation is a no-op, not an error.
	if err := w.Remove(1); err != nil {
		t.Fatalf("Remove of missing generation should not error, got %v", err)
	}
}
