package index

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/ignitedb/ignite/internal/record"
	"github.com/ignitedb/ignite/internal/sstable"
	"github.com/ignitedb/ignite/pkg/logger"
)

func buildSST(t *testing.T, path string) {
	t.Helper()
	w, err := sstable.NewWriter(path, 16)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Add([]byte("a"), record.FromInline([]byte("1"), 1)); err != nil {
		t.Fatal(err)
	}
	if err := w.Finish(); err != nil {
		t.Fatal(err)
	}
}

func TestCacheAcquireReusesOpenReader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "1.sst")
	buildSST(t, path)

	c, err := New(context.Background(), &Config{SSTDir: dir, Logger: logger.Nop()})
	if err != nil {
		t.Fatal(err)
	}

	r1, err := c.Acquire(0, 1, path)
	if err != nil {
		t.Fatal(err)
	}
	r2, err := c.Acquire(0, 1, path)
	if err != nil {
		t.Fatal(err)
	}
	if r1 != r2 {
		t.Fatalf("expected the same *sstable.Reader instance on repeated Acquire")
	}

	c.Release(r1)
	c.Release(r2)
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestCacheEvictClosesOnceRefsDrain(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "1.sst")
	buildSST(t, path)

	c, err := New(context.Background(), &Config{SSTDir: dir, Logger: logger.Nop()})
	if err != nil {
		t.Fatal(err)
	}

	r, err := c.Acquire(0, 1, path)
	if err != nil {
		t.Fatal(err)
	}

	c.Evict(0, 1)

	// The reader is still alive for our outstanding handle.
	if _, _, err := r.Get([]byte("a")); err != nil {
		t.Fatalf("reader should remain usable until released: %v", err)
	}

	c.Release(r)

	// A second Acquire for the same (level, fileID) after eviction must
	// reopen the file rather than returning the closed reader.
	r2, err := c.Acquire(0, 1, path)
	if err != nil {
		t.Fatal(err)
	}
	if r2 == r {
		t.Fatalf("expected a fresh reader after eviction")
	}
	c.Release(r2)
	c.Close()
}
