// Package index caches open SST file readers for the engine's read path.
// Each live SST file (identified by the level and file id the manifest
// tracks it under) gets at most one *sstable.Reader open at a time,
// refcounted so a Get or range scan in flight against a reader keeps it
// alive even if compaction concurrently produces a replacement file and
// asks the cache to evict the old one.
package index

import (
	"context"
	stdErrors "errors"

	"github.com/ignitedb/ignite/internal/sstable"
	"github.com/ignitedb/ignite/pkg/errors"
)

var (
	ErrIndexClosed = stdErrors.New("operation failed: cannot access closed index")
)

// New creates an empty Cache ready to serve Acquire calls for the SST
// files under config.SSTDir.
func New(ctx context.Context, config *Config) (*Cache, error) {
	if config == nil || config.SSTDir == "" || config.Logger == nil {
		return nil, errors.NewValidationError(
			nil, errors.ErrorCodeInvalidInput, "Reader cache configuration is required",
		).WithField("config").WithRule("required").WithProvided(config)
	}

	return &Cache{
		sstDir:  config.SSTDir,
		log:     config.Logger,
		handles: make(map[handleKey]*sstable.Reader, 64),
	}, nil
}

// Acquire returns an open, Ref'd reader for the SST at (level, fileID),
// opening it on first use. Callers must Release the returned reader
// exactly once when finished with it.
func (c *Cache) Acquire(level int, fileID uint64, path string) (*sstable.Reader, error) {
	key := handleKey{level: level, fileID: fileID}

	c.mu.Lock()
	if r, ok := c.handles[key]; ok {
		r.Ref()
		c.mu.Unlock()
		return r, nil
	}
	c.mu.Unlock()

	r, err := sstable.Open(path)
	if err != nil {
		return nil, errors.NewStorageError(
			err, errors.ErrorCodeIO, "Failed to open SST file",
		).WithPath(path).WithSegmentID(int(fileID))
	}

	c.mu.Lock()
	if existing, ok := c.handles[key]; ok {
		// Lost a race opening the same file concurrently; keep the
		// winner, discard ours.
		c.mu.Unlock()
		r.Close()
		existing.Ref()
		return existing, nil
	}
	r.Ref()
	c.handles[key] = r
	c.mu.Unlock()

	return r, nil
}

// Release drops one reference on r. Callers must pair every Acquire with
// exactly one Release. If r has already been Evicted and this was the
// last outstanding reference, Release closes it.
func (c *Cache) Release(r *sstable.Reader) {
	if r.Unref() <= 0 {
		r.Close()
	}
}

// Evict removes (level, fileID) from the cache so future Acquire calls
// reopen it, and drops the cache's own reference — used once a
// compaction's manifest edit has committed and the input file is no
// longer live. The underlying file descriptor stays open until every
// in-flight caller also releases its reference.
func (c *Cache) Evict(level int, fileID uint64) {
	key := handleKey{level: level, fileID: fileID}

	c.mu.Lock()
	r, ok := c.handles[key]
	if ok {
		delete(c.handles, key)
	}
	c.mu.Unlock()

	if ok {
		if r.Unref() <= 0 {
			r.Close()
		}
	}
}

// Close evicts and closes every cached reader.
func (c *Cache) Close() error {
	c.mu.Lock()
	handles := c.handles
	c.handles = nil
	c.mu.Unlock()

	if handles == nil {
		return ErrIndexClosed
	}

	c.log.Infow("Closing SST reader cache", "openFiles", len(handles))
	var firstErr error
	for _, r := range handles {
		if err := r.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
