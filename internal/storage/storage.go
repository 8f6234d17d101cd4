// Package storage manages the write-ahead log's on-disk generations: one
// file per memtable, discovered and named the same deterministic way
// internal/vlog names its segments. Bootstrapping follows the same shape
// as vlog's own segment manager — validate configuration, ensure the
// directory exists, discover what's already on disk — but the "one
// active segment, rotate by size"
// Bitcask model it used to implement doesn't fit a WAL whose rotation
// point is a memtable freeze rather than a byte ceiling, so the segment
// lifecycle itself (which generation is active, when to open the next
// one) now lives in internal/engine, which is the only component that
// knows when a freeze happened. WALSet is left owning exactly the part
// that doesn't need that knowledge: paths, discovery, and removal.
package storage

import (
	"os"
	"path/filepath"

	"github.com/ignitedb/ignite/internal/walrec"
	"github.com/ignitedb/ignite/pkg/errors"
	"github.com/ignitedb/ignite/pkg/filesys"
	"github.com/ignitedb/ignite/pkg/seginfo"
)

// Open validates config and ensures the WAL directory exists, returning
// a WALSet ready to list, open, and remove generations.
func Open(config *Config) (*WALSet, error) {
	if config == nil || config.Dir == "" || config.Logger == nil {
		return nil, errors.NewValidationError(
			nil, errors.ErrorCodeInvalidInput, "WAL set configuration is required",
		).WithField("config").WithRule("required").WithProvided(config)
	}

	ext := config.Ext
	if ext == "" {
		ext = ".log"
	}

	config.Logger.Infow("Preparing WAL directory", "dir", config.Dir)
	if err := filesys.CreateDir(config.Dir, 0o755, true); err != nil {
		return nil, errors.NewStorageError(
			err, errors.ErrorCodeIO, "Failed to create WAL directory",
		).WithPath(config.Dir).WithDetail("permission", "0755").WithDetail("forceCreate", true)
	}

	return &WALSet{dir: config.Dir, ext: ext, log: config.Logger}, nil
}

// Generations returns every WAL generation id found on disk, ascending —
// the order the engine must replay them in to reconstruct write history.
func (w *WALSet) Generations() ([]uint64, error) {
	ids, err := seginfo.ListSimpleSegments(w.dir, w.ext)
	if err != nil {
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "Failed to list WAL generations").WithPath(w.dir)
	}
	return ids, nil
}

// Path returns the on-disk path for WAL generation id.
func (w *WALSet) Path(id uint64) string {
	return filepath.Join(w.dir, seginfo.GenerateSimpleName(id, w.ext))
}

// OpenWriter opens (creating if absent) generation id for appending.
func (w *WALSet) OpenWriter(id uint64, syncWrites bool) (*walrec.Writer, error) {
	writer, err := walrec.OpenWriter(w.Path(id), syncWrites)
	if err != nil {
		return nil, errors.NewStorageError(
			err, errors.ErrorCodeIO, "Failed to open WAL generation",
		).WithPath(w.Path(id)).WithDetail("generation", id)
	}
	return writer, nil
}

// Remove deletes generation id's file, used once the engine has durably
// flushed that generation's memtable to an SST and committed the
// manifest's FlushRecord edit.
func (w *WALSet) Remove(id uint64) error {
	path := w.Path(id)
	w.log.Infow("Removing flushed WAL generation", "id", id, "path", path)

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "Failed to remove WAL generation").WithPath(path).WithDetail("generation", id)
	}
	return nil
}
