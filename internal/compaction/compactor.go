package compaction

import (
	"fmt"
	"path/filepath"

	"github.com/ignitedb/ignite/internal/manifest"
	"github.com/ignitedb/ignite/internal/sstable"
)

// SSTPath returns the on-disk path for an SST file, the
// sst/<level>/<sst_id>.sst layout shared by the compactor, the flush
// path, and the engine's reader cache.
func SSTPath(sstDir string, level int, fileID uint64) string {
	return filepath.Join(sstDir, fmt.Sprintf("%d", level), fmt.Sprintf("%020d.sst", fileID))
}

// Compactor merges the SSTs of one level with the overlapping files of
// the level below it, writing the result as new SSTs one level deeper
// and committing the change as a single run of manifest edits.
type Compactor struct {
	sstDir       string
	man          *manifest.Manifest
	fanout       int
	l0Trigger    int
	maxFileBytes int64
}

// NewCompactor builds a Compactor rooted at sstDir, triggering on the
// same fanout/l0Trigger budget PickTrigger uses and splitting output
// files once they pass maxFileBytes.
func NewCompactor(sstDir string, man *manifest.Manifest, fanout, l0Trigger int, maxFileBytes int64) *Compactor {
	return &Compactor{sstDir: sstDir, man: man, fanout: fanout, l0Trigger: l0Trigger, maxFileBytes: maxFileBytes}
}

// PickTrigger reports the lowest level due for compaction, if any.
func (c *Compactor) PickTrigger() (level int, ok bool) {
	return PickTrigger(c.man.View(), c.fanout, c.l0Trigger)
}

// ObsoleteFile identifies one input SST a completed Run has removed from
// the manifest, by the same (level, fileID) pair the engine's reader
// cache is keyed on — not a path, so the caller can evict the cache
// entry without re-deriving its key by parsing a filename.
type ObsoleteFile struct {
	Level  int
	FileID uint64
}

// Result describes what a completed Run changed, so the caller (the
// engine) can decide when it's safe to unlink the inputs: an SST file
// that still has live readers checked out of the engine's handle cache
// must stay on disk until those readers close, even though the manifest
// no longer lists it as live.
type Result struct {
	ObsoleteInputs []ObsoleteFile
}

// Run compacts level with the overlapping files of level+1, writing new
// SSTs at level+1 and committing the change to the manifest. It does not
// delete the input files itself — Result.ObsoleteInputs identifies them
// so the caller can evict them from its reader cache and remove them
// once no outstanding SST reader still holds one open.
func (c *Compactor) Run(level int) (Result, error) {
	state := c.man.View()
	inputLevel, inputNext := selectInputs(state, level)
	if len(inputLevel) == 0 {
		return Result{}, nil
	}
	dropTombstones := deepestLevel(state, level+1)

	var sources []Source
	var readers []*sstable.Reader
	var obsolete []ObsoleteFile

	closeReaders := func() {
		for _, r := range readers {
			r.Close()
		}
	}

	for _, f := range inputLevel {
		path := SSTPath(c.sstDir, level, f.FileID)
		r, err := sstable.Open(path)
		if err != nil {
			closeReaders()
			return Result{}, err
		}
		readers = append(readers, r)
		sources = append(sources, Source{Iter: r.NewIterator(nil, nil), Level: level, FileID: f.FileID})
		obsolete = append(obsolete, ObsoleteFile{Level: level, FileID: f.FileID})
	}
	for _, f := range inputNext {
		path := SSTPath(c.sstDir, level+1, f.FileID)
		r, err := sstable.Open(path)
		if err != nil {
			closeReaders()
			return Result{}, err
		}
		readers = append(readers, r)
		sources = append(sources, Source{Iter: r.NewIterator(nil, nil), Level: level + 1, FileID: f.FileID})
		obsolete = append(obsolete, ObsoleteFile{Level: level + 1, FileID: f.FileID})
	}
	defer closeReaders()

	targetLevel := level + 1

	mi := NewMergeIterator(sources)
	defer mi.Close()

	type output struct {
		id uint64
		w  *sstable.Writer
	}
	var outputs []output
	var cur *output
	var curBytes int64

	openNew := func() error {
		id := c.man.AllocFileID()
		path := SSTPath(c.sstDir, targetLevel, id)
		w, err := sstable.NewWriter(path, 1024)
		if err != nil {
			return err
		}
		outputs = append(outputs, output{id: id, w: w})
		cur = &outputs[len(outputs)-1]
		curBytes = 0
		return nil
	}

	abortAll := func() {
		for _, o := range outputs {
			o.w.Abort()
		}
	}

	for mi.Next() {
		v := mi.Value()
		if v.IsTombstone() && dropTombstones {
			continue
		}
		if cur == nil {
			if err := openNew(); err != nil {
				abortAll()
				return Result{}, err
			}
		}
		if err := cur.w.Add(mi.Key(), v); err != nil {
			abortAll()
			return Result{}, err
		}
		curBytes += int64(len(mi.Key()) + v.Size())
		if curBytes >= c.maxFileBytes {
			if err := cur.w.Finish(); err != nil {
				abortAll()
				return Result{}, err
			}
			cur = nil
		}
	}
	if cur != nil {
		if cur.w.Empty() {
			cur.w.Abort()
			outputs = outputs[:len(outputs)-1]
		} else if err := cur.w.Finish(); err != nil {
			abortAll()
			return Result{}, err
		}
	}

	// Inputs that produced no surviving output (every key was a dropped
	// tombstone) are still correctly removed below — an empty merge is a
	// valid compaction outcome, not an error.

	for _, o := range outputs {
		edit := manifest.Edit{
			Kind:   manifest.EditAddSST,
			Level:  targetLevel,
			FileID: o.id,
			MinKey: o.w.MinKey(),
			MaxKey: o.w.MaxKey(),
		}
		if err := c.man.Apply(edit); err != nil {
			return Result{}, err
		}
	}
	for _, f := range inputLevel {
		if err := c.man.Apply(manifest.Edit{Kind: manifest.EditRemoveSST, Level: level, FileID: f.FileID}); err != nil {
			return Result{}, err
		}
	}
	for _, f := range inputNext {
		if err := c.man.Apply(manifest.Edit{Kind: manifest.EditRemoveSST, Level: targetLevel, FileID: f.FileID}); err != nil {
			return Result{}, err
		}
	}

	return Result{ObsoleteInputs: obsolete}, nil
}
