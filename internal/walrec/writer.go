package walrec

import (
	"os"

	"github.com/ignitedb/ignite/internal/record"
)

// Writer appends Records to one WAL file, one per memtable generation.
// It is not safe for concurrent use; the engine serializes writes behind
// its single writer mutex, so Writer itself does no locking.
type Writer struct {
	f          *os.File
	syncWrites bool
	offset     int64
}

// OpenWriter opens (creating if absent) the WAL file at path for
// appending, positioned at the current end of the file. It does not
// truncate: after a torn-tail replay, the torn bytes stay in place until
// the caller calls Truncate with the offset Replay returned.
func OpenWriter(path string, syncWrites bool) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	return &Writer{f: f, syncWrites: syncWrites, offset: info.Size()}, nil
}

// Append encodes and appends one Record, syncing immediately when the
// writer was opened with syncWrites. Returns the byte offset the record
// was written at.
func (w *Writer) Append(key []byte, value record.ValueStatus) (int64, error) {
	buf := Encode(Record{Key: key, Value: value})

	off := w.offset
	if _, err := w.f.WriteAt(buf, off); err != nil {
		return 0, err
	}
	w.offset += int64(len(buf))

	if w.syncWrites {
		if err := w.f.Sync(); err != nil {
			return 0, err
		}
	}

	return off, nil
}

// Sync flushes the file to stable storage; callers on a periodic sync
// ticker (sync_writes=false) call this instead of syncing per-append.
func (w *Writer) Sync() error {
	return w.f.Sync()
}

// Truncate discards everything at or after offset, used to overwrite a
// torn tail discovered by Replay on reopen.
func (w *Writer) Truncate(offset int64) error {
	if err := w.f.Truncate(offset); err != nil {
		return err
	}
	w.offset = offset
	return nil
}

// Offset returns the current end-of-file write position.
func (w *Writer) Offset() int64 {
	return w.offset
}

// Close closes the underlying file. It does not sync; callers that need
// a durable close should Sync first.
func (w *Writer) Close() error {
	return w.f.Close()
}
