package filesys

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrAlreadyLocked is returned when a LOCK file in the target directory is
// already held by another process (or another open call within the same
// process).
var ErrAlreadyLocked = errors.New("directory is locked by another instance")

// Lock represents a held directory lock. Release drops the lock; calls
// after the first are no-ops that return nil.
type Lock struct {
	path string
	file *os.File
}

// AcquireLock creates (exclusively) a LOCK file inside dir, enforcing the
// single-writer-per-directory invariant the engine requires. It does not
// use flock(2): O_EXCL creation is portable across platforms without cgo
// and is sufficient because this engine never shares a directory across
// processes by design — the LOCK file only needs to catch the common
// mistake of opening the same directory twice.
func AcquireLock(dir string) (*Lock, error) {
	path := filepath.Join(dir, "LOCK")

	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		if os.IsExist(err) {
			return nil, ErrAlreadyLocked
		}
		return nil, fmt.Errorf("filesys: failed to acquire lock %s: %w", path, err)
	}

	return &Lock{path: path, file: file}, nil
}

// Release closes and removes the LOCK file, freeing the directory for a
// future Open.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}

	closeErr := l.file.Close()
	removeErr := os.Remove(l.path)
	l.file = nil

	if closeErr != nil {
		return closeErr
	}
	return removeErr
}
