package errors

import stdErrors "errors"

// Sentinel errors returned across the embedding boundary (pkg/ignite) and
// recognized with errors.Is by callers. Internal corruption/IO details are
// still available via errors.As on the wrapped *CorruptionError/*StorageError.
var (
	// ErrNotFound is not returned by Get, which reports an absent key
	// through its ok result instead. A value-log pointer to a segment that
	// no longer exists surfaces as the value log's own read error; it is
	// not converted to ErrNotFound or to a CorruptionError.
	ErrNotFound = stdErrors.New("ignite: key not found")

	// ErrAlreadyOpen is returned by Open when the directory's LOCK file is
	// already held.
	ErrAlreadyOpen = stdErrors.New("ignite: directory already open")

	// ErrShutdown is returned by any operation issued after Close.
	ErrShutdown = stdErrors.New("ignite: store is closed")
)
