package errors

import stdErrors "errors"

// CorruptionError is a specialized error type for integrity failures
// detected anywhere in the storage stack: a block codec checksum
// mismatch, a dangling value-log pointer, or an SST/manifest structural
// inconsistency. It embeds baseError to inherit chaining and structured
// details, and adds the component/offset context needed to quarantine
// exactly the damaged file rather than the whole store.
type CorruptionError struct {
	*baseError
	component string // "wal" | "sst" | "vlog" | "manifest"
	path      string
	offset    int64
}

// NewCorruptionError creates a new corruption-specific error.
func NewCorruptionError(err error, code ErrorCode, msg string) *CorruptionError {
	return &CorruptionError{baseError: NewBaseError(err, code, msg)}
}

// WithComponent records which subsystem detected the corruption.
func (ce *CorruptionError) WithComponent(component string) *CorruptionError {
	ce.component = component
	return ce
}

// WithPath records which file was being read when the corruption was detected.
func (ce *CorruptionError) WithPath(path string) *CorruptionError {
	ce.path = path
	return ce
}

// WithOffset records the byte offset of the corrupt block.
func (ce *CorruptionError) WithOffset(offset int64) *CorruptionError {
	ce.offset = offset
	return ce
}

// Component returns which subsystem detected the corruption.
func (ce *CorruptionError) Component() string { return ce.component }

// Path returns the file path involved in the corruption.
func (ce *CorruptionError) Path() string { return ce.path }

// Offset returns the byte offset of the corrupt block.
func (ce *CorruptionError) Offset() int64 { return ce.offset }

// IsCorruptionError reports whether err is (or wraps) a CorruptionError.
func IsCorruptionError(err error) bool {
	var ce *CorruptionError
	return stdErrors.As(err, &ce)
}

// AsCorruptionError extracts a CorruptionError from err's chain, if present.
func AsCorruptionError(err error) (*CorruptionError, bool) {
	var ce *CorruptionError
	if stdErrors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
