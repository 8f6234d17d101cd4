package walrec

import "errors"

// ErrTorn is returned by Decode when a record is truncated or fails its
// checksum. A torn record is expected at the tail of a WAL after a crash.
// Replay does not return ErrTorn: it stops at the first torn record and
// returns the offset where it stopped, whether or not more bytes follow.
var ErrTorn = errors.New("walrec: torn record")
