package walrec

import "os"

// Replay scans the WAL file at path front-to-back, calling fn for every
// valid record in order. It stops at the first record that fails to
// decode (ErrTorn) rather than treating that as fatal — a torn tail is
// the expected shape of a WAL that was being appended to when the
// process crashed. Replay returns the byte offset of the last valid
// record boundary; a caller that reopens the file for appending passes
// this offset to Writer.Truncate first so the torn tail is overwritten
// rather than left as a hole. The engine never appends to a replayed
// generation, so it does not use the offset.
func Replay(path string, fn func(Record) error) (validLen int64, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	var offset int64
	for int(offset) < len(data) {
		rec, n, decErr := Decode(data[offset:])
		if decErr != nil {
			// Torn tail: everything up to offset already replayed.
			return offset, nil
		}

		if err := fn(rec); err != nil {
			return offset, err
		}

		offset += int64(n)
	}

	return offset, nil
}
