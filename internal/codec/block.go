// Package codec implements the length-prefixed, checksummed block format
// shared by every on-disk file the engine writes: WAL records, SST data
// and index blocks, and value-log segments. A block is the atomic unit of
// I/O everywhere in the engine; the codec itself has no notion of what the
// payload bytes mean.
package codec

import (
	"bytes"
	"compress/flate"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
)

// Flag bits stored in the one-byte flags field of a block header.
const (
	flagCompressed byte = 1 << 0
)

// headerSize is length(4) + flags(1).
const headerSize = 5

// trailerSize is the trailing CRC32 checksum.
const trailerSize = 4

// ErrCorruption is returned when a block fails its integrity check.
var ErrCorruption = fmt.Errorf("codec: corrupt block")

// Encode frames payload into a block: length | flags | payload | crc32.
// The checksum covers the length and flags header plus the (possibly
// compressed) payload, so a torn write is caught even if only the header
// survives.
func Encode(payload []byte, compress bool) []byte {
	body := payload
	flags := byte(0)

	if compress {
		var buf bytes.Buffer
		zw, _ := flate.NewWriter(&buf, flate.DefaultCompression)
		_, _ = zw.Write(payload)
		_ = zw.Close()
		// Only keep the compressed form if it actually shrank the payload;
		// otherwise store raw to avoid paying flate's framing overhead on
		// incompressible data.
		if buf.Len() < len(payload) {
			body = buf.Bytes()
			flags |= flagCompressed
		}
	}

	block := make([]byte, headerSize+len(body)+trailerSize)
	binary.LittleEndian.PutUint32(block[0:4], uint32(len(body)))
	block[4] = flags
	copy(block[headerSize:], body)

	sum := crc32.ChecksumIEEE(block[:headerSize+len(body)])
	binary.LittleEndian.PutUint32(block[headerSize+len(body):], sum)

	return block
}

// Decode validates and unframes a block, returning the original payload.
func Decode(block []byte) ([]byte, error) {
	if len(block) < headerSize+trailerSize {
		return nil, ErrCorruption
	}

	length := binary.LittleEndian.Uint32(block[0:4])
	flags := block[4]

	if int(length) > len(block)-headerSize-trailerSize {
		return nil, ErrCorruption
	}

	body := block[headerSize : headerSize+int(length)]
	trailer := block[headerSize+int(length) : headerSize+int(length)+trailerSize]

	want := binary.LittleEndian.Uint32(trailer)
	got := crc32.ChecksumIEEE(block[:headerSize+int(length)])
	if want != got {
		return nil, ErrCorruption
	}

	if flags&flagCompressed == 0 {
		out := make([]byte, len(body))
		copy(out, body)
		return out, nil
	}

	zr := flate.NewReader(bytes.NewReader(body))
	defer zr.Close()
	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, ErrCorruption
	}
	return out, nil
}

// Size returns the on-disk size of the block that Encode would produce for
// a payload of the given length, assuming no compression. Callers use this
// to budget block sizes without actually encoding.
func Size(payloadLen int) int {
	return headerSize + payloadLen + trailerSize
}

// ReadBlockAt reads exactly one block starting at offset from r, first
// reading the 5-byte header to learn the payload length, then reading the
// whole block (header, body and trailer) again from offset in a single
// call, so a block read costs two I/Os: the header peek and the block.
func ReadBlockAt(r io.ReaderAt, offset int64) ([]byte, error) {
	hdr := make([]byte, headerSize)
	if _, err := r.ReadAt(hdr, offset); err != nil {
		return nil, err
	}

	length := binary.LittleEndian.Uint32(hdr[0:4])
	total := headerSize + int(length) + trailerSize

	block := make([]byte, total)
	if _, err := r.ReadAt(block, offset); err != nil {
		return nil, err
	}

	return block, nil
}
