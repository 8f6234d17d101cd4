package codec

import (
	"bytes"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	payloads := [][]byte{
		nil,
		[]byte("a"),
		[]byte("hello world"),
		bytes.Repeat([]byte{0x42}, 4096),
	}

	for _, p := range payloads {
		for _, compress := range []bool{false, true} {
			block := Encode(p, compress)
			got, err := Decode(block)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if !bytes.Equal(got, p) && !(len(got) == 0 && len(p) == 0) {
				t.Fatalf("round trip mismatch: got %v want %v", got, p)
			}
		}
	}
}

func TestDecodeDetectsCorruption(t *testing.T) {
	block := Encode([]byte("payload"), false)
	block[headerSize] ^= 0xFF // flip a payload byte

	if _, err := Decode(block); err != ErrCorruption {
		t.Fatalf("expected ErrCorruption, got %v", err)
	}
}

func TestDecodeRejectsTruncated(t *testing.T) {
	block := Encode([]byte("payload"), false)
	if _, err := Decode(block[:headerSize]); err != ErrCorruption {
		t.Fatalf("expected ErrCorruption on truncated block, got %v", err)
	}
}

func TestDecodeRejectsOverrunLength(t *testing.T) {
	block := Encode([]byte("payload"), false)
	// Corrupt the declared length so it claims more bytes than the buffer has.
	block[0] = 0xFF
	block[1] = 0xFF
	if _, err := Decode(block); err != ErrCorruption {
		t.Fatalf("expected ErrCorruption on length overrun, got %v", err)
	}
}

func TestReadBlockAt(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(Encode([]byte("first"), false))
	second := Encode([]byte("second-block"), false)
	offset := int64(buf.Len())
	buf.Write(second)

	block, err := ReadBlockAt(bytes.NewReader(buf.Bytes()), offset)
	if err != nil {
		t.Fatalf("ReadBlockAt: %v", err)
	}
	payload, err := Decode(block)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if string(payload) != "second-block" {
		t.Fatalf("got %q", payload)
	}
}
