package walrec

import (
	"path/filepath"
	"testing"

	"github.com/ignitedb/ignite/internal/record"
)

func TestWriterAppendAndReplay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "0.log")

	w, err := OpenWriter(path, true)
	if err != nil {
		t.Fatalf("OpenWriter: %v", err)
	}

	want := []Record{
		{Key: []byte("a"), Value: record.FromInline([]byte("1"), 1)},
		{Key: []byte("b"), Value: record.Tombstone(2)},
		{Key: []byte("c"), Value: record.FromPointer(record.Pointer{SegmentID: 1, Offset: 10, Length: 5}, 3)},
	}

	for _, r := range want {
		if _, err := w.Append(r.Key, r.Value); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	var got []Record
	validLen, err := Replay(path, func(r Record) error {
		got = append(got, r)
		return nil
	})
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("replayed %d records, want %d", len(got), len(want))
	}
	for i := range want {
		if string(got[i].Key) != string(want[i].Key) {
			t.Fatalf("record %d key = %q, want %q", i, got[i].Key, want[i].Key)
		}
	}

	w2, err := OpenWriter(path, true)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if w2.Offset() != validLen {
		t.Fatalf("reopened offset = %d, want %d", w2.Offset(), validLen)
	}
	_ = w2.Close()
}

func TestReplayTruncatesAtTornTail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "0.log")

	w, err := OpenWriter(path, true)
	if err != nil {
		t.Fatalf("OpenWriter: %v", err)
	}
	if _, err := w.Append([]byte("a"), record.FromInline([]byte("1"), 1)); err != nil {
		t.Fatalf("Append: %v", err)
	}
	validOffset := w.Offset()

	// Simulate a torn write: a second record whose tail never made it to disk.
	torn := Encode(Record{Key: []byte("b"), Value: record.FromInline([]byte("2"), 2)})
	if _, err := w.f.WriteAt(torn[:len(torn)-3], validOffset); err != nil {
		t.Fatalf("simulate torn write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	var got []Record
	validLen, err := Replay(path, func(r Record) error {
		got = append(got, r)
		return nil
	})
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("replayed %d records, want 1", len(got))
	}
	if validLen != validOffset {
		t.Fatalf("validLen = %d, want %d", validLen, validOffset)
	}

	w2, err := OpenWriter(path, true)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if err := w2.Truncate(validLen); err != nil {
		t.Fatalf("Truncate: %v", err)
	}
	if _, err := w2.Append([]byte("c"), record.FromInline([]byte("3"), 3)); err != nil {
		t.Fatalf("Append after truncate: %v", err)
	}
	_ = w2.Close()

	got = nil
	if _, err := Replay(path, func(r Record) error {
		got = append(got, r)
		return nil
	}); err != nil {
		t.Fatalf("Replay after truncate: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("replayed %d records after truncate, want 2", len(got))
	}
	if string(got[1].Key) != "c" {
		t.Fatalf("second record key = %q, want c", got[1].Key)
	}
}
