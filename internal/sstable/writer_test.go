package sstable

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/ignitedb/ignite/internal/record"
)

func buildTestSST(t *testing.T, n int) (*Reader, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "000001.sst")

	w, err := NewWriter(path, n)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}

	for i := 0; i < n; i++ {
		key := []byte(fmt.Sprintf("key-%04d", i))
		if err := w.Add(key, record.FromInline([]byte(fmt.Sprintf("value-%d", i)), uint64(i))); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	if err := w.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return r, path
}

func TestWriterAddRejectsNonAscendingKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.sst")
	w, err := NewWriter(path, 4)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}

	if err := w.Add([]byte("b"), record.FromInline([]byte("1"), 1)); err != nil {
		t.Fatalf("Add: %v", err)
	}

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on non-ascending Add")
		}
		_ = w.Abort()
	}()
	_ = w.Add([]byte("a"), record.FromInline([]byte("2"), 2))
}

func TestReaderGetFindsEveryKey(t *testing.T) {
	const n = 500
	r, _ := buildTestSST(t, n)
	defer r.Close()

	for i := 0; i < n; i++ {
		key := []byte(fmt.Sprintf("key-%04d", i))
		v, ok, err := r.Get(key)
		if err != nil {
			t.Fatalf("Get(%s): %v", key, err)
		}
		if !ok {
			t.Fatalf("Get(%s) not found", key)
		}
		want := fmt.Sprintf("value-%d", i)
		if string(v.Inline) != want {
			t.Fatalf("Get(%s) = %q, want %q", key, v.Inline, want)
		}
	}
}

func TestReaderGetMissingKeyNotFound(t *testing.T) {
	r, _ := buildTestSST(t, 50)
	defer r.Close()

	_, ok, err := r.Get([]byte("zzz-not-present"))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Fatalf("expected not found")
	}
}

func TestReaderMinMaxKey(t *testing.T) {
	r, _ := buildTestSST(t, 10)
	defer r.Close()

	if string(r.MinKey()) != "key-0000" {
		t.Fatalf("MinKey() = %q, want key-0000", r.MinKey())
	}
	if string(r.MaxKey()) != "key-0009" {
		t.Fatalf("MaxKey() = %q, want key-0009", r.MaxKey())
	}
}

func TestIteratorScansInOrder(t *testing.T) {
	const n = 200
	r, _ := buildTestSST(t, n)
	defer r.Close()

	it := r.NewIterator(nil, nil)
	count := 0
	var prev []byte
	for it.Next() {
		if prev != nil && record.Compare(prev, it.Key()) >= 0 {
			t.Fatalf("iterator not ascending: %q then %q", prev, it.Key())
		}
		prev = append([]byte(nil), it.Key()...)
		count++
	}
	if count != n {
		t.Fatalf("iterator visited %d entries, want %d", count, n)
	}
}

func TestIteratorRespectsRange(t *testing.T) {
	r, _ := buildTestSST(t, 100)
	defer r.Close()

	lo := []byte("key-0010")
	hi := []byte("key-0020")

	it := r.NewIterator(lo, hi)
	var got []string
	for it.Next() {
		got = append(got, string(it.Key()))
	}

	if len(got) != 10 {
		t.Fatalf("got %d entries in [key-0010, key-0020), want 10: %v", len(got), got)
	}
	if got[0] != "key-0010" {
		t.Fatalf("first key = %q, want key-0010", got[0])
	}
	if got[len(got)-1] != "key-0019" {
		t.Fatalf("last key = %q, want key-0019", got[len(got)-1])
	}
}

func TestRefCounting(t *testing.T) {
	r, _ := buildTestSST(t, 5)
	r.Ref()
	if got := r.Unref(); got != 1 {
		t.Fatalf("Unref() = %d, want 1", got)
	}
	if got := r.Unref(); got != 0 {
		t.Fatalf("Unref() = %d, want 0", got)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
